package flow

import "github.com/BTreeMap/BrandDiscovery/internal/models"

// ValueWords is the bank of candidate values offered during rapid fire.
var ValueWords = []string{
	"Innovation", "Trust", "Excellence", "Authenticity", "Boldness",
	"Community", "Simplicity", "Transparency", "Creativity", "Reliability",
	"Empowerment", "Sustainability", "Speed", "Quality", "Accessibility",
	"Expertise", "Disruption", "Tradition", "Independence", "Collaboration",
	"Integrity", "Adventure", "Precision", "Warmth", "Ambition",
	"Humility", "Curiosity", "Resilience", "Joy", "Impact",
}

// IsValueWord reports whether word is in the bank.
func IsValueWord(word string) bool {
	for _, w := range ValueWords {
		if w == word {
			return true
		}
	}
	return false
}

// MarkValueExplored adds name to the explored set if it is not already there.
func MarkValueExplored(state models.SessionState, name string) models.SessionState {
	if name == "" {
		return state
	}
	for _, explored := range state.DeepDiveValuesExplored {
		if explored == name {
			return state
		}
	}
	next := state.Clone()
	next.DeepDiveValuesExplored = append(next.DeepDiveValuesExplored, name)
	return next
}

// UpdateValueDefinition replaces the definition of the named value. The second
// return is false when no such value exists.
func UpdateValueDefinition(state models.SessionState, name, definition string) (models.SessionState, bool) {
	return updateValue(state, name, func(v *models.IdentifiedValue) { v.Definition = definition })
}

// AddValueQuote appends a founder quote to the named value.
func AddValueQuote(state models.SessionState, name, quote string) (models.SessionState, bool) {
	return updateValue(state, name, func(v *models.IdentifiedValue) { v.Quotes = append(v.Quotes, quote) })
}

func updateValue(state models.SessionState, name string, fn func(*models.IdentifiedValue)) (models.SessionState, bool) {
	next := state.Clone()
	for i := range next.IdentifiedValues {
		if next.IdentifiedValues[i].Name == name {
			fn(&next.IdentifiedValues[i])
			return next, true
		}
	}
	return state, false
}

// UnexploredValues returns identified values that have not had a deep dive.
func UnexploredValues(state models.SessionState) []string {
	explored := make(map[string]bool, len(state.DeepDiveValuesExplored))
	for _, name := range state.DeepDiveValuesExplored {
		explored[name] = true
	}
	out := []string{}
	for _, v := range state.IdentifiedValues {
		if !explored[v.Name] {
			out = append(out, v.Name)
		}
	}
	return out
}

// YesResponses returns the words answered yes, in order.
func YesResponses(state models.SessionState) []string {
	return wordsAnswered(state, models.AnswerYes)
}

// MaybeResponses returns the words answered maybe, in order.
func MaybeResponses(state models.SessionState) []string {
	return wordsAnswered(state, models.AnswerMaybe)
}

func wordsAnswered(state models.SessionState, answer models.RapidFireAnswer) []string {
	out := []string{}
	for _, r := range state.RapidFireResponses {
		if r.Response == answer {
			out = append(out, r.Word)
		}
	}
	return out
}
