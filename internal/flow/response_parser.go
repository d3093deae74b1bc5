package flow

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// ParseError reports that no JSON could be extracted from a model reply.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "no parseable JSON found in model response"
}

// SchemaError reports that extracted JSON does not have the expected shape.
type SchemaError struct {
	Raw    string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid model response: %s", e.Reason)
	}
	return fmt.Sprintf("invalid model response: %s %s", e.Field, e.Reason)
}

// Extraction strategies, tried in this order.
const (
	StrategyDirect = "direct"
	StrategyFenced = "fenced"
	StrategyBraces = "braces"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

type extractor struct {
	name string
	fn   func(raw string) string
}

var extractors = []extractor{
	{StrategyDirect, func(raw string) string { return strings.TrimSpace(raw) }},
	{StrategyFenced, func(raw string) string {
		m := fencedBlock.FindStringSubmatch(raw)
		if m == nil {
			return ""
		}
		return strings.TrimSpace(m[1])
	}},
	{StrategyBraces, func(raw string) string {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end < start {
			return ""
		}
		return raw[start : end+1]
	}},
}

// extractJSON returns the first candidate that is valid JSON and the name of
// the strategy that produced it.
func extractJSON(raw string) (string, string, bool) {
	for _, ex := range extractors {
		candidate := ex.fn(raw)
		if candidate != "" && gjson.Valid(candidate) {
			return candidate, ex.name, true
		}
	}
	return "", "", false
}

// ParseAgentResponse extracts, normalizes and validates a model reply. It
// returns a *ParseError when no JSON can be found and a *SchemaError when the
// JSON does not match the response shape. Invalid values are never coerced.
func ParseAgentResponse(raw string) (models.AgentResponse, error) {
	text, strategy, ok := extractJSON(raw)
	if !ok {
		return models.AgentResponse{}, &ParseError{Raw: raw}
	}
	slog.Debug("flow.ParseAgentResponse: JSON extracted", "strategy", strategy, "length", len(text))

	v := validator{raw: raw}
	resp := v.response(gjson.Parse(text))
	if v.err != nil {
		return models.AgentResponse{}, v.err
	}
	return resp, nil
}

// validator accumulates the first schema violation.
type validator struct {
	raw string
	err *SchemaError
}

func (v *validator) fail(field, reason string) {
	if v.err == nil {
		v.err = &SchemaError{Raw: v.raw, Field: field, Reason: reason}
	}
}

func (v *validator) response(root gjson.Result) models.AgentResponse {
	var resp models.AgentResponse
	if !root.IsObject() {
		v.fail("", "must be a JSON object")
		return resp
	}
	resp.SpokenResponse = v.requiredString(root, "spokenResponse")
	resp.InternalNotes = v.requiredString(root, "internalNotes")

	updates := root.Get("stateUpdates")
	if !updates.IsObject() {
		v.fail("stateUpdates", "must be an object")
		return resp
	}
	phaseField := updates.Get("phase")
	if phaseField.Type != gjson.String {
		v.fail("stateUpdates.phase", "must be a string")
	} else if phase, ok := models.ParsePhase(phaseField.Str); !ok {
		v.fail("stateUpdates.phase", fmt.Sprintf("%q is not a known phase", phaseField.Str))
	} else {
		resp.StateUpdates.Phase = phase
	}
	resp.StateUpdates.NewInsights = v.stringList(updates, "newInsights", "stateUpdates.")
	resp.StateUpdates.IdentifiedValues = v.stringList(updates, "identifiedValues", "stateUpdates.")
	resp.StateUpdates.ValuesToExplore = v.stringList(updates, "valuesToExplore", "stateUpdates.")

	resp.UIActions = v.uiActions(root.Get("uiActions"))
	return resp
}

func (v *validator) requiredString(obj gjson.Result, field string) string {
	r := obj.Get(field)
	if r.Type != gjson.String {
		v.fail(field, "must be a string")
		return ""
	}
	return r.Str
}

// stringList treats an absent or null list as empty.
func (v *validator) stringList(obj gjson.Result, field, prefix string) []string {
	r := obj.Get(field)
	out := []string{}
	if !r.Exists() || r.Type == gjson.Null {
		return out
	}
	if !r.IsArray() {
		v.fail(prefix+field, "must be an array of strings")
		return out
	}
	for _, item := range r.Array() {
		if item.Type != gjson.String {
			v.fail(prefix+field, "must be an array of strings")
			return []string{}
		}
		out = append(out, item.Str)
	}
	return out
}

func (v *validator) optionalString(obj gjson.Result, field string) *string {
	r := obj.Get(field)
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.Type != gjson.String {
		v.fail("uiActions."+field, "must be a string or null")
		return nil
	}
	s := r.Str
	return &s
}

// uiActions treats an absent, null or false value as an empty object.
func (v *validator) uiActions(r gjson.Result) models.UIActions {
	var ui models.UIActions
	if !r.Exists() || r.Type == gjson.Null || r.Type == gjson.False {
		return ui
	}
	if !r.IsObject() {
		v.fail("uiActions", "must be an object")
		return ui
	}

	if cards := r.Get("showValueCards"); cards.Exists() && cards.Type != gjson.Null {
		ui.ShowValueCards = v.stringList(r, "showValueCards", "uiActions.")
	}
	ui.HighlightValue = v.optionalString(r, "highlightValue")
	ui.UpdateProgress = v.optionalString(r, "updateProgress")

	if summary := r.Get("showSummary"); summary.Exists() {
		if summary.Type != gjson.True && summary.Type != gjson.False {
			v.fail("uiActions.showSummary", "must be a boolean")
		} else {
			b := summary.Bool()
			ui.ShowSummary = &b
		}
	}
	return ui
}
