package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// Markers used when there is no transcript or user message yet.
const (
	noHistoryMarker    = "(No previous messages - this is the session start)"
	sessionStartMarker = "[SESSION START - Deliver opening greeting]"
	openingInstruction = "This is the start of the session. Deliver your opening greeting and first question."
)

// PromptContext is everything the assembler reads. It is never mutated.
type PromptContext struct {
	State       models.SessionState
	History     []models.ConversationMessage
	CompanyName string
	UserName    string
}

// BuildContextMessage renders the session context and transcript sections.
// Output depends only on pc; empty collections produce no heading.
func BuildContextMessage(pc PromptContext) string {
	var b strings.Builder

	b.WriteString("<session_context>\n")
	fmt.Fprintf(&b, "Current Phase: %s\n", pc.State.Phase)
	if pc.CompanyName != "" {
		fmt.Fprintf(&b, "Company Name: %s\n", pc.CompanyName)
	}
	if pc.UserName != "" {
		fmt.Fprintf(&b, "User Name: %s\n", pc.UserName)
	}
	if len(pc.State.RapidFireResponses) > 0 {
		b.WriteString("\nRapid Fire Responses:\n")
		for _, r := range pc.State.RapidFireResponses {
			fmt.Fprintf(&b, "- %s: %s\n", r.Word, r.Response)
		}
	}
	if len(pc.State.IdentifiedValues) > 0 {
		b.WriteString("\nIdentified Values:\n")
		for _, v := range pc.State.IdentifiedValues {
			if v.Definition != "" {
				fmt.Fprintf(&b, "- %s: %s\n", v.Name, v.Definition)
			} else {
				fmt.Fprintf(&b, "- %s\n", v.Name)
			}
		}
	}
	if len(pc.State.DeepDiveValuesExplored) > 0 {
		fmt.Fprintf(&b, "\nValues Already Explored in Deep Dive: %s\n", strings.Join(pc.State.DeepDiveValuesExplored, ", "))
	}
	b.WriteString("</session_context>\n\n")

	b.WriteString("<conversation_history>\n")
	if len(pc.History) == 0 {
		b.WriteString(noHistoryMarker + "\n")
	}
	for _, m := range pc.History {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
	}
	b.WriteString("</conversation_history>")

	return b.String()
}

// BuildUserMessage renders the full prompt for a user turn.
func BuildUserMessage(pc PromptContext, userMessage string) string {
	return BuildContextMessage(pc) + "\n\n<current_user_message>\n" + userMessage + "\n</current_user_message>"
}

// BuildInitialMessage renders the prompt that asks for the opening greeting.
func BuildInitialMessage(companyName, userName string) string {
	var b strings.Builder
	b.WriteString("<session_context>\n")
	fmt.Fprintf(&b, "Current Phase: %s\n", models.PhaseOpening)
	if companyName != "" {
		fmt.Fprintf(&b, "The founder's company is called \"%s\".\n", companyName)
	}
	if userName != "" {
		fmt.Fprintf(&b, "The founder's name is %s.\n", userName)
	}
	b.WriteString(openingInstruction + "\n")
	b.WriteString("</session_context>\n\n")
	b.WriteString("<conversation_history>\n" + noHistoryMarker + "\n</conversation_history>\n\n")
	b.WriteString("<current_user_message>\n" + sessionStartMarker + "\n</current_user_message>")
	return b.String()
}
