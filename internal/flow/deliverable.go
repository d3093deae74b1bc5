package flow

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/BTreeMap/BrandDiscovery/internal/models"
)

// Deliverable defaults.
const (
	DefaultCompanyName = "Your Brand"
	MaxKeyInsights     = 5
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Typographer))

// BuildDeliverableContent assembles the shareable summary for a session. The
// summary is dated by when the session started.
func BuildDeliverableContent(companyName string, values []models.ValueRecord, insights []string, startedAt, generatedAt time.Time) models.DeliverableContent {
	if strings.TrimSpace(companyName) == "" {
		companyName = DefaultCompanyName
	}
	final := make([]models.ValueRecord, len(values))
	for i, v := range values {
		v.IsFinal = true
		v.Quotes = append([]string{}, v.Quotes...)
		final[i] = v
	}
	keyInsights := append([]string{}, insights...)
	if len(keyInsights) > MaxKeyInsights {
		keyInsights = keyInsights[:MaxKeyInsights]
	}
	return models.DeliverableContent{
		CompanyName:    companyName,
		GeneratedAt:    generatedAt.UTC(),
		Values:         final,
		SessionSummary: fmt.Sprintf("Brand values discovered through an interactive session on %s.", startedAt.UTC().Format("January 2, 2006")),
		KeyInsights:    keyInsights,
	}
}

// RenderMarkdown renders a deliverable as a Markdown document.
func RenderMarkdown(c models.DeliverableContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: Core Values\n\n", c.CompanyName)
	fmt.Fprintf(&b, "_%s_\n\n", c.SessionSummary)

	if len(c.Values) == 0 {
		b.WriteString("*No values were identified during this session.*\n\n")
	}
	for i, v := range c.Values {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, v.Name)
		if v.Definition != "" {
			b.WriteString(v.Definition + "\n\n")
		}
		if v.InPractice != "" {
			fmt.Fprintf(&b, "**In practice:** %s\n\n", v.InPractice)
		}
		if v.AntiPattern != "" {
			fmt.Fprintf(&b, "**What it is not:** %s\n\n", v.AntiPattern)
		}
		if len(v.Quotes) > 0 {
			b.WriteString("**In your words:**\n\n")
			for _, q := range v.Quotes {
				fmt.Fprintf(&b, "> \"%s\"\n\n", q)
			}
		}
	}

	if len(c.KeyInsights) > 0 {
		b.WriteString("---\n\n## Key Insights\n\n")
		for _, insight := range c.KeyInsights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}
	return b.String()
}

// RenderHTML renders a deliverable as an HTML fragment.
func RenderHTML(c models.DeliverableContent) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(c)), &buf); err != nil {
		return "", fmt.Errorf("failed to render deliverable: %w", err)
	}
	return buf.String(), nil
}

// ValuesSummary joins value names for display, e.g. "A, B, and C".
func ValuesSummary(values []models.ValueRecord) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Name
	}
	switch len(names) {
	case 0:
		return "No values identified yet."
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
