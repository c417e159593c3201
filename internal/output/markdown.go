package output

import (
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/internal/core"
)

// MarkdownFormatter renders results as markdown.
type MarkdownFormatter struct{}

// FormatProviders renders provider rows as a markdown table.
func (f *MarkdownFormatter) FormatProviders(rows []ProviderRow) (string, error) {
	probe := hasProbe(rows)

	var sb strings.Builder
	sb.WriteString("## Providers\n\n")
	if probe {
		sb.WriteString("| Role | ID | Driver | Model | Base URL | API Key | Timeout | Probe |\n")
		sb.WriteString("|------|----|--------|-------|----------|---------|---------|-------|\n")
	} else {
		sb.WriteString("| Role | ID | Driver | Model | Base URL | API Key | Timeout |\n")
		sb.WriteString("|------|----|--------|-------|----------|---------|---------|\n")
	}

	for _, r := range rows {
		cells := []string{r.Role, r.ID, r.Driver, r.Model, r.BaseURL, r.APIKey, r.Timeout}
		if probe {
			cells = append(cells, r.Probe)
		}
		for i, cell := range cells {
			cells[i] = escapeMarkdownCell(cell)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return sb.String(), nil
}

// FormatChat renders the reply followed by its routing metadata.
func (f *MarkdownFormatter) FormatChat(result *core.CompletionResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(result.Text)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("_Served by %s_\n", servedLabel(result)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", " ")
}
