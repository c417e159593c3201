package output

import (
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ProviderRow describes one configured provider slot for diagnostics.
type ProviderRow struct {
	Role    string `json:"role"`
	ID      string `json:"id"`
	Driver  string `json:"driver"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key"`
	Timeout string `json:"timeout"`

	// Probe is empty unless a live completion was attempted.
	Probe string `json:"probe,omitempty"`
}

// Formatter renders CLI results.
type Formatter interface {
	FormatProviders(rows []ProviderRow) (string, error)
	FormatChat(result *core.CompletionResult) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func hasProbe(rows []ProviderRow) bool {
	for _, row := range rows {
		if row.Probe != "" {
			return true
		}
	}
	return false
}

func servedLabel(result *core.CompletionResult) string {
	switch {
	case result.Degraded:
		return "degraded (secondary quota exceeded)"
	case result.ProviderID != "":
		return fmt.Sprintf("%s (%s)", result.ServedBy, result.ProviderID)
	default:
		return string(result.ServedBy)
	}
}
