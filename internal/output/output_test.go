package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay/internal/core"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("md")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func sampleRows() []ProviderRow {
	return []ProviderRow{
		{Role: "primary", ID: "openai", Driver: "openai", Model: "gpt-3.5-turbo", APIKey: "sk-…cdef", Timeout: "1m0s"},
		{Role: "secondary", ID: "gemini", Driver: "gemini", Model: "gemini-2.0-flash", APIKey: "missing", Timeout: "1m0s"},
	}
}

func TestFormatProviders(t *testing.T) {
	rows := sampleRows()

	tableRendered, err := NewFormatter(FormatTable).FormatProviders(rows)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "ROLE")
	require.Contains(t, tableRendered, "gpt-3.5-turbo")
	require.NotContains(t, tableRendered, "PROBE")

	jsonRendered, err := NewFormatter(FormatJSON).FormatProviders(rows)
	require.NoError(t, err)
	var decoded []ProviderRow
	require.NoError(t, json.Unmarshal([]byte(jsonRendered), &decoded))
	require.Equal(t, rows, decoded)

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatProviders(rows)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "| Role | ID | Driver | Model | Base URL | API Key | Timeout |")
	require.Contains(t, markdownRendered, "| secondary | gemini |")
}

func TestFormatProvidersWithProbe(t *testing.T) {
	rows := sampleRows()
	rows[0].Probe = "ok (120ms)"

	tableRendered, err := NewFormatter(FormatTable).FormatProviders(rows)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "PROBE")
	require.Contains(t, tableRendered, "ok (120ms)")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatProviders(rows)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "| Probe |")
}

func TestFormatChat(t *testing.T) {
	result := &core.CompletionResult{Text: "hello | world", ServedBy: core.RoleSecondary, ProviderID: "gemini"}

	tableRendered, err := NewFormatter(FormatTable).FormatChat(result)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "secondary (gemini)")
	require.Contains(t, tableRendered, "hello | world")

	jsonRendered, err := NewFormatter(FormatJSON).FormatChat(result)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"served_by\": \"secondary\"")
	require.Contains(t, jsonRendered, "\"provider_id\": \"gemini\"")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatChat(result)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "_Served by secondary (gemini)_")

	degraded := &core.CompletionResult{Text: "quota", ServedBy: core.RoleSecondary, Degraded: true}
	tableRendered, err = NewFormatter(FormatTable).FormatChat(degraded)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "degraded")

	empty, err := NewFormatter(FormatJSON).FormatChat(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
