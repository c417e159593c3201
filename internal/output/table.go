package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chatrelay/chatrelay/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatProviders renders one row per provider slot.
func (f *TableFormatter) FormatProviders(rows []ProviderRow) (string, error) {
	probe := hasProbe(rows)

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	header := table.Row{"Role", "ID", "Driver", "Model", "Base URL", "API Key", "Timeout"}
	if probe {
		header = append(header, "Probe")
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := table.Row{r.Role, r.ID, r.Driver, r.Model, r.BaseURL, r.APIKey, r.Timeout}
		if probe {
			row = append(row, r.Probe)
		}
		t.AppendRow(row)
	}

	return t.Render(), nil
}

// FormatChat renders the reply with its routing metadata.
func (f *TableFormatter) FormatChat(result *core.CompletionResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Served by", servedLabel(result)})
	t.AppendRow(table.Row{"Failover", result.IsFailover()})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Response", result.Text})

	return t.Render(), nil
}
