package output

import (
	"encoding/json"

	"github.com/chatrelay/chatrelay/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatProviders renders provider rows as a JSON array.
func (f *JSONFormatter) FormatProviders(rows []ProviderRow) (string, error) {
	if rows == nil {
		rows = []ProviderRow{}
	}
	return f.marshal(rows)
}

// FormatChat renders a completion result as JSON.
func (f *JSONFormatter) FormatChat(result *core.CompletionResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
