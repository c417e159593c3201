package driver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Drivers should populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys.
type ProviderError struct {
	Provider   string
	StatusCode int
	// Code is the provider's machine-readable error code, when present
	// (OpenAI "insufficient_quota", Gemini numeric codes rendered as text).
	Code string
	// Type is OpenAI's error.type.
	Type string
	// Status is Google's canonical status (e.g. "RESOURCE_EXHAUSTED").
	Status      string
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

type errorBody struct {
	Error *struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Status  string          `json:"status"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// NewProviderError builds a ProviderError from a non-2xx response, extracting
// the structured error fields that OpenAI and Google APIs both nest under "error".
func NewProviderError(provider string, statusCode int, body []byte) *ProviderError {
	perr := &ProviderError{
		Provider:    provider,
		StatusCode:  statusCode,
		Message:     strings.TrimSpace(string(body)),
		RawResponse: body,
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error == nil {
		return perr
	}

	if msg := strings.TrimSpace(parsed.Error.Message); msg != "" {
		perr.Message = msg
	}
	perr.Type = strings.TrimSpace(parsed.Error.Type)
	perr.Status = strings.TrimSpace(parsed.Error.Status)
	perr.Code = decodeCode(parsed.Error.Code)
	return perr
}

func decodeCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	return ""
}
