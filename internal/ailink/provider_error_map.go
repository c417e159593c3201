package ailink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/chatrelay/chatrelay/internal/ailink/driver"
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	KindTransient     ErrorKind = "transient"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindUnknown       ErrorKind = "unknown"
)

const maxDetailLen = 300

// ProviderError is the classified outcome of a failed provider call.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Detail   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsQuotaExceeded reports whether err is a provider quota/billing failure.
func IsQuotaExceeded(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Kind == KindQuotaExceeded
}

// ClassifyError maps a raw driver failure onto the provider error taxonomy.
func ClassifyError(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}

	var classified *ProviderError
	if errors.As(err, &classified) && classified != nil {
		return classified
	}

	out := &ProviderError{Provider: provider, Kind: KindUnknown, Err: err, Detail: safeDetail(err.Error())}

	var perr *driver.ProviderError
	switch {
	case errors.As(err, &perr) && perr != nil:
		out.Detail = safeDetail(perr.Message)
		out.Kind = kindForProviderError(perr)
	case errors.Is(err, driver.ErrEmptyResponse):
		out.Kind = KindUnknown
	case errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindTransient
		out.Detail = "provider request timed out"
	case isNetworkError(err):
		out.Kind = KindTransient
	}
	return out
}

func kindForProviderError(perr *driver.ProviderError) ErrorKind {
	if isQuotaCode(perr.Code) || isQuotaCode(perr.Type) || strings.EqualFold(perr.Status, "RESOURCE_EXHAUSTED") {
		return KindQuotaExceeded
	}

	status := perr.StatusCode
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return KindTransient
	case status >= 500 && status <= 599:
		return KindTransient
	default:
		return KindUnknown
	}
}

func isQuotaCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), "insufficient_quota")
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func safeDetail(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) > maxDetailLen {
		return s[:maxDetailLen]
	}
	return s
}
