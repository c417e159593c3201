package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/internal/core"
	"github.com/chatrelay/chatrelay/internal/core/engine"
	apperrors "github.com/chatrelay/chatrelay/internal/errors"
	"github.com/chatrelay/chatrelay/internal/metrics"
	"github.com/chatrelay/chatrelay/internal/observability"
)

// DefaultMaxBodyBytes caps the size of a chat request body.
const DefaultMaxBodyBytes int64 = 100 << 10

// Public error strings of the chat endpoint.
const (
	MsgMessageRequired    = "Message is required"
	MsgInvalidBody        = "Invalid request body"
	MsgRateLimited        = "Please wait a moment before sending another message"
	MsgProvidersFailed    = "Error communicating with AI services"
	DetailBothAPIsFailed  = "Both APIs failed"
	DetailUnexpectedError = "Unexpected error"
)

// ChatRouter routes one admitted message to a provider.
type ChatRouter interface {
	Route(ctx context.Context, message string, now time.Time) (*core.CompletionResult, error)
}

// ChatResponse is the success body. Degraded replies set IsFailover without Provider.
type ChatResponse struct {
	Response   string `json:"response"`
	IsFailover bool   `json:"isFailover,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// ChatErrorResponse is the error body of the chat endpoint.
type ChatErrorResponse struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	IsRateLimit bool   `json:"isRateLimit,omitempty"`
}

// ChatHandler serves POST /chat.
type ChatHandler struct {
	Router       ChatRouter
	MaxBodyBytes int64
	Clock        func() time.Time
}

// NewChatHandler returns a handler with the default body limit and wall clock.
func NewChatHandler(router ChatRouter) *ChatHandler {
	return &ChatHandler{
		Router:       router,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Clock:        time.Now,
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(w, r)
	if err != nil {
		metrics.RecordChatRequest(metrics.OutcomeInvalid)
		env := apperrors.WrapInvalidInput(r.Context(), err, MsgInvalidBody)
		apperrors.RespondWithBody(w, r, env, ChatErrorResponse{Error: MsgInvalidBody})
		return
	}

	if req.Message == "" {
		metrics.RecordChatRequest(metrics.OutcomeInvalid)
		apperrors.RespondWithBody(w, r, apperrors.NewInvalidInputError(MsgMessageRequired), ChatErrorResponse{Error: MsgMessageRequired})
		return
	}

	// A caller disconnect must not abort an in-flight provider call;
	// each provider bounds its own call with a timeout.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.Router.Route(ctx, req.Message, h.now())
	if err != nil {
		h.respondRouteError(w, r, err)
		return
	}

	resp := NewChatResponse(result)
	switch {
	case result.Degraded:
		metrics.RecordChatRequest(metrics.OutcomeDegraded)
	case result.IsFailover():
		metrics.RecordChatRequest(metrics.OutcomeFailover)
	default:
		metrics.RecordChatRequest(metrics.OutcomeSuccess)
	}

	if logger := observability.ServerLogger; logger != nil {
		logger.Debug("Chat request served",
			zap.String("served_by", string(result.ServedBy)),
			zap.String("provider", result.ProviderID),
			zap.Bool("degraded", result.Degraded))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *ChatHandler) respondRouteError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, engine.ErrRateLimited) {
		metrics.RecordChatRequest(metrics.OutcomeRateLimited)
		apperrors.RespondWithBody(w, r, apperrors.NewRateLimitedError(MsgRateLimited), ChatErrorResponse{
			Error:       MsgRateLimited,
			IsRateLimit: true,
		})
		return
	}

	metrics.RecordChatRequest(metrics.OutcomeFailed)

	var failed *engine.AllProvidersFailedError
	if errors.As(err, &failed) {
		env := apperrors.WrapAllProvidersFailed(r.Context(), err, MsgProvidersFailed)
		apperrors.RespondWithBody(w, r, env, ChatErrorResponse{Error: MsgProvidersFailed, Details: DetailBothAPIsFailed})
		return
	}

	env := apperrors.WrapInternal(r.Context(), err, MsgProvidersFailed)
	apperrors.RespondWithBody(w, r, env, ChatErrorResponse{Error: MsgProvidersFailed, Details: DetailUnexpectedError})
}

type chatRequest struct {
	Message string `json:"message"`
}

// decode reads the JSON body. An empty body decodes to an empty request,
// which then fails the message check rather than the body check.
func (h *ChatHandler) decode(w http.ResponseWriter, r *http.Request) (chatRequest, error) {
	var req chatRequest
	if r.Body == nil {
		return req, nil
	}

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return chatRequest{}, nil
		}
		return chatRequest{}, err
	}
	return req, nil
}

func (h *ChatHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// NewChatResponse maps a routing result onto the wire body.
func NewChatResponse(result *core.CompletionResult) ChatResponse {
	resp := ChatResponse{Response: result.Text}
	switch {
	case result.Degraded:
		resp.IsFailover = true
	case result.IsFailover():
		resp.IsFailover = true
		resp.Provider = result.ProviderID
	}
	return resp
}
