package core

// ProviderRole identifies which slot of the failover pair served a request.
type ProviderRole string

const (
	RolePrimary   ProviderRole = "primary"
	RoleSecondary ProviderRole = "secondary"
)

// CompletionRequest is a single inbound chat message.
type CompletionRequest struct {
	Message string `json:"message"`
}

// CompletionResult is the outcome of routing one accepted request.
//
// Degraded marks a canned fallback message rather than genuine model output.
type CompletionResult struct {
	Text       string       `json:"text"`
	ServedBy   ProviderRole `json:"served_by"`
	ProviderID string       `json:"provider_id,omitempty"`
	Degraded   bool         `json:"degraded"`
}

// IsFailover reports whether the result came from the secondary provider.
func (r *CompletionResult) IsFailover() bool {
	return r != nil && r.ServedBy == RoleSecondary
}
