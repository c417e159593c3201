package gemini

import (
	"fmt"

	"github.com/chatrelay/chatrelay/internal/ailink/content"
	"github.com/chatrelay/chatrelay/internal/ailink/driver"
)

type generateContentResponse struct {
	Candidates    []candidate    `json:"candidates,omitempty"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
}

type candidate struct {
	Content      *geminiContent `json:"content,omitempty"`
	FinishReason string         `json:"finishReason,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// toDriverResponse reads the first candidate. Missing candidates or a
// candidate without parts count as an empty response.
func toDriverResponse(resp *generateContentResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned: %w", driver.ErrEmptyResponse)
	}

	first := resp.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 {
		return nil, fmt.Errorf("candidate has no content parts: %w", driver.ErrEmptyResponse)
	}

	blocks := make([]content.ContentBlock, 0, len(first.Content.Parts))
	for _, p := range first.Content.Parts {
		if p.Thought {
			continue
		}
		blocks = append(blocks, content.ContentBlock{Type: content.ContentTypeText, Text: p.Text})
	}

	response := &driver.Response{
		Content:      blocks,
		FinishReason: first.FinishReason,
	}
	if resp.UsageMetadata != nil {
		response.Usage = &driver.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return response, nil
}
