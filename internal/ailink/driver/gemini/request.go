package gemini

import (
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay/internal/ailink/content"
	"github.com/chatrelay/chatrelay/internal/ailink/driver"
)

type generateContentRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

// geminiContent is a turn; user turns omit the role, model turns use "model".
type geminiContent struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

func buildGenerateRequest(req *driver.Request) (*generateContentRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	contents := make([]geminiContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		parts := make([]part, 0, len(msg.Content))
		for _, block := range msg.Content {
			if block.Type != content.ContentTypeText {
				return nil, fmt.Errorf("unsupported content type: %s", block.Type)
			}
			parts = append(parts, part{Text: block.Text})
		}
		turn := geminiContent{Parts: parts}
		if msg.Role == content.RoleAssistant {
			turn.Role = "model"
		}
		contents = append(contents, turn)
	}

	payload := &generateContentRequest{Contents: contents}
	if req.Temperature != nil || req.MaxTokens != nil {
		payload.GenerationConfig = &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}
	return payload, nil
}
