package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNotConfigured = errors.New("llm api key is not configured")
	ErrEmptyResponse = errors.New("llm returned no choices")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one piece of a multimodal turn: either Text or an ImageURL (http or data: URL).
type Part struct {
	Text     string
	ImageURL string
}

// Message is one chat turn. Parts, when set, follow Text in order.
type Message struct {
	Role  Role
	Text  string
	Parts []Part
}

type Request struct {
	Vision      bool
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

type Config struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	VisionModel string
}

type Client struct {
	api         *openai.Client
	textModel   string
	visionModel string
}

// New returns nil when no API key is configured so callers can treat the feature as unavailable.
func New(cfg Config, httpClient *http.Client) *Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		apiCfg.HTTPClient = httpClient
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// Complete sends one chat completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	model := c.textModel
	if req.Vision {
		model = c.visionModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toChatMessage(m))
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toChatMessage(m Message) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if m.Role == RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}
	if len(m.Parts) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: m.Text}
	}

	parts := make([]openai.ChatMessagePart, 0, len(m.Parts)+1)
	if m.Text != "" {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: m.Text})
	}
	for _, p := range m.Parts {
		switch {
		case p.ImageURL != "":
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    p.ImageURL,
					Detail: openai.ImageURLDetailLow,
				},
			})
		case p.Text != "":
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
		}
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}
}
