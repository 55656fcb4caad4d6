package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Message is a single turn handed to the language model.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ErrEmptyReply is returned when the model answers without any choice.
var ErrEmptyReply = errors.New("llm: empty reply")

// Client is what the chat service and the excerpt summariser need from a
// language model.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Summarize(ctx context.Context, instruction, text string) (string, error)
}

// Config selects the OpenAI compatible endpoint and models.
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    string
	SummaryModel string
}

// OpenAIClient calls an OpenAI compatible chat completion API.
type OpenAIClient struct {
	client       *openai.Client
	chatModel    string
	summaryModel string
}

// NewOpenAIClient constructs an OpenAI backed client.  Empty model names
// fall back to gpt-4o-mini.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	summaryModel := cfg.SummaryModel
	if summaryModel == "" {
		summaryModel = chatModel
	}
	return &OpenAIClient{
		client:       openai.NewClientWithConfig(oc),
		chatModel:    chatModel,
		summaryModel: summaryModel,
	}
}

// Chat sends the conversation to the chat completion API and returns the
// assistant's answer.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.client == nil {
		return "", errors.New("llm: openai client not initialized")
	}
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != RoleSystem && role != RoleUser && role != RoleAssistant {
			role = RoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return c.complete(ctx, c.chatModel, oaMsgs)
}

// Summarize asks the model to condense text following instruction.
func (c *OpenAIClient) Summarize(ctx context.Context, instruction, text string) (string, error) {
	return c.complete(ctx, c.summaryModel, []openai.ChatCompletionMessage{
		{Role: RoleSystem, Content: instruction},
		{Role: RoleUser, Content: text},
	})
}

func (c *OpenAIClient) complete(ctx context.Context, model string, msgs []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
