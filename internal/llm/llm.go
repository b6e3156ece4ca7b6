package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tawjihai/tawjih/internal/llm/prompts"
	"github.com/tawjihai/tawjih/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client is a counselor responder backed by an OpenAI-compatible API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: 0.7,
	}
}

// Ping checks that the endpoint is reachable and serves models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Respond sends the conversation history and the new student message to
// the model and returns its reply.
func (c *Client) Respond(ctx context.Context, history []model.AiMessage, message string) (string, error) {
	chatMsgs, err := buildMessages(ctx, history, message)
	if err != nil {
		return "", err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	reply := resp.Choices[0].Message.Content
	slog.DebugContext(ctx, "LLM response", "model", c.model, "chars", len(reply))
	if reply == "" {
		return "", fmt.Errorf("LLM returned an empty reply")
	}
	return reply, nil
}

func buildMessages(ctx context.Context, history []model.AiMessage, message string) ([]openai.ChatCompletionMessage, error) {
	data := prompts.CounselorData{Language: model.LanguageFromContext(ctx)}
	if u := model.UserFromContext(ctx); u != nil {
		data.StudentName = u.FullName
	}
	systemPrompt, err := prompts.BuildCounselorPrompt(data)
	if err != nil {
		return nil, fmt.Errorf("build counselor prompt: %w", err)
	}

	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		content := prompts.WrapStudentMessage(m.Content)
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
			content = m.Content
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{Role: role, Content: content})
	}
	chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompts.WrapStudentMessage(message),
	})
	return chatMsgs, nil
}
