package completion

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/interviewlab/interview-api/internal/domain"
)

// OpenAIClient implements domain.CompletionClient on the OpenAI chat
// completions API.
type OpenAIClient struct {
	client    openai.Client
	modelName string
}

func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required for the openai backend")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
	}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, entries []domain.PromptEntry) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(entries))
	for _, entry := range entries {
		switch entry.Role {
		case domain.PromptRoleSystem:
			messages = append(messages, openai.SystemMessage(entry.Content))
		case domain.PromptRoleAssistant:
			messages = append(messages, openai.AssistantMessage(entry.Content))
		default:
			messages = append(messages, openai.UserMessage(entry.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.modelName),
		Messages: messages,
	}

	res, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	content := res.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return content, nil
}
