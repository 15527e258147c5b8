package completion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/interviewlab/interview-api/internal/domain"
)

// GeminiClient implements domain.CompletionClient on Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, projectID, location, modelName string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("gcp project and location are required for the gemini backend")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete sends the assembled transcript to Gemini. System entries are
// folded into the model's system instruction; the conversation entries keep
// their order and roles.
func (g *GeminiClient) Complete(ctx context.Context, entries []domain.PromptEntry) (string, error) {
	var system []string
	var contents []*genai.Content

	for _, entry := range entries {
		switch entry.Role {
		case domain.PromptRoleSystem:
			system = append(system, entry.Content)
		case domain.PromptRoleAssistant:
			contents = append(contents, genai.NewContentFromText(entry.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(entry.Content, genai.RoleUser))
		}
	}

	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}
	return text, nil
}
