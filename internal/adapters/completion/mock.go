package completion

import (
	"context"
	"fmt"

	"github.com/interviewlab/interview-api/internal/domain"
)

// MockClient is a deterministic stand-in for local development and tests.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(_ context.Context, entries []domain.PromptEntry) (string, error) {
	last := ""
	for _, entry := range entries {
		if entry.Role == domain.PromptRoleUser {
			last = entry.Content
		}
	}
	return fmt.Sprintf("I hear you. You said %q. Could you tell me a bit more about that?", last), nil
}
