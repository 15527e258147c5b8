package transcript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewlab/interview-api/internal/app/transcript"
	"github.com/interviewlab/interview-api/internal/domain"
)

var (
	participant = domain.Agent{ID: "p-1", Name: "Alice", Role: domain.RoleParticipant}
	assistant   = domain.Agent{ID: "a-1", Name: "Interviewer", Role: domain.RoleAssistant}
)

func userMsg(id, content string) domain.Message {
	return domain.Message{ID: domain.MessageID(id), Content: content, Sender: participant}
}

func assistantMsg(id, content string) domain.Message {
	return domain.Message{ID: domain.MessageID(id), Content: content, Sender: assistant}
}

func TestAssembleSkipsBlankFraming(t *testing.T) {
	// Framing ["SysA", "", "SysC"] with an empty history: exactly two system
	// entries then one user entry.
	entries := transcript.Assemble(transcript.Framing{
		InteractionDescription: "SysA",
		ExchangeInstructions:   "",
		AssistantDescription:   "SysC",
	}, nil, userMsg("new", "hello"))

	require.Len(t, entries, 3)
	assert.Equal(t, domain.PromptEntry{Role: domain.PromptRoleSystem, Content: "SysA"}, entries[0])
	assert.Equal(t, domain.PromptEntry{Role: domain.PromptRoleSystem, Content: "SysC"}, entries[1])
	assert.Equal(t, domain.PromptEntry{Role: domain.PromptRoleUser, Content: "hello"}, entries[2])
}

func TestAssembleEmptyHistory(t *testing.T) {
	framing := transcript.Framing{
		InteractionDescription: "desc",
		ExchangeInstructions:   "instr",
		AssistantDescription:   "persona",
	}
	entries := transcript.Assemble(framing, nil, userMsg("new", "first answer"))

	// len(non-empty framing) + 1.
	require.Len(t, entries, 4)
	assert.Equal(t, domain.PromptRoleUser, entries[3].Role)
}

func TestAssembleTagsHistoryBySenderRole(t *testing.T) {
	history := []domain.Message{
		assistantMsg("m1", "How was the concert?"),
		userMsg("m2", "Loud but fascinating."),
		assistantMsg("m3", "What stood out?"),
	}

	entries := transcript.Assemble(transcript.Framing{ExchangeInstructions: "instr"}, history, userMsg("m4", "The spatial sound."))

	require.Len(t, entries, 5)
	assert.Equal(t, domain.PromptRoleSystem, entries[0].Role)
	assert.Equal(t, domain.PromptRoleAssistant, entries[1].Role)
	assert.Equal(t, domain.PromptRoleUser, entries[2].Role)
	assert.Equal(t, domain.PromptRoleAssistant, entries[3].Role)
	assert.Equal(t, domain.PromptRoleUser, entries[4].Role)
	assert.Equal(t, "The spatial sound.", entries[4].Content)
}

func TestAssembleNewMessageAlwaysUserRole(t *testing.T) {
	// Role tagging of the trailing entry is positional by contract: even a
	// message whose sender is an assistant goes out as a user entry.
	entries := transcript.Assemble(transcript.Framing{}, nil, assistantMsg("odd", "spoken by the assistant"))

	require.Len(t, entries, 1)
	assert.Equal(t, domain.PromptRoleUser, entries[0].Role)
}

func TestAssembleDeterministic(t *testing.T) {
	framing := transcript.Framing{InteractionDescription: "desc", ExchangeInstructions: "instr"}
	history := []domain.Message{
		assistantMsg("m1", "cue"),
		userMsg("m2", "answer"),
	}
	newMsg := userMsg("m3", "follow-up")

	first := transcript.Assemble(framing, history, newMsg)
	second := transcript.Assemble(framing, history, newMsg)

	assert.Equal(t, first, second)
}

func TestAssembleDoesNotMutateHistory(t *testing.T) {
	history := []domain.Message{assistantMsg("m1", "cue")}
	snapshot := make([]domain.Message, len(history))
	copy(snapshot, history)

	_ = transcript.Assemble(transcript.Framing{InteractionDescription: "desc"}, history, userMsg("m2", "answer"))

	assert.Equal(t, snapshot, history)
}
