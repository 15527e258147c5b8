package interaction_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewlab/interview-api/internal/adapters/storage/memory"
	"github.com/interviewlab/interview-api/internal/app/interaction"
	"github.com/interviewlab/interview-api/internal/domain"
)

// stubCompletion scripts the completion service and records every call.
type stubCompletion struct {
	reply string
	err   error

	calls       int
	lastEntries []domain.PromptEntry
}

func (s *stubCompletion) Complete(_ context.Context, entries []domain.PromptEntry) (string, error) {
	s.calls++
	s.lastEntries = entries
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// countingRecordStore wraps a real store to count create/patch calls and to
// inject create failures.
type countingRecordStore struct {
	domain.RecordStore

	creates    int
	patches    int
	failCreate bool
}

func (s *countingRecordStore) Create(ctx context.Context, snap domain.RecordSnapshot) (domain.RecordSnapshot, error) {
	s.creates++
	if s.failCreate {
		return domain.RecordSnapshot{}, errors.New("store unavailable")
	}
	return s.RecordStore.Create(ctx, snap)
}

func (s *countingRecordStore) Patch(ctx context.Context, id domain.RecordID, data domain.Interaction) (domain.RecordSnapshot, error) {
	s.patches++
	return s.RecordStore.Patch(ctx, id, data)
}

func seedSettings(t *testing.T, store *memory.SettingsStore, exchanges []domain.ExchangeTemplate) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveChat(ctx, domain.ChatSettings{
		Name:                    "Concert interview",
		Description:             "An interview about an electroacoustic concert.",
		ParticipantInstructions: "Answer honestly.",
		ParticipantEndText:      "Thank you.",
	}))
	require.NoError(t, store.SaveExchanges(ctx, domain.ExchangesSettings{ExchangeList: exchanges}))
}

func defaultExchanges() []domain.ExchangeTemplate {
	return []domain.ExchangeTemplate{
		{
			ID:             "tpl-1",
			Name:           "Opening",
			Assistant:      domain.AssistantTemplate{ID: "a-1", Name: "Interviewer", Description: "A curious interviewer."},
			Instructions:   "Ask follow-up questions about the concert.",
			Cue:            "How did you experience the concert?",
			FollowUpBudget: 2,
		},
		{
			ID:             "tpl-2",
			Name:           "Closing",
			Assistant:      domain.AssistantTemplate{ID: "a-1", Name: "Interviewer"},
			Cue:            "Anything to add?",
			FollowUpBudget: 0,
			HardLimit:      true,
		},
	}
}

type testEnv struct {
	svc        *interaction.Service
	completion *stubCompletion
	records    *countingRecordStore
}

func newTestEnv(t *testing.T, exchanges []domain.ExchangeTemplate) *testEnv {
	t.Helper()

	completion := &stubCompletion{reply: "Interesting, tell me more."}
	records := &countingRecordStore{RecordStore: memory.NewRecordStore()}
	settingsStore := memory.NewSettingsStore()
	seedSettings(t, settingsStore, exchanges)

	return &testEnv{
		svc:        interaction.NewService(completion, records, settingsStore),
		completion: completion,
		records:    records,
	}
}

func (e *testEnv) begin(t *testing.T, participantID domain.ParticipantID) domain.Interaction {
	t.Helper()
	ctx := context.Background()

	_, err := e.svc.GetOrMaterialize(ctx, participantID, "Alice")
	require.NoError(t, err)

	inter, err := e.svc.Start(ctx, participantID)
	require.NoError(t, err)
	return inter
}

func TestMaterializeOnceThenRehydrate(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	ctx := context.Background()

	first, err := env.svc.GetOrMaterialize(ctx, "p-1", "Alice")
	require.NoError(t, err)
	assert.False(t, first.Rehydrated)
	assert.Len(t, first.Interaction.Exchanges, 2)

	// A second visit rehydrates instead of discarding progress.
	second, err := env.svc.GetOrMaterialize(ctx, "p-1", "Alice")
	require.NoError(t, err)
	assert.True(t, second.Rehydrated)
	assert.Equal(t, first.Interaction.ID, second.Interaction.ID)

	assert.Equal(t, 1, env.records.creates)
}

func TestStartSeedsFirstExchangeCue(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	inter := env.begin(t, "p-1")

	require.True(t, inter.Started)
	ex, err := inter.CurrentExchange()
	require.NoError(t, err)
	assert.True(t, ex.Started)
	require.Len(t, ex.Messages, 1)
	assert.Equal(t, "How did you experience the concert?", ex.Messages[0].Content)
}

func TestSendMessageRelaysTranscript(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	env.begin(t, "p-1")
	ctx := context.Background()

	out, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{
		ParticipantID: "p-1",
		Content:       "It was overwhelming.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TurnContinue, out.Outcome)
	require.NotNil(t, out.AssistantMessage)
	assert.Equal(t, "Interesting, tell me more.", out.AssistantMessage.Content)

	// Framing: interaction description, exchange instructions, assistant
	// description. Then cue (assistant) and the new message (user).
	require.Equal(t, 1, env.completion.calls)
	entries := env.completion.lastEntries
	require.Len(t, entries, 5)
	assert.Equal(t, domain.PromptRoleSystem, entries[0].Role)
	assert.Equal(t, domain.PromptRoleSystem, entries[1].Role)
	assert.Equal(t, domain.PromptRoleSystem, entries[2].Role)
	assert.Equal(t, domain.PromptRoleAssistant, entries[3].Role)
	assert.Equal(t, domain.PromptEntry{Role: domain.PromptRoleUser, Content: "It was overwhelming."}, entries[4])

	ex, err := out.Interaction.CurrentExchange()
	require.NoError(t, err)
	assert.Equal(t, 1, ex.SentCount)
	assert.Len(t, ex.Messages, 3) // cue, answer, reply
}

func TestSoftLimitWaitsForDismissal(t *testing.T) {
	// Budget 2, soft limit: the third message completes the exchange, the
	// completion call still goes out, and only an explicit dismissal
	// advances the interaction.
	env := newTestEnv(t, defaultExchanges())
	env.begin(t, "p-1")
	ctx := context.Background()

	var out *interaction.SendMessageOutput
	var err error
	for _, content := range []string{"one", "two", "three"} {
		out, err = env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: content})
		require.NoError(t, err)
	}

	assert.Equal(t, domain.TurnCompleted, out.Outcome)
	assert.Equal(t, 3, env.completion.calls)

	ex, err := out.Interaction.CurrentExchange()
	require.NoError(t, err)
	assert.True(t, ex.Completed)
	assert.False(t, ex.Dismissed)
	assert.Equal(t, 0, out.Interaction.Current)

	inter, err := env.svc.Dismiss(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 1, inter.Current)
	assert.False(t, inter.Completed)

	// The next exchange is already up, cue seeded.
	ex, err = inter.CurrentExchange()
	require.NoError(t, err)
	assert.True(t, ex.Started)
}

func TestHardLimitSkipsCompletionCall(t *testing.T) {
	// Budget 0, hard limit on the only exchange: one message completes and
	// dismisses in the same step, the cursor moves on, and no completion
	// call is recorded for that message.
	env := newTestEnv(t, []domain.ExchangeTemplate{
		{
			ID:        "tpl-hard",
			Name:      "One-shot",
			Assistant: domain.AssistantTemplate{ID: "a-1", Name: "Interviewer"},
			Cue:       "Final thoughts?",
			HardLimit: true,
		},
	})
	env.begin(t, "p-1")
	ctx := context.Background()

	out, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: "None."})
	require.NoError(t, err)

	assert.Equal(t, domain.TurnAutoDismissed, out.Outcome)
	assert.Nil(t, out.AssistantMessage)
	assert.Equal(t, 0, env.completion.calls)

	ex := out.Interaction.Exchanges[0]
	assert.True(t, ex.Completed)
	assert.True(t, ex.Dismissed)
	assert.Equal(t, "None.", ex.Messages[len(ex.Messages)-1].Content)

	// Only exchange, so the interaction is done.
	assert.True(t, out.Interaction.Completed)
}

func TestCompletionFailureSpendsTurn(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	env.begin(t, "p-1")
	ctx := context.Background()

	env.completion.err = errors.New("network timeout")

	_, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: "lost turn"})
	require.Error(t, err)

	// The participant's message stays recorded and counted; no assistant
	// message, no flag changes.
	inter, err := env.svc.Get(ctx, "p-1")
	require.NoError(t, err)
	ex, err := inter.CurrentExchange()
	require.NoError(t, err)

	assert.Equal(t, 1, ex.SentCount)
	assert.Equal(t, "lost turn", ex.Messages[len(ex.Messages)-1].Content)
	assert.False(t, ex.Completed)
	assert.False(t, ex.Dismissed)

	// The next message works again.
	env.completion.err = nil
	out, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: "retrying"})
	require.NoError(t, err)
	require.NotNil(t, out.AssistantMessage)
}

func TestBlankMessageIsNoop(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	env.begin(t, "p-1")
	ctx := context.Background()

	out, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: "   \n"})
	require.NoError(t, err)

	assert.Equal(t, domain.TurnIgnored, out.Outcome)
	assert.Equal(t, 0, env.completion.calls)

	ex, err := out.Interaction.CurrentExchange()
	require.NoError(t, err)
	assert.Equal(t, 0, ex.SentCount)
}

func TestContentTooLongRejected(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	env.begin(t, "p-1")
	ctx := context.Background()

	_, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{
		ParticipantID: "p-1",
		Content:       strings.Repeat("x", domain.MaxMessageContentLength+1),
	})
	assert.ErrorIs(t, err, domain.ErrContentTooLong)
	assert.Equal(t, 0, env.completion.calls)
}

func TestSendRequiresStartedInteraction(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	ctx := context.Background()

	_, err := env.svc.GetOrMaterialize(ctx, "p-1", "Alice")
	require.NoError(t, err)

	_, err = env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: "too early"})
	assert.ErrorIs(t, err, domain.ErrInteractionNotStarted)
}

func TestCreateOnceAcrossMutations(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	env.begin(t, "p-1")
	ctx := context.Background()

	for _, content := range []string{"one", "two"} {
		_, err := env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: content})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, env.records.creates)
	assert.Greater(t, env.records.patches, 0)
}

func TestFailedCreateRetriedOnNextMutation(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	ctx := context.Background()

	env.records.failCreate = true
	_, err := env.svc.GetOrMaterialize(ctx, "p-1", "Alice")
	require.NoError(t, err, "persistence failure must not block the session")
	assert.Equal(t, 1, env.records.creates)

	// Store recovers; the next mutation retries the create.
	env.records.failCreate = false
	_, err = env.svc.Start(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, env.records.creates)

	// And later mutations patch the created record.
	_, err = env.svc.SendMessage(ctx, interaction.SendMessageInput{ParticipantID: "p-1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 2, env.records.creates)
	assert.Greater(t, env.records.patches, 0)
}

func TestDeleteRecordResetsParticipant(t *testing.T) {
	env := newTestEnv(t, defaultExchanges())
	first := env.begin(t, "p-1")
	ctx := context.Background()

	records, err := env.svc.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, env.svc.DeleteRecord(ctx, records[0].ID))

	// The participant comes back to a fresh interaction.
	out, err := env.svc.GetOrMaterialize(ctx, "p-1", "Alice")
	require.NoError(t, err)
	assert.False(t, out.Rehydrated)
	assert.NotEqual(t, first.ID, out.Interaction.ID)
}
