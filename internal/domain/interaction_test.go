package domain_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewlab/interview-api/internal/domain"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testSettings(numExchanges int) domain.Settings {
	settings := domain.DefaultSettings()
	settings.Chat = domain.ChatSettings{
		Name:                    "Concert interview",
		Description:             "An interview about an electroacoustic concert.",
		ParticipantInstructions: "Answer honestly.",
		ParticipantEndText:      "Thank you for participating.",
	}
	for i := 0; i < numExchanges; i++ {
		settings.Exchanges.ExchangeList = append(settings.Exchanges.ExchangeList, domain.ExchangeTemplate{
			ID:   domain.ExchangeID(fmt.Sprintf("tpl-%d", i)),
			Name: fmt.Sprintf("Question %d", i+1),
			Assistant: domain.AssistantTemplate{
				ID:   "assistant-1",
				Name: "Interviewer",
			},
			Cue:            fmt.Sprintf("Cue %d?", i+1),
			FollowUpBudget: 1,
		})
	}
	return settings
}

func materialized(t *testing.T, numExchanges int) domain.Interaction {
	t.Helper()
	return domain.Materialize(testSettings(numExchanges), testParticipant, sequentialIDs(), time.Now())
}

func TestMaterializeSnapshotsSettings(t *testing.T) {
	inter := materialized(t, 2)

	assert.NotEmpty(t, inter.ID)
	assert.Equal(t, "Concert interview", inter.Name)
	assert.Equal(t, "Thank you for participating.", inter.ParticipantEndText)
	assert.Equal(t, domain.RoleParticipant, inter.Participant.Role)
	assert.False(t, inter.Started)
	assert.False(t, inter.Completed)
	assert.Equal(t, 0, inter.Current)

	require.Len(t, inter.Exchanges, 2)
	for _, ex := range inter.Exchanges {
		assert.Equal(t, domain.RoleAssistant, ex.Assistant.Role)
		assert.False(t, ex.Started)
		assert.Empty(t, ex.Messages)
	}
}

func TestMaterializeFillsDefaults(t *testing.T) {
	settings := testSettings(1)
	settings.Exchanges.ExchangeList[0].Assistant = domain.AssistantTemplate{}
	settings.Exchanges.ExchangeList[0].FollowUpBudget = -3

	inter := domain.Materialize(settings, domain.Agent{}, sequentialIDs(), time.Now())

	require.Len(t, inter.Exchanges, 1)
	ex := inter.Exchanges[0]
	assert.NotEmpty(t, ex.Assistant.ID)
	assert.Equal(t, "Interviewer", ex.Assistant.Name)
	assert.Equal(t, 0, ex.FollowUpBudget)
	assert.NotEmpty(t, inter.Participant.ID)
	assert.Equal(t, "Participant", inter.Participant.Name)
}

func TestMaterializeClampsBudget(t *testing.T) {
	settings := testSettings(1)
	settings.Exchanges.ExchangeList[0].FollowUpBudget = 10000

	inter := domain.Materialize(settings, testParticipant, sequentialIDs(), time.Now())
	assert.Equal(t, domain.MaxFollowUpBudget, inter.Exchanges[0].FollowUpBudget)
}

func TestInteractionStartIdempotent(t *testing.T) {
	now := time.Now()
	inter := materialized(t, 1).Start(now)

	require.True(t, inter.Started)
	require.NotNil(t, inter.StartedAt)

	again := inter.Start(now.Add(time.Hour))
	assert.Equal(t, *inter.StartedAt, *again.StartedAt)
}

func TestAdvanceIsMonotonic(t *testing.T) {
	now := time.Now()
	inter := materialized(t, 3).Start(now)

	cursors := []int{inter.Current}
	for {
		next, err := inter.Advance(now)
		if err != nil {
			break
		}
		inter = next
		cursors = append(cursors, inter.Current)
		if inter.Completed {
			break
		}
	}

	// Non-decreasing, at most +1 per call.
	for i := 1; i < len(cursors); i++ {
		assert.GreaterOrEqual(t, cursors[i], cursors[i-1])
		assert.LessOrEqual(t, cursors[i]-cursors[i-1], 1)
	}
	assert.True(t, inter.Completed)
	assert.Equal(t, 2, inter.Current)

	// Once completed the cursor never moves again.
	_, err := inter.Advance(now)
	assert.ErrorIs(t, err, domain.ErrInteractionCompleted)
}

func TestAdvanceOnLastExchangeCompletes(t *testing.T) {
	// Two exchanges, cursor on the last one: advancing completes the
	// interaction and leaves the cursor in place.
	now := time.Now()
	inter := materialized(t, 2).Start(now)

	inter, err := inter.Advance(now)
	require.NoError(t, err)
	assert.Equal(t, 1, inter.Current)
	assert.False(t, inter.Completed)

	inter, err = inter.Advance(now)
	require.NoError(t, err)
	assert.True(t, inter.Completed)
	assert.Equal(t, 1, inter.Current)
	require.NotNil(t, inter.CompletedAt)
}

func TestAdvanceRequiresStart(t *testing.T) {
	inter := materialized(t, 2)
	_, err := inter.Advance(time.Now())
	assert.ErrorIs(t, err, domain.ErrInteractionNotStarted)
}

func TestCurrentExchangeBounds(t *testing.T) {
	inter := materialized(t, 1)
	_, err := inter.CurrentExchange()
	require.NoError(t, err)

	empty := domain.Materialize(domain.DefaultSettings(), testParticipant, sequentialIDs(), time.Now())
	_, err = empty.CurrentExchange()
	assert.ErrorIs(t, err, domain.ErrExchangeNotFound)
}

func TestReplaceCurrentExchangeCopies(t *testing.T) {
	now := time.Now()
	inter := materialized(t, 2).Start(now)
	before := inter

	ex, err := inter.CurrentExchange()
	require.NoError(t, err)

	updated := inter.ReplaceCurrentExchange(ex.Start(now), now)

	assert.False(t, before.Exchanges[0].Started, "older snapshot must stay intact")
	assert.True(t, updated.Exchanges[0].Started)
}

func TestPastMessagesCollectsDismissedOnly(t *testing.T) {
	now := time.Now()
	inter := materialized(t, 2).Start(now)

	// Run the first exchange to dismissal.
	ex, err := inter.CurrentExchange()
	require.NoError(t, err)
	ex = ex.Start(now)
	ex, _, err = ex.RecordParticipantMessage(domain.Message{ID: "m1", Content: "first answer", Sender: testParticipant}, now)
	require.NoError(t, err)
	ex, _, err = ex.RecordParticipantMessage(domain.Message{ID: "m2", Content: "second answer", Sender: testParticipant}, now)
	require.NoError(t, err)
	ex, err = ex.Dismiss(now)
	require.NoError(t, err)
	inter = inter.ReplaceCurrentExchange(ex, now)

	inter, err = inter.Advance(now)
	require.NoError(t, err)

	// Second exchange active with its own message, not dismissed.
	ex2, err := inter.CurrentExchange()
	require.NoError(t, err)
	ex2 = ex2.Start(now)
	inter = inter.ReplaceCurrentExchange(ex2, now)

	past := inter.PastMessages()
	require.Len(t, past, 3) // cue + two answers from the dismissed exchange
	assert.Equal(t, "first answer", past[1].Content)
}

func TestInteractionStatus(t *testing.T) {
	now := time.Now()
	inter := materialized(t, 1)
	assert.Equal(t, domain.StatusNotStarted, inter.Status())

	inter = inter.Start(now)
	assert.Equal(t, domain.StatusIncomplete, inter.Status())

	inter, err := inter.Advance(now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, inter.Status())
}
