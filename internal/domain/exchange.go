package domain

import (
	"strings"
	"time"
)

// Exchange is one scripted question segment of an interaction: the assistant
// opens with a cue, the participant answers, and the assistant follows up
// until the follow-up budget is spent.
//
// Lifecycle flags always satisfy dismissed => completed => started. A
// hard-limit exchange dismisses itself the moment it completes; a soft-limit
// exchange stays visible with its closing text until the participant
// dismisses it.
type Exchange struct {
	ID          ExchangeID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`

	Assistant Agent `json:"assistant"`

	// Instructions is system framing for the completion service, never shown
	// to the participant. Cue is the assistant's opening message.
	Instructions string `json:"instructions,omitempty"`
	Cue          string `json:"cue,omitempty"`

	// FollowUpBudget is the number of participant turns accepted beyond the
	// first before the exchange completes. HardLimit makes completion dismiss
	// the exchange immediately instead of waiting for ClosingText dismissal.
	FollowUpBudget int    `json:"followUpBudget"`
	HardLimit      bool   `json:"hardLimit"`
	ClosingText    string `json:"closingText,omitempty"`

	Started   bool `json:"started"`
	Completed bool `json:"completed"`
	Dismissed bool `json:"dismissed"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DismissedAt *time.Time `json:"dismissedAt,omitempty"`

	Messages  []Message `json:"messages"`
	SentCount int       `json:"sentCount"`
}

// TurnOutcome reports what the completion policy decided after a participant
// message was recorded.
type TurnOutcome int

const (
	// TurnIgnored: blank message, nothing changed, no completion call.
	TurnIgnored TurnOutcome = iota
	// TurnContinue: exchange still active, completion call proceeds.
	TurnContinue
	// TurnCompleted: budget spent on a soft-limit exchange. The completion
	// call for this turn still proceeds; the exchange waits for dismissal.
	TurnCompleted
	// TurnAutoDismissed: budget spent on a hard-limit exchange. No completion
	// call for this turn; the interaction advances immediately.
	TurnAutoDismissed
)

// Start marks the exchange started and seeds the assistant cue as its opening
// message. Idempotent: calling it on a started exchange is a no-op.
func (e Exchange) Start(now time.Time) Exchange {
	if e.Started {
		return e
	}
	e.Started = true
	e.StartedAt = &now
	if e.Cue != "" && len(e.Messages) == 0 {
		e.Messages = appendMessage(e.Messages, Message{
			ID:      MessageID(e.ID),
			Content: e.Cue,
			Sender:  e.Assistant,
			SentAt:  now,
		})
	}
	return e
}

// RecordParticipantMessage appends a participant message and applies the
// completion policy: once the participant has sent more messages than the
// follow-up budget allows, the exchange completes. CompletedAt is set exactly
// once; later messages on a soft-limit exchange never overwrite it.
func (e Exchange) RecordParticipantMessage(msg Message, now time.Time) (Exchange, TurnOutcome, error) {
	if !e.Started {
		return e, TurnIgnored, ErrExchangeNotStarted
	}
	if e.Dismissed {
		return e, TurnIgnored, ErrExchangeDismissed
	}
	if strings.TrimSpace(msg.Content) == "" {
		return e, TurnIgnored, nil
	}

	e.Messages = appendMessage(e.Messages, msg)
	e.SentCount++

	if e.SentCount <= e.FollowUpBudget {
		return e, TurnContinue, nil
	}

	if !e.Completed {
		e.Completed = true
		e.CompletedAt = &now
	}

	if e.HardLimit {
		e.Dismissed = true
		e.DismissedAt = &now
		return e, TurnAutoDismissed, nil
	}

	return e, TurnCompleted, nil
}

// RecordAssistantReply appends a reply from the bound assistant. It changes
// no lifecycle flags.
func (e Exchange) RecordAssistantReply(msg Message) Exchange {
	e.Messages = appendMessage(e.Messages, msg)
	return e
}

// Dismiss moves a completed soft-limit exchange to its terminal state.
func (e Exchange) Dismiss(now time.Time) (Exchange, error) {
	if !e.Completed {
		return e, ErrExchangeNotCompleted
	}
	if e.Dismissed {
		return e, ErrExchangeDismissed
	}
	e.Dismissed = true
	e.DismissedAt = &now
	return e, nil
}

// appendMessage copies before appending so older snapshots of the exchange
// never observe the new message.
func appendMessage(msgs []Message, msg Message) []Message {
	out := make([]Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, msg)
}
