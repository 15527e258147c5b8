package domain

import "time"

// Interaction is one participant's full guided session: an ordered sequence
// of exchanges walked front to back by a cursor. The exchange list is fixed
// at materialization and never reordered or resized afterwards.
type Interaction struct {
	ID          InteractionID `json:"id"`
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`

	// ParticipantInstructions is shown before the interaction starts,
	// ParticipantEndText after it completes. Neither is sent to the
	// completion service.
	ParticipantInstructions string `json:"participantInstructions,omitempty"`
	ParticipantEndText      string `json:"participantEndText,omitempty"`

	// SendAllToAssistant widens the completion request history to the
	// messages of already-dismissed exchanges.
	SendAllToAssistant bool `json:"sendAllToAssistant"`

	Participant Agent      `json:"participant"`
	Exchanges   []Exchange `json:"exchanges"`

	// Current is the index of the active exchange. It only ever moves
	// forward, one step at a time.
	Current int `json:"currentExchange"`

	Started   bool `json:"started"`
	Completed bool `json:"completed"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InteractionStatus is the review-surface label for an interaction.
type InteractionStatus string

const (
	StatusNotStarted InteractionStatus = "not_started"
	StatusIncomplete InteractionStatus = "incomplete"
	StatusComplete   InteractionStatus = "complete"
)

// Start marks the interaction started. Idempotent.
func (i Interaction) Start(now time.Time) Interaction {
	if i.Started {
		return i
	}
	i.Started = true
	i.StartedAt = &now
	i.UpdatedAt = now
	return i
}

// Advance moves the cursor past the current exchange. On the last exchange it
// completes the interaction instead; the cursor never moves again after that.
func (i Interaction) Advance(now time.Time) (Interaction, error) {
	if !i.Started {
		return i, ErrInteractionNotStarted
	}
	if i.Completed {
		return i, ErrInteractionCompleted
	}
	if i.Current >= len(i.Exchanges)-1 {
		i.Completed = true
		i.CompletedAt = &now
		i.UpdatedAt = now
		return i, nil
	}
	i.Current++
	i.UpdatedAt = now
	return i, nil
}

// CurrentExchange returns the exchange under the cursor.
func (i Interaction) CurrentExchange() (Exchange, error) {
	if i.Current < 0 || i.Current >= len(i.Exchanges) {
		return Exchange{}, ErrExchangeNotFound
	}
	return i.Exchanges[i.Current], nil
}

// ReplaceCurrentExchange swaps in an updated snapshot of the exchange under
// the cursor, copying the exchange list so older interaction snapshots stay
// intact.
func (i Interaction) ReplaceCurrentExchange(ex Exchange, now time.Time) Interaction {
	if i.Current < 0 || i.Current >= len(i.Exchanges) {
		return i
	}
	exchanges := make([]Exchange, len(i.Exchanges))
	copy(exchanges, i.Exchanges)
	exchanges[i.Current] = ex
	i.Exchanges = exchanges
	i.UpdatedAt = now
	return i
}

// PastMessages concatenates, in exchange order, the threads of every
// dismissed exchange. Used for read-only review and for the widened prompt
// history when SendAllToAssistant is set.
func (i Interaction) PastMessages() []Message {
	var out []Message
	for _, ex := range i.Exchanges {
		if ex.Dismissed {
			out = append(out, ex.Messages...)
		}
	}
	return out
}

func (i Interaction) Status() InteractionStatus {
	switch {
	case i.Completed:
		return StatusComplete
	case i.Started:
		return StatusIncomplete
	default:
		return StatusNotStarted
	}
}
