package domain

import (
	"context"
	"time"
)

// CompletionClient defines how the engine talks to the completion service.
type CompletionClient interface {
	Complete(ctx context.Context, entries []PromptEntry) (string, error)
}

// RecordSnapshot is one persisted interaction record as the store reports it.
type RecordSnapshot struct {
	ID        RecordID
	Type      string
	OwnerID   ParticipantID
	Data      Interaction
	UpdatedAt time.Time
}

// RecordTypeInteraction is the record type under which interactions persist.
const RecordTypeInteraction = "Interaction"

// RecordStore defines persistence of interaction records, keyed by owning
// participant. Create is issued at most once per participant; every later
// write is a full-snapshot Patch.
type RecordStore interface {
	ListAll(ctx context.Context) ([]RecordSnapshot, error)
	Create(ctx context.Context, snap RecordSnapshot) (RecordSnapshot, error)
	Patch(ctx context.Context, id RecordID, data Interaction) (RecordSnapshot, error)
	Delete(ctx context.Context, id RecordID) error
}

// SettingsStore defines persistence of the three authored settings
// documents. Load returns defaults for any document never saved.
type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
	SaveAssistants(ctx context.Context, doc AssistantsSettings) error
	SaveChat(ctx context.Context, doc ChatSettings) error
	SaveExchanges(ctx context.Context, doc ExchangesSettings) error
}
