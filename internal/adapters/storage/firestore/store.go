// Package firestore backs the record and settings stores with Cloud
// Firestore for GCP deployments.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/interviewlab/interview-api/internal/domain"
)

type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) recordsCol() *firestore.CollectionRef {
	return s.client.Collection("records")
}

func (s *Store) recordDoc(id domain.RecordID) *firestore.DocumentRef {
	return s.recordsCol().Doc(string(id))
}

func (s *Store) settingsDoc(name domain.SettingsName) *firestore.DocumentRef {
	return s.client.Collection("settings").Doc(string(name))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

// The interaction snapshot is stored as one JSON blob; Firestore only needs
// the fields it filters and orders on.
type recordDoc struct {
	Type      string    `firestore:"type"`
	OwnerID   string    `firestore:"owner_id"`
	Data      string    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type settingsDoc struct {
	Data      string    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (d recordDoc) toSnapshot(id domain.RecordID) (domain.RecordSnapshot, error) {
	var inter domain.Interaction
	if err := json.Unmarshal([]byte(d.Data), &inter); err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return domain.RecordSnapshot{
		ID:        id,
		Type:      d.Type,
		OwnerID:   domain.ParticipantID(d.OwnerID),
		Data:      inter,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// ─────────────────────────────────────────
// RecordStore implementation
// ─────────────────────────────────────────

func (s *Store) ListAll(ctx context.Context) ([]domain.RecordSnapshot, error) {
	iter := s.recordsCol().OrderBy("updated_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []domain.RecordSnapshot
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListAll: %w", err)
		}

		var doc recordDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode recordDoc: %w", err)
		}

		rec, err := doc.toSnapshot(domain.RecordID(snap.Ref.ID))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, snap domain.RecordSnapshot) (domain.RecordSnapshot, error) {
	if snap.ID == "" {
		snap.ID = domain.RecordID(uuid.NewString())
	}
	snap.UpdatedAt = time.Now()

	data, err := json.Marshal(snap.Data)
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("firestore Create encode: %w", err)
	}

	doc := recordDoc{
		Type:      snap.Type,
		OwnerID:   string(snap.OwnerID),
		Data:      string(data),
		UpdatedAt: snap.UpdatedAt,
	}
	if _, err := s.recordDoc(snap.ID).Create(ctx, doc); err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("firestore Create: %w", err)
	}
	return snap, nil
}

func (s *Store) Patch(ctx context.Context, id domain.RecordID, inter domain.Interaction) (domain.RecordSnapshot, error) {
	data, err := json.Marshal(inter)
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("firestore Patch encode: %w", err)
	}

	now := time.Now()
	_, err = s.recordDoc(id).Update(ctx, []firestore.Update{
		{Path: "data", Value: string(data)},
		{Path: "updated_at", Value: now},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.RecordSnapshot{}, domain.ErrRecordNotFound
		}
		return domain.RecordSnapshot{}, fmt.Errorf("firestore Patch: %w", err)
	}

	snap, err := s.recordDoc(id).Get(ctx)
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("firestore Patch readback: %w", err)
	}
	var doc recordDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("decode recordDoc: %w", err)
	}
	return doc.toSnapshot(id)
}

func (s *Store) Delete(ctx context.Context, id domain.RecordID) error {
	_, err := s.recordDoc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrRecordNotFound
		}
		return fmt.Errorf("firestore Delete: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// SettingsStore implementation
// ─────────────────────────────────────────

func (s *Store) Load(ctx context.Context) (domain.Settings, error) {
	out := domain.DefaultSettings()

	load := func(name domain.SettingsName, target any) error {
		snap, err := s.settingsDoc(name).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return fmt.Errorf("firestore Load %s: %w", name, err)
		}
		var doc settingsDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode settingsDoc %s: %w", name, err)
		}
		if err := json.Unmarshal([]byte(doc.Data), target); err != nil {
			return fmt.Errorf("decode settings %s: %w", name, err)
		}
		return nil
	}

	if err := load(domain.SettingsAssistants, &out.Assistants); err != nil {
		return domain.Settings{}, err
	}
	if err := load(domain.SettingsChat, &out.Chat); err != nil {
		return domain.Settings{}, err
	}
	if err := load(domain.SettingsExchanges, &out.Exchanges); err != nil {
		return domain.Settings{}, err
	}
	return out, nil
}

func (s *Store) SaveAssistants(ctx context.Context, doc domain.AssistantsSettings) error {
	return s.saveSetting(ctx, domain.SettingsAssistants, doc)
}

func (s *Store) SaveChat(ctx context.Context, doc domain.ChatSettings) error {
	return s.saveSetting(ctx, domain.SettingsChat, doc)
}

func (s *Store) SaveExchanges(ctx context.Context, doc domain.ExchangesSettings) error {
	return s.saveSetting(ctx, domain.SettingsExchanges, doc)
}

func (s *Store) saveSetting(ctx context.Context, name domain.SettingsName, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("firestore saveSetting encode %s: %w", name, err)
	}

	_, err = s.settingsDoc(name).Set(ctx, settingsDoc{
		Data:      string(data),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("firestore saveSetting %s: %w", name, err)
	}
	return nil
}
