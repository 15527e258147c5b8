// Package sqlite provides durable local storage for interaction records and
// authored settings, one Store implementing both store interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/interviewlab/interview-api/internal/domain"
)

type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the database at dbPath.
// If dbPath is empty, defaults to "./data/interviews.db".
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = "./data/interviews.db"
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_owner ON records(owner_id);
	CREATE INDEX IF NOT EXISTS idx_records_type ON records(type);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─────────────────────────────────────────
// RecordStore implementation
// ─────────────────────────────────────────

func (s *Store) ListAll(ctx context.Context) ([]domain.RecordSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, owner_id, data, updated_at
		FROM records
		ORDER BY updated_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListAll: %w", err)
	}
	defer rows.Close()

	var out []domain.RecordSnapshot
	for rows.Next() {
		var (
			id, typ, owner, data string
			updatedAt            time.Time
		)
		if err := rows.Scan(&id, &typ, &owner, &data, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite ListAll scan: %w", err)
		}

		var inter domain.Interaction
		if err := json.Unmarshal([]byte(data), &inter); err != nil {
			return nil, fmt.Errorf("sqlite ListAll decode record %s: %w", id, err)
		}

		out = append(out, domain.RecordSnapshot{
			ID:        domain.RecordID(id),
			Type:      typ,
			OwnerID:   domain.ParticipantID(owner),
			Data:      inter,
			UpdatedAt: updatedAt,
		})
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, snap domain.RecordSnapshot) (domain.RecordSnapshot, error) {
	if snap.ID == "" {
		snap.ID = domain.RecordID(uuid.NewString())
	}
	snap.UpdatedAt = time.Now()

	data, err := json.Marshal(snap.Data)
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite Create encode: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, type, owner_id, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(snap.ID), snap.Type, string(snap.OwnerID), string(data), snap.UpdatedAt)
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite Create: %w", err)
	}
	return snap, nil
}

func (s *Store) Patch(ctx context.Context, id domain.RecordID, inter domain.Interaction) (domain.RecordSnapshot, error) {
	data, err := json.Marshal(inter)
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite Patch encode: %w", err)
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET data = ?, updated_at = ? WHERE id = ?
	`, string(data), now, string(id))
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite Patch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite Patch rows affected: %w", err)
	}
	if affected == 0 {
		return domain.RecordSnapshot{}, domain.ErrRecordNotFound
	}

	return s.getRecord(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id domain.RecordID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("sqlite Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite Delete rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (s *Store) getRecord(ctx context.Context, id domain.RecordID) (domain.RecordSnapshot, error) {
	var (
		typ, owner, data string
		updatedAt        time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT type, owner_id, data, updated_at FROM records WHERE id = ?
	`, string(id)).Scan(&typ, &owner, &data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RecordSnapshot{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite getRecord: %w", err)
	}

	var inter domain.Interaction
	if err := json.Unmarshal([]byte(data), &inter); err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("sqlite getRecord decode: %w", err)
	}

	return domain.RecordSnapshot{
		ID:        id,
		Type:      typ,
		OwnerID:   domain.ParticipantID(owner),
		Data:      inter,
		UpdatedAt: updatedAt,
	}, nil
}

// ─────────────────────────────────────────
// SettingsStore implementation
// ─────────────────────────────────────────

func (s *Store) Load(ctx context.Context) (domain.Settings, error) {
	out := domain.DefaultSettings()

	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM settings`)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("sqlite Load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return domain.Settings{}, fmt.Errorf("sqlite Load settings scan: %w", err)
		}

		switch domain.SettingsName(name) {
		case domain.SettingsAssistants:
			err = json.Unmarshal([]byte(data), &out.Assistants)
		case domain.SettingsChat:
			err = json.Unmarshal([]byte(data), &out.Chat)
		case domain.SettingsExchanges:
			err = json.Unmarshal([]byte(data), &out.Exchanges)
		}
		if err != nil {
			return domain.Settings{}, fmt.Errorf("sqlite Load settings decode %s: %w", name, err)
		}
	}
	return out, rows.Err()
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

func (s *Store) saveSetting(ctx context.Context, name domain.SettingsName, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite saveSetting encode %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (name, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(name), string(data), time.Now())
	if err != nil {
		return fmt.Errorf("sqlite saveSetting %s: %w", name, err)
	}
	return nil
}
