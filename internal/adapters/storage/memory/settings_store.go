package memory

import (
	"context"
	"sync"

	"github.com/interviewlab/interview-api/internal/domain"
)

// SettingsStore keeps the three authored documents in memory, falling back
// to defaults for anything never saved.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.Settings
	saved    map[domain.SettingsName]bool
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		settings: domain.DefaultSettings(),
		saved:    make(map[domain.SettingsName]bool),
	}
}

func (s *SettingsStore) Load(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := domain.DefaultSettings()
	if s.saved[domain.SettingsAssistants] {
		out.Assistants = s.settings.Assistants
	}
	if s.saved[domain.SettingsChat] {
		out.Chat = s.settings.Chat
	}
	if s.saved[domain.SettingsExchanges] {
		out.Exchanges = s.settings.Exchanges
	}
	return out, nil
}

func (s *SettingsStore) SaveAssistants(_ context.Context, doc domain.AssistantsSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Assistants = doc
	s.saved[domain.SettingsAssistants] = true
	return nil
}

func (s *SettingsStore) SaveChat(_ context.Context, doc domain.ChatSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Chat = doc
	s.saved[domain.SettingsChat] = true
	return nil
}

func (s *SettingsStore) SaveExchanges(_ context.Context, doc domain.ExchangesSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Exchanges = doc
	s.saved[domain.SettingsExchanges] = true
	return nil
}
