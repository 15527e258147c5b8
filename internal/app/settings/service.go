// Package settings backs the authoring surface: the assistant roster, the
// chat framing, and the exchange templates the engine materializes from.
package settings

import (
	"context"
	"fmt"

	"github.com/interviewlab/interview-api/internal/domain"
	"github.com/interviewlab/interview-api/internal/observability"
)

type Service struct {
	store domain.SettingsStore
}

func NewService(store domain.SettingsStore) *Service {
	return &Service{store: store}
}

// Load returns all three authored documents, with defaults filled in for
// anything never saved.
func (s *Service) Load(ctx context.Context) (domain.Settings, error) {
	settings, err := s.store.Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// SaveAssistants replaces the assistant roster.
func (s *Service) SaveAssistants(ctx context.Context, doc domain.AssistantsSettings) error {
	for idx, assistant := range doc.AssistantList {
		if assistant.ID == "" {
			return fmt.Errorf("assistant %d: id is required", idx)
		}
	}
	if err := s.store.SaveAssistants(ctx, doc); err != nil {
		return fmt.Errorf("save assistants: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("assistants saved", "count", len(doc.AssistantList))
	return nil
}

// SaveChat replaces the interaction-level framing.
func (s *Service) SaveChat(ctx context.Context, doc domain.ChatSettings) error {
	if err := s.store.SaveChat(ctx, doc); err != nil {
		return fmt.Errorf("save chat settings: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("chat settings saved")
	return nil
}

// SaveExchanges replaces the exchange template list. Budgets are clamped at
// save time so materialization never sees an out-of-range value.
func (s *Service) SaveExchanges(ctx context.Context, doc domain.ExchangesSettings) error {
	for idx := range doc.ExchangeList {
		tpl := &doc.ExchangeList[idx]
		if tpl.ID == "" {
			return fmt.Errorf("exchange %d: id is required", idx)
		}
		if tpl.FollowUpBudget < 0 {
			tpl.FollowUpBudget = 0
		}
		if tpl.FollowUpBudget > domain.MaxFollowUpBudget {
			tpl.FollowUpBudget = domain.MaxFollowUpBudget
		}
	}
	if err := s.store.SaveExchanges(ctx, doc); err != nil {
		return fmt.Errorf("save exchanges: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("exchange templates saved", "count", len(doc.ExchangeList))
	return nil
}
