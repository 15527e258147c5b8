// Package interaction drives a participant's guided session: materializing
// or rehydrating the interaction, running the per-turn loop against the
// completion service, and pushing every snapshot through the persistence
// reconciler.
package interaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/interviewlab/interview-api/internal/app/transcript"
	"github.com/interviewlab/interview-api/internal/domain"
	"github.com/interviewlab/interview-api/internal/observability"
)

type Service struct {
	completion domain.CompletionClient
	records    domain.RecordStore
	settings   domain.SettingsStore
	reconciler *Reconciler

	now   func() time.Time
	newID func() string

	// mu guards cache and locks. Each participant additionally gets its own
	// mutex so turns for one participant are strictly serialized (the "one
	// outstanding send at a time" guard) without blocking other participants.
	mu    sync.Mutex
	cache map[domain.ParticipantID]domain.Interaction
	locks map[domain.ParticipantID]*sync.Mutex
}

func NewService(
	completion domain.CompletionClient,
	records domain.RecordStore,
	settings domain.SettingsStore,
) *Service {
	return &Service{
		completion: completion,
		records:    records,
		settings:   settings,
		reconciler: NewReconciler(records),
		now:        time.Now,
		newID:      uuid.NewString,
		cache:      make(map[domain.ParticipantID]domain.Interaction),
		locks:      make(map[domain.ParticipantID]*sync.Mutex),
	}
}

type InteractionOutput struct {
	Interaction domain.Interaction
	// Rehydrated is true when the interaction came from a persisted record
	// rather than being freshly materialized.
	Rehydrated bool
}

type SendMessageInput struct {
	ParticipantID domain.ParticipantID
	Content       string
}

type SendMessageOutput struct {
	Interaction domain.Interaction
	Outcome     domain.TurnOutcome

	ParticipantMessage *domain.Message
	AssistantMessage   *domain.Message
}

// GetOrMaterialize returns the participant's interaction, rehydrating it from
// the record store when one exists and otherwise materializing a fresh one
// from the authored settings. Only the materializing path issues a create;
// re-visits never discard recorded progress.
func (s *Service) GetOrMaterialize(ctx context.Context, participantID domain.ParticipantID, participantName string) (*InteractionOutput, error) {
	unlock := s.lockParticipant(participantID)
	defer unlock()

	log := observability.LoggerFromContext(ctx).With("participant_id", participantID)

	if inter, ok := s.cached(participantID); ok {
		return &InteractionOutput{Interaction: inter, Rehydrated: true}, nil
	}

	inter, found, err := s.rehydrate(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if found {
		log.Info("interaction rehydrated")
		return &InteractionOutput{Interaction: inter, Rehydrated: true}, nil
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	participant := domain.Agent{
		ID:   domain.AgentID(participantID),
		Name: participantName,
		Role: domain.RoleParticipant,
	}
	inter = domain.Materialize(settings, participant, s.newID, s.now())
	s.store(participantID, inter)
	s.persist(ctx, participantID, inter)

	log.Info("interaction materialized", "exchanges", len(inter.Exchanges))
	return &InteractionOutput{Interaction: inter}, nil
}

// Get returns the participant's interaction without ever materializing one.
func (s *Service) Get(ctx context.Context, participantID domain.ParticipantID) (domain.Interaction, error) {
	unlock := s.lockParticipant(participantID)
	defer unlock()
	return s.load(ctx, participantID)
}

// Start marks the interaction started and brings the first exchange up, cue
// included.
func (s *Service) Start(ctx context.Context, participantID domain.ParticipantID) (domain.Interaction, error) {
	unlock := s.lockParticipant(participantID)
	defer unlock()

	inter, err := s.load(ctx, participantID)
	if err != nil {
		return domain.Interaction{}, err
	}

	now := s.now()
	inter = inter.Start(now)
	inter = s.startCurrentExchange(inter, now)

	s.store(participantID, inter)
	s.persist(ctx, participantID, inter)

	observability.LoggerFromContext(ctx).Info("interaction started",
		"participant_id", participantID,
		"interaction_id", inter.ID)
	return inter, nil
}

// SendMessage runs one participant turn: record the message, apply the
// completion policy, and unless the exchange auto-dismissed, relay the
// assembled transcript to the completion service and record the reply.
//
// If the completion call fails, the participant's message stays recorded and
// counted, no flags regress, and the error is returned for the transport
// layer to surface. The turn is spent; there is no automatic retry.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	unlock := s.lockParticipant(in.ParticipantID)
	defer unlock()

	log := observability.LoggerFromContext(ctx).With("participant_id", in.ParticipantID)

	inter, err := s.load(ctx, in.ParticipantID)
	if err != nil {
		return nil, err
	}
	if !inter.Started {
		return nil, domain.ErrInteractionNotStarted
	}
	if inter.Completed {
		return nil, domain.ErrInteractionCompleted
	}
	if len(in.Content) > domain.MaxMessageContentLength {
		return nil, domain.ErrContentTooLong
	}

	ex, err := inter.CurrentExchange()
	if err != nil {
		return nil, err
	}

	now := s.now()
	history := s.promptHistory(inter, ex)

	msg := domain.Message{
		ID:      domain.MessageID(s.newID()),
		Content: in.Content,
		Sender:  inter.Participant,
		SentAt:  now,
	}

	ex, outcome, err := ex.RecordParticipantMessage(msg, now)
	if err != nil {
		return nil, err
	}

	if outcome == domain.TurnIgnored {
		// Blank after trimming: contractually a no-op, nothing persisted.
		return &SendMessageOutput{Interaction: inter, Outcome: outcome}, nil
	}

	inter = inter.ReplaceCurrentExchange(ex, now)

	if outcome == domain.TurnAutoDismissed {
		// Hard limit reached: the final message is recorded but never sent
		// out for a reply.
		inter = s.advance(inter, now)
		s.store(in.ParticipantID, inter)
		s.persist(ctx, in.ParticipantID, inter)
		log.Info("exchange auto-dismissed", "exchange_id", ex.ID, "sent_count", ex.SentCount)
		return &SendMessageOutput{
			Interaction:        inter,
			Outcome:            outcome,
			ParticipantMessage: &msg,
		}, nil
	}

	// Persist before the completion call so the turn survives even if the
	// call never comes back.
	s.store(in.ParticipantID, inter)
	s.persist(ctx, in.ParticipantID, inter)

	entries := transcript.Assemble(transcript.Framing{
		InteractionDescription: inter.Description,
		ExchangeInstructions:   ex.Instructions,
		AssistantDescription:   ex.Assistant.Description,
	}, history, msg)

	completion, err := s.completion.Complete(ctx, entries)
	if err != nil {
		log.Error("completion call failed", "exchange_id", ex.ID, "error", err)
		return nil, fmt.Errorf("completion service: %w", err)
	}

	reply := domain.Message{
		ID:      domain.MessageID(s.newID()),
		Content: completion,
		Sender:  ex.Assistant,
		SentAt:  s.now(),
	}
	ex = ex.RecordAssistantReply(reply)
	inter = inter.ReplaceCurrentExchange(ex, s.now())

	s.store(in.ParticipantID, inter)
	s.persist(ctx, in.ParticipantID, inter)

	log.Info("turn completed",
		"exchange_id", ex.ID,
		"sent_count", ex.SentCount,
		"outcome", outcome)

	return &SendMessageOutput{
		Interaction:        inter,
		Outcome:            outcome,
		ParticipantMessage: &msg,
		AssistantMessage:   &reply,
	}, nil
}

// Dismiss closes a completed soft-limit exchange and advances the cursor.
func (s *Service) Dismiss(ctx context.Context, participantID domain.ParticipantID) (domain.Interaction, error) {
	unlock := s.lockParticipant(participantID)
	defer unlock()

	inter, err := s.load(ctx, participantID)
	if err != nil {
		return domain.Interaction{}, err
	}
	if !inter.Started {
		return domain.Interaction{}, domain.ErrInteractionNotStarted
	}
	if inter.Completed {
		return domain.Interaction{}, domain.ErrInteractionCompleted
	}

	ex, err := inter.CurrentExchange()
	if err != nil {
		return domain.Interaction{}, err
	}

	now := s.now()
	ex, err = ex.Dismiss(now)
	if err != nil {
		return domain.Interaction{}, err
	}

	inter = inter.ReplaceCurrentExchange(ex, now)
	inter = s.advance(inter, now)

	s.store(participantID, inter)
	s.persist(ctx, participantID, inter)

	observability.LoggerFromContext(ctx).Info("exchange dismissed",
		"participant_id", participantID,
		"exchange_id", ex.ID,
		"current_exchange", inter.Current,
		"interaction_completed", inter.Completed)
	return inter, nil
}

// ListRecords returns every persisted interaction record, for the review
// surface.
func (s *Service) ListRecords(ctx context.Context) ([]domain.RecordSnapshot, error) {
	snaps, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]domain.RecordSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Type == domain.RecordTypeInteraction {
			out = append(out, snap)
		}
	}
	return out, nil
}

// DeleteRecord resets a participant's progress by deleting their persisted
// record and dropping any session-local copy.
func (s *Service) DeleteRecord(ctx context.Context, id domain.RecordID) error {
	snaps, err := s.records.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	var owner domain.ParticipantID
	for _, snap := range snaps {
		if snap.ID == id {
			owner = snap.OwnerID
			break
		}
	}

	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	if owner != "" {
		s.mu.Lock()
		delete(s.cache, owner)
		s.mu.Unlock()
		s.reconciler.Forget(owner)
	}

	observability.LoggerFromContext(ctx).Info("interaction record deleted",
		"record_id", id,
		"participant_id", owner)
	return nil
}

// ─────────────────────────────────────────────
// Internals
// ─────────────────────────────────────────────

func (s *Service) lockParticipant(id domain.ParticipantID) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Service) cached(id domain.ParticipantID) (domain.Interaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inter, ok := s.cache[id]
	return inter, ok
}

func (s *Service) store(id domain.ParticipantID, inter domain.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[id] = inter
}

// load returns the working copy for a participant, falling back to the
// record store. The store is authoritative; the cache only bridges the gap
// while a create is still failing.
func (s *Service) load(ctx context.Context, id domain.ParticipantID) (domain.Interaction, error) {
	if inter, ok := s.cached(id); ok {
		return inter, nil
	}
	inter, found, err := s.rehydrate(ctx, id)
	if err != nil {
		return domain.Interaction{}, err
	}
	if !found {
		return domain.Interaction{}, domain.ErrInteractionNotFound
	}
	return inter, nil
}

func (s *Service) rehydrate(ctx context.Context, id domain.ParticipantID) (domain.Interaction, bool, error) {
	snaps, err := s.records.ListAll(ctx)
	if err != nil {
		return domain.Interaction{}, false, fmt.Errorf("list records: %w", err)
	}
	for _, snap := range snaps {
		if snap.Type == domain.RecordTypeInteraction && snap.OwnerID == id {
			s.reconciler.Remember(id, snap.ID)
			s.store(id, snap.Data)
			return snap.Data, true, nil
		}
	}
	return domain.Interaction{}, false, nil
}

// persist pushes a snapshot through the reconciler. Persistence failures are
// logged and swallowed: the in-memory state has already moved on and the next
// mutation retries the same create-or-patch decision.
func (s *Service) persist(ctx context.Context, id domain.ParticipantID, inter domain.Interaction) {
	if _, err := s.reconciler.Push(ctx, id, inter); err != nil {
		observability.LoggerFromContext(ctx).Error("persist interaction failed",
			"participant_id", id,
			"error", err)
	}
}

// advance moves the cursor and, when the interaction is not finished, brings
// the next exchange up immediately.
func (s *Service) advance(inter domain.Interaction, now time.Time) domain.Interaction {
	next, err := inter.Advance(now)
	if err != nil {
		return inter
	}
	return s.startCurrentExchange(next, now)
}

func (s *Service) startCurrentExchange(inter domain.Interaction, now time.Time) domain.Interaction {
	if inter.Completed || !inter.Started {
		return inter
	}
	ex, err := inter.CurrentExchange()
	if err != nil || ex.Started {
		return inter
	}
	return inter.ReplaceCurrentExchange(ex.Start(now), now)
}

// promptHistory is the thread the assembler sees: the current exchange's
// messages, widened to dismissed exchanges when the interaction asks for it.
func (s *Service) promptHistory(inter domain.Interaction, ex domain.Exchange) []domain.Message {
	if !inter.SendAllToAssistant {
		return ex.Messages
	}
	past := inter.PastMessages()
	out := make([]domain.Message, 0, len(past)+len(ex.Messages))
	out = append(out, past...)
	out = append(out, ex.Messages...)
	return out
}
