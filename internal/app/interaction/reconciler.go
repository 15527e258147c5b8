package interaction

import (
	"context"
	"fmt"
	"sync"

	"github.com/interviewlab/interview-api/internal/domain"
	"github.com/interviewlab/interview-api/internal/observability"
)

// Reconciler decides create-vs-patch for each interaction snapshot pushed to
// the record store. It guarantees at most one create per participant: the
// first push creates (unless a persisted record was rehydrated and remembered
// beforehand), every later push patches the remembered record id. A failed
// create leaves the participant unmarked, so the next snapshot retries it.
type Reconciler struct {
	records domain.RecordStore

	mu  sync.Mutex
	ids map[domain.ParticipantID]domain.RecordID
}

func NewReconciler(records domain.RecordStore) *Reconciler {
	return &Reconciler{
		records: records,
		ids:     make(map[domain.ParticipantID]domain.RecordID),
	}
}

// Remember marks a participant's record as already persisted, typically after
// rehydrating it from the store.
func (r *Reconciler) Remember(participantID domain.ParticipantID, recordID domain.RecordID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[participantID] = recordID
}

// Forget drops the remembered record id, used when a record is deleted so a
// returning participant gets a fresh create.
func (r *Reconciler) Forget(participantID domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ids, participantID)
}

// RecordID reports the remembered persisted id for a participant, if any.
func (r *Reconciler) RecordID(participantID domain.ParticipantID) (domain.RecordID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[participantID]
	return id, ok
}

// Push persists the given snapshot. Patches always carry the full snapshot,
// never a delta, so re-sending an identical snapshot is safe.
func (r *Reconciler) Push(ctx context.Context, participantID domain.ParticipantID, data domain.Interaction) (domain.RecordSnapshot, error) {
	log := observability.LoggerFromContext(ctx).With("participant_id", participantID)

	if id, ok := r.RecordID(participantID); ok {
		snap, err := r.records.Patch(ctx, id, data)
		if err != nil {
			return domain.RecordSnapshot{}, fmt.Errorf("patch record %s: %w", id, err)
		}
		return snap, nil
	}

	snap, err := r.records.Create(ctx, domain.RecordSnapshot{
		Type:    domain.RecordTypeInteraction,
		OwnerID: participantID,
		Data:    data,
	})
	if err != nil {
		return domain.RecordSnapshot{}, fmt.Errorf("create record: %w", err)
	}

	r.Remember(participantID, snap.ID)
	log.Info("interaction record created", "record_id", snap.ID)
	return snap, nil
}
