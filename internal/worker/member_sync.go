package worker

import (
	"context"
	"fmt"

	"tresorier/internal/events"
	"tresorier/internal/log"
	"tresorier/internal/storage"
)

// MemberSyncWorker consumes mutation messages and realigns the denormalized
// person.is_member flag. Membership saves set the flag but deletes never
// clear it, so a person whose last membership is removed keeps a stale flag
// until this worker sees the delete.
type MemberSyncWorker struct {
	storage *storage.Repository
	logger  *log.Logger
}

func NewMemberSyncWorker(storage *storage.Repository, logger *log.Logger) *MemberSyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MemberSyncWorker{
		storage: storage,
		logger:  logger.WithComponent(log.ComponentEvents),
	}
}

// HandleMutation reacts to membership and person mutations; everything else
// is acked untouched. The recompute is idempotent, so redeliveries are
// harmless.
func (w *MemberSyncWorker) HandleMutation(ctx context.Context, msg *events.MutationMessage) error {
	if msg.Entity != events.EntityMembership && msg.Entity != events.EntityPerson {
		return nil
	}

	changed, err := w.storage.SyncMemberFlags(ctx)
	if err != nil {
		return fmt.Errorf("handle %s %s: %w", msg.Entity, msg.Action, err)
	}

	if changed > 0 {
		w.logger.InfoContext(ctx, "Realigned member flags",
			log.FieldEntity, msg.Entity,
			log.FieldEntityID, msg.ID,
			"changed", changed)
	}
	return nil
}

// Run consumes from the client until ctx ends.
func (w *MemberSyncWorker) Run(ctx context.Context, client *events.Client) error {
	return client.Consume(ctx, w.HandleMutation)
}
