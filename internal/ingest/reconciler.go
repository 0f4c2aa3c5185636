package ingest

import (
	"context"
	"errors"
	"log/slog"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/entry"
)

// Store is the persistence surface the reconciler needs.
type Store interface {
	FindDuplicate(ctx context.Context, key entry.DuplicateKey) (*entry.Entry, error)
	MarkMerged(ctx context.Context, id int64) error
	Create(ctx context.Context, e *entry.Entry) error
}

// Outcome of reconciling one incoming entry.
type Outcome string

const (
	OutcomeUnique Outcome = "unique"
	OutcomeMerged Outcome = "merged"
)

// Reconciler decides whether an incoming entry is a re-upload of an
// existing record. Two entries with the same duplicate key are the same
// purchase: the stored one is flagged Merged in place and the incoming row
// is absorbed without creating a second record, so a re-run of the same
// file converges on the same state.
type Reconciler struct {
	store Store
	log   *slog.Logger
}

func NewReconciler(store Store, lg *slog.Logger) *Reconciler {
	return &Reconciler{store: store, log: lg}
}

func (r *Reconciler) Reconcile(ctx context.Context, e *entry.Entry) (Outcome, error) {
	existing, err := r.store.FindDuplicate(ctx, e.DuplicateKey())
	if err != nil && !errors.Is(err, internal.ErrEntryNotFound) {
		return "", err
	}

	if existing == nil {
		unique := entry.DuplicateUnique
		e.DuplicateStatus = &unique
		if err := r.store.Create(ctx, e); err != nil {
			return "", err
		}
		return OutcomeUnique, nil
	}

	if existing.MarkMerged() {
		if err := r.store.MarkMerged(ctx, existing.ID); err != nil {
			return "", err
		}
		r.log.Info("existing entry flagged as merged",
			"entry_id", existing.ID,
			"particulars", existing.Particulars)
	}
	return OutcomeMerged, nil
}
