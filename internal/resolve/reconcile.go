package resolve

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/store"
)

// Reconcile recomputes an item's status from its claims and repairs it if the
// stored value drifted. It reports whether a repair was made.
func (e *Engine) Reconcile(ctx context.Context, itemID int64) (bool, error) {
	var from, to string
	err := e.withItem(ctx, itemID, "reconciling item", func(ctx context.Context, tx dbx.DBTX) error {
		item, err := store.GetItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperr.NotFound("item %d", itemID)
		}
		from = item.Status
		to, err = syncStatus(ctx, tx, item)
		return err
	})
	if err != nil {
		return false, err
	}

	if from != to {
		slog.Warn("repaired item status", "item", itemID, "from", from, "to", to)
		return true, nil
	}
	return false, nil
}

// ReconcileAll runs Reconcile over every item and returns how many were
// repaired. Items deleted while it runs are skipped.
func (e *Engine) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := store.ListItemIDs(ctx, e.DB)
	if err != nil {
		return 0, apperr.Storage(err, "listing items")
	}

	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		fixed, err := e.Reconcile(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return repaired, err
		}
		if fixed {
			repaired++
		}
	}
	return repaired, nil
}
