// Package resolve implements the item/claim resolution workflow. It is the
// only code that changes item or claim status, and it does so per item under
// a lock and inside a single transaction.
//
// Item status is derived from the item's claims:
//
//	resolved  if a claim is accepted or the owner closed the item
//	pending   else if any claim is pending
//	open      otherwise
package resolve

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/keylock"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// Identity is the authenticated caller as supplied by the identity provider.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

// Engine runs the resolution workflow against a database.
type Engine struct {
	DB    *sql.DB
	Locks *keylock.Locker

	// ExclusiveClaims limits new claims to open items. By default a pending
	// item keeps accepting claims until it is resolved.
	ExclusiveClaims bool
}

// New returns an Engine with its own lock table.
func New(db *sql.DB) *Engine {
	return &Engine{DB: db, Locks: keylock.New()}
}

// DeriveStatus computes an item's status from its claim counts and whether the
// owner closed it manually.
func DeriveStatus(counts store.ClaimCounts, closedManually bool) string {
	switch {
	case counts.Accepted > 0 || closedManually:
		return model.ItemStatusResolved
	case counts.Pending > 0:
		return model.ItemStatusPending
	default:
		return model.ItemStatusOpen
	}
}

// ItemLockKey is the lock key guarding an item and its claims.
func ItemLockKey(itemID int64) string {
	return "item:" + strconv.FormatInt(itemID, 10)
}

// withItem runs fn in one transaction while holding the item's lock.
func (e *Engine) withItem(ctx context.Context, itemID int64, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	unlock, err := e.Locks.Lock(ctx, ItemLockKey(itemID))
	if err != nil {
		return err
	}
	defer unlock()

	return apperr.Storage(dbx.WithTx(ctx, e.DB, fn), op)
}

// acceptsClaims reports whether new claims may be filed against item.
func (e *Engine) acceptsClaims(item *model.Item) bool {
	switch item.Status {
	case model.ItemStatusOpen:
		return true
	case model.ItemStatusPending:
		return !e.ExclusiveClaims
	default:
		return false
	}
}

// loadOwnedItem fetches an item and checks that actorID owns it.
func loadOwnedItem(ctx context.Context, tx dbx.DBTX, itemID, actorID int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("item %d", itemID)
	}
	if item.UserID != actorID {
		return nil, apperr.Forbidden("only the owner of item %d can do that", itemID)
	}
	return item, nil
}

// syncStatus recomputes item's status from its claims and writes it if it
// changed. It returns the status now stored.
func syncStatus(ctx context.Context, tx dbx.DBTX, item *model.Item) (string, error) {
	counts, err := store.CountClaims(ctx, tx, item.ID)
	if err != nil {
		return "", err
	}
	status := DeriveStatus(counts, item.ClosedManually)
	if status != item.Status {
		if err := store.UpdateItemStatus(ctx, tx, item.ID, status); err != nil {
			return "", err
		}
	}
	return status, nil
}
