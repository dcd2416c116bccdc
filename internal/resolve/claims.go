package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// SubmitClaimInput describes a new claim.
type SubmitClaimInput struct {
	ItemID   int64
	Claimant Identity
	Note     string
}

// SubmitClaim files a pending claim against an item and moves the item to
// pending. Both writes commit together or not at all.
func (e *Engine) SubmitClaim(ctx context.Context, in SubmitClaimInput) (*model.Claim, error) {
	note := strings.TrimSpace(in.Note)
	if note == "" {
		return nil, apperr.InvalidInput("a claim needs a description")
	}
	if in.Claimant.UserID <= 0 {
		return nil, apperr.InvalidInput("claimant required")
	}

	var claim *model.Claim
	var from string
	err := e.withItem(ctx, in.ItemID, "submitting claim", func(ctx context.Context, tx dbx.DBTX) error {
		item, err := store.GetItem(ctx, tx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperr.NotFound("item %d", in.ItemID)
		}
		if !e.acceptsClaims(item) {
			return apperr.InvalidState("item %d is %s and does not accept claims", item.ID, item.Status)
		}
		if item.UserID == in.Claimant.UserID {
			return apperr.Forbidden("cannot claim your own item")
		}

		dup, err := store.HasPendingClaim(ctx, tx, item.ID, in.Claimant.UserID)
		if err != nil {
			return err
		}
		if dup {
			return apperr.InvalidState("you already have a pending claim on item %d", item.ID)
		}

		name := strings.TrimSpace(in.Claimant.Name)
		if name == "" {
			name = model.DefaultDisplayName(in.Claimant.Email)
		}

		claim, err = store.CreateClaim(ctx, tx, &model.Claim{
			ItemID:        item.ID,
			ItemTitle:     item.Title,
			UserID:        in.Claimant.UserID,
			ClaimantName:  name,
			ClaimantEmail: in.Claimant.Email,
			Description:   note,
		})
		if err != nil {
			return err
		}

		from = item.Status
		if item.Status != model.ItemStatusPending {
			return store.UpdateItemStatus(ctx, tx, item.ID, model.ItemStatusPending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim submitted", "item", claim.ItemID, "claim", claim.ID,
		"claimant", claim.UserID, "item_from", from, "item_to", model.ItemStatusPending)
	return claim, nil
}

// RespondToClaim accepts or rejects a pending claim on behalf of the item's
// owner. Accepting resolves the item; other pending claims stay pending.
// Rejecting reopens the item when no pending claim is left.
func (e *Engine) RespondToClaim(ctx context.Context, claimID, itemID int64, decision model.Decision, actorID int64) (*model.Claim, error) {
	to := decision.Status()
	if to == "" {
		return nil, apperr.InvalidInput("unknown decision %q", decision)
	}

	var (
		claim    *model.Claim
		from     string
		itemTo   string
		itemFrom string
	)
	err := e.withItem(ctx, itemID, "responding to claim", func(ctx context.Context, tx dbx.DBTX) error {
		item, err := loadOwnedItem(ctx, tx, itemID, actorID)
		if err != nil {
			return err
		}

		claim, err = store.GetClaim(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if claim == nil || claim.ItemID != item.ID {
			return apperr.NotFound("claim %d on item %d", claimID, itemID)
		}
		if claim.Status != model.ClaimStatusPending {
			return apperr.InvalidState("claim %d is already %s", claim.ID, claim.Status)
		}

		if decision == model.DecisionAccept {
			counts, err := store.CountClaims(ctx, tx, item.ID)
			if err != nil {
				return err
			}
			if counts.Accepted > 0 {
				return apperr.InvalidState("item %d already has an accepted claim", item.ID)
			}
		}

		changed, err := store.UpdateClaimStatus(ctx, tx, claim.ID, model.ClaimStatusPending, to)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.InvalidState("claim %d is no longer pending", claim.ID)
		}

		itemFrom = item.Status
		if itemTo, err = syncStatus(ctx, tx, item); err != nil {
			return err
		}

		from = claim.Status
		claim, err = store.GetClaim(ctx, tx, claim.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim decided", "item", itemID, "claim", claimID, "from", from, "to", to,
		"item_from", itemFrom, "item_to", itemTo)
	return claim, nil
}

// Claim returns a claim visible to viewerID, who must be the claimant or the
// owner of the claimed item.
func (e *Engine) Claim(ctx context.Context, claimID, viewerID int64) (*model.Claim, error) {
	claim, err := store.GetClaim(ctx, e.DB, claimID)
	if err != nil {
		return nil, apperr.Storage(err, "getting claim")
	}
	if claim == nil {
		return nil, apperr.NotFound("claim %d", claimID)
	}
	if claim.UserID == viewerID {
		return claim, nil
	}

	item, err := store.GetItem(ctx, e.DB, claim.ItemID)
	if err != nil {
		return nil, apperr.Storage(err, "getting claimed item")
	}
	if item == nil || item.UserID != viewerID {
		return nil, apperr.Forbidden("claim %d belongs to someone else", claimID)
	}
	return claim, nil
}

// ClaimsForItem lists the claims on an item. Only the owner may see them.
func (e *Engine) ClaimsForItem(ctx context.Context, itemID, viewerID int64) ([]model.Claim, error) {
	if _, err := loadOwnedItem(ctx, e.DB, itemID, viewerID); err != nil {
		return nil, apperr.Storage(err, "getting item")
	}
	claims, err := store.ListClaimsForItem(ctx, e.DB, itemID)
	if err != nil {
		return nil, apperr.Storage(err, "listing item claims")
	}
	return claims, nil
}

// ReceivedClaims lists claims filed against items owned by userID.
func (e *Engine) ReceivedClaims(ctx context.Context, userID int64) ([]model.Claim, error) {
	claims, err := store.ListClaimsForOwner(ctx, e.DB, userID)
	if err != nil {
		return nil, apperr.Storage(err, "listing received claims")
	}
	return claims, nil
}

// SentClaims lists claims filed by userID.
func (e *Engine) SentClaims(ctx context.Context, userID int64) ([]model.Claim, error) {
	claims, err := store.ListClaimsByClaimant(ctx, e.DB, userID)
	if err != nil {
		return nil, apperr.Storage(err, "listing sent claims")
	}
	return claims, nil
}
