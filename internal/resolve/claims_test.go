package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

func TestSubmitClaimMovesItemToPending(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)

	c := f.claim(t, item, f.alice)

	assert.Equal(t, model.ClaimStatusPending, c.Status)
	assert.Equal(t, item.Title, c.ItemTitle)
	assert.Equal(t, "alice", c.ClaimantName)
	assert.Equal(t, "alice@example.com", c.ClaimantEmail)
	assert.Equal(t, model.ItemStatusPending, f.status(t, item.ID))
}

func TestSubmitClaimErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)

	_, err := f.engine.SubmitClaim(ctx, SubmitClaimInput{ItemID: 404, Claimant: identity(f.alice), Note: "mine"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.SubmitClaim(ctx, SubmitClaimInput{ItemID: item.ID, Claimant: identity(f.owner), Note: "mine"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.engine.SubmitClaim(ctx, SubmitClaimInput{ItemID: item.ID, Claimant: identity(f.alice), Note: "   "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	f.claim(t, item, f.alice)
	_, err = f.engine.SubmitClaim(ctx, SubmitClaimInput{ItemID: item.ID, Claimant: identity(f.alice), Note: "really mine"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "duplicate pending claim")

	claims, err := store.ListClaimsForItem(ctx, f.db, item.ID)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestSubmitClaimDefaultsClaimantName(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)

	c, err := f.engine.SubmitClaim(context.Background(), SubmitClaimInput{
		ItemID:   item.ID,
		Claimant: Identity{UserID: f.bob.ID, Email: "bob@example.com"},
		Note:     "lost it on monday",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", c.ClaimantName)
}

func TestSubmitClaimOnResolvedItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)

	_, err := f.engine.ResolveItem(ctx, item.ID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.engine.SubmitClaim(ctx, SubmitClaimInput{ItemID: item.ID, Claimant: identity(f.alice), Note: "mine"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	claims, err := store.ListClaimsForItem(ctx, f.db, item.ID)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestSubmitClaimExclusive(t *testing.T) {
	f := newFixture(t)
	f.engine.ExclusiveClaims = true
	ctx := context.Background()
	item := f.item(t)

	f.claim(t, item, f.alice)

	_, err := f.engine.SubmitClaim(ctx, SubmitClaimInput{ItemID: item.ID, Claimant: identity(f.bob), Note: "no, mine"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	claims, err := store.ListClaimsForItem(ctx, f.db, item.ID)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
	assert.Equal(t, model.ItemStatusPending, f.status(t, item.ID))
}

func TestRespondToClaimErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	other := f.item(t)
	c := f.claim(t, item, f.alice)

	tests := []struct {
		name     string
		claimID  int64
		itemID   int64
		decision model.Decision
		actor    int64
		want     error
	}{
		{"unknown decision", c.ID, item.ID, "maybe", f.owner.ID, apperr.ErrInvalidInput},
		{"unknown item", c.ID, 404, model.DecisionAccept, f.owner.ID, apperr.ErrNotFound},
		{"not owner", c.ID, item.ID, model.DecisionAccept, f.alice.ID, apperr.ErrForbidden},
		{"unknown claim", 404, item.ID, model.DecisionAccept, f.owner.ID, apperr.ErrNotFound},
		{"claim on another item", c.ID, other.ID, model.DecisionAccept, f.owner.ID, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.RespondToClaim(ctx, tt.claimID, tt.itemID, tt.decision, tt.actor)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, model.ClaimStatusPending, f.claimStatus(t, c.ID))
	assert.Equal(t, model.ItemStatusPending, f.status(t, item.ID))
}

func TestAcceptResolvesItemAndLeavesOthersPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	c1 := f.claim(t, item, f.alice)
	c2 := f.claim(t, item, f.bob)

	got, err := f.engine.RespondToClaim(ctx, c1.ID, item.ID, model.DecisionAccept, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClaimStatusAccepted, got.Status)

	assert.Equal(t, model.ItemStatusResolved, f.status(t, item.ID))
	assert.Equal(t, model.ClaimStatusPending, f.claimStatus(t, c2.ID))

	// The orphaned claim can still be declined, which keeps the item resolved.
	_, err = f.engine.RespondToClaim(ctx, c2.ID, item.ID, model.DecisionReject, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusResolved, f.status(t, item.ID))
}

func TestSecondAcceptFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	c1 := f.claim(t, item, f.alice)
	c2 := f.claim(t, item, f.bob)

	_, err := f.engine.RespondToClaim(ctx, c1.ID, item.ID, model.DecisionAccept, f.owner.ID)
	require.NoError(t, err)

	_, err = f.engine.RespondToClaim(ctx, c2.ID, item.ID, model.DecisionAccept, f.owner.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, model.ClaimStatusPending, f.claimStatus(t, c2.ID))
}

func TestRetriedDecisionFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	c := f.claim(t, item, f.alice)

	_, err := f.engine.RespondToClaim(ctx, c.ID, item.ID, model.DecisionReject, f.owner.ID)
	require.NoError(t, err)

	for _, d := range []model.Decision{model.DecisionReject, model.DecisionAccept} {
		_, err = f.engine.RespondToClaim(ctx, c.ID, item.ID, d, f.owner.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidState, "retry with %s", d)
	}
	assert.Equal(t, model.ClaimStatusRejected, f.claimStatus(t, c.ID))
}

func TestRejectRecomputesItemStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	c1 := f.claim(t, item, f.alice)
	c2 := f.claim(t, item, f.bob)

	_, err := f.engine.RespondToClaim(ctx, c1.ID, item.ID, model.DecisionReject, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusPending, f.status(t, item.ID), "another claim is outstanding")

	_, err = f.engine.RespondToClaim(ctx, c2.ID, item.ID, model.DecisionReject, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusOpen, f.status(t, item.ID), "last pending claim rejected")

	// A reopened item takes claims again.
	c3 := f.claim(t, item, f.alice)
	assert.Equal(t, model.ClaimStatusPending, c3.Status)
	assert.Equal(t, model.ItemStatusPending, f.status(t, item.ID))
}

func TestResolveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	c := f.claim(t, item, f.alice)

	_, err := f.engine.ResolveItem(ctx, item.ID, f.alice.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.engine.ResolveItem(ctx, 404, f.owner.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	resolved, err := f.engine.ResolveItem(ctx, item.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusResolved, resolved.Status)
	assert.True(t, resolved.ClosedManually)
	assert.Equal(t, model.ClaimStatusPending, f.claimStatus(t, c.ID), "claims are left alone")

	again, err := f.engine.ResolveItem(ctx, item.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusResolved, again.Status)

	// Rejecting an orphaned claim does not reopen a closed item.
	_, err = f.engine.RespondToClaim(ctx, c.ID, item.ID, model.DecisionReject, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusResolved, f.status(t, item.ID))
}

func TestClaimVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	c := f.claim(t, item, f.alice)

	got, err := f.engine.Claim(ctx, c.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.engine.Claim(ctx, c.ID, f.owner.ID)
	require.NoError(t, err)

	_, err = f.engine.Claim(ctx, c.ID, f.bob.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.engine.Claim(ctx, 404, f.alice.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.ClaimsForItem(ctx, item.ID, f.alice.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	claims, err := f.engine.ClaimsForItem(ctx, item.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestReceivedAndSentClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)
	f.claim(t, item, f.alice)
	f.claim(t, item, f.bob)

	received, err := f.engine.ReceivedClaims(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	sent, err := f.engine.SentClaims(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, f.alice.ID, sent[0].UserID)

	none, err := f.engine.ReceivedClaims(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
