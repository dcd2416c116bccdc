package store

import (
	"context"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func TestCreateAndGetClaim(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana@example.com")
	claimant := mustUser(t, database, "bor@example.com")
	item := mustItem(t, database, owner, "Wallet", model.ItemKindFound)

	c := mustClaim(t, database, item, claimant)
	if c.Status != model.ClaimStatusPending {
		t.Errorf("expected status 'pending', got %q", c.Status)
	}
	if c.ItemTitle != "Wallet" || c.ClaimantEmail != "bor@example.com" || c.ClaimantName != "bor" {
		t.Errorf("expected denormalized fields, got %+v", c)
	}

	got, err := GetClaim(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.ItemID != item.ID {
		t.Errorf("expected item %d, got %d", item.ID, got.ItemID)
	}

	missing, err := GetClaim(ctx, database, c.ID+1)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing claim")
	}
}

func TestUpdateClaimStatusConditional(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana@example.com")
	claimant := mustUser(t, database, "bor@example.com")
	item := mustItem(t, database, owner, "Wallet", model.ItemKindFound)
	c := mustClaim(t, database, item, claimant)

	changed, err := UpdateClaimStatus(ctx, database, c.ID, model.ClaimStatusPending, model.ClaimStatusRejected)
	if err != nil {
		t.Fatalf("UpdateClaimStatus: %v", err)
	}
	if !changed {
		t.Error("expected pending claim to change")
	}

	// A second conditional update must not apply.
	changed, err = UpdateClaimStatus(ctx, database, c.ID, model.ClaimStatusPending, model.ClaimStatusAccepted)
	if err != nil {
		t.Fatalf("UpdateClaimStatus: %v", err)
	}
	if changed {
		t.Error("expected decided claim not to change")
	}

	got, _ := GetClaim(ctx, database, c.ID)
	if got.Status != model.ClaimStatusRejected {
		t.Errorf("expected 'rejected', got %q", got.Status)
	}
}

func TestOnlyOneAcceptedClaimPerItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "ana@example.com")
	bor := mustUser(t, database, "bor@example.com")
	cene := mustUser(t, database, "cene@example.com")
	item := mustItem(t, database, owner, "Wallet", model.ItemKindFound)
	c1 := mustClaim(t, database, item, bor)
	c2 := mustClaim(t, database, item, cene)

	if _, err := UpdateClaimStatus(ctx, database, c1.ID, "", model.ClaimStatusAccepted); err != nil {
		t.Fatalf("accepting first claim: %v", err)
	}
	if _, err := UpdateClaimStatus(ctx, database, c2.ID, "", model.ClaimStatusAccepted); err == nil {
		t.Error("expected unique index to reject a second accepted claim")
	}
}

func TestClaimListings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := mustUser(t, database, "ana@example.com")
	bor := mustUser(t, database, "bor@example.com")
	cene := mustUser(t, database, "cene@example.com")

	wallet := mustItem(t, database, ana, "Wallet", model.ItemKindFound)
	keys := mustItem(t, database, bor, "Keys", model.ItemKindFound)

	mustClaim(t, database, wallet, bor)
	mustClaim(t, database, wallet, cene)
	mustClaim(t, database, keys, cene)

	all, _ := ListClaims(ctx, database)
	if len(all) != 3 {
		t.Errorf("expected 3 claims, got %d", len(all))
	}

	forWallet, _ := ListClaimsForItem(ctx, database, wallet.ID)
	if len(forWallet) != 2 {
		t.Errorf("expected 2 claims on wallet, got %d", len(forWallet))
	}

	received, _ := ListClaimsForOwner(ctx, database, ana.ID)
	if len(received) != 2 {
		t.Errorf("expected ana to have received 2 claims, got %d", len(received))
	}

	sent, _ := ListClaimsByClaimant(ctx, database, cene.ID)
	if len(sent) != 2 {
		t.Errorf("expected cene to have sent 2 claims, got %d", len(sent))
	}
	if len(sent) == 2 && sent[0].ItemID != keys.ID {
		t.Errorf("expected most recent claim first, got item %d", sent[0].ItemID)
	}
}

func TestCountClaims(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := mustUser(t, database, "ana@example.com")
	bor := mustUser(t, database, "bor@example.com")
	cene := mustUser(t, database, "cene@example.com")
	item := mustItem(t, database, ana, "Wallet", model.ItemKindFound)

	counts, err := CountClaims(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("CountClaims: %v", err)
	}
	if counts != (ClaimCounts{}) {
		t.Errorf("expected no claims, got %+v", counts)
	}

	c1 := mustClaim(t, database, item, bor)
	mustClaim(t, database, item, cene)
	UpdateClaimStatus(ctx, database, c1.ID, "", model.ClaimStatusRejected)

	counts, _ = CountClaims(ctx, database, item.ID)
	if counts != (ClaimCounts{Pending: 1, Rejected: 1}) {
		t.Errorf("expected 1 pending and 1 rejected, got %+v", counts)
	}

	has, _ := HasPendingClaim(ctx, database, item.ID, cene.ID)
	if !has {
		t.Error("expected cene to have a pending claim")
	}
	has, _ = HasPendingClaim(ctx, database, item.ID, bor.ID)
	if has {
		t.Error("expected bor's rejected claim not to count as pending")
	}
}
