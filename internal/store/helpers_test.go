package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/najdeno/internal/model"
)

func mustUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, email, model.DefaultDisplayName(email), "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func mustItem(t *testing.T, db *sql.DB, owner *model.User, title, kind string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), db, &model.Item{
		Title:      title,
		Category:   "electronics",
		Location:   "Library",
		ReportedOn: "2026-10-01",
		UserID:     owner.ID,
		Kind:       kind,
	})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", title, err)
	}
	return item
}

func mustClaim(t *testing.T, db *sql.DB, item *model.Item, claimant *model.User) *model.Claim {
	t.Helper()
	c, err := CreateClaim(context.Background(), db, &model.Claim{
		ItemID:        item.ID,
		ItemTitle:     item.Title,
		UserID:        claimant.ID,
		ClaimantName:  claimant.DisplayName,
		ClaimantEmail: claimant.Email,
		Description:   "it has my sticker on it",
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	return c
}
