package resolve

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

type fixture struct {
	db     *sql.DB
	engine *Engine
	owner  *model.User
	alice  *model.User
	bob    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	f := &fixture{db: database, engine: New(database)}
	f.owner = mustUser(t, database, "owner@example.com")
	f.alice = mustUser(t, database, "alice@example.com")
	f.bob = mustUser(t, database, "bob@example.com")
	return f
}

func mustUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), database, email, model.DefaultDisplayName(email), "hash")
	require.NoError(t, err)
	return u
}

func identity(u *model.User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, Name: u.DisplayName}
}

func (f *fixture) item(t *testing.T) *model.Item {
	t.Helper()
	item, err := f.engine.CreateItem(context.Background(), NewItem{
		Title:      "Black umbrella",
		Category:   "Accessories",
		Location:   "Library, 2nd floor",
		ReportedOn: "2026-10-01",
		Kind:       model.ItemKindFound,
		OwnerID:    f.owner.ID,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) claim(t *testing.T, item *model.Item, u *model.User) *model.Claim {
	t.Helper()
	c, err := f.engine.SubmitClaim(context.Background(), SubmitClaimInput{
		ItemID:   item.ID,
		Claimant: identity(u),
		Note:     "mine, it has a wooden handle",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) status(t *testing.T, itemID int64) string {
	t.Helper()
	item, err := store.GetItem(context.Background(), f.db, itemID)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.Status
}

func (f *fixture) claimStatus(t *testing.T, claimID int64) string {
	t.Helper()
	c, err := store.GetClaim(context.Background(), f.db, claimID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c.Status
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		counts store.ClaimCounts
		closed bool
		want   string
	}{
		{"no claims", store.ClaimCounts{}, false, model.ItemStatusOpen},
		{"only rejected", store.ClaimCounts{Rejected: 2}, false, model.ItemStatusOpen},
		{"pending", store.ClaimCounts{Pending: 1, Rejected: 1}, false, model.ItemStatusPending},
		{"accepted", store.ClaimCounts{Accepted: 1, Pending: 3}, false, model.ItemStatusResolved},
		{"closed with pending", store.ClaimCounts{Pending: 1}, true, model.ItemStatusResolved},
		{"closed without claims", store.ClaimCounts{}, true, model.ItemStatusResolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.counts, tt.closed))
		})
	}
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	item := f.item(t)

	assert.Equal(t, model.ItemStatusOpen, item.Status)
	assert.Equal(t, "accessories", item.Category)
	assert.Equal(t, f.owner.ID, item.UserID)
	assert.False(t, item.ClosedManually)
}

func TestCreateItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := NewItem{Title: "Keys", Location: "Gym", Kind: model.ItemKindLost, OwnerID: f.owner.ID}

	tests := []struct {
		name   string
		modify func(*NewItem)
	}{
		{"missing title", func(n *NewItem) { n.Title = "  " }},
		{"missing location", func(n *NewItem) { n.Location = "" }},
		{"bad kind", func(n *NewItem) { n.Kind = "stolen" }},
		{"bad date", func(n *NewItem) { n.ReportedOn = "01.10.2026" }},
		{"no owner", func(n *NewItem) { n.OwnerID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			_, err := f.engine.CreateItem(ctx, in)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	item, err := f.engine.CreateItem(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, item.Category)
	assert.NotEmpty(t, item.ReportedOn)
}

func TestGetItemNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.GetItem(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListItemsRejectsUnknownFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.ListItems(ctx, model.ItemFilter{Status: "archived"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.engine.ListItems(ctx, model.ItemFilter{Kind: "misplaced"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestListItemsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.item(t)
	second := f.item(t)
	f.claim(t, second, f.alice)

	items, err := f.engine.ListItems(ctx, model.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)

	pending, err := f.engine.ListItems(ctx, model.ItemFilter{Status: model.ItemStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	stats, err := f.engine.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReported)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Found)
}

func TestSetItemImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(t)

	_, err := f.engine.SetItemImage(ctx, item.ID, f.alice.ID, "https://cdn.example.com/x.jpg")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := f.engine.SetItemImage(ctx, item.ID, f.owner.ID, "https://cdn.example.com/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.jpg", updated.ImageURL)
}
