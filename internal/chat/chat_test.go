package chat

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/resolve"
	"github.com/erazemk/najdeno/internal/store"
)

type fixture struct {
	db      *sql.DB
	engine  *resolve.Engine
	channel *Channel
	owner   *model.User
	alice   *model.User
	bob     *model.User
	item    *model.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	f := &fixture{db: database, engine: resolve.New(database), channel: New(database)}
	f.owner = mustUser(t, database, "owner@example.com")
	f.alice = mustUser(t, database, "alice@example.com")
	f.bob = mustUser(t, database, "bob@example.com")

	item, err := f.engine.CreateItem(context.Background(), resolve.NewItem{
		Title:    "Blue backpack",
		Location: "Cafeteria",
		Kind:     model.ItemKindFound,
		OwnerID:  f.owner.ID,
	})
	require.NoError(t, err)
	f.item = item
	return f
}

func mustUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), database, email, model.DefaultDisplayName(email), "hash")
	require.NoError(t, err)
	return u
}

func (f *fixture) claim(t *testing.T, u *model.User) *model.Claim {
	t.Helper()
	c, err := f.engine.SubmitClaim(context.Background(), resolve.SubmitClaimInput{
		ItemID:   f.item.ID,
		Claimant: resolve.Identity{UserID: u.ID, Email: u.Email, Name: u.DisplayName},
		Note:     "there is a laptop inside",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) decide(t *testing.T, c *model.Claim, d model.Decision) {
	t.Helper()
	_, err := f.engine.RespondToClaim(context.Background(), c.ID, f.item.ID, d, f.owner.ID)
	require.NoError(t, err)
}

func TestPostRequiresAcceptedClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.claim(t, f.alice)
	_, err := f.channel.Post(ctx, pending.ID, f.alice.ID, "hello")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	rejected := f.claim(t, f.bob)
	f.decide(t, rejected, model.DecisionReject)
	_, err = f.channel.Post(ctx, rejected.ID, f.bob.ID, "hello")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	msgs, err := store.ListMessages(ctx, f.db, pending.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.claim(t, f.alice)
	f.decide(t, c, model.DecisionAccept)

	_, err := f.channel.Post(ctx, c.ID, f.bob.ID, "hi")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "outsider")

	_, err = f.channel.Post(ctx, 404, f.alice.ID, "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.channel.Post(ctx, c.ID, f.alice.ID, " \n\t ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.channel.Post(ctx, c.ID, f.alice.ID, strings.Repeat("ž", MaxMessageLength+1))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	msg, err := f.channel.Post(ctx, c.ID, f.alice.ID, strings.Repeat("ž", MaxMessageLength))
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, msg.SenderID)
}

func TestListOrderAndAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.claim(t, f.alice)
	f.decide(t, c, model.DecisionAccept)

	bodies := []string{"is it still there?", "yes, at the front desk", "great, coming at 3"}
	senders := []int64{f.alice.ID, f.owner.ID, f.alice.ID}
	for i, body := range bodies {
		_, err := f.channel.Post(ctx, c.ID, senders[i], body)
		require.NoError(t, err)
	}

	msgs, err := f.channel.List(ctx, c.ID, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, bodies[i], m.Body)
		assert.Equal(t, senders[i], m.SenderID)
	}

	since, err := f.channel.ListSince(ctx, c.ID, f.alice.ID, msgs[0].ID)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, bodies[1], since[0].Body)

	_, err = f.channel.List(ctx, c.ID, f.bob.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.channel.List(ctx, 404, f.alice.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestParticipants(t *testing.T) {
	f := newFixture(t)
	c := f.claim(t, f.alice)

	p, err := f.channel.Participants(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, p.Claimant)
	assert.Equal(t, f.owner.ID, p.Owner)
	assert.True(t, p.Has(f.owner.ID))
	assert.False(t, p.Has(f.bob.ID))
}

// Two claims compete for one item. The owner declines the first and accepts
// the second, after which only the accepted claimant can chat.
func TestClaimToConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status := func() string {
		item, err := store.GetItem(ctx, f.db, f.item.ID)
		require.NoError(t, err)
		return item.Status
	}
	claimStatus := func(id int64) string {
		c, err := store.GetClaim(ctx, f.db, id)
		require.NoError(t, err)
		return c.Status
	}

	require.Equal(t, model.ItemStatusOpen, status())

	c1 := f.claim(t, f.alice)
	assert.Equal(t, model.ItemStatusPending, status())

	c2 := f.claim(t, f.bob)
	assert.Equal(t, model.ItemStatusPending, status())

	f.decide(t, c1, model.DecisionReject)
	assert.Equal(t, model.ItemStatusPending, status())
	assert.Equal(t, model.ClaimStatusPending, claimStatus(c2.ID))

	f.decide(t, c2, model.DecisionAccept)
	assert.Equal(t, model.ItemStatusResolved, status())
	assert.Equal(t, model.ClaimStatusAccepted, claimStatus(c2.ID))
	assert.Equal(t, model.ClaimStatusRejected, claimStatus(c1.ID))

	_, err := f.channel.Post(ctx, c1.ID, f.alice.ID, "can I still have it?")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	first, err := f.channel.Post(ctx, c2.ID, f.bob.ID, "thanks! when can I pick it up?")
	require.NoError(t, err)
	second, err := f.channel.Post(ctx, c2.ID, f.owner.ID, "any time after 10")
	require.NoError(t, err)

	msgs, err := f.channel.List(ctx, c2.ID, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)
}

func TestPostHonorsCancellation(t *testing.T) {
	f := newFixture(t)
	c := f.claim(t, f.bob)
	f.decide(t, c, model.DecisionAccept)

	unlock, err := f.channel.Locks.Lock(context.Background(), ClaimLockKey(c.ID))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.channel.Post(ctx, c.ID, f.bob.ID, "hello?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, apperr.ErrStorage)

	msgs, err := f.channel.List(context.Background(), c.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
