// Package chat implements the conversation between an item's owner and a
// claimant. A conversation opens once the claim is accepted.
package chat

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/keylock"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// MaxMessageLength is the longest message body accepted, in characters.
const MaxMessageLength = 2000

// Channel posts and lists claim messages.
type Channel struct {
	DB    *sql.DB
	Locks *keylock.Locker
}

// New returns a Channel with its own lock table.
func New(db *sql.DB) *Channel {
	return &Channel{DB: db, Locks: keylock.New()}
}

// Parties are the two users allowed to talk about a claim.
type Parties struct {
	Claim    *model.Claim
	Claimant int64
	Owner    int64
}

// Has reports whether userID is one of the parties.
func (p Parties) Has(userID int64) bool {
	return userID == p.Claimant || userID == p.Owner
}

// ClaimLockKey is the lock key guarding a claim's conversation.
func ClaimLockKey(claimID int64) string {
	return "claim:" + strconv.FormatInt(claimID, 10)
}

func participants(ctx context.Context, db dbx.DBTX, claimID int64) (Parties, error) {
	claim, err := store.GetClaim(ctx, db, claimID)
	if err != nil {
		return Parties{}, err
	}
	if claim == nil {
		return Parties{}, apperr.NotFound("claim %d", claimID)
	}
	item, err := store.GetItem(ctx, db, claim.ItemID)
	if err != nil {
		return Parties{}, err
	}
	if item == nil {
		return Parties{}, apperr.NotFound("item %d", claim.ItemID)
	}
	return Parties{Claim: claim, Claimant: claim.UserID, Owner: item.UserID}, nil
}

// Participants returns the claimant and the item owner of a claim.
func (c *Channel) Participants(ctx context.Context, claimID int64) (Parties, error) {
	p, err := participants(ctx, c.DB, claimID)
	return p, apperr.Storage(err, "getting claim parties")
}

// Post appends a message from senderID to an accepted claim's conversation.
func (c *Channel) Post(ctx context.Context, claimID, senderID int64, text string) (*model.Message, error) {
	unlock, err := c.Locks.Lock(ctx, ClaimLockKey(claimID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	body := strings.TrimSpace(text)

	var msg *model.Message
	err = dbx.WithTx(ctx, c.DB, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := participants(ctx, tx, claimID)
		if err != nil {
			return err
		}
		if !p.Has(senderID) {
			return apperr.Forbidden("only the owner and the claimant can write here")
		}
		if p.Claim.Status != model.ClaimStatusAccepted {
			return apperr.Forbidden("chat opens once the claim is accepted (claim is %s)", p.Claim.Status)
		}
		if body == "" {
			return apperr.InvalidInput("message is empty")
		}
		if utf8.RuneCountInString(body) > MaxMessageLength {
			return apperr.InvalidInput("message is longer than %d characters", MaxMessageLength)
		}

		msg, err = store.CreateMessage(ctx, tx, claimID, senderID, body)
		return err
	})
	if err != nil {
		return nil, apperr.Storage(err, "posting message")
	}

	slog.Debug("message posted", "claim", claimID, "message", msg.ID, "sender", senderID)
	return msg, nil
}

// List returns a claim's whole conversation, oldest first.
func (c *Channel) List(ctx context.Context, claimID, viewerID int64) ([]model.Message, error) {
	return c.ListSince(ctx, claimID, viewerID, 0)
}

// ListSince returns the messages posted after the message afterID, oldest
// first. Only the claim's parties may read it.
func (c *Channel) ListSince(ctx context.Context, claimID, viewerID, afterID int64) ([]model.Message, error) {
	p, err := c.Participants(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !p.Has(viewerID) {
		return nil, apperr.Forbidden("claim %d belongs to someone else", claimID)
	}

	msgs, err := store.ListMessages(ctx, c.DB, claimID, afterID)
	if err != nil {
		return nil, apperr.Storage(err, "listing messages")
	}
	return msgs, nil
}
