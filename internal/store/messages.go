package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/model"
)

// CreateMessage appends a message to a claim's conversation.
func CreateMessage(ctx context.Context, db dbx.DBTX, claimID, senderID int64, body string) (*model.Message, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO messages (claim_id, sender_id, body) VALUES (?, ?, ?)`,
		claimID, senderID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting message id: %w", err)
	}

	return GetMessage(ctx, db, id)
}

// GetMessage returns a message by ID, or nil if it does not exist.
func GetMessage(ctx context.Context, db dbx.DBTX, id int64) (*model.Message, error) {
	m := &model.Message{}
	err := db.QueryRowContext(ctx,
		`SELECT id, claim_id, sender_id, body, created_at FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.ClaimID, &m.SenderID, &m.Body, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return m, nil
}

// ListMessages returns a claim's messages with an ID greater than afterID in
// ID order, so the last ID returned is a valid cursor for the next call. Pass
// 0 to list the whole conversation.
func ListMessages(ctx context.Context, db dbx.DBTX, claimID, afterID int64) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, claim_id, sender_id, body, created_at
		 FROM messages
		 WHERE claim_id = ? AND id > ?
		 ORDER BY id`, claimID, afterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ClaimID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
