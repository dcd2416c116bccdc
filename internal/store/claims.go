package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/model"
)

const claimColumns = `c.id, c.item_id, c.item_title, c.user_id, c.claimant_name, c.claimant_email,
	c.description, c.status, c.created_at, c.updated_at`

// CreateClaim creates a new pending claim.
func CreateClaim(ctx context.Context, db dbx.DBTX, claim *model.Claim) (*model.Claim, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO claims (item_id, item_title, user_id, claimant_name, claimant_email, description, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		claim.ItemID, claim.ItemTitle, claim.UserID, claim.ClaimantName, claim.ClaimantEmail,
		claim.Description, model.ClaimStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	return GetClaim(ctx, db, id)
}

// GetClaim returns a claim by ID, or nil if it does not exist.
func GetClaim(ctx context.Context, db dbx.DBTX, id int64) (*model.Claim, error) {
	c, err := scanClaim(db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims c WHERE c.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// ListClaims returns all claims, most recent first.
func ListClaims(ctx context.Context, db dbx.DBTX) ([]model.Claim, error) {
	return queryClaims(ctx, db, "listing claims",
		`SELECT `+claimColumns+` FROM claims c ORDER BY c.created_at DESC, c.id DESC`)
}

// ListClaimsForItem returns the claims filed against an item, most recent first.
func ListClaimsForItem(ctx context.Context, db dbx.DBTX, itemID int64) ([]model.Claim, error) {
	return queryClaims(ctx, db, "listing item claims",
		`SELECT `+claimColumns+` FROM claims c WHERE c.item_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`, itemID)
}

// ListClaimsByClaimant returns the claims a user has filed, most recent first.
func ListClaimsByClaimant(ctx context.Context, db dbx.DBTX, userID int64) ([]model.Claim, error) {
	return queryClaims(ctx, db, "listing sent claims",
		`SELECT `+claimColumns+` FROM claims c WHERE c.user_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`, userID)
}

// ListClaimsForOwner returns the claims filed against items owned by a user,
// most recent first.
func ListClaimsForOwner(ctx context.Context, db dbx.DBTX, ownerID int64) ([]model.Claim, error) {
	return queryClaims(ctx, db, "listing received claims",
		`SELECT `+claimColumns+` FROM claims c
		 JOIN items i ON i.id = c.item_id
		 WHERE i.user_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`, ownerID)
}

// UpdateClaimStatus sets a claim's status. If from is non-empty the update
// only applies while the claim is still in that status. It reports whether a
// row was changed.
func UpdateClaimStatus(ctx context.Context, db dbx.DBTX, id int64, from, to string) (bool, error) {
	query := `UPDATE claims SET status = ?, updated_at = ` + now + ` WHERE id = ?`
	args := []any{to, id}
	if from != "" {
		query += ` AND status = ?`
		args = append(args, from)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating claim status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n == 1, nil
}

// ClaimCounts holds the number of an item's claims per status.
type ClaimCounts struct {
	Pending  int
	Accepted int
	Rejected int
}

// CountClaims counts an item's claims by status.
func CountClaims(ctx context.Context, db dbx.DBTX, itemID int64) (ClaimCounts, error) {
	var c ClaimCounts
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(status = 'pending'), 0),
		        COALESCE(SUM(status = 'accepted'), 0),
		        COALESCE(SUM(status = 'rejected'), 0)
		 FROM claims WHERE item_id = ?`, itemID,
	).Scan(&c.Pending, &c.Accepted, &c.Rejected)
	if err != nil {
		return ClaimCounts{}, fmt.Errorf("counting claims: %w", err)
	}
	return c, nil
}

// HasPendingClaim reports whether a user already has a pending claim on an item.
func HasPendingClaim(ctx context.Context, db dbx.DBTX, itemID, userID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE item_id = ? AND user_id = ? AND status = 'pending'`,
		itemID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking pending claim: %w", err)
	}
	return count > 0, nil
}

func queryClaims(ctx context.Context, db dbx.DBTX, op, query string, args ...any) ([]model.Claim, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

func scanClaim(row scanner) (*model.Claim, error) {
	c := &model.Claim{}
	err := row.Scan(&c.ID, &c.ItemID, &c.ItemTitle, &c.UserID, &c.ClaimantName, &c.ClaimantEmail,
		&c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
