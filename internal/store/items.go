package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `id, title, description, category, location, reported_on, image_url,
	user_id, kind, status, closed_manually, created_at, updated_at`

// now is the SQL expression for the current time with millisecond precision.
const now = `strftime('%Y-%m-%d %H:%M:%f', 'now')`

// CreateItem creates a new open item.
func CreateItem(ctx context.Context, db dbx.DBTX, item *model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (title, description, category, location, reported_on, image_url, user_id, kind, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, nullString(item.Description), item.Category, item.Location, item.ReportedOn,
		nullString(item.ImageURL), item.UserID, item.Kind, model.ItemStatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db dbx.DBTX, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, most recent first.
func ListItems(ctx context.Context, db dbx.DBTX, f model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	if f.Category != "" {
		query += ` AND category = ? COLLATE NOCASE`
		args = append(args, f.Category)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.UserID > 0 {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		query += ` AND (title LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\' OR location LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListItemIDs returns the IDs of all items in ascending order.
func ListItemIDs(ctx context.Context, db dbx.DBTX) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing item ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateItemStatus sets an item's status.
func UpdateItemStatus(ctx context.Context, db dbx.DBTX, id int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = `+now+` WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	return nil
}

// CloseItem marks an item as manually resolved by its owner.
func CloseItem(ctx context.Context, db dbx.DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, closed_manually = 1, updated_at = `+now+` WHERE id = ?`,
		model.ItemStatusResolved, id,
	)
	if err != nil {
		return fmt.Errorf("closing item: %w", err)
	}
	return nil
}

// SetItemImageURL sets the URL of an item's photo.
func SetItemImageURL(ctx context.Context, db dbx.DBTX, id int64, url string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image_url = ?, updated_at = `+now+` WHERE id = ?`,
		nullString(url), id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetStats counts items by status and kind.
func GetStats(ctx context.Context, db dbx.DBTX) (*model.Stats, error) {
	s := &model.Stats{}
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'resolved'), 0),
		        COALESCE(SUM(status = 'open'), 0),
		        COALESCE(SUM(status = 'pending'), 0),
		        COALESCE(SUM(kind = 'lost'), 0),
		        COALESCE(SUM(kind = 'found'), 0)
		 FROM items`,
	).Scan(&s.TotalReported, &s.Resolved, &s.Open, &s.Pending, &s.Lost, &s.Found)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var description, imageURL sql.NullString
	err := row.Scan(&item.ID, &item.Title, &description, &item.Category, &item.Location,
		&item.ReportedOn, &imageURL, &item.UserID, &item.Kind, &item.Status,
		&item.ClosedManually, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.ImageURL = imageURL.String
	return item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
