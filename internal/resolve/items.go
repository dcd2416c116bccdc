package resolve

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/apperr"
	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// DefaultCategory is used when an item is reported without a category.
const DefaultCategory = "other"

// NewItem describes an item being reported.
type NewItem struct {
	Title       string
	Description string
	Category    string
	Location    string
	ReportedOn  string
	ImageURL    string
	Kind        string
	OwnerID     int64
}

// CreateItem validates and stores a newly reported item. Items start open.
func (e *Engine) CreateItem(ctx context.Context, in NewItem) (*model.Item, error) {
	item := &model.Item{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Location:    strings.TrimSpace(in.Location),
		ReportedOn:  strings.TrimSpace(in.ReportedOn),
		ImageURL:    in.ImageURL,
		Kind:        in.Kind,
		UserID:      in.OwnerID,
	}

	if item.Title == "" {
		return nil, apperr.InvalidInput("title is required")
	}
	if item.Location == "" {
		return nil, apperr.InvalidInput("location is required")
	}
	if !model.ValidItemKind(item.Kind) {
		return nil, apperr.InvalidInput("kind must be %q or %q", model.ItemKindLost, model.ItemKindFound)
	}
	if item.UserID <= 0 {
		return nil, apperr.InvalidInput("owner required")
	}
	if item.Category == "" {
		item.Category = DefaultCategory
	}
	if item.ReportedOn == "" {
		item.ReportedOn = time.Now().Format(model.ReportedOnLayout)
	} else if _, err := time.Parse(model.ReportedOnLayout, item.ReportedOn); err != nil {
		return nil, apperr.InvalidInput("date must be in YYYY-MM-DD format")
	}

	created, err := store.CreateItem(ctx, e.DB, item)
	if err != nil {
		return nil, apperr.Storage(err, "creating item")
	}

	slog.Info("item reported", "item", created.ID, "kind", created.Kind, "owner", created.UserID)
	return created, nil
}

// GetItem returns an item by ID.
func (e *Engine) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, e.DB, id)
	if err != nil {
		return nil, apperr.Storage(err, "getting item")
	}
	if item == nil {
		return nil, apperr.NotFound("item %d", id)
	}
	return item, nil
}

// ListItems returns the items matching f, most recent first.
func (e *Engine) ListItems(ctx context.Context, f model.ItemFilter) ([]model.Item, error) {
	if f.Kind != "" && !model.ValidItemKind(f.Kind) {
		return nil, apperr.InvalidInput("unknown kind %q", f.Kind)
	}
	if f.Status != "" && !model.ValidItemStatus(f.Status) {
		return nil, apperr.InvalidInput("unknown status %q", f.Status)
	}
	items, err := store.ListItems(ctx, e.DB, f)
	if err != nil {
		return nil, apperr.Storage(err, "listing items")
	}
	return items, nil
}

// Stats returns the item counters shown on the landing page.
func (e *Engine) Stats(ctx context.Context) (*model.Stats, error) {
	s, err := store.GetStats(ctx, e.DB)
	if err != nil {
		return nil, apperr.Storage(err, "getting stats")
	}
	return s, nil
}

// ResolveItem lets the owner close an item without accepting a claim. Pending
// claims are left as they are. Closing an already closed item is a no-op.
func (e *Engine) ResolveItem(ctx context.Context, itemID, actorID int64) (*model.Item, error) {
	var (
		item *model.Item
		from string
	)
	err := e.withItem(ctx, itemID, "resolving item", func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		item, err = loadOwnedItem(ctx, tx, itemID, actorID)
		if err != nil {
			return err
		}
		from = item.Status
		if item.ClosedManually {
			return nil
		}
		if err := store.CloseItem(ctx, tx, item.ID); err != nil {
			return err
		}
		item, err = store.GetItem(ctx, tx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if from != item.Status {
		slog.Info("item resolved by owner", "item", item.ID, "from", from, "to", item.Status)
	}
	return item, nil
}

// SetItemImage records the URL of an item's photo. Only the owner may change it.
func (e *Engine) SetItemImage(ctx context.Context, itemID, actorID int64, url string) (*model.Item, error) {
	var item *model.Item
	err := e.withItem(ctx, itemID, "setting item image", func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := loadOwnedItem(ctx, tx, itemID, actorID); err != nil {
			return err
		}
		if err := store.SetItemImageURL(ctx, tx, itemID, url); err != nil {
			return err
		}
		var err error
		item, err = store.GetItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}
