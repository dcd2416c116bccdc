package model

import "time"

// Item represents a reported lost or found object.
type Item struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category"`
	Location       string    `json:"location"`
	ReportedOn     string    `json:"reported_on"`
	ImageURL       string    `json:"image_url,omitempty"`
	UserID         int64     `json:"user_id"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	ClosedManually bool      `json:"closed_manually"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Item kinds.
const (
	ItemKindLost  = "lost"
	ItemKindFound = "found"
)

// Item statuses.
const (
	ItemStatusOpen     = "open"
	ItemStatusPending  = "pending"
	ItemStatusResolved = "resolved"
)

// ReportedOnLayout is the layout of Item.ReportedOn.
const ReportedOnLayout = "2006-01-02"

// ValidItemKind reports whether kind is a known item kind.
func ValidItemKind(kind string) bool {
	return kind == ItemKindLost || kind == ItemKindFound
}

// ValidItemStatus reports whether status is a known item status.
func ValidItemStatus(status string) bool {
	switch status {
	case ItemStatusOpen, ItemStatusPending, ItemStatusResolved:
		return true
	}
	return false
}

// ItemFilter narrows an item listing. Zero values match everything.
type ItemFilter struct {
	Kind     string
	Category string
	Status   string
	UserID   int64
	// Query matches title, category or location, case-insensitively.
	Query string
}

// Stats summarises the item listings.
type Stats struct {
	TotalReported int `json:"total_reported"`
	Resolved      int `json:"resolved"`
	Open          int `json:"open"`
	Pending       int `json:"pending"`
	Lost          int `json:"lost"`
	Found         int `json:"found"`
}
