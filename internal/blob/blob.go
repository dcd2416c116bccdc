// Package blob stores uploaded files and resolves them to retrievable URLs.
// The rest of the application only ever keeps the URL.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store saves a blob under key and returns the URL it can be fetched from.
// Delete removes a blob; deleting a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// NewKey returns a fresh, date-partitioned key under prefix, for example
// items/2026/10/17/0b9e...c1.jpg.
func NewKey(prefix, contentType string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s",
		strings.Trim(prefix, "/"), d.Year(), d.Month(), d.Day(), uuid.New(), extensions[contentType])
}

// joinURL appends key to base with exactly one slash between them.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + path.Clean(strings.TrimLeft(key, "/"))
}
