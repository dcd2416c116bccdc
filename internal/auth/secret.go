package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/najdeno/internal/dbx"
	"github.com/erazemk/najdeno/internal/store"
)

const secretSetting = "jwt_secret"

// LoadSecret returns the token signing secret stored in the database,
// generating one on first use.
func LoadSecret(ctx context.Context, db dbx.DBTX) (string, error) {
	if secret, ok, err := store.GetSetting(ctx, db, secretSetting); err != nil {
		return "", err
	} else if ok {
		return secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return store.EnsureSetting(ctx, db, secretSetting, hex.EncodeToString(buf))
}
