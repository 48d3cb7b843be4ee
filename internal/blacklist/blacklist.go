// Package blacklist keeps the set of revoked refresh-token ids.
//
// An entry lives until the token it revokes would have expired on its own; after
// that the signature check already rejects the token, so the entry is dropped.
package blacklist

import (
	"context"
	"time"
)

type Store interface {
	// Add revokes jti until expiresAt. It reports false when jti was already revoked.
	Add(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error)
	Contains(ctx context.Context, jti string) (bool, error)
}
