// Package revocation keeps a denylist of token identifiers so that logout
// takes effect before a token's natural expiry.
package revocation

import (
	"context"
	"time"
)

type Store interface {
	// Revoke denies jti until the given instant. Instants in the past are ignored.
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
