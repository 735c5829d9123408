// Package session holds the short-lived single-use values of the OAuth
// flow: consent states and one-time auth codes.
package session

import (
	"context"
	"time"
)

const (
	KindState    = "state"
	KindAuthCode = "authcode"
)

// Store saves values under (kind, key). Take returns a value at most once.
type Store interface {
	Put(ctx context.Context, kind, key, value string, ttl time.Duration) error
	// Take returns ok=false for missing, expired or already taken keys.
	Take(ctx context.Context, kind, key string) (value string, ok bool, err error)
}
