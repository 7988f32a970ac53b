package tokenstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Load when no session is stored.
	ErrNotFound = errors.New("tokenstore: session not found")

	// ErrNilSession is returned by Save when the session is nil.
	ErrNilSession = errors.New("tokenstore: nil session")
)

// Session is the persisted auth record: one opaque access token and the
// time it was issued.
type Session struct {
	AccessToken string    `json:"accessToken"`
	IssuedAt    time.Time `json:"issuedAt,omitempty"`
}

// Store persists the single auth session.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save replaces the stored session.
	Save(ctx context.Context, s *Session) error

	// Load returns the stored session, or ErrNotFound when absent.
	Load(ctx context.Context) (*Session, error)

	// Clear removes the stored session. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error
}
