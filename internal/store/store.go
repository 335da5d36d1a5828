package store

import (
	"errors"

	"github.com/s22625/voxfs/internal/model"
)

// ErrNoSession is returned by helpers that need a logged-in session
var ErrNoSession = errors.New("not logged in")

// Store defines the interface for session persistence backends
type Store interface {
	// Load returns the stored session. A missing session loads as an empty one.
	Load() (*model.Session, error)

	// Save replaces the stored session
	Save(session *model.Session) error

	// Clear removes the stored session
	Clear() error

	// Path returns where the session lives
	Path() string
}

// RequireSession loads the session and fails with ErrNoSession when it
// carries no usable token
func RequireSession(s Store) (*model.Session, error) {
	sess, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, ErrNoSession
	}
	return sess, nil
}
