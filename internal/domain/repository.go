package domain

import (
	"errors"
	"time"
)

// ErrNoPendingSession is returned when resolving while no session is pending.
var ErrNoPendingSession = errors.New("no pending session to resolve")

// ErrEmptyAppName is returned when a launch attempt names no application.
var ErrEmptyAppName = errors.New("app name is empty")

// ErrRuleNotFound is returned by rule store mutations for an unknown id.
var ErrRuleNotFound = errors.New("rule not found")

// SettingsStore is small local key-value persistence. Each key is
// independently consistent; no cross-key transaction exists.
// Implementations: JSON file store, SQLCipher encrypted store.
type SettingsStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)

	// Set stores a value, replacing any previous one.
	Set(key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// Clock abstracts wall-clock time so boundary arithmetic is testable.
type Clock interface {
	Now() time.Time
}

// AppLauncher hands a resolved launch URI to the operating system.
type AppLauncher interface {
	Launch(uri string) error
}

// HomeSurface returns the user to the launcher home screen instead of
// the target application.
type HomeSurface interface {
	Show() error
}

// KeyProvider abstracts the source of the storage encryption key.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
