// Package skipcache records the last explicit "proceed" per application
// so a near-duplicate trigger does not re-intercept the user within a
// few seconds. Not an allow-list; never consulted for strict blocks.
package skipcache

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// DefaultWindow is how long an explicit allow suppresses re-intervention.
const DefaultWindow = 5 * time.Second

const keyPrefix = "allowed_"

// Cache stores one timestamp per application name. Entries are only
// superseded or treated as stale by age, never deleted.
type Cache struct {
	settings domain.SettingsStore
	window   time.Duration
	logger   *zap.Logger
}

// New creates a cache. window defaults to DefaultWindow when zero.
func New(settings domain.SettingsStore, window time.Duration, logger *zap.Logger) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Cache{settings: settings, window: window, logger: logger}
}

// MarkAllowed stores now as the last explicit allow for the application.
func (c *Cache) MarkAllowed(appName string, now time.Time) error {
	key := keyPrefix + appName
	if err := c.settings.Set(key, strconv.FormatInt(now.UnixNano(), 10)); err != nil {
		return fmt.Errorf("failed to persist allow marker: %w", err)
	}
	return nil
}

// ShouldAutoAllow reports whether the application was explicitly allowed
// less than the window ago. A missing or malformed marker means no.
func (c *Cache) ShouldAutoAllow(appName string, now time.Time) bool {
	raw, ok, err := c.settings.Get(keyPrefix + appName)
	if err != nil {
		c.logger.Warn("failed to read allow marker", zap.String("app", appName), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.logger.Warn("malformed allow marker", zap.String("app", appName), zap.String("value", raw))
		return false
	}
	marked := time.Unix(0, nanos)
	return now.Sub(marked) < c.window
}
