// Package stats keeps rolling attempt/block counters for the current
// day, where a day runs boundary-hour to boundary-hour instead of
// midnight to midnight.
package stats

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// DefaultResetHour is the local hour at which a new day begins. Usage
// between midnight and this hour counts toward the previous day.
const DefaultResetHour = 4

const (
	attemptsKey  = "today_attempts"
	blockedKey   = "today_blocked"
	lastResetKey = "last_reset"
)

// Tracker counts launch attempts and blocks for the current day.
type Tracker struct {
	settings  domain.SettingsStore
	clock     domain.Clock
	loc       *time.Location
	resetHour int
	logger    *zap.Logger
}

// NewTracker creates a tracker. resetHour must be 0-23; loc defaults to
// the system location when nil.
func NewTracker(settings domain.SettingsStore, clock domain.Clock, loc *time.Location, resetHour int, logger *zap.Logger) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	if resetHour < 0 || resetHour > 23 {
		resetHour = DefaultResetHour
	}
	return &Tracker{
		settings:  settings,
		clock:     clock,
		loc:       loc,
		resetHour: resetHour,
		logger:    logger,
	}
}

// RecordAttempt applies the reset check, increments the attempt counter,
// increments the blocked counter iff the app was not opened, and
// persists. Called exactly once per resolved session.
func (t *Tracker) RecordAttempt(opened bool) (domain.DailyStats, error) {
	now := t.clock.Now()
	s := t.load()

	if t.shouldReset(s.LastReset, now) {
		t.logger.Info("daily stats reset",
			zap.Time("last_reset", s.LastReset),
			zap.Time("now", now))
		s = domain.DailyStats{LastReset: now}
	}

	s.Attempts++
	if !opened {
		s.Blocked++
	}

	if err := t.save(s); err != nil {
		return s, err
	}
	return s, nil
}

// Today returns the current counters after applying the reset check,
// without incrementing anything.
func (t *Tracker) Today() domain.DailyStats {
	s := t.load()
	if t.shouldReset(s.LastReset, t.clock.Now()) {
		return domain.DailyStats{}
	}
	return s
}

// shouldReset is the boundary check: the effective boundary is today's
// reset hour, or yesterday's when now is before it. Reset iff the
// stored last-reset is strictly before that boundary. A clock that
// moved backwards simply fails the check and self-corrects later.
func (t *Tracker) shouldReset(lastReset, now time.Time) bool {
	local := now.In(t.loc)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), t.resetHour, 0, 0, 0, t.loc)
	if local.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return lastReset.Before(boundary)
}

func (t *Tracker) load() domain.DailyStats {
	s := domain.DailyStats{
		Attempts:  t.loadInt(attemptsKey),
		Blocked:   t.loadInt(blockedKey),
		LastReset: t.loadTime(lastResetKey),
	}
	// Counters can never drift past each other; recover to the safe side.
	if s.Blocked > s.Attempts {
		s.Blocked = s.Attempts
	}
	return s
}

func (t *Tracker) save(s domain.DailyStats) error {
	if err := t.settings.Set(attemptsKey, strconv.Itoa(s.Attempts)); err != nil {
		return fmt.Errorf("failed to persist attempts: %w", err)
	}
	if err := t.settings.Set(blockedKey, strconv.Itoa(s.Blocked)); err != nil {
		return fmt.Errorf("failed to persist blocked count: %w", err)
	}
	if err := t.settings.Set(lastResetKey, s.LastReset.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to persist reset time: %w", err)
	}
	return nil
}

func (t *Tracker) loadInt(key string) int {
	raw, ok, err := t.settings.Get(key)
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		t.logger.Warn("malformed counter, using zero", zap.String("key", key), zap.String("value", raw))
		return 0
	}
	return n
}

func (t *Tracker) loadTime(key string) time.Time {
	raw, ok, err := t.settings.Get(key)
	if err != nil || !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		t.logger.Warn("malformed timestamp, using zero", zap.String("key", key), zap.String("value", raw))
		return time.Time{}
	}
	return ts
}
