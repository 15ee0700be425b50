package stats

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// memSettings implements domain.SettingsStore in memory for testing.
type memSettings struct {
	values map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSettings) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memSettings) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *memSettings) Close() error { return nil }

var _ domain.SettingsStore = (*memSettings)(nil)

// fakeClock implements domain.Clock with a settable time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var _ domain.Clock = (*fakeClock)(nil)

func newTestTracker(now time.Time) (*Tracker, *memSettings, *fakeClock) {
	mem := newMemSettings()
	clock := &fakeClock{now: now}
	return NewTracker(mem, clock, time.UTC, DefaultResetHour, zap.NewNop()), mem, clock
}

func day(d, hour, minute int) time.Time {
	return time.Date(2025, 6, d, hour, minute, 0, 0, time.UTC)
}

func TestRecordAttempt_Counts(t *testing.T) {
	tracker, _, _ := newTestTracker(day(10, 12, 0))

	for i := 0; i < 3; i++ {
		_, err := tracker.RecordAttempt(false)
		require.NoError(t, err)
	}
	s, err := tracker.RecordAttempt(true)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Attempts)
	assert.Equal(t, 3, s.Blocked)
}

func TestRecordAttempt_PersistsAcrossTrackers(t *testing.T) {
	tracker, mem, clock := newTestTracker(day(10, 12, 0))
	_, err := tracker.RecordAttempt(false)
	require.NoError(t, err)

	again := NewTracker(mem, clock, time.UTC, DefaultResetHour, zap.NewNop())
	s := again.Today()
	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, 1, s.Blocked)
}

// Last reset yesterday 03:00, now today 03:30. The effective boundary
// for 03:30 is yesterday 04:00, and yesterday 03:00 is before it, so
// the reset fires.
func TestReset_BeforeBoundaryHourUsesYesterdayBoundary(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 3, 30))
	mem.values[attemptsKey] = "7"
	mem.values[blockedKey] = "5"
	mem.values[lastResetKey] = day(9, 3, 0).Format(time.RFC3339Nano)

	s, err := tracker.RecordAttempt(true)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, 0, s.Blocked)
	assert.Equal(t, day(10, 3, 30), s.LastReset)
}

// Last reset yesterday 05:00 (after yesterday's boundary), now today
// 03:30: still the same 04:00-to-04:00 day, no reset.
func TestReset_NotTriggeredWithinSameDay(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 3, 30))
	mem.values[attemptsKey] = "7"
	mem.values[blockedKey] = "5"
	mem.values[lastResetKey] = day(9, 5, 0).Format(time.RFC3339Nano)

	s, err := tracker.RecordAttempt(true)
	require.NoError(t, err)

	assert.Equal(t, 8, s.Attempts)
	assert.Equal(t, 5, s.Blocked)
}

func TestReset_TriggeredAfterCrossingBoundary(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 4, 10))
	mem.values[attemptsKey] = "2"
	mem.values[blockedKey] = "1"
	mem.values[lastResetKey] = day(10, 3, 50).Format(time.RFC3339Nano)

	s, err := tracker.RecordAttempt(false)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, 1, s.Blocked)
}

// A clock that moved backwards across the boundary must not reset; the
// stored last-reset stays ahead of the recomputed boundary.
func TestReset_BackwardClockDoesNotReset(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 5, 0))
	mem.values[attemptsKey] = "3"
	mem.values[blockedKey] = "2"
	mem.values[lastResetKey] = day(10, 10, 0).Format(time.RFC3339Nano)

	s, err := tracker.RecordAttempt(true)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Attempts)
	assert.Equal(t, 2, s.Blocked)
}

func TestToday_AppliesResetWithoutIncrement(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 12, 0))
	mem.values[attemptsKey] = "9"
	mem.values[blockedKey] = "4"
	mem.values[lastResetKey] = day(9, 12, 0).Format(time.RFC3339Nano)

	s := tracker.Today()
	assert.Zero(t, s.Attempts)
	assert.Zero(t, s.Blocked)

	// Today never writes; the stored counters are untouched.
	assert.Equal(t, "9", mem.values[attemptsKey])
}

func TestLoad_ClampsBlockedToAttempts(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 12, 0))
	mem.values[attemptsKey] = "2"
	mem.values[blockedKey] = "5"
	mem.values[lastResetKey] = day(10, 11, 0).Format(time.RFC3339Nano)

	s, err := tracker.RecordAttempt(false)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Attempts)
	assert.Equal(t, 3, s.Blocked)
	assert.LessOrEqual(t, s.Blocked, s.Attempts)
}

func TestLoad_MalformedValuesReadAsZero(t *testing.T) {
	tracker, mem, _ := newTestTracker(day(10, 12, 0))
	mem.values[attemptsKey] = "many"
	mem.values[blockedKey] = "-3"
	mem.values[lastResetKey] = "yesterday-ish"

	s, err := tracker.RecordAttempt(false)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, 1, s.Blocked)

	// Persisted values are numeric again.
	_, err = strconv.Atoi(mem.values[attemptsKey])
	assert.NoError(t, err)
}
