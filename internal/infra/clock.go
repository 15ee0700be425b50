package infra

import (
	"time"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// SystemClock implements domain.Clock with the real wall clock.
type SystemClock struct{}

// NewSystemClock creates a system clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Ensure SystemClock implements domain.Clock.
var _ domain.Clock = (*SystemClock)(nil)
