// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"time"
)

// BlockingRule is one persisted time-window block for an application.
// Hour/minute pairs are always valid time-of-day values; a rule whose
// start equals its end covers the full 24 hours, never zero minutes.
type BlockingRule struct {
	ID          string `json:"id"`
	AppName     string `json:"app_name"`
	StartHour   int    `json:"start_hour"`   // 0-23
	StartMinute int    `json:"start_minute"` // 0-59
	EndHour     int    `json:"end_hour"`
	EndMinute   int    `json:"end_minute"`
	Enabled     bool   `json:"is_enabled"`
}

// Validate checks the hour/minute invariants.
func (r BlockingRule) Validate() error {
	if r.AppName == "" {
		return fmt.Errorf("rule %s: app name is empty", r.ID)
	}
	if r.StartHour < 0 || r.StartHour > 23 || r.EndHour < 0 || r.EndHour > 23 {
		return fmt.Errorf("rule %s: hour out of range", r.ID)
	}
	if r.StartMinute < 0 || r.StartMinute > 59 || r.EndMinute < 0 || r.EndMinute > 59 {
		return fmt.Errorf("rule %s: minute out of range", r.ID)
	}
	return nil
}

// TimeRange returns the window as "HH:MM - HH:MM" for display.
func (r BlockingRule) TimeRange() string {
	return fmt.Sprintf("%02d:%02d - %02d:%02d",
		r.StartHour, r.StartMinute, r.EndHour, r.EndMinute)
}

// RuleSet is the process-wide rule state: ordered rules plus the global
// strict-mode flag. Rules are inert while Strict is false.
type RuleSet struct {
	Rules  []BlockingRule
	Strict bool
}

// DailyStats holds the rolling counters for the current day.
// The day runs boundary-hour to boundary-hour, not midnight to midnight.
type DailyStats struct {
	Attempts  int
	Blocked   int
	LastReset time.Time
}

// LaunchRequest is the input from an external trigger (voice command,
// shortcut, deep link) reporting an attempted app launch.
type LaunchRequest struct {
	AppName          string
	DurationOverride *time.Duration
	ForceStrict      bool
}

// SessionSnapshot is what the rendering collaborator needs about a
// pending intervention. Duration 0 means no countdown, show the blocked
// message immediately.
type SessionSnapshot struct {
	AppName   string
	Duration  time.Duration
	Strict    bool
	LaunchURI string
}

// Decision is the outcome of evaluating a launch attempt.
// Exactly one of AutoApprove / InterventionRequired is set.
type Decision struct {
	AutoApprove bool
	LaunchURI   string

	InterventionRequired bool
	Session              SessionSnapshot

	// Discarded is true when opening this session evicted a pending one.
	Discarded bool
}

// Outcome is the result of resolving an intervention session.
type Outcome struct {
	Opened    bool
	LaunchURI string
}
