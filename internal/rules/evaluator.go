package rules

import (
	"time"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// Evaluator answers whether an application is blocked at a given wall
// clock time. It reads only the persisted rule store, so it is safe to
// call from a short-lived trigger context that never touches session
// state. No I/O beyond the store snapshot, no UI, no network.
type Evaluator struct {
	store *Store
	loc   *time.Location
}

// NewEvaluator creates an evaluator using the given timezone for
// minutes-since-midnight conversion.
func NewEvaluator(store *Store, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	return &Evaluator{store: store, loc: loc}
}

// IsBlocked reports whether any enabled rule for the application is
// active at now. Always false while global strict mode is off.
func (e *Evaluator) IsBlocked(appName string, now time.Time) bool {
	return e.ActiveRule(appName, now) != nil
}

// ActiveRule returns the first rule in store order that blocks the
// application at now, or nil. Ties break on insertion order, there is
// no priority ranking.
func (e *Evaluator) ActiveRule(appName string, now time.Time) *domain.BlockingRule {
	set := e.store.Load()
	if !set.Strict {
		return nil
	}

	local := now.In(e.loc)
	nowMinutes := local.Hour()*60 + local.Minute()

	for i := range set.Rules {
		r := set.Rules[i]
		if !r.Enabled || r.AppName != appName {
			continue
		}
		if windowContains(r, nowMinutes) {
			return &set.Rules[i]
		}
	}
	return nil
}

// ActiveCount returns how many enabled rules are active at now,
// regardless of application.
func (e *Evaluator) ActiveCount(now time.Time) int {
	set := e.store.Load()
	if !set.Strict {
		return 0
	}
	local := now.In(e.loc)
	nowMinutes := local.Hour()*60 + local.Minute()
	count := 0
	for _, r := range set.Rules {
		if r.Enabled && windowContains(r, nowMinutes) {
			count++
		}
	}
	return count
}

// windowContains checks the rule window against minutes since local
// midnight (0-1439), bounds inclusive.
func windowContains(r domain.BlockingRule, nowMinutes int) bool {
	start := r.StartHour*60 + r.StartMinute
	end := r.EndHour*60 + r.EndMinute

	// start == end is a full 24-hour block.
	if start == end {
		return true
	}
	// Window crossing midnight, e.g. 22:00 -> 07:00.
	if end < start {
		return nowMinutes >= start || nowMinutes <= end
	}
	return nowMinutes >= start && nowMinutes <= end
}
