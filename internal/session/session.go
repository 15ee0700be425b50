// Package session implements the single-slot intervention state
// machine: Idle -> Pending -> Idle. At most one session is pending at a
// time; opening another unconditionally replaces it.
package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/catalog"
	"github.com/eliteGoblin/breatherd/internal/domain"
	"github.com/eliteGoblin/breatherd/internal/skipcache"
	"github.com/eliteGoblin/breatherd/internal/stats"
)

// Observer is notified synchronously when a session opens, so the
// rendering collaborator can reset its transient state.
type Observer func(domain.SessionSnapshot)

// Session coordinates one pending intervention decision.
type Session struct {
	catalog  *catalog.Catalog
	stats    *stats.Tracker
	skips    *skipcache.Cache
	launcher domain.AppLauncher
	home     domain.HomeSurface
	clock    domain.Clock
	logger   *zap.Logger

	observers []Observer

	active   bool
	appName  string
	duration time.Duration
	strict   bool
	uri      string
}

// New creates an idle session coordinator.
func New(
	cat *catalog.Catalog,
	tracker *stats.Tracker,
	skips *skipcache.Cache,
	launcher domain.AppLauncher,
	home domain.HomeSurface,
	clock domain.Clock,
	logger *zap.Logger,
) *Session {
	return &Session{
		catalog:  cat,
		stats:    tracker,
		skips:    skips,
		launcher: launcher,
		home:     home,
		clock:    clock,
		logger:   logger,
	}
}

// OnStart registers an observer for session-started notifications.
func (s *Session) OnStart(fn Observer) {
	s.observers = append(s.observers, fn)
}

// Active reports whether a session is pending.
func (s *Session) Active() bool {
	return s.active
}

// Snapshot returns the pending session state, if any.
func (s *Session) Snapshot() (domain.SessionSnapshot, bool) {
	if !s.active {
		return domain.SessionSnapshot{}, false
	}
	return s.snapshot(), true
}

// Open starts a session for the application. The effective duration is
// the explicit override if present, else 0 for strict sessions (no
// countdown, blocked message immediately), else the catalog default.
// The launch URI resolves at open time; unknown apps get a session with
// no URI. discarded is true when a pending session was replaced.
func (s *Session) Open(appName string, override *time.Duration, strict bool) (domain.SessionSnapshot, bool, error) {
	if appName == "" {
		return domain.SessionSnapshot{}, false, domain.ErrEmptyAppName
	}

	discarded := s.active
	if discarded {
		s.logger.Warn("replacing pending session",
			zap.String("previous_app", s.appName),
			zap.String("app", appName))
	}

	var duration time.Duration
	switch {
	case override != nil:
		duration = *override
	case strict:
		duration = 0
	default:
		duration = s.catalog.DefaultDuration(appName)
	}

	uri, ok := s.catalog.URIFor(appName)
	if !ok {
		s.logger.Info("unknown app, session opens without launch URI",
			zap.String("app", appName))
	}

	s.active = true
	s.appName = appName
	s.duration = duration
	s.strict = strict
	s.uri = uri

	snap := s.snapshot()
	for _, fn := range s.observers {
		fn(snap)
	}

	s.logger.Info("session started",
		zap.String("app", appName),
		zap.Duration("duration", duration),
		zap.Bool("strict", strict),
		zap.Bool("discarded_previous", discarded))

	return snap, discarded, nil
}

// Resolve terminates the pending session with exactly one terminal
// action. Strict sessions ignore proceed and always count as blocked.
// Fields are cleared and state returns to Idle as the final step, so a
// partial resolution is never observable.
func (s *Session) Resolve(proceed bool) (domain.Outcome, error) {
	if !s.active {
		return domain.Outcome{}, domain.ErrNoPendingSession
	}

	now := s.clock.Now()
	opened := proceed && !s.strict
	outcome := domain.Outcome{Opened: opened}

	if _, err := s.stats.RecordAttempt(opened); err != nil {
		// Losing a stat is the accepted worst case; the flow continues.
		s.logger.Warn("failed to record attempt", zap.Error(err))
	}

	if opened {
		if err := s.skips.MarkAllowed(s.appName, now); err != nil {
			s.logger.Warn("failed to mark skip window", zap.Error(err))
		}
		if s.uri != "" {
			outcome.LaunchURI = s.uri
			if err := s.launcher.Launch(s.uri); err != nil {
				s.logger.Warn("launch failed", zap.String("uri", s.uri), zap.Error(err))
			}
		} else {
			// Unknown app: proceed degrades to a no-launch outcome.
			s.logger.Info("no launch URI, returning to home surface",
				zap.String("app", s.appName))
			s.showHome()
		}
	} else {
		s.showHome()
	}

	s.logger.Info("session resolved",
		zap.String("app", s.appName),
		zap.Bool("proceed", proceed),
		zap.Bool("opened", opened),
		zap.Bool("strict", s.strict))

	s.reset()
	return outcome, nil
}

func (s *Session) showHome() {
	if err := s.home.Show(); err != nil {
		s.logger.Warn("failed to show home surface", zap.Error(err))
	}
}

func (s *Session) snapshot() domain.SessionSnapshot {
	return domain.SessionSnapshot{
		AppName:   s.appName,
		Duration:  s.duration,
		Strict:    s.strict,
		LaunchURI: s.uri,
	}
}

// reset clears all fields; flipping active off is the last step.
func (s *Session) reset() {
	s.appName = ""
	s.duration = 0
	s.strict = false
	s.uri = ""
	s.active = false
}
