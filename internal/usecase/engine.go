// Package usecase contains application business logic.
package usecase

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/catalog"
	"github.com/eliteGoblin/breatherd/internal/domain"
	"github.com/eliteGoblin/breatherd/internal/rules"
	"github.com/eliteGoblin/breatherd/internal/session"
	"github.com/eliteGoblin/breatherd/internal/skipcache"
)

// Engine decides what happens when an external trigger reports an
// attempted app launch: silent allow, intervention, or forced block.
type Engine struct {
	evaluator *rules.Evaluator
	skips     *skipcache.Cache
	catalog   *catalog.Catalog
	session   *session.Session
	clock     domain.Clock
	logger    *zap.Logger
}

// NewEngine creates the decision engine.
func NewEngine(
	evaluator *rules.Evaluator,
	skips *skipcache.Cache,
	cat *catalog.Catalog,
	sess *session.Session,
	clock domain.Clock,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		evaluator: evaluator,
		skips:     skips,
		catalog:   cat,
		session:   sess,
		clock:     clock,
		logger:    logger,
	}
}

// Decide evaluates one launch attempt.
//
// An active blocking rule (or an explicit force) opens an undismissable
// strict session; the skip window has no effect there. Otherwise a
// recent explicit allow auto-approves without any session. Everything
// else opens a normal session carrying the override or catalog duration.
func (e *Engine) Decide(req domain.LaunchRequest) (domain.Decision, error) {
	if req.AppName == "" {
		return domain.Decision{}, domain.ErrEmptyAppName
	}

	now := e.clock.Now()

	if req.ForceStrict || e.evaluator.IsBlocked(req.AppName, now) {
		snap, discarded, err := e.session.Open(req.AppName, req.DurationOverride, true)
		if err != nil {
			return domain.Decision{}, err
		}
		e.logger.Info("launch blocked by rule",
			zap.String("app", req.AppName),
			zap.Bool("forced", req.ForceStrict))
		return domain.Decision{
			InterventionRequired: true,
			Session:              snap,
			Discarded:            discarded,
		}, nil
	}

	if e.skips.ShouldAutoAllow(req.AppName, now) {
		uri, _ := e.catalog.URIFor(req.AppName)
		e.logger.Info("auto-approved within skip window",
			zap.String("app", req.AppName))
		return domain.Decision{AutoApprove: true, LaunchURI: uri}, nil
	}

	snap, discarded, err := e.session.Open(req.AppName, req.DurationOverride, false)
	if err != nil {
		return domain.Decision{}, err
	}
	return domain.Decision{
		InterventionRequired: true,
		Session:              snap,
		Discarded:            discarded,
	}, nil
}

// Resolve terminates the pending session with the user's choice.
func (e *Engine) Resolve(proceed bool) (domain.Outcome, error) {
	return e.session.Resolve(proceed)
}
