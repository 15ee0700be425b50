//go:build integration

package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/breatherd/internal/catalog"
	"github.com/eliteGoblin/breatherd/internal/domain"
	"github.com/eliteGoblin/breatherd/internal/infra"
	"github.com/eliteGoblin/breatherd/internal/rules"
	"github.com/eliteGoblin/breatherd/internal/session"
	"github.com/eliteGoblin/breatherd/internal/skipcache"
	"github.com/eliteGoblin/breatherd/internal/stats"
	"github.com/eliteGoblin/breatherd/internal/usecase"
)

// fakeClock lets specs steer wall-clock time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type recordingLauncher struct {
	launched []string
}

func (l *recordingLauncher) Launch(uri string) error {
	l.launched = append(l.launched, uri)
	return nil
}

type recordingHome struct {
	shows int
}

func (h *recordingHome) Show() error {
	h.shows++
	return nil
}

var _ = Describe("Decision Flow", func() {
	var (
		settings  *infra.FileSettings
		ruleStore *rules.Store
		tracker   *stats.Tracker
		skips     *skipcache.Cache
		launcher  *recordingLauncher
		home      *recordingHome
		clock     *fakeClock
		engine    *usecase.Engine
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		var err error
		settings, err = infra.NewFileSettings(dir)
		Expect(err).NotTo(HaveOccurred())

		clock = &fakeClock{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
		logger := zap.NewNop()
		cat := catalog.New()
		ruleStore = rules.NewStore(settings, logger)
		evaluator := rules.NewEvaluator(ruleStore, time.UTC)
		tracker = stats.NewTracker(settings, clock, time.UTC, stats.DefaultResetHour, logger)
		skips = skipcache.New(settings, skipcache.DefaultWindow, logger)
		launcher = &recordingLauncher{}
		home = &recordingHome{}
		sess := session.New(cat, tracker, skips, launcher, home, clock, logger)
		engine = usecase.NewEngine(evaluator, skips, cat, sess, clock, logger)
	})

	Describe("a normal launch attempt", func() {
		It("requires an intervention and opens the app on proceed", func() {
			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.InterventionRequired).To(BeTrue())
			Expect(decision.Session.Strict).To(BeFalse())

			outcome, err := engine.Resolve(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Opened).To(BeTrue())
			Expect(outcome.LaunchURI).To(Equal("instagram://"))
			Expect(launcher.launched).To(ConsistOf("instagram://"))

			today := tracker.Today()
			Expect(today.Attempts).To(Equal(1))
			Expect(today.Blocked).To(BeZero())
		})

		It("auto-approves a second attempt inside the skip window", func() {
			_, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Resolve(true)
			Expect(err).NotTo(HaveOccurred())

			clock.now = clock.now.Add(3 * time.Second)
			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.AutoApprove).To(BeTrue())
			Expect(decision.LaunchURI).To(Equal("instagram://"))
		})

		It("intervenes again once the skip window has lapsed", func() {
			_, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Resolve(true)
			Expect(err).NotTo(HaveOccurred())

			clock.now = clock.now.Add(6 * time.Second)
			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.InterventionRequired).To(BeTrue())
		})
	})

	Describe("a launch attempt during a blocked window", func() {
		BeforeEach(func() {
			Expect(ruleStore.SetStrict(true)).To(Succeed())
			_, err := ruleStore.Add(domain.BlockingRule{
				AppName:   "Instagram",
				StartHour: 22,
				EndHour:   7,
				Enabled:   true,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("stays unblocked outside the window", func() {
			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.Session.Strict).To(BeFalse())
		})

		It("forces a strict session inside the window, even across midnight", func() {
			clock.now = time.Date(2025, 6, 10, 23, 30, 0, 0, time.UTC)
			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.Session.Strict).To(BeTrue())
			Expect(decision.Session.Duration).To(BeZero())

			outcome, err := engine.Resolve(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Opened).To(BeFalse())
			Expect(outcome.LaunchURI).To(BeEmpty())
			Expect(launcher.launched).To(BeEmpty())
			Expect(home.shows).To(Equal(1))

			today := tracker.Today()
			Expect(today.Attempts).To(Equal(1))
			Expect(today.Blocked).To(Equal(1))
		})

		It("ignores the skip window under an active rule", func() {
			clock.now = time.Date(2025, 6, 11, 6, 59, 0, 0, time.UTC)
			Expect(skips.MarkAllowed("Instagram", clock.now)).To(Succeed())

			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.AutoApprove).To(BeFalse())
			Expect(decision.Session.Strict).To(BeTrue())
		})

		It("goes inert when strict mode is switched off", func() {
			clock.now = time.Date(2025, 6, 10, 23, 30, 0, 0, time.UTC)
			Expect(ruleStore.SetStrict(false)).To(Succeed())

			decision, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(decision.Session.Strict).To(BeFalse())
		})
	})

	Describe("state across process restarts", func() {
		It("keeps rules, stats, and skip markers in the settings file", func() {
			Expect(ruleStore.SetStrict(true)).To(Succeed())
			_, err := ruleStore.Add(domain.BlockingRule{
				AppName: "TikTok", StartHour: 9, EndHour: 17, Enabled: true,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.Decide(domain.LaunchRequest{AppName: "Reddit"})
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Resolve(false)
			Expect(err).NotTo(HaveOccurred())

			// A second stack over the same settings file sees it all.
			logger := zap.NewNop()
			ruleStore2 := rules.NewStore(settings, logger)
			Expect(ruleStore2.StrictEnabled()).To(BeTrue())
			Expect(ruleStore2.List()).To(HaveLen(1))

			tracker2 := stats.NewTracker(settings, clock, time.UTC, stats.DefaultResetHour, logger)
			today := tracker2.Today()
			Expect(today.Attempts).To(Equal(1))
			Expect(today.Blocked).To(Equal(1))
		})
	})

	Describe("session replacement", func() {
		It("discards the pending session when a new attempt arrives", func() {
			first, err := engine.Decide(domain.LaunchRequest{AppName: "Instagram"})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Discarded).To(BeFalse())

			second, err := engine.Decide(domain.LaunchRequest{AppName: "TikTok"})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Discarded).To(BeTrue())

			outcome, err := engine.Resolve(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.LaunchURI).To(Equal("tiktok://"))
			Expect(launcher.launched).To(ConsistOf("tiktok://"))
		})
	})
})
