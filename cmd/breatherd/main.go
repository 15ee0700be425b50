// Package main is the CLI entry point for breatherd.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/breatherd/internal/catalog"
	"github.com/eliteGoblin/breatherd/internal/config"
	"github.com/eliteGoblin/breatherd/internal/domain"
	"github.com/eliteGoblin/breatherd/internal/infra"
	"github.com/eliteGoblin/breatherd/internal/rules"
	"github.com/eliteGoblin/breatherd/internal/session"
	"github.com/eliteGoblin/breatherd/internal/skipcache"
	"github.com/eliteGoblin/breatherd/internal/stats"
	"github.com/eliteGoblin/breatherd/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "breatherd",
	Short: "Habit interruption engine - decides whether app launches go through",
	Long: `breatherd decides what happens when you try to open a distracting app:
silently allow it, force a breathing pause first, or deny it outright
during a blocked time window.

Rules, daily stats, and skip markers are stored locally; nothing leaves
the machine.`,
	Version: Version,
}

var attemptCmd = &cobra.Command{
	Use:   "attempt <app>",
	Short: "Report an attempted app launch and run the decision flow",
	Long: `Evaluates an attempted launch of the named app. Depending on the
blocking rules and the skip window this either auto-approves the
launch, runs a normal breathing intervention, or shows an
undismissable block.

Without --resolve the command asks on stdin whether to proceed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttempt,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage time-window blocking rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blocking rules",
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <app>",
	Short: "Add a blocking rule",
	Long: `Adds a time-window blocking rule for an app.

Either give an explicit window:
  breatherd rules add Instagram --start 22:00 --end 07:00
or use a preset (work, night, morning, lunch, allday):
  breatherd rules add Instagram --preset night`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesAdd,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "rm <rule-id>",
	Short: "Remove a blocking rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRemove,
}

var rulesToggleCmd = &cobra.Command{
	Use:   "toggle <rule-id>",
	Short: "Enable or disable a blocking rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesToggle,
}

var strictCmd = &cobra.Command{
	Use:   "strict [on|off|status]",
	Short: "Control global strict mode",
	Long: `Strict mode is the master switch for blocking rules. While it is off,
rules exist but are never consulted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrict,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's attempt and block counters",
	RunE:  runStats,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	attemptDuration time.Duration
	attemptStrict   bool
	attemptResolve  string
	ruleStart       string
	ruleEnd         string
	rulePreset      string
	jsonOutput      bool
)

func init() {
	attemptCmd.Flags().DurationVar(&attemptDuration, "duration", 0, "Override the intervention duration")
	attemptCmd.Flags().BoolVar(&attemptStrict, "strict", false, "Force an undismissable block")
	attemptCmd.Flags().StringVar(&attemptResolve, "resolve", "", "Resolve without prompting (proceed|abstain)")

	rulesAddCmd.Flags().StringVar(&ruleStart, "start", "", "Window start as HH:MM")
	rulesAddCmd.Flags().StringVar(&ruleEnd, "end", "", "Window end as HH:MM")
	rulesAddCmd.Flags().StringVar(&rulePreset, "preset", "", "Preset window (work|night|morning|lunch|allday)")

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesCmd.AddCommand(rulesToggleCmd)

	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(strictCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the process-wide singletons: constructed once per
// invocation, torn down via Close.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	settings  domain.SettingsStore
	catalog   *catalog.Catalog
	ruleStore *rules.Store
	evaluator *rules.Evaluator
	tracker   *stats.Tracker
	engine    *usecase.Engine
}

func (a *app) Close() {
	_ = a.settings.Close()
	_ = a.logger.Sync()
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := createLogger(cfg)

	settings, err := openSettings(cfg)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		settings.Close()
		return nil, err
	}

	clock := infra.NewSystemClock()
	cat := catalog.New()
	ruleStore := rules.NewStore(settings, logger)
	evaluator := rules.NewEvaluator(ruleStore, loc)
	tracker := stats.NewTracker(settings, clock, loc, cfg.ResetHour, logger)
	skips := skipcache.New(settings, cfg.SkipWindow, logger)
	launcher := infra.NewSystemLauncher(logger)
	home := infra.NewLoggingHomeSurface(logger)
	sess := session.New(cat, tracker, skips, launcher, home, clock, logger)
	engine := usecase.NewEngine(evaluator, skips, cat, sess, clock, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		settings:  settings,
		catalog:   cat,
		ruleStore: ruleStore,
		evaluator: evaluator,
		tracker:   tracker,
		engine:    engine,
	}, nil
}

func openSettings(cfg *config.Config) (domain.SettingsStore, error) {
	if cfg.Backend == config.BackendEncrypted {
		key, err := infra.EnsureKey(infra.NewFileKeyProvider(cfg.DataDir))
		if err != nil {
			return nil, fmt.Errorf("failed to prepare encryption key: %w", err)
		}
		return infra.NewEncryptedSettings(cfg.DataDir, key)
	}
	return infra.NewFileSettings(cfg.DataDir)
}

func createLogger(cfg *config.Config) *zap.Logger {
	if cfg.LogPath != "" {
		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{cfg.LogPath}
		zcfg.ErrorOutputPaths = []string{cfg.LogPath}
		zcfg.EncoderConfig.TimeKey = "time"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if logger, err := zcfg.Build(); err == nil {
			return logger
		}
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runAttempt(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	req := domain.LaunchRequest{
		AppName:     args[0],
		ForceStrict: attemptStrict,
	}
	if cmd.Flags().Changed("duration") {
		req.DurationOverride = &attemptDuration
	}

	decision, err := a.engine.Decide(req)
	if err != nil {
		return err
	}

	if decision.AutoApprove {
		fmt.Printf("Auto-approved: you chose %s moments ago.\n", req.AppName)
		if decision.LaunchURI != "" {
			fmt.Printf("Launching %s\n", decision.LaunchURI)
			launcher := infra.NewSystemLauncher(a.logger)
			if err := launcher.Launch(decision.LaunchURI); err != nil {
				a.logger.Warn("launch failed", zap.Error(err))
			}
		}
		return nil
	}

	if decision.Discarded {
		fmt.Println("(a pending intervention was discarded)")
	}

	snap := decision.Session
	if snap.Strict {
		fmt.Printf("%s is blocked right now. Breathe.\n", snap.AppName)
	} else {
		fmt.Printf("Pause before opening %s: breathe for %s.\n", snap.AppName, snap.Duration)
	}

	proceed, err := resolveChoice(snap)
	if err != nil {
		return err
	}

	outcome, err := a.engine.Resolve(proceed)
	if err != nil {
		return err
	}

	switch {
	case outcome.Opened && outcome.LaunchURI != "":
		fmt.Printf("Opening %s (%s)\n", snap.AppName, outcome.LaunchURI)
	case outcome.Opened:
		fmt.Printf("No launch URI known for %s; staying here.\n", snap.AppName)
	default:
		fmt.Println("Good choice. Back to the home screen.")
	}
	return nil
}

// resolveChoice picks the terminal action from --resolve or stdin.
func resolveChoice(snap domain.SessionSnapshot) (bool, error) {
	switch attemptResolve {
	case "proceed":
		return true, nil
	case "abstain":
		return false, nil
	case "":
	default:
		return false, fmt.Errorf("invalid --resolve value %q (want proceed or abstain)", attemptResolve)
	}

	if snap.Strict {
		// Nothing to ask; the only way out is the home surface.
		fmt.Println("Press enter to go back.")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		return false, nil
	}

	fmt.Printf("Open %s anyway? [y/N] ", snap.AppName)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ruleSet := a.ruleStore.Load()
	now := time.Now()

	fmt.Println("\n=== Blocking Rules ===")
	if !ruleSet.Strict {
		fmt.Println("Strict mode: OFF (rules are inert)")
	} else {
		fmt.Println("Strict mode: ON")
	}

	if len(ruleSet.Rules) == 0 {
		fmt.Println("\nNo rules defined.")
		return nil
	}

	for _, r := range ruleSet.Rules {
		state := "disabled"
		if r.Enabled {
			state = "enabled"
			if a.evaluator.ActiveRule(r.AppName, now) != nil {
				state = "ACTIVE NOW"
			}
		}
		fmt.Printf("  %s  %-12s %s  [%s]\n", r.ID, r.AppName, r.TimeRange(), state)
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	appName := args[0]
	var rule domain.BlockingRule

	if rulePreset != "" {
		rule, err = rules.NewPresetRule(rulePreset, appName)
		if err != nil {
			return err
		}
	} else {
		if ruleStart == "" || ruleEnd == "" {
			return fmt.Errorf("either --preset or both --start and --end are required")
		}
		startH, startM, err := parseClock(ruleStart)
		if err != nil {
			return err
		}
		endH, endM, err := parseClock(ruleEnd)
		if err != nil {
			return err
		}
		rule = domain.BlockingRule{
			AppName:     appName,
			StartHour:   startH,
			StartMinute: startM,
			EndHour:     endH,
			EndMinute:   endM,
			Enabled:     true,
		}
	}

	added, err := a.ruleStore.Add(rule)
	if err != nil {
		return err
	}
	fmt.Printf("Added rule %s: %s %s\n", added.ID, added.AppName, added.TimeRange())
	if !a.ruleStore.StrictEnabled() {
		fmt.Println("Note: strict mode is off; run 'breatherd strict on' to arm rules.")
	}
	return nil
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ruleStore.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed rule %s\n", args[0])
	return nil
}

func runRulesToggle(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rule, err := a.ruleStore.Toggle(args[0])
	if err != nil {
		return err
	}
	state := "disabled"
	if rule.Enabled {
		state = "enabled"
	}
	fmt.Printf("Rule %s is now %s\n", rule.ID, state)
	return nil
}

func runStrict(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	action := "status"
	if len(args) == 1 {
		action = args[0]
	}

	switch action {
	case "on":
		if err := a.ruleStore.SetStrict(true); err != nil {
			return err
		}
		fmt.Println("Strict mode enabled.")
	case "off":
		if err := a.ruleStore.SetStrict(false); err != nil {
			return err
		}
		fmt.Println("Strict mode disabled.")
	case "status":
		if a.ruleStore.StrictEnabled() {
			active := a.evaluator.ActiveCount(time.Now())
			fmt.Printf("Strict mode: ON (%d rule(s) active right now)\n", active)
		} else {
			fmt.Println("Strict mode: OFF")
		}
	default:
		return fmt.Errorf("unknown action %q (want on, off, or status)", action)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	today := a.tracker.Today()
	fmt.Println("\n=== Today ===")
	fmt.Printf("Launch attempts: %d\n", today.Attempts)
	fmt.Printf("Blocked:         %d\n", today.Blocked)
	if !today.LastReset.IsZero() {
		fmt.Printf("Counting since:  %s\n", today.LastReset.Format("Mon 15:04"))
	}
	return nil
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Println(string(out))
		return
	}
	fmt.Printf("breatherd %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}
