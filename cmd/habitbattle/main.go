// Package main provides the CLI entrypoint for habitbattle.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/habitbattle/internal/alert"
	"github.com/verte-zerg/habitbattle/internal/backup"
	"github.com/verte-zerg/habitbattle/internal/config"
	"github.com/verte-zerg/habitbattle/internal/engine"
	"github.com/verte-zerg/habitbattle/internal/logging"
	"github.com/verte-zerg/habitbattle/internal/model"
	"github.com/verte-zerg/habitbattle/internal/schedule"
	"github.com/verte-zerg/habitbattle/internal/stats"
	"github.com/verte-zerg/habitbattle/internal/statsui"
	"github.com/verte-zerg/habitbattle/internal/store"
	"github.com/verte-zerg/habitbattle/internal/tui"
)

const (
	defaultLogLevel    = "info"
	defaultStatsDays   = 14
	defaultCurveWindow = 3
	defaultCurveHeight = 8
	maxStatsDays       = 90
)

var (
	rootSeed     int64
	rootDB       string
	rootLogLevel string

	statsCategory    string
	statsSince       string
	statsLast        int
	statsDays        int
	statsCurveWindow int
	statsPlain       bool

	backupFormat string
	importYes    bool
	resetYes     bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "habitbattle",
		Short:         "Turn small tasks into a game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGameCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDB, "db", "", "database path (default: XDG data dir)")
	rootCmd.Flags().Int64Var(&rootSeed, "seed", 0, "random seed for task picks and bonuses (0 = time based)")
	rootCmd.Flags().StringVar(&rootLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

// setup is the resolved configuration shared by the commands.
type setup struct {
	rules      model.Rules
	categories []model.TaskCategory
	windows    []model.TimeWindow
	warnings   []string
	dbPath     string
	logPath    string
	logLevel   string
}

func loadSetup(cmd *cobra.Command) (setup, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return setup{}, fmt.Errorf("failed to load config: %w", err)
	}
	rules := fileCfg.ApplyRules(model.DefaultRules())
	if cmd.Flags().Lookup("seed") != nil {
		applyInt64Config(cmd, "seed", &rootSeed, fileCfg.Engine.Seed)
		rules.Seed = rootSeed
	}
	if err := config.ValidateRules(rules); err != nil {
		return setup{}, fmt.Errorf("invalid config: %w", err)
	}

	s := setup{
		rules:    rules,
		dbPath:   config.DefaultDBPath(),
		logPath:  config.DefaultLogPath(),
		logLevel: defaultLogLevel,
	}
	if rootDB != "" {
		s.dbPath = rootDB
	}
	if fileCfg.Log.Path != nil && *fileCfg.Log.Path != "" {
		s.logPath = *fileCfg.Log.Path
	}
	if cmd.Flags().Lookup("log-level") != nil {
		applyStringConfig(cmd, "log-level", &rootLogLevel, fileCfg.Log.Level)
		s.logLevel = rootLogLevel
	} else if fileCfg.Log.Level != nil {
		s.logLevel = *fileCfg.Log.Level
	}
	s.categories, s.windows, s.warnings = fileCfg.Catalog(config.DefaultTitlesDir())
	return s, nil
}

func runGameCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSetup(cmd)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(logging.Options{Path: cfg.logPath, Level: cfg.logLevel})
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		_ = logger.Sync()
		if cerr := logCloser.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()
	for _, w := range cfg.warnings {
		logger.Warn("config entry skipped", zap.String("reason", w))
	}

	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	terminal := alert.NewTerminal(logger)
	defer terminal.Close()

	eng := engine.New(engine.Options{
		Persistence: st,
		Journal:     st,
		Alerter:     terminal,
		Logger:      logger,
		Rules:       cfg.rules,
		Categories:  cfg.categories,
		Windows:     cfg.windows,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		if cerr := eng.Close(); cerr != nil {
			logger.Error("engine close failed", zap.Error(cerr))
		}
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			logger.Error("engine close failed", zap.Error(cerr))
		}
	}()

	ui := tui.NewModel(eng,
		tui.WithAlerts(terminal.Alerts()),
		tui.WithStats(func(snap model.Snapshot) *statsui.Model {
			return statsui.NewModel(st, snap, model.StatsFilter{}, statsui.Embedded())
		}),
		tui.WithLogger(logger),
	)
	defer ui.Close()

	logger.Info("session started", zap.String("db", cfg.dbPath), zap.Int64("seed", cfg.rules.Seed))
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the profile summary",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSetup(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	snap, found, err := loadProfile(ctx, st, cfg, time.Now())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !found {
		if _, err := fmt.Fprintln(out, "No profile yet. Run habitbattle to start playing."); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	outcomes, err := st.ListOutcomes(ctx, model.StatsFilter{})
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}
	if err := writeStatus(out, snap, stats.Summarize(outcomes), time.Now()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeStatus(w io.Writer, snap model.Snapshot, summary stats.Summary, now time.Time) error {
	if err := stats.RenderSummary(w, snap.User, summary); err != nil {
		return err
	}
	window := "none"
	if tw, ok := schedule.Resolve(snap.TimeWindows, now.Hour()); ok {
		window = fmt.Sprintf("%s (%02d:00-%02d:00, x%.1f)", tw.Name, tw.StartHour, tw.EndHour, schedule.Multiplier(&tw))
	}
	bp := snap.BattlePass
	_, err := fmt.Fprintf(w, "Window: %s\nBattle pass: tier %d (%d/%d exp), season ends %s\n",
		window, bp.Tier, bp.TierExp, bp.ExpPerTier, bp.SeasonEndsAt.Local().Format("2006-01-02"))
	return err
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCategory, "category", "", "category id filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N tasks")
	cmd.Flags().IntVar(&statsDays, "days", defaultStatsDays, "days covered by the curves")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window (plain output)")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a report instead of opening the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	filter, err := statsFilter(statsCategory, statsSince, statsLast)
	if err != nil {
		return err
	}
	if statsDays < 1 || statsDays > maxStatsDays {
		return fmt.Errorf("--days must be between 1 and %d", maxStatsDays)
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	cfg, err := loadSetup(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	now := time.Now()
	snap, _, err := loadProfile(ctx, st, cfg, now)
	if err != nil {
		return err
	}

	if statsPlain {
		report, err := stats.BuildReport(ctx, st, filter, statsDays, now)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err := writeReport(cmd.OutOrStdout(), snap, report); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	ui := statsui.NewModel(st, snap, filter, statsui.WithDays(statsDays))
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func writeReport(w io.Writer, snap model.Snapshot, report stats.Report) error {
	if err := stats.RenderSummary(w, snap.User, report.Summary); err != nil {
		return err
	}
	if err := stats.RenderCategoryTable(w, snap.Categories, report.Aggregates); err != nil {
		return err
	}
	if len(report.Weak) > 0 {
		if _, err := fmt.Fprintf(w, "Needs attention: %s\n\n", strings.Join(report.Weak, ", ")); err != nil {
			return err
		}
	}
	return stats.RenderCurves(w, report.Days, statsCurveWindow, stats.TerminalWidth(), defaultCurveHeight, stats.ColorEnabled(w))
}

func statsFilter(category, since string, last int) (model.StatsFilter, error) {
	filter := model.StatsFilter{CategoryID: strings.TrimSpace(category), Last: last}
	if last < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the profile to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&backupFormat, "format", "", "json or yaml (default: from file extension, else json)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	format, err := backup.ParseFormat(backupFormat, path)
	if err != nil {
		return err
	}
	cfg, err := loadSetup(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	snap, found, err := loadProfile(context.Background(), st, cfg, time.Now())
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no profile to export")
	}
	if path == "" {
		return backup.Export(cmd.OutOrStdout(), snap, format)
	}
	return writeBackup(path, snap, format)
}

func writeBackup(path string, snap model.Snapshot, format backup.Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "backup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if err := backup.Export(tmpFile, snap, format); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the profile with a backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&backupFormat, "format", "", "json or yaml (default: from file extension, else json)")
	cmd.Flags().BoolVar(&importYes, "yes", false, "overwrite the current profile")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := backup.ParseFormat(backupFormat, path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close backup: %v\n", cerr)
		}
	}()
	snap, err := backup.Import(f, format)
	if err != nil {
		return fmt.Errorf("invalid backup: %w", err)
	}

	cfg, err := loadSetup(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	existing, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if existing != nil && !importYes {
		return fmt.Errorf("a profile already exists; pass --yes to overwrite it")
	}
	if err := st.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	logErrf("Imported profile from %s (level %d, %d WP)\n", path, snap.User.Level, snap.User.Currency)
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the profile and the task journal",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return fmt.Errorf("reset deletes all progress; pass --yes to confirm")
	}
	cfg, err := loadSetup(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st)
	if err := st.Reset(context.Background()); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	logErrln("Profile and journal deleted.")
	return nil
}

func openStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// loadProfile returns the saved snapshot, or a fresh one built from the
// configured catalog when nothing has been saved yet.
func loadProfile(ctx context.Context, st *store.Store, cfg setup, now time.Time) (model.Snapshot, bool, error) {
	snap, err := st.Load(ctx)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("failed to load profile: %w", err)
	}
	if snap == nil {
		return model.NewSnapshot(cfg.rules, cfg.categories, cfg.windows, now), false, nil
	}
	return *snap, true, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	r := model.DefaultRules()
	return fmt.Sprintf(`# habitbattle configuration
# Uncomment a value to enable it. CLI flags override config values.
# Categories and windows only seed a new profile; later edits happen in the
# settings screen.

[engine]
# seed = 0                    # Random seed (0 = time based)
# poll-seconds = %d           # How often the current window is re-resolved
# bonus-check-seconds = %d    # How often a bonus window may start
# bonus-chance = %.2f         # Chance per check that a bonus starts (0-1)
# bonus-seconds = %d         # Bonus length
# bonus-multiplier = %.1f     # Reward multiplier during a bonus
# accept-delay-ms = %d       # Pause between accepting and executing
# reveal-delay-ms = %d       # Pause before the reward is revealed
# momentum-seconds = %d       # Momentum countdown after "keep going"

[progression]
# initial-currency = %d      # Willpower for a new profile
# daily-decay = %d            # Willpower lost per idle day
# base-exp = %d              # Experience needed for level 2
# level-curve = %.1f          # Growth of the experience requirement per level
# fatigue-high = %d           # Above this only recovery tasks are offered
# fatigue-moderate = %d       # Above this recovery tasks are favored
# postpone-fatigue = %d       # Fatigue added by postponing
# completion-relief = %d       # Fatigue removed by completing

[log]
# level = %q
# path = %q

# [[category]]
# id = "reading"
# name = "Reading"
# multiplier = 1.3
# time-limit = 900
# titles = ["Read ten pages", "Finish the chapter"]
# titles-file = "reading.txt"   # One title per line, relative to %s
# verbs = ["Read"]
# failure-policy = "standard"   # standard or punishing
# feedback = "normal"           # normal or strong
# color = "purple"

# [[window]]
# id = "evening"
# name = "Evening"
# start = 18
# end = 23
# multiplier = 1.2
# allowed = ["reading", "care"]
# notify = "medium"             # low, medium or high
# theme = "dusk"
`,
		int(r.PollInterval/time.Second),
		int(r.BonusCheckInterval/time.Second),
		r.BonusChance,
		int(r.BonusDuration/time.Second),
		r.BonusMultiplier,
		r.AcceptDelay.Milliseconds(),
		r.RevealDelay.Milliseconds(),
		int(r.MomentumWindow/time.Second),
		r.InitialCurrency,
		r.DailyDecay,
		r.BaseExp,
		r.LevelCurve,
		r.FatigueHigh,
		r.FatigueModerate,
		r.PostponeFatigue,
		r.CompletionRelief,
		defaultLogLevel,
		config.DefaultLogPath(),
		config.DefaultTitlesDir(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
