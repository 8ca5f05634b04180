// Package cli is the quotadesk command tree. With no subcommand it starts
// the terminal UI.
package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sadopc/quotadesk/internal/config"
	"github.com/sadopc/quotadesk/internal/logging"
	"github.com/sadopc/quotadesk/internal/service"
	"github.com/sadopc/quotadesk/internal/store"
	"github.com/sadopc/quotadesk/internal/tui"
)

// env is the state shared by every command of one invocation.
type env struct {
	// Global flags
	configPath string
	dbPath     string
	verbose    bool

	now func() time.Time

	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	svc    *service.Service
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(time.Now)
}

func newRootCommand(now func() time.Time) *cobra.Command {
	e := &env{now: now}

	root := &cobra.Command{
		Use:   "quotadesk",
		Short: "Sales planning and diagnostics from your daily activity log",
		Long: `quotadesk turns a daily log of calls, appointments and closed contracts
into monthly funnel requirements, daily quotas, intraday pacing and a
diagnosis of the weakest funnel stage.

Run without arguments to start the interactive interface.`,
		SilenceUsage:      true,
		PersistentPreRunE: e.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(tui.NewApp(e.svc, e.store), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/quotadesk/config.yaml)")
	root.PersistentFlags().StringVar(&e.dbPath, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newTodayCommand(e),
		newPlanCommand(e),
		newDiagnoseCommand(e),
		newExportCommand(e),
		newSyncCommand(e),
	)
	return root
}

// setup loads the configuration and opens the logger, store and service.
func (e *env) setup(cmd *cobra.Command, args []string) error {
	path := e.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if e.dbPath != "" {
		cfg.DatabasePath = e.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	e.cfg = cfg

	logFile := cfg.Logging.File
	if logFile == "" {
		if logFile, err = logging.DefaultFile(); err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
	}
	e.logger, err = logging.New(logging.Options{
		Enabled: cfg.Logging.Enabled,
		Level:   cfg.Logging.Level,
		File:    logFile,
		Verbose: e.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
	}
	e.store, err = store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	e.svc = service.New(e.store, service.Options{
		Location: loc,
		Workday:  cfg.WorkdayWindow(),
		Role:     cfg.UserRole(),
		TeamSize: cfg.TeamSize,
		Logger:   e.logger,
		Now:      e.now,
	})
	e.logger.Debug("started",
		zap.String("command", cmd.CommandPath()),
		zap.String("config", path),
		zap.String("database", dbPath),
		zap.String("timezone", loc.String()),
	)
	return nil
}

func (e *env) teardown() {
	if e.store != nil {
		e.store.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}
