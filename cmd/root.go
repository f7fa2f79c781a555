package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
	"github.com/Tomjg14/research-newsfeed/internal/config"
	"github.com/Tomjg14/research-newsfeed/internal/delivery"
	"github.com/Tomjg14/research-newsfeed/internal/filter"
	"github.com/Tomjg14/research-newsfeed/internal/logger"
	"github.com/Tomjg14/research-newsfeed/internal/source"
	"github.com/Tomjg14/research-newsfeed/internal/store"
	"github.com/Tomjg14/research-newsfeed/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Overridden in tests.
var (
	newRegistry = func(cfg *config.Config, log *zap.Logger) *source.Registry {
		return source.DefaultRegistry(source.DepsFromConfig(cfg, log))
	}
	newMailer      = delivery.FromEnv
	openStore      = store.Open
	releaseChecker = update.Checker{}
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	envFile    string

	log *zap.Logger
	cfg *config.Config
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return fmt.Errorf("loading %s: %w", a.envFile, err)
	}
	level := a.logLevel
	if !cmd.Flags().Changed("log-level") {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			level = env
		}
	}
	log, err := logger.New(level)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	a.log = log.With(zap.String("run_id", uuid.NewString()))
	return nil
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) logger() *zap.Logger {
	if a.log == nil {
		return zap.NewNop()
	}
	return a.log
}

// aggregate runs one fetch across sources (config keys; nil means every
// enabled source).
func (a *app) aggregate(ctx context.Context, log *zap.Logger, sources []string, f filter.Filters) aggregate.BucketMap {
	return aggregate.Run(ctx, newRegistry(a.cfg, log), a.cfg, aggregate.Options{
		Filters:  f,
		Sources:  sources,
		Parallel: a.cfg.Parallel,
		Logger:   log,
	})
}

// exitError carries a process exit status other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "newsfeed",
		Short:             "Research feed aggregator",
		Long:              "newsfeed collects recent papers and posts from arXiv, OpenReview, ACL Anthology, Reddit, Hacker News and Hackernoon into one digest.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd, "")
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (default $XDG_CONFIG_HOME/newsfeed/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with secrets; missing files are ignored")

	root.AddCommand(
		fetchCmd(a),
		digestCmd(a),
		sendCmd(a),
		usersCmd(a),
		dashboardCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "newsfeed %s (commit: %s, built: %s)\n", version, commit, date)
			if !check {
				return nil
			}
			res, err := releaseChecker.Check(cmd.Context(), version)
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Fprintln(out, "Up to date.")
				return nil
			}
			fmt.Fprintf(out, "Newer release available: %s %s\n", res.LatestVersion, res.URL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", ee.err)
		}
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
