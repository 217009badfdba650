// Package cli provides the command-line interface for cargo-apfs-compress
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/internal/engine"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/cargo"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/compress"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/config"
	pcontext "github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/context"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/notifier"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/process"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/report"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/workdir"
)

// SubcommandName is the argument cargo passes first when run as `cargo apfs-compress`
const SubcommandName = "apfs-compress"

// ErrRunFailed is returned when at least one directory failed
var ErrRunFailed = errors.New("one or more directories failed")

// CLI encapsulates the command-line interface and makes it testable
// by eliminating global state.
type CLI struct {
	config   *Config
	rootCmd  *cobra.Command
	viper    *viper.Viper
	output   io.Writer
	errorOut io.Writer

	profiles []string
	targets  []string
	verbose  bool
	quiet    bool

	metadataRunner cargo.MetadataRunner
	compressor     compress.Compressor
	notify         notifier.SendFunc
	getenv         func(string) string

	result *types.AggregateResult
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(cfg *Config, opts ...Option) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}

	c := &CLI{
		config:   cfg,
		viper:    config.New(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.setupCommand()
	return c
}

// NewCLIWithOutput creates a CLI with custom output writers (for testing)
func NewCLIWithOutput(cfg *Config, output, errorOut io.Writer, opts ...Option) *CLI {
	c := NewCLI(cfg, opts...)
	c.output = output
	c.errorOut = errorOut
	c.rootCmd.SetOut(output)
	c.rootCmd.SetErr(errorOut)
	return c
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(StripSubcommand(args))
	return c.rootCmd.ExecuteContext(ctx)
}

// Result returns the aggregate of the last run, or nil if no run happened
func (c *CLI) Result() *types.AggregateResult {
	return c.result
}

// StripSubcommand drops the leading "apfs-compress" cargo adds when the
// binary is invoked as a cargo subcommand
func StripSubcommand(args []string) []string {
	if len(args) > 0 && args[0] == SubcommandName {
		return args[1:]
	}
	return args
}

func (c *CLI) setupCommand() {
	c.rootCmd = &cobra.Command{
		Use:   "cargo-apfs-compress",
		Short: "Transparently compress cargo build directories on APFS",
		Long: `cargo-apfs-compress compresses the contents of cargo target directories with
APFS transparent compression.

Every build directory is locked with cargo's own .cargo-lock before it is
touched, so a concurrent cargo build waits for compression (and vice versa).
Without --profile, every profile directory under the target directory is
processed.`,
		Example: `  cargo apfs-compress
  cargo apfs-compress --profile release
  cargo apfs-compress --profile dev --target aarch64-apple-darwin --compression zlib`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.run,
	}

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("cargo-apfs-compress {{.Version}}\n")

	c.setupFlags()
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.Flags()

	flags.StringArrayVar(&c.profiles, "profile", nil, "profile to compress (repeatable)")
	flags.StringArrayVar(&c.targets, "target", nil, "target triple to compress (repeatable)")
	flags.String("compression", string(types.DefaultCompression), "compression kind (lzfse, zlib, lzvn)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "print more progress output")
	flags.BoolVarP(&c.quiet, "quiet", "q", false, "print only warnings and errors")
	flags.Duration("lock-timeout", 0, "give up waiting for a build directory lock after this long (0 waits forever)")
	flags.IntP("jobs", "j", 0, "maximum directories processed at once (0 means all)")
	flags.String("report", "", "write a run report to this file (.json or .yaml)")
	flags.String("log-file", "", "also write progress output to this file")
	flags.Bool("notify", false, "send a desktop notification when done")
	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: ./cargo-apfs-compress.yaml)")

	c.rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	bindings := map[string]string{
		"compression":           "compression",
		"lock_timeout":          "lock-timeout",
		"jobs":                  "jobs",
		"report":                "report",
		"log_file":              "log-file",
		"notifications.enabled": "notify",
	}
	for key, flag := range bindings {
		_ = c.viper.BindPFlag(key, flags.Lookup(flag))
	}

	_ = c.viper.BindEnv("cargo", "CARGO")
	_ = c.viper.BindEnv("cargo_home", "CARGO_HOME")
}

// loadConfig merges the config file, environment and flags
func (c *CLI) loadConfig() (*config.Config, error) {
	if _, err := config.ReadFile(c.viper, c.config.ConfigFile, c.config.WorkingDir); err != nil {
		return nil, err
	}

	switch {
	case c.verbose:
		c.viper.Set("verbosity", string(types.VerbosityVerbose))
	case c.quiet:
		c.viper.Set("verbosity", string(types.VerbosityQuiet))
	}

	return config.Load(c.viper)
}

// newLogger builds the run logger. The closer is non-nil when a log file
// was opened.
func (c *CLI) newLogger(cfg *config.Config) (logger.Logger, io.Closer, error) {
	level := cfg.Level().LogLevel()
	if cfg.LogFile != "" {
		return logger.CreateLoggerWithFile(cfg.LogFile, level, c.errorOut)
	}
	if c.errorOut == os.Stderr {
		return logger.CreateLogger("", level), nil, nil
	}
	return logger.CreateLoggerWithOutput("", level, c.errorOut), nil, nil
}

func (c *CLI) lookupEnv(key string) string {
	if c.getenv != nil {
		return c.getenv(key)
	}
	return c.viper.GetString(strings.ToLower(key))
}

func (c *CLI) run(cmd *cobra.Command, args []string) error {
	ctx := pcontext.EnrichContext(cmd.Context())
	started := pcontext.GetStartTime(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runLog, logFile, err := c.newLogger(cfg)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	log := logger.WithContext(ctx, runLog)

	signals := process.NewManager(log)
	ctx = signals.Start(ctx)
	defer signals.Stop()

	workingDir, err := filepath.Abs(c.config.WorkingDir)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	runner := c.metadataRunner
	if runner == nil {
		runner = cargo.NewExecMetadataRunner(cargo.ResolveExecutable(c.lookupEnv), workingDir)
	}
	meta, err := cargo.NewResolver(runner, cargo.Options{
		WorkingDir:    workingDir,
		CargoHome:     cargo.DefaultCargoHome(c.lookupEnv),
		LoadOverrides: len(c.profiles) > 0,
	}, log).Resolve(ctx)
	if err != nil {
		return err
	}

	selection := types.ProfileSelection{Profiles: c.profiles, Targets: c.targets}
	dirs, err := workdir.Resolve(meta, selection)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		log.Info("No build directories found", logger.WithField("target_directory", meta.TargetDirectory))
	}
	log.Debug("Resolved build directories", logger.WithField("count", len(dirs)))
	signals.RegisterShutdownHandler(func() {
		log.Warn("Waiting for directories already locked to finish", logger.WithField("dirs", len(dirs)))
	})

	factory := engine.NewDependencyFactory(cfg, log)
	deps := factory.CreateWithOverrides(engine.Dependencies{Compressor: c.compressor})
	result := engine.New(deps, factory.Options(), log).Run(ctx, dirs)
	c.result = &result

	if cfg.Report != "" {
		rep := report.New(pcontext.GetRunID(ctx), started, meta, cfg.Kind(), selection, result)
		if err := report.Write(cfg.Report, rep); err != nil {
			log.Error("Failed to write report", logger.WithField("error", err))
		} else {
			log.Debug("Wrote report", logger.WithField("path", cfg.Report))
		}
	}

	notifyCfg := notifier.Config{Enabled: cfg.Notifications.Enabled, Sound: cfg.Notifications.Sound}
	n := notifier.New(notifyCfg, log)
	if c.notify != nil {
		n = notifier.NewWithSender(notifyCfg, c.notify, log)
	}
	n.NotifyRunComplete(result, time.Since(started))

	if cfg.Level() != types.VerbosityQuiet {
		console := logger.NewConsoleLoggerWithOutput(c.output, c.errorOut)
		if result.Success() {
			console.Success(result.Summary())
		} else {
			console.Error(result.Summary())
		}
	}

	if !result.Success() {
		return ErrRunFailed
	}
	return nil
}

// ExecuteWithVersion runs the CLI against the process arguments
func ExecuteWithVersion(version string) error {
	cfg := NewConfig()
	cfg.Version = version
	return NewCLI(cfg).Execute(os.Args[1:])
}
