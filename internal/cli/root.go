// Package cli implements quakectl, a command line client that clusters and lists
// earthquakes without running the HTTP API.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quakemap/internal/cluster"
	"github.com/quakemap/internal/config"
	"github.com/quakemap/internal/domain"
	"github.com/quakemap/internal/domain/repository"
	"github.com/quakemap/internal/infrastructure/phivolcs"
	"github.com/quakemap/internal/infrastructure/usgs"
	"github.com/quakemap/internal/usecase"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// RootOptions holds the persistent flags shared by every subcommand.
type RootOptions struct {
	EnvFile  string
	LogLevel string
	Output   string
	Timeout  time.Duration
	File     string
}

type cliContextKey struct{}

// CLIContext is built once by the root command and read by subcommands.
type CLIContext struct {
	Config  *config.Config
	Logger  *zap.Logger
	Output  string
	Timeout time.Duration
	File    string
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds quakectl with every subcommand registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	rootCmd := &cobra.Command{
		Use:           "quakectl",
		Short:         "Cluster and list recent earthquakes",
		Long:          "quakectl fetches USGS and PHIVOLCS feeds, or reads a saved GeoJSON file, and prints clustered map markers, event lists and statistics.",
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.EnvFile, "env-file", ".env", "env file with service configuration")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	pf.StringVarP(&opts.Output, "output", "o", OutputText, "output format (text|json)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall timeout for upstream requests")
	pf.StringVarP(&opts.File, "file", "f", "", "read events from a saved GeoJSON feed instead of fetching")

	rootCmd.AddCommand(
		newLegendCmd(),
		newMarkersCmd(),
		newEventsCmd(),
		newStatsCmd(),
	)

	return rootCmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch opts.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("unsupported output format %q", opts.Output)
	}

	cfg, err := config.LoadFile(opts.EnvFile)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := newLogger(opts.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:  cfg,
		Logger:  logger,
		Output:  opts.Output,
		Timeout: opts.Timeout,
		File:    opts.File,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// newLogger writes console logs to stderr so stdout stays machine readable.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapLevel,
	)
	return zap.New(core), nil
}

func getCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cliContextKey{}).(*CLIContext); ok {
			return cc, nil
		}
	}
	return nil, fmt.Errorf("command context not initialized")
}

// feedUseCase wires the feed sources. With --file every USGS feed key resolves
// to the file's contents and catalog search is unavailable.
func (cc *CLIContext) feedUseCase() (*usecase.FeedUseCase, error) {
	if cc.File != "" {
		src := &fileSource{path: cc.File}
		return usecase.NewFeedUseCase([]repository.FeedSource{src}, nil, nil, nil, cc.Logger, 0, cc.defaultFileFeed())
	}

	usgsClient := usgs.NewClient(&cc.Config.USGS, cc.Logger)
	sources := []repository.FeedSource{usgsClient}
	if cc.Config.PHIVOLCS.Enabled {
		sources = append(sources, phivolcs.NewClient(&cc.Config.PHIVOLCS, cc.Logger))
	}
	return usecase.NewFeedUseCase(sources, usgsClient, nil, nil, cc.Logger, 0, cc.Config.USGS.DefaultFeed)
}

func (cc *CLIContext) defaultFileFeed() string {
	key, err := domain.ParseFeedKey(cc.Config.USGS.DefaultFeed)
	if err != nil || key.Source != domain.SourceUSGS {
		return "usgs:all_day"
	}
	return key.String()
}

func (cc *CLIContext) engine() *cluster.Engine {
	c := cc.Config.Cluster
	cfg := cluster.DefaultConfig()
	if c.Radius > 0 {
		cfg.Radius = c.Radius
	}
	if c.MaxZoom > 0 {
		cfg.MinZoom = c.MinZoom
		cfg.MaxZoom = c.MaxZoom
	}
	if c.Extent > 0 {
		cfg.Extent = c.Extent
	}
	if c.NodeSize > 0 {
		cfg.NodeSize = c.NodeSize
	}
	if c.MaxLeaves > 0 {
		cfg.MaxLeaves = c.MaxLeaves
	}
	return cluster.NewEngine(cfg, cc.Logger)
}

func (cc *CLIContext) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if cc.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cc.Timeout)
}

// fileSource serves a saved USGS GeoJSON document for any USGS feed key.
type fileSource struct {
	path string
}

func (s *fileSource) Source() string { return domain.SourceUSGS }

func (s *fileSource) FetchFeed(ctx context.Context, key domain.FeedKey) ([]domain.RawFeature, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return usgs.Decode(f)
}
