// Package cli implements the macroplace command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/macroplace/pkg/buildinfo"
	"github.com/matzehuels/macroplace/pkg/cache"
	"github.com/matzehuels/macroplace/pkg/config"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/pipeline"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "macroplace"

	envRedisAddr = "MACROPLACE_REDIS_ADDR"
	envMongoURI  = "MACROPLACE_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Macroplace places hard macros inside a floorplan fence",
		Long:         `Macroplace derives connection weights between macros from the netlist, partitions the fence into regions by min-cut and packs every macro into its region.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.placeCommand())
	root.AddCommand(c.weightsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	// cobra adds "completion" for bash, zsh, fish and powershell.
	root.CompletionOptions.DisableDescriptions = false

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the placement cache.
type cacheFlags struct {
	noCache   bool
	redisAddr string
	scope     string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().StringVar(&f.redisAddr, "redis-addr", os.Getenv(envRedisAddr), "cache results in Redis at this address instead of on disk (env "+envRedisAddr+")")
	cmd.Flags().StringVar(&f.scope, "cache-scope", "", "namespace for cache keys, for deployments sharing one Redis")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if f.scope != "" {
		keyer = cache.NewScopedKeyer(nil, f.scope+":")
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	switch {
	case f.noCache:
		return cache.NewNullCache(), nil
	case f.redisAddr != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: f.redisAddr, Prefix: appName + ":"})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return rc, nil
	}
	fc, err := cache.NewFileCache(cache.DefaultDir())
	if err != nil {
		// An unusable cache directory only costs speed.
		c.Logger.Warn("file cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// placementFlags holds the flags shared by commands that build placer
// options. Explicit flags override the configuration files.
type placementFlags struct {
	configPath string
	localPath  string
	fence      string
	halo       string
	channel    string
	candidates int
	seed       uint64
	parallel   bool
	tieBreak   string
}

func (f *placementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "global configuration file (TOML)")
	cmd.Flags().StringVar(&f.localPath, "local", "", "per-macro spacing overrides (TOML)")
	cmd.Flags().StringVar(&f.fence, "fence", "", "placement fence lx,ly,ux,uy (default: design core)")
	cmd.Flags().StringVar(&f.halo, "halo", "", "global halo x,y")
	cmd.Flags().StringVar(&f.channel, "channel", "", "global channel x,y")
	cmd.Flags().IntVar(&f.candidates, "candidates", 0, "number of seeded partitionings to evaluate")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "base random seed")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "evaluate candidates concurrently")
	cmd.Flags().StringVar(&f.tieBreak, "tie-break", "", "boundary edge for equidistant ports: horizontal, vertical")
}

// options merges config files and flags into placer options. Local
// configuration problems are returned as warnings.
func (f *placementFlags) options(cmd *cobra.Command) (placer.Options, []errors.Warning, error) {
	var opts placer.Options
	var warnings []errors.Warning

	if f.configPath != "" {
		g, err := config.LoadGlobal(f.configPath)
		if err != nil {
			return opts, nil, err
		}
		if err := g.Apply(&opts); err != nil {
			return opts, nil, err
		}
	}
	if f.localPath != "" {
		opts.Locals, warnings = config.LoadLocal(f.localPath)
	}

	flags := cmd.Flags()
	if f.fence != "" {
		v, err := parseFloats(f.fence, 4)
		if err != nil {
			return opts, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--fence")
		}
		opts.Fence.LX, opts.Fence.LY, opts.Fence.UX, opts.Fence.UY = v[0], v[1], v[2], v[3]
	}
	if f.halo != "" {
		v, err := parseFloats(f.halo, 2)
		if err != nil {
			return opts, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--halo")
		}
		opts.Spacing.HaloX, opts.Spacing.HaloY = v[0], v[1]
	}
	if f.channel != "" {
		v, err := parseFloats(f.channel, 2)
		if err != nil {
			return opts, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--channel")
		}
		opts.Spacing.ChannelX, opts.Spacing.ChannelY = v[0], v[1]
	}
	if flags.Changed("candidates") {
		opts.Candidates = f.candidates
	}
	if flags.Changed("seed") {
		opts.Seed = f.seed
	}
	if flags.Changed("parallel") {
		opts.Parallel = f.parallel
	}
	if f.tieBreak != "" {
		if err := opts.TieBreak.UnmarshalText([]byte(f.tieBreak)); err != nil {
			return opts, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "--tie-break")
		}
	}
	return opts, warnings, nil
}

// parseFloats parses exactly n comma-separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseList splits a comma-separated flag value, returning def when empty.
func parseList(s string, def ...string) []string {
	if s == "" {
		return def
	}
	return strings.Split(s, ",")
}
