package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/cache"
	"github.com/Zachkp/zach-dev-sky/internal/config"
	"github.com/Zachkp/zach-dev-sky/internal/prng"
	"github.com/Zachkp/zach-dev-sky/internal/seed"
	"github.com/Zachkp/zach-dev-sky/internal/skills"
)

type rootOptions struct {
	verbose    bool
	configPath string
}

// load reads the configuration and builds the logger every command shares.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(o.configPath, os.Getenv)
	if err != nil {
		return config.Config{}, nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if o.verbose {
		level = log.DebugLevel
	}
	return cfg, newLogger(cmd.ErrOrStderr(), level), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "sky",
		Short:        "Seeded night-sky backgrounds for the portfolio site",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("SKY_CONFIG"), "path to a TOML config file")

	root.AddCommand(
		newServeCmd(opts),
		newSeedCmd(),
		newRenderCmd(opts),
		newPreviewCmd(opts),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(withLogger(ctx, logger), cfg)
		},
	}
}

// serve runs the site until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sceneCache := openCache(ctx, cfg, logger)
	defer sceneCache.Close()

	srv, err := newServer(cfg, db, sceneCache, logger)
	if err != nil {
		return err
	}
	if _, err := srv.cleanupOldSessions(ctx); err != nil {
		logger.Warn("privacy cleanup failed", "err", err)
	}
	router, err := srv.router()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "url", "http://localhost:"+cfg.Port)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openCache connects to Redis when configured and falls back to an
// in-process cache otherwise.
func openCache(ctx context.Context, cfg config.Config, logger *log.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache(cfg.CacheEntries)
	}
	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "sky")
	if err != nil {
		logger.Warn("redis unavailable, caching scenes in memory", "err", err)
		return cache.NewMemoryCache(cfg.CacheEntries)
	}
	logger.Info("caching scenes in redis")
	return rc
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [seed]",
		Short: "Print a new seed, or check an existing one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				sd := seed.New()
				fmt.Fprintln(out, sd)
				fmt.Fprintln(out, seed.Label(sd))
				return nil
			}
			state, err := prng.ParseState(args[0])
			if err != nil {
				return err
			}
			if !seed.Valid(args[0]) {
				fmt.Fprintf(out, "warning: %q is not a 32-character lowercase hex seed\n", args[0])
			}
			fmt.Fprintln(out, seed.Label(args[0]))
			fmt.Fprintf(out, "state 0x%08x\n", state)
			return nil
		},
	}
}

// sceneFlags are the inputs shared by render and preview.
type sceneFlags struct {
	seed    string
	variant string
	geo     background.Geometry
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.seed, "seed", "", "seed to render (default: a new one)")
	cmd.Flags().StringVar(&f.variant, "variant", "", "node count variant: linear or range (default: configured)")
}

func (f *sceneFlags) scene(cfg config.Config) (background.Scene, error) {
	sd := f.seed
	if sd == "" {
		sd = seed.New()
	}
	name := f.variant
	if name == "" {
		name = cfg.NodeVariant
	}
	variant, err := background.ParseVariant(name)
	if err != nil {
		return background.Scene{}, err
	}
	src, err := prng.FromSeed(sd)
	if err != nil {
		return background.Scene{}, err
	}
	return background.Generate(src, sd, f.geo, background.Options{Variant: variant, Cards: projectIDs()})
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		flags  sceneFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the scene for a seed and page geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			scene, err := flags.scene(cfg)
			if err != nil {
				return err
			}
			logger.Debug("rendered", "seed", scene.Seed, "nodes", len(scene.Nodes), "stars", len(scene.Stars))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(scene)
			case "css":
				_, err := fmt.Fprint(out, scene.CSS())
				return err
			}
			return fmt.Errorf("unknown format %q (want json or css)", format)
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&flags.geo.PageHeight, "page-height", 1000, "total page height in pixels")
	cmd.Flags().Float64Var(&flags.geo.ViewportHeight, "viewport-height", 1000, "viewport height in pixels")
	cmd.Flags().Float64Var(&flags.geo.ViewportWidth, "viewport-width", 1280, "viewport width in pixels")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or css")
	return cmd
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		flags   sceneFlags
		cols    int
		rows    int
		screens int
		live    bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Draw the sky in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if live {
				return runLive(cmd, cfg, flags, cols, rows, logger)
			}
			flags.geo = terminalGeometry(cols, rows, screens)
			scene, err := flags.scene(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderPreview(scene, cols, rows*max(screens, 1), seed.Label(scene.Seed)))
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&cols, "cols", 80, "terminal columns")
	cmd.Flags().IntVar(&rows, "rows", 24, "terminal rows per screen")
	cmd.Flags().IntVar(&screens, "screens", 1, "screens of content (static preview only)")
	cmd.Flags().BoolVar(&live, "live", false, "interactive preview that re-renders on resize")
	return cmd
}

func runLive(cmd *cobra.Command, cfg config.Config, flags sceneFlags, cols, rows int, logger *log.Logger) error {
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	name := flags.variant
	if name == "" {
		name = cfg.NodeVariant
	}
	variant, err := background.ParseVariant(name)
	if err != nil {
		return err
	}
	if flags.seed != "" {
		if _, err := prng.ParseState(flags.seed); err != nil {
			return err
		}
	}
	graph, err := skills.Default()
	if err != nil {
		return err
	}

	// Log lines would tear the alt screen; keep only errors.
	logger.SetLevel(log.ErrorLevel)

	model := newLiveModel(graph, cols, rows)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	model.attach(p, flags.seed, policy, schedulerSettings{
		variant:  variant,
		debounce: cfg.Debounce(),
		logger:   logger,
	})
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(*liveModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
