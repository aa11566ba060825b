package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/statewatch/statewatch/internal/activity"
	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/board"
	"github.com/statewatch/statewatch/internal/config"
	"github.com/statewatch/statewatch/internal/feed"
	"github.com/statewatch/statewatch/internal/geo"
	"github.com/statewatch/statewatch/internal/observability"
	"github.com/statewatch/statewatch/internal/refresh"
	"github.com/statewatch/statewatch/internal/render"
	"github.com/statewatch/statewatch/internal/server"
	"github.com/statewatch/statewatch/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "statewatch",
	Short:   "State-level news situation board",
	Long:    "Statewatch aggregates state-bound news feeds, scores per-state activity, and serves a heat-mapped situation board with a scrolling ticker.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("statewatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/statewatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Point data.dir at a directory holding feeds.json, groups.json, keywords.json and states.geojson.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and override-store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		data, err := appdata.Load(cfg.Data.Dir, st)
		if err != nil {
			return fmt.Errorf("loading baseline data: %w", err)
		}

		fmt.Printf("Data dir: %s\n", cfg.Data.Dir)
		fmt.Printf("Override store: %s\n\n", st.Path())
		fmt.Println("Configuration:")
		fmt.Printf("  Feeds: %d\n", len(data.Feeds))
		fmt.Printf("  Groups: %d\n", len(data.Groups))
		fmt.Printf("  Keywords: %d\n", len(data.Keywords))
		fmt.Printf("  Theme: %s\n", data.Settings.Theme)
		fmt.Printf("  Refresh interval: %s\n", data.Settings.RefreshInterval())
		fmt.Printf("  Heatmap decay: %s\n", data.Settings.HeatmapDecay())

		keys, err := st.Keys()
		if err != nil {
			return fmt.Errorf("listing overrides: %w", err)
		}
		fmt.Println("\nPersisted overrides:")
		if len(keys) == 0 {
			fmt.Println("  (none)")
		}
		for _, k := range keys {
			fmt.Printf("  %s\n", k)
		}

		states, err := geo.Load(cfg.GeoPath())
		if err != nil {
			fmt.Printf("\nGeometry: unavailable (%v)\n", err)
			return nil
		}
		fmt.Printf("\nGeometry: %d states from %s\n", len(states), cfg.GeoPath())
		return nil
	},
}

// --- refresh command ---

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch all configured feeds once and report per-state counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		b, pipe, _, err := buildPipeline(st)
		if err != nil {
			return err
		}

		fmt.Println("Fetching feeds through proxy...")
		added := pipe.RunOnce(context.Background())

		stories := b.Stories()
		fmt.Println("\nRefresh complete:")
		fmt.Printf("  New stories: %d\n", added)
		fmt.Printf("  Total stories: %d\n", len(stories))

		counts := map[string]int{}
		for _, s := range stories {
			counts[s.State]++
		}
		if len(counts) > 0 {
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range counts {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			fmt.Println("\nStories by state:")
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- render command ---

var (
	renderOut     string
	renderRefresh bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one map frame to a PNG file",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		b, pipe, scorer, err := buildPipeline(st)
		if err != nil {
			return err
		}

		if renderRefresh {
			fmt.Println("Fetching feeds through proxy...")
			pipe.RunOnce(context.Background())
		}

		snap := b.Snapshot()
		rnd := render.New(cfg.Map.Width, cfg.Map.Height, cfg.Map.Padding, render.ThemeByName(snap.Settings.Theme))
		if err := rnd.LoadGeometry(cfg.GeoPath()); err != nil {
			log.Printf("Geometry unavailable, rendering placeholder: %v", err)
		}

		heat := scorer.Snapshot(snap.Stories, snap.Feeds, snap.Settings.HeatmapDecay())

		surface := render.NewRasterSurface(cfg.Map.Width, cfg.Map.Height)
		rnd.Frame(surface, heat, snap.Selection, snap.Settings.HeatmapDecay(), time.Now())
		if err := surface.SavePNG(renderOut); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}

		fmt.Printf("Wrote %s (%d stories, %d active states)\n", renderOut, len(snap.Stories), len(heat))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "map.png", "Output file")
	renderCmd.Flags().BoolVar(&renderRefresh, "refresh", false, "Fetch feeds before rendering")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard server with recurring refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		b, pipe, scorer, err := buildPipeline(st)
		if err != nil {
			return err
		}

		settings := b.Settings()
		rnd := render.New(cfg.Map.Width, cfg.Map.Height, cfg.Map.Padding, render.ThemeByName(settings.Theme))
		if err := rnd.LoadGeometry(cfg.GeoPath()); err != nil {
			log.Printf("Geometry unavailable, serving placeholder: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go pipe.Run(ctx, settings.RefreshInterval())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(b, rnd, scorer, st, serveMetrics, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// serveMetrics is shared between the pipeline and the server so /metrics
// exposes both. Registered lazily on first bootstrap.
var serveMetrics *observability.Metrics

func buildPipeline(st *store.Store) (*board.Board, *refresh.Pipeline, *activity.Scorer, error) {
	data, err := appdata.Load(cfg.Data.Dir, st)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading baseline data: %w", err)
	}

	b := board.New(board.NewBus())
	b.SetData(*data)

	if serveMetrics == nil {
		serveMetrics = observability.NewMetrics()
	}

	fetcher := feed.NewFetcher(cfg.Proxy.URL, cfg.ProxyTimeout())
	scorer := activity.NewScorer(cfg.MemoWindow(), nil)
	pipe := refresh.New(fetcher, b, scorer, serveMetrics, cfg.FetchStagger())
	return b, pipe, scorer, nil
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.DBPath())
}
