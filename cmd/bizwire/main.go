package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/bizwire/internal/config"
	"github.com/TobiSchelling/bizwire/internal/database"
	"github.com/TobiSchelling/bizwire/internal/dataset"
	"github.com/TobiSchelling/bizwire/internal/ingest"
	"github.com/TobiSchelling/bizwire/internal/logger"
	"github.com/TobiSchelling/bizwire/internal/mirror"
	"github.com/TobiSchelling/bizwire/internal/newsapi"
	"github.com/TobiSchelling/bizwire/internal/report"
	"github.com/TobiSchelling/bizwire/internal/scheduler"
	"github.com/TobiSchelling/bizwire/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "bizwire",
	Short:   "Incremental business headline collector",
	Long:    "bizwire polls NewsAPI for top business headlines, tags candidate company names, and appends new stories to a spreadsheet.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logger.Setup("INFO")
			return nil
		}

		config.LoadEnv()

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger.Setup(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bizwire", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/bizwire/",
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
		fmt.Println("Set NEWSAPI_KEY in your environment or a .env file before running.")
		return nil
	},
}

// --- run command ---

var (
	runInterval time.Duration
	runNow      bool
	runOnce     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll for headlines on a fixed interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		pipe := env.pipeline(ctx)
		if runOnce {
			ingest.WriteReport(os.Stdout, pipe.RunOnce(ctx))
			return nil
		}

		interval := cfg.Schedule.Interval
		if runInterval > 0 {
			interval = runInterval
		}

		fmt.Printf("Collecting business headlines every %s into %s\n", interval, env.repo.Location())
		fmt.Println("Press Ctrl+C to stop")

		sched := scheduler.New(pipe, scheduler.Options{
			Interval:   interval,
			RunOnStart: runNow || cfg.Schedule.RunOnStart,
			OnCycle:    func(r *ingest.Result) { ingest.WriteReport(os.Stdout, r) },
			Logger:     slog.Default(),
		})
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Override the poll interval (e.g. 30s, 5m)")
	runCmd.Flags().BoolVar(&runNow, "now", false, "Run the first cycle immediately")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single cycle and exit")
}

// --- fetch command ---

var dryRun bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run a single fetch and merge cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		pipe := env.pipeline(ctx)

		var result *ingest.Result
		if dryRun {
			result = pipe.DryRun(ctx)
		} else {
			result = pipe.RunOnce(ctx)
		}
		ingest.WriteReport(os.Stdout, result)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be added without writing the dataset")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset and run history status",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		fmt.Printf("Dataset: %s\n", env.repo.Location())
		records, err := env.repo.Load(ctx)
		switch {
		case errors.Is(err, dataset.ErrNotFound):
			fmt.Println("  Not created yet")
		case err != nil:
			fmt.Printf("  Error: %v\n", err)
		default:
			fmt.Printf("  Stories: %d\n", len(records))
		}

		stats, err := env.db.GetStats(ctx)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		fmt.Println("\nCycles:")
		fmt.Printf("  Total: %d\n", stats.TotalCycles)
		fmt.Printf("  Failed: %d\n", stats.FailedCycles)
		fmt.Printf("  Stories added: %d\n", stats.TotalAdded)
		if stats.LastCycleAt != nil {
			fmt.Printf("  Last cycle: %s\n", *stats.LastCycleAt)
		}

		fmt.Println("\nNewsAPI:")
		if cfg.APIKey() == "" {
			fmt.Printf("  API key: missing (set %s)\n", cfg.NewsAPI.APIKeyEnv)
		} else {
			fmt.Println("  API key: configured")
		}
		fmt.Printf("  Locale: %s/%s, page size %d\n", cfg.NewsAPI.Language, cfg.NewsAPI.Country, cfg.NewsAPI.PageSize)
		return nil
	},
}

// --- show command ---

var showLimit int

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dataset as a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.repo.Load(cmd.Context())
		if errors.Is(err, dataset.ErrNotFound) {
			fmt.Println("No dataset yet. Run 'bizwire fetch' first.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}

		fmt.Print(report.Headlines(records, showLimit))
		fmt.Printf("\n%d stories in %s\n", len(records), env.repo.Location())
		return nil
	},
}

func init() {
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "Show only the most recent N stories (0 for all)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx := cmd.Context()
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, env.repo, env.db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// environment holds the handles shared by the commands.
type environment struct {
	db      *database.DB
	repo    dataset.Repository
	closers []func() error
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func openEnv() (*environment, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := database.Open(cfg.HistoryDBPath())
	if err != nil {
		return nil, err
	}
	env := &environment{db: db, closers: []func() error{db.Close}}

	repo, err := openStore(env)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.repo = repo
	return env, nil
}

func openStore(env *environment) (dataset.Repository, error) {
	path := cfg.DatasetPath()
	format, err := dataset.ResolveFormat(path, cfg.Dataset.Format)
	if err != nil {
		return nil, err
	}
	if format != dataset.FormatSQLite {
		return dataset.OpenFile(path, format)
	}

	if path == cfg.HistoryDBPath() {
		return env.db.Records(), nil
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset database: %w", err)
	}
	env.closers = append(env.closers, db.Close)
	return db.Records(), nil
}

func (e *environment) pipeline(ctx context.Context) *ingest.Pipeline {
	client := newsapi.NewClient(newsapi.Options{
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.NewsAPI.BaseURL,
		Language: cfg.NewsAPI.Language,
		Country:  cfg.NewsAPI.Country,
		PageSize: cfg.NewsAPI.PageSize,
		Timeout:  cfg.NewsAPI.Timeout,
	})
	log := slog.Default()

	opts := []ingest.Option{
		ingest.WithHistory(e.db),
		ingest.WithLogger(log),
	}

	s3cfg := cfg.Mirror.S3
	if s3cfg.Bucket != "" {
		if _, inDB := e.repo.(*database.RecordStore); inDB {
			log.Warn("mirror.s3 ignored for sqlite datasets")
		} else {
			m, err := mirror.NewS3(ctx, mirror.Options{
				Bucket:       s3cfg.Bucket,
				Prefix:       s3cfg.Prefix,
				Region:       s3cfg.Region,
				Profile:      s3cfg.Profile,
				UsePathStyle: s3cfg.UsePathStyle,
			})
			if err != nil {
				log.Warn("s3 mirror disabled", "err", err)
			} else {
				opts = append(opts, ingest.WithPublisher(m))
			}
		}
	}

	return ingest.New(client, e.repo, opts...)
}
