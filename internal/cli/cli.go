package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"item-appraiser/internal/cache"
	"item-appraiser/internal/catalog"
	"item-appraiser/internal/config"
	"item-appraiser/internal/graph"
	"item-appraiser/internal/item"
	"item-appraiser/internal/parser"
	"item-appraiser/internal/pattern"
	"item-appraiser/internal/query"
	"item-appraiser/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command, and the
// configuration loaded once from them before any command runs.
type options struct {
	catalogPath   string
	catalogSource string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "appraiser",
		Short:        "Parse copied item text and build price-check queries",
		Long:         "Parses item tooltip text copied from the game, matches its mods against a template catalog and derives search ranges for similar items.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.cfg = loadConfig(opts)
			setLogLevel(opts.cfg.LogLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Catalog file (overrides CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.catalogSource, "source", "", "Catalog source: file, postgres or neo4j (overrides CATALOG_SOURCE)")

	rootCmd.AddCommand(parseCmd(opts))
	rootCmd.AddCommand(serializeCmd(opts))
	rootCmd.AddCommand(rangesCmd(opts))
	rootCmd.AddCommand(batchCmd(opts))
	rootCmd.AddCommand(catalogCmd(opts))

	return rootCmd
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// loadConfig applies flag overrides on top of the environment configuration.
func loadConfig(opts *options) *config.Config {
	cfg := config.Load()
	if opts.catalogPath != "" {
		cfg.CatalogPath = opts.catalogPath
	}
	if opts.catalogSource != "" {
		cfg.CatalogSource = opts.catalogSource
	}
	return cfg
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectPostgres opens and pings a pgx pool.
func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// connectNeo4j opens a Neo4j driver and verifies connectivity.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// loadCatalog reads templates from the configured source and builds the catalog.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	var templates []catalog.Template

	switch cfg.CatalogSource {
	case config.SourceFile:
		t, err := catalog.LoadAll(ctx, catalog.NewFileSource(cfg.CatalogPath))
		if err != nil {
			return nil, err
		}
		templates = t

	case config.SourcePostgres:
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		t, err := store.NewCatalogStore(pool).Load(ctx)
		if err != nil {
			return nil, err
		}
		templates = t

	case config.SourceNeo4j:
		driver, err := connectNeo4j(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer driver.Close(ctx)

		t, err := graph.NewCatalogGraph(driver).Load(ctx)
		if err != nil {
			return nil, err
		}
		templates = t

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}

	patterns := cache.NewPatternCache(cfg.PatternCacheSize)
	cat := catalog.New(templates, patterns)
	hits, misses := patterns.Stats()
	log.Info().
		Int("templates", cat.Len()).
		Int("patterns", patterns.Len()).
		Int("cache_hits", hits).
		Int("cache_misses", misses).
		Int("excluded", len(cat.Excluded())).
		Str("source", cfg.CatalogSource).
		Msg("Catalog ready")

	return cat, nil
}

// readInput reads item text from the file named in args, or from stdin.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read item text: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// parseInput loads the catalog and parses the command's input.
func parseInput(ctx context.Context, cmd *cobra.Command, args []string, cfg *config.Config) (*item.Item, *catalog.Catalog, error) {
	text, err := readInput(cmd, args)
	if err != nil {
		return nil, nil, err
	}

	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	p, err := parser.New(cat)
	if err != nil {
		return nil, nil, err
	}

	it, err := p.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	return it, cat, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// appraisal is the output of `parse --ranges`.
type appraisal struct {
	Item   *item.Item            `json:"item"`
	Ranges []query.RangeArgument `json:"ranges,omitempty"`
}

func parseCmd(opts *options) *cobra.Command {
	var (
		withRanges bool
		tolerance  float64
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse item text from a file or stdin and print it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg
			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.ToleranceRatio
			}

			it, cat, err := parseInput(ctx, cmd, args, cfg)
			if err != nil {
				return err
			}

			out := appraisal{Item: it}
			if withRanges {
				out.Ranges = query.ToRangeArguments(it, cat, tolerance)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&withRanges, "ranges", false, "Include search ranges for every mod")
	cmd.Flags().Float64Var(&tolerance, "tolerance", query.DefaultToleranceRatio, "Tolerance ratio for search ranges")

	return cmd
}

func serializeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serialize [file]",
		Short: "Parse item text and print its canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			it, _, err := parseInput(ctx, cmd, args, opts.cfg)
			if err != nil {
				return err
			}

			text, err := parser.Serialize(it)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func rangesCmd(opts *options) *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "ranges [file]",
		Short: "Print a search range argument for each mod of an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg
			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.ToleranceRatio
			}

			it, cat, err := parseInput(ctx, cmd, args, cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, arg := range query.ToRangeArguments(it, cat, tolerance) {
				lo, hi := "-", "-"
				if arg.Bounded() {
					lo, hi = pattern.FormatValue(*arg.Min), pattern.FormatValue(*arg.Max)
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", arg.CodeName, lo, hi); err != nil {
					return fmt.Errorf("write ranges: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&tolerance, "tolerance", query.DefaultToleranceRatio, "Tolerance ratio for search ranges")

	return cmd
}
