package cli

import (
	"fmt"
	"slices"
	"strings"

	"item-appraiser/internal/cache"
	"item-appraiser/internal/catalog"
	"item-appraiser/internal/graph"
	"item-appraiser/internal/item"
	"item-appraiser/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func catalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and move mod template catalogs between stores",
	}

	cmd.AddCommand(catalogCheckCmd(opts))
	cmd.AddCommand(catalogImportCmd(opts))
	cmd.AddCommand(catalogExportCmd(opts))
	cmd.AddCommand(catalogDeleteCmd(opts))
	cmd.AddCommand(catalogSyncGraphCmd(opts))

	return cmd
}

// catalogCheckCmd compiles every template in a file and reports the ones
// that were excluded or cannot match their own rendering.
func catalogCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Compile a catalog file and report templates that fail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg

			templates, err := catalog.LoadAll(ctx, catalog.NewFileSource(args[0]))
			if err != nil {
				return err
			}
			cat := catalog.New(templates, cache.NewPatternCache(cfg.PatternCacheSize))
			broken := unmatchable(cat)

			var b strings.Builder
			fmt.Fprintf(&b, "implicit\t%d\n", len(cat.Templates(item.Implicit)))
			fmt.Fprintf(&b, "explicit\t%d\n", len(cat.Templates(item.Explicit)))
			for _, code := range cat.Excluded() {
				fmt.Fprintf(&b, "excluded\t%s\n", code)
			}
			for _, t := range broken {
				fmt.Fprintf(&b, "unmatchable\t%s\t%s\n", t.Kind, t.Code)
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), b.String()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			if n := len(cat.Excluded()); n > 0 {
				return fmt.Errorf("%d of %d templates excluded", n, len(templates))
			}
			if len(broken) > 0 {
				return fmt.Errorf("%d templates cannot match their own rendering", len(broken))
			}
			return nil
		},
	}
}

// sampleValues are substituted into templates by unmatchable. Multi-digit
// values expose adjacent placeholders that a single digit would not.
func sampleValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(11 * (i + 1))
	}
	return values
}

// unmatchable returns the templates whose text, rendered with sample values,
// does not match back to the same values.
func unmatchable(cat *catalog.Catalog) []catalog.Template {
	var broken []catalog.Template
	for _, kind := range []item.ModKind{item.Implicit, item.Explicit} {
		for _, t := range cat.Templates(kind) {
			p, ok := cat.Pattern(t.Code, kind)
			if !ok {
				continue
			}
			values := sampleValues(p.NumPlaceholders())
			got, ok := p.Match(p.Render(values...))
			if !ok || !slices.Equal(got, values) {
				log.Warn().Str("code", t.Code).Str("kind", string(kind)).Msg("Template cannot match its own rendering")
				broken = append(broken, t)
			}
		}
	}
	return broken
}

// catalogImportCmd upserts a catalog file into PostgreSQL.
func catalogImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a catalog file into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg

			templates, err := catalog.LoadAll(ctx, catalog.NewFileSource(args[0]))
			if err != nil {
				return err
			}

			if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
				return err
			}

			pool, err := connectPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			inserted, updated, err := store.NewCatalogStore(pool).Upsert(ctx, templates)
			if err != nil {
				return err
			}

			log.Info().
				Str("file", args[0]).
				Int("inserted", inserted).
				Int("updated", updated).
				Msg("Catalog imported")
			return nil
		},
	}
}

// catalogExportCmd writes the PostgreSQL catalog to a TSV or JSON file.
func catalogExportCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export the PostgreSQL catalog to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "tsv" && format != "json" {
				return fmt.Errorf("unknown export format %q (want tsv or json)", format)
			}

			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg

			pool, err := connectPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			s := store.NewCatalogStore(pool)
			if format == "json" {
				return s.ExportJSON(ctx, args[0])
			}
			return s.ExportTSV(ctx, args[0])
		},
	}

	cmd.Flags().StringVar(&format, "format", "tsv", "Export format: tsv or json")

	return cmd
}

// catalogDeleteCmd removes one template from the PostgreSQL catalog.
func catalogDeleteCmd(opts *options) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a template from the PostgreSQL catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := item.ParseModKind(kind)
			if !ok {
				return fmt.Errorf("unknown mod kind %q (want implicit or explicit)", kind)
			}

			ctx, cancel := setupContext()
			defer cancel()

			pool, err := connectPostgres(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			t := catalog.Template{Code: args[0], Kind: k}
			removed, err := store.NewCatalogStore(pool).Delete(ctx, t)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no %s template %q in catalog", k, t.Code)
			}

			log.Info().Str("code", t.Code).Str("kind", string(k)).Msg("Template deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(item.Explicit), "Mod kind: implicit or explicit")

	return cmd
}

// catalogSyncGraphCmd merges a catalog file into Neo4j.
func catalogSyncGraphCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-graph <file>",
		Short: "Merge a catalog file into the Neo4j template graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := opts.cfg

			templates, err := catalog.LoadAll(ctx, catalog.NewFileSource(args[0]))
			if err != nil {
				return err
			}

			driver, err := connectNeo4j(ctx, cfg)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			g := graph.NewCatalogGraph(driver)
			if err := g.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure graph schema: %w", err)
			}
			if err := g.UpsertTemplates(ctx, templates); err != nil {
				return err
			}

			log.Info().Str("file", args[0]).Int("templates", len(templates)).Msg("Catalog synced to graph")
			return nil
		},
	}
}
