package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"item-appraiser/internal/catalog"
	"item-appraiser/internal/item"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// CatalogStore persists mod templates in PostgreSQL. Templates keep the
// position they were first imported at, so catalog order survives reloads.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a new catalog store.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// Upsert inserts new templates after the existing ones and updates the origin
// of templates already stored.
func (s *CatalogStore) Upsert(ctx context.Context, templates []catalog.Template) (inserted, updated int, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var next int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM mod_templates`).Scan(&next); err != nil {
		return 0, 0, fmt.Errorf("query max position: %w", err)
	}

	for _, t := range templates {
		if t.Origin == "" {
			t.Origin = item.OriginMod
		}
		next++

		var wasInserted bool
		err := tx.QueryRow(ctx, `
			INSERT INTO mod_templates (hash, code, kind, origin, position)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash) DO UPDATE
			SET origin = EXCLUDED.origin,
			    updated_at = now()
			RETURNING (xmax = 0)
		`, t.Key(), t.Code, string(t.Kind), string(t.Origin), next).Scan(&wasInserted)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert template %q: %w", t.Code, err)
		}

		if wasInserted {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return inserted, updated, fmt.Errorf("commit upsert: %w", err)
	}

	log.Info().Int("inserted", inserted).Int("updated", updated).Msg("Upserted catalog templates")
	return inserted, updated, nil
}

// Load returns every stored template in catalog order.
func (s *CatalogStore) Load(ctx context.Context) ([]catalog.Template, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, kind, origin
		FROM mod_templates
		ORDER BY position, code
	`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []catalog.Template
	for rows.Next() {
		var code, kindStr, originStr string
		if err := rows.Scan(&code, &kindStr, &originStr); err != nil {
			return nil, fmt.Errorf("scan template row: %w", err)
		}

		kind, ok := item.ParseModKind(kindStr)
		if !ok {
			log.Warn().Str("template", code).Str("kind", kindStr).Msg("Skipping stored template with unknown kind")
			continue
		}
		origin, _ := item.ParseModOrigin(originStr)

		templates = append(templates, catalog.Template{Code: code, Kind: kind, Origin: origin})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template rows: %w", err)
	}

	log.Info().Int("templates", len(templates)).Msg("Loaded catalog from PostgreSQL")
	return templates, nil
}

// Delete removes a template of the given kind. It reports whether a row was removed.
func (s *CatalogStore) Delete(ctx context.Context, t catalog.Template) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mod_templates WHERE hash = $1`, t.Key())
	if err != nil {
		return false, fmt.Errorf("delete template %q: %w", t.Code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ExportTSV writes all templates in the TSV layout catalog.FileSource reads.
func (s *CatalogStore) ExportTSV(ctx context.Context, outputPath string) error {
	return s.export(ctx, outputPath, "TSV", catalog.WriteTSV)
}

// ExportJSON writes all templates as a JSON array.
func (s *CatalogStore) ExportJSON(ctx context.Context, outputPath string) error {
	return s.export(ctx, outputPath, "JSON", catalog.WriteJSON)
}

func (s *CatalogStore) export(ctx context.Context, outputPath, format string, write func(io.Writer, []catalog.Template) error) (err error) {
	templates, err := s.Load(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s file: %w", format, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s file: %w", format, cerr)
		}
	}()

	if err := write(f, templates); err != nil {
		return err
	}

	log.Info().Str("path", outputPath).Str("format", format).Int("templates", len(templates)).Msg("Exported catalog")
	return nil
}
