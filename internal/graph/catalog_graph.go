package graph

import (
	"context"
	"fmt"

	"item-appraiser/internal/catalog"
	"item-appraiser/internal/item"
	"item-appraiser/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// CatalogGraph keeps the mod catalog as (:ModTemplate) nodes in Neo4j, each
// linked to its (:ModKind) node.
type CatalogGraph struct {
	driver neo4j.DriverWithContext
}

// NewCatalogGraph creates a new catalog graph.
func NewCatalogGraph(driver neo4j.DriverWithContext) *CatalogGraph {
	return &CatalogGraph{driver: driver}
}

// EnsureSchema creates constraints and indexes on the Neo4j database.
func (g *CatalogGraph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:ModTemplate) REQUIRE t.key IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (k:ModKind) REQUIRE k.name IS UNIQUE",
		"CREATE INDEX IF NOT EXISTS FOR (t:ModTemplate) ON (t.position)",
	}

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// UpsertTemplates merges templates into the graph. The position of a
// template is set when it is first created and kept afterwards.
func (g *CatalogGraph) UpsertTemplates(ctx context.Context, templates []catalog.Template) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	base, err := g.maxPosition(ctx, session)
	if err != nil {
		return err
	}

	for i, t := range templates {
		if t.Origin == "" {
			t.Origin = item.OriginMod
		}
		_, err := session.Run(ctx, `
			MERGE (k:ModKind {name: $kind})
			MERGE (t:ModTemplate {key: $key})
			ON CREATE SET t.position = $position
			SET t.code = $code,
			    t.kind = $kind,
			    t.origin = $origin
			MERGE (t)-[:OF_KIND]->(k)
		`, map[string]any{
			"key":      t.Key(),
			"code":     t.Code,
			"kind":     string(t.Kind),
			"origin":   string(t.Origin),
			"position": base + int64(i) + 1,
		})
		if err != nil {
			return fmt.Errorf("upsert template %s: %w", textutil.Truncate(t.Code, 40), err)
		}
	}

	log.Info().Int("templates", len(templates)).Msg("Upserted catalog templates into graph")
	return nil
}

func (g *CatalogGraph) maxPosition(ctx context.Context, session neo4j.SessionWithContext) (int64, error) {
	result, err := session.Run(ctx, `
		MATCH (t:ModTemplate)
		RETURN coalesce(max(t.position), 0) AS position
	`, nil)
	if err != nil {
		return 0, fmt.Errorf("query max position: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("read max position: %w", err)
	}
	v, _ := record.Get("position")
	pos, _ := v.(int64)
	return pos, nil
}

// Load returns every template in catalog order.
func (g *CatalogGraph) Load(ctx context.Context) ([]catalog.Template, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:ModTemplate)
		RETURN t.code AS code, t.kind AS kind, t.origin AS origin
		ORDER BY t.position
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var templates []catalog.Template
	for result.Next(ctx) {
		record := result.Record()
		code, _ := record.Get("code")
		kind, _ := record.Get("kind")
		origin, _ := record.Get("origin")

		t, ok := templateFromValues(code, kind, origin)
		if !ok {
			log.Warn().Interface("code", code).Interface("kind", kind).Msg("Skipping malformed template node")
			continue
		}
		templates = append(templates, t)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	log.Info().Int("templates", len(templates)).Msg("Loaded catalog from graph")
	return templates, nil
}

func templateFromValues(code, kind, origin any) (catalog.Template, bool) {
	codeStr, ok := code.(string)
	if !ok || codeStr == "" {
		return catalog.Template{}, false
	}
	kindStr, _ := kind.(string)
	k, ok := item.ParseModKind(kindStr)
	if !ok {
		return catalog.Template{}, false
	}
	originStr, _ := origin.(string)
	o, ok := item.ParseModOrigin(originStr)
	if !ok {
		o = item.OriginMod
	}
	return catalog.Template{Code: codeStr, Kind: k, Origin: o}, true
}
