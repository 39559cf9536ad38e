package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"item-appraiser/internal/catalog"
	"item-appraiser/internal/item"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is nil unless ITEM_APPRAISER_INTEGRATION=1.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	if os.Getenv("ITEM_APPRAISER_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp"),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("getting container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := RunMigrations(ctx, dsn); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting to test db: %v", err)
	}

	code := m.Run()

	testPool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func setupStore(t *testing.T) *CatalogStore {
	t.Helper()

	if testPool == nil {
		t.Skip("set ITEM_APPRAISER_INTEGRATION=1 to run PostgreSQL tests")
	}
	_, err := testPool.Exec(context.Background(), "TRUNCATE mod_templates")
	require.NoError(t, err)
	return NewCatalogStore(testPool)
}

func TestCatalogStore_UpsertAndLoad(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first := []catalog.Template{
		{Code: "+#% increased Physical Damage", Kind: item.Explicit},
		{Code: "#% increased Spell Damage", Kind: item.Implicit, Origin: item.OriginEnchant},
	}
	inserted, updated, err := s.Upsert(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, updated)

	second := []catalog.Template{
		{Code: "+# to maximum Life", Kind: item.Explicit},
		{Code: "+#% increased Physical Damage", Kind: item.Explicit, Origin: item.OriginCraft},
	}
	inserted, updated, err = s.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, updated)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Template{
		{Code: "+#% increased Physical Damage", Kind: item.Explicit, Origin: item.OriginCraft},
		{Code: "#% increased Spell Damage", Kind: item.Implicit, Origin: item.OriginEnchant},
		{Code: "+# to maximum Life", Kind: item.Explicit, Origin: item.OriginMod},
	}, got)
}

func TestCatalogStore_Delete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tmpl := catalog.Template{Code: "+# to Strength", Kind: item.Explicit}
	_, _, err := s.Upsert(ctx, []catalog.Template{tmpl})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, catalog.Template{Code: "+# to Strength", Kind: item.Implicit})
	require.NoError(t, err)
	assert.False(t, removed, "kind is part of the key")

	removed, err = s.Delete(ctx, tmpl)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestCatalogStore_ExportTSVRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	templates := []catalog.Template{
		{Code: "Adds # to # Physical Damage", Kind: item.Explicit, Origin: item.OriginMod},
		{Code: "#% increased Spell Damage", Kind: item.Implicit, Origin: item.OriginMod},
		{Code: "Tab\tand\nnewline \\ backslash #", Kind: item.Explicit, Origin: item.OriginCraft},
	}
	_, _, err := s.Upsert(ctx, templates)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.tsv")
	require.NoError(t, s.ExportTSV(ctx, path))

	got, err := catalog.NewFileSource(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, templates, got)
}
