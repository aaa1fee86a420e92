package surrealdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/fairval/internal/common"
	tcommon "github.com/bobmcallan/fairval/tests/common"
)

// testStore opens a Store through NewStore on a database private to the
// test, so the cache tables are defined exactly as in production.
func testStore(t *testing.T) *Store {
	t.Helper()

	cfg := tcommon.StartSurrealDB(t).StorageConfig(t)
	s, err := NewStore(context.Background(), common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// tableNames lists the tables defined on the store's database.
func tableNames(t *testing.T, s *Store) []string {
	t.Helper()

	res, err := surreal.Query[map[string]any](context.Background(), s.db, "INFO FOR DB", nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, *res)

	tables, _ := (*res)[0].Result["tables"].(map[string]any)
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	return names
}
