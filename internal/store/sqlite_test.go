package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_CreatesDatabaseAndDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shop.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	for _, table := range []string{"users", "products", "orders", "order_items"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q missing", table)
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		require.NoError(t, err, "open #%d", i)
		require.NoError(t, s.Close())
	}

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, sqliteSchemaVersion, version)
}

func TestOpenSQLite_StockCheckConstraint(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.DB().Exec(`INSERT INTO products (id, name, price, category, stock, created_at)
		VALUES ('p1', 'Widget', '1.00', 'Misc', -1, CURRENT_TIMESTAMP)`)
	assert.Error(t, err, "negative stock must be rejected by the schema")
}
