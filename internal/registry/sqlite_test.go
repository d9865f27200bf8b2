package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/storage/sqlite"
)

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := testSQLiteStore(t)

	rec, err := s.Subscribe("42", "chat-42", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "42", rec.Identity)

	// Re-subscribing stays a single row.
	_, err = s.Subscribe("42", "chat-42", "Ana")
	require.NoError(t, err)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "chat-42", list[0].Address)

	require.NoError(t, s.Unsubscribe("42"))
	list, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
