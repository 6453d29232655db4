package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDatabase(t *testing.T, db Database) {
	t.Helper()
	key := []byte("market/listing/k")

	_, err := db.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
	ok, err := db.Has(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put(key, []byte("v1")))
	value, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, db.Put(key, []byte("v2")))
	value, err = db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	ok, err = db.Has(key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Delete(key))
	_, err = db.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.NoError(t, db.Delete(key))
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	testDatabase(t, db)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	value := []byte("original")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'
	stored, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), stored)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	testDatabase(t, db)
}

func TestBoltDB(t *testing.T) {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "bazaar.db"))
	require.NoError(t, err)
	defer db.Close()
	testDatabase(t, db)
}
