package boltdb_test

import (
	"path/filepath"
	"testing"

	"github.com/pilosa/sparkify"
	"github.com/pilosa/sparkify/boltdb"
	"github.com/pilosa/sparkify/test"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	dir := test.MustTempDir(t, "testboltindex")
	test.CheckCatalogIndex(t, func() (sparkify.CatalogIndex, error) {
		return boltdb.NewIndex(filepath.Join(dir, "catalog.db"))
	})
}

func TestIndexClearsPreviousRun(t *testing.T) {
	name := filepath.Join(test.MustTempDir(t, "testboltreopen"), "catalog.db")
	idx, err := boltdb.NewIndex(name)
	require.NoError(t, err)
	require.NoError(t, idx.Add(sparkify.SongRecord{SongID: "SOA", ArtistID: "ARA", Title: "A", ArtistName: "Band"}))
	m, err := idx.Lookup("band", "a")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NoError(t, idx.Close())

	idx, err = boltdb.NewIndex(name, boltdb.OptIndexRemoveOnClose())
	require.NoError(t, err)
	m, err = idx.Lookup("band", "a")
	require.NoError(t, err)
	require.Nil(t, m)
	require.NoError(t, idx.Close())
	require.NoFileExists(t, name)
}
