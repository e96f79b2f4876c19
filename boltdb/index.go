// Package boltdb provides a sparkify.CatalogIndex stored in a boltdb file, for
// song catalogs too large to index in memory.
package boltdb

import (
	"bytes"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pilosa/sparkify"
	"github.com/pkg/errors"
)

var candidateBucket = []byte("candidates")

// Index is a sparkify.CatalogIndex which stores candidates in boltdb, keyed
// by sparkify.CandidateKey.
type Index struct {
	Db *bolt.DB

	path   string
	remove bool
}

var _ sparkify.CatalogIndex = &Index{}

// IndexOption is a functional option for Index.
type IndexOption func(idx *Index)

// OptIndexRemoveOnClose deletes the database file when the index is closed.
func OptIndexRemoveOnClose() IndexOption {
	return func(idx *Index) {
		idx.remove = true
	}
}

// NewIndex opens the boltdb file at filename, creating it if needed, and
// clears any candidates left in it by a previous run.
func NewIndex(filename string, opts ...IndexOption) (idx *Index, err error) {
	idx = &Index{path: filename}
	for _, opt := range opts {
		opt(idx)
	}
	idx.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	idx.Db.NoSync = true
	idx.Db.MaxBatchDelay = 400 * time.Microsecond
	err = idx.Db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(candidateBucket) != nil {
			if err := tx.DeleteBucket(candidateBucket); err != nil {
				return errors.Wrap(err, "clearing candidates bucket")
			}
		}
		_, err := tx.CreateBucket(candidateBucket)
		return errors.Wrap(err, "creating candidates bucket")
	})
	if err != nil {
		idx.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return idx, nil
}

// Add implements sparkify.CatalogIndex. Concurrent calls are batched into
// shared transactions.
func (idx *Index) Add(rec sparkify.SongRecord) error {
	artist, c, ok := sparkify.NewCandidate(rec)
	if !ok {
		return nil
	}
	key := sparkify.CandidateKey(artist, c)
	err := idx.Db.Batch(func(tx *bolt.Tx) error {
		return tx.Bucket(candidateBucket).Put(key, []byte{})
	})
	return errors.Wrap(err, "putting candidate")
}

// Lookup implements sparkify.CatalogIndex.
func (idx *Index) Lookup(artist, song string) (*sparkify.Match, error) {
	artist = sparkify.NormalizeName(artist)
	if artist == "" {
		return nil, nil
	}
	prefix := sparkify.ArtistPrefix(artist)
	var cands []sparkify.Candidate
	err := idx.Db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(candidateBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			cand, err := sparkify.DecodeCandidate(artist, k)
			if err != nil {
				return err
			}
			cands = append(cands, cand)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning candidates")
	}
	return sparkify.ChooseCandidate(cands, sparkify.NormalizeName(song)), nil
}

// Close syncs and closes the underlying boltdb.
func (idx *Index) Close() error {
	err := idx.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	if err := idx.Db.Close(); err != nil {
		return errors.Wrap(err, "closing db")
	}
	if idx.remove {
		return errors.Wrap(os.Remove(idx.path), "removing db file")
	}
	return nil
}
