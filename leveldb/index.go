// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package leveldb provides a sparkify.CatalogIndex stored in a leveldb
// directory, for song catalogs too large to index in memory.
package leveldb

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pilosa/sparkify"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Index is a sparkify.CatalogIndex which stores candidates in leveldb, keyed
// by sparkify.CandidateKey.
type Index struct {
	db      *leveldb.DB
	dirname string
	remove  bool
}

var _ sparkify.CatalogIndex = &Index{}

// IndexOption is a functional option for Index.
type IndexOption func(idx *Index)

// OptIndexRemoveOnClose deletes the leveldb directory when the index is
// closed.
func OptIndexRemoveOnClose() IndexOption {
	return func(idx *Index) {
		idx.remove = true
	}
}

// NewIndex opens a fresh leveldb in dirname. A leveldb already in dirname is
// removed first, so each run starts from an empty index. A non-empty
// directory which does not hold a leveldb is refused rather than removed.
func NewIndex(dirname string, opts ...IndexOption) (*Index, error) {
	if err := checkIndexDir(dirname); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(dirname); err != nil {
		return nil, errors.Wrapf(err, "removing previous index in %s", dirname)
	}
	db, err := leveldb.OpenFile(dirname, &opt.Options{ErrorIfExist: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb in %s", dirname)
	}
	idx := &Index{db: db, dirname: dirname}
	for _, o := range opts {
		o(idx)
	}
	return idx, nil
}

// checkIndexDir returns an error if dirname is a file, or a non-empty
// directory without a leveldb CURRENT file.
func checkIndexDir(dirname string) error {
	fi, err := os.Stat(dirname)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "checking index path %s", dirname)
	}
	if !fi.IsDir() {
		return errors.Errorf("index path %s is not a directory", dirname)
	}
	entries, err := ioutil.ReadDir(dirname)
	if err != nil {
		return errors.Wrapf(err, "reading index path %s", dirname)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dirname, "CURRENT")); err != nil {
		return errors.Errorf("index path %s is not empty and does not hold a leveldb index", dirname)
	}
	return nil
}

// Add implements sparkify.CatalogIndex.
func (idx *Index) Add(rec sparkify.SongRecord) error {
	artist, c, ok := sparkify.NewCandidate(rec)
	if !ok {
		return nil
	}
	return errors.Wrap(idx.db.Put(sparkify.CandidateKey(artist, c), []byte{}, nil), "putting candidate")
}

// Lookup implements sparkify.CatalogIndex.
func (idx *Index) Lookup(artist, song string) (*sparkify.Match, error) {
	artist = sparkify.NormalizeName(artist)
	if artist == "" {
		return nil, nil
	}
	iter := idx.db.NewIterator(util.BytesPrefix(sparkify.ArtistPrefix(artist)), nil)
	defer iter.Release()
	var cands []sparkify.Candidate
	for iter.Next() {
		cand, err := sparkify.DecodeCandidate(artist, iter.Key())
		if err != nil {
			return nil, err
		}
		cands = append(cands, cand)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "scanning candidates")
	}
	return sparkify.ChooseCandidate(cands, sparkify.NormalizeName(song)), nil
}

// Close closes the underlying leveldb.
func (idx *Index) Close() error {
	if err := idx.db.Close(); err != nil {
		return errors.Wrapf(err, "closing leveldb in %s", idx.dirname)
	}
	if idx.remove {
		return errors.Wrap(os.RemoveAll(idx.dirname), "removing leveldb directory")
	}
	return nil
}
