// Package geohash fills in the geohash column of artist rows.
package geohash

import (
	"github.com/mmcloughlin/geohash"
	"github.com/pilosa/sparkify"
)

// DefaultPrecision is the number of characters in a geohash by default.
const DefaultPrecision = 12

// Transformer is a sparkify.ArtistTransformer which sets an artist's Geohash
// from its latitude and longitude. Artists with a missing or out of range
// coordinate get no geohash.
type Transformer struct {
	Precision uint
}

var _ sparkify.ArtistTransformer = &Transformer{}

// NewTransformer gets a Transformer with the default precision.
func NewTransformer() *Transformer {
	return &Transformer{Precision: DefaultPrecision}
}

// TransformArtist implements sparkify.ArtistTransformer.
func (t *Transformer) TransformArtist(a *sparkify.Artist) error {
	a.Geohash = nil
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	lat, lon := *a.Latitude, *a.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	hsh := geohash.EncodeWithPrecision(lat, lon, t.Precision)
	a.Geohash = &hsh
	return nil
}
