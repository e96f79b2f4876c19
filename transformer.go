package sparkify

// ArtistTransformer enriches artist rows after they are extracted from the
// catalog and before they are written.
type ArtistTransformer interface {
	TransformArtist(a *Artist) error
}

// ArtistTransformerFunc adapts a function to the ArtistTransformer interface.
type ArtistTransformerFunc func(*Artist) error

// TransformArtist implements ArtistTransformer.
func (t ArtistTransformerFunc) TransformArtist(a *Artist) error {
	return t(a)
}
