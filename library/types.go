// Package library implements the parallel filesystem scanner, indexed
// catalog, full-text search surface, and content-addressed caches that
// back the media library (spec.md §6). Unlike the player/dsp packages,
// this subsystem is specified only at the interface level: the shapes
// below are the contract the rest of the core consumes, not a
// performance-critical hot path.
package library

// TrackInput is what the scanner (or any other caller) feeds into the
// catalog to persist or update a track row.
type TrackInput struct {
	Path            string
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
	SampleRate      int
	ArtURL          string
	Corrupted       bool
}

// TrackRecord is a row read back from the catalog.
type TrackRecord struct {
	ID              int64
	Path            string
	Title           string
	Artist          string
	Album           string
	DurationSeconds float64
	SampleRate      int
	ArtURL          string
	Corrupted       bool
}

// SpatialScene is a persisted per-source spatializer placement, keyed by
// (track path, source name).
type SpatialScene struct {
	TrackPath  string
	SourceName string
	X, Y, Z    float32
	Active     bool
}

// SearchResults groups a full-text query's matches the way the UI
// consumes them: a ranked track list plus the distinct albums/artists
// touched by those matches.
type SearchResults struct {
	Tracks  []TrackRecord
	Albums  []string
	Artists []string
}
