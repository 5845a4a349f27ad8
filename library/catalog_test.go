package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	c, err := OpenCatalog(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSaveAndListTracks(t *testing.T) {
	c := openTestCatalog(t)

	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/a.mp3", Title: "Alpha", Artist: "Band A", Album: "One"}))
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/b.mp3", Title: "Beta", Artist: "Band B", Album: "Two"}))

	tracks, err := c.Tracks()
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Band A", tracks[0].Artist)
	assert.Equal(t, "Band B", tracks[1].Artist)
}

func TestSaveTrackUpsertsByPath(t *testing.T) {
	c := openTestCatalog(t)

	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/a.mp3", Title: "Old Title"}))
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/a.mp3", Title: "New Title"}))

	tracks, err := c.Tracks()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "New Title", tracks[0].Title)
}

func TestCorruptedTrackStaysSearchable(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/broken.mp3", Title: "Broken Song", Corrupted: true}))

	results, err := c.Search("Broken")
	require.NoError(t, err)
	require.Len(t, results.Tracks, 1)
	assert.True(t, results.Tracks[0].Corrupted)
}

func TestDeleteTrackRemovesRow(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/a.mp3", Title: "Alpha"}))
	require.NoError(t, c.DeleteTrack("/music/a.mp3"))

	tracks, err := c.Tracks()
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestSearchPrefixMatchesAcrossFields(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/a.mp3", Title: "Moonlight Sonata", Artist: "Beethoven", Album: "Piano Works"}))
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/b.mp3", Title: "Fur Elise", Artist: "Beethoven", Album: "Piano Works"}))
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/c.mp3", Title: "Clair de Lune", Artist: "Debussy", Album: "Suite Bergamasque"}))

	results, err := c.Search("Beeth")
	require.NoError(t, err)
	assert.Len(t, results.Tracks, 2)
	assert.Contains(t, results.Artists, "Beethoven")
}

func TestSearchEmptyQueryReturnsEmptyResults(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveTrack(TrackInput{Path: "/music/a.mp3", Title: "Alpha"}))

	results, err := c.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, results.Tracks)
}

func TestSpatialSceneRoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	scene := SpatialScene{TrackPath: "/music/a.mp3", SourceName: "vocals", X: 1, Y: 2, Z: 1.7, Active: true}
	require.NoError(t, c.SaveSpatialScene(scene))

	loaded, err := c.LoadSpatialScene("/music/a.mp3")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, scene, loaded[0])
}

func TestSpatialSceneUpsertOverwrites(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveSpatialScene(SpatialScene{TrackPath: "/a.mp3", SourceName: "bass", X: 0, Y: 0, Z: 0, Active: true}))
	require.NoError(t, c.SaveSpatialScene(SpatialScene{TrackPath: "/a.mp3", SourceName: "bass", X: 5, Y: 5, Z: 5, Active: false}))

	loaded, err := c.LoadSpatialScene("/a.mp3")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, float32(5), loaded[0].X)
	assert.False(t, loaded[0].Active)
}

func TestDeleteSpatialSceneRemovesAllSourcesForTrack(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.SaveSpatialScene(SpatialScene{TrackPath: "/a.mp3", SourceName: "bass", Active: true}))
	require.NoError(t, c.SaveSpatialScene(SpatialScene{TrackPath: "/a.mp3", SourceName: "drums", Active: true}))

	require.NoError(t, c.DeleteSpatialScene("/a.mp3"))

	loaded, err := c.LoadSpatialScene("/a.mp3")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
