package library

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectAudioFilesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.flac", "c.txt", "d.jpg", "e.OGG"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "f.wav"), []byte("x"), 0o644))

	files := collectAudioFiles(dir)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.mp3", "b.flac", "e.OGG", "f.wav"}, names)
}

// TestScanPathIndexesUntaggableFilesAsCorrupted mirrors spec.md §7: a
// corrupted library entry is still indexed but flagged corrupted=true and
// kept searchable.
func TestScanPathIndexesUntaggableFilesAsCorrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mysterysong.mp3"), []byte("not a valid mp3 frame"), 0o644))

	catalog := openTestCatalog(t)
	scanner := NewScanner(catalog)

	saved, err := scanner.ScanPath(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	tracks, err := catalog.Tracks()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.True(t, tracks[0].Corrupted)
	assert.Equal(t, "mysterysong", tracks[0].Title)

	results, err := catalog.Search("mysterysong")
	require.NoError(t, err)
	assert.Len(t, results.Tracks, 1, "corrupted tracks must remain searchable")
}

func TestScanPathEmptyDirectory(t *testing.T) {
	catalog := openTestCatalog(t)
	scanner := NewScanner(catalog)

	saved, err := scanner.ScanPath(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, saved)
}
