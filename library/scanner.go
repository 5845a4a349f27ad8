package library

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"
	"golang.org/x/sync/errgroup"
)

// audioExtensions mirrors original_source/src-tauri/src/library/scanner.rs's
// collect_audio_files filter.
var audioExtensions = map[string]bool{
	".flac": true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
}

// Scanner walks a library root and persists extracted tag metadata into
// a Catalog, fanning work out across a worker pool the way
// scanner.rs's par_iter does. Grounded on scanner.rs, with
// rayon::par_iter replaced by golang.org/x/sync/errgroup (the pattern
// iamvalenciia-kick-game-stream's goroutine pools also use for bounded
// fan-out).
type Scanner struct {
	Catalog *Catalog
	// Workers bounds concurrent extraction goroutines; zero uses a
	// small fixed default.
	Workers int
}

// NewScanner builds a Scanner over an already-open Catalog.
func NewScanner(catalog *Catalog) *Scanner {
	return &Scanner{Catalog: catalog, Workers: 8}
}

// ScanPath walks root, extracts tag metadata from every recognized audio
// file, and upserts each into the catalog. Returns the number of tracks
// saved. A failure to persist one track is logged and skipped rather
// than aborting the whole scan — one bad file must not stop indexing
// the rest of the library.
func (s *Scanner) ScanPath(root string) (int, error) {
	files := collectAudioFiles(root)

	workers := s.Workers
	if workers <= 0 {
		workers = 8
	}

	var saved int64
	var g errgroup.Group
	g.SetLimit(workers)

	for _, path := range files {
		path := path
		g.Go(func() error {
			track, err := extractTrack(path)
			if err != nil {
				log.Warn("scan: extract failed, indexing as corrupted", "path", path, "err", err)
				track = TrackInput{Path: path, Title: stemOf(path), Corrupted: true}
			}
			if err := s.Catalog.SaveTrack(track); err != nil {
				log.Error("scan: failed to persist track", "path", path, "err", err)
				return nil
			}
			atomic.AddInt64(&saved, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(saved), err
	}
	return int(saved), nil
}

func collectAudioFiles(root string) []string {
	var out []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if audioExtensions[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
		return nil
	})
	return out
}

// extractTrack reads tag metadata for one file. A corrupted or
// untaggable file still yields a usable (if sparse) TrackInput, marked
// Corrupted here so it stays searchable, per spec.md §7's
// "corrupted library entry ... still indexed but flagged" rule.
func extractTrack(path string) (TrackInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return TrackInput{}, err
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return TrackInput{Path: path, Title: stemOf(path), Corrupted: true}, nil
	}

	title := meta.Title()
	if title == "" {
		title = stemOf(path)
	}

	return TrackInput{
		Path:   path,
		Title:  title,
		Artist: firstNonEmpty(meta.Artist(), meta.AlbumArtist()),
		Album:  meta.Album(),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
