package library

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/image/draw"
)

// thumbnailSize and maxCacheFiles mirror
// original_source/src-tauri/src/library/art_cache.rs's constants
// exactly (256x256 @ quality 80, flat-prune at 512 entries).
const (
	thumbnailSize = 256
	maxCacheFiles = 512
	jpegQuality   = 80
)

// ContentCache is a flat, SHA-256-addressed directory with LRU pruning
// at a fixed entry cap, shared by the cover-art, lyric, and stem caches.
// Grounded on art_cache.rs's cache_file_path/prune_flat_cache_dir, which
// the original applies only to cover art; this core generalizes the same
// policy to all three caches named in spec.md §6/§9.
type ContentCache struct {
	dir string
	ext string
}

// NewContentCache builds a cache rooted at dir, creating it if absent.
// ext is the file extension (including the dot) written for each entry.
func NewContentCache(dir, ext string) (*ContentCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &ContentCache{dir: dir, ext: ext}, nil
}

// KeyFor hashes an absolute track path into the cache's addressing
// scheme, per spec.md §6 ("content-addressed by SHA-256 of the absolute
// track path").
func KeyFor(trackPath string) string {
	sum := sha256.Sum256([]byte(trackPath))
	return fmt.Sprintf("%x", sum)
}

func (c *ContentCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+c.ext)
}

// Has reports whether an entry for key already exists.
func (c *ContentCache) Has(key string) bool {
	_, err := os.Stat(c.pathFor(key))
	return err == nil
}

// Path returns the on-disk path an entry for key would occupy, whether
// or not it currently exists.
func (c *ContentCache) Path(key string) string {
	return c.pathFor(key)
}

// Write stores bytes under key, pruning the oldest entries first if the
// cache is at capacity. A pre-existing entry is left untouched (cache
// writes are idempotent by design — see art_cache.rs's `if !cache_file.exists()`).
func (c *ContentCache) Write(key string, data []byte) (string, error) {
	path := c.pathFor(key)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	c.prune(maxCacheFiles)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write cache entry %s: %w", path, err)
	}
	return path, nil
}

// Read loads a cached entry's bytes, or (nil, false) if absent.
func (c *ContentCache) Read(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// prune deletes the oldest files in the cache directory until at most
// maxEntries remain, mirroring art_cache.rs's prune_flat_cache_dir.
func (c *ContentCache) prune(maxEntries int) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	type fileAge struct {
		path string
		mod  time.Time
	}
	var files []fileAge
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileAge{filepath.Join(c.dir, e.Name()), info.ModTime()})
	}
	if len(files) < maxEntries {
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })
	for _, f := range files[:len(files)-maxEntries+1] {
		os.Remove(f.path)
	}
}

// ArtCache stores JPEG cover-art thumbnails, content-addressed by the
// owning track's path.
type ArtCache struct {
	*ContentCache
}

// NewArtCache builds a cover-art thumbnail cache rooted at dir.
func NewArtCache(dir string) (*ArtCache, error) {
	c, err := NewContentCache(dir, ".jpg")
	if err != nil {
		return nil, err
	}
	return &ArtCache{c}, nil
}

// CacheCoverArt decodes embedded cover-art bytes, downsamples to
// thumbnailSize x thumbnailSize, and stores it as a quality-80 JPEG,
// returning the cached file's path. Grounded on art_cache.rs's
// cache_cover_bytes, with `image::thumbnail` replaced by
// golang.org/x/image/draw's bilinear scaler (the ecosystem's nearest
// equivalent with no cgo dependency).
func (a *ArtCache) CacheCoverArt(trackPath string, coverBytes []byte) (string, error) {
	key := KeyFor(trackPath)
	if a.Has(key) {
		return a.Path(key), nil
	}

	src, _, err := image.Decode(bytes.NewReader(coverBytes))
	if err != nil {
		return "", fmt.Errorf("decode embedded cover art: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, thumbnailSize, thumbnailSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode cover thumbnail: %w", err)
	}

	return a.Write(key, buf.Bytes())
}

// LyricCache stores raw LRC text, content-addressed by track path.
type LyricCache struct {
	*ContentCache
}

// NewLyricCache builds an LRC text cache rooted at dir.
func NewLyricCache(dir string) (*LyricCache, error) {
	c, err := NewContentCache(dir, ".lrc")
	if err != nil {
		return nil, err
	}
	return &LyricCache{c}, nil
}

// Store saves lrcText for trackPath, returning the cached path.
func (l *LyricCache) Store(trackPath, lrcText string) (string, error) {
	return l.Write(KeyFor(trackPath), []byte(lrcText))
}

// Load returns the cached LRC text for trackPath, if any.
func (l *LyricCache) Load(trackPath string) (string, bool) {
	data, ok := l.Read(KeyFor(trackPath))
	if !ok {
		return "", false
	}
	return string(data), true
}
