package library

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Catalog is the indexed media database: tracks, albums, spatial scenes,
// and an FTS5 shadow table kept in sync by triggers. Grounded on
// original_source/src-tauri/src/db/manager.rs and db/search.rs, ported
// from rusqlite+r2d2 to database/sql over modernc.org/sqlite (pure Go,
// no cgo).
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if absent) the sqlite file at path and
// brings the schema, including the FTS5 index, up to date.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// The scanner writes from many goroutines; sqlite only tolerates one
	// writer at a time, so the pool is capped to serialize writes rather
	// than surface SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			title TEXT,
			artist TEXT,
			album TEXT,
			duration_seconds REAL,
			sample_rate INTEGER,
			art_url TEXT,
			corrupted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS albums (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			artist TEXT,
			UNIQUE(name, artist)
		);
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		);
		CREATE TABLE IF NOT EXISTS spatial_scenes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_path TEXT NOT NULL,
			source_name TEXT NOT NULL,
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			z REAL NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			UNIQUE(track_path, source_name)
		);
		CREATE VIRTUAL TABLE IF NOT EXISTS tracks_fts USING fts5(
			title, artist, album, content='tracks', content_rowid='id'
		);
		CREATE TRIGGER IF NOT EXISTS tracks_ai AFTER INSERT ON tracks BEGIN
			INSERT INTO tracks_fts(rowid, title, artist, album)
			VALUES (new.id, new.title, new.artist, new.album);
		END;
		CREATE TRIGGER IF NOT EXISTS tracks_ad AFTER DELETE ON tracks BEGIN
			INSERT INTO tracks_fts(tracks_fts, rowid, title, artist, album)
			VALUES ('delete', old.id, old.title, old.artist, old.album);
		END;
		CREATE TRIGGER IF NOT EXISTS tracks_au AFTER UPDATE ON tracks BEGIN
			INSERT INTO tracks_fts(tracks_fts, rowid, title, artist, album)
			VALUES ('delete', old.id, old.title, old.artist, old.album);
			INSERT INTO tracks_fts(rowid, title, artist, album)
			VALUES (new.id, new.title, new.artist, new.album);
		END;
	`)
	if err != nil {
		return fmt.Errorf("init catalog schema: %w", err)
	}
	return nil
}

// SaveTrack upserts a track by path. A non-blank album is also mirrored
// into the albums table so album-level browsing doesn't need a DISTINCT
// scan over tracks.
func (c *Catalog) SaveTrack(t TrackInput) error {
	_, err := c.db.Exec(`
		INSERT INTO tracks (path, title, artist, album, duration_seconds, sample_rate, art_url, corrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration_seconds = excluded.duration_seconds,
			sample_rate = excluded.sample_rate,
			art_url = excluded.art_url,
			corrupted = excluded.corrupted,
			updated_at = CURRENT_TIMESTAMP`,
		t.Path, t.Title, t.Artist, t.Album, t.DurationSeconds, t.SampleRate, t.ArtURL, boolToInt(t.Corrupted))
	if err != nil {
		return fmt.Errorf("save track %s: %w", t.Path, err)
	}

	if strings.TrimSpace(t.Album) != "" {
		_, err := c.db.Exec(`INSERT INTO albums (name, artist) VALUES (?, ?)
			ON CONFLICT(name, artist) DO NOTHING`, t.Album, t.Artist)
		if err != nil {
			return fmt.Errorf("save album %s: %w", t.Album, err)
		}
	}
	return nil
}

// DeleteTrack removes a track row by path (a no-op if absent).
func (c *Catalog) DeleteTrack(path string) error {
	_, err := c.db.Exec(`DELETE FROM tracks WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete track %s: %w", path, err)
	}
	return nil
}

// Tracks returns every track, ordered for browsing (artist, album,
// title, then path as a tiebreak).
func (c *Catalog) Tracks() ([]TrackRecord, error) {
	rows, err := c.db.Query(`
		SELECT id, path, title, artist, album, duration_seconds, sample_rate, art_url, corrupted
		FROM tracks
		ORDER BY artist COLLATE NOCASE, album COLLATE NOCASE, title COLLATE NOCASE, path`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// Search runs an FTS5 prefix query over title/artist/album and groups
// the results, grounded on
// original_source/src-tauri/src/db/search.rs's fast_search.
func (c *Catalog) Search(query string) (SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResults{}, nil
	}

	ftsQuery := toFTSQuery(query)

	trackRows, err := c.db.Query(`
		SELECT t.id, t.path, t.title, t.artist, t.album, t.duration_seconds, t.sample_rate, t.art_url, t.corrupted
		FROM tracks_fts f
		JOIN tracks t ON t.id = f.rowid
		WHERE tracks_fts MATCH ?
		ORDER BY rank
		LIMIT 100`, ftsQuery)
	if err != nil {
		return SearchResults{}, fmt.Errorf("fts track query: %w", err)
	}
	tracks, err := scanTrackRows(trackRows)
	trackRows.Close()
	if err != nil {
		return SearchResults{}, err
	}

	albums, err := c.distinctFTSColumn(ftsQuery, "album")
	if err != nil {
		return SearchResults{}, err
	}
	artists, err := c.distinctFTSColumn(ftsQuery, "artist")
	if err != nil {
		return SearchResults{}, err
	}

	return SearchResults{Tracks: tracks, Albums: albums, Artists: artists}, nil
}

func (c *Catalog) distinctFTSColumn(ftsQuery, column string) ([]string, error) {
	q := fmt.Sprintf(`
		SELECT DISTINCT t.%s
		FROM tracks_fts f
		JOIN tracks t ON t.id = f.rowid
		WHERE tracks_fts MATCH ? AND t.%s IS NOT NULL AND t.%s != ''
		ORDER BY rank
		LIMIT 50`, column, column, column)
	rows, err := c.db.Query(q, ftsQuery)
	if err != nil {
		return nil, fmt.Errorf("fts %s query: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan fts %s row: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// toFTSQuery quotes and prefix-expands each whitespace-separated token,
// so "Michael Jack" matches "Michael Jackson".
func toFTSQuery(query string) string {
	fields := strings.Fields(query)
	parts := make([]string, 0, len(fields))
	for _, word := range fields {
		word = strings.ReplaceAll(word, `"`, "")
		if word == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`"%s"*`, word))
	}
	return strings.Join(parts, " ")
}

func scanTrackRows(rows *sql.Rows) ([]TrackRecord, error) {
	var out []TrackRecord
	for rows.Next() {
		var (
			rec                  TrackRecord
			title, artist, album sql.NullString
			duration             sql.NullFloat64
			sampleRate           sql.NullInt64
			artURL               sql.NullString
			corrupted            int
		)
		if err := rows.Scan(&rec.ID, &rec.Path, &title, &artist, &album, &duration, &sampleRate, &artURL, &corrupted); err != nil {
			return nil, fmt.Errorf("scan track row: %w", err)
		}
		rec.Title = title.String
		rec.Artist = artist.String
		rec.Album = album.String
		rec.DurationSeconds = duration.Float64
		rec.SampleRate = int(sampleRate.Int64)
		rec.ArtURL = artURL.String
		rec.Corrupted = corrupted != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSpatialScene upserts a single source placement for a track.
func (c *Catalog) SaveSpatialScene(s SpatialScene) error {
	_, err := c.db.Exec(`
		INSERT INTO spatial_scenes (track_path, source_name, x, y, z, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_path, source_name) DO UPDATE SET
			x = excluded.x, y = excluded.y, z = excluded.z, active = excluded.active`,
		s.TrackPath, s.SourceName, s.X, s.Y, s.Z, boolToInt(s.Active))
	if err != nil {
		return fmt.Errorf("save spatial scene %s/%s: %w", s.TrackPath, s.SourceName, err)
	}
	return nil
}

// LoadSpatialScene returns every source placement saved for a track.
func (c *Catalog) LoadSpatialScene(trackPath string) ([]SpatialScene, error) {
	rows, err := c.db.Query(`
		SELECT track_path, source_name, x, y, z, active
		FROM spatial_scenes WHERE track_path = ? ORDER BY source_name`, trackPath)
	if err != nil {
		return nil, fmt.Errorf("query spatial scene %s: %w", trackPath, err)
	}
	defer rows.Close()

	var out []SpatialScene
	for rows.Next() {
		var s SpatialScene
		var active int
		if err := rows.Scan(&s.TrackPath, &s.SourceName, &s.X, &s.Y, &s.Z, &active); err != nil {
			return nil, fmt.Errorf("scan spatial scene row: %w", err)
		}
		s.Active = active != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSpatialScene removes every saved placement for a track.
func (c *Catalog) DeleteSpatialScene(trackPath string) error {
	_, err := c.db.Exec(`DELETE FROM spatial_scenes WHERE track_path = ?`, trackPath)
	if err != nil {
		return fmt.Errorf("delete spatial scene %s: %w", trackPath, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
