// Command powerline is a smoke-test CLI for the playback engine: it loads
// a queue of audio files and plays them back-to-back with gapless
// hand-off, with no UI surface of its own.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"powerline/dsp"
	"powerline/library"
	"powerline/player"
	"powerline/playlist"
)

func run() error {
	sampleRate := flag.Float64("rate", 44100, "output sample rate in Hz")
	volume := flag.Float64("volume", 1.0, "initial linear volume [0,1]")
	preampDb := flag.Float64("preamp", 0, "pre-amp gain in dB")
	reverbPreset := flag.String("reverb", "", "reverb preset name (Estudio, Sala Grande, Club, Iglesia)")
	spatial := flag.Bool("spatial", false, "enable the binaural spatializer and auto-orchestrate sources")
	libraryDB := flag.String("library-db", "", "path to the library catalog sqlite file")
	scanPath := flag.String("scan", "", "scan this directory into -library-db and exit")
	searchQuery := flag.String("search", "", "run a full-text search against -library-db and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: powerline [flags] <file.mp3> [file2.flac ...]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "powerline"})

	if *scanPath != "" || *searchQuery != "" {
		if *libraryDB == "" {
			return errors.New("-scan/-search require -library-db")
		}
		catalog, err := library.OpenCatalog(*libraryDB)
		if err != nil {
			return fmt.Errorf("open library catalog: %w", err)
		}
		defer catalog.Close()

		if *scanPath != "" {
			scanner := library.NewScanner(catalog)
			count, err := scanner.ScanPath(*scanPath)
			if err != nil {
				return fmt.Errorf("scan %s: %w", *scanPath, err)
			}
			logger.Info("scan complete", "path", *scanPath, "tracks", count)
		}
		if *searchQuery != "" {
			results, err := catalog.Search(*searchQuery)
			if err != nil {
				return fmt.Errorf("search %q: %w", *searchQuery, err)
			}
			for _, t := range results.Tracks {
				fmt.Printf("%s — %s (%s)\n", t.Artist, t.Title, t.Path)
			}
		}
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return errors.New("usage: powerline [flags] <file.mp3> [file2.flac ...]")
	}

	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			files = append(files, arg)
		} else {
			files = append(files, matches...)
		}
	}

	pl := playlist.New()
	for _, f := range files {
		pl.Add(playlist.TrackFromPath(f))
	}

	engine := player.NewEngine(*sampleRate)
	defer engine.Close()

	engine.SetVolume(*volume)
	engine.SetPreampDb(*preampDb)
	if *reverbPreset != "" {
		if preset, ok := dsp.LookupPreset(*reverbPreset); ok {
			engine.Graph.Reverb.LoadPreset(preset)
		} else {
			logger.Warn("unknown reverb preset", "name", *reverbPreset)
		}
	}
	if *spatial {
		engine.Graph.Spatializer.SetEnabled(true)
		engine.Graph.AutoOrchestra()
	}

	go func() {
		for ev := range engine.Events() {
			if ev.LyricsLineChanged != nil && ev.LyricsLineChanged.Index >= 0 {
				logger.Info("lyric", "text", ev.LyricsLineChanged.Text)
			}
		}
	}()

	for i := 0; i < pl.Len(); i++ {
		pl.SetIndex(i)
		track, _ := pl.Current()
		logger.Info("loading track", "path", track.Path)

		if err := engine.LoadTrack(track.Path); err != nil {
			logger.Error("load failed", "path", track.Path, "err", err)
			continue
		}
		if next, ok := pl.PeekNext(); ok {
			engine.SetNextTrack(next.Path)
		}

		for engine.CurrentFrame() < uint32(engine.TrackDurationSeconds()*engine.OutputRateHz()) {
			time.Sleep(200 * time.Millisecond)
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
