package library

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher applies incremental catalog updates as files change under a
// watched root, so a full rescan isn't needed after every edit. There is
// no original_source analogue for this (the Tauri shell polled instead);
// grounded on the pack's fsnotify usage convention (watch a directory
// tree, dispatch by event op) rather than any single file, since no pack
// repo happens to watch music directories specifically.
type Watcher struct {
	catalog *Catalog
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching root (and its subdirectories) for changes,
// applying create/write/remove/rename events to catalog as they arrive.
func NewWatcher(catalog *Catalog, root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			_ = fsw.Add(path)
		}
		return nil
	})

	w := &Watcher{catalog: catalog, fsw: fsw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("library watch error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !audioExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := w.catalog.DeleteTrack(event.Name); err != nil {
			log.Error("library watch: delete failed", "path", event.Name, "err", err)
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		track, err := extractTrack(event.Name)
		if err != nil {
			return
		}
		if err := w.catalog.SaveTrack(track); err != nil {
			log.Error("library watch: save failed", "path", event.Name, "err", err)
		}
	}
}

// Close stops the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
