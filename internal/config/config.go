// Package config persists the admin configuration surface: the list of
// zone configs and the selected media-provider key. It is grounded on the
// teacher's JSONStore (atomic write-then-rename, 500ms debounce) with
// fsnotify hot-reload layered on top, adapted from the teacher's
// auth.Service credential-file watch.
package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rudyberends/lox-audioserver-sub001/internal/zone"
)

const debounceDelay = 500 * time.Millisecond

// Document is the persisted shape: the zone list plus the active provider.
type Document struct {
	Zones           []zone.Config `json:"zones"`
	Provider        string        `json:"provider"`
	ProviderOptions map[string]string `json:"providerOptions,omitempty"`
}

func defaultDocument() Document {
	return Document{Zones: []zone.Config{}, Provider: "dummy"}
}

// Store is an atomic JSON file store with debounced writes and fsnotify
// hot-reload.
type Store struct {
	path string

	mu      sync.Mutex
	timer   *time.Timer
	pending *Document

	watcherMu sync.Mutex
	watcher   *fsnotify.Watcher
	onReload  func(Document)
}

// New creates a Store backed by configDir/configFile. An empty configFile
// defaults to "config.json".
func New(configDir, configFile string) *Store {
	if configFile == "" {
		configFile = "config.json"
	}
	return &Store{path: filepath.Join(configDir, configFile)}
}

// Path returns the file path this store reads and writes.
func (s *Store) Path() string { return s.path }

// Load reads the document from disk, returning defaults on ENOENT or a
// corrupt file.
func (s *Store) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultDocument(), nil
		}
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("config: corrupt document, using defaults", "path", s.path, "err", err)
		return defaultDocument(), nil
	}
	return doc, nil
}

// Save schedules a debounced atomic write.
func (s *Store) Save(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := doc
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		d := s.pending
		s.mu.Unlock()
		if d != nil {
			if err := s.writeAtomic(*d); err != nil {
				slog.Error("config: failed to write document", "path", s.path, "err", err)
			}
		}
	})
}

// Flush forces an immediate write of any pending document.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	d := s.pending
	s.mu.Unlock()
	if d == nil {
		return nil
	}
	return s.writeAtomic(*d)
}

func (s *Store) writeAtomic(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// WatchReload starts an fsnotify watch on the config file's directory and
// invokes onReload with the freshly loaded document whenever the file
// changes on disk (e.g. edited out of band). Call Close to stop watching.
func (s *Store) WatchReload(onReload func(Document)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}

	s.watcherMu.Lock()
	s.watcher = w
	s.onReload = onReload
	s.watcherMu.Unlock()

	go s.watchLoop(w)
	return nil
}

func (s *Store) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			doc, err := s.Load()
			if err != nil {
				slog.Warn("config: reload after fsnotify event failed", "err", err)
				continue
			}
			if s.onReload != nil {
				s.onReload(doc)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("config: fsnotify watcher error", "err", err)
		}
	}
}

// Close stops the hot-reload watch, if any.
func (s *Store) Close() error {
	s.watcherMu.Lock()
	defer s.watcherMu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
