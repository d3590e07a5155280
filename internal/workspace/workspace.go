package workspace

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/lattice/internal/arena"
	"github.com/orizon-lang/lattice/internal/lexis"
	"github.com/orizon-lang/lattice/internal/semantic"
)

// Workspace mirrors the matching files of a directory into analyzer
// documents and keeps them synchronized while watching.
type Workspace struct {
	analyzer *semantic.Analyzer
	root     string
	config   *Config

	mu    sync.RWMutex
	files map[string]arena.Id

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open loads the workspace config of root and registers every matching
// file as a mutable document.
func Open(root string, analyzer *semantic.Analyzer) (*Workspace, error) {
	config, err := LoadConfig(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		analyzer: analyzer,
		root:     root,
		config:   config,
		files:    make(map[string]arena.Id),
	}

	for _, pattern := range config.Include {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("workspace: glob %q: %w", pattern, err)
		}
		for _, path := range matches {
			if err := w.load(path); err != nil {
				return nil, err
			}
		}
	}
	return w, nil
}

// Config returns the loaded configuration.
func (w *Workspace) Config() *Config {
	return w.config
}

// Documents returns the path -> document mapping.
func (w *Workspace) Documents() map[string]arena.Id {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make(map[string]arena.Id, len(w.files))
	for path, id := range w.files {
		files[path] = id
	}
	return files
}

// DocumentFor resolves the document backing a file path.
func (w *Workspace) DocumentFor(path string) (arena.Id, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.files[path]
	return id, ok
}

func (w *Workspace) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("workspace: reading %s: %w", path, err)
	}
	id := w.analyzer.AddMutable(string(data))
	w.mu.Lock()
	w.files[path] = id
	w.mu.Unlock()
	return nil
}

// matches reports whether path is covered by the include globs.
func (w *Workspace) matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.config.Include {
		if ok, _ := filepath.Match(filepath.Base(pattern), base); ok {
			return true
		}
	}
	return false
}

// Watch starts mirroring file system changes into the analyzer until
// Close is called.
func (w *Workspace) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("workspace: starting watcher: %w", err)
	}
	if err := watcher.Add(w.root); err != nil {
		watcher.Close()
		return fmt.Errorf("workspace: watching %s: %w", w.root, err)
	}
	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop()
	return nil
}

func (w *Workspace) loop() {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce())
			} else {
				timer.Reset(w.config.Debounce())
			}
			fire = timer.C
		case <-fire:
			for path := range pending {
				w.sync(path)
				delete(pending, path)
			}
			fire = nil
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("workspace: watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// sync replays the current file contents into the backing document with
// one whole-span write, or registers/removes the document as files come
// and go.
func (w *Workspace) sync(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.mu.Lock()
			id, ok := w.files[path]
			delete(w.files, path)
			w.mu.Unlock()
			if ok {
				w.analyzer.RemoveDocument(id)
			}
			return
		}
		log.Printf("workspace: reading %s: %v", path, err)
		return
	}

	id, ok := w.DocumentFor(path)
	if !ok {
		if err := w.load(path); err != nil {
			log.Printf("workspace: %v", err)
		}
		return
	}

	task := w.analyzer.Mutate(nil)
	defer task.Release()
	if err := task.Write(id, lexis.All{}, string(data)); err != nil {
		log.Printf("workspace: syncing %s: %v", path, err)
	}
}

// Close stops watching. Documents stay registered.
func (w *Workspace) Close() {
	if w.watcher != nil {
		close(w.done)
		w.watcher.Close()
		w.watcher = nil
	}
}
