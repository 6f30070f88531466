package store

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher observes the JSON snapshot files and reports external edits so
// the engine can reload. Events for either file are debounced into a single
// callback since a save touches both files in quick succession.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *logrus.Logger
	paths    map[string]bool
	onChange func()
	debounce time.Duration
	stop     chan struct{}
}

// NewWatcher creates a watcher over the given snapshot files. onChange runs
// on the watcher goroutine after edits settle.
func NewWatcher(paths []string, debounce time.Duration, onChange func(), logger *logrus.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		logger:   logger,
		paths:    make(map[string]bool, len(paths)),
		onChange: onChange,
		debounce: debounce,
		stop:     make(chan struct{}),
	}

	// Watch the parent directories: the files themselves may not exist yet
	// and atomic saves replace them by rename.
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.watchFiles()
	logger.WithField("paths", paths).Info("Snapshot watcher started")
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}

// watchFiles selects on watcher channels, filters and debounces events.
func (w *Watcher) watchFiles() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"path": event.Name,
				"op":   event.Op.String(),
			}).Debug("Snapshot file changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Snapshot watcher error")
		}
	}
}

// relevant filters events down to writes/creates/renames of the watched
// snapshot files, ignoring the temp files atomic saves leave behind.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.Contains(name, ".tmp-") {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.paths[abs]
}
