package server

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/wasmserve/internal/log"
	"github.com/Kush-Singh-26/wasmserve/internal/router"
)

// BuildWatcher watches the serving root for build directories appearing
// or disappearing and reports debounced build-state changes.
type BuildWatcher struct {
	root     string
	fs       afero.Fs
	layout   router.Layout
	debounce time.Duration
	onChange func(prev, next router.BuildState)

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu       sync.Mutex
	state    router.BuildState
	outWatch bool
	timer    *time.Timer
	closed   bool
}

// NewBuildWatcher creates a watcher for root, the OS directory behind fs.
// onChange runs on the watcher's goroutine.
func NewBuildWatcher(root string, fs afero.Fs, layout router.Layout, debounce time.Duration, onChange func(prev, next router.BuildState)) *BuildWatcher {
	return &BuildWatcher{
		root:     root,
		fs:       fs,
		layout:   layout,
		debounce: debounce,
		onChange: onChange,
		state:    router.DetectBuildState(fs, layout),
	}
}

// State returns the last build state seen.
func (w *BuildWatcher) State() router.BuildState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start begins watching. Events are processed until Close.
func (w *BuildWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(w.root); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch directory %s: %w", w.root, err)
	}
	w.watcher = fw
	w.watchOutDir()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Chmod != 0 {
					continue
				}
				w.schedule()

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Warnw("watcher error", "error", err.Error())
			}
		}
	}()
	return nil
}

// watchOutDir adds the output directory so its index document is seen.
func (w *BuildWatcher) watchOutDir() {
	if w.watcher == nil {
		return
	}
	outDir := filepath.Join(w.root, filepath.FromSlash(w.layout.OutDir))
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.outWatch {
		return
	}
	if err := w.watcher.Add(outDir); err == nil {
		w.outWatch = true
	}
}

// schedule debounces bursts of events (a build writes many files).
func (w *BuildWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.check)
}

// check re-reads the build state and reports a change.
func (w *BuildWatcher) check() {
	next := router.DetectBuildState(w.fs, w.layout)

	w.mu.Lock()
	prev := w.state
	w.state = next
	if !next.Production {
		// The directory is gone; fsnotify dropped its watch.
		w.outWatch = false
	}
	closed := w.closed
	w.mu.Unlock()

	if next.Production {
		w.watchOutDir()
	}
	if closed || prev == next {
		return
	}
	log.Infow("build state changed",
		"production", next.Production,
		"index", next.Index,
		"development", next.Development,
		"mode", next.Mode(),
	)
	if w.onChange != nil {
		w.onChange(prev, next)
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *BuildWatcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
	}
	w.wg.Wait()
	return err
}
