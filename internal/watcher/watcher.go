// Package watcher reports changed source files under a directory tree using
// fsnotify, debouncing the bursts of events editors emit on save.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var ignoreDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
}

const debounceInterval = 200 * time.Millisecond

type Watcher struct {
	fw       *fsnotify.Watcher
	keep     func(path string) bool
	onChange func(path string)
	done     chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// New starts a watcher with no directories. onChange is called, from the
// watcher's single goroutine, with the path of each written or created file
// accepted by keep; a nil keep accepts every file.
func New(keep func(path string) bool, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		keep:     keep,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch adds root and its subdirectories. It may be called for several roots.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	return filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignoreDirs[d.Name()] && path != absRoot {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

func (w *Watcher) loop() {
	seen := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			path := event.Name

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if !ignoreDirs[info.Name()] {
						_ = w.fw.Add(path)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.keep != nil && !w.keep(path) {
				continue
			}

			now := time.Now()
			if last, ok := seen[path]; ok && now.Sub(last) < debounceInterval {
				continue
			}
			seen[path] = now
			w.onChange(path)

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}

		case <-w.done:
			return
		}
	}
}

// Stop ends monitoring; it is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}
