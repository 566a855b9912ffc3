// Package watcher drives incremental reindexing from filesystem change
// events. It is a thin fsnotify layer over Indexer.UpdateFile/DeleteFile —
// unlike the teacher's daemon/actor registry, there is no background
// service or multi-project coordination here, per SPEC_FULL.md §9's
// decision to keep this module's watch mode in-process.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/localrag/localrag/internal/indexer"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches an Indexer's root directory and incrementally reindexes
// changed files.
type Watcher struct {
	idx      *indexer.Indexer
	fsw      *fsnotify.Watcher
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New builds a Watcher over idx's root directory, recursively watching
// every directory under it; idx's include/exclude rules are applied to
// file events, not to which directories are watched.
func New(idx *indexer.Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		idx:      idx,
		fsw:      fsw,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	if err := w.addDirectoriesRecursively(idx.RootDir()); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching in the background. The watcher stops when ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.fsw.Close()
	})
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	reindexCh := make(chan struct{}, 1)
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			relPath, err := filepath.Rel(w.idx.RootDir(), event.Name)
			if err != nil {
				continue
			}
			pending[filepath.ToSlash(relPath)] = true

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("watcher: watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if debounceTimer != nil {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case reindexCh <- struct{}{}:
				default:
				}
			})

		case <-reindexCh:
			w.reindexPending(ctx, pending)
			pending = make(map[string]bool)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

func (w *Watcher) reindexPending(ctx context.Context, pending map[string]bool) {
	if len(pending) == 0 {
		return
	}
	start := time.Now()
	updated, deleted := 0, 0
	for relPath := range pending {
		absPath := filepath.Join(w.idx.RootDir(), relPath)
		if _, err := os.Stat(absPath); err != nil {
			if _, err := w.idx.DeleteFile(ctx, relPath); err != nil {
				log.Printf("watcher: delete %s: %v", relPath, err)
			} else {
				deleted++
			}
			continue
		}
		if _, err := w.idx.UpdateFile(ctx, relPath); err != nil {
			log.Printf("watcher: update %s: %v", relPath, err)
			continue
		}
		updated++
	}
	log.Printf("watcher: reindexed %d file(s), removed %d in %v", updated, deleted, time.Since(start))
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	relPath, err := filepath.Rel(w.idx.RootDir(), event.Name)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	info, statErr := os.Stat(event.Name)
	if statErr != nil {
		// Removed/renamed-away files can't be stat'd; let reindexPending's
		// own stat decide whether it's a deletion worth acting on.
		return true
	}
	if info.IsDir() {
		return false
	}
	return w.idx.Matches(relPath, event.Name, info)
}

func (w *Watcher) addDirectoriesRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("watcher: access %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("watcher: watch directory %s: %v", path, err)
		}
		return nil
	})
}
