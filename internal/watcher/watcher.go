package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// Watcher reports new or rewritten files with one of the given extensions
// under a directory tree. Directories created after AddRecursive are picked
// up as they appear, since every build drops its output in a fresh folder.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
}

func New(debounce time.Duration, extensions []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:  fsw,
		debounce:   debounce,
		extensions: extensions,
	}, nil
}

// AddRecursive adds a directory and all subdirectories.
func (w *Watcher) AddRecursive(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	return filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if path != absRoot && skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			log.Debug().Err(err).Str("dir", path).Msg("watch dir failed")
		}
		return nil
	})
}

// Hidden folders and the dependency packages copied next to each build.
func skipDir(base string) bool {
	return strings.HasPrefix(base, ".") || base == "Dependencies"
}

// Watch returns a channel that emits debounced change events. The channel is
// closed when ctx is done or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) <-chan ChangeEvent {
	out := make(chan ChangeEvent)

	go func() {
		defer close(out)

		fire := make(chan struct{}, 1)
		var pending *time.Timer
		var lastPath string

		defer func() {
			if pending != nil {
				pending.Stop()
			}
		}()

		arm := func(path string) {
			lastPath = path

			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}

				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.AddRecursive(event.Name)
						// The folder may arrive with its package already inside.
						if path := w.newestPackage(event.Name); path != "" {
							arm(path)
						}
						continue
					}
				}

				if !w.shouldWatch(event.Name) {
					continue
				}

				// Packagers write in place or move a finished file into place.
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) == 0 {
					continue
				}

				arm(event.Name)

			case <-fire:
				select {
				case out <- ChangeEvent{Path: lastPath, Timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.Debug().Err(err).Msg("watcher error")
			}
		}
	}()

	return out
}

// newestPackage returns the most recently modified package file under dir, or
// "" when there is none.
func (w *Watcher) newestPackage(dir string) string {
	var newest string
	var newestTime time.Time

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.shouldWatch(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = path
			newestTime = info.ModTime()
		}
		return nil
	})

	return newest
}

func (w *Watcher) shouldWatch(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
