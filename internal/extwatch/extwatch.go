// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package extwatch reports extension files matching a glob as they are
// created, changed and removed.
//
// The watcher never touches a catalog. It only sends events; the consumer
// applies them from its own goroutine.
package extwatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/abcxyz/commander/logging"
)

// Kind is the kind of change to an extension file.
type Kind int

const (
	Added Kind = iota
	Changed
	Removed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a change to one extension file.
type Event struct {
	Kind Kind
	Path string
}

// Watcher watches the directories below the static prefix of a glob.
type Watcher struct {
	pattern string
	fsw     *fsnotify.Watcher
	events  chan Event
}

// New starts watching every existing directory below the static prefix of
// pattern, e.g. "/ext" for "/ext/**/*.json". Directories created later are
// added as they appear.
func New(pattern string) (*Watcher, error) {
	pattern = filepath.Clean(pattern)
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("invalid extension glob %q", pattern)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		pattern: pattern,
		fsw:     fsw,
		events:  make(chan Event),
	}

	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if err := w.addTree(filepath.FromSlash(base)); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel events are sent on. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run forwards matching file events until ctx is done, then releases the
// underlying watcher. Errors from the watcher are logged and do not stop it.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.fsw.Close()

	logger := logging.FromContext(ctx).With("pattern", w.pattern)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "extension watcher error", "error", err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						logger.WarnContext(ctx, "failed to watch directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}

			kind, ok := w.classify(ev)
			if !ok {
				continue
			}
			logger.DebugContext(ctx, "extension file event", "path", ev.Name, "kind", kind)

			select {
			case w.events <- Event{Kind: kind, Path: ev.Name}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// classify maps an fsnotify event to an extension event. Events for files not
// matching the pattern are dropped.
func (w *Watcher) classify(ev fsnotify.Event) (Kind, bool) {
	if ok, err := doublestar.PathMatch(w.pattern, ev.Name); err != nil || !ok {
		return 0, false
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Removed, true
	case ev.Has(fsnotify.Create):
		return Added, true
	case ev.Has(fsnotify.Write):
		return Changed, true
	default:
		return 0, false
	}
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error { //nolint:wrapcheck // Walk errors carry the path.
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
