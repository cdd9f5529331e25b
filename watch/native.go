package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Native is a [Watcher] backed by OS change notifications (inotify and
// friends) via fsnotify. It registers every directory under the watched
// trees and re-registers directories created while watching.
//
// Native mode only works when the watched trees live on a filesystem that
// delivers change events; on bind mounts that swallow them, use [Poller].
type Native struct {
	fsw *fsnotify.Watcher

	events chan Event
	errs   chan error
	stop   chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewNative starts a native watcher over dirs. All dirs must exist.
func NewNative(dirs []string) (*Native, error) {
	if len(dirs) == 0 {
		return nil, ErrNoDirs
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}

	for _, dir := range dirs {
		err = addRecursive(fsw, dir)
		if err != nil {
			_ = fsw.Close()

			return nil, err
		}
	}

	n := &Native{
		fsw:    fsw,
		events: make(chan Event, 64),
		errs:   make(chan error, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go n.run()

	return n, nil
}

// Events returns the event channel.
func (n *Native) Events() <-chan Event {
	return n.events
}

// Errors returns the error channel.
func (n *Native) Errors() <-chan error {
	return n.errs
}

// Close stops the watcher. Safe to call more than once, and returns even
// when the consumer stopped reading events.
func (n *Native) Close() error {
	var err error

	n.closeOnce.Do(func() {
		close(n.stop)
		err = n.fsw.Close()
		<-n.done
	})

	return err
}

func (n *Native) run() {
	defer close(n.done)
	defer close(n.events)
	defer close(n.errs)

	for {
		select {
		case ev, ok := <-n.fsw.Events:
			if !ok {
				return
			}

			n.handle(ev)
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}

			select {
			case n.errs <- err:
			default:
			}
		}
	}
}

func (n *Native) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		// New directories need their own watch; fsnotify is not recursive.
		info, err := os.Stat(ev.Name)
		if err == nil && info.IsDir() {
			_ = addRecursive(n.fsw, ev.Name)

			return
		}

		n.emit(Event{Path: ev.Name, Op: Create})
	case ev.Has(fsnotify.Write):
		n.emit(Event{Path: ev.Name, Op: Write})
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		n.emit(Event{Path: ev.Name, Op: Remove})
	}
}

// emit delivers ev unless the watcher is closing; a blocking send here
// would wedge run() when the consumer has gone away with the buffer full.
func (n *Native) emit(ev Event) {
	select {
	case n.events <- ev:
	case <-n.stop:
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("watch: walking %s: %w", root, walkErr)
		}

		if !d.IsDir() {
			return nil
		}

		err := fsw.Add(path)
		if err != nil {
			return fmt.Errorf("watch: watching %s: %w", path, err)
		}

		return nil
	})
}
