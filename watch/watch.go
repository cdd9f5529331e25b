// Package watch reports file changes under a set of directory trees.
//
// Two implementations exist behind the [Watcher] interface: a polling
// watcher ([NewPoller]) that scans the trees on a timer, and a native
// watcher ([NewNative]) built on OS change notifications via fsnotify.
//
// Polling is the default in this project. The environments it bootstraps
// run on bind mounts where native change events do not propagate reliably,
// which is the same reason the bootstrap env set forces polling on the
// in-container tools.
package watch

import (
	"errors"
	"time"
)

// ErrNoDirs is returned when a watcher is constructed with no directories.
var ErrNoDirs = errors.New("watch: no directories to watch")

// DefaultPollInterval is the scan interval used when callers pass a
// non-positive interval to [NewPoller].
const DefaultPollInterval = 500 * time.Millisecond

// Op describes what happened to a path.
type Op int

const (
	// Create means the path appeared.
	Create Op = iota + 1
	// Write means the path's content changed.
	Write
	// Remove means the path disappeared.
	Remove
)

// String returns the lowercase name of the operation.
func (o Op) String() string {
	switch o {
	case Create:
		return "create"
	case Write:
		return "write"
	case Remove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a single observed file change.
type Event struct {
	Path string
	Op   Op
}

// Watcher delivers file change events until closed.
//
// Implementations deliver events and errors on the returned channels from a
// single internal goroutine; both channels are closed by Close. A Watcher
// must not be reused after Close.
type Watcher interface {
	// Events returns the event channel.
	Events() <-chan Event
	// Errors returns the error channel. Errors are advisory; the watcher
	// keeps running after delivering one.
	Errors() <-chan error
	// Close stops the watcher and releases its resources. Safe to call
	// more than once.
	Close() error
}
