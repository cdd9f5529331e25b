package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Poller is a timer-driven [Watcher]. Each tick it walks the watched trees,
// compares against the previous snapshot, and emits one event per changed
// path. Change detection uses modification time and size, so it works on
// filesystems that never deliver native change notifications.
type Poller struct {
	dirs     []string
	interval time.Duration

	events chan Event
	errs   chan error
	stop   chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

type fileMeta struct {
	modTime time.Time
	size    int64
}

// NewPoller starts a polling watcher over dirs. Directories that do not
// exist yet are tolerated: they produce events once they appear. A
// non-positive interval falls back to [DefaultPollInterval].
func NewPoller(dirs []string, interval time.Duration) (*Poller, error) {
	if len(dirs) == 0 {
		return nil, ErrNoDirs
	}

	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p := &Poller{
		dirs:     append([]string(nil), dirs...),
		interval: interval,
		events:   make(chan Event, 64),
		errs:     make(chan error, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go p.run()

	return p, nil
}

// Events returns the event channel.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Errors returns the error channel.
func (p *Poller) Errors() <-chan error {
	return p.errs
}

// Close stops the poller. Safe to call more than once.
func (p *Poller) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.done
	})

	return nil
}

func (p *Poller) run() {
	defer close(p.done)
	defer close(p.events)
	defer close(p.errs)

	// The first scan seeds the snapshot; pre-existing files are not
	// reported as creates.
	previous := p.scan()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			current := p.scan()
			p.diff(previous, current)
			previous = current
		}
	}
}

// scan snapshots every regular file under the watched trees. Walk errors
// are advisory (a tree may legitimately not exist yet).
func (p *Poller) scan() map[string]fileMeta {
	snapshot := make(map[string]fileMeta)

	for _, dir := range p.dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if os.IsNotExist(walkErr) {
					return nil
				}

				p.reportErr(walkErr)

				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				// Deleted between readdir and stat; the next tick sees it.
				return nil
			}

			snapshot[path] = fileMeta{modTime: info.ModTime(), size: info.Size()}

			return nil
		})
	}

	return snapshot
}

func (p *Poller) diff(previous, current map[string]fileMeta) {
	for path, meta := range current {
		old, existed := previous[path]

		switch {
		case !existed:
			p.emit(Event{Path: path, Op: Create})
		case !old.modTime.Equal(meta.modTime) || old.size != meta.size:
			p.emit(Event{Path: path, Op: Write})
		}
	}

	for path := range previous {
		if _, still := current[path]; !still {
			p.emit(Event{Path: path, Op: Remove})
		}
	}
}

func (p *Poller) emit(ev Event) {
	select {
	case p.events <- ev:
	case <-p.stop:
	}
}

func (p *Poller) reportErr(err error) {
	select {
	case p.errs <- err:
	default:
		// One pending error is enough; the watcher keeps running.
	}
}
