// Package watch delivers debounced batches of filesystem change events for a
// small set of directories, on top of github.com/rjeczalik/notify.
//
// Watches are registered on directories rather than on the files themselves,
// because some platforms only deliver reliable events at directory
// granularity. Consumers filter for the paths they track.
package watch

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	// DefaultDebounceWindow is how long raw events are coalesced into one
	// batch before delivery. Editors and atomic-save tools produce bursts of
	// writes per logical save.
	DefaultDebounceWindow = 500 * time.Millisecond

	rawEventBufferSize = 64
)

// Kind classifies a change event.
type Kind uint8

const (
	KindOther Kind = iota
	KindCreate
	KindModify
	KindRemove
	KindRename
	// KindAccess marks pure read notifications. The notify default set never
	// produces these, but consumers filter on it so synthetic sources can.
	KindAccess
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindModify:
		return "modify"
	case KindRemove:
		return "remove"
	case KindRename:
		return "rename"
	case KindAccess:
		return "access"
	default:
		return "other"
	}
}

// Event is one coalesced filesystem change.
type Event struct {
	Path string
	Kind Kind
}

// Batch is the set of events observed within one debounce window.
type Batch []Event

// Watcher owns non-recursive notify watches on one or two directories and
// groups their raw events into debounced batches.
type Watcher struct {
	dirs     []string
	window   time.Duration
	raw      chan notify.EventInfo
	batches  chan Batch
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher for the given directories. Duplicates are dropped so
// a pair sharing one parent directory registers a single watch.
func New(dirs ...string) *Watcher {
	var unique []string
	for _, dir := range dirs {
		if !slices.Contains(unique, dir) {
			unique = append(unique, dir)
		}
	}

	return &Watcher{
		dirs:   unique,
		window: DefaultDebounceWindow,
		done:   make(chan struct{}),
	}
}

// SetDebounceWindow overrides the coalescing window. Call before Start.
func (w *Watcher) SetDebounceWindow(window time.Duration) {
	w.window = window
}

// Start registers the watches and begins delivering batches. The batch
// channel closes when the watcher stops or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.raw = make(chan notify.EventInfo, rawEventBufferSize)
	w.batches = make(chan Batch, 1)

	for _, dir := range w.dirs {
		slog.Info("watch start", "dir", dir)
		// No "/..." suffix: the watch is non-recursive.
		if err := notify.Watch(dir, w.raw, notify.All); err != nil {
			notify.Stop(w.raw)
			return err
		}
	}

	w.wg.Add(1)
	go w.collect(ctx)

	return nil
}

// Batches returns the delivery channel. Batches are delivered in order and
// the channel is closed exactly once.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Stop tears down the watches and waits for the collector to drain.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.raw != nil {
			notify.Stop(w.raw)
		}
		w.wg.Wait()
		slog.Info("watch stopped")
	})
}

// collect groups raw events into batches. The window timer starts on the
// first event of a batch, so a quiet directory costs nothing.
func (w *Watcher) collect(ctx context.Context) {
	defer func() {
		w.wg.Done()
		close(w.batches)
	}()

	var pending Batch
	timer := time.NewTimer(w.window)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	flush := func() bool {
		if len(pending) == 0 {
			return true
		}
		batch := pending
		pending = nil
		select {
		case w.batches <- batch:
			return true
		case <-ctx.Done():
			return false
		case <-w.done:
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-timer.C:
			if !flush() {
				return
			}
		case ei, ok := <-w.raw:
			if !ok {
				flush()
				return
			}
			event := Event{Path: ei.Path(), Kind: mapKind(ei.Event())}
			if len(pending) == 0 {
				timer.Reset(w.window)
			}
			if !slices.Contains(pending, event) {
				pending = append(pending, event)
			}
			slog.Debug("watch raw event", "path", event.Path, "kind", event.Kind)
		}
	}
}

func mapKind(e notify.Event) Kind {
	switch e {
	case notify.Create:
		return KindCreate
	case notify.Write:
		return KindModify
	case notify.Remove:
		return KindRemove
	case notify.Rename:
		return KindRename
	default:
		return KindOther
	}
}
