// FILE: lixenwraith/namespace/watch.go
package namespace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Notification sent to subscribers when the root disappears, its
// permissions change or a rebuild fails. Other notifications are leaf paths.
const (
	EventRootDeleted        = "root_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadTimeout      = "reload_timeout"
	EventReloadErrorPrefix  = "reload_error:"
)

// WatchOptions configures root watching behavior
type WatchOptions struct {
	// PollInterval for root stat checks (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid rebuilds
	Debounce time.Duration

	// MaxWatchers limits concurrent subscriber channels
	MaxWatchers int

	// ReloadTimeout bounds one rebuild
	ReloadTimeout time.Duration

	// VerifyPermissions refuses to rebuild when group or world permission bits change
	VerifyPermissions bool
}

// DefaultWatchOptions returns sensible defaults for root watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// rootState fingerprints a root file or directory tree.
type rootState struct {
	modTime time.Time
	size    int64
	files   int
	mode    os.FileMode
}

func statRoot(path string) (rootState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return rootState{}, err
	}
	st := rootState{modTime: info.ModTime(), size: info.Size(), files: 1, mode: info.Mode()}
	if !info.IsDir() {
		return st, nil
	}

	st.size, st.files = 0, 0
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if fi.ModTime().After(st.modTime) {
			st.modTime = fi.ModTime()
		}
		if !d.IsDir() {
			st.size += fi.Size()
			st.files++
		}
		return nil
	})
	return st, err
}

// Watcher rebuilds a namespace when its root changes on disk. The current
// root is replaced as a whole, so holders of an earlier root keep a
// consistent view.
type Watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	path             string
	rebuild          func() (*Node, error)
	current          *Node
	last             rootState
	logger           *zap.Logger
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	subscribers      map[int64]chan string
	subscriberID     atomic.Int64
	debounceTimer    *time.Timer
}

// Watch builds the namespace and starts polling the root for changes. On a
// change the shared cache entry, if any, is invalidated and the namespace is
// rebuilt from all configured sources.
func (b *Builder) Watch(opts WatchOptions) (*Watcher, error) {
	if b.root == "" {
		return nil, errors.New("watching requires a root")
	}

	root, err := b.Build()
	if err != nil {
		return nil, err
	}

	rebuild := b.Build
	if b.cache != nil {
		rebuild = func() (*Node, error) {
			sources, err := b.sourceList()
			if err != nil {
				return nil, err
			}
			opts, err := b.opts.normalize()
			if err != nil {
				return nil, err
			}
			b.cache.Invalidate(b.identity(opts, sources))
			return b.Build()
		}
	}

	return newWatcher(b.root, root, rebuild, opts, b.logger), nil
}

func newWatcher(path string, root *Node, rebuild func() (*Node, error), opts WatchOptions, logger *zap.Logger) *Watcher {
	// Validate options
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
		path:        path,
		rebuild:     rebuild,
		current:     root,
		logger:      logger,
		subscribers: make(map[int64]chan string),
	}

	// Get initial root state
	if st, err := statRoot(path); err == nil {
		w.last = st
	}

	w.watching.Store(true)
	go w.watchLoop()
	return w
}

// Root returns the most recently built namespace.
func (w *Watcher) Root() *Node {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// IsWatching returns true while the poll loop runs
func (w *Watcher) IsWatching() bool {
	return w.watching.Load()
}

// SubscriberCount returns the number of active subscriber channels
func (w *Watcher) SubscriberCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subscribers)
}

// watchLoop is the main polling loop
func (w *Watcher) watchLoop() {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

// checkAndReload checks if the root changed and schedules a rebuild
func (w *Watcher) checkAndReload() {
	st, err := statRoot(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			w.notify(EventRootDeleted)
		}
		return
	}

	// SECURITY: Verify permissions haven't changed suspiciously
	if w.opts.VerifyPermissions && w.last.mode != 0 && st.mode != w.last.mode {
		if (st.mode & 0077) != (w.last.mode & 0077) {
			// World/group permissions changed, don't rebuild
			w.notify(EventPermissionsChanged)
			return
		}
	}

	if st.modTime.Equal(w.last.modTime) && st.size == w.last.size && st.files == w.last.files {
		return
	}
	w.last = st

	// Debounce rapid changes
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performReload)
	w.mu.Unlock()
}

// performReload rebuilds the namespace and reports changed leaf paths
func (w *Watcher) performReload() {
	// Prevent concurrent reloads
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	type result struct {
		root *Node
		err  error
	}
	done := make(chan result, 1)
	go func() {
		root, err := w.rebuild()
		done <- result{root, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			w.logger.Warn("namespace rebuild failed", zap.String("root", w.path), zap.Error(res.err))
			w.notify(fmt.Sprintf("%s%v", EventReloadErrorPrefix, res.err))
			return
		}

		w.mu.Lock()
		old := w.current
		w.current = res.root
		w.mu.Unlock()

		changed := diffLeaves(snapshot(old), snapshot(res.root))
		w.logger.Debug("namespace rebuilt", zap.String("root", w.path), zap.Int("changed", len(changed)))
		for _, path := range changed {
			w.notify(path)
		}

	case <-ctx.Done():
		w.notify(EventReloadTimeout)
	}
}

// snapshot collects leaf values by path
func snapshot(root *Node) map[string]any {
	values := make(map[string]any)
	_ = root.Walk(func(path string, leaf *Leaf) error {
		values[path] = leaf.Value()
		return nil
	})
	return values
}

// diffLeaves returns the paths added, changed or removed between old and
// updated, in sorted order.
func diffLeaves(old, updated map[string]any) []string {
	var changed []string
	for path, newVal := range updated {
		if oldVal, existed := old[path]; !existed || !reflect.DeepEqual(oldVal, newVal) {
			changed = append(changed, path)
		}
	}
	for path := range old {
		if _, exists := updated[path]; !exists {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// Subscribe returns a channel receiving changed leaf paths and watcher
// events. The channel is closed when the watcher stops.
func (w *Watcher) Subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Check subscriber limit
	if len(w.subscribers) >= w.opts.MaxWatchers || w.ctx.Err() != nil {
		// Return closed channel to prevent resource exhaustion
		ch := make(chan string)
		close(ch)
		return ch
	}

	// Create buffered channel to prevent blocking
	ch := make(chan string, 10)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch

	// Cleanup goroutine
	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subscribers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notify sends an event to all subscribers without blocking
func (w *Watcher) notify(event string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, drop
		}
	}
}

// Stop terminates the watcher and closes every subscriber channel
func (w *Watcher) Stop() {
	w.cancel()

	// Stop debounce timer
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}
