package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type entry struct {
	value     string
	count     int64
	expiresAt time.Time
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry

	cleanupInterval time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time

	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	created atomic.Int64
	expired atomic.Int64
}

// MemoryStoreStats reports counters for monitoring.
type MemoryStoreStats struct {
	RecordsCreated int64 // Records created since start
	RecordsExpired int64 // Records purged by the sweep
	ActiveRecords  int   // Records currently held, including expired ones not yet swept
	IsRunning      bool  // Whether the sweep goroutine is running
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired records are purged.
// Zero disables the sweep; expired records then stay in memory but are never returned.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight sweep.
func WithShutdownTimeout(timeout time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if timeout > 0 {
			ms.shutdownTimeout = timeout
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if logger != nil {
			ms.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an empty store that sweeps every 5 minutes once started.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		entries:         make(map[string]*entry),
		cleanupInterval: 5 * time.Minute,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// Get returns the live record for key.
func (ms *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	if key == "" {
		return Record{}, ErrEmptyKey
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, ok := ms.live(key)
	if !ok {
		return Record{}, ErrNotFound
	}
	return e.record(), nil
}

// Set stores value under key.
func (ms *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := validate(key, ttl); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[key] = &entry{value: value, expiresAt: ms.now().Add(ttl)}
	ms.created.Add(1)
	return nil
}

// Issue stores value unless a live record exists and refreshes the expiry.
func (ms *MemoryStore) Issue(ctx context.Context, key, value string, ttl time.Duration) (Record, error) {
	if err := validate(key, ttl); err != nil {
		return Record{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	expiresAt := ms.now().Add(ttl)
	if e, ok := ms.live(key); ok {
		e.expiresAt = expiresAt
		return e.record(), nil
	}

	e := &entry{value: value, expiresAt: expiresAt}
	ms.entries[key] = e
	ms.created.Add(1)
	return e.record(), nil
}

// Increment bumps the counter under key within a fixed window of length ttl.
func (ms *MemoryStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	if err := validate(key, ttl); err != nil {
		return 0, time.Time{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, ok := ms.live(key)
	if !ok {
		e = &entry{expiresAt: ms.now().Add(ttl)}
		ms.entries[key] = e
		ms.created.Add(1)
	}
	e.count++
	e.value = strconv.FormatInt(e.count, 10)
	return e.count, e.expiresAt, nil
}

// Delete removes key.
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

// live returns the entry for key if it has not expired. Callers hold the lock.
func (ms *MemoryStore) live(key string) (*entry, bool) {
	e, ok := ms.entries[key]
	if !ok || !ms.now().Before(e.expiresAt) {
		return nil, false
	}
	return e, true
}

func (e *entry) record() Record {
	return Record{Value: e.value, ExpiresAt: e.expiresAt}
}

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

// Start runs the expiry sweep until ctx is canceled or Stop is called.
// It blocks; use Run with an errgroup.
func (ms *MemoryStore) Start(ctx context.Context) error {
	if ms.cleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be > 0, got %v", ms.cleanupInterval)
	}

	ms.mu.Lock()
	if ms.cancel != nil {
		ms.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, ms.cancel = context.WithCancel(ctx)
	ms.mu.Unlock()

	ms.running.Store(true)
	defer func() {
		ms.running.Store(false)
		ms.mu.Lock()
		ms.cancel = nil
		ms.mu.Unlock()
	}()

	ms.logger.InfoContext(ctx, "token store sweep started",
		slog.Duration("cleanup_interval", ms.cleanupInterval))

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ms.logger.InfoContext(context.Background(), "token store sweep stopping")
			return ctx.Err()
		case <-ticker.C:
			ms.sweepTracked(ctx)
		}
	}
}

// Stop cancels the sweep and waits for an in-flight pass.
func (ms *MemoryStore) Stop() error {
	ms.mu.Lock()
	if ms.cancel == nil {
		ms.mu.Unlock()
		return ErrNotStarted
	}
	cancel := ms.cancel
	ms.cancel = nil
	ms.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		ms.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(ms.shutdownTimeout):
		ms.logger.Warn("token store shutdown timeout exceeded",
			slog.Duration("timeout", ms.shutdownTimeout))
		return fmt.Errorf("token store shutdown timeout exceeded after %s", ms.shutdownTimeout)
	}
}

// Run returns an errgroup-compatible function that sweeps until ctx is done.
func (ms *MemoryStore) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- ms.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = ms.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Sweep removes expired records immediately and returns how many were removed.
func (ms *MemoryStore) Sweep() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for key, e := range ms.entries {
		if !now.Before(e.expiresAt) {
			delete(ms.entries, key)
			removed++
		}
	}
	if removed > 0 {
		ms.expired.Add(int64(removed))
	}
	return removed
}

// sweepTracked registers with wg under mu so Stop, which clears cancel under
// the same lock before waiting, never races an Add.
func (ms *MemoryStore) sweepTracked(ctx context.Context) {
	ms.mu.Lock()
	if ms.cancel == nil || ctx.Err() != nil {
		ms.mu.Unlock()
		return
	}
	ms.wg.Add(1)
	ms.mu.Unlock()
	defer ms.wg.Done()

	if removed := ms.Sweep(); removed > 0 {
		ms.logger.Debug("token store swept expired records", slog.Int("removed", removed))
	}
}

// Stats returns current counters.
func (ms *MemoryStore) Stats() MemoryStoreStats {
	ms.mu.RLock()
	active := len(ms.entries)
	ms.mu.RUnlock()

	return MemoryStoreStats{
		RecordsCreated: ms.created.Load(),
		RecordsExpired: ms.expired.Load(),
		ActiveRecords:  active,
		IsRunning:      ms.running.Load(),
	}
}

// Healthcheck fails when a sweep is configured but not running.
func (ms *MemoryStore) Healthcheck(ctx context.Context) error {
	if ms.cleanupInterval > 0 && !ms.running.Load() {
		return fmt.Errorf("%w: sweep is configured but not running", ErrStoreUnavailable)
	}
	return nil
}
