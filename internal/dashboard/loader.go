package dashboard

import (
	"context"
	"sync"
)

// Loader serialises overlapping fetches of one view. Starting a load
// cancels the one in flight, and a result is applied only if no newer load
// has started since.
type Loader struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// begin opens a new generation and cancels the previous one.
func (l *Loader) begin(parent context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.gen++
	l.cancel = cancel
	return ctx, l.gen
}

// commit runs apply while holding the lock if gen is still current.
func (l *Loader) commit(gen uint64, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	apply()
	return true
}

// Generation returns the number of loads started so far.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Stop cancels the load in flight.
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Load fetches with a fresh generation and hands the result to apply unless
// a newer Load started meanwhile. It reports whether apply ran. Errors of a
// superseded load are dropped.
func Load[T any](ctx context.Context, l *Loader, fetch func(context.Context) (T, error), apply func(T)) (bool, error) {
	loadCtx, gen := l.begin(ctx)
	v, err := fetch(loadCtx)
	if err != nil {
		if l.Generation() != gen {
			return false, nil
		}
		return false, err
	}
	return l.commit(gen, func() { apply(v) }), nil
}
