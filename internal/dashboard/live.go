package dashboard

import (
	"context"
	"sync"
	"time"

	"recruitment-portal/internal/common/realtime"
)

// ChangeSource delivers table change events.
type ChangeSource interface {
	Subscribe(ctx context.Context, tables ...string) (*realtime.Subscription, error)
}

// Update kinds pushed to a live console.
const (
	UpdateView   = "view"
	UpdateMaster = "master"
)

// Update is one push to a live console.
type Update struct {
	Kind  string `json:"kind"`
	View  *View  `json:"view,omitempty"`
	Stats *Stats `json:"stats,omitempty"`
}

// Watch streams refreshed data for state until ctx ends. The first update
// is sent immediately; later ones follow table changes, with bursts merged
// over debounce. Loads superseded by a newer change are discarded.
func (s *Service) Watch(ctx context.Context, src ChangeSource, state ViewState, debounce time.Duration) (<-chan Update, error) {
	sub, err := src.Subscribe(ctx,
		realtime.TableApplicants,
		realtime.TableClients,
		realtime.TablePositions,
		realtime.TablePlacements,
	)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	out := make(chan Update, 4)

	var (
		mu     sync.Mutex
		closed bool
		loader Loader
	)
	send := func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- u:
		case <-watchCtx.Done():
		}
	}
	// fresh bypasses the stats cache, which the invalidator may not have
	// dropped yet for the change that triggered this refresh.
	refreshView := func(fresh bool) {
		_, err := Load(watchCtx, &loader, func(ctx context.Context) (Update, error) {
			u := Update{Kind: UpdateView, View: s.View(ctx, state)}
			loadStats := s.Stats
			if fresh {
				loadStats = s.RefreshStats
			}
			stats, err := loadStats(ctx)
			if err != nil {
				s.logger.Warn("live stats refresh failed", map[string]interface{}{"error": err.Error()})
			} else {
				u.Stats = stats
			}
			return u, nil
		}, send)
		if err != nil {
			s.logger.Warn("live refresh failed", map[string]interface{}{"error": err.Error()})
		}
	}

	applicants := realtime.NewCoalescer(debounce, func() { refreshView(true) })
	master := realtime.NewCoalescer(debounce, func() { send(Update{Kind: UpdateMaster}) })

	go func() {
		defer func() {
			applicants.Stop()
			master.Stop()
			loader.Stop()
			cancel()
			_ = sub.Close()
			mu.Lock()
			closed = true
			close(out)
			mu.Unlock()
		}()

		refreshView(false)
		errs := sub.Errors()
		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if ev.Table == realtime.TableApplicants {
					applicants.Trigger()
				} else {
					master.Trigger()
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				s.logger.Warn("live subscription error", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	return out, nil
}

// RunInvalidator drops cached stats whenever the applicant table changes.
// It blocks until ctx ends.
func (s *Service) RunInvalidator(ctx context.Context, src ChangeSource) error {
	sub, err := src.Subscribe(ctx, realtime.TableApplicants)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Events():
			if !ok {
				return nil
			}
			s.InvalidateStats(ctx)
		}
	}
}
