// Package realtime carries table change notifications between API replicas
// and connected dashboards over Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Watched tables.
const (
	TableApplicants = "applicants"
	TableClients    = "job_clients"
	TablePositions  = "job_positions"
	TablePlacements = "job_placements"
)

// Change operations.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

const channelPrefix = "recruitment:changes:"

// ChannelFor returns the pub/sub channel of a table.
func ChannelFor(table string) string {
	return channelPrefix + table
}

// ChangeEvent is a generic "something changed" notice. Consumers refetch
// instead of applying the payload.
type ChangeEvent struct {
	Table string    `json:"table"`
	Op    string    `json:"op"`
	IDs   []int64   `json:"ids,omitempty"`
	At    time.Time `json:"at"`
}

// Bus publishes and subscribes to change events.
type Bus struct {
	rdb    *redis.Client
	logger logger.Logger
}

func NewBus(rdb *redis.Client, log logger.Logger) *Bus {
	return &Bus{rdb: rdb, logger: log.WithFields(map[string]interface{}{"component": "realtime"})}
}

// Publish announces a change on ev.Table.
func (b *Bus) Publish(ctx context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := b.rdb.Publish(ctx, ChannelFor(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	metrics.RealtimeEvents.WithLabelValues(ev.Table, "out").Inc()
	return nil
}

// Notify publishes and logs failures instead of returning them.
func (b *Bus) Notify(ctx context.Context, table, op string, ids ...int64) {
	if err := b.Publish(ctx, ChangeEvent{Table: table, Op: op, IDs: ids}); err != nil {
		b.logger.Warn("change notification dropped", map[string]interface{}{
			"table": table,
			"op":    op,
			"error": err.Error(),
		})
	}
}

// Subscription is an active subscription to one or more tables. Close must
// be called when done.
type Subscription struct {
	events <-chan ChangeEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

// Errors carries undecodable messages; the subscription keeps running.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens on the given tables. It returns once Redis has
// confirmed the subscription.
func (b *Bus) Subscribe(ctx context.Context, tables ...string) (*Subscription, error) {
	channels := make([]string, len(tables))
	for i, t := range tables {
		channels[i] = ChannelFor(t)
	}

	pubsub := b.rdb.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", tables, err)
	}

	eventsChan := make(chan ChangeEvent, 16)
	errorsChan := make(chan error, 4)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("decode change event on %s: %w", msg.Channel, err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				metrics.RealtimeEvents.WithLabelValues(ev.Table, "in").Inc()
				select {
				case eventsChan <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: eventsChan, errors: errorsChan, cancel: cancel}, nil
}
