// internal/app/system/notify/collector.go
package notify

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.uber.org/zap"
)

// PreferenceSource supplies a user's delivery preferences. The
// preference store satisfies this; the collector only ever reads.
type PreferenceSource interface {
	Get(ctx context.Context, userID string) (models.NotificationPreferences, error)
}

// Collector buffers events between StartBatch and FlushBatch and
// coalesces them into per-type summaries. A collector belongs to one
// device user. All state transitions are serialized behind a single
// mutex, so StartBatch/Add/FlushBatch/CancelBatch are safe from any
// goroutine; the actual OS scheduling is fire-and-forget.
type Collector struct {
	userID string
	prefs  PreferenceSource
	sched  Scheduler
	log    *zap.Logger

	mu         sync.Mutex
	collecting bool
	buffer     []Event

	inflight sync.WaitGroup
}

// NewCollector builds a collector for the given user.
func NewCollector(userID string, prefs PreferenceSource, sched Scheduler, logger *zap.Logger) *Collector {
	return &Collector{
		userID: userID,
		prefs:  prefs,
		sched:  sched,
		log:    logger,
	}
}

// StartBatch enters collecting mode, discarding any stale buffer left
// behind by an interrupted pass.
func (c *Collector) StartBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buffer) > 0 {
		c.log.Warn("discarding stale notification buffer", zap.Int("events", len(c.buffer)))
	}
	c.buffer = nil
	c.collecting = true
}

// Add records an event. Outside a batch the event is delivered
// immediately as a single notification: a missed StartBatch degrades to
// per-event delivery instead of silently dropping anything. Inside a
// batch the event is appended with no dedup; coalescing happens at
// flush.
func (c *Collector) Add(ctx context.Context, e Event) {
	c.mu.Lock()
	if c.collecting {
		c.buffer = append(c.buffer, e)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.deliver(ctx, e.Type, Notification{
		Title:    e.Type.title(),
		Body:     singleBody(e),
		Category: string(e.Type),
		Metadata: singleMetadata(e),
	})
}

// FlushBatch coalesces the buffer and emits one notification per event
// type: the detailed message when a type collected exactly one event, a
// count summary otherwise. The buffer is cleared and the collector
// returns to idle.
func (c *Collector) FlushBatch(ctx context.Context) {
	c.mu.Lock()
	events := c.buffer
	c.buffer = nil
	c.collecting = false
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}

	byType := make(map[EventType][]Event)
	var order []EventType
	for _, e := range events {
		if _, seen := byType[e.Type]; !seen {
			order = append(order, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], e)
	}

	for _, t := range order {
		group := byType[t]
		var n Notification
		if len(group) == 1 {
			n = Notification{
				Title:    t.title(),
				Body:     singleBody(group[0]),
				Category: string(t),
				Metadata: singleMetadata(group[0]),
			}
		} else {
			n = Notification{
				Title:    t.title(),
				Body:     summaryBody(t, len(group)),
				Category: string(t),
				Metadata: map[string]string{"count": strconv.Itoa(len(group))},
			}
		}
		c.deliver(ctx, t, n)
	}
}

// CancelBatch discards the buffer without emitting anything. Used when a
// sync pass errors so users are not notified about partially-applied
// state.
func (c *Collector) CancelBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = nil
	c.collecting = false
}

// Drain blocks until all fire-and-forget deliveries have finished.
// Called at shutdown, and by tests.
func (c *Collector) Drain() {
	c.inflight.Wait()
}

// deliver applies the preference filter and, when it passes, schedules
// the notification asynchronously. Scheduling failures are logged, not
// retried.
func (c *Collector) deliver(ctx context.Context, t EventType, n Notification) {
	prefs, err := c.prefs.Get(ctx, c.userID)
	if err != nil {
		c.log.Warn("preference load failed, using defaults", zap.Error(err))
		prefs = models.DefaultNotificationPreferences(c.userID)
	}
	if !ShouldDeliver(prefs, t, time.Now()) {
		c.log.Debug("notification suppressed by preferences",
			zap.String("type", string(t)))
		return
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.sched.Schedule(sctx, c.userID, n); err != nil {
			c.log.Error("notification scheduling failed",
				zap.String("type", string(t)),
				zap.Error(err))
		}
	}()
}

func singleMetadata(e Event) map[string]string {
	md := map[string]string{}
	if e.ProjectID != "" {
		md["project_id"] = e.ProjectID
	}
	if e.TaskID != "" {
		md["task_id"] = e.TaskID
	}
	if len(md) == 0 {
		return nil
	}
	return md
}
