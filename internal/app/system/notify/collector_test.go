package notify_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/notify"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.uber.org/zap"
)

type fakePrefs struct {
	prefs models.NotificationPreferences
}

func (f *fakePrefs) Get(_ context.Context, userID string) (models.NotificationPreferences, error) {
	if f.prefs.UserID == "" {
		return models.DefaultNotificationPreferences(userID), nil
	}
	return f.prefs, nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []notify.Notification
}

func (f *fakeScheduler) Schedule(_ context.Context, _ string, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, n)
	return nil
}

func (f *fakeScheduler) all() []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Notification(nil), f.scheduled...)
}

func newCollector(t *testing.T) (*notify.Collector, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	c := notify.NewCollector("u-1", &fakePrefs{}, sched, zap.NewNop())
	return c, sched
}

func TestFlush_SingleEventGetsDetailedBody(t *testing.T) {
	c, sched := newCollector(t)
	ctx := context.Background()

	c.StartBatch()
	c.Add(ctx, notify.Event{
		Type:        notify.EventAssignment,
		ProjectID:   "p-1",
		ProjectName: "Harbor Tower",
	})
	c.FlushBatch(ctx)
	c.Drain()

	got := sched.all()
	if len(got) != 1 {
		t.Fatalf("scheduled: got %d notifications, want 1", len(got))
	}
	if got[0].Body != "You've been assigned to Harbor Tower" {
		t.Errorf("body: got %q", got[0].Body)
	}
	if got[0].Metadata["project_id"] != "p-1" {
		t.Errorf("metadata: got %v", got[0].Metadata)
	}
}

func TestFlush_CoalescesSameType(t *testing.T) {
	c, sched := newCollector(t)
	ctx := context.Background()

	c.StartBatch()
	for _, name := range []string{"Site A", "Site B", "Site C"} {
		c.Add(ctx, notify.Event{Type: notify.EventScheduleChange, ProjectName: name})
	}
	c.FlushBatch(ctx)
	c.Drain()

	got := sched.all()
	if len(got) != 1 {
		t.Fatalf("scheduled: got %d notifications, want 1", len(got))
	}
	if got[0].Body != "3 schedule changes" {
		t.Errorf("body: got %q, want %q", got[0].Body, "3 schedule changes")
	}
}

func TestFlush_MixedTypesOneNotificationEach(t *testing.T) {
	c, sched := newCollector(t)
	ctx := context.Background()

	c.StartBatch()
	c.Add(ctx, notify.Event{Type: notify.EventAssignment, ProjectName: "Site A"})
	c.Add(ctx, notify.Event{Type: notify.EventProjectUpdate, ProjectName: "Site A"})
	c.Add(ctx, notify.Event{Type: notify.EventProjectUpdate, ProjectName: "Site B"})
	c.FlushBatch(ctx)
	c.Drain()

	got := sched.all()
	if len(got) != 2 {
		t.Fatalf("scheduled: got %d notifications, want 2", len(got))
	}
	// Assignment was a single, project updates were coalesced.
	var sawSingle, sawSummary bool
	for _, n := range got {
		if strings.Contains(n.Body, "assigned to Site A") {
			sawSingle = true
		}
		if n.Body == "2 project updates" {
			sawSummary = true
		}
	}
	if !sawSingle || !sawSummary {
		t.Errorf("unexpected notifications: %+v", got)
	}
}

func TestCancel_SchedulesNothing(t *testing.T) {
	c, sched := newCollector(t)
	ctx := context.Background()

	c.StartBatch()
	c.Add(ctx, notify.Event{Type: notify.EventAssignment, ProjectName: "Site A"})
	c.Add(ctx, notify.Event{Type: notify.EventScheduleChange, ProjectName: "Site B"})
	c.CancelBatch()
	c.FlushBatch(ctx) // nothing buffered; must be a no-op
	c.Drain()

	if got := sched.all(); len(got) != 0 {
		t.Errorf("scheduled: got %d notifications, want 0", len(got))
	}
}

func TestAdd_WhileIdleDeliversImmediately(t *testing.T) {
	c, sched := newCollector(t)

	c.Add(context.Background(), notify.Event{Type: notify.EventAssignment, ProjectName: "Site A"})
	c.Drain()

	got := sched.all()
	if len(got) != 1 {
		t.Fatalf("scheduled: got %d notifications, want 1", len(got))
	}
	if got[0].Body != "You've been assigned to Site A" {
		t.Errorf("body: got %q", got[0].Body)
	}
}

func TestStartBatch_DiscardsStaleBuffer(t *testing.T) {
	c, sched := newCollector(t)
	ctx := context.Background()

	c.StartBatch()
	c.Add(ctx, notify.Event{Type: notify.EventAssignment, ProjectName: "Stale"})
	// A new pass begins without the previous one flushing.
	c.StartBatch()
	c.Add(ctx, notify.Event{Type: notify.EventProjectUpdate, ProjectName: "Fresh"})
	c.FlushBatch(ctx)
	c.Drain()

	got := sched.all()
	if len(got) != 1 {
		t.Fatalf("scheduled: got %d notifications, want 1", len(got))
	}
	if !strings.Contains(got[0].Body, "Fresh") {
		t.Errorf("stale event leaked: %q", got[0].Body)
	}
}

func TestDeliver_RespectsMute(t *testing.T) {
	until := time.Now().Add(time.Hour)
	prefs := models.DefaultNotificationPreferences("u-1")
	prefs.MuteUntil = &until

	sched := &fakeScheduler{}
	c := notify.NewCollector("u-1", &fakePrefs{prefs: prefs}, sched, zap.NewNop())

	c.Add(context.Background(), notify.Event{Type: notify.EventAssignment, ProjectName: "Site A"})
	c.Drain()

	if got := sched.all(); len(got) != 0 {
		t.Errorf("muted user still got %d notifications", len(got))
	}
}

func TestConcurrentAdds(t *testing.T) {
	c, sched := newCollector(t)
	ctx := context.Background()

	c.StartBatch()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(ctx, notify.Event{Type: notify.EventTaskCompleted, ProjectName: "Site A"})
		}()
	}
	wg.Wait()
	c.FlushBatch(ctx)
	c.Drain()

	got := sched.all()
	if len(got) != 1 {
		t.Fatalf("scheduled: got %d notifications, want 1", len(got))
	}
	if got[0].Body != "20 tasks completed" {
		t.Errorf("body: got %q, want %q", got[0].Body, "20 tasks completed")
	}
}
