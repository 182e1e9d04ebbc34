// internal/app/system/notify/event.go

// Package notify buffers sync-time events and delivers them as OS
// notifications, coalescing bulk updates into single summaries so a
// large sync pass never produces a storm of alerts.
package notify

import (
	"fmt"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/htmlsanitize"
)

// EventType classifies a notification-worthy sync event.
type EventType string

const (
	EventAssignment     EventType = "assignment"
	EventScheduleChange EventType = "schedule_change"
	EventProjectUpdate  EventType = "project_update"
	EventTaskCompleted  EventType = "task_completed"
	EventSyncFailure    EventType = "sync_failure"
)

// Priority orders event types for the preference filter.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityImportant
	PriorityCritical
)

// Priority returns the delivery priority of the event type.
func (t EventType) Priority() Priority {
	switch t {
	case EventAssignment, EventScheduleChange:
		return PriorityImportant
	case EventSyncFailure:
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

// Event is one notification-worthy occurrence observed during a sync
// pass. Events are ephemeral: they live from Add to Flush or Cancel and
// are never persisted.
type Event struct {
	Type        EventType
	ProjectID   string
	ProjectName string
	TaskID      string
	Details     string
}

// Notification is what gets handed to the OS scheduler.
type Notification struct {
	Title    string
	Body     string
	Category string
	Metadata map[string]string
}

func (t EventType) title() string {
	switch t {
	case EventAssignment:
		return "New Assignment"
	case EventScheduleChange:
		return "Schedule Change"
	case EventProjectUpdate:
		return "Project Update"
	case EventTaskCompleted:
		return "Task Completed"
	case EventSyncFailure:
		return "Sync Problem"
	default:
		return "Update"
	}
}

// singleBody renders the detailed one-event message for a type.
func singleBody(e Event) string {
	name := htmlsanitize.Text(e.ProjectName)
	switch e.Type {
	case EventAssignment:
		return fmt.Sprintf("You've been assigned to %s", name)
	case EventScheduleChange:
		return fmt.Sprintf("The schedule for %s has changed", name)
	case EventProjectUpdate:
		return fmt.Sprintf("%s was updated", name)
	case EventTaskCompleted:
		return fmt.Sprintf("A task was completed on %s", name)
	case EventSyncFailure:
		if e.Details != "" {
			return "Some changes could not sync: " + e.Details
		}
		return "Some changes could not sync"
	default:
		return name
	}
}

// summaryBody renders the coalesced "N things" message for a type.
func summaryBody(t EventType, n int) string {
	switch t {
	case EventAssignment:
		return fmt.Sprintf("%d new assignments", n)
	case EventScheduleChange:
		return fmt.Sprintf("%d schedule changes", n)
	case EventProjectUpdate:
		return fmt.Sprintf("%d project updates", n)
	case EventTaskCompleted:
		return fmt.Sprintf("%d tasks completed", n)
	case EventSyncFailure:
		return fmt.Sprintf("%d sync problems", n)
	default:
		return fmt.Sprintf("%d updates", n)
	}
}
