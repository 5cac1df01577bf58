package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserRegistered      ActivityEventType = "user.registered"
	ActivityEventUserLoggedIn        ActivityEventType = "user.logged_in"
	ActivityEventFederatedRegistered ActivityEventType = "user.registered.federated"
	ActivityEventFederatedLoggedIn   ActivityEventType = "user.logged_in.federated"
	ActivityEventProfileUpdated      ActivityEventType = "user.profile.updated"
)

var activityLabels = map[ActivityEventType]string{
	ActivityEventUserRegistered:      "User Registered",
	ActivityEventUserLoggedIn:        "User Logged In",
	ActivityEventFederatedRegistered: "User Registered (Google)",
	ActivityEventFederatedLoggedIn:   "User Logged In (Google)",
	ActivityEventProfileUpdated:      "Profile Updated",
}

// Label is the human readable action stored in the activity log
func (t ActivityEventType) Label() string {
	if label, ok := activityLabels[t]; ok {
		return label
	}
	return string(t)
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     uuid.UUID
	Details    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// ActionLogSink persists activity events as ActionLog rows
type ActionLogSink struct {
	logs ActionLogs
	now  func() time.Time
}

// NewActionLogSink returns a sink writing to logs
func NewActionLogSink(logs ActionLogs) *ActionLogSink {
	return &ActionLogSink{logs: logs, now: time.Now}
}

// Record implements ActivitySink.
func (s *ActionLogSink) Record(ctx context.Context, event ActivityEvent) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	return s.logs.Append(ctx, &ActionLog{
		ID:        uuid.New(),
		UserID:    event.UserID,
		Action:    event.EventType.Label(),
		Details:   event.Details,
		CreatedAt: occurredAt.UTC(),
	})
}

const defaultActivityTimeout = 5 * time.Second

// activityDispatcher records events off the request path. Sink errors
// and panics are logged and never reach the caller.
type activityDispatcher struct {
	sink    ActivitySink
	logger  Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func newActivityDispatcher(sink ActivitySink, logger Logger) *activityDispatcher {
	return &activityDispatcher{
		sink:    normalizeActivitySink(sink),
		logger:  logger,
		timeout: defaultActivityTimeout,
	}
}

func (d *activityDispatcher) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	// the request may finish before the sink does
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("activity sink panic", "event", event.EventType, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.sink.Record(ctx, event); err != nil {
			d.logger.Warn("failed to record activity", "event", event.EventType, "user_id", event.UserID, "error", err)
		}
	}()
}

func (d *activityDispatcher) wait() {
	d.wg.Wait()
}
