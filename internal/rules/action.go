package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shrikant133/ElevAIte/internal/model"
	"github.com/Shrikant133/ElevAIte/internal/notify"
	"github.com/Shrikant133/ElevAIte/internal/storage"
)

// ActionResult is the structured outcome of executing one action. A failed
// action sets Success=false and Error; it is never reported as a Go error.
type ActionResult struct {
	Success bool
	TaskID  int64
	Message string
	Error   string
}

// Executor performs rule actions against the store and the notification queue.
type Executor struct {
	store storage.Storage
	queue notify.Queue
	log   *slog.Logger
	now   func() time.Time
}

// NewExecutor creates an Executor.
func NewExecutor(store storage.Storage, queue notify.Queue, log *slog.Logger) *Executor {
	return &Executor{store: store, queue: queue, log: log, now: time.Now}
}

// SetNow overrides the clock (useful for testing).
func (x *Executor) SetNow(now func() time.Time) {
	x.now = now
}

// Execute performs the action for the given user and reports its outcome.
// Unknown action kinds produce a failure result naming the offending kind.
func (x *Executor) Execute(ctx context.Context, userID int64, kind model.ActionKind, action Action) ActionResult {
	switch kind {
	case model.ActionCreateTask:
		return x.createTask(ctx, userID, action.CreateTask)
	case model.ActionSendEmail:
		return x.sendEmail(ctx, userID, action.SendEmail)
	case model.ActionSendNotification:
		return x.sendNotification(ctx, userID, action.SendNotification)
	case model.ActionUpdatePriority:
		return x.updatePriority(ctx, userID, action.UpdatePriority)
	default:
		return ActionResult{Success: false, Error: fmt.Sprintf("Unknown action type: %s", kind)}
	}
}

func (x *Executor) createTask(ctx context.Context, userID int64, a *CreateTaskAction) ActionResult {
	task := model.Task{
		UserID:      userID,
		Title:       a.Title,
		Description: a.Description,
		DueAt:       x.now().UTC().AddDate(0, 0, a.DueDays),
		Priority:    a.Priority,
		Source:      model.TaskSourceRuleEngine,
	}
	if err := x.store.CreateTask(ctx, &task); err != nil {
		return ActionResult{Success: false, Error: err.Error()}
	}
	return ActionResult{Success: true, TaskID: task.ID, Message: "Task created successfully"}
}

func (x *Executor) sendEmail(ctx context.Context, userID int64, a *SendEmailAction) ActionResult {
	msg := notify.Message{
		To:      a.To,
		Subject: a.Subject,
		Body:    a.Body,
		UserID:  userID,
	}
	if err := x.queue.Enqueue(ctx, msg); err != nil {
		return ActionResult{Success: false, Error: err.Error()}
	}
	// Enqueued, not delivered: delivery belongs to the queue consumer.
	return ActionResult{Success: true, Message: "Email queued for sending"}
}

func (x *Executor) sendNotification(_ context.Context, userID int64, a *SendNotificationAction) ActionResult {
	// Integration point for an in-app notification channel.
	x.log.Info("notification", "user_id", userID, "message", a.Message)
	return ActionResult{Success: true, Message: "Notification sent"}
}

func (x *Executor) updatePriority(ctx context.Context, userID int64, a *UpdatePriorityAction) ActionResult {
	if a.ApplicationID != 0 {
		err := x.store.UpdateApplicationPriority(ctx, userID, a.ApplicationID, a.Priority)
		if err == nil {
			return ActionResult{Success: true, Message: fmt.Sprintf("Updated priority to %d", a.Priority)}
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return ActionResult{Success: false, Error: err.Error()}
		}
	}
	return ActionResult{Success: false, Error: "Application not found"}
}
