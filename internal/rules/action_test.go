package rules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Shrikant133/ElevAIte/internal/model"
	"github.com/Shrikant133/ElevAIte/internal/notify"
)

type fakeQueue struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, msg notify.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, msg)
	return nil
}

func (q *fakeQueue) sent() []notify.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]notify.Message, len(q.messages))
	copy(cp, q.messages)
	return cp
}

func TestExecuteCreateTask(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, nil)

	x := NewExecutor(store, &fakeQueue{}, discardLogger())
	x.SetNow(func() time.Time { return testNow })

	result := x.Execute(ctx, user.ID, model.ActionCreateTask, Action{CreateTask: &CreateTaskAction{
		Title:       "Follow up",
		Description: "Ping the recruiter",
		DueDays:     3,
		Priority:    "high",
	}})

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.TaskID == 0 {
		t.Fatal("expected non-zero task ID")
	}

	tasks, err := store.ListTasks(ctx, user.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	want := model.Task{
		ID:          result.TaskID,
		UserID:      user.ID,
		Title:       "Follow up",
		Description: "Ping the recruiter",
		DueAt:       testNow.AddDate(0, 0, 3),
		Priority:    "high",
		Source:      model.TaskSourceRuleEngine,
	}
	ignoreCreated := cmp.Comparer(func(a, b model.Task) bool {
		a.CreatedAt = time.Time{}
		b.CreatedAt = time.Time{}
		return a == b
	})
	if diff := cmp.Diff(want, tasks[0], ignoreCreated); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteSendEmail(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, nil)
	queue := &fakeQueue{}

	x := NewExecutor(store, queue, discardLogger())

	result := x.Execute(ctx, user.ID, model.ActionSendEmail, Action{SendEmail: &SendEmailAction{
		To:      "student@example.com",
		Subject: "Deadline soon",
		Body:    "Apply before Friday",
	}})

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	want := []notify.Message{{
		To:      "student@example.com",
		Subject: "Deadline soon",
		Body:    "Apply before Friday",
		UserID:  user.ID,
	}}
	if diff := cmp.Diff(want, queue.sent()); diff != "" {
		t.Errorf("enqueued messages mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteSendEmailQueueDown(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, nil)
	queue := &fakeQueue{err: errors.New("queue unavailable")}

	x := NewExecutor(store, queue, discardLogger())

	result := x.Execute(ctx, user.ID, model.ActionSendEmail, Action{SendEmail: &SendEmailAction{
		To: "student@example.com",
	}})
	if result.Success {
		t.Fatal("expected failure when enqueue fails")
	}
	if result.Error == "" {
		t.Error("expected error message")
	}
}

func TestExecuteSendNotification(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, nil)

	x := NewExecutor(store, &fakeQueue{}, discardLogger())

	result := x.Execute(ctx, user.ID, model.ActionSendNotification, Action{SendNotification: &SendNotificationAction{
		Message: "check your pipeline",
	}})
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
}

func TestExecuteUpdatePriority(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, nil)
	opp := seedOpportunity(t, store, "internship", nil)
	app := seedApplication(t, store, user.ID, opp.ID, model.StatusApplied, nil, testNow)

	x := NewExecutor(store, &fakeQueue{}, discardLogger())

	t.Run("owned application updated", func(t *testing.T) {
		result := x.Execute(ctx, user.ID, model.ActionUpdatePriority, Action{UpdatePriority: &UpdatePriorityAction{
			ApplicationID: app.ID,
			Priority:      5,
		}})
		if !result.Success {
			t.Fatalf("expected success, got error: %s", result.Error)
		}
		got, err := store.GetUserApplication(ctx, user.ID, app.ID)
		if err != nil {
			t.Fatalf("get application: %v", err)
		}
		if got.Priority != 5 {
			t.Errorf("priority = %d, want 5", got.Priority)
		}
	})

	t.Run("missing application", func(t *testing.T) {
		result := x.Execute(ctx, user.ID, model.ActionUpdatePriority, Action{UpdatePriority: &UpdatePriorityAction{
			ApplicationID: 9999,
			Priority:      2,
		}})
		if result.Success {
			t.Fatal("expected failure for missing application")
		}
		if diff := cmp.Diff("Application not found", result.Error); diff != "" {
			t.Errorf("error mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("application owned by someone else", func(t *testing.T) {
		other := &model.User{Email: "other@example.com", IsActive: true}
		if err := store.CreateUser(ctx, other); err != nil {
			t.Fatalf("create user: %v", err)
		}
		result := x.Execute(ctx, other.ID, model.ActionUpdatePriority, Action{UpdatePriority: &UpdatePriorityAction{
			ApplicationID: app.ID,
			Priority:      2,
		}})
		if result.Success {
			t.Fatal("expected failure for unowned application")
		}
		if diff := cmp.Diff("Application not found", result.Error); diff != "" {
			t.Errorf("error mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestExecuteUnknownKind(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := seedUser(t, store, nil)

	x := NewExecutor(store, &fakeQueue{}, discardLogger())

	result := x.Execute(ctx, user.ID, model.ActionKind("launch_rocket"), Action{})
	if result.Success {
		t.Fatal("expected failure for unknown action kind")
	}
	if diff := cmp.Diff("Unknown action type: launch_rocket", result.Error); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
}
