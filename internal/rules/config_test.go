package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Shrikant133/ElevAIte/internal/model"
)

func TestDecodeCondition(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.TriggerKind
		raw     string
		want    Condition
		wantErr bool
	}{
		{
			name: "no response defaults",
			kind: model.TriggerNoResponse,
			raw:  "",
			want: Condition{NoResponse: &NoResponseCondition{Days: 7}},
		},
		{
			name: "no response override",
			kind: model.TriggerNoResponse,
			raw:  `{"days": 10}`,
			want: Condition{NoResponse: &NoResponseCondition{Days: 10}},
		},
		{
			name: "deadline defaults",
			kind: model.TriggerDeadlineApproaching,
			raw:  `{}`,
			want: Condition{Deadline: &DeadlineCondition{Hours: 48}},
		},
		{
			name: "status unchanged defaults",
			kind: model.TriggerStatusUnchanged,
			raw:  "",
			want: Condition{StatusUnchanged: &StatusUnchangedCondition{Days: 14, Status: "applied"}},
		},
		{
			name: "status unchanged override",
			kind: model.TriggerStatusUnchanged,
			raw:  `{"days": 30, "status": "interview"}`,
			want: Condition{StatusUnchanged: &StatusUnchangedCondition{Days: 30, Status: "interview"}},
		},
		{
			name: "daily recommendations ignores payload",
			kind: model.TriggerDailyRecommendations,
			raw:  `{"days": 3}`,
			want: Condition{},
		},
		{
			name: "unknown kind decodes empty",
			kind: model.TriggerKind("mystery"),
			raw:  `{"days": 3}`,
			want: Condition{},
		},
		{
			name:    "malformed JSON",
			kind:    model.TriggerNoResponse,
			raw:     `{"days":`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			kind:    model.TriggerNoResponse,
			raw:     `{"days": "week"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCondition(tt.kind, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeCondition mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.ActionKind
		raw     string
		want    Action
		wantErr bool
	}{
		{
			name: "create task defaults",
			kind: model.ActionCreateTask,
			raw:  "",
			want: Action{CreateTask: &CreateTaskAction{Title: "Automated Task", DueDays: 1, Priority: "medium"}},
		},
		{
			name: "create task override",
			kind: model.ActionCreateTask,
			raw:  `{"title": "Follow up", "description": "Ping the recruiter", "due_days": 3, "priority": "high"}`,
			want: Action{CreateTask: &CreateTaskAction{
				Title: "Follow up", Description: "Ping the recruiter", DueDays: 3, Priority: "high",
			}},
		},
		{
			name: "send email defaults subject",
			kind: model.ActionSendEmail,
			raw:  `{"to": "me@example.com", "body": "hello"}`,
			want: Action{SendEmail: &SendEmailAction{
				To: "me@example.com", Subject: "ElevAIte Notification", Body: "hello",
			}},
		},
		{
			name: "send notification",
			kind: model.ActionSendNotification,
			raw:  `{"message": "check your pipeline"}`,
			want: Action{SendNotification: &SendNotificationAction{Message: "check your pipeline"}},
		},
		{
			name: "update priority defaults",
			kind: model.ActionUpdatePriority,
			raw:  `{"application_id": 42}`,
			want: Action{UpdatePriority: &UpdatePriorityAction{ApplicationID: 42, Priority: 1}},
		},
		{
			name: "unknown kind decodes empty",
			kind: model.ActionKind("launch_rocket"),
			raw:  `{"thrust": 7}`,
			want: Action{},
		},
		{
			name:    "malformed JSON",
			kind:    model.ActionCreateTask,
			raw:     `not json`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			kind:    model.ActionUpdatePriority,
			raw:     `{"application_id": "abc"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAction(tt.kind, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeAction mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
