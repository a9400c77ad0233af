// Package rules implements the automation rule engine: payload decoding,
// trigger evaluation, action execution and per-user orchestration.
package rules

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Shrikant133/ElevAIte/internal/model"
)

// NoResponseCondition configures the application_no_response trigger.
type NoResponseCondition struct {
	Days int `mapstructure:"days"`
}

// DeadlineCondition configures the deadline_approaching trigger.
type DeadlineCondition struct {
	Hours int `mapstructure:"hours"`
}

// StatusUnchangedCondition configures the status_unchanged trigger.
type StatusUnchangedCondition struct {
	Days   int    `mapstructure:"days"`
	Status string `mapstructure:"status"`
}

// Condition is the decoded, typed parameter set of a trigger. Exactly one
// of the pointer fields is set for known trigger kinds; all of them are nil
// for unknown kinds.
type Condition struct {
	NoResponse      *NoResponseCondition
	Deadline        *DeadlineCondition
	StatusUnchanged *StatusUnchangedCondition
}

// CreateTaskAction configures the create_task action.
type CreateTaskAction struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	DueDays     int    `mapstructure:"due_days"`
	Priority    string `mapstructure:"priority"`
}

// SendEmailAction configures the send_email action.
type SendEmailAction struct {
	To      string `mapstructure:"to"`
	Subject string `mapstructure:"subject"`
	Body    string `mapstructure:"body"`
}

// SendNotificationAction configures the send_notification action.
type SendNotificationAction struct {
	Message string `mapstructure:"message"`
}

// UpdatePriorityAction configures the update_priority action.
type UpdatePriorityAction struct {
	ApplicationID int64 `mapstructure:"application_id"`
	Priority      int   `mapstructure:"priority"`
}

// Action is the decoded, typed parameter set of an action. Exactly one of
// the pointer fields is set for known action kinds; all of them are nil for
// unknown kinds.
type Action struct {
	CreateTask       *CreateTaskAction
	SendEmail        *SendEmailAction
	SendNotification *SendNotificationAction
	UpdatePriority   *UpdatePriorityAction
}

// DecodeCondition parses a stored condition payload into its typed form for
// the given trigger kind, applying per-kind defaults. An empty payload
// decodes to the defaults. Unknown trigger kinds decode to an empty
// Condition so the evaluator, not the decoder, reports them.
func DecodeCondition(kind model.TriggerKind, raw string) (Condition, error) {
	params, err := parsePayload(raw)
	if err != nil {
		return Condition{}, fmt.Errorf("condition payload: %w", err)
	}

	switch kind {
	case model.TriggerNoResponse:
		c := NoResponseCondition{Days: 7}
		if err := decodeParams(params, &c); err != nil {
			return Condition{}, err
		}
		return Condition{NoResponse: &c}, nil
	case model.TriggerDeadlineApproaching:
		c := DeadlineCondition{Hours: 48}
		if err := decodeParams(params, &c); err != nil {
			return Condition{}, err
		}
		return Condition{Deadline: &c}, nil
	case model.TriggerStatusUnchanged:
		c := StatusUnchangedCondition{Days: 14, Status: string(model.StatusApplied)}
		if err := decodeParams(params, &c); err != nil {
			return Condition{}, err
		}
		return Condition{StatusUnchanged: &c}, nil
	case model.TriggerDailyRecommendations:
		// No parameters; anything stored is ignored.
		return Condition{}, nil
	default:
		return Condition{}, nil
	}
}

// DecodeAction parses a stored action payload into its typed form for the
// given action kind, applying per-kind defaults. Unknown action kinds decode
// to an empty Action so the executor, not the decoder, reports them.
func DecodeAction(kind model.ActionKind, raw string) (Action, error) {
	params, err := parsePayload(raw)
	if err != nil {
		return Action{}, fmt.Errorf("action payload: %w", err)
	}

	switch kind {
	case model.ActionCreateTask:
		a := CreateTaskAction{Title: "Automated Task", DueDays: 1, Priority: "medium"}
		if err := decodeParams(params, &a); err != nil {
			return Action{}, err
		}
		return Action{CreateTask: &a}, nil
	case model.ActionSendEmail:
		a := SendEmailAction{Subject: "ElevAIte Notification"}
		if err := decodeParams(params, &a); err != nil {
			return Action{}, err
		}
		return Action{SendEmail: &a}, nil
	case model.ActionSendNotification:
		a := SendNotificationAction{}
		if err := decodeParams(params, &a); err != nil {
			return Action{}, err
		}
		return Action{SendNotification: &a}, nil
	case model.ActionUpdatePriority:
		a := UpdatePriorityAction{Priority: 1}
		if err := decodeParams(params, &a); err != nil {
			return Action{}, err
		}
		return Action{UpdatePriority: &a}, nil
	default:
		return Action{}, nil
	}
}

func parsePayload(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return params, nil
}

func decodeParams(params map[string]any, out any) error {
	if params == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: false,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
