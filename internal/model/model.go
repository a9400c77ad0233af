// Package model defines the domain types used across the application.
package model

import "time"

// User represents a student tracked by the system.
type User struct {
	ID         int64
	Email      string
	FullName   string
	Skills     []string
	Experience string
	IsActive   bool
	CreatedAt  time.Time
}

// TriggerKind defines the type of rule trigger.
type TriggerKind string

// Supported trigger kinds.
const (
	TriggerNoResponse           TriggerKind = "application_no_response"
	TriggerDeadlineApproaching  TriggerKind = "deadline_approaching"
	TriggerStatusUnchanged      TriggerKind = "status_unchanged"
	TriggerDailyRecommendations TriggerKind = "daily_recommendations"
)

// ActionKind defines the type of rule action.
type ActionKind string

// Supported action kinds.
const (
	ActionCreateTask       ActionKind = "create_task"
	ActionSendEmail        ActionKind = "send_email"
	ActionSendNotification ActionKind = "send_notification"
	ActionUpdatePriority   ActionKind = "update_priority"
)

// Rule represents a single automation rule owned by a user.
// ConditionJSON and ActionJSON hold the stored payloads as-is; the rules
// package decodes them into typed structures per kind.
type Rule struct {
	ID            int64
	UserID        int64
	Name          string
	Trigger       TriggerKind
	ConditionJSON string
	Action        ActionKind
	ActionJSON    string
	Enabled       bool
	LastRunAt     *time.Time
	RunCount      int64
	CreatedAt     time.Time
}

// ApplicationStatus defines the pipeline stage of an application.
type ApplicationStatus string

// Supported application statuses.
const (
	StatusToApply   ApplicationStatus = "to_apply"
	StatusApplied   ApplicationStatus = "applied"
	StatusInterview ApplicationStatus = "interview"
	StatusOffer     ApplicationStatus = "offer"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
)

// Successful reports whether the status counts as a positive outcome.
func (s ApplicationStatus) Successful() bool {
	return s == StatusOffer || s == StatusAccepted
}

// Application represents one user's application to an opportunity.
// OpportunityKind is denormalized from the opportunity so that history
// scoring does not need a second lookup per item.
type Application struct {
	ID              int64
	UserID          int64
	OpportunityID   int64
	OpportunityKind string
	Status          ApplicationStatus
	AppliedAt       *time.Time
	Priority        int
	ScoreFit        *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OpportunityStatus defines the lifecycle state of an opportunity.
type OpportunityStatus string

// Supported opportunity statuses.
const (
	OpportunityActive  OpportunityStatus = "active"
	OpportunityExpired OpportunityStatus = "expired"
	OpportunityFilled  OpportunityStatus = "filled"
)

// Organization represents the company or lab behind an opportunity.
type Organization struct {
	ID   int64
	Name string
}

// Opportunity represents a job, internship or research posting.
type Opportunity struct {
	ID             int64
	Organization   Organization
	Kind           string
	Title          string
	Location       string
	URL            string
	SkillsRequired []string
	Description    string
	DeadlineAt     *time.Time
	SalaryMin      *int64
	SalaryMax      *int64
	Status         OpportunityStatus
	CreatedAt      time.Time
}

// TaskSourceRuleEngine tags tasks created by the rule engine.
const TaskSourceRuleEngine = "rule_engine"

// Task represents an actionable to-do created for a user.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	DueAt       time.Time
	Priority    string
	Source      string
	CreatedAt   time.Time
}

// Recommendation is one ranked entry produced for a user. Recommendations
// are handed to the caller per ranking invocation and never persisted.
type Recommendation struct {
	Opportunity  Opportunity
	Organization Organization
	FitScore     float64
}
