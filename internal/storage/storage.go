// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Shrikant133/ElevAIte/internal/model"
)

// ErrNotFound is returned when a requested record does not exist or is not
// owned by the given user.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListActiveUserIDs(ctx context.Context) ([]int64, error)

	CreateRule(ctx context.Context, r *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	ListEnabledRules(ctx context.Context, userID int64) ([]model.Rule, error)
	UpdateRuleRun(ctx context.Context, id int64, lastRunAt time.Time, runCount int64) error

	CreateOrganization(ctx context.Context, o *model.Organization) error
	CreateOpportunity(ctx context.Context, o *model.Opportunity) error
	GetOpportunity(ctx context.Context, id int64) (*model.Opportunity, error)
	ListActiveOpportunities(ctx context.Context, excludeIDs []int64) ([]model.Opportunity, error)

	CreateApplication(ctx context.Context, a *model.Application) error
	GetUserApplication(ctx context.Context, userID, id int64) (*model.Application, error)
	ListApplications(ctx context.Context, userID int64) ([]model.Application, error)
	ListStaleScoredApplications(ctx context.Context, cutoff time.Time) ([]model.Application, error)
	UpdateApplicationPriority(ctx context.Context, userID, id int64, priority int) error
	UpdateApplicationScores(ctx context.Context, scores map[int64]float64) error

	CountNoResponse(ctx context.Context, userID int64, appliedBefore time.Time) (int, error)
	CountDeadlineApproaching(ctx context.Context, userID int64, deadlineBefore time.Time) (int, error)
	CountStatusUnchanged(ctx context.Context, userID int64, status model.ApplicationStatus, updatedBefore time.Time) (int, error)

	CreateTask(ctx context.Context, t *model.Task) error
	ListTasks(ctx context.Context, userID int64) ([]model.Task, error)

	Close() error
}
