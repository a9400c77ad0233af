package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shrikant133/ElevAIte/internal/model"
	"github.com/Shrikant133/ElevAIte/internal/storage"
)

// Evaluator decides whether a rule's trigger condition is currently met.
type Evaluator struct {
	store storage.Storage
	log   *slog.Logger
	now   func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given store.
func NewEvaluator(store storage.Storage, log *slog.Logger) *Evaluator {
	return &Evaluator{store: store, log: log, now: time.Now}
}

// SetNow overrides the clock (useful for testing).
func (e *Evaluator) SetNow(now func() time.Time) {
	e.now = now
}

// ShouldFire evaluates the trigger for the given user. Unknown trigger kinds
// never fire; they are logged as a warning, not reported as an error.
func (e *Evaluator) ShouldFire(ctx context.Context, userID int64, kind model.TriggerKind, cond Condition) (bool, error) {
	switch kind {
	case model.TriggerNoResponse:
		cutoff := e.now().UTC().AddDate(0, 0, -cond.NoResponse.Days)
		count, err := e.store.CountNoResponse(ctx, userID, cutoff)
		if err != nil {
			return false, fmt.Errorf("check no response: %w", err)
		}
		return count > 0, nil

	case model.TriggerDeadlineApproaching:
		cutoff := e.now().UTC().Add(time.Duration(cond.Deadline.Hours) * time.Hour)
		count, err := e.store.CountDeadlineApproaching(ctx, userID, cutoff)
		if err != nil {
			return false, fmt.Errorf("check deadline approaching: %w", err)
		}
		return count > 0, nil

	case model.TriggerStatusUnchanged:
		cutoff := e.now().UTC().AddDate(0, 0, -cond.StatusUnchanged.Days)
		status := model.ApplicationStatus(cond.StatusUnchanged.Status)
		count, err := e.store.CountStatusUnchanged(ctx, userID, status, cutoff)
		if err != nil {
			return false, fmt.Errorf("check status unchanged: %w", err)
		}
		return count > 0, nil

	case model.TriggerDailyRecommendations:
		return true, nil

	default:
		e.log.Warn("unknown trigger kind", "trigger", string(kind), "user_id", userID)
		return false, nil
	}
}
