package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Shrikant133/ElevAIte/internal/model"
	"github.com/Shrikant133/ElevAIte/internal/notify"
	"github.com/Shrikant133/ElevAIte/internal/storage"
)

// RuleResult is the per-rule outcome of one batch run. A processed rule has
// Success=true; any failure while handling the rule (malformed payload,
// store error, bookkeeping write) yields Success=false and Error instead.
type RuleResult struct {
	RuleID       int64
	Success      bool
	Triggered    bool
	Message      string
	ActionResult *ActionResult
	Error        string
}

// Engine orchestrates rule processing for individual users. Batches for
// different users may run concurrently; batches for the same user are
// serialized through a per-user lock so a rule cannot double-fire.
type Engine struct {
	store     storage.Storage
	evaluator *Evaluator
	executor  *Executor
	log       *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine creates an Engine with its evaluator and executor.
func NewEngine(store storage.Storage, queue notify.Queue, log *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		evaluator: NewEvaluator(store, log),
		executor:  NewExecutor(store, queue, log),
		log:       log,
		now:       time.Now,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// SetNow overrides the clock on the engine and its components (useful for testing).
func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
	e.evaluator.SetNow(now)
	e.executor.SetNow(now)
}

// ProcessUserRules runs all enabled rules for one user sequentially and
// returns one ordered result per rule. A failure in one rule never affects
// the others.
func (e *Engine) ProcessUserRules(ctx context.Context, userID int64) ([]RuleResult, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rules, err := e.store.ListEnabledRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list enabled rules: %w", err)
	}

	results := make([]RuleResult, 0, len(rules))
	for _, rule := range rules {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		result := e.processRule(ctx, rule)
		if !result.Success {
			e.log.Error("rule processing failed", "rule_id", rule.ID, "user_id", userID, "error", result.Error)
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) processRule(ctx context.Context, rule model.Rule) RuleResult {
	cond, err := DecodeCondition(rule.Trigger, rule.ConditionJSON)
	if err != nil {
		return RuleResult{RuleID: rule.ID, Error: err.Error()}
	}
	action, err := DecodeAction(rule.Action, rule.ActionJSON)
	if err != nil {
		return RuleResult{RuleID: rule.ID, Error: err.Error()}
	}

	triggered, err := e.evaluator.ShouldFire(ctx, rule.UserID, rule.Trigger, cond)
	if err != nil {
		return RuleResult{RuleID: rule.ID, Error: err.Error()}
	}
	if !triggered {
		return RuleResult{RuleID: rule.ID, Success: true, Triggered: false, Message: "Conditions not met"}
	}

	actionResult := e.executor.Execute(ctx, rule.UserID, rule.Action, action)

	// The action executor was invoked, so the rule fired: update bookkeeping
	// regardless of the action outcome.
	if err := e.store.UpdateRuleRun(ctx, rule.ID, e.now().UTC(), rule.RunCount+1); err != nil {
		return RuleResult{RuleID: rule.ID, Error: fmt.Sprintf("update rule run: %v", err)}
	}

	return RuleResult{RuleID: rule.ID, Success: true, Triggered: true, ActionResult: &actionResult}
}

func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}
