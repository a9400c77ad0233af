// Package scheduler drives the periodic entry points: rule batches,
// recommendation sweeps and stale score refreshes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Shrikant133/ElevAIte/internal/notify"
	"github.com/Shrikant133/ElevAIte/internal/recommend"
	"github.com/Shrikant133/ElevAIte/internal/rules"
	"github.com/Shrikant133/ElevAIte/internal/storage"
)

const digestSize = 5

// Scheduler runs the worker's periodic jobs on cron cadences.
type Scheduler struct {
	cron        *cron.Cron
	store       storage.Storage
	engine      *rules.Engine
	recommender *recommend.Recommender
	queue       notify.Queue
	log         *slog.Logger

	rulesSpec      string
	recLimit       int
	scoreStaleness time.Duration
}

// New creates a Scheduler. Rule batches run every rulesIntervalHours hours,
// the recommendation sweep runs daily and stale scores refresh every six hours.
func New(store storage.Storage, engine *rules.Engine, recommender *recommend.Recommender,
	queue notify.Queue, log *slog.Logger, rulesIntervalHours, recLimit, scoreStalenessDays int) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		store:          store,
		engine:         engine,
		recommender:    recommender,
		queue:          queue,
		log:            log,
		rulesSpec:      fmt.Sprintf("@every %dh", rulesIntervalHours),
		recLimit:       recLimit,
		scoreStaleness: time.Duration(scoreStalenessDays) * 24 * time.Hour,
	}
}

// Start registers the jobs and starts the scheduler. One rule pass runs
// immediately so a restart does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		run  func(context.Context)
	}{
		{s.rulesSpec, s.runRules},
		{"@daily", s.runRecommendations},
		{"@every 6h", s.runScoreRefresh},
	}
	for _, job := range jobs {
		run := job.run
		if _, err := s.cron.AddFunc(job.spec, func() { run(ctx) }); err != nil {
			return fmt.Errorf("register job %q: %w", job.spec, err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started", "rules_spec", s.rulesSpec)

	go s.runRules(ctx)

	return nil
}

// Stop shuts down the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// runRules processes the rule batch of every active user. Per-user failures
// are logged and do not stop the pass.
func (s *Scheduler) runRules(ctx context.Context) {
	userIDs, err := s.store.ListActiveUserIDs(ctx)
	if err != nil {
		s.log.Error("list active users", "error", err)
		return
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		results, err := s.engine.ProcessUserRules(ctx, userID)
		if err != nil {
			s.log.Error("process rules", "user_id", userID, "error", err)
			continue
		}
		fired := 0
		for _, res := range results {
			if res.Triggered {
				fired++
			}
		}
		if len(results) > 0 {
			s.log.Info("processed rules", "user_id", userID, "rules", len(results), "fired", fired)
		}
	}
}

// runRecommendations generates recommendations for every active user and
// enqueues a digest email with the top entries when there are any.
func (s *Scheduler) runRecommendations(ctx context.Context) {
	userIDs, err := s.store.ListActiveUserIDs(ctx)
	if err != nil {
		s.log.Error("list active users", "error", err)
		return
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		recs, err := s.recommender.Generate(ctx, userID, s.recLimit)
		if err != nil {
			s.log.Error("generate recommendations", "user_id", userID, "error", err)
			continue
		}
		s.log.Info("generated recommendations", "user_id", userID, "count", len(recs))
		if len(recs) == 0 {
			continue
		}

		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			s.log.Error("load user for digest", "user_id", userID, "error", err)
			continue
		}
		top := recs
		if len(top) > digestSize {
			top = top[:digestSize]
		}
		msg := notify.Message{
			To:      user.Email,
			Subject: notify.RecommendationsSubject(len(recs)),
			Body:    notify.FormatRecommendations(user.FullName, top),
			UserID:  userID,
		}
		if err := s.queue.Enqueue(ctx, msg); err != nil {
			s.log.Error("enqueue digest", "user_id", userID, "error", err)
		}
	}
}

func (s *Scheduler) runScoreRefresh(ctx context.Context) {
	updated, err := s.recommender.RefreshStaleScores(ctx, s.scoreStaleness)
	if err != nil {
		s.log.Error("refresh stale scores", "error", err)
		return
	}
	if updated > 0 {
		s.log.Info("score refresh complete", "updated", updated)
	}
}
