// Package recommend ranks opportunities for users and keeps stored fit
// scores fresh.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shrikant133/ElevAIte/internal/model"
	"github.com/Shrikant133/ElevAIte/internal/scoring"
	"github.com/Shrikant133/ElevAIte/internal/storage"
)

const (
	// DefaultLimit is the number of recommendations returned when the
	// caller does not ask for a specific amount.
	DefaultLimit = 10

	// maxPerOrganization caps how many recommendations one organization
	// may occupy in a single ranking.
	maxPerOrganization = 2

	// maxConcurrentScores bounds the scoring fan-out within one ranking call.
	maxConcurrentScores = 8
)

// Recommender generates ranked opportunity recommendations.
type Recommender struct {
	store  storage.Storage
	scorer *scoring.Scorer
	log    *slog.Logger
}

// New creates a Recommender.
func New(store storage.Storage, scorer *scoring.Scorer, log *slog.Logger) *Recommender {
	return &Recommender{store: store, scorer: scorer, log: log}
}

// Generate ranks active opportunities the user has not applied to and
// returns at most limit recommendations, capped per organization. All
// candidates are scored against one snapshot of the user's skills,
// experience and application history.
func (r *Recommender) Generate(ctx context.Context, userID int64, limit int) ([]model.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	history, err := r.store.ListApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load application history: %w", err)
	}

	appliedIDs := make([]int64, 0, len(history))
	seen := make(map[int64]bool, len(history))
	for _, app := range history {
		if !seen[app.OpportunityID] {
			seen[app.OpportunityID] = true
			appliedIDs = append(appliedIDs, app.OpportunityID)
		}
	}

	candidates, err := r.store.ListActiveOpportunities(ctx, appliedIDs)
	if err != nil {
		return nil, fmt.Errorf("load candidate opportunities: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Every candidate scores against the same snapshot; each goroutine
	// writes only its own slot.
	scores := make([]float64, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)
	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = r.scorer.FitScore(user.Skills, user.Experience, candidates[i], history)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		// Deterministic ranking for equal scores.
		return candidates[ia].ID < candidates[ib].ID
	})

	perOrg := make(map[int64]int)
	recommendations := make([]model.Recommendation, 0, limit)
	for _, i := range order {
		org := candidates[i].Organization
		if perOrg[org.ID] >= maxPerOrganization {
			continue
		}
		perOrg[org.ID]++
		recommendations = append(recommendations, model.Recommendation{
			Opportunity:  candidates[i],
			Organization: org,
			FitScore:     scores[i],
		})
		if len(recommendations) >= limit {
			break
		}
	}
	return recommendations, nil
}

// RefreshStaleScores recomputes fit scores for applications whose score is
// missing or older than staleness, committing the batch in one transaction.
// Per-application scoring errors are logged and skipped; a failed commit
// aborts the whole batch. Returns the number of applications updated.
func (r *Recommender) RefreshStaleScores(ctx context.Context, staleness time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-staleness)
	stale, err := r.store.ListStaleScoredApplications(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale applications: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	type snapshot struct {
		user    *model.User
		history []model.Application
	}
	snapshots := make(map[int64]snapshot)

	scores := make(map[int64]float64, len(stale))
	for _, app := range stale {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		snap, ok := snapshots[app.UserID]
		if !ok {
			user, err := r.store.GetUser(ctx, app.UserID)
			if err != nil {
				r.log.Error("load user for score refresh", "user_id", app.UserID, "error", err)
				continue
			}
			history, err := r.store.ListApplications(ctx, app.UserID)
			if err != nil {
				r.log.Error("load history for score refresh", "user_id", app.UserID, "error", err)
				continue
			}
			snap = snapshot{user: user, history: history}
			snapshots[app.UserID] = snap
		}

		opp, err := r.store.GetOpportunity(ctx, app.OpportunityID)
		if err != nil {
			r.log.Error("load opportunity for score refresh", "application_id", app.ID, "error", err)
			continue
		}

		// History excludes the application being rescored.
		history := make([]model.Application, 0, len(snap.history))
		for _, h := range snap.history {
			if h.ID != app.ID {
				history = append(history, h)
			}
		}

		scores[app.ID] = r.scorer.FitScore(snap.user.Skills, snap.user.Experience, *opp, history)
	}

	if err := r.store.UpdateApplicationScores(ctx, scores); err != nil {
		return 0, fmt.Errorf("persist refreshed scores: %w", err)
	}
	r.log.Info("refreshed fit scores", "updated", len(scores), "stale", len(stale))
	return len(scores), nil
}
