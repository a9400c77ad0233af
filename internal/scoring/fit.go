// Package scoring computes fit scores for (user, opportunity) pairs.
package scoring

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/Shrikant133/ElevAIte/internal/model"
)

// Signal weights of the composite fit score.
const (
	weightSkills     = 0.35
	weightExperience = 0.25
	weightUrgency    = 0.15
	weightConversion = 0.25
)

const recentHistoryWindow = 90 * 24 * time.Hour

// Scorer computes fit scores. It is a pure function of its inputs and the
// injected clock, so one Scorer can score candidates concurrently.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a Scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// SetNow overrides the clock (useful for testing).
func (s *Scorer) SetNow(now func() time.Time) {
	s.now = now
}

// FitScore computes the composite 0-100 relevance score of an opportunity
// for a user, given the user's skills, experience narrative and full
// application history.
func (s *Scorer) FitScore(skills []string, experience string, opp model.Opportunity, history []model.Application) float64 {
	skillScore := SkillMatch(skills, opp.SkillsRequired)
	experienceScore := ExperienceMatch(experience, opp.Description)
	urgencyScore := s.Urgency(opp.DeadlineAt)
	conversionScore := s.ConversionLikelihood(history, opp.Kind)

	score := skillScore*weightSkills +
		experienceScore*weightExperience +
		urgencyScore*weightUrgency +
		conversionScore*weightConversion

	return clamp(score)
}

// SkillMatch scores the overlap of user skills and required skills with
// case-insensitive Jaccard similarity. An opportunity without skill
// requirements scores neutral; a user without skills scores zero against a
// non-empty requirement.
func SkillMatch(userSkills, requiredSkills []string) float64 {
	required := lowerSet(requiredSkills)
	if len(required) == 0 {
		return 50.0
	}
	user := lowerSet(userSkills)
	if len(user) == 0 {
		return 0.0
	}

	intersection := 0
	for skill := range user {
		if required[skill] {
			intersection++
		}
	}
	union := len(user) + len(required) - intersection
	return float64(intersection) / float64(union) * 100.0
}

// ExperienceMatch scores how well the user's experience narrative matches
// the opportunity description using cosine similarity of term-frequency
// vectors. Empty or degenerate texts score neutral.
func ExperienceMatch(experience, description string) float64 {
	if experience == "" || description == "" {
		return 50.0
	}

	expVec := termFrequencies(experience)
	descVec := termFrequencies(description)

	similarity, ok := cosine(expVec, descVec)
	if !ok {
		return 50.0
	}
	return similarity * 100.0
}

// Urgency scores how pressing the opportunity deadline is. Buckets use
// whole days until the deadline with inclusive upper bounds.
func (s *Scorer) Urgency(deadline *time.Time) float64 {
	if deadline == nil {
		return 50.0
	}

	days := int(math.Floor(deadline.Sub(s.now().UTC()).Hours() / 24))
	switch {
	case days < 0:
		return 0.0
	case days <= 2:
		return 100.0
	case days <= 7:
		return 80.0
	case days <= 30:
		return 60.0
	default:
		return 40.0
	}
}

// ConversionLikelihood estimates the chance of a positive outcome from the
// user's history of same-kind applications. Recent history (trailing 90
// days) is weighted more heavily when present.
func (s *Scorer) ConversionLikelihood(history []model.Application, kind string) float64 {
	var similar []model.Application
	for _, app := range history {
		if app.OpportunityKind == kind {
			similar = append(similar, app)
		}
	}
	if len(similar) == 0 {
		return 50.0
	}

	successful := 0
	for _, app := range similar {
		if app.Status.Successful() {
			successful++
		}
	}
	overallRate := float64(successful) / float64(len(similar))

	recentCutoff := s.now().UTC().Add(-recentHistoryWindow)
	recentTotal, recentSuccessful := 0, 0
	for _, app := range similar {
		if app.CreatedAt.After(recentCutoff) {
			recentTotal++
			if app.Status.Successful() {
				recentSuccessful++
			}
		}
	}

	rate := overallRate
	if recentTotal > 0 {
		recentRate := float64(recentSuccessful) / float64(recentTotal)
		rate = overallRate*0.4 + recentRate*0.6
	}
	return rate * 100.0
}

func clamp(score float64) float64 {
	return math.Min(100.0, math.Max(0.0, score))
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func termFrequencies(text string) map[string]float64 {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	freq := make(map[string]float64, len(terms))
	for _, term := range terms {
		freq[term]++
	}
	return freq
}

// cosine returns the cosine similarity of two term-frequency vectors. The
// second return value is false when either vector is degenerate.
func cosine(a, b map[string]float64) (float64, bool) {
	var dot, normA, normB float64
	for term, fa := range a {
		normA += fa * fa
		if fb, ok := b[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
