// internal/pool/matcher.go
package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"rental-pool/internal/common/logger"
	"rental-pool/internal/models"

	"github.com/google/uuid"
)

// MaxCandidates caps how many landlords a single request is matched against.
// A cost-control bound, not an error condition.
const MaxCandidates = 100

// Scoring policy. Base score plus capacity, recency and quality bonuses,
// clamped to [0, 100].
const (
	baseScore          = 50
	capacityBonusMax   = 20
	recencyBonusDay    = 15
	recencyBonusWeek   = 10
	recencyBonusMonth  = 5
	acceptanceBonus    = 10
	responseTimeBonus  = 5
	minAcceptanceRate  = 0.8
	fastResponseMins   = 60
	spareReasonMinFrac = 0.5
)

// Matcher finds eligible landlords for a rental request, scores them and
// persists the match rows.
type Matcher struct {
	repo   Repository
	cache  Cache
	logger logger.Logger
}

func NewMatcher(repo Repository, cache Cache, log logger.Logger) *Matcher {
	return &Matcher{
		repo:   repo,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "matcher"}),
	}
}

// FindMatchingLandlords returns the ranked candidate list for a (location,
// budget) pair. Results may be served from cache for up to five minutes; a hit
// is structurally identical to a fresh query.
func (m *Matcher) FindMatchingLandlords(ctx context.Context, location string, budget float64) ([]models.LandlordCandidate, error) {
	key := candidatesCacheKey(location, budget)
	if raw, ok := m.cache.Get(ctx, key); ok {
		var cached []models.LandlordCandidate
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		m.cache.Delete(ctx, key)
	}

	candidates, err := m.repo.FindMatchingLandlords(ctx, location, budget, MaxCandidates)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(candidates); err == nil {
		m.cache.Set(ctx, key, raw, candidatesCacheTTL)
	}
	return candidates, nil
}

// CalculateMatchScore scores a candidate landlord. Pure: deterministic given
// the candidate and the reference time, no side effects.
func CalculateMatchScore(c models.LandlordCandidate, now time.Time) int {
	score := float64(baseScore)

	if c.TotalCapacity > 0 {
		score += c.SpareCapacityFraction() * capacityBonusMax
	}

	// Recency tiers are exclusive: only the highest matching tier applies.
	sinceActive := now.Sub(c.LastActiveAt)
	switch {
	case sinceActive <= 24*time.Hour:
		score += recencyBonusDay
	case sinceActive <= 7*24*time.Hour:
		score += recencyBonusWeek
	case sinceActive <= 30*24*time.Hour:
		score += recencyBonusMonth
	}

	if c.AcceptanceRate > minAcceptanceRate {
		score += acceptanceBonus
	}
	// Zero minutes means no response-time data yet, not an instant responder.
	if c.AvgResponseTimeMins > 0 && c.AvgResponseTimeMins < fastResponseMins {
		score += responseTimeBonus
	}

	final := int(math.Round(score))
	if final < 0 {
		return 0
	}
	if final > 100 {
		return 100
	}
	return final
}

// GenerateMatchReason explains a match from the same signals as the score, in
// capacity, acceptance-rate, response-time order.
func GenerateMatchReason(c models.LandlordCandidate) string {
	var reasons []string

	if c.TotalCapacity > 0 && c.SpareCapacityFraction() >= spareReasonMinFrac {
		reasons = append(reasons, "Plenty of spare capacity")
	}
	if c.AcceptanceRate > minAcceptanceRate {
		reasons = append(reasons, "High acceptance rate")
	}
	if c.AvgResponseTimeMins > 0 && c.AvgResponseTimeMins < fastResponseMins {
		reasons = append(reasons, "Fast response time")
	}

	if len(reasons) == 0 {
		return "Location and budget match"
	}
	return strings.Join(reasons, ", ")
}

// FindAndCreateMatches scores every candidate for the request and
// batch-inserts the match rows with skip-duplicate semantics. Returns the
// number of rows created and the candidate landlord ids.
func (m *Matcher) FindAndCreateMatches(ctx context.Context, req *models.RentalRequest) (int, []string, error) {
	candidates, err := m.FindMatchingLandlords(ctx, req.Location, req.Budget)
	if err != nil {
		return 0, nil, err
	}
	if len(candidates) == 0 {
		m.logger.Info("no matching landlords for request", map[string]interface{}{
			"requestId": req.ID,
			"location":  req.Location,
		})
		return 0, nil, nil
	}

	now := time.Now().UTC()
	rows := make([]models.LandlordRequestMatch, 0, len(candidates))
	landlordIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, models.LandlordRequestMatch{
			ID:              uuid.New().String(),
			LandlordID:      c.ID,
			RentalRequestID: req.ID,
			MatchScore:      CalculateMatchScore(c, now),
			MatchReason:     GenerateMatchReason(c),
			Status:          models.MatchStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		landlordIDs = append(landlordIDs, c.ID)
	}

	created, err := m.repo.CreateMatches(ctx, rows)
	if err != nil {
		return 0, nil, fmt.Errorf("create matches for request %s: %w", req.ID, err)
	}

	m.logger.Info("matches created", map[string]interface{}{
		"requestId":  req.ID,
		"candidates": len(candidates),
		"created":    created,
	})
	return created, landlordIDs, nil
}
