// internal/pool/manager.go
package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "rental-pool/internal/common/errors"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/common/metrics"
	"rental-pool/internal/models"
	"rental-pool/internal/notify"

	"github.com/google/uuid"
)

// PoolTTL is how long an admitted request stays matchable before the sweep
// expires it.
const PoolTTL = 30 * 24 * time.Hour

// recentMatchWindow bounds the "recent matches" figure in pool stats.
const recentMatchWindow = 24 * time.Hour

// AnalyticsSink receives pool analytics snapshots after they are persisted.
// Sinks are best-effort; a failing sink never fails a pool operation.
type AnalyticsSink interface {
	IndexSnapshot(ctx context.Context, snap models.PoolAnalytics) error
}

// NopAnalyticsSink is the default when no analytics backend is configured.
type NopAnalyticsSink struct{}

func NewNopAnalyticsSink() NopAnalyticsSink { return NopAnalyticsSink{} }

func (NopAnalyticsSink) IndexSnapshot(context.Context, models.PoolAnalytics) error { return nil }

// Manager owns the request pool lifecycle: admission, removal and the
// expiration sweep.
type Manager struct {
	repo      Repository
	cache     Cache
	matcher   *Matcher
	analytics AnalyticsSink
	notifier  notify.MatchNotifier
	logger    logger.Logger
}

func NewManager(repo Repository, cache Cache, matcher *Matcher, analytics AnalyticsSink, notifier notify.MatchNotifier, log logger.Logger) *Manager {
	return &Manager{
		repo:      repo,
		cache:     cache,
		matcher:   matcher,
		analytics: analytics,
		notifier:  notifier,
		logger:    log.WithFields(map[string]interface{}{"component": "pool-manager"}),
	}
}

// AdmitToPool activates a rental request in the pool, stamps its expiry and
// immediately matches it against eligible landlords. Returns the number of
// match rows created. Admitting an unknown request is ErrRequestNotFound.
func (p *Manager) AdmitToPool(ctx context.Context, req *models.RentalRequest) (int, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(PoolTTL)
	status := models.PoolStatusActive

	updated, err := p.repo.UpdateRentalRequest(ctx, req.ID, RequestUpdate{
		PoolStatus: &status,
		ExpiresAt:  &expiresAt,
	})
	if err != nil {
		return 0, fmt.Errorf("admit request %s: %w", req.ID, err)
	}
	if !updated {
		return 0, fmt.Errorf("%w: %w", ErrRequestNotFound, commonerrors.NewRequestNotFoundError(req.ID))
	}
	req.PoolStatus = status
	req.ExpiresAt = &expiresAt

	created, landlordIDs, err := p.matcher.FindAndCreateMatches(ctx, req)
	if err != nil {
		return 0, err
	}

	metrics.PoolRequestsAdmitted.Inc()
	metrics.MatchesCreated.Add(float64(created))

	p.cacheRequest(ctx, req)
	p.invalidateLandlords(ctx, landlordIDs)
	p.cache.Delete(ctx, statsCacheKey)
	p.snapshotAnalytics(ctx, req.Location)
	if created > 0 {
		p.publishMatchCreated(ctx, req, landlordIDs, created, now)
	}

	p.logger.Info("request admitted to pool", map[string]interface{}{
		"requestId": req.ID,
		"location":  req.Location,
		"expiresAt": expiresAt,
		"matches":   created,
	})
	return created, nil
}

// RemoveFromPool takes a request out of the pool with a terminal status and
// deletes its pending matches. Removing a request that is already gone is a
// no-op, so removal is safe to retry.
func (p *Manager) RemoveFromPool(ctx context.Context, requestID string, reason models.PoolStatus) error {
	if !reason.IsTerminal() {
		return ErrInvalidRemovalReason
	}

	// Landlord ids are read before the match rows disappear; they drive the
	// listing-cache invalidation below.
	landlordIDs, err := p.repo.MatchLandlordIDs(ctx, requestID)
	if err != nil {
		p.logger.Warn("could not list matched landlords before removal", map[string]interface{}{
			"requestId": requestID,
			"error":     err,
		})
		landlordIDs = nil
	}

	reasonStatus := reason
	updated, err := p.repo.UpdateRentalRequest(ctx, requestID, RequestUpdate{PoolStatus: &reasonStatus})
	if err != nil {
		return fmt.Errorf("remove request %s: %w", requestID, err)
	}
	if !updated {
		p.logger.Debug("removal of unknown request ignored", map[string]interface{}{
			"requestId": requestID,
		})
		return nil
	}

	if err := p.repo.DeleteMatchesByRequest(ctx, requestID); err != nil {
		return fmt.Errorf("delete matches for request %s: %w", requestID, err)
	}

	p.cache.Delete(ctx, requestCacheKey(requestID), statsCacheKey)
	p.invalidateLandlords(ctx, landlordIDs)
	metrics.PoolRequestsRemoved.WithLabelValues(string(reason)).Inc()

	p.logger.Info("request removed from pool", map[string]interface{}{
		"requestId": requestID,
		"reason":    string(reason),
		"landlords": len(landlordIDs),
	})
	return nil
}

// CleanupExpiredRequests expires every active request whose pool TTL has
// passed. Each request is handled in isolation: one failure is logged and
// counted, the sweep moves on. Returns how many requests were expired.
func (p *Manager) CleanupExpiredRequests(ctx context.Context) (int, error) {
	start := time.Now()
	now := start.UTC()

	expired, err := p.repo.FindRentalRequests(ctx, RequestFilter{
		PoolStatus:    models.PoolStatusActive,
		ExpiredBefore: &now,
	})
	if err != nil {
		metrics.SweepFailures.Inc()
		return 0, fmt.Errorf("find expired requests: %w", err)
	}

	removed := 0
	for _, req := range expired {
		if err := p.RemoveFromPool(ctx, req.ID, models.PoolStatusExpired); err != nil {
			metrics.SweepFailures.Inc()
			p.logger.Error("failed to expire request, continuing sweep", map[string]interface{}{
				"requestId": req.ID,
				"error":     err,
			})
			continue
		}
		removed++
	}

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if len(expired) > 0 {
		p.logger.Info("expiration sweep finished", map[string]interface{}{
			"candidates": len(expired),
			"removed":    removed,
		})
	}
	return removed, nil
}

// PoolStats reports the pool-wide aggregate counters. Served from cache for up
// to two minutes.
func (p *Manager) PoolStats(ctx context.Context) (models.PoolStats, error) {
	if raw, ok := p.cache.Get(ctx, statsCacheKey); ok {
		var cached models.PoolStats
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		p.cache.Delete(ctx, statsCacheKey)
	}

	active, err := p.repo.CountRentalRequests(ctx, RequestFilter{PoolStatus: models.PoolStatusActive})
	if err != nil {
		return models.PoolStats{}, fmt.Errorf("count active requests: %w", err)
	}
	landlords, err := p.repo.CountAvailableLandlords(ctx)
	if err != nil {
		return models.PoolStats{}, fmt.Errorf("count available landlords: %w", err)
	}
	recent, err := p.repo.CountMatchesSince(ctx, time.Now().UTC().Add(-recentMatchWindow))
	if err != nil {
		return models.PoolStats{}, fmt.Errorf("count recent matches: %w", err)
	}

	stats := models.PoolStats{
		ActiveRequests:     active,
		AvailableLandlords: landlords,
		RecentMatches:      recent,
	}
	if raw, err := json.Marshal(stats); err == nil {
		p.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL)
	}
	return stats, nil
}

func (p *Manager) cacheRequest(ctx context.Context, req *models.RentalRequest) {
	raw, err := json.Marshal(req)
	if err != nil {
		return
	}
	p.cache.Set(ctx, requestCacheKey(req.ID), raw, requestCacheTTL)
}

func (p *Manager) invalidateLandlords(ctx context.Context, landlordIDs []string) {
	for _, id := range landlordIDs {
		p.cache.DeleteByPrefix(ctx, landlordCachePrefix(id))
	}
}

// snapshotAnalytics records a per-location snapshot after an admission. Both
// the row insert and the sink index are best-effort.
func (p *Manager) snapshotAnalytics(ctx context.Context, location string) {
	total, err := p.repo.CountRentalRequests(ctx, RequestFilter{Location: location})
	if err != nil {
		p.logger.Warn("analytics snapshot skipped", map[string]interface{}{"location": location, "error": err})
		return
	}
	active, err := p.repo.CountRentalRequests(ctx, RequestFilter{Location: location, PoolStatus: models.PoolStatusActive})
	if err != nil {
		p.logger.Warn("analytics snapshot skipped", map[string]interface{}{"location": location, "error": err})
		return
	}
	matched, err := p.repo.CountRentalRequests(ctx, RequestFilter{Location: location, PoolStatus: models.PoolStatusMatched})
	if err != nil {
		p.logger.Warn("analytics snapshot skipped", map[string]interface{}{"location": location, "error": err})
		return
	}
	expired, err := p.repo.CountRentalRequests(ctx, RequestFilter{Location: location, PoolStatus: models.PoolStatusExpired})
	if err != nil {
		p.logger.Warn("analytics snapshot skipped", map[string]interface{}{"location": location, "error": err})
		return
	}
	landlords, err := p.repo.CountLandlordsByLocation(ctx, location)
	if err != nil {
		p.logger.Warn("analytics snapshot skipped", map[string]interface{}{"location": location, "error": err})
		return
	}

	snap := models.PoolAnalytics{
		ID:              uuid.New().String(),
		Location:        location,
		TotalRequests:   total,
		ActiveRequests:  active,
		MatchedRequests: matched,
		ExpiredRequests: expired,
		LandlordCount:   landlords,
		Date:            time.Now().UTC(),
	}
	if err := p.repo.InsertAnalyticsSnapshot(ctx, snap); err != nil {
		p.logger.Warn("analytics snapshot insert failed", map[string]interface{}{"location": location, "error": err})
		return
	}
	if err := p.analytics.IndexSnapshot(ctx, snap); err != nil {
		p.logger.Warn("analytics snapshot index failed", map[string]interface{}{"location": location, "error": err})
	}
}

func (p *Manager) publishMatchCreated(ctx context.Context, req *models.RentalRequest, landlordIDs []string, created int, at time.Time) {
	event := notify.MatchCreatedEvent{
		EventType:   notify.EventTypeMatchCreated,
		RequestID:   req.ID,
		Location:    req.Location,
		LandlordIDs: landlordIDs,
		MatchCount:  created,
		CreatedAt:   at.Format(time.RFC3339),
	}
	if err := p.notifier.PublishMatchCreated(ctx, event); err != nil {
		p.logger.Warn("match notification failed", map[string]interface{}{
			"requestId": req.ID,
			"error":     err,
		})
	}
}
