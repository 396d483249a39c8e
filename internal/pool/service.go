// internal/pool/service.go
package pool

import (
	"context"
	"time"

	"rental-pool/internal/common/logger"
	"rental-pool/internal/common/observability"
	"rental-pool/internal/models"
	"rental-pool/internal/notify"
)

// Service is the composed entry point callers use. It wires the pool manager,
// matcher, capacity tracker and listing over one repository and cache, and
// wraps every operation with a span and an operation metric.
type Service struct {
	Manager  *Manager
	Matcher  *Matcher
	Capacity *CapacityTracker
	Listing  *Listing

	tracing *observability.Tracing
	obs     *observability.Observability
}

// ServiceDeps carries the collaborators a Service needs. Cache, Analytics and
// Notifier may be left nil; no-op implementations are substituted.
type ServiceDeps struct {
	Repo      Repository
	Cache     Cache
	Analytics AnalyticsSink
	Notifier  notify.MatchNotifier
	Tracing   *observability.Tracing
	Obs       *observability.Observability
	Logger    logger.Logger
}

func NewService(deps ServiceDeps) *Service {
	if deps.Cache == nil {
		deps.Cache = NewNopCache()
	}
	if deps.Analytics == nil {
		deps.Analytics = NewNopAnalyticsSink()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewNopNotifier()
	}

	matcher := NewMatcher(deps.Repo, deps.Cache, deps.Logger)
	return &Service{
		Manager:  NewManager(deps.Repo, deps.Cache, matcher, deps.Analytics, deps.Notifier, deps.Logger),
		Matcher:  matcher,
		Capacity: NewCapacityTracker(deps.Repo, deps.Cache, deps.Logger),
		Listing:  NewListing(deps.Repo, deps.Cache, deps.Logger),
		tracing:  deps.Tracing,
		obs:      deps.Obs,
	}
}

func (s *Service) instrument(ctx context.Context, op string) (context.Context, func(err error)) {
	ctx, span := s.tracing.StartSpan(ctx, op)
	start := time.Now()
	return ctx, func(err error) {
		span.End()
		if s.obs == nil {
			return
		}
		status := "success"
		if err != nil {
			status = "error"
		}
		s.obs.RecordOperation(ctx, op, status)
		s.obs.RecordOperationDuration(ctx, op, time.Since(start))
	}
}

func (s *Service) AdmitToPool(ctx context.Context, req *models.RentalRequest) (created int, err error) {
	ctx, done := s.instrument(ctx, "pool.admit")
	defer func() { done(err) }()
	return s.Manager.AdmitToPool(ctx, req)
}

func (s *Service) RemoveFromPool(ctx context.Context, requestID string, reason models.PoolStatus) (err error) {
	ctx, done := s.instrument(ctx, "pool.remove")
	defer func() { done(err) }()
	return s.Manager.RemoveFromPool(ctx, requestID, reason)
}

func (s *Service) CleanupExpiredRequests(ctx context.Context) (removed int, err error) {
	ctx, done := s.instrument(ctx, "pool.sweep")
	defer func() { done(err) }()
	return s.Manager.CleanupExpiredRequests(ctx)
}

func (s *Service) PoolStats(ctx context.Context) (stats models.PoolStats, err error) {
	ctx, done := s.instrument(ctx, "pool.stats")
	defer func() { done(err) }()
	return s.Manager.PoolStats(ctx)
}

func (s *Service) UpdateCapacity(ctx context.Context, landlordID string, increment bool) (err error) {
	ctx, done := s.instrument(ctx, "pool.capacity")
	defer func() { done(err) }()
	return s.Capacity.UpdateCapacity(ctx, landlordID, increment)
}

func (s *Service) RequestsForLandlord(ctx context.Context, landlordID string, page, limit int) (result LandlordRequestPage, err error) {
	ctx, done := s.instrument(ctx, "pool.listing")
	defer func() { done(err) }()
	return s.Listing.RequestsForLandlord(ctx, landlordID, page, limit)
}

func (s *Service) MarkAsViewed(ctx context.Context, landlordID, requestID string) (err error) {
	ctx, done := s.instrument(ctx, "pool.mark_viewed")
	defer func() { done(err) }()
	return s.Listing.MarkAsViewed(ctx, landlordID, requestID)
}

func (s *Service) RespondToMatch(ctx context.Context, landlordID, requestID string, status models.MatchStatus) (err error) {
	ctx, done := s.instrument(ctx, "pool.respond")
	defer func() { done(err) }()
	return s.Listing.RespondToMatch(ctx, landlordID, requestID, status)
}
