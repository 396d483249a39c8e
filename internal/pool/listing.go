// internal/pool/listing.go
package pool

import (
	"context"
	"encoding/json"
	"fmt"

	commonerrors "rental-pool/internal/common/errors"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// LandlordRequestPage is one page of a landlord's unviewed match feed.
type LandlordRequestPage struct {
	Requests   []models.LandlordRequestView `json:"requests"`
	Pagination models.Pagination            `json:"pagination"`
}

// Listing serves the landlord-facing view of the pool: which requests matched
// them, ranked by score.
type Listing struct {
	repo   Repository
	cache  Cache
	logger logger.Logger
}

func NewListing(repo Repository, cache Cache, log logger.Logger) *Listing {
	return &Listing{
		repo:   repo,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "listing"}),
	}
}

// RequestsForLandlord returns the landlord's unviewed matches against active,
// unexpired requests, best score first. Page and limit are normalized rather
// than rejected; pages may be cached for up to two minutes.
func (l *Listing) RequestsForLandlord(ctx context.Context, landlordID string, page, limit int) (LandlordRequestPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	key := landlordListingCacheKey(landlordID, page, limit)
	if raw, ok := l.cache.Get(ctx, key); ok {
		var cached LandlordRequestPage
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		l.cache.Delete(ctx, key)
	}

	offset := (page - 1) * limit
	requests, err := l.repo.ListLandlordMatches(ctx, landlordID, limit, offset)
	if err != nil {
		return LandlordRequestPage{}, fmt.Errorf("list matches for landlord %s: %w", landlordID, err)
	}
	total, err := l.repo.CountLandlordMatches(ctx, landlordID)
	if err != nil {
		return LandlordRequestPage{}, fmt.Errorf("count matches for landlord %s: %w", landlordID, err)
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	result := LandlordRequestPage{
		Requests: requests,
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}

	if raw, err := json.Marshal(result); err == nil {
		l.cache.Set(ctx, key, raw, listingCacheTTL)
	}
	return result, nil
}

// MarkAsViewed flags a match as seen by the landlord and bumps the request's
// view counter. Only the first call counts; repeats are no-ops, so a double
// tap cannot inflate the counter.
func (l *Listing) MarkAsViewed(ctx context.Context, landlordID, requestID string) error {
	flipped, err := l.repo.MarkMatchViewed(ctx, landlordID, requestID)
	if err != nil {
		return fmt.Errorf("mark match viewed: %w", err)
	}
	if !flipped {
		return nil
	}

	if err := l.repo.IncrementRequestViews(ctx, requestID); err != nil {
		return fmt.Errorf("increment views for request %s: %w", requestID, err)
	}

	l.cache.Delete(ctx, requestCacheKey(requestID))
	l.cache.DeleteByPrefix(ctx, landlordCachePrefix(landlordID))
	return nil
}

// RespondToMatch records the landlord's answer to a match. Unknown matches
// are ErrRequestNotFound.
func (l *Listing) RespondToMatch(ctx context.Context, landlordID, requestID string, status models.MatchStatus) error {
	if status != models.MatchStatusOffered && status != models.MatchStatusDeclined {
		return fmt.Errorf("invalid match response %q", status)
	}

	found, err := l.repo.UpdateMatchResponse(ctx, landlordID, requestID, status)
	if err != nil {
		return fmt.Errorf("respond to match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %w", ErrRequestNotFound, commonerrors.NewRequestNotFoundError(requestID))
	}

	l.cache.DeleteByPrefix(ctx, landlordCachePrefix(landlordID))

	l.logger.Info("landlord responded to match", map[string]interface{}{
		"landlordId": landlordID,
		"requestId":  requestID,
		"status":     string(status),
	})
	return nil
}
