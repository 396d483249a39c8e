// internal/pool/repository.go
package pool

import (
	"context"
	"errors"
	"time"

	"rental-pool/internal/models"
)

var (
	ErrQueryFailed          = errors.New("QUERY_EXECUTION_FAILED")
	ErrInsertFailed         = errors.New("DATABASE_INSERT_FAILED")
	ErrUpdateFailed         = errors.New("DATABASE_UPDATE_FAILED")
	ErrRequestNotFound      = errors.New("REQUEST_NOT_FOUND")
	ErrInvalidRemovalReason = errors.New("INVALID_REMOVAL_REASON")
)

// RequestFilter selects rental requests. Zero-value fields are ignored.
type RequestFilter struct {
	ID            string
	PoolStatus    models.PoolStatus
	Location      string
	ExpiredBefore *time.Time
}

// RequestUpdate carries the mutable pool-owned fields of a rental request.
// Nil fields are left untouched.
type RequestUpdate struct {
	PoolStatus *models.PoolStatus
	ExpiresAt  *time.Time
}

// Repository is the persistent-store contract the pool core consumes. The
// relational schema itself is external; these are the read/write operations
// defined over it.
type Repository interface {
	// Rental requests
	UpdateRentalRequest(ctx context.Context, id string, upd RequestUpdate) (bool, error)
	FindRentalRequests(ctx context.Context, f RequestFilter) ([]models.RentalRequest, error)
	CountRentalRequests(ctx context.Context, f RequestFilter) (int, error)
	IncrementRequestViews(ctx context.Context, id string) error

	// Landlords
	FindMatchingLandlords(ctx context.Context, location string, budget float64, limit int) ([]models.LandlordCandidate, error)
	CountAvailableLandlords(ctx context.Context) (int, error)
	CountLandlordsByLocation(ctx context.Context, location string) (int, error)
	AdjustLandlordCapacity(ctx context.Context, landlordID string, increment bool) (bool, error)

	// Matches
	CreateMatches(ctx context.Context, rows []models.LandlordRequestMatch) (int, error)
	DeleteMatchesByRequest(ctx context.Context, requestID string) error
	FindMatchesByRequest(ctx context.Context, requestID string) ([]models.LandlordRequestMatch, error)
	MatchLandlordIDs(ctx context.Context, requestID string) ([]string, error)
	MarkMatchViewed(ctx context.Context, landlordID, requestID string) (bool, error)
	UpdateMatchResponse(ctx context.Context, landlordID, requestID string, status models.MatchStatus) (bool, error)
	CountMatchesSince(ctx context.Context, since time.Time) (int, error)
	ListLandlordMatches(ctx context.Context, landlordID string, limit, offset int) ([]models.LandlordRequestView, error)
	CountLandlordMatches(ctx context.Context, landlordID string) (int, error)

	// Analytics
	InsertAnalyticsSnapshot(ctx context.Context, snap models.PoolAnalytics) error
}
