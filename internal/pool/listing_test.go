// internal/pool/listing_test.go
package pool

import (
	"context"
	"fmt"
	"testing"
	"time"

	commonerrors "rental-pool/internal/common/errors"
	"rental-pool/internal/common/logger"
	"rental-pool/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedListing(repo *fakeRepo, landlordID string, n int) {
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)
	for i := 0; i < n; i++ {
		reqID := fmt.Sprintf("req-%02d", i)
		repo.addRequest(models.RentalRequest{
			ID:         reqID,
			Location:   "Warsaw",
			Budget:     3000,
			PoolStatus: models.PoolStatusActive,
			ExpiresAt:  &future,
		})
		repo.matches[matchKey(landlordID, reqID)] = &models.LandlordRequestMatch{
			ID:              "match-" + reqID,
			LandlordID:      landlordID,
			RentalRequestID: reqID,
			MatchScore:      50 + i,
			Status:          models.MatchStatusPending,
			CreatedAt:       now.Add(-time.Duration(i) * time.Minute),
		}
	}
}

func TestListing_RequestsForLandlord_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	seedListing(repo, "landlord-1", 45)

	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	page1, err := l.RequestsForLandlord(ctx, "landlord-1", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page1.Requests, 20)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 20, Total: 45, Pages: 3}, page1.Pagination)

	// Best score first.
	assert.Equal(t, 94, page1.Requests[0].MatchScore)
	for i := 1; i < len(page1.Requests); i++ {
		assert.LessOrEqual(t, page1.Requests[i].MatchScore, page1.Requests[i-1].MatchScore)
	}

	page3, err := l.RequestsForLandlord(ctx, "landlord-1", 3, 20)
	require.NoError(t, err)
	assert.Len(t, page3.Requests, 5)

	page4, err := l.RequestsForLandlord(ctx, "landlord-1", 4, 20)
	require.NoError(t, err)
	assert.Empty(t, page4.Requests)
	assert.Equal(t, 45, page4.Pagination.Total)
}

func TestListing_RequestsForLandlord_SecondPageSlice(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	seedListing(repo, "landlord-1", 45) // scores 50..94

	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	page2, err := l.RequestsForLandlord(ctx, "landlord-1", 2, 10)
	require.NoError(t, err)
	require.Len(t, page2.Requests, 10)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 10, Total: 45, Pages: 5}, page2.Pagination)

	// Items 11-20 of the ranked feed: scores 84 down to 75.
	for i, v := range page2.Requests {
		assert.Equal(t, 84-i, v.MatchScore)
	}
}

func TestListing_RequestsForLandlord_NormalizesPaging(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	seedListing(repo, "landlord-1", 3)

	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	tests := []struct {
		name          string
		page, limit   int
		expectedPage  int
		expectedLimit int
	}{
		{"zero values", 0, 0, 1, DefaultPageSize},
		{"negative page", -2, 10, 1, 10},
		{"oversized limit", 1, 5000, 1, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := l.RequestsForLandlord(ctx, "landlord-1", tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPage, result.Pagination.Page)
			assert.Equal(t, tt.expectedLimit, result.Pagination.Limit)
		})
	}
}

func TestListing_RequestsForLandlord_ExcludesInactiveAndViewed(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	repo.addRequest(models.RentalRequest{ID: "req-live", PoolStatus: models.PoolStatusActive, ExpiresAt: &future})
	repo.addRequest(models.RentalRequest{ID: "req-expired", PoolStatus: models.PoolStatusActive, ExpiresAt: &past})
	repo.addRequest(models.RentalRequest{ID: "req-matched", PoolStatus: models.PoolStatusMatched, ExpiresAt: &future})
	for _, reqID := range []string{"req-live", "req-expired", "req-matched"} {
		repo.matches[matchKey("landlord-1", reqID)] = &models.LandlordRequestMatch{
			ID:              "match-" + reqID,
			LandlordID:      "landlord-1",
			RentalRequestID: reqID,
			CreatedAt:       now,
		}
	}
	repo.addRequest(models.RentalRequest{ID: "req-seen", PoolStatus: models.PoolStatusActive, ExpiresAt: &future})
	repo.matches[matchKey("landlord-1", "req-seen")] = &models.LandlordRequestMatch{
		LandlordID:      "landlord-1",
		RentalRequestID: "req-seen",
		IsViewed:        true,
		CreatedAt:       now,
	}

	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	result, err := l.RequestsForLandlord(ctx, "landlord-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Requests, 1)
	assert.Equal(t, "req-live", result.Requests[0].RentalRequestID)
	assert.Equal(t, 1, result.Pagination.Total)
}

func TestListing_RequestsForLandlord_ServedFromCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := newFakeCache()
	seedListing(repo, "landlord-1", 2)

	l := NewListing(repo, cache, logger.NewNoOpLogger())

	first, err := l.RequestsForLandlord(ctx, "landlord-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, first.Requests, 2)

	// Feed changes, but the cached page keeps serving.
	seedListing(repo, "landlord-1", 5)
	second, err := l.RequestsForLandlord(ctx, "landlord-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListing_MarkAsViewed(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := newFakeCache()
	seedListing(repo, "landlord-1", 1)
	cache.Set(ctx, landlordListingCacheKey("landlord-1", 1, 20), []byte("cached"), listingCacheTTL)

	l := NewListing(repo, cache, logger.NewNoOpLogger())

	require.NoError(t, l.MarkAsViewed(ctx, "landlord-1", "req-00"))
	assert.True(t, repo.matches[matchKey("landlord-1", "req-00")].IsViewed)
	assert.Equal(t, 1, repo.requests["req-00"].ViewCount)
	assert.False(t, cache.has(landlordListingCacheKey("landlord-1", 1, 20)))

	// Second view of the same match does not bump the counter again.
	require.NoError(t, l.MarkAsViewed(ctx, "landlord-1", "req-00"))
	assert.Equal(t, 1, repo.requests["req-00"].ViewCount)
}

func TestListing_MarkAsViewed_UnknownMatchIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	assert.NoError(t, l.MarkAsViewed(context.Background(), "landlord-1", "ghost"))
}

func TestListing_RespondToMatch(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	seedListing(repo, "landlord-1", 1)

	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	require.NoError(t, l.RespondToMatch(ctx, "landlord-1", "req-00", models.MatchStatusOffered))
	m := repo.matches[matchKey("landlord-1", "req-00")]
	assert.Equal(t, models.MatchStatusOffered, m.Status)
	assert.True(t, m.IsResponded)
}

func TestListing_RespondToMatch_Invalid(t *testing.T) {
	repo := newFakeRepo()
	seedListing(repo, "landlord-1", 1)
	l := NewListing(repo, NewNopCache(), logger.NewNoOpLogger())

	err := l.RespondToMatch(context.Background(), "landlord-1", "req-00", models.MatchStatusPending)
	assert.Error(t, err)

	err = l.RespondToMatch(context.Background(), "landlord-1", "ghost", models.MatchStatusOffered)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	assert.Equal(t, commonerrors.ErrCodeRequestNotFound, commonerrors.CodeOf(err))
}
