// internal/pool/fakes_test.go
package pool

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rental-pool/internal/models"
)

// ==========================
// In-memory repository fake
// ==========================

type fakeRepo struct {
	mu sync.Mutex

	requests  map[string]*models.RentalRequest
	landlords map[string]*models.LandlordCandidate
	available map[string]bool
	matches   map[string]*models.LandlordRequestMatch // landlordID|requestID
	snapshots []models.PoolAnalytics

	findLandlordsErr  error
	createMatchesErr  error
	updateRequestErr  error
	deleteMatchesErr  error
	findLandlordCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		requests:  map[string]*models.RentalRequest{},
		landlords: map[string]*models.LandlordCandidate{},
		available: map[string]bool{},
		matches:   map[string]*models.LandlordRequestMatch{},
	}
}

func matchKey(landlordID, requestID string) string {
	return landlordID + "|" + requestID
}

func (f *fakeRepo) addRequest(req models.RentalRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := req
	f.requests[req.ID] = &r
}

func (f *fakeRepo) addLandlord(c models.LandlordCandidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := c
	f.landlords[c.ID] = &l
	f.available[c.ID] = c.ActiveContracts < c.TotalCapacity
}

func (f *fakeRepo) matchesFilter(r *models.RentalRequest, filter RequestFilter) bool {
	if filter.ID != "" && r.ID != filter.ID {
		return false
	}
	if filter.PoolStatus != "" && r.PoolStatus != filter.PoolStatus {
		return false
	}
	if filter.Location != "" && r.Location != filter.Location {
		return false
	}
	if filter.ExpiredBefore != nil {
		if r.ExpiresAt == nil || !r.ExpiresAt.Before(*filter.ExpiredBefore) {
			return false
		}
	}
	return true
}

func (f *fakeRepo) UpdateRentalRequest(_ context.Context, id string, upd RequestUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateRequestErr != nil {
		return false, f.updateRequestErr
	}
	r, ok := f.requests[id]
	if !ok {
		return false, nil
	}
	if upd.PoolStatus != nil {
		r.PoolStatus = *upd.PoolStatus
	}
	if upd.ExpiresAt != nil {
		expires := *upd.ExpiresAt
		r.ExpiresAt = &expires
	}
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeRepo) FindRentalRequests(_ context.Context, filter RequestFilter) ([]models.RentalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RentalRequest
	for _, r := range f.requests {
		if f.matchesFilter(r, filter) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CountRentalRequests(_ context.Context, filter RequestFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if f.matchesFilter(r, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) IncrementRequestViews(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.requests[id]; ok {
		r.ViewCount++
	}
	return nil
}

func (f *fakeRepo) FindMatchingLandlords(_ context.Context, location string, budget float64, limit int) ([]models.LandlordCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findLandlordCalls++
	if f.findLandlordsErr != nil {
		return nil, f.findLandlordsErr
	}

	var out []models.LandlordCandidate
	for _, l := range f.landlords {
		if !f.available[l.ID] || l.ActiveContracts >= l.TotalCapacity {
			continue
		}
		if !containsLocation(l.PreferredLocations, location) {
			continue
		}
		if l.MinBudget != nil && budget < *l.MinBudget {
			continue
		}
		if l.MaxBudget != nil && budget > *l.MaxBudget {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActiveAt.Equal(out[j].LastActiveAt) {
			return out[i].LastActiveAt.After(out[j].LastActiveAt)
		}
		spareI := out[i].TotalCapacity - out[i].ActiveContracts
		spareJ := out[j].TotalCapacity - out[j].ActiveContracts
		return spareI > spareJ
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsLocation(locations []string, location string) bool {
	for _, l := range locations {
		if strings.EqualFold(l, location) {
			return true
		}
	}
	return false
}

func (f *fakeRepo) CountAvailableLandlords(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id := range f.landlords {
		if f.available[id] {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) CountLandlordsByLocation(_ context.Context, location string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.landlords {
		if containsLocation(l.PreferredLocations, location) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) AdjustLandlordCapacity(_ context.Context, landlordID string, increment bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.landlords[landlordID]
	if !ok {
		return false, nil
	}
	if increment {
		l.ActiveContracts++
		f.available[landlordID] = l.ActiveContracts < l.TotalCapacity
		l.LastActiveAt = time.Now().UTC()
	} else {
		if l.ActiveContracts > 0 {
			l.ActiveContracts--
		}
		f.available[landlordID] = true
	}
	return true, nil
}

func (f *fakeRepo) CreateMatches(_ context.Context, rows []models.LandlordRequestMatch) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMatchesErr != nil {
		return 0, f.createMatchesErr
	}
	inserted := 0
	for _, row := range rows {
		key := matchKey(row.LandlordID, row.RentalRequestID)
		if _, exists := f.matches[key]; exists {
			continue
		}
		m := row
		f.matches[key] = &m
		inserted++
	}
	return inserted, nil
}

func (f *fakeRepo) DeleteMatchesByRequest(_ context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteMatchesErr != nil {
		return f.deleteMatchesErr
	}
	for key, m := range f.matches {
		if m.RentalRequestID == requestID {
			delete(f.matches, key)
		}
	}
	return nil
}

func (f *fakeRepo) FindMatchesByRequest(_ context.Context, requestID string) ([]models.LandlordRequestMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LandlordRequestMatch
	for _, m := range f.matches {
		if m.RentalRequestID == requestID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MatchLandlordIDs(_ context.Context, requestID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.matches {
		if m.RentalRequestID == requestID {
			out = append(out, m.LandlordID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeRepo) MarkMatchViewed(_ context.Context, landlordID, requestID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchKey(landlordID, requestID)]
	if !ok || m.IsViewed {
		return false, nil
	}
	m.IsViewed = true
	return true, nil
}

func (f *fakeRepo) UpdateMatchResponse(_ context.Context, landlordID, requestID string, status models.MatchStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchKey(landlordID, requestID)]
	if !ok {
		return false, nil
	}
	m.Status = status
	m.IsResponded = true
	return true, nil
}

func (f *fakeRepo) CountMatchesSince(_ context.Context, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.matches {
		if m.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ListLandlordMatches(_ context.Context, landlordID string, limit, offset int) ([]models.LandlordRequestView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	var out []models.LandlordRequestView
	for _, m := range f.matches {
		if m.LandlordID != landlordID || m.IsViewed {
			continue
		}
		r, ok := f.requests[m.RentalRequestID]
		if !ok || r.PoolStatus != models.PoolStatusActive {
			continue
		}
		if r.ExpiresAt == nil || !r.ExpiresAt.After(now) {
			continue
		}
		out = append(out, models.LandlordRequestView{
			MatchID:         m.ID,
			RentalRequestID: r.ID,
			MatchScore:      m.MatchScore,
			MatchReason:     m.MatchReason,
			Location:        r.Location,
			Budget:          r.Budget,
			MoveInDate:      r.MoveInDate,
			ExpiresAt:       *r.ExpiresAt,
			CreatedAt:       m.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CountLandlordMatches(_ context.Context, landlordID string) (int, error) {
	views, err := f.ListLandlordMatches(context.Background(), landlordID, 1<<30, 0)
	if err != nil {
		return 0, err
	}
	return len(views), nil
}

func (f *fakeRepo) InsertAnalyticsSnapshot(_ context.Context, snap models.PoolAnalytics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	return nil
}

// ==========================
// In-memory cache fake
// ==========================

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes = append(c.deletes, k)
	}
}

func (c *fakeCache) DeleteByPrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	c.deletes = append(c.deletes, prefix+"*")
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
