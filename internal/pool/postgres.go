// internal/pool/postgres.go
package pool

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonerrors "rental-pool/internal/common/errors"
	"rental-pool/internal/models"
)

// PostgresRepository implements Repository against the shared relational
// store. All timestamps are stored in UTC.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Store failures carry both the package sentinel for branching and a
// StandardError for classification (code, retryable).
func queryError(op string, err error) error {
	return fmt.Errorf("%w: %w", ErrQueryFailed, commonerrors.NewQueryExecutionError(op+": "+err.Error()))
}

func updateError(op string, err error) error {
	return fmt.Errorf("%w: %w", ErrUpdateFailed, commonerrors.NewQueryExecutionError(op+": "+err.Error()))
}

func insertError(op string, err error) error {
	return fmt.Errorf("%w: %w", ErrInsertFailed, commonerrors.NewDatabaseInsertError(op+": "+err.Error()))
}

const rentalRequestColumns = `id, tenant_id, location, budget, move_in_date, pool_status, pool_expires_at, view_count, created_at, updated_at`

func (r *PostgresRepository) UpdateRentalRequest(ctx context.Context, id string, upd RequestUpdate) (bool, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	if upd.PoolStatus != nil {
		args = append(args, string(*upd.PoolStatus))
		sets = append(sets, fmt.Sprintf("pool_status = $%d", len(args)))
	}
	if upd.ExpiresAt != nil {
		args = append(args, upd.ExpiresAt.UTC())
		sets = append(sets, fmt.Sprintf("pool_expires_at = $%d", len(args)))
	}

	query := fmt.Sprintf("UPDATE rental_requests SET %s WHERE id = $1", strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, updateError("update rental request", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, updateError("rows affected", err)
	}
	return n > 0, nil
}

func buildRequestWhere(f RequestFilter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}

	if f.ID != "" {
		args = append(args, f.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if f.PoolStatus != "" {
		args = append(args, string(f.PoolStatus))
		conds = append(conds, fmt.Sprintf("pool_status = $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, f.Location)
		conds = append(conds, fmt.Sprintf("location = $%d", len(args)))
	}
	if f.ExpiredBefore != nil {
		args = append(args, f.ExpiredBefore.UTC())
		conds = append(conds, fmt.Sprintf("pool_expires_at < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) FindRentalRequests(ctx context.Context, f RequestFilter) ([]models.RentalRequest, error) {
	where, args := buildRequestWhere(f)
	query := "SELECT " + rentalRequestColumns + " FROM rental_requests" + where + " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("find rental requests", err)
	}
	defer rows.Close()

	var out []models.RentalRequest
	for rows.Next() {
		var req models.RentalRequest
		var expiresAt sql.NullTime
		var status string
		err := rows.Scan(
			&req.ID, &req.TenantID, &req.Location, &req.Budget, &req.MoveInDate,
			&status, &expiresAt, &req.ViewCount, &req.CreatedAt, &req.UpdatedAt,
		)
		if err != nil {
			return nil, queryError("scan rental request", err)
		}
		req.PoolStatus = models.PoolStatus(status)
		if expiresAt.Valid {
			t := expiresAt.Time
			req.ExpiresAt = &t
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate rental requests", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountRentalRequests(ctx context.Context, f RequestFilter) (int, error) {
	where, args := buildRequestWhere(f)
	query := "SELECT COUNT(*) FROM rental_requests" + where

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, queryError("count rental requests", err)
	}
	return count, nil
}

func (r *PostgresRepository) IncrementRequestViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rental_requests
		SET view_count = view_count + 1, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return updateError("increment view count", err)
	}
	return nil
}

// FindMatchingLandlords runs the selection predicate and the ordering
// contract: most recently active first, then most spare capacity.
func (r *PostgresRepository) FindMatchingLandlords(ctx context.Context, location string, budget float64, limit int) ([]models.LandlordCandidate, error) {
	locJSON, err := json.Marshal([]string{location})
	if err != nil {
		return nil, queryError("marshal location", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.active_contracts, u.total_capacity, u.last_active_at,
		       p.preferred_locations, p.min_budget, p.max_budget,
		       p.avg_response_time_mins, p.acceptance_rate
		FROM users u
		JOIN landlord_profiles p ON p.user_id = u.id
		WHERE u.role = 'LANDLORD'
		  AND u.availability = TRUE
		  AND u.active_contracts < u.total_capacity
		  AND p.preferred_locations @> $1::jsonb
		  AND (p.max_budget IS NULL OR p.max_budget >= $2)
		  AND (p.min_budget IS NULL OR p.min_budget <= $2)
		ORDER BY u.last_active_at DESC, (u.total_capacity - u.active_contracts) DESC
		LIMIT $3`, locJSON, budget, limit)
	if err != nil {
		return nil, queryError("find matching landlords", err)
	}
	defer rows.Close()

	var out []models.LandlordCandidate
	for rows.Next() {
		var c models.LandlordCandidate
		var prefLocs []byte
		var minBudget, maxBudget sql.NullFloat64
		err := rows.Scan(
			&c.ID, &c.ActiveContracts, &c.TotalCapacity, &c.LastActiveAt,
			&prefLocs, &minBudget, &maxBudget,
			&c.AvgResponseTimeMins, &c.AcceptanceRate,
		)
		if err != nil {
			return nil, queryError("scan landlord candidate", err)
		}
		if err := json.Unmarshal(prefLocs, &c.PreferredLocations); err != nil {
			c.PreferredLocations = []string{}
		}
		if minBudget.Valid {
			v := minBudget.Float64
			c.MinBudget = &v
		}
		if maxBudget.Valid {
			v := maxBudget.Float64
			c.MaxBudget = &v
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate landlord candidates", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountAvailableLandlords(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users
		WHERE role = 'LANDLORD' AND availability = TRUE`).Scan(&count)
	if err != nil {
		return 0, queryError("count available landlords", err)
	}
	return count, nil
}

func (r *PostgresRepository) CountLandlordsByLocation(ctx context.Context, location string) (int, error) {
	locJSON, err := json.Marshal([]string{location})
	if err != nil {
		return 0, queryError("marshal location", err)
	}

	var count int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM users u
		JOIN landlord_profiles p ON p.user_id = u.id
		WHERE u.role = 'LANDLORD' AND p.preferred_locations @> $1::jsonb`, locJSON).Scan(&count)
	if err != nil {
		return 0, queryError("count landlords by location", err)
	}
	return count, nil
}

// AdjustLandlordCapacity applies the capacity delta and the availability
// recomputation in one statement so concurrent contract events on the same
// landlord cannot interleave between read and write. Decrement unconditionally
// re-opens availability.
func (r *PostgresRepository) AdjustLandlordCapacity(ctx context.Context, landlordID string, increment bool) (bool, error) {
	var query string
	if increment {
		query = `
		UPDATE users
		SET active_contracts = active_contracts + 1,
		    availability = (active_contracts + 1) < total_capacity,
		    last_active_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND role = 'LANDLORD'`
	} else {
		query = `
		UPDATE users
		SET active_contracts = GREATEST(active_contracts - 1, 0),
		    availability = TRUE,
		    updated_at = NOW()
		WHERE id = $1 AND role = 'LANDLORD'`
	}

	res, err := r.db.ExecContext(ctx, query, landlordID)
	if err != nil {
		return false, updateError("adjust landlord capacity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, updateError("rows affected", err)
	}
	return n > 0, nil
}

// CreateMatches batch-inserts match rows, skipping rows that would violate the
// (landlord_id, rental_request_id) uniqueness constraint so retries and
// replays are safe. Returns the number of rows actually inserted.
func (r *PostgresRepository) CreateMatches(ctx context.Context, matches []models.LandlordRequestMatch) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO landlord_request_matches
		(id, landlord_id, rental_request_id, match_score, match_reason, is_viewed, is_responded, status, created_at, updated_at)
		VALUES `)
	args := make([]interface{}, 0, len(matches)*8)
	for i, m := range matches {
		if i > 0 {
			sb.WriteString(",")
		}
		base := len(args)
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, FALSE, FALSE, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			m.ID, m.LandlordID, m.RentalRequestID, m.MatchScore, m.MatchReason,
			string(m.Status), m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
		)
	}
	sb.WriteString(" ON CONFLICT (landlord_id, rental_request_id) DO NOTHING")

	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, insertError("create matches", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, insertError("rows affected", err)
	}
	return int(n), nil
}

func (r *PostgresRepository) DeleteMatchesByRequest(ctx context.Context, requestID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM landlord_request_matches WHERE rental_request_id = $1`, requestID)
	if err != nil {
		return updateError("delete matches", err)
	}
	return nil
}

func (r *PostgresRepository) FindMatchesByRequest(ctx context.Context, requestID string) ([]models.LandlordRequestMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, landlord_id, rental_request_id, match_score, match_reason,
		       is_viewed, is_responded, status, created_at, updated_at
		FROM landlord_request_matches
		WHERE rental_request_id = $1
		ORDER BY match_score DESC, created_at DESC`, requestID)
	if err != nil {
		return nil, queryError("find matches", err)
	}
	defer rows.Close()

	var out []models.LandlordRequestMatch
	for rows.Next() {
		var m models.LandlordRequestMatch
		var status string
		err := rows.Scan(
			&m.ID, &m.LandlordID, &m.RentalRequestID, &m.MatchScore, &m.MatchReason,
			&m.IsViewed, &m.IsResponded, &status, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, queryError("scan match", err)
		}
		m.Status = models.MatchStatus(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate matches", err)
	}
	return out, nil
}

func (r *PostgresRepository) MatchLandlordIDs(ctx context.Context, requestID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT landlord_id FROM landlord_request_matches
		WHERE rental_request_id = $1`, requestID)
	if err != nil {
		return nil, queryError("match landlord ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, queryError("scan landlord id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate landlord ids", err)
	}
	return ids, nil
}

// MarkMatchViewed flips is_viewed once. Returns false when there was nothing
// to flip (no such match, or already viewed).
func (r *PostgresRepository) MarkMatchViewed(ctx context.Context, landlordID, requestID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE landlord_request_matches
		SET is_viewed = TRUE, updated_at = NOW()
		WHERE landlord_id = $1 AND rental_request_id = $2 AND is_viewed = FALSE`,
		landlordID, requestID)
	if err != nil {
		return false, updateError("mark match viewed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, updateError("rows affected", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) UpdateMatchResponse(ctx context.Context, landlordID, requestID string, status models.MatchStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE landlord_request_matches
		SET is_responded = TRUE, status = $3, updated_at = NOW()
		WHERE landlord_id = $1 AND rental_request_id = $2`,
		landlordID, requestID, string(status))
	if err != nil {
		return false, updateError("update match response", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, updateError("rows affected", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) CountMatchesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM landlord_request_matches WHERE created_at >= $1`,
		since.UTC()).Scan(&count)
	if err != nil {
		return 0, queryError("count recent matches", err)
	}
	return count, nil
}

const landlordListingPredicate = `
		FROM landlord_request_matches m
		JOIN rental_requests r ON r.id = m.rental_request_id
		WHERE m.landlord_id = $1
		  AND m.is_viewed = FALSE
		  AND r.pool_status = 'ACTIVE'
		  AND r.pool_expires_at > NOW()`

func (r *PostgresRepository) ListLandlordMatches(ctx context.Context, landlordID string, limit, offset int) ([]models.LandlordRequestView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.rental_request_id, m.match_score, m.match_reason,
		       r.location, r.budget, r.move_in_date, r.pool_expires_at, m.created_at`+
		landlordListingPredicate+`
		ORDER BY m.match_score DESC, m.created_at DESC
		LIMIT $2 OFFSET $3`, landlordID, limit, offset)
	if err != nil {
		return nil, queryError("list landlord matches", err)
	}
	defer rows.Close()

	var out []models.LandlordRequestView
	for rows.Next() {
		var v models.LandlordRequestView
		err := rows.Scan(
			&v.MatchID, &v.RentalRequestID, &v.MatchScore, &v.MatchReason,
			&v.Location, &v.Budget, &v.MoveInDate, &v.ExpiresAt, &v.CreatedAt,
		)
		if err != nil {
			return nil, queryError("scan landlord match", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate landlord matches", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountLandlordMatches(ctx context.Context, landlordID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+landlordListingPredicate, landlordID).Scan(&count)
	if err != nil {
		return 0, queryError("count landlord matches", err)
	}
	return count, nil
}

func (r *PostgresRepository) InsertAnalyticsSnapshot(ctx context.Context, snap models.PoolAnalytics) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pool_analytics
		(id, location, total_requests, active_requests, matched_requests, expired_requests, landlord_count, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID, snap.Location, snap.TotalRequests, snap.ActiveRequests,
		snap.MatchedRequests, snap.ExpiredRequests, snap.LandlordCount, snap.Date.UTC())
	if err != nil {
		return insertError("insert analytics snapshot", err)
	}
	return nil
}
