package storage

import (
	"context"
	"fmt"
	"time"
)

// CheckAndIncrement records one attempt for the identity and action,
// then reports whether the attempt count within the window is still
// under the limit. The attempt is recorded even when denied, so a
// client hammering a closed door keeps the door closed. Satisfies
// ratelimit.Counter.
func (db *DB) CheckAndIncrement(ctx context.Context, identity, action string, maxRequests int, window time.Duration) (bool, error) {
	windowStart := time.Now().UTC().Add(-window)

	var count int
	err := db.pool.QueryRow(ctx,
		`WITH recorded AS (
		     INSERT INTO rate_limit_events (identity, action, created_at)
		     VALUES ($1, $2, now())
		 )
		 SELECT COUNT(*) FROM rate_limit_events
		 WHERE identity = $1 AND action = $2 AND created_at >= $3`,
		identity, action, windowStart,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: check rate limit: %w", err)
	}

	// The CTE's insert is invisible to the count in the same snapshot,
	// so the new attempt is accounted for here.
	return count+1 <= maxRequests, nil
}

// PruneRateLimitEvents removes attempts older than the retention window
// and returns how many were deleted. Run periodically; no rate-limit
// window exceeds 24 hours.
func (db *DB) PruneRateLimitEvents(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM rate_limit_events WHERE created_at < $1`,
		time.Now().UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: prune rate limit events: %w", err)
	}
	return tag.RowsAffected(), nil
}
