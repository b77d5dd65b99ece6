package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Inova117/mamapanic/internal/model"
)

// CreateCheckIn inserts a daily check-in, including the generated AI
// validation response.
func (db *DB) CreateCheckIn(ctx context.Context, userID uuid.UUID, req model.CreateCheckInRequest, aiResponse *string) (model.CheckIn, error) {
	c := model.CheckIn{
		ID:          uuid.New(),
		UserID:      userID,
		Mood:        req.Mood,
		SleepStart:  req.SleepStart,
		SleepEnd:    req.SleepEnd,
		BabyWakeups: req.BabyWakeups,
		BrainDump:   req.BrainDump,
		AIResponse:  aiResponse,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO checkins (id, user_id, mood, sleep_start, sleep_end, baby_wakeups, brain_dump, ai_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.UserID, c.Mood, c.SleepStart, c.SleepEnd, c.BabyWakeups, c.BrainDump, c.AIResponse, c.CreatedAt,
	)
	if err != nil {
		return model.CheckIn{}, fmt.Errorf("storage: create checkin: %w", err)
	}
	return c, nil
}

// ListCheckIns returns the user's most recent check-ins, newest first.
func (db *DB) ListCheckIns(ctx context.Context, userID uuid.UUID, limit int) ([]model.CheckIn, error) {
	if limit <= 0 {
		limit = 7
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, mood, sleep_start, sleep_end, baby_wakeups, brain_dump, ai_response, created_at
		 FROM checkins WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list checkins: %w", err)
	}
	defer rows.Close()

	var checkins []model.CheckIn
	for rows.Next() {
		var c model.CheckIn
		if err := rows.Scan(&c.ID, &c.UserID, &c.Mood, &c.SleepStart, &c.SleepEnd,
			&c.BabyWakeups, &c.BrainDump, &c.AIResponse, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan checkin: %w", err)
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// GetTodayCheckIn returns the user's check-in from today (UTC), or
// ErrNotFound when there is none yet.
func (db *DB) GetTodayCheckIn(ctx context.Context, userID uuid.UUID) (model.CheckIn, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	var c model.CheckIn
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, mood, sleep_start, sleep_end, baby_wakeups, brain_dump, ai_response, created_at
		 FROM checkins WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, dayStart,
	).Scan(&c.ID, &c.UserID, &c.Mood, &c.SleepStart, &c.SleepEnd,
		&c.BabyWakeups, &c.BrainDump, &c.AIResponse, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CheckIn{}, ErrNotFound
		}
		return model.CheckIn{}, fmt.Errorf("storage: get today checkin: %w", err)
	}
	return c, nil
}
