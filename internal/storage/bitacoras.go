package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Inova117/mamapanic/internal/model"
)

const bitacoraColumns = `id, user_id, day_number, date, previous_day_wake_time,
	nap_1, nap_2, nap_3, how_baby_ate,
	relaxing_routine_start, baby_mood, last_feeding_time, laid_down_for_bed,
	fell_asleep_at, time_to_fall_asleep_minutes,
	number_of_wakings, night_wakings, morning_wake_time, notes, ai_summary,
	created_at, updated_at`

// CreateBitacora inserts a daily log. The day number is assigned from
// the user's existing entry count inside a serializable transaction so
// concurrent creates never share a number.
func (db *DB) CreateBitacora(ctx context.Context, userID uuid.UUID, input model.BitacoraInput, aiSummary *string) (model.Bitacora, error) {
	now := time.Now().UTC()
	b := model.Bitacora{
		ID:                      uuid.New(),
		UserID:                  userID,
		Date:                    input.Date,
		PreviousDayWakeTime:     input.PreviousDayWakeTime,
		Nap1:                    input.Nap1,
		Nap2:                    input.Nap2,
		Nap3:                    input.Nap3,
		HowBabyAte:              input.HowBabyAte,
		RelaxingRoutineStart:    input.RelaxingRoutineStart,
		BabyMood:                input.BabyMood,
		LastFeedingTime:         input.LastFeedingTime,
		LaidDownForBed:          input.LaidDownForBed,
		FellAsleepAt:            input.FellAsleepAt,
		TimeToFallAsleepMinutes: input.TimeToFallAsleepMinutes,
		NumberOfWakings:         input.NumberOfWakings,
		NightWakings:            input.NightWakings,
		MorningWakeTime:         input.MorningWakeTime,
		Notes:                   input.Notes,
		AISummary:               aiSummary,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	nap1, nap2, nap3, wakings, err := marshalBitacoraJSON(b)
	if err != nil {
		return model.Bitacora{}, err
	}

	err = WithRetry(ctx, 3, 50*time.Millisecond, func() error {
		return pgx.BeginTxFunc(ctx, db.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
			if err := tx.QueryRow(ctx,
				`SELECT COUNT(*) + 1 FROM bitacoras WHERE user_id = $1`, userID,
			).Scan(&b.DayNumber); err != nil {
				return fmt.Errorf("count bitacoras: %w", err)
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO bitacoras (`+bitacoraColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
				b.ID, b.UserID, b.DayNumber, b.Date, b.PreviousDayWakeTime,
				nap1, nap2, nap3, b.HowBabyAte,
				b.RelaxingRoutineStart, b.BabyMood, b.LastFeedingTime, b.LaidDownForBed,
				b.FellAsleepAt, b.TimeToFallAsleepMinutes,
				b.NumberOfWakings, wakings, b.MorningWakeTime, b.Notes, b.AISummary,
				b.CreatedAt, b.UpdatedAt,
			)
			return err
		})
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Bitacora{}, ErrDuplicate
		}
		return model.Bitacora{}, fmt.Errorf("storage: create bitacora: %w", err)
	}
	return b, nil
}

// UpdateBitacora replaces the mutable fields of an existing entry and
// stores a regenerated AI summary. Scoped to the owning user.
func (db *DB) UpdateBitacora(ctx context.Context, userID, id uuid.UUID, input model.BitacoraInput, aiSummary *string) (model.Bitacora, error) {
	b := model.Bitacora{
		Nap1:         input.Nap1,
		Nap2:         input.Nap2,
		Nap3:         input.Nap3,
		NightWakings: input.NightWakings,
	}
	nap1, nap2, nap3, wakings, err := marshalBitacoraJSON(b)
	if err != nil {
		return model.Bitacora{}, err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE bitacoras SET
		     date = $3, previous_day_wake_time = $4,
		     nap_1 = $5, nap_2 = $6, nap_3 = $7, how_baby_ate = $8,
		     relaxing_routine_start = $9, baby_mood = $10, last_feeding_time = $11,
		     laid_down_for_bed = $12, fell_asleep_at = $13, time_to_fall_asleep_minutes = $14,
		     number_of_wakings = $15, night_wakings = $16, morning_wake_time = $17,
		     notes = $18, ai_summary = $19, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		id, userID, input.Date, input.PreviousDayWakeTime,
		nap1, nap2, nap3, input.HowBabyAte,
		input.RelaxingRoutineStart, input.BabyMood, input.LastFeedingTime,
		input.LaidDownForBed, input.FellAsleepAt, input.TimeToFallAsleepMinutes,
		input.NumberOfWakings, wakings, input.MorningWakeTime,
		input.Notes, aiSummary,
	)
	if err != nil {
		return model.Bitacora{}, fmt.Errorf("storage: update bitacora: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Bitacora{}, ErrNotFound
	}
	return db.GetBitacora(ctx, userID, id)
}

// GetBitacora retrieves one entry scoped to the owning user.
func (db *DB) GetBitacora(ctx context.Context, userID, id uuid.UUID) (model.Bitacora, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+bitacoraColumns+` FROM bitacoras WHERE id = $1 AND user_id = $2`, id, userID)
	return scanBitacora(row)
}

// GetBitacoraByDate returns the user's entry for a YYYY-MM-DD date.
func (db *DB) GetBitacoraByDate(ctx context.Context, userID uuid.UUID, date string) (model.Bitacora, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+bitacoraColumns+` FROM bitacoras
		 WHERE user_id = $1 AND date = $2 ORDER BY created_at DESC LIMIT 1`, userID, date)
	return scanBitacora(row)
}

// ListBitacoras returns the user's recent entries, newest first.
func (db *DB) ListBitacoras(ctx context.Context, userID uuid.UUID, limit int) ([]model.Bitacora, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+bitacoraColumns+` FROM bitacoras
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list bitacoras: %w", err)
	}
	defer rows.Close()

	var entries []model.Bitacora
	for rows.Next() {
		b, err := scanBitacora(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, b)
	}
	return entries, rows.Err()
}

func marshalBitacoraJSON(b model.Bitacora) (nap1, nap2, nap3, wakings []byte, err error) {
	marshal := func(v any) ([]byte, error) {
		if v == nil {
			return nil, nil
		}
		return json.Marshal(v)
	}
	if b.Nap1 != nil {
		if nap1, err = marshal(b.Nap1); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("storage: marshal nap_1: %w", err)
		}
	}
	if b.Nap2 != nil {
		if nap2, err = marshal(b.Nap2); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("storage: marshal nap_2: %w", err)
		}
	}
	if b.Nap3 != nil {
		if nap3, err = marshal(b.Nap3); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("storage: marshal nap_3: %w", err)
		}
	}
	if b.NightWakings != nil {
		if wakings, err = marshal(b.NightWakings); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("storage: marshal night_wakings: %w", err)
		}
	}
	return nap1, nap2, nap3, wakings, nil
}

func scanBitacora(row pgx.Row) (model.Bitacora, error) {
	var b model.Bitacora
	var nap1, nap2, nap3, wakings []byte

	err := row.Scan(
		&b.ID, &b.UserID, &b.DayNumber, &b.Date, &b.PreviousDayWakeTime,
		&nap1, &nap2, &nap3, &b.HowBabyAte,
		&b.RelaxingRoutineStart, &b.BabyMood, &b.LastFeedingTime, &b.LaidDownForBed,
		&b.FellAsleepAt, &b.TimeToFallAsleepMinutes,
		&b.NumberOfWakings, &wakings, &b.MorningWakeTime, &b.Notes, &b.AISummary,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bitacora{}, ErrNotFound
		}
		return model.Bitacora{}, fmt.Errorf("storage: scan bitacora: %w", err)
	}

	for _, f := range []struct {
		data []byte
		dst  any
	}{
		{nap1, &b.Nap1},
		{nap2, &b.Nap2},
		{nap3, &b.Nap3},
		{wakings, &b.NightWakings},
	} {
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return model.Bitacora{}, fmt.Errorf("storage: unmarshal bitacora field: %w", err)
		}
	}
	return b, nil
}
