package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NapEntry records one daytime nap inside a bitácora.
type NapEntry struct {
	LaidDownTime    *string `json:"laid_down_time,omitempty"`   // HH:MM
	FellAsleepTime  *string `json:"fell_asleep_time,omitempty"` // HH:MM
	HowFellAsleep   *string `json:"how_fell_asleep,omitempty"`
	WokeUpTime      *string `json:"woke_up_time,omitempty"` // HH:MM
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

// NightWaking records one nighttime waking inside a bitácora.
type NightWaking struct {
	Time            *string `json:"time,omitempty"` // HH:MM
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	WhatWasDone     *string `json:"what_was_done,omitempty"`
}

// Bitacora is the daily sleep log a mother fills in for her coach.
// DayNumber counts the entries per user starting at 1. The AI summary
// condenses the log for coach review.
type Bitacora struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	DayNumber int       `json:"day_number"`
	Date      string    `json:"date"` // YYYY-MM-DD

	PreviousDayWakeTime *string `json:"previous_day_wake_time,omitempty"`

	Nap1 *NapEntry `json:"nap_1,omitempty"`
	Nap2 *NapEntry `json:"nap_2,omitempty"`
	Nap3 *NapEntry `json:"nap_3,omitempty"`

	HowBabyAte *string `json:"how_baby_ate,omitempty"`

	RelaxingRoutineStart     *string `json:"relaxing_routine_start,omitempty"`
	BabyMood                 *string `json:"baby_mood,omitempty"`
	LastFeedingTime          *string `json:"last_feeding_time,omitempty"`
	LaidDownForBed           *string `json:"laid_down_for_bed,omitempty"`
	FellAsleepAt             *string `json:"fell_asleep_at,omitempty"`
	TimeToFallAsleepMinutes  *int    `json:"time_to_fall_asleep_minutes,omitempty"`

	NumberOfWakings *int          `json:"number_of_wakings,omitempty"`
	NightWakings    []NightWaking `json:"night_wakings,omitempty"`

	MorningWakeTime *string `json:"morning_wake_time,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	AISummary       *string `json:"ai_summary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BitacoraInput is the request body for creating or updating a bitácora.
type BitacoraInput struct {
	Date string `json:"date"`

	PreviousDayWakeTime *string `json:"previous_day_wake_time,omitempty"`

	Nap1 *NapEntry `json:"nap_1,omitempty"`
	Nap2 *NapEntry `json:"nap_2,omitempty"`
	Nap3 *NapEntry `json:"nap_3,omitempty"`

	HowBabyAte *string `json:"how_baby_ate,omitempty"`

	RelaxingRoutineStart    *string `json:"relaxing_routine_start,omitempty"`
	BabyMood                *string `json:"baby_mood,omitempty"`
	LastFeedingTime         *string `json:"last_feeding_time,omitempty"`
	LaidDownForBed          *string `json:"laid_down_for_bed,omitempty"`
	FellAsleepAt            *string `json:"fell_asleep_at,omitempty"`
	TimeToFallAsleepMinutes *int    `json:"time_to_fall_asleep_minutes,omitempty"`

	NumberOfWakings *int          `json:"number_of_wakings,omitempty"`
	NightWakings    []NightWaking `json:"night_wakings,omitempty"`

	MorningWakeTime *string `json:"morning_wake_time,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// Validate checks dates and clock fields.
func (r BitacoraInput) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD, got %q", r.Date)
	}
	clocks := map[string]*string{
		"previous_day_wake_time": r.PreviousDayWakeTime,
		"relaxing_routine_start": r.RelaxingRoutineStart,
		"last_feeding_time":      r.LastFeedingTime,
		"laid_down_for_bed":      r.LaidDownForBed,
		"fell_asleep_at":         r.FellAsleepAt,
		"morning_wake_time":      r.MorningWakeTime,
	}
	for field, v := range clocks {
		if v == nil {
			continue
		}
		if err := ValidateClockTime(*v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}
