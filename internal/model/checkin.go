package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mood values for a daily check-in.
const (
	MoodSad     = 1
	MoodNeutral = 2
	MoodHappy   = 3
)

// CheckIn is a mother's daily emotional check-in. The AI response is a
// short validation generated from the mood and brain dump.
type CheckIn struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Mood        int       `json:"mood"`
	SleepStart  *string   `json:"sleep_start,omitempty"` // HH:MM
	SleepEnd    *string   `json:"sleep_end,omitempty"`   // HH:MM
	BabyWakeups *int      `json:"baby_wakeups,omitempty"`
	BrainDump   *string   `json:"brain_dump,omitempty"`
	AIResponse  *string   `json:"ai_response,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCheckInRequest is the request body for POST /v1/checkins.
type CreateCheckInRequest struct {
	Mood        int     `json:"mood"`
	SleepStart  *string `json:"sleep_start,omitempty"`
	SleepEnd    *string `json:"sleep_end,omitempty"`
	BabyWakeups *int    `json:"baby_wakeups,omitempty"`
	BrainDump   *string `json:"brain_dump,omitempty"`
}

// Validate checks the request fields.
func (r CreateCheckInRequest) Validate() error {
	if r.Mood < MoodSad || r.Mood > MoodHappy {
		return fmt.Errorf("mood must be between %d and %d", MoodSad, MoodHappy)
	}
	if r.SleepStart != nil {
		if err := ValidateClockTime(*r.SleepStart); err != nil {
			return fmt.Errorf("sleep_start: %w", err)
		}
	}
	if r.SleepEnd != nil {
		if err := ValidateClockTime(*r.SleepEnd); err != nil {
			return fmt.Errorf("sleep_end: %w", err)
		}
	}
	if r.BabyWakeups != nil && (*r.BabyWakeups < 0 || *r.BabyWakeups > 50) {
		return fmt.Errorf("baby_wakeups out of range")
	}
	return nil
}

// ValidateClockTime checks an HH:MM wall-clock string.
func ValidateClockTime(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("must be HH:MM, got %q", s)
	}
	return nil
}
