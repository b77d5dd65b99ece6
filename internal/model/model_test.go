package model

import (
	"strings"
	"testing"
)

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role, min Role
		want      bool
	}{
		{RoleAdmin, RoleCoach, true},
		{RoleCoach, RoleCoach, true},
		{RoleMother, RoleCoach, false},
		{RoleMother, RoleMother, true},
		{Role("unknown"), RoleMother, false},
	}
	for _, tt := range tests {
		if got := RoleAtLeast(tt.role, tt.min); got != tt.want {
			t.Errorf("RoleAtLeast(%s, %s) = %v, want %v", tt.role, tt.min, got, tt.want)
		}
	}
}

func TestCreateCheckInRequestValidate(t *testing.T) {
	good := "23:30"
	bad := "25:99"
	wakeups := 4

	valid := CreateCheckInRequest{Mood: MoodNeutral, SleepStart: &good, BabyWakeups: &wakeups}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	if err := (CreateCheckInRequest{Mood: 0}).Validate(); err == nil {
		t.Error("mood 0 should be rejected")
	}
	if err := (CreateCheckInRequest{Mood: 4}).Validate(); err == nil {
		t.Error("mood 4 should be rejected")
	}
	if err := (CreateCheckInRequest{Mood: MoodHappy, SleepEnd: &bad}).Validate(); err == nil {
		t.Error("malformed sleep_end should be rejected")
	}
}

func TestBitacoraInputValidate(t *testing.T) {
	wake := "07:15"
	valid := BitacoraInput{Date: "2026-08-29", MorningWakeTime: &wake}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	if err := (BitacoraInput{Date: "29/08/2026"}).Validate(); err == nil {
		t.Error("non-ISO date should be rejected")
	}

	bad := "7am"
	if err := (BitacoraInput{Date: "2026-08-29", FellAsleepAt: &bad}).Validate(); err == nil {
		t.Error("malformed fell_asleep_at should be rejected")
	}
}

func TestDefaultValidationCards(t *testing.T) {
	cards := DefaultValidationCards()
	if len(cards) != 15 {
		t.Fatalf("expected 15 seed cards, got %d", len(cards))
	}
	categories := map[ValidationCategory]bool{}
	for i, c := range cards {
		if strings.TrimSpace(c.MessageES) == "" {
			t.Errorf("card %d has empty message", i)
		}
		categories[c.Category] = true
	}
	for _, want := range []ValidationCategory{CategoryGeneral, CategorySleep, CategoryCrying, CategoryFeeding, CategorySelfCare} {
		if !categories[want] {
			t.Errorf("seed set missing category %s", want)
		}
	}
}
