package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inova117/mamapanic/internal/audit"
	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/storage"
	"github.com/Inova117/mamapanic/internal/testutil"
)

// testDB is the shared database for all integration tests in this file.
var testDB *storage.DB

func TestMain(m *testing.M) {
	if os.Getenv("RESPIRA_SKIP_DOCKER_TESTS") != "" {
		os.Exit(0)
	}

	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	var err error
	testDB, err = tc.NewTestDB(context.Background(), testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create test DB: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}

	code := m.Run()
	testDB.Close(context.Background())
	tc.Terminate()
	os.Exit(code)
}

// createTestProfile inserts a profile with a unique email.
func createTestProfile(t *testing.T, role model.Role) model.Profile {
	t.Helper()
	email := fmt.Sprintf("%s@test.respira.app", uuid.New())
	p, err := testDB.CreateProfile(context.Background(), email, "Mamá de Prueba", "argon2-hash", role)
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	p := createTestProfile(t, model.RoleMother)

	// Duplicate email is rejected.
	_, err := testDB.CreateProfile(ctx, p.Email, "Otra", "hash", model.RoleMother)
	require.ErrorIs(t, err, storage.ErrDuplicate)

	// Lookup by email and by id agree.
	byEmail, err := testDB.GetProfileByEmail(ctx, p.Email)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byEmail.ID)

	byID, err := testDB.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Email, byID.Email)

	// Update the display name only.
	updated, err := testDB.UpdateProfile(ctx, p.ID, model.UpdateProfileRequest{
		DisplayName: strPtr("Nombre Nuevo"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nombre Nuevo", updated.DisplayName)
	assert.Nil(t, updated.AvatarURL)

	_, err = testDB.GetProfile(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListCoaches(t *testing.T) {
	ctx := context.Background()
	coach := createTestProfile(t, model.RoleCoach)
	createTestProfile(t, model.RoleMother)

	coaches, err := testDB.ListCoaches(ctx)
	require.NoError(t, err)

	var found bool
	for _, c := range coaches {
		assert.Equal(t, model.RoleCoach, c.Role)
		if c.ID == coach.ID {
			found = true
		}
	}
	assert.True(t, found, "created coach missing from listing")
}

func TestCheckInDailyFlow(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)

	ci, err := testDB.CreateCheckIn(ctx, mother.ID, model.CreateCheckInRequest{
		Mood:        model.MoodNeutral,
		SleepStart:  strPtr("23:30"),
		SleepEnd:    strPtr("06:15"),
		BabyWakeups: intPtr(3),
		BrainDump:   strPtr("Noche larga pero lo logramos."),
	}, strPtr("Lo estás haciendo muy bien."))
	require.NoError(t, err)
	assert.Equal(t, model.MoodNeutral, ci.Mood)
	require.NotNil(t, ci.AIResponse)

	today, err := testDB.GetTodayCheckIn(ctx, mother.ID)
	require.NoError(t, err)
	assert.Equal(t, ci.ID, today.ID)

	// A second check-in the same day becomes the new "today".
	second, err := testDB.CreateCheckIn(ctx, mother.ID, model.CreateCheckInRequest{Mood: model.MoodHappy}, nil)
	require.NoError(t, err)

	today, err = testDB.GetTodayCheckIn(ctx, mother.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, today.ID)

	list, err := testDB.ListCheckIns(ctx, mother.ID, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	// Another user has no check-in today.
	other := createTestProfile(t, model.RoleMother)
	_, err = testDB.GetTodayCheckIn(ctx, other.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBitacoraLifecycle(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)

	input := model.BitacoraInput{
		Date:                "2026-08-28",
		PreviousDayWakeTime: strPtr("07:00"),
		Nap1:                &model.NapEntry{LaidDownTime: strPtr("09:30"), WokeUpTime: strPtr("10:15")},
		BabyMood:            strPtr("tranquilo"),
		NumberOfWakings:     intPtr(2),
		Notes:               strPtr("Se durmió más rápido que ayer."),
	}

	b, err := testDB.CreateBitacora(ctx, mother.ID, input, strPtr("Resumen del día."))
	require.NoError(t, err)
	assert.Equal(t, 1, b.DayNumber)

	// Same user, same date is rejected.
	_, err = testDB.CreateBitacora(ctx, mother.ID, input, nil)
	require.ErrorIs(t, err, storage.ErrDuplicate)

	// Day numbers increase per user.
	input2 := input
	input2.Date = "2026-08-29"
	b2, err := testDB.CreateBitacora(ctx, mother.ID, input2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, b2.DayNumber)

	// Update replaces fields and the summary.
	input.NumberOfWakings = intPtr(4)
	updated, err := testDB.UpdateBitacora(ctx, mother.ID, b.ID, input, strPtr("Resumen nuevo."))
	require.NoError(t, err)
	require.NotNil(t, updated.NumberOfWakings)
	assert.Equal(t, 4, *updated.NumberOfWakings)
	require.NotNil(t, updated.AISummary)
	assert.Equal(t, "Resumen nuevo.", *updated.AISummary)

	byDate, err := testDB.GetBitacoraByDate(ctx, mother.ID, "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byDate.ID)

	list, err := testDB.ListBitacoras(ctx, mother.ID, 30)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b2.ID, list[0].ID, "newest first")

	// Other users cannot read or write this entry.
	other := createTestProfile(t, model.RoleMother)
	_, err = testDB.GetBitacora(ctx, other.ID, b.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = testDB.UpdateBitacora(ctx, other.ID, b.ID, input, nil)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDirectMessagesAndReadMarkers(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)
	coach := createTestProfile(t, model.RoleCoach)

	m1, err := testDB.InsertDirectMessage(ctx, mother.ID, coach.ID, "Hola, tengo una duda.", nil)
	require.NoError(t, err)
	m2, err := testDB.InsertDirectMessage(ctx, coach.ID, mother.ID, "Claro, cuéntame.", nil)
	require.NoError(t, err)

	// Both participants see the same conversation, oldest first.
	conv, err := testDB.ListConversation(ctx, mother.ID, coach.ID, 50)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, m1.ID, conv[0].ID)
	assert.Equal(t, m2.ID, conv[1].ID)
	assert.Nil(t, conv[1].ReadAt)

	marked, err := testDB.MarkMessagesRead(ctx, mother.ID, coach.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	conv, err = testDB.ListConversation(ctx, coach.ID, mother.ID, 50)
	require.NoError(t, err)
	assert.NotNil(t, conv[1].ReadAt)

	// Marking again is a no-op.
	marked, err = testDB.MarkMessagesRead(ctx, mother.ID, coach.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, marked)
}

func TestUnreadCountsAndClientConversations(t *testing.T) {
	ctx := context.Background()
	coach := createTestProfile(t, model.RoleCoach)
	chatty := createTestProfile(t, model.RoleMother)
	quiet := createTestProfile(t, model.RoleMother)

	_, err := testDB.InsertDirectMessage(ctx, chatty.ID, coach.ID, "primera", nil)
	require.NoError(t, err)
	last, err := testDB.InsertDirectMessage(ctx, chatty.ID, coach.ID, "segunda", nil)
	require.NoError(t, err)

	unread, err := testDB.CountUnreadMessages(ctx, coach.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	conversations, err := testDB.ListClientConversations(ctx, coach.ID)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]model.Conversation, len(conversations))
	for _, c := range conversations {
		byID[c.UserID] = c
	}

	withThread, ok := byID[chatty.ID]
	require.True(t, ok)
	assert.EqualValues(t, 2, withThread.UnreadCount)
	require.NotNil(t, withThread.LastMessage)
	assert.Equal(t, last.Content, *withThread.LastMessage)

	noThread, ok := byID[quiet.ID]
	require.True(t, ok)
	assert.EqualValues(t, 0, noThread.UnreadCount)
	assert.Nil(t, noThread.LastMessage)

	// Reading the thread zeroes the count.
	_, err = testDB.MarkMessagesRead(ctx, coach.ID, chatty.ID)
	require.NoError(t, err)
	unread, err = testDB.CountUnreadMessages(ctx, coach.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDirectMessageClientRefDedupe(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)
	coach := createTestProfile(t, model.RoleCoach)

	ref := uuid.New().String()
	first, err := testDB.InsertDirectMessage(ctx, mother.ID, coach.ID, "enviado una vez", &ref)
	require.NoError(t, err)

	// A retry with the same client_ref returns the original delivery.
	retry, err := testDB.InsertDirectMessage(ctx, mother.ID, coach.ID, "enviado una vez", &ref)
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)

	conv, err := testDB.ListConversation(ctx, mother.ID, coach.ID, 50)
	require.NoError(t, err)
	assert.Len(t, conv, 1)
}

func TestMessageNotifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)
	coach := createTestProfile(t, model.RoleCoach)

	require.True(t, testDB.HasNotifyConn())
	require.NoError(t, testDB.Listen(ctx, storage.ChannelMessages))

	sent, err := testDB.InsertDirectMessage(ctx, mother.ID, coach.ID, "ping", nil)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	channel, payload, err := testDB.WaitForNotification(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, storage.ChannelMessages, channel)

	var event model.MessageEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	assert.Equal(t, sent.ID, event.MessageID)
	assert.Equal(t, coach.ID, event.RecipientID)
}

func TestChatHistory(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)
	session := uuid.New().String()

	_, err := testDB.InsertChatMessage(ctx, mother.ID, session, model.ChatRoleUser, "No puedo dormir al bebé.")
	require.NoError(t, err)
	_, err = testDB.InsertChatMessage(ctx, mother.ID, session, model.ChatRoleAssistant, "Respira conmigo un momento.")
	require.NoError(t, err)

	history, err := testDB.ListChatHistory(ctx, mother.ID, session, 50)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ChatRoleUser, history[0].Role, "oldest first")

	// Context window keeps chronological order after trimming.
	for i := 0; i < 5; i++ {
		_, err = testDB.InsertChatMessage(ctx, mother.ID, session, model.ChatRoleUser, fmt.Sprintf("mensaje %d", i))
		require.NoError(t, err)
	}
	recent, err := testDB.RecentChatContext(ctx, mother.ID, session, 4)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].CreatedAt.Before(recent[i-1].CreatedAt))
	}

	// Sessions are scoped per user.
	other := createTestProfile(t, model.RoleMother)
	history, err = testDB.ListChatHistory(ctx, other.ID, session, 50)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestValidationCardSeedAndRandom(t *testing.T) {
	ctx := context.Background()

	// Seeding twice does not duplicate the deck.
	require.NoError(t, testDB.SeedValidationCards(ctx))
	all, err := testDB.ListValidationCards(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	require.NoError(t, testDB.SeedValidationCards(ctx))
	again, err := testDB.ListValidationCards(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, again, len(all))

	cat := model.CategorySleep
	sleepCards, err := testDB.ListValidationCards(ctx, &cat)
	require.NoError(t, err)
	for _, c := range sleepCards {
		assert.Equal(t, model.CategorySleep, c.Category)
	}

	card, err := testDB.RandomValidationCard(ctx, &cat)
	require.NoError(t, err)
	assert.Equal(t, model.CategorySleep, card.Category)
	assert.NotEmpty(t, card.MessageES)
}

func TestAuditAppendListPrune(t *testing.T) {
	ctx := context.Background()
	mother := createTestProfile(t, model.RoleMother)

	entry := audit.Entry{
		ID:       uuid.New(),
		UserID:   mother.ID.String(),
		Action:   audit.ActionCheckinCreated,
		Resource: audit.ResourceCheckin,
		Metadata: map[string]any{"mood": 2},
	}
	require.NoError(t, testDB.AppendAuditEntry(ctx, entry))

	userID := mother.ID
	entries, err := testDB.ListAuditEntries(ctx, &userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCheckinCreated, entries[0].Action)
	assert.EqualValues(t, 2, entries[0].Metadata["mood"])

	// Zero retention prunes everything.
	deleted, err := testDB.PruneAuditLog(ctx, 0)
	require.NoError(t, err)
	assert.Positive(t, deleted)

	entries, err = testDB.ListAuditEntries(ctx, &userID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRateLimitCounter(t *testing.T) {
	ctx := context.Background()
	identity := uuid.New().String()

	for i := 0; i < 3; i++ {
		ok, err := testDB.CheckAndIncrement(ctx, identity, "send_message", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := testDB.CheckAndIncrement(ctx, identity, "send_message", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "limit reached")

	// A different action has its own budget.
	ok, err = testDB.CheckAndIncrement(ctx, identity, "create_checkin", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	deleted, err := testDB.PruneRateLimitEvents(ctx, 0)
	require.NoError(t, err)
	assert.Positive(t, deleted)
}
