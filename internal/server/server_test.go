package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Inova117/mamapanic/internal/audit"
	"github.com/Inova117/mamapanic/internal/auth"
	"github.com/Inova117/mamapanic/internal/companion"
	"github.com/Inova117/mamapanic/internal/debuglog"
	"github.com/Inova117/mamapanic/internal/model"
)

type memAuditStore struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *memAuditStore) AppendAuditEntry(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memAuditStore) all() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}

type testEnv struct {
	handler    http.Handler
	jwtMgr     *auth.JWTManager
	auditor    *audit.Logger
	auditStore *memAuditStore
	debug      *debuglog.Buffer
}

// newTestEnv builds a server without a database. Handlers that hit
// storage are not exercised here; the focus is the middleware chain and
// the endpoints that run in memory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	jwtMgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	auditStore := &memAuditStore{}
	auditor := audit.NewLogger(auditStore, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		auditor.Close(ctx)
	})

	debug := debuglog.NewBuffer(logger)

	srv := New(ServerConfig{
		JWTMgr:              jwtMgr,
		Companion:           companion.New(companion.NoopProvider{}, logger),
		Auditor:             auditor,
		Debug:               debug,
		Logger:              logger,
		Port:                0,
		Version:             "test",
		MaxRequestBodyBytes: 1 << 20,
	})

	return &testEnv{
		handler:    srv.Handler(),
		jwtMgr:     jwtMgr,
		auditor:    auditor,
		auditStore: auditStore,
		debug:      debug,
	}
}

func (env *testEnv) token(t *testing.T, role model.Role) string {
	t.Helper()
	token, _, err := env.jwtMgr.IssueToken(model.Profile{
		ID:          uuid.New(),
		Email:       "test@example.com",
		DisplayName: "Test",
		Role:        role,
	})
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/profile", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, model.ErrCodeUnauthorized, errorCode(t, rec))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMalformedBearer(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/profile", "not-a-jwt", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, model.ErrCodeUnauthorized, errorCode(t, rec))
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/crisis/breathing", "", "")
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRequestIDEcho(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/crisis/breathing", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))

	envelope := decodeEnvelope(t, rec)
	var meta model.ResponseMeta
	require.NoError(t, json.Unmarshal(envelope["meta"], &meta))
	require.Equal(t, "fixed-id", meta.RequestID)
}

func TestBreathingConfigPublic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/crisis/breathing", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data breathingConfig `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Data.Cycles)
	require.Len(t, resp.Data.Phases, 3)
	require.Equal(t, 4, resp.Data.Phases[0].Seconds)
	require.Equal(t, 7, resp.Data.Phases[1].Seconds)
	require.Equal(t, 8, resp.Data.Phases[2].Seconds)
	require.Equal(t, "Inhala profundo", resp.Data.Phases[0].Instruction)
}

func TestCommunityPresence(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, model.RoleMother)

	rec := env.do(t, http.MethodGet, "/v1/community/presence", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data model.CommunityPresence `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.GreaterOrEqual(t, resp.Data.OnlineCount, 15)
	require.LessOrEqual(t, resp.Data.OnlineCount, 120)
	require.Len(t, resp.Data.SampleNames, 3)
	require.Contains(t, resp.Data.Message, resp.Data.SampleNames[0])
	require.Contains(t, resp.Data.Message, "mamás más están despiertas contigo")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)

	for _, role := range []model.Role{model.RoleMother, model.RoleCoach} {
		rec := env.do(t, http.MethodGet, "/v1/admin/debug", env.token(t, role), "")
		require.Equal(t, http.StatusForbidden, rec.Code, "role %s", role)
		require.Equal(t, model.ErrCodeForbidden, errorCode(t, rec))
	}

	rec := env.do(t, http.MethodGet, "/v1/admin/debug", env.token(t, model.RoleAdmin), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCoachRoutesRejectMother(t *testing.T) {
	env := newTestEnv(t)

	mother := env.token(t, model.RoleMother)
	for _, route := range []struct {
		method, path string
	}{
		{http.MethodPost, "/v1/validations"},
		{http.MethodGet, "/v1/clients"},
		{http.MethodGet, "/v1/mothers/" + uuid.NewString() + "/bitacoras"},
	} {
		rec := env.do(t, route.method, route.path, mother, "")
		require.Equal(t, http.StatusForbidden, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestDebugLogEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, model.RoleAdmin)

	env.debug.Info("first")
	env.debug.Error("second")

	rec := env.do(t, http.MethodGet, "/v1/admin/debug", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []debuglog.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "second", resp.Data[0].Message) // newest first

	rec = env.do(t, http.MethodDelete, "/v1/admin/debug", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.debug.Entries())
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "bad email",
			body: `{"email":"nope","password":"Secreta1","display_name":"Ana"}`,
			want: "Correo electrónico inválido",
		},
		{
			name: "weak password",
			body: `{"email":"ana@example.com","password":"short","display_name":"Ana"}`,
			want: "al menos 8 caracteres",
		},
		{
			name: "bad name",
			body: `{"email":"ana@example.com","password":"Secreta1","display_name":"A"}`,
			want: "al menos 2 caracteres",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/auth/register", "", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp model.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, model.ErrCodeInvalidInput, resp.Error.Code)
			require.Contains(t, resp.Error.Message, tc.want)
		})
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"a@b.com","bogus":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, model.ErrCodeInvalidInput, errorCode(t, rec))
}

func TestBodySizeLimit(t *testing.T) {
	env := newTestEnv(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtMgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)
	auditor := audit.NewLogger(&memAuditStore{}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		auditor.Close(ctx)
	})

	srv := New(ServerConfig{
		JWTMgr:              jwtMgr,
		Companion:           companion.New(companion.NoopProvider{}, logger),
		Auditor:             auditor,
		Logger:              logger,
		Version:             "test",
		MaxRequestBodyBytes: 64,
	})
	env.handler = srv.Handler()

	big := `{"email":"a@b.com","password":"` + strings.Repeat("x", 200) + `"}`
	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLogoutRecordsSessionEnd(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, model.RoleMother)

	rec := env.do(t, http.MethodPost, "/v1/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.auditor.Close(ctx)

	entries := env.auditStore.all()
	require.Len(t, entries, 1)
	require.Equal(t, audit.ActionSessionEnded, entries[0].Action)
	require.Equal(t, audit.ResourceAuth, entries[0].Resource)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, model.RoleMother)

	rec := env.do(t, http.MethodGet, "/v1/nope", token, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
