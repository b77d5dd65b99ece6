package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inova117/mamapanic/internal/auth"
	"github.com/Inova117/mamapanic/internal/model"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("respira-hondo-123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	valid, err := auth.VerifyPassword("respira-hondo-123", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = auth.VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestHashIsSalted(t *testing.T) {
	h1, err := auth.HashPassword("same-password")
	require.NoError(t, err)
	h2, err := auth.HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "two hashes of the same password must differ")
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := auth.VerifyPassword("anything", "not-a-valid-hash")
	assert.Error(t, err)
}

func TestJWTIssueAndValidate(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	profile := model.Profile{
		ID:          uuid.New(),
		Email:       "marta@example.com",
		DisplayName: "Marta",
		Role:        model.RoleMother,
	}

	token, expiresAt, err := mgr.IssueToken(profile)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.UserID())
	assert.Equal(t, "marta@example.com", claims.Email)
	assert.Equal(t, model.RoleMother, claims.Role)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", -time.Minute)
	require.NoError(t, err)

	token, _, err := mgr.IssueToken(model.Profile{ID: uuid.New(), Role: model.RoleMother})
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	issuerMgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)
	otherMgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	token, _, err := issuerMgr.IssueToken(model.Profile{ID: uuid.New(), Role: model.RoleCoach})
	require.NoError(t, err)

	_, err = otherMgr.ValidateToken(token)
	assert.Error(t, err, "token signed by a different key must be rejected")
}

func TestValidateRejectsWrongAlgorithm(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	// HS256 token signed with an arbitrary secret.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  uuid.New().String(),
		Issuer:   "respira",
		Audience: jwt.ClaimStrings{"respira"},
	})
	tokenStr, err := forged.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = mgr.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)

	_, err = mgr.ValidateToken("not.a.token")
	assert.Error(t, err)
}
