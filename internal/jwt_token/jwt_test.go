package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer")

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(7, id.RoleSupervisor, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.OwnerID)
	assert.Equal(t, "supervisor", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(7, id.RoleSupervisor, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", err.Error())
}

func Test_ValidateToken_WrongKeyOrIssuer(t *testing.T) {
	other := NewJWTService("another-key", "test-issuer")
	token, err := other.GenerateAccessToken(7, id.RoleSupervisor, time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.Error(t, err)

	foreign := NewJWTService("test-signing-key", "someone-else")
	token, err = foreign.GenerateAccessToken(7, id.RoleSupervisor, time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.Error(t, err)
}

func Test_Validator(t *testing.T) {
	validator := NewValidator(jwtService)

	token, err := jwtService.GenerateAccessToken(0, id.RoleAdmin, time.Hour)
	require.NoError(t, err)
	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.RoleAdmin, claims.Role)
	assert.True(t, claims.OwnerID.IsZero())
	assert.NotEmpty(t, claims.JTI)

	token, err = jwtService.GenerateAccessToken(12, id.RoleSupervisor, time.Hour)
	require.NoError(t, err)
	claims, err = validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.OwnerID(12), claims.OwnerID)

	_, err = validator.ValidateToken("garbage")
	assert.Error(t, err)
}
