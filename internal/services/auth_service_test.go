package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtpkg "github.com/genrefy/backend/pkg/jwt"
)

func TestBlacklistTTLUsesRemainingLifetime(t *testing.T) {
	token, err := jwtpkg.GenerateToken("user-1", jwtpkg.AccessToken, "secret", 10*time.Minute)
	require.NoError(t, err)

	ttl := blacklistTTL(token, "secret", 24*time.Hour)
	assert.Greater(t, ttl, 9*time.Minute, "TTL must track the token expiry")
	assert.LessOrEqual(t, ttl, 10*time.Minute, "TTL must not exceed the token lifetime")
}

func TestBlacklistTTLFallsBackForUnparseableToken(t *testing.T) {
	assert.Equal(t, time.Hour, blacklistTTL("not-a-token", "secret", time.Hour))
}

func TestBlacklistTTLFallsBackForWrongSecret(t *testing.T) {
	token, err := jwtpkg.GenerateToken("user-1", jwtpkg.AccessToken, "secret", 10*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, blacklistTTL(token, "other-secret", time.Hour))
}
