package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)

	require.True(t, CheckPassword(hash, "correct horse"))
	require.False(t, CheckPassword(hash, "wrong horse"))
	require.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, err := GenerateToken(1, "bob", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	require.Error(t, err)

	_, err = ParseToken("not.a.token")
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(1, "bob", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	require.Error(t, err)
}

func TestTokenBlacklist(t *testing.T) {
	token, err := GenerateToken(9, "carol", time.Hour)
	require.NoError(t, err)

	require.False(t, IsTokenBlacklisted(token))
	BlacklistToken(token, time.Now().Add(time.Hour))
	require.True(t, IsTokenBlacklisted(token))
}

func TestBlacklistIgnoresExpiredTokens(t *testing.T) {
	BlacklistToken("stale-token", time.Now().Add(-time.Minute))
	require.False(t, IsTokenBlacklisted("stale-token"))
}
