package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("SMP_JWT_SECRET", "auth-test-secret-0123456789abcdef")
	os.Exit(m.Run())
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	token, err := GenerateJWT("user-1", "dev@example.com", "consumer", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, "consumer", claims.Role)
	assert.Equal(t, "service-marketplace", claims.Issuer)
}

func TestVerifyJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("user-1", "dev@example.com", "consumer", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyJWT_Garbage(t *testing.T) {
	_, err := VerifyJWT("not.a.token")
	assert.Error(t, err)
}

func TestVerifyJWT_TamperedSignature(t *testing.T) {
	token, err := GenerateJWT("user-1", "dev@example.com", "consumer", time.Hour)
	require.NoError(t, err)

	_, err = VerifyJWT(token[:len(token)-2] + "xx")
	assert.Error(t, err)
}

func TestGenerateJWT_DefaultExpiry(t *testing.T) {
	token, err := GenerateJWT("user-1", "dev@example.com", "admin", 0)
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	// Zero expiresIn falls back to one hour.
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}
