package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, tenantID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	tenantID, err := v.Verify(signToken(t, "test-secret", "tenant-a"))
	require.NoError(t, err)
	require.Equal(t, "tenant-a", tenantID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	_, err = v.Verify(signToken(t, "other-secret", "tenant-a"))
	require.Error(t, err)
}

func TestVerifyRejectsMissingTenant(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	_, err = v.Verify(signToken(t, "test-secret", ""))
	require.ErrorContains(t, err, "tenant_id")
}

func TestVerifyRejectsExpired(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: "tenant-a",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	require.Error(t, err)
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	v, err := NewJWTVerifier("test-secret")
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{TenantID: "tenant-a"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(signed)
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def.ghi")
	require.True(t, ok)
	require.Equal(t, "abc.def.ghi", token)

	token, ok = BearerToken("bearer abc")
	require.True(t, ok)
	require.Equal(t, "abc", token)

	_, ok = BearerToken("")
	require.False(t, ok)

	_, ok = BearerToken("Basic abc")
	require.False(t, ok)

	_, ok = BearerToken("Bearer ")
	require.False(t, ok)
}
