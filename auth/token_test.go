package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oidfed/gatehouse/internal/testutil"
)

func newTestCodec(t *testing.T, alg string) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec([]byte(testutil.Secret), alg, 0)
	require.NoError(t, err)
	return c
}

func TestNewTokenCodec(t *testing.T) {
	_, err := NewTokenCodec([]byte("short"), "HS256", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenCodec(nil, "HS256", time.Minute)
	assert.Error(t, err)

	for _, alg := range []string{"RS256", "ES256", "none", "hs256"} {
		_, err = NewTokenCodec([]byte(testutil.Secret), alg, time.Minute)
		assert.Error(t, err, alg)
	}

	c, err := NewTokenCodec([]byte(testutil.Secret), "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccessTokenLifetime, c.Lifetime())
	assert.Equal(t, "HS256", c.alg.String())
}

func TestTokenCodecRoundTrip(t *testing.T) {
	for _, alg := range SupportedAlgorithms {
		t.Run(alg, func(t *testing.T) {
			c := newTestCodec(t, alg)

			token, exp, err := c.Issue("alice", c.Lifetime())
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)
			assert.WithinDuration(t, time.Now().Add(DefaultAccessTokenLifetime), exp, 2*time.Second)

			claims, err := c.Decode(token)
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject)
			assert.True(t, claims.ExpiresAt.Equal(exp))
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt, 2*time.Second)
		})
	}
}

func TestTokenCodecTTL(t *testing.T) {
	c := newTestCodec(t, "HS256")

	_, _, err := c.Issue("alice", 0)
	assert.Error(t, err)

	token, exp, err := c.Issue("alice", -time.Second)
	require.NoError(t, err)
	assert.True(t, exp.Before(time.Now()))
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged := testutil.MintHS256(t, "some-other-secret-some-other-secret!", "alice", time.Hour)
	_, forgedErr := c.Decode(forged)
	assert.Equal(t, KindOf(forgedErr), KindOf(err))

	token, exp, err = c.Issue("alice", 5*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 2*time.Second)
	claims, err := c.Decode(token)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Equal(exp))
}

func TestTokenCodecUniqueIDs(t *testing.T) {
	c := newTestCodec(t, "HS256")
	a, _, err := c.Issue("alice", time.Minute)
	require.NoError(t, err)
	b, _, err := c.Issue("alice", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenCodecExpired(t *testing.T) {
	c := newTestCodec(t, "HS256")
	issued := time.Now().Add(-time.Hour)
	c.now = func() time.Time { return issued }
	token, _, err := c.Issue("alice", time.Minute)
	require.NoError(t, err)

	c.now = time.Now
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecExpiresAtBoundary(t *testing.T) {
	c := newTestCodec(t, "HS256")
	start := time.Now().Truncate(time.Second)
	c.now = func() time.Time { return start }
	token, exp, err := c.Issue("alice", time.Minute)
	require.NoError(t, err)

	c.now = func() time.Time { return exp.Add(-time.Second) }
	_, err = c.Decode(token)
	assert.NoError(t, err)

	c.now = func() time.Time { return exp }
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodecRejects(t *testing.T) {
	c := newTestCodec(t, "HS256")
	valid, _, err := c.Issue("alice", time.Minute)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	exp := time.Now().Add(time.Hour).Unix()

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"two segments":   parts[0] + "." + parts[1],
		"bad signature":  parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2])),
		"other secret":   testutil.MintHS256(t, "another-secret-that-is-long-enough-32", "alice", time.Hour),
		"expired":        testutil.MintHS256(t, testutil.Secret, "alice", -time.Minute),
		"alg none":       testutil.UnsignedToken(t, jwt.MapClaims{"sub": "alice", "exp": exp}),
		"other hmac alg": testutil.MintToken(t, testutil.Secret, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "alice", "exp": exp}),
		"missing sub":    testutil.MintToken(t, testutil.Secret, jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp}),
		"empty sub":      testutil.MintToken(t, testutil.Secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "", "exp": exp}),
		"missing exp":    testutil.MintToken(t, testutil.Secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := c.Decode(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Equal(t, KindUnauthenticated, KindOf(err))
		})
	}
}

func TestTokenCodecInterop(t *testing.T) {
	c := newTestCodec(t, "HS256")

	minted := testutil.MintHS256(t, testutil.Secret, "bob", time.Hour)
	claims, err := c.Decode(minted)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)

	issued, _, err := c.Issue("carol", time.Hour)
	require.NoError(t, err)
	parsed, err := jwt.Parse(
		issued, func(*jwt.Token) (any, error) {
			return []byte(testutil.Secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}),
	)
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "carol", sub)
}
