package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultAccessTokenLifetime is used when no lifetime is configured
const DefaultAccessTokenLifetime = 30 * time.Minute

// MinSecretLength is the minimal length in bytes of the signing secret
const MinSecretLength = 32

// Claims are the verified claims of an access token
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	ID        string
}

// TokenCodec issues and verifies HMAC signed access tokens
type TokenCodec struct {
	secret []byte
	alg    jwa.SignatureAlgorithm
	ttl    time.Duration
	now    func() time.Time
}

// SupportedAlgorithms lists the accepted signing algorithms
var SupportedAlgorithms = []string{
	jwa.HS256().String(),
	jwa.HS384().String(),
	jwa.HS512().String(),
}

// LookupAlgorithm returns the signature algorithm for name if it is one of
// SupportedAlgorithms
func LookupAlgorithm(name string) (jwa.SignatureAlgorithm, error) {
	if name == "" {
		return jwa.HS256(), nil
	}
	for _, a := range SupportedAlgorithms {
		if a == name {
			alg, _ := jwa.LookupSignatureAlgorithm(name)
			return alg, nil
		}
	}
	return jwa.SignatureAlgorithm{}, errors.Errorf("unsupported signing algorithm '%s'", name)
}

// NewTokenCodec creates a TokenCodec; alg defaults to HS256 and ttl to
// DefaultAccessTokenLifetime
func NewTokenCodec(secret []byte, alg string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	a, err := LookupAlgorithm(alg)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenLifetime
	}
	return &TokenCodec{
		secret: secret,
		alg:    a,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Lifetime returns the default token lifetime
func (c *TokenCodec) Lifetime() time.Duration {
	return c.ttl
}

// Issue returns a signed token for subject expiring at now + ttl. A zero
// ttl is rejected; a negative one yields an already expired token.
func (c *TokenCodec) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl == 0 {
		return "", time.Time{}, errors.New("token lifetime must not be zero")
	}
	now := c.now().Truncate(time.Second)
	exp := now.Add(ttl)
	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now).
		Expiration(exp).
		JwtID(uuid.NewString()).
		Build()
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to build token")
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(c.alg, c.secret))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign token")
	}
	return string(signed), exp, nil
}

// Decode verifies token and returns its claims. Every failure is
// ErrInvalidToken.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	now := c.now()
	tok, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(c.alg, c.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	)
	if err != nil {
		log.WithError(err).Debug("rejected access token")
		return nil, ErrInvalidToken
	}
	sub, ok := tok.Subject()
	if !ok || sub == "" {
		log.Debug("rejected access token without subject")
		return nil, ErrInvalidToken
	}
	exp, ok := tok.Expiration()
	if !ok || !exp.After(now) {
		log.Debug("rejected access token without valid expiration")
		return nil, ErrInvalidToken
	}
	claims := &Claims{
		Subject:   sub,
		ExpiresAt: exp,
	}
	claims.IssuedAt, _ = tok.IssuedAt()
	claims.ID, _ = tok.JwtID()
	return claims, nil
}
