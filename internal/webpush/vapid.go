package webpush

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is the VAPID JWT lifetime. Push services accept up to 24h;
// 12h leaves room for clock skew.
const tokenTTL = 12 * time.Hour

// Authenticator signs VAPID authorization headers (RFC 8292) for push
// endpoints. The ES256 signatures produced by golang-jwt are the raw
// r||s form the protocol requires, not ASN.1 DER.
type Authenticator struct {
	publicKey  string
	privateKey *ecdsa.PrivateKey
}

// NewAuthenticator builds an Authenticator from base64url-encoded VAPID
// keys. Malformed key material is a configuration error: nothing can be
// signed, so callers should treat it as fatal for the run.
func NewAuthenticator(publicKey, privateKey string) (*Authenticator, error) {
	pub, err := decodeKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("decode VAPID public key: %w", err)
	}
	if len(pub) != 65 {
		return nil, fmt.Errorf("VAPID public key must be 65 bytes, got %d", len(pub))
	}

	raw, err := decodeKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("decode VAPID private key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("VAPID private key must be 32 bytes, got %d", len(raw))
	}

	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: elliptic.P256()},
		D:         new(big.Int).SetBytes(raw),
	}
	priv.X, priv.Y = priv.Curve.ScalarBaseMult(raw)

	return &Authenticator{publicKey: publicKey, privateKey: priv}, nil
}

// PublicKey returns the base64url VAPID public key handed to clients on
// subscribe.
func (a *Authenticator) PublicKey() string {
	return a.publicKey
}

// Header builds the Authorization value for the push service hosting
// endpoint: "vapid t=<jwt>, k=<publicKey>". The JWT audience is the
// endpoint's origin and subject is a contact URI (mailto: or https:).
func (a *Authenticator) Header(endpoint, subject string, now time.Time) (string, error) {
	origin, err := originOf(endpoint)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"aud": origin,
		"exp": now.Add(tokenTTL).Unix(),
		"sub": subject,
	})
	signed, err := token.SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign VAPID token: %w", err)
	}

	return fmt.Sprintf("vapid t=%s, k=%s", signed, a.publicKey), nil
}

func originOf(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no origin", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}

// HeaderCache memoizes Authorization values per push-service origin. The
// signed JWT only depends on the origin, and it stays valid far longer
// than a scheduling run, so one token can serve every subscription on the
// same push service. The cache is scoped to a single run by construction;
// there is deliberately no package-level instance.
type HeaderCache struct {
	auth    *Authenticator
	subject string
	now     time.Time

	mu      sync.Mutex
	headers map[string]string
}

// NewHeaderCache creates a cache for one scheduling run anchored at now.
func NewHeaderCache(auth *Authenticator, subject string, now time.Time) *HeaderCache {
	return &HeaderCache{
		auth:    auth,
		subject: subject,
		now:     now,
		headers: make(map[string]string),
	}
}

// For returns the Authorization value for the given endpoint, signing at
// most once per origin.
func (c *HeaderCache) For(endpoint string) (string, error) {
	origin, err := originOf(endpoint)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.headers[origin]; ok {
		return h, nil
	}
	h, err := c.auth.Header(endpoint, c.subject, c.now)
	if err != nil {
		return "", err
	}
	c.headers[origin] = h
	return h, nil
}
