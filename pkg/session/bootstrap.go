package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	secretKey     = "device_secret"
	credentialKey = "device_credential"
	issuer        = "questlog"
)

// ErrInvalidCredential is returned by Verify for tokens this device did not
// issue.
var ErrInvalidCredential = errors.New("session: invalid device credential")

// Claims identify an anonymous device.
type Claims struct {
	jwt.RegisteredClaims
}

// Bootstrap establishes the anonymous device session. Nothing may subscribe
// to the backing store until Ready is closed.
type Bootstrap struct {
	d   kv
	now func() time.Time

	once  sync.Once
	ready chan struct{}

	mu      sync.RWMutex
	subject string
	token   string
}

// NewBootstrap keeps its credential alongside the session in s.
func NewBootstrap(s *DiskStore) *Bootstrap {
	return &Bootstrap{
		d:     s.d,
		now:   time.Now,
		ready: make(chan struct{}),
	}
}

// Ready is closed once SignIn has succeeded.
func (b *Bootstrap) Ready() <-chan struct{} {
	return b.ready
}

// Subject is the anonymous device identity, empty before SignIn.
func (b *Bootstrap) Subject() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subject
}

// Credential is the signed device token, empty before SignIn.
func (b *Bootstrap) Credential() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

// SignIn reuses the stored device credential when it still verifies and
// issues a new one otherwise. Calling it again after success is a no-op.
func (b *Bootstrap) SignIn(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.d.Has(credentialKey) {
		if raw, err := b.d.Read(credentialKey); err == nil {
			if subject, err := b.Verify(string(raw)); err == nil {
				b.establish(subject, string(raw))
				return nil
			}
		}
	}

	secret, err := b.secret()
	if err != nil {
		return err
	}
	subject := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(b.now()),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return fmt.Errorf("session: sign device credential: %w", err)
	}
	if err := b.d.Write(credentialKey, []byte(signed)); err != nil {
		return fmt.Errorf("session: store device credential: %w", err)
	}
	b.establish(subject, signed)
	return nil
}

// Verify checks that token was issued by this device and returns its
// subject.
func (b *Bootstrap) Verify(token string) (string, error) {
	if !b.d.Has(secretKey) {
		return "", ErrInvalidCredential
	}
	secret, err := b.secret()
	if err != nil {
		return "", err
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(b.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}

func (b *Bootstrap) establish(subject, token string) {
	b.mu.Lock()
	b.subject = subject
	b.token = token
	b.mu.Unlock()
	b.once.Do(func() { close(b.ready) })
}

// secret loads the per-device signing key, creating it on first use.
func (b *Bootstrap) secret() ([]byte, error) {
	if b.d.Has(secretKey) {
		raw, err := b.d.Read(secretKey)
		if err != nil {
			return nil, fmt.Errorf("session: read device secret: %w", err)
		}
		secret, err := hex.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("session: decode device secret: %w", err)
		}
		return secret, nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("session: generate device secret: %w", err)
	}
	if err := b.d.Write(secretKey, []byte(hex.EncodeToString(secret))); err != nil {
		return nil, fmt.Errorf("session: store device secret: %w", err)
	}
	return secret, nil
}
