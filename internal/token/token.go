// Package token issues and validates the signed tokens linking Discord
// identities to the web site, and seals member emails at rest.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetime of an email verification token.
const DefaultVerifyTTL = 30 * time.Minute

// Lifetime of a web session token.
const sessionTTL = 7 * 24 * time.Hour

// ErrInvalidToken covers every way a token can fail validation: bad
// signature, expired, malformed, or wrong purpose. Callers treat them all
// the same way.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token purposes, kept in the JWT subject so a verification token cannot be
// replayed as a session.
const (
	purposeVerify  = "verify"
	purposeSession = "session"
)

// Issuer signs and validates tokens with an HS256 secret.
type Issuer struct {
	secret    []byte
	verifyTTL time.Duration
}

// NewIssuer returns an Issuer for the decoded signing secret. ttl overrides
// the verification-token lifetime when positive.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultVerifyTTL
	}
	return &Issuer{secret: secret, verifyTTL: ttl}
}

type verifyClaims struct {
	DiscordID int64  `json:"did"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	DiscordID int64  `json:"did"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Session is the identity carried by a validated session token.
type Session struct {
	DiscordID int64
	Username  string
	IsAdmin   bool
}

// VerifyToken issues an email verification token binding the Discord id to
// the address the mail is sent to.
func (i *Issuer) VerifyToken(discordID int64, email string) (string, error) {
	now := time.Now()
	claims := verifyClaims{
		DiscordID: discordID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   purposeVerify,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.verifyTTL)),
		},
	}
	return i.sign(claims)
}

// DecodeVerifyToken validates a verification token and returns the bound
// Discord id and email.
func (i *Issuer) DecodeVerifyToken(tok string) (int64, string, error) {
	var claims verifyClaims
	if err := i.parse(tok, &claims, purposeVerify); err != nil {
		return 0, "", err
	}
	return claims.DiscordID, claims.Email, nil
}

// SessionToken issues a web session token for a registered user.
func (i *Issuer) SessionToken(discordID int64, username string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		DiscordID: discordID,
		Username:  username,
		IsAdmin:   isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   purposeSession,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return i.sign(claims)
}

// DecodeSessionToken validates a session token.
func (i *Issuer) DecodeSessionToken(tok string) (*Session, error) {
	var claims sessionClaims
	if err := i.parse(tok, &claims, purposeSession); err != nil {
		return nil, err
	}
	return &Session{
		DiscordID: claims.DiscordID,
		Username:  claims.Username,
		IsAdmin:   claims.IsAdmin,
	}, nil
}

func (i *Issuer) sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tok string, claims jwt.Claims, purpose string) error {
	parsed, err := jwt.ParseWithClaims(tok, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(purpose),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// GenerateKey returns a fresh random 32-byte key, base64 encoded. Used by
// gen-tokens for both the signing secret and the email key.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// DecodeKey decodes a key produced by GenerateKey.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
