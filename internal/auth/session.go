// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinSessionSecretLength is the shortest signing secret accepted, in bytes.
const MinSessionSecretLength = 32

// SessionCodec mints and validates the session tokens carried in the
// client's cookie.
type SessionCodec interface {
	// Mint returns a signed token bound to userID.
	Mint(userID ulid.ULID) (string, error)

	// Validate returns the user id a token was minted for, or an error
	// matching ErrInvalidSession.
	Validate(token string) (ulid.ULID, error)
}

// JWTSessionCodec signs tokens as HS256 JWTs whose only claim is the
// subject. Tokens carry no expiry: they stay valid until the secret changes.
type JWTSessionCodec struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTSessionCodec creates a codec signing with secret.
func NewJWTSessionCodec(secret []byte) (*JWTSessionCodec, error) {
	if len(secret) < MinSessionSecretLength {
		return nil, oops.Code("SESSION_WEAK_SECRET").
			With("min_length", MinSessionSecretLength).
			With("length", len(secret)).
			Errorf("session secret must be at least %d bytes", MinSessionSecretLength)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &JWTSessionCodec{
		secret: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// Mint returns a signed token bound to userID.
func (c *JWTSessionCodec) Mint(userID ulid.ULID) (string, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: userID.String(),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Validate verifies the token signature and returns its subject.
func (c *JWTSessionCodec) Validate(token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, oops.Code("SESSION_INVALID").With("reason", "empty").Wrap(ErrInvalidSession)
	}

	var claims jwt.RegisteredClaims
	_, err := c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return ulid.ULID{}, oops.Code("SESSION_INVALID").With("reason", err.Error()).Wrap(ErrInvalidSession)
	}

	id, err := ulid.ParseStrict(claims.Subject)
	if err != nil || id.Compare(ulid.ULID{}) == 0 {
		return ulid.ULID{}, oops.Code("SESSION_INVALID").With("reason", "bad subject").Wrap(ErrInvalidSession)
	}
	return id, nil
}

var _ SessionCodec = (*JWTSessionCodec)(nil)
