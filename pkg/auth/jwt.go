/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSigningKey is returned when no usable signing key is configured.
	ErrSigningKey = errors.New("signing key must be at least 32 bytes")
)

const minimumKeyLength = 32

// Options configures token issue.
type Options struct {
	SigningKey string
	Issuer     string
	Lifetime   time.Duration
}

func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.SigningKey, "jwt-signing-key", "", "HMAC key used to sign access tokens, at least 32 bytes.")
	f.StringVar(&o.Issuer, "jwt-issuer", constants.DefaultJWTIssuer, "Issuer claim for access tokens.")
	f.DurationVar(&o.Lifetime, "jwt-lifetime", time.Hour, "Access token lifetime.")
}

// Claims are the access token claims.
type Claims struct {
	jwt.RegisteredClaims

	// Name is the user name at the time the token was issued.
	Name string `json:"name"`
}

// UserID returns the subject as a user ID.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	return id, nil
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	key      []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// NewIssuer validates options and returns an issuer.
func NewIssuer(options *Options) (*Issuer, error) {
	if len(options.SigningKey) < minimumKeyLength {
		return nil, ErrSigningKey
	}

	issuer := options.Issuer
	if issuer == "" {
		issuer = constants.DefaultJWTIssuer
	}

	lifetime := options.Lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	return &Issuer{
		key:      []byte(options.SigningKey),
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Issue returns a signed token for the user and its expiry time.
func (i *Issuer) Issue(userID int64, name string) (string, time.Time, error) {
	now := i.now()
	expiry := now.Add(i.lifetime)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Name: name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return token, expiry, nil
}

// Verify checks the signature, algorithm, issuer and validity window.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	keyFunc := func(*jwt.Token) (any, error) {
		return i.key, nil
	}

	parsed, err := jwt.ParseWithClaims(token, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	return claims, nil
}
