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
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLength is the number of random salt bytes generated per password.
	SaltLength = 16

	// KeyLength is the derived key length in bytes.
	KeyLength = 32

	// Iterations is the PBKDF2 work factor.
	Iterations = 100000
)

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeyLength, sha256.New)
}

// HashPassword derives a PBKDF2-HMAC-SHA256 hash from a password and a fresh
// random salt.
func HashPassword(password string) ([]byte, []byte, error) {
	salt := make([]byte, SaltLength)

	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generating salt: %w", err)
	}

	return derive(password, salt), salt, nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(password string, hash, salt []byte) bool {
	if len(hash) == 0 || len(salt) == 0 {
		return false
	}

	return subtle.ConstantTimeCompare(derive(password, salt), hash) == 1
}
