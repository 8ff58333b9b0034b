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

//go:generate go tool mockgen -source=interfaces.go -destination=mock/interfaces.go -package=mock

package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrConflict is returned when a user name is already taken.
	ErrConflict = errors.New("user name already exists")
)

// User is a persisted user record, including credential material.
type User struct {
	ID           int64
	Name         string
	PasswordHash []byte
	PasswordSalt []byte
	CreationTime time.Time
}

// Store persists users. Identifiers are assigned by the store on creation
// and increase monotonically; they are never reused.
type Store interface {
	// Create inserts a new user, ignoring any ID on the input.
	Create(ctx context.Context, user *User) (*User, error)
	// Get returns a user by ID.
	Get(ctx context.Context, id int64) (*User, error)
	// GetByName returns a user by their unique name.
	GetByName(ctx context.Context, name string) (*User, error)
	// List returns all users ordered by ID.
	List(ctx context.Context) ([]User, error)
	// UpdateName renames a user.
	UpdateName(ctx context.Context, id int64, name string) (*User, error)
	// Delete removes a user.
	Delete(ctx context.Context, id int64) error
}
