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

// Package memory provides an in-memory user store, the default backend and
// the fake used throughout the test suites.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/unikorn-cloud/sandbox/pkg/store"
)

type Store struct {
	lock   sync.RWMutex
	users  []store.User
	lastID int64
	now    func() time.Time
}

var _ store.Store = &Store{}

// New returns an empty store.
func New() *Store {
	return &Store{
		now: time.Now,
	}
}

func clone(in *store.User) *store.User {
	out := *in
	out.PasswordHash = slices.Clone(in.PasswordHash)
	out.PasswordSalt = slices.Clone(in.PasswordSalt)

	return &out
}

// index returns the slice index of a user, or -1.  Callers must hold the lock.
func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.users, func(u store.User) bool {
		return u.ID == id
	})
}

func (s *Store) nameTaken(name string, exclude int64) bool {
	return slices.ContainsFunc(s.users, func(u store.User) bool {
		return u.Name == name && u.ID != exclude
	})
}

func (s *Store) Create(_ context.Context, user *store.User) (*store.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.nameTaken(user.Name, 0) {
		return nil, fmt.Errorf("%w: %s", store.ErrConflict, user.Name)
	}

	s.lastID++

	created := clone(user)
	created.ID = s.lastID
	created.CreationTime = s.now().UTC()

	s.users = append(s.users, *created)

	return clone(created), nil
}

func (s *Store) Get(_ context.Context, id int64) (*store.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}

	return clone(&s.users[i]), nil
}

func (s *Store) GetByName(_ context.Context, name string) (*store.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	i := slices.IndexFunc(s.users, func(u store.User) bool {
		return u.Name == name
	})

	if i < 0 {
		return nil, fmt.Errorf("%w: name %s", store.ErrNotFound, name)
	}

	return clone(&s.users[i]), nil
}

// List returns users in insertion order, which is also ID order.
func (s *Store) List(_ context.Context) ([]store.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]store.User, len(s.users))

	for i := range s.users {
		out[i] = *clone(&s.users[i])
	}

	return out, nil
}

func (s *Store) UpdateName(_ context.Context, id int64, name string) (*store.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}

	if s.nameTaken(name, id) {
		return nil, fmt.Errorf("%w: %s", store.ErrConflict, name)
	}

	s.users[i].Name = name

	return clone(&s.users[i]), nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}

	s.users = slices.Delete(s.users, i, i+1)

	return nil
}
