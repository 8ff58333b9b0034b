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

package users

import (
	"context"
	goerrors "errors"
	"strings"

	"github.com/unikorn-cloud/sandbox/pkg/auth"
	"github.com/unikorn-cloud/sandbox/pkg/log"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/pkg/store"
)

// maxNameLength bounds user names.
const maxNameLength = 128

// Client implements user management business logic.
type Client struct {
	// store persists users.
	store store.Store
	// issuer signs access tokens on login.
	issuer *auth.Issuer
}

// NewClient creates a new client.
func NewClient(store store.Store, issuer *auth.Issuer) *Client {
	return &Client{
		store:  store,
		issuer: issuer,
	}
}

func convert(in *store.User) *openapi.UserRead {
	return &openapi.UserRead{
		Id:   in.ID,
		Name: in.Name,
	}
}

func convertList(in []store.User) openapi.Users {
	out := make(openapi.Users, len(in))

	for i := range in {
		out[i] = *convert(&in[i])
	}

	return out
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.OAuth2InvalidRequest("name must not be empty")
	}

	if len(name) > maxNameLength {
		return errors.OAuth2InvalidRequest("name is too long")
	}

	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return errors.OAuth2InvalidRequest("user ID must be a positive integer")
	}

	return nil
}

// translate maps store errors on to HTTP errors.
func translate(err error, description string) error {
	switch {
	case goerrors.Is(err, store.ErrNotFound):
		return errors.HTTPNotFound().WithError(err)
	case goerrors.Is(err, store.ErrConflict):
		return errors.HTTPConflict().WithError(err)
	}

	return errors.OAuth2ServerError(description).WithError(err)
}

func (c *Client) Create(ctx context.Context, request *openapi.UserCreate) (*openapi.UserRead, error) {
	if err := validateName(request.Name); err != nil {
		return nil, err
	}

	if request.Password == "" {
		return nil, errors.OAuth2InvalidRequest("password must not be empty")
	}

	hash, salt, err := auth.HashPassword(request.Password)
	if err != nil {
		return nil, errors.OAuth2ServerError("unable to hash password").WithError(err)
	}

	user := &store.User{
		Name:         request.Name,
		PasswordHash: hash,
		PasswordSalt: salt,
	}

	created, err := c.store.Create(ctx, user)
	if err != nil {
		return nil, translate(err, "unable to create user")
	}

	log.FromContext(ctx).Info("user created", "id", created.ID)

	return convert(created), nil
}

func (c *Client) List(ctx context.Context) (openapi.Users, error) {
	users, err := c.store.List(ctx)
	if err != nil {
		return nil, translate(err, "unable to list users")
	}

	return convertList(users), nil
}

func (c *Client) Get(ctx context.Context, id int64) (*openapi.UserRead, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	user, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "unable to read user")
	}

	return convert(user), nil
}

// actor returns log values identifying the authenticated caller.
func actor(ctx context.Context) []any {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil
	}

	return []any{"actor", claims.Subject}
}

// Update renames a user, the only mutable field.
func (c *Client) Update(ctx context.Context, id int64, request *openapi.UserUpdate) (*openapi.UserRead, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if err := validateName(request.Name); err != nil {
		return nil, err
	}

	user, err := c.store.UpdateName(ctx, id, request.Name)
	if err != nil {
		return nil, translate(err, "unable to update user")
	}

	log.FromContext(ctx, actor(ctx)...).Info("user renamed", "id", id)

	return convert(user), nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return translate(err, "unable to delete user")
	}

	log.FromContext(ctx, actor(ctx)...).Info("user deleted", "id", id)

	return nil
}

// Login checks credentials and issues an access token.  Unknown users and
// bad passwords are indistinguishable to the caller.
func (c *Client) Login(ctx context.Context, request *openapi.LoginRequest) (*openapi.Token, error) {
	denied := errors.OAuth2AccessDenied("invalid user name or password")

	user, err := c.store.GetByName(ctx, request.Name)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return nil, denied
		}

		return nil, translate(err, "unable to read user")
	}

	if !auth.VerifyPassword(request.Password, user.PasswordHash, user.PasswordSalt) {
		return nil, denied
	}

	token, expiry, err := c.issuer.Issue(user.ID, user.Name)
	if err != nil {
		return nil, errors.OAuth2ServerError("unable to issue token").WithError(err)
	}

	return &openapi.Token{
		Token:     token,
		ExpiresAt: expiry.UTC(),
	}, nil
}
