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

package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/unikorn-cloud/sandbox/pkg/auth"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/pkg/store/memory"
)

type fixture struct {
	t       *testing.T
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	issuer, err := auth.NewIssuer(&auth.Options{
		SigningKey: "0123456789abcdef0123456789abcdef",
		Lifetime:   time.Hour,
	})
	require.NoError(t, err)

	handler, err := server.NewRouter(logr.Discard(), memory.New(), issuer)
	require.NoError(t, err)

	return &fixture{
		t:       t,
		handler: handler,
	}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader io.Reader

	switch t := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(t))
	default:
		data, err := json.Marshal(body)
		require.NoError(f.t, err)

		reader = bytes.NewReader(data)
	}

	r := httptest.NewRequest(method, path, reader)

	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()

	f.handler.ServeHTTP(w, r)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *T {
	t.Helper()

	var out T

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return &out
}

func (f *fixture) createUser(name, password string) *openapi.UserRead {
	f.t.Helper()

	w := f.do(http.MethodPost, "/api/Users", "", &openapi.UserCreate{Name: name, Password: password})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())

	return decode[openapi.UserRead](f.t, w)
}

func (f *fixture) login(name, password string) string {
	f.t.Helper()

	w := f.do(http.MethodPost, "/api/Users/login", "", &openapi.LoginRequest{Name: name, Password: password})
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())

	return decode[openapi.Token](f.t, w).Token
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code errors.ErrorCode) {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decode[errors.Body](t, w)
	require.Equal(t, code, body.Error)
	require.NotEmpty(t, body.Description)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode[openapi.Health](t, w).Status)
}

func TestSchemaServed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	schema := decode[map[string]any](t, w)
	require.Equal(t, "3.0.3", (*schema)["openapi"])
	require.Contains(t, (*schema)["paths"], "/api/Users/{id}")
}

func TestUserLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	alice := f.createUser("alice", "s3cret")
	require.Positive(t, alice.Id)
	require.Equal(t, "alice", alice.Name)

	token := f.login("alice", "s3cret")

	path := fmt.Sprintf("/api/Users/%d", alice.Id)

	w := f.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, alice, decode[openapi.UserRead](t, w))
	require.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = f.do(http.MethodPut, path, token, &openapi.UserUpdate{Name: "alicia"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "alicia", decode[openapi.UserRead](t, w).Name)

	w = f.do(http.MethodGet, "/api/Users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, openapi.Users{{Id: alice.Id, Name: "alicia"}}, *decode[openapi.Users](t, w))

	w = f.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.Bytes())

	requireError(t, f.do(http.MethodGet, path, token, nil), http.StatusNotFound, errors.ErrorNotFound)
	requireError(t, f.do(http.MethodDelete, path, token, nil), http.StatusNotFound, errors.ErrorNotFound)

	// The token outlives the user it was issued to.
	w = f.do(http.MethodGet, "/api/Users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, *decode[openapi.Users](t, w))
}

func TestCreateRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.createUser("bob", "s3cret")

	tests := []struct {
		name   string
		body   any
		status int
		code   errors.ErrorCode
	}{
		{
			name:   "Duplicate",
			body:   &openapi.UserCreate{Name: "bob", Password: "other"},
			status: http.StatusConflict,
			code:   errors.ErrorConflict,
		},
		{
			name:   "MissingPassword",
			body:   map[string]any{"name": "carol"},
			status: http.StatusBadRequest,
			code:   errors.ErrorInvalidRequest,
		},
		{
			name:   "EmptyName",
			body:   &openapi.UserCreate{Password: "s3cret"},
			status: http.StatusBadRequest,
			code:   errors.ErrorInvalidRequest,
		},
		{
			name:   "UnknownField",
			body:   map[string]any{"name": "carol", "password": "s3cret", "admin": true},
			status: http.StatusBadRequest,
			code:   errors.ErrorInvalidRequest,
		},
		{
			name:   "Malformed",
			body:   `{"name":`,
			status: http.StatusBadRequest,
			code:   errors.ErrorInvalidRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			requireError(t, f.do(http.MethodPost, "/api/Users", "", test.body), test.status, test.code)
		})
	}
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.createUser("dave", "s3cret")

	wrongPassword := f.do(http.MethodPost, "/api/Users/login", "", &openapi.LoginRequest{Name: "dave", Password: "guess"})
	requireError(t, wrongPassword, http.StatusUnauthorized, errors.ErrorAccessDenied)

	unknownUser := f.do(http.MethodPost, "/api/Users/login", "", &openapi.LoginRequest{Name: "nobody", Password: "s3cret"})
	requireError(t, unknownUser, http.StatusUnauthorized, errors.ErrorAccessDenied)

	require.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestAuthenticationRequired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	user := f.createUser("erin", "s3cret")
	path := fmt.Sprintf("/api/Users/%d", user.Id)

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{method: http.MethodGet, path: "/api/Users"},
		{method: http.MethodGet, path: path},
		{method: http.MethodPut, path: path, body: &openapi.UserUpdate{Name: "mallory"}},
		{method: http.MethodDelete, path: path},
	}

	for _, token := range []string{"", "not-a-jwt"} {
		for _, request := range requests {
			w := f.do(request.method, request.path, token, request.body)
			requireError(t, w, http.StatusUnauthorized, errors.ErrorAccessDenied)
			require.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
		}
	}

	// Nothing changed.
	token := f.login("erin", "s3cret")

	w := f.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "erin", decode[openapi.UserRead](t, w).Name)
}

func TestInvalidUserID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.createUser("frank", "s3cret")
	token := f.login("frank", "s3cret")

	requireError(t, f.do(http.MethodGet, "/api/Users/abc", token, nil), http.StatusBadRequest, errors.ErrorInvalidRequest)
	requireError(t, f.do(http.MethodGet, "/api/Users/0", token, nil), http.StatusBadRequest, errors.ErrorInvalidRequest)
	requireError(t, f.do(http.MethodGet, "/api/Users/999", token, nil), http.StatusNotFound, errors.ErrorNotFound)
}

// TestRejectionOrder pins which check answers first for unauthenticated
// requests: path binding, then authentication, then schema validation.
func TestRejectionOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	requireError(t, f.do(http.MethodGet, "/api/Users/abc", "", nil), http.StatusBadRequest, errors.ErrorInvalidRequest)
	requireError(t, f.do(http.MethodGet, "/api/Users/0", "", nil), http.StatusUnauthorized, errors.ErrorAccessDenied)
	requireError(t, f.do(http.MethodPut, "/api/Users/1", "", `{"unknown":true}`), http.StatusUnauthorized, errors.ErrorAccessDenied)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	requireError(t, f.do(http.MethodGet, "/api/nothing", "", nil), http.StatusNotFound, errors.ErrorNotFound)
}
