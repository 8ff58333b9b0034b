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
	"context"
	"net/http"
	"strings"

	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
)

type contextKey int

const claimsKey contextKey = iota

// NewContext returns a context carrying verified claims.
func NewContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext returns the claims attached by the middleware, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)

	return claims, ok
}

// Middleware rejects requests without a valid bearer token.
func Middleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				errors.HandleError(w, r, errors.OAuth2AccessDenied("authorization header missing"))
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				errors.HandleError(w, r, errors.OAuth2AccessDenied("authorization header malformed"))
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				errors.HandleError(w, r, errors.OAuth2AccessDenied("access token invalid").WithError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), claims)))
		})
	}
}
