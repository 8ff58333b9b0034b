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

package openapi

import (
	"net/http"

	"github.com/unikorn-cloud/sandbox/pkg/auth"
	"github.com/unikorn-cloud/sandbox/pkg/contract"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
)

// Validator rejects requests that do not conform to the schema before they
// reach a handler.
func Validator(validator *contract.Validator) openapi.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := validator.ValidateRequest(r.Context(), r); err != nil {
				errors.HandleError(w, r, errors.OAuth2InvalidRequest("request failed schema validation").WithError(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticator enforces bearer authentication on operations whose schema
// declares a security requirement.  The generated router marks those
// operations in the request context.
func Authenticator(issuer *auth.Issuer) openapi.MiddlewareFunc {
	authenticate := auth.Middleware(issuer)

	return func(next http.Handler) http.Handler {
		protected := authenticate(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Context().Value(openapi.BearerAuthScopes) == nil {
				next.ServeHTTP(w, r)
				return
			}

			protected.ServeHTTP(w, r)
		})
	}
}
