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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package suites

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/test/api"
)

var _ = Describe("Security and Authentication", func() {
	Context("When logging in", func() {
		Describe("Given correct credentials", func() {
			It("should return a non-empty token that expires in the future", func() {
				payload := api.NewUserPayload().Build()
				api.CreateUserWithCleanup(ctx, config, payload)

				token, err := client.Login(ctx, payload.Name, payload.Password)

				Expect(err).NotTo(HaveOccurred())
				Expect(token.Token).NotTo(BeEmpty())
				Expect(token.ExpiresAt).To(BeTemporally(">", time.Now()))
			})
		})

		Describe("Given incorrect credentials", func() {
			It("should reject a wrong password with 401 Unauthorized", func() {
				payload := api.NewUserPayload().Build()
				api.CreateUserWithCleanup(ctx, config, payload)

				exchange, err := client.Do(ctx, http.MethodPost, endpoints.Login(), &openapi.LoginRequest{
					Name:     payload.Name,
					Password: payload.Password + "-wrong",
				}, http.StatusUnauthorized)
				Expect(err).NotTo(HaveOccurred())

				// Then: No usable token is returned
				var token openapi.Token
				Expect(exchange.DecodeJSON(&token)).To(Succeed())
				Expect(token.Token).To(BeEmpty())

				var body errors.Body
				Expect(exchange.DecodeJSON(&body)).To(Succeed())
				Expect(body.Error).To(Equal(errors.ErrorAccessDenied))
			})

			It("should not reveal whether the user exists", func() {
				payload := api.NewUserPayload().Build()
				api.CreateUserWithCleanup(ctx, config, payload)

				wrongPassword, err := client.Do(ctx, http.MethodPost, endpoints.Login(), &openapi.LoginRequest{
					Name:     payload.Name,
					Password: "wrong",
				}, http.StatusUnauthorized)
				Expect(err).NotTo(HaveOccurred())

				unknownUser, err := client.Do(ctx, http.MethodPost, endpoints.Login(), &openapi.LoginRequest{
					Name:     api.GenerateTestID(),
					Password: "wrong",
				}, http.StatusUnauthorized)
				Expect(err).NotTo(HaveOccurred())

				Expect(wrongPassword.Body).To(MatchJSON(unknownUser.Body))
			})
		})
	})

	Context("When calling protected endpoints", func() {
		DescribeTable("should reject with 401 Unauthorized",
			func(token string) {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				client.SetAuthToken(token)

				requests := []struct {
					method string
					path   string
					body   any
				}{
					{method: http.MethodGet, path: endpoints.Users()},
					{method: http.MethodGet, path: endpoints.User(fixture.User.Id)},
					{method: http.MethodPut, path: endpoints.User(fixture.User.Id), body: &openapi.UserUpdate{Name: api.GenerateTestID()}},
					{method: http.MethodDelete, path: endpoints.User(fixture.User.Id)},
				}

				for _, request := range requests {
					exchange, err := client.Do(ctx, request.method, request.path, request.body, http.StatusUnauthorized)
					Expect(err).NotTo(HaveOccurred())
					Expect(exchange.Header.Get("WWW-Authenticate")).To(HavePrefix("Bearer"))
				}

				// And: Nothing was changed
				user, err := fixture.Client.GetUser(ctx, fixture.User.Id)
				Expect(err).NotTo(HaveOccurred())
				Expect(user).To(Equal(fixture.User))
			},
			Entry("missing token", ""),
			Entry("garbage token", "not-a-jwt"),
			Entry("unsigned token", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiIxIiwiaXNzIjoic2FuZGJveCJ9."),
		)

		It("should reject a token whose claims were swapped", func() {
			fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
			other := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

			// Given: The other user's claims under this user's signature
			signed := strings.Split(fixture.Token, ".")
			claims := strings.Split(other.Token, ".")
			Expect(signed).To(HaveLen(3))
			Expect(claims).To(HaveLen(3))

			client.SetAuthToken(strings.Join([]string{signed[0], claims[1], signed[2]}, "."))

			_, err := client.Do(ctx, http.MethodGet, endpoints.Users(), nil, http.StatusUnauthorized)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject correctly signed tokens outside their validity", func() {
			fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

			now := time.Now()
			subject := strconv.FormatInt(fixture.User.Id, 10)

			tokens := map[string]jwt.RegisteredClaims{
				"expired": {
					Issuer:    constants.DefaultJWTIssuer,
					Subject:   subject,
					IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
					ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
				},
				"wrong issuer": {
					Issuer:    "someone-else",
					Subject:   subject,
					IssuedAt:  jwt.NewNumericDate(now),
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				},
				"no expiry": {
					Issuer:   constants.DefaultJWTIssuer,
					Subject:  subject,
					IssuedAt: jwt.NewNumericDate(now),
				},
			}

			for name, claims := range tokens {
				By(name)

				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSigningKey))
				Expect(err).NotTo(HaveOccurred())

				client.SetAuthToken(token)

				_, err = client.Do(ctx, http.MethodGet, endpoints.User(fixture.User.Id), nil, http.StatusUnauthorized)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("should accept the token of any valid user", func() {
			fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
			other := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

			user, err := fixture.Client.GetUser(ctx, other.User.Id)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Name).To(Equal(other.User.Name))
		})
	})

	Context("When calling public endpoints", func() {
		It("should report health without a token", func() {
			health, err := client.Health(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(health.Status).To(Equal("ok"))
		})
	})
})
