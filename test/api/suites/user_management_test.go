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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/test/api"
)

var _ = Describe("User Management", func() {
	Context("When creating users", func() {
		Describe("Given a valid payload", func() {
			It("should return a positive ID and echo the name", func() {
				payload := api.NewUserPayload().Build()

				// When: I create the user
				fixture := api.CreateUserWithCleanup(ctx, config, payload)

				// Then: The server assigns an ID and echoes the name
				Expect(fixture.User.Id).To(BeNumerically(">", 0))
				Expect(fixture.User.Name).To(Equal(payload.Name))
			})

			It("should assign increasing IDs", func() {
				first := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
				second := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				Expect(second.User.Id).To(BeNumerically(">", first.User.Id))
			})

			It("should return a record equal to what was submitted", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				// When: I fetch the user
				user, err := fixture.Client.GetUser(ctx, fixture.User.Id)

				// Then: All fields match
				Expect(err).NotTo(HaveOccurred())
				Expect(user).To(Equal(fixture.User))
			})
		})

		Describe("Given an invalid payload", func() {
			It("should reject a duplicate name with 409 Conflict", func() {
				payload := api.NewUserPayload().Build()
				api.CreateUserWithCleanup(ctx, config, payload)

				exchange, err := client.Do(ctx, http.MethodPost, endpoints.Users(), payload, http.StatusConflict)
				Expect(err).NotTo(HaveOccurred())

				var body errors.Body
				Expect(exchange.DecodeJSON(&body)).To(Succeed())
				Expect(body.Error).To(Equal(errors.ErrorConflict))
			})

			DescribeTable("should reject with 400 Bad Request",
				func(body any) {
					exchange, err := client.Do(ctx, http.MethodPost, endpoints.Users(), body, http.StatusBadRequest)
					Expect(err).NotTo(HaveOccurred())

					var errorBody errors.Body
					Expect(exchange.DecodeJSON(&errorBody)).To(Succeed())
					Expect(errorBody.Error).To(Equal(errors.ErrorInvalidRequest))
				},
				Entry("missing password", map[string]any{"name": "nopassword"}),
				Entry("empty name", map[string]any{"name": "", "password": "secret"}),
				Entry("unknown field", map[string]any{"name": "extra", "password": "secret", "admin": true}),
				Entry("malformed JSON", []byte(`{"name":`)),
			)
		})
	})

	Context("When reading users", func() {
		Describe("Given an authenticated client", func() {
			It("should include created users in the list", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				users, err := fixture.Client.ListUsers(ctx)

				Expect(err).NotTo(HaveOccurred())
				Expect(users).To(ContainElement(*fixture.User))
			})

			It("should return 404 Not Found for a missing user", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				_, err := fixture.Client.Do(ctx, http.MethodGet, endpoints.User(999999999), nil, http.StatusNotFound)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return 400 Bad Request for a malformed ID", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				_, err := fixture.Client.Do(ctx, http.MethodGet, "/api/Users/not-a-number", nil, http.StatusBadRequest)
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Context("When updating users", func() {
		Describe("Given a new name", func() {
			It("should rename the user", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
				name := api.GenerateTestID()

				user, err := fixture.Client.UpdateUser(ctx, fixture.User.Id, &openapi.UserUpdate{Name: name})
				Expect(err).NotTo(HaveOccurred())
				Expect(user.Id).To(Equal(fixture.User.Id))
				Expect(user.Name).To(Equal(name))

				// And: The change is persisted
				user, err = fixture.Client.GetUser(ctx, fixture.User.Id)
				Expect(err).NotTo(HaveOccurred())
				Expect(user.Name).To(Equal(name))
			})

			It("should keep the password", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
				name := api.GenerateTestID()

				_, err := fixture.Client.UpdateUser(ctx, fixture.User.Id, &openapi.UserUpdate{Name: name})
				Expect(err).NotTo(HaveOccurred())

				_, err = client.Login(ctx, name, fixture.Password)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should reject a name that is taken with 409 Conflict", func() {
				first := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
				second := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				_, err := first.Client.Do(ctx, http.MethodPut, endpoints.User(first.User.Id), &openapi.UserUpdate{Name: second.User.Name}, http.StatusConflict)
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Context("When deleting users", func() {
		Describe("Given an existing user", func() {
			It("should return 404 Not Found when fetched afterwards", func() {
				fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

				// When: I delete the user
				Expect(fixture.Client.DeleteUser(ctx, fixture.User.Id)).To(Succeed())

				// Then: It is gone
				_, err := fixture.Client.Do(ctx, http.MethodGet, endpoints.User(fixture.User.Id), nil, http.StatusNotFound)
				Expect(err).NotTo(HaveOccurred())

				// And: Deleting again is also not found
				_, err = fixture.Client.Do(ctx, http.MethodDelete, endpoints.User(fixture.User.Id), nil, http.StatusNotFound)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should not reuse the deleted ID", func() {
				deleted := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
				Expect(deleted.Client.DeleteUser(ctx, deleted.User.Id)).To(Succeed())

				created := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())
				Expect(created.User.Id).To(BeNumerically(">", deleted.User.Id))
			})
		})
	})
})
