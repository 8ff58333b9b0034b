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
package api

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/sandbox/pkg/openapi"
)

// UserFixture is a user created for a single spec.
type UserFixture struct {
	User     *openapi.UserRead
	Password string
	Token    string
	// Client is authenticated as the user.
	Client *APIClient
}

// CreateUserWithCleanup creates a user, logs in as it and schedules deletion
// when the spec ends.  Cleanup tolerates the spec having already deleted it.
func CreateUserWithCleanup(ctx context.Context, config *TestConfig, payload *openapi.UserCreate) *UserFixture {
	client := NewAPIClient(config)

	user, err := client.CreateUser(ctx, payload)
	Expect(err).NotTo(HaveOccurred())
	Expect(user.Id).To(BeNumerically(">", 0))

	GinkgoWriter.Printf("Created user %s with ID: %d\n", user.Name, user.Id)

	token, err := client.Login(ctx, payload.Name, payload.Password)
	Expect(err).NotTo(HaveOccurred())

	client.SetAuthToken(token.Token)

	DeferCleanup(func(ctx context.Context) {
		exchange, err := client.Do(ctx, http.MethodDelete, client.endpoints.User(user.Id), nil, 0)
		if err != nil {
			GinkgoWriter.Printf("Cleanup of user %d failed: %v\n", user.Id, err)
			return
		}

		GinkgoWriter.Printf("Cleaned up user %d (status %d)\n", user.Id, exchange.StatusCode)
	})

	return &UserFixture{
		User:     user,
		Password: payload.Password,
		Token:    token.Token,
		Client:   client,
	}
}
