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
	"encoding/json"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/sandbox/pkg/contract"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/test/api"
)

// violations collects contract failures from observed exchanges.
type violations struct {
	lock   sync.Mutex
	errors []error
}

func (v *violations) observer(validator *contract.Validator) api.Observer {
	return func(exchange *api.Exchange) {
		if err := validator.ValidateExchange(ctx, exchange.Request, exchange.RequestBody, exchange.StatusCode, exchange.Header, exchange.Body); err != nil {
			GinkgoWriter.Printf("CONTRACT VIOLATION: %v\n", err)

			v.lock.Lock()
			defer v.lock.Unlock()

			v.errors = append(v.errors, err)
		}
	}
}

func (v *violations) list() []error {
	v.lock.Lock()
	defer v.lock.Unlock()

	return v.errors
}

var _ = Describe("Schema Contract", func() {
	var (
		validator *contract.Validator
		observed  *violations
	)

	BeforeEach(func() {
		var err error

		// Given: The stored, agreed schema
		validator, err = contract.NewValidator(ctx, openapi.Schema)
		Expect(err).NotTo(HaveOccurred())

		observed = &violations{}
		client.Observe(observed.observer(validator))

		DeferCleanup(func() {
			Expect(observed.list()).To(BeEmpty())
		})
	})

	Context("When fetching the served schema", func() {
		It("should equal the stored schema", func() {
			served, err := client.Schema(ctx)
			Expect(err).NotTo(HaveOccurred())

			loader := openapi3.NewLoader()

			servedDoc, err := loader.LoadFromData(served)
			Expect(err).NotTo(HaveOccurred())

			storedDoc, err := openapi.GetSwagger()
			Expect(err).NotTo(HaveOccurred())

			servedJSON, err := json.Marshal(servedDoc)
			Expect(err).NotTo(HaveOccurred())

			storedJSON, err := json.Marshal(storedDoc)
			Expect(err).NotTo(HaveOccurred())

			Expect(servedJSON).To(MatchJSON(storedJSON))
		})
	})

	Context("When exercising every operation", func() {
		It("should produce requests and responses that conform", func() {
			payload := api.NewUserPayload().Build()

			user, err := client.CreateUser(ctx, payload)
			Expect(err).NotTo(HaveOccurred())

			token, err := client.Login(ctx, payload.Name, payload.Password)
			Expect(err).NotTo(HaveOccurred())

			client.SetAuthToken(token.Token)

			_, err = client.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.GetUser(ctx, user.Id)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.UpdateUser(ctx, user.Id, &openapi.UserUpdate{Name: api.GenerateTestID()})
			Expect(err).NotTo(HaveOccurred())

			Expect(client.DeleteUser(ctx, user.Id)).To(Succeed())

			_, err = client.Health(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should document error responses", func() {
			fixture := api.CreateUserWithCleanup(ctx, config, api.NewUserPayload().Build())

			// Conflict.
			_, err := client.Do(ctx, http.MethodPost, endpoints.Users(), &openapi.UserCreate{Name: fixture.User.Name, Password: "x"}, http.StatusConflict)
			Expect(err).NotTo(HaveOccurred())

			// Unauthorized.
			_, err = client.Do(ctx, http.MethodGet, endpoints.Users(), nil, http.StatusUnauthorized)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Do(ctx, http.MethodPost, endpoints.Login(), &openapi.LoginRequest{Name: fixture.User.Name, Password: "wrong"}, http.StatusUnauthorized)
			Expect(err).NotTo(HaveOccurred())

			// Not found.
			client.SetAuthToken(fixture.Token)

			_, err = client.Do(ctx, http.MethodGet, endpoints.User(999999999), nil, http.StatusNotFound)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("When the response shape drifts", func() {
		It("should be detected", func() {
			// Given: A response carrying a field the schema forbids
			request, err := http.NewRequestWithContext(ctx, http.MethodGet, config.BaseURL+endpoints.User(1), nil)
			Expect(err).NotTo(HaveOccurred())

			header := http.Header{"Content-Type": []string{"application/json"}}
			body := []byte(`{"id":1,"name":"alice","password":"leaked"}`)

			// Then: Validation fails
			err = validator.ValidateExchange(ctx, request, nil, http.StatusOK, header, body)
			Expect(err).To(MatchError(contract.ErrResponse))
		})
	})
})
