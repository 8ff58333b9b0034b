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
	"errors"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/sandbox/pkg/paymock"
	"github.com/unikorn-cloud/sandbox/pkg/payments"
	"github.com/unikorn-cloud/sandbox/test/api"
)

var _ = Describe("Mock Payment Provider", func() {
	var (
		provider *payments.Client
		admin    *api.APIClient
	)

	BeforeEach(func() {
		provider = api.NewPaymentsClient(config)
		admin = api.NewPaymentsAPIClient(config)
	})

	Context("When taking a payment", func() {
		Describe("Given the approved test card", func() {
			It("should approve and echo amount and currency", func() {
				request := api.NewPaymentPayload().WithAmount(99.99).WithCurrency("EUR").Build()

				response, err := provider.CreatePayment(ctx, request)

				Expect(err).NotTo(HaveOccurred())
				Expect(response.Status).To(Equal(payments.StatusApproved))
				Expect(response.Amount).To(BeNumerically("==", 99.99))
				Expect(response.Currency).To(Equal("EUR"))
				Expect(response.TransactionID).To(HavePrefix(payments.TransactionIDPrefix))
				Expect(response.Timestamp.IsZero()).To(BeFalse())
			})

			It("should generate a new transaction ID for every identical request", func() {
				request := api.NewPaymentPayload().Build()

				first, err := provider.CreatePayment(ctx, request)
				Expect(err).NotTo(HaveOccurred())

				second, err := provider.CreatePayment(ctx, request)
				Expect(err).NotTo(HaveOccurred())

				// Then: Identifiers differ but echoed fields do not
				Expect(second.TransactionID).NotTo(Equal(first.TransactionID))
				Expect(second.Amount).To(Equal(first.Amount))
				Expect(second.Currency).To(Equal(first.Currency))
			})
		})

		Describe("Given the insufficient funds test card", func() {
			It("should decline with 402 Payment Required", func() {
				request := api.NewPaymentPayload().WithCardNumber(paymock.InsufficientFundsCard).Build()

				_, err := provider.CreatePayment(ctx, request)

				Expect(err).To(MatchError(payments.ErrInsufficientFunds))

				var apiErr *payments.APIError
				Expect(errors.As(err, &apiErr)).To(BeTrue())
				Expect(apiErr.StatusCode).To(Equal(http.StatusPaymentRequired))
				Expect(apiErr.Message).To(Equal("Insufficient funds"))
			})
		})

		DescribeTable("Given invalid card details it should reject with 400 Bad Request",
			func(builder *api.PaymentPayloadBuilder) {
				_, err := provider.CreatePayment(ctx, builder.Build())

				Expect(err).To(MatchError(payments.ErrInvalidCard))
			},
			Entry("short card number", api.NewPaymentPayload().WithCardNumber("4111")),
			Entry("non numeric card number", api.NewPaymentPayload().WithCardNumber("4111-1111-1111-1111")),
			Entry("missing cvv", api.NewPaymentPayload().WithCVV("")),
		)

		It("should reject an unparseable body with 400 Bad Request", func() {
			exchange, err := admin.Do(ctx, http.MethodPost, endpoints.Payments(), []byte(`{"amount":"a lot"}`), http.StatusBadRequest)

			Expect(err).NotTo(HaveOccurred())
			Expect(exchange.Body).To(MatchJSON(`{"error":"Invalid card details"}`))
		})
	})

	Context("When looking up a transaction", func() {
		It("should return the transaction", func() {
			created, err := provider.CreatePayment(ctx, api.NewPaymentPayload().Build())
			Expect(err).NotTo(HaveOccurred())

			transaction, err := provider.GetTransaction(ctx, created.TransactionID)

			Expect(err).NotTo(HaveOccurred())
			Expect(transaction.TransactionID).To(Equal(created.TransactionID))
			Expect(transaction.Status).To(Equal(payments.StatusApproved))
		})

		It("should return 404 Not Found for the missing transaction", func() {
			_, err := provider.GetTransaction(ctx, paymock.MissingTransactionID)

			Expect(err).To(MatchError(payments.ErrTransactionNotFound))
		})
	})

	Context("When a request matches no rule", func() {
		It("should return 404 Not Found", func() {
			exchange, err := admin.Do(ctx, http.MethodPatch, endpoints.Payments(), nil, http.StatusNotFound)

			Expect(err).NotTo(HaveOccurred())
			Expect(exchange.Body).To(MatchJSON(`{"error":"No matching rule"}`))
		})
	})

	Context("When inspecting the provider", func() {
		It("should list rules in evaluation order", func() {
			mappings, err := admin.Mappings(ctx)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(mappings.Mappings))
			for i := range mappings.Mappings {
				names[i] = mappings.Mappings[i].Name
			}

			Expect(names).To(Equal([]string{"insufficient-funds", "invalid-card", "approve-payment", "transaction-not-found", "get-transaction"}))
		})

		It("should record requests with the matched rule", func() {
			marker := api.GenerateTestID()

			_, err := provider.GetTransaction(ctx, marker)
			Expect(err).NotTo(HaveOccurred())

			requests, err := admin.Requests(ctx)
			Expect(err).NotTo(HaveOccurred())

			var found *paymock.LoggedRequest

			for i := range requests.Requests {
				if strings.HasSuffix(requests.Requests[i].Path, marker) {
					found = &requests.Requests[i]
				}
			}

			Expect(found).NotTo(BeNil())
			Expect(found.Rule).To(Equal("get-transaction"))
			Expect(found.Method).To(Equal(http.MethodGet))
			Expect(found.PathParams).To(HaveKeyWithValue("transactionId", marker))
		})
	})
})
