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

package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/paymock"
	"github.com/unikorn-cloud/sandbox/pkg/payments"
)

func generateRandomName(prefix string) string {
	bytes := make([]byte, 4) // 8 hex characters
	_, _ = rand.Read(bytes)

	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(bytes))
}

func GenerateTestID() string {
	return generateRandomName("test")
}

// UserPayloadBuilder builds user creation payloads with unique names so
// specs never collide.
type UserPayloadBuilder struct {
	payload openapi.UserCreate
}

func NewUserPayload() *UserPayloadBuilder {
	return &UserPayloadBuilder{
		payload: openapi.UserCreate{
			Name:     generateRandomName("testautomation"),
			Password: generateRandomName("pw"),
		},
	}
}

func (b *UserPayloadBuilder) WithName(name string) *UserPayloadBuilder {
	b.payload.Name = name
	return b
}

func (b *UserPayloadBuilder) WithPassword(password string) *UserPayloadBuilder {
	b.payload.Password = password
	return b
}

// Build returns a copy of the payload.
func (b *UserPayloadBuilder) Build() *openapi.UserCreate {
	payload := b.payload
	return &payload
}

// PaymentPayloadBuilder builds payment requests, by default one that the
// provider approves.
type PaymentPayloadBuilder struct {
	payload payments.PaymentRequest
}

func NewPaymentPayload() *PaymentPayloadBuilder {
	return &PaymentPayloadBuilder{
		payload: payments.PaymentRequest{
			Amount:        100.50,
			Currency:      "USD",
			PaymentMethod: "credit_card",
			CardNumber:    paymock.ApprovedCard,
			ExpiryMonth:   "12",
			ExpiryYear:    "2030",
			CVV:           "123",
		},
	}
}

func (b *PaymentPayloadBuilder) WithAmount(amount float64) *PaymentPayloadBuilder {
	b.payload.Amount = amount
	return b
}

func (b *PaymentPayloadBuilder) WithCurrency(currency string) *PaymentPayloadBuilder {
	b.payload.Currency = currency
	return b
}

func (b *PaymentPayloadBuilder) WithCardNumber(cardNumber string) *PaymentPayloadBuilder {
	b.payload.CardNumber = cardNumber
	return b
}

func (b *PaymentPayloadBuilder) WithCVV(cvv string) *PaymentPayloadBuilder {
	b.payload.CVV = cvv
	return b
}

// Build returns a copy of the payload.
func (b *PaymentPayloadBuilder) Build() *payments.PaymentRequest {
	payload := b.payload
	return &payload
}
