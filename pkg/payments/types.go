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

// Package payments defines the payment provider's wire format and a client
// for it.  The mock responder in pkg/paymock serves the same format.
package payments

import (
	"time"
)

const (
	// StatusApproved is reported for successful payments.
	StatusApproved = "approved"

	// TransactionIDPrefix starts every transaction ID.
	TransactionIDPrefix = "txn_"
)

// PaymentRequest asks the provider to take a payment.
type PaymentRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
	CardNumber    string  `json:"cardNumber"`
	ExpiryMonth   string  `json:"expiryMonth"`
	ExpiryYear    string  `json:"expiryYear"`
	CVV           string  `json:"cvv"`
}

// TransactionResponse describes a transaction.
type TransactionResponse struct {
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentResponse is returned when a payment is taken.
type PaymentResponse = TransactionResponse

// ErrorResponse is returned with any non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
