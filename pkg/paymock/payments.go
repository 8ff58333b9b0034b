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

package paymock

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
	"github.com/unikorn-cloud/sandbox/pkg/payments"
)

const (
	// ApprovedCard is always approved.
	ApprovedCard = "4111111111111111"

	// InsufficientFundsCard is always declined.
	InsufficientFundsCard = "4000000000000002"

	// MissingTransactionID is never found.
	MissingTransactionID = "txn_not_found"

	// CannedAmount and CannedCurrency are reported for looked up transactions.
	CannedAmount   = 100.00
	CannedCurrency = "USD"
)

var (
	cardNumberRegexp = regexp.MustCompile(`^[0-9]{13,19}$`)
	cvvRegexp        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// invalidCard matches payment requests that cannot be processed.
func invalidCard(r *Request) bool {
	var request payments.PaymentRequest

	if err := r.DecodeJSON(&request); err != nil {
		return true
	}

	return !cardNumberRegexp.MatchString(request.CardNumber) || !cvvRegexp.MatchString(request.CVV)
}

func newTransactionID() string {
	return payments.TransactionIDPrefix + uuid.NewString()
}

func transaction(clock func() time.Time, id string, amount float64, currency string) (*Response, error) {
	body, err := json.Marshal(&payments.TransactionResponse{
		TransactionID: id,
		Status:        payments.StatusApproved,
		Amount:        amount,
		Currency:      currency,
		Timestamp:     clock().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return JSONResponse(http.StatusOK, body), nil
}

// PaymentRules emulates a card payment provider.  The clock stamps generated
// transactions, nil means time.Now.
func PaymentRules(clock func() time.Time) []Rule {
	if clock == nil {
		clock = time.Now
	}

	transactionPath := constants.PaymentsPath + "/{transactionId}"

	return []Rule{
		{
			Name: "insufficient-funds",
			Match: Matcher{
				Method: http.MethodPost,
				Path:   constants.PaymentsPath,
				Body: map[string]any{
					"cardNumber": InsufficientFundsCard,
				},
			},
			Respond: JSON(http.StatusPaymentRequired, &payments.ErrorResponse{Error: "Insufficient funds"}),
		},
		{
			Name: "invalid-card",
			Match: Matcher{
				Method:    http.MethodPost,
				Path:      constants.PaymentsPath,
				Predicate: invalidCard,
			},
			Respond: JSON(http.StatusBadRequest, &payments.ErrorResponse{Error: "Invalid card details"}),
		},
		{
			Name: "approve-payment",
			Match: Matcher{
				Method: http.MethodPost,
				Path:   constants.PaymentsPath,
			},
			Respond: func(r *Request) (*Response, error) {
				var request payments.PaymentRequest

				if err := r.DecodeJSON(&request); err != nil {
					return nil, err
				}

				return transaction(clock, newTransactionID(), request.Amount, request.Currency)
			},
		},
		{
			Name: "transaction-not-found",
			Match: Matcher{
				Method: http.MethodGet,
				Path:   constants.PaymentsPath + "/" + MissingTransactionID,
			},
			Respond: JSON(http.StatusNotFound, &payments.ErrorResponse{Error: "Transaction not found"}),
		},
		{
			Name: "get-transaction",
			Match: Matcher{
				Method: http.MethodGet,
				Path:   transactionPath,
			},
			Respond: func(r *Request) (*Response, error) {
				return transaction(clock, r.PathParams["transactionId"], CannedAmount, CannedCurrency)
			},
		},
	}
}
