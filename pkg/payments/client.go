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

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
)

var (
	// ErrInvalidCard is returned when the provider rejects card details.
	ErrInvalidCard = errors.New("invalid card details")

	// ErrInsufficientFunds is returned when the payment is declined.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransactionNotFound is returned when a transaction lookup fails.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrUnexpectedStatus is returned for any other failure status.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// APIError is a failed provider call.
type APIError struct {
	// StatusCode is the HTTP status returned.
	StatusCode int
	// Message is the provider's error message, or the raw body.
	Message string

	err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// Client talks to a payment provider.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a client for the provider at baseURL.  A nil HTTP client
// gets a default with a 30s timeout.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (c *Client) do(ctx context.Context, method, path string, request any) (int, []byte, error) {
	var body io.Reader

	if request != nil {
		data, err := json.Marshal(request)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// newAPIError builds an error from a failure response, mapping known status
// codes on to sentinel errors.
func newAPIError(status int, body []byte, known map[int]error) *APIError {
	message := strings.TrimSpace(string(body))

	var errorResponse ErrorResponse

	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error != "" {
		message = errorResponse.Error
	}

	err, ok := known[status]
	if !ok {
		err = ErrUnexpectedStatus
	}

	return &APIError{
		StatusCode: status,
		Message:    message,
		err:        err,
	}
}

// CreatePayment takes a payment.
func (c *Client) CreatePayment(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	status, body, err := c.do(ctx, http.MethodPost, constants.PaymentsPath, request)
	if err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	if status != http.StatusOK {
		return nil, newAPIError(status, body, map[int]error{
			http.StatusBadRequest:      ErrInvalidCard,
			http.StatusPaymentRequired: ErrInsufficientFunds,
		})
	}

	var response PaymentResponse

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("unmarshaling payment response: %w", err)
	}

	return &response, nil
}

// GetTransaction looks up a transaction by ID.
func (c *Client) GetTransaction(ctx context.Context, id string) (*TransactionResponse, error) {
	status, body, err := c.do(ctx, http.MethodGet, constants.PaymentsPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	if status != http.StatusOK {
		return nil, newAPIError(status, body, map[int]error{
			http.StatusNotFound: ErrTransactionNotFound,
		})
	}

	var response TransactionResponse

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("unmarshaling transaction response: %w", err)
	}

	return &response, nil
}
