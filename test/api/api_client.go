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

//nolint:err113,revive // dynamic errors and naming conventions acceptable in test code
package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"

	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/paymock"
	"github.com/unikorn-cloud/sandbox/pkg/payments"
)

// Exchange is a completed request and its response.
type Exchange struct {
	Request     *http.Request
	RequestBody []byte
	StatusCode  int
	Header      http.Header
	Body        []byte
	TraceParent string
}

// DecodeJSON unmarshals the response body.
func (e *Exchange) DecodeJSON(v any) error {
	if err := json.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("unmarshaling response (trace ID: %s): %w", extractTraceID(e.TraceParent), err)
	}

	return nil
}

// Observer is called with every completed exchange.
type Observer func(*Exchange)

type APIClient struct {
	baseURL   string
	client    *http.Client
	authToken string
	config    *TestConfig
	endpoints *Endpoints
	observers []Observer
}

// NewAPIClient returns a client for the users API.
func NewAPIClient(config *TestConfig) *APIClient {
	return NewAPIClientWithURL(config, config.BaseURL)
}

// NewPaymentsAPIClient returns a raw client for the payment provider.
func NewPaymentsAPIClient(config *TestConfig) *APIClient {
	return NewAPIClientWithURL(config, config.PaymentsBaseURL)
}

// NewAPIClientWithURL returns a client for an arbitrary base URL.
func NewAPIClientWithURL(config *TestConfig, baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		authToken: config.AuthToken,
		config:    config,
		endpoints: NewEndpoints(),
	}
}

// NewPaymentsClient returns the production payment client pointed at the
// configured provider.
func NewPaymentsClient(config *TestConfig) *payments.Client {
	return payments.NewClient(config.PaymentsBaseURL, &http.Client{
		Timeout: config.RequestTimeout,
	})
}

func (c *APIClient) SetAuthToken(token string) {
	c.authToken = token
}

// Observe registers a callback for every exchange.
func (c *APIClient) Observe(observer Observer) {
	c.observers = append(c.observers, observer)
}

// logError logs a generic error with trace context.
func (c *APIClient) logError(method, path string, duration time.Duration, traceParent string, err error, context string) {
	ginkgo.GinkgoWriter.Printf("[%s %s] ERROR %s duration=%s traceparent=%s error=%v\n", method, path, context, duration, traceParent, err)
	c.logTraceContext(traceParent)
}

// logUnexpectedStatus logs an unexpected HTTP status code.
func (c *APIClient) logUnexpectedStatus(method, path string, expectedStatus, actualStatus int, body, traceParent string) {
	ginkgo.GinkgoWriter.Printf("[%s %s] UNEXPECTED STATUS expected=%d got=%d body=%s traceparent=%s\n", method, path, expectedStatus, actualStatus, body, traceParent)
	c.logTraceContext(traceParent)
}

// logTraceContext logs the trace context information.
func (c *APIClient) logTraceContext(traceParent string) {
	ginkgo.GinkgoWriter.Printf("TRACE CONTEXT: Use trace ID '%s' to search logs for this request\n", extractTraceID(traceParent))
}

// generateTraceID creates a new W3C trace ID.
// A new one is generated per request so a failure can be found in the server logs.
func generateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// generateSpanID creates a new W3C span ID.
func generateSpanID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// createTraceParent creates a W3C traceparent header value.
func createTraceParent() string {
	traceID := generateTraceID()
	spanID := generateSpanID()

	return fmt.Sprintf("00-%s-%s-01", traceID, spanID)
}

// extractTraceID extracts the trace ID from a traceparent header value.
func extractTraceID(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) >= 2 {
		return parts[1]
	}

	return traceParent
}

// Do performs a request.  A non-zero expected status is enforced, otherwise
// the caller checks the status code.  A nil body sends no body, anything
// else that is not already []byte is marshaled as JSON.
func (c *APIClient) Do(ctx context.Context, method, path string, body any, expectedStatus int) (*Exchange, error) {
	var requestBody []byte

	switch t := body.(type) {
	case nil:
	case []byte:
		requestBody = t
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		requestBody = data
	}

	var reader io.Reader

	if requestBody != nil {
		reader = bytes.NewReader(requestBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Add W3C Trace Context headers
	traceParent := createTraceParent()
	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("Tracestate", "test-automation=ginkgo")

	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logError(method, path, duration, traceParent, err, "http request failed")
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(method, path, duration, traceParent, err, "reading response body")
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.config.LogRequests {
		ginkgo.GinkgoWriter.Printf("[%s %s] status=%d duration=%s traceparent=%s\n", method, path, resp.StatusCode, duration, traceParent)
	}

	if c.config.LogResponses && len(respBody) > 0 {
		ginkgo.GinkgoWriter.Printf("[%s %s] response body: %s\n", method, path, string(respBody))
	}

	exchange := &Exchange{
		Request:     req,
		RequestBody: requestBody,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        respBody,
		TraceParent: traceParent,
	}

	for _, observer := range c.observers {
		observer(exchange)
	}

	if expectedStatus > 0 && resp.StatusCode != expectedStatus {
		c.logUnexpectedStatus(method, path, expectedStatus, resp.StatusCode, string(respBody), traceParent)
		return exchange, fmt.Errorf("unexpected status code: expected %d, got %d, body: %s (trace ID: %s)", expectedStatus, resp.StatusCode, string(respBody), extractTraceID(traceParent))
	}

	return exchange, nil
}

// doJSON performs a request and decodes a successful response.
func doJSON[T any](ctx context.Context, c *APIClient, method, path string, body any, expectedStatus int) (*T, error) {
	exchange, err := c.Do(ctx, method, path, body, expectedStatus)
	if err != nil {
		return nil, err
	}

	var result T

	if err := exchange.DecodeJSON(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *APIClient) Health(ctx context.Context) (*openapi.Health, error) {
	return doJSON[openapi.Health](ctx, c, http.MethodGet, c.endpoints.Health(), nil, http.StatusOK)
}

// Schema returns the raw OpenAPI document served by the API.
func (c *APIClient) Schema(ctx context.Context) ([]byte, error) {
	exchange, err := c.Do(ctx, http.MethodGet, c.endpoints.Schema(), nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("getting schema: %w", err)
	}

	return exchange.Body, nil
}

// CreateUser creates a new user.
func (c *APIClient) CreateUser(ctx context.Context, request *openapi.UserCreate) (*openapi.UserRead, error) {
	user, err := doJSON[openapi.UserRead](ctx, c, http.MethodPost, c.endpoints.Users(), request, http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (c *APIClient) GetUser(ctx context.Context, id int64) (*openapi.UserRead, error) {
	user, err := doJSON[openapi.UserRead](ctx, c, http.MethodGet, c.endpoints.User(id), nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return user, nil
}

func (c *APIClient) ListUsers(ctx context.Context) (openapi.Users, error) {
	users, err := doJSON[openapi.Users](ctx, c, http.MethodGet, c.endpoints.Users(), nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return *users, nil
}

func (c *APIClient) UpdateUser(ctx context.Context, id int64, request *openapi.UserUpdate) (*openapi.UserRead, error) {
	user, err := doJSON[openapi.UserRead](ctx, c, http.MethodPut, c.endpoints.User(id), request, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return user, nil
}

func (c *APIClient) DeleteUser(ctx context.Context, id int64) error {
	if _, err := c.Do(ctx, http.MethodDelete, c.endpoints.User(id), nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return nil
}

// Login exchanges credentials for a token.  It does not change the client's
// own token.
func (c *APIClient) Login(ctx context.Context, name, password string) (*openapi.Token, error) {
	request := &openapi.LoginRequest{
		Name:     name,
		Password: password,
	}

	token, err := doJSON[openapi.Token](ctx, c, http.MethodPost, c.endpoints.Login(), request, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	return token, nil
}

// ResetRequests clears the payment provider's request journal.
func (c *APIClient) ResetRequests(ctx context.Context) error {
	if _, err := c.Do(ctx, http.MethodDelete, c.endpoints.AdminRequests(), nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("resetting request journal: %w", err)
	}

	return nil
}

// Requests returns the payment provider's request journal.
func (c *APIClient) Requests(ctx context.Context) (*paymock.LoggedRequests, error) {
	requests, err := doJSON[paymock.LoggedRequests](ctx, c, http.MethodGet, c.endpoints.AdminRequests(), nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("listing journal: %w", err)
	}

	return requests, nil
}

// Mappings returns the payment provider's rules.
func (c *APIClient) Mappings(ctx context.Context) (*paymock.Mappings, error) {
	mappings, err := doJSON[paymock.Mappings](ctx, c, http.MethodGet, c.endpoints.AdminMappings(), nil, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	return mappings, nil
}
