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

// Package contract validates HTTP exchanges against an agreed OpenAPI
// document.  The same validator guards the server's request bodies and
// drives schema contract tests against a live deployment.
package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

var (
	// ErrRouteNotFound is returned when a request does not map to a documented operation.
	ErrRouteNotFound = errors.New("operation not found in schema")

	// ErrRequest is returned when a request violates the schema.
	ErrRequest = errors.New("request violates schema")

	// ErrResponse is returned when a response violates the schema.
	ErrResponse = errors.New("response violates schema")
)

// Validator checks requests and responses against a schema.
type Validator struct {
	doc    *openapi3.T
	router routers.Router
}

// NewValidator loads and validates a schema document in YAML or JSON.
func NewValidator(ctx context.Context, data []byte) (*Validator, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	return FromDocument(ctx, doc)
}

// FromURL loads a schema from a URL, for example a deployment's
// /api/openapi.json.
func FromURL(ctx context.Context, location string) (*Validator, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parsing schema location: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromURI(u)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	return FromDocument(ctx, doc)
}

// FromDocument builds a validator from an already loaded document.
func FromDocument(ctx context.Context, doc *openapi3.T) (*Validator, error) {
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating schema: %w", err)
	}

	// Routes are matched on path alone, deployments live on arbitrary hosts.
	doc.Servers = nil

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("building router: %w", err)
	}

	return &Validator{
		doc:    doc,
		router: router,
	}, nil
}

// Document returns the schema.
func (v *Validator) Document() *openapi3.T {
	return v.doc
}

func options() *openapi3filter.Options {
	return &openapi3filter.Options{
		AuthenticationFunc:    openapi3filter.NoopAuthenticationFunc,
		IncludeResponseStatus: true,
	}
}

// requestInput builds validation input.  The request body, if any, is
// replaced with a fresh reader over body.
func (v *Validator) requestInput(r *http.Request, body []byte) (*openapi3filter.RequestValidationInput, error) {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRouteNotFound, r.Method, r.URL.Path, err)
	}

	if body != nil {
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	return &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options:    options(),
	}, nil
}

// ValidateRequest checks a request, consuming and restoring its body.
func (v *Validator) ValidateRequest(ctx context.Context, r *http.Request) error {
	var body []byte

	if r.Body != nil && r.Body != http.NoBody {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("reading request body: %w", err)
		}

		body = b
	}

	input, err := v.requestInput(r, body)
	if err != nil {
		return err
	}

	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}

	if body != nil {
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	return nil
}

// ValidateExchange checks both sides of a completed request.
func (v *Validator) ValidateExchange(ctx context.Context, r *http.Request, requestBody []byte, status int, header http.Header, responseBody []byte) error {
	input, err := v.requestInput(r, requestBody)
	if err != nil {
		return err
	}

	if err := openapi3filter.ValidateRequest(ctx, input); err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}

	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 status,
		Header:                 header,
		Options:                options(),
	}

	responseInput.SetBodyBytes(responseBody)

	if err := openapi3filter.ValidateResponse(ctx, responseInput); err != nil {
		return fmt.Errorf("%w: %s %s %d: %w", ErrResponse, r.Method, r.URL.Path, status, err)
	}

	return nil
}
