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

package errors

import (
	"errors"
	"net/http"

	"github.com/unikorn-cloud/sandbox/pkg/log"
	"github.com/unikorn-cloud/sandbox/pkg/server/util"
)

// ErrorCode is the machine readable error identifier returned to clients.
type ErrorCode string

const (
	ErrorInvalidRequest ErrorCode = "invalid_request"
	ErrorAccessDenied   ErrorCode = "access_denied"
	ErrorNotFound       ErrorCode = "not_found"
	ErrorConflict       ErrorCode = "conflict"
	ErrorServerError    ErrorCode = "server_error"
)

// Body is the JSON error payload.
type Body struct {
	Error       ErrorCode `json:"error"`
	Description string    `json:"error_description"`
}

// Error is an HTTP aware error.
type Error struct {
	// status is the HTTP status code.
	status int
	// code is returned to the client.
	code ErrorCode
	// description is a human readable explanation.
	description string
	// err is the underlying cause, logged but never returned to the client.
	err error
}

func newError(status int, code ErrorCode, description string) *Error {
	return &Error{
		status:      status,
		code:        code,
		description: description,
	}
}

// WithError attaches an underlying cause.
func (e *Error) WithError(err error) *Error {
	e.err = err

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.description + ": " + e.err.Error()
	}

	return e.description
}

// Unwrap allows errors.Is and errors.As to see the cause.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode returns the HTTP status code.
func (e *Error) StatusCode() int {
	return e.status
}

// Code returns the client visible error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

func OAuth2InvalidRequest(description string) *Error {
	return newError(http.StatusBadRequest, ErrorInvalidRequest, description)
}

// OAuth2AccessDenied is returned when credentials are missing or wrong.
func OAuth2AccessDenied(description string) *Error {
	return newError(http.StatusUnauthorized, ErrorAccessDenied, description)
}

func HTTPNotFound() *Error {
	return newError(http.StatusNotFound, ErrorNotFound, "resource not found")
}

func HTTPConflict() *Error {
	return newError(http.StatusConflict, ErrorConflict, "resource already exists")
}

func OAuth2ServerError(description string) *Error {
	return newError(http.StatusInternalServerError, ErrorServerError, description)
}

// HandleError renders an error as a JSON response. Anything that is not an
// *Error is treated as an unhandled server error.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := log.FromContext(r.Context())

	var httpErr *Error

	if !errors.As(err, &httpErr) {
		log.Error(err, "unhandled error")

		httpErr = OAuth2ServerError("unhandled error").WithError(err)
	}

	if httpErr.status >= http.StatusInternalServerError {
		log.Error(httpErr, "server error", "status", httpErr.status)
	} else {
		log.V(1).Info("request error", "status", httpErr.status, "error", httpErr.Error())
	}

	if httpErr.status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="sandbox"`)
	}

	util.WriteJSONResponse(w, r, httpErr.status, &Body{
		Error:       httpErr.code,
		Description: httpErr.description,
	})
}
