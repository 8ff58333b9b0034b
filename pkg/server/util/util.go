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

package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/unikorn-cloud/sandbox/pkg/log"
)

// ErrRequest is returned when a request body cannot be decoded.
var ErrRequest = errors.New("request error")

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// WriteJSONResponse writes a JSON body with the given status code.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, code int, response any) {
	body, err := json.Marshal(response)
	if err != nil {
		log.FromContext(r.Context()).Error(err, "unable to marshal response body")
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		log.FromContext(r.Context()).Error(err, "unable to write response body")
	}
}

// ReadJSONBody decodes a request body into the given type, rejecting
// unknown fields and trailing garbage.
func ReadJSONBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: unable to decode request body: %w", ErrRequest, err)
	}

	if decoder.More() {
		return fmt.Errorf("%w: request body contains trailing data", ErrRequest)
	}

	return nil
}
