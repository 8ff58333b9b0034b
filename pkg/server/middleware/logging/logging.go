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

package logging

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/unikorn-cloud/sandbox/pkg/log"
)

// Middleware attaches a request scoped logger to the context and logs each
// completed request.
func Middleware(logger logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestLogger := logger.WithValues("requestID", middleware.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(log.IntoContext(r.Context(), requestLogger)))

			requestLogger.Info("request", "status", ww.Status(), "bytes", ww.BytesWritten(), "duration", time.Since(start).String(), "remoteAddr", r.RemoteAddr)
		})
	}
}
