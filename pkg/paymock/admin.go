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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/pkg/server/middleware/logging"
	"github.com/unikorn-cloud/sandbox/pkg/server/util"
)

// Mapping describes a registered rule.
type Mapping struct {
	Name      string        `json:"name"`
	Method    string        `json:"method,omitempty"`
	Path      string        `json:"path,omitempty"`
	Body      any           `json:"body,omitempty"`
	Predicate bool          `json:"predicate,omitempty"`
	Delay     time.Duration `json:"delay,omitempty"`
}

// Mappings is the admin view of the rule table.
type Mappings struct {
	Mappings []Mapping `json:"mappings"`
}

// LoggedRequest is the admin view of a journal entry.
type LoggedRequest struct {
	Time       time.Time         `json:"time"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Header     http.Header       `json:"header,omitempty"`
	Body       string            `json:"body,omitempty"`
	PathParams map[string]string `json:"pathParams,omitempty"`
	Rule       string            `json:"rule"`
	Status     int               `json:"status"`
}

// LoggedRequests is the admin view of the journal.
type LoggedRequests struct {
	Requests []LoggedRequest `json:"requests"`
}

// Mappings returns the rule table in evaluation order.
func (r *Responder) Mappings() *Mappings {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := &Mappings{
		Mappings: make([]Mapping, len(r.rules)),
	}

	for i, rule := range r.rules {
		out.Mappings[i] = Mapping{
			Name:      rule.Name,
			Method:    rule.Match.Method,
			Path:      rule.Match.Path,
			Body:      rule.body,
			Predicate: rule.Match.Predicate != nil,
			Delay:     rule.Delay,
		}
	}

	return out
}

func loggedRequests(entries []JournalEntry) *LoggedRequests {
	out := &LoggedRequests{
		Requests: make([]LoggedRequest, len(entries)),
	}

	for i := range entries {
		entry := &entries[i]

		out.Requests[i] = LoggedRequest{
			Time:       entry.Time.UTC(),
			Method:     entry.Request.Method,
			Path:       entry.Request.Path,
			Header:     entry.Request.Header,
			Body:       string(entry.Request.Body),
			PathParams: entry.Request.PathParams,
			Rule:       entry.Rule,
			Status:     entry.Status,
		}
	}

	return out
}

// AdminRoutes mounts the admin API on a router.
func (r *Responder) AdminRoutes(router chi.Router) {
	router.Get("/mappings", func(w http.ResponseWriter, hr *http.Request) {
		util.WriteJSONResponse(w, hr, http.StatusOK, r.Mappings())
	})

	router.Get("/requests", func(w http.ResponseWriter, hr *http.Request) {
		util.WriteJSONResponse(w, hr, http.StatusOK, loggedRequests(r.Requests()))
	})

	router.Delete("/requests", func(w http.ResponseWriter, hr *http.Request) {
		r.ResetJournal()

		w.WriteHeader(http.StatusNoContent)
	})

	router.NotFound(func(w http.ResponseWriter, hr *http.Request) {
		errors.HandleError(w, hr, errors.HTTPNotFound())
	})
}

// NewRouter serves the responder with its admin API and metrics alongside.
func NewRouter(logger logr.Logger, responder *Responder) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logging.Middleware(logger))
	router.Use(middleware.Recoverer)

	router.Route(constants.AdminPathPrefix, responder.AdminRoutes)
	router.Method(http.MethodGet, "/metrics", responder.MetricsHandler())

	router.NotFound(responder.ServeHTTP)
	router.MethodNotAllowed(responder.ServeHTTP)

	return router
}
