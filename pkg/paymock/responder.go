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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unikorn-cloud/sandbox/pkg/log"
)

const (
	// UnmatchedRule labels requests that fell through every rule.
	UnmatchedRule = "unmatched"

	// defaultJournalSize bounds the request journal.
	defaultJournalSize = 1000

	// maxBodySize bounds inbound request bodies.
	maxBodySize = 1 << 20
)

// ErrNoResponse is raised when a template returns neither a response nor an error.
var ErrNoResponse = errors.New("template returned no response")

// JournalEntry is a recorded request.
type JournalEntry struct {
	Time    time.Time
	Request Request
	// Rule is the name of the matched rule, UnmatchedRule if nothing matched.
	Rule   string
	Status int
}

// Responder serves requests from an ordered rule list.
type Responder struct {
	lock  sync.RWMutex
	rules []*compiledRule

	journalLock sync.Mutex
	journal     []JournalEntry
	journalSize int

	registry *prometheus.Registry
	requests *prometheus.CounterVec

	now func() time.Time
}

// Option configures a responder.
type Option func(*Responder)

// WithJournalSize sets the number of requests retained, oldest are dropped
// first.
func WithJournalSize(size int) Option {
	return func(r *Responder) {
		r.journalSize = size
	}
}

// WithClock overrides the journal time source.
func WithClock(now func() time.Time) Option {
	return func(r *Responder) {
		r.now = now
	}
}

// New creates a responder with no rules.
func New(options ...Option) *Responder {
	registry := prometheus.NewRegistry()

	r := &Responder{
		journalSize: defaultJournalSize,
		registry:    registry,
		requests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "paymock_requests_total",
			Help: "Requests handled, by matched rule.",
		}, []string{"rule"}),
		now: time.Now,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Register appends rules.  Either all rules are added or none are.
func (r *Responder) Register(rules ...Rule) error {
	compiled := make([]*compiledRule, len(rules))

	for i := range rules {
		c, err := compile(rules[i])
		if err != nil {
			return err
		}

		compiled[i] = c
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.rules = append(r.rules, compiled...)

	return nil
}

// Rules returns rule names in evaluation order.
func (r *Responder) Rules() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, len(r.rules))

	for i, rule := range r.rules {
		names[i] = rule.Name
	}

	return names
}

func (r *Responder) find(req *Request) *compiledRule {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, rule := range r.rules {
		if rule.match(req) {
			return rule
		}
	}

	req.PathParams = nil

	return nil
}

func errorResponse(status int, message string) *Response {
	body, _ := json.Marshal(map[string]string{"error": message})

	return JSONResponse(status, body)
}

// Handle generates a response for the request.
func (r *Responder) Handle(ctx context.Context, req *Request) *Response {
	response, _ := r.handle(ctx, req)

	return response
}

func (r *Responder) handle(ctx context.Context, req *Request) (*Response, string) {
	log := log.FromContext(ctx)

	rule := r.find(req)
	if rule == nil {
		log.V(1).Info("no rule matched", "method", req.Method, "path", req.Path)

		r.requests.WithLabelValues(UnmatchedRule).Inc()

		return errorResponse(http.StatusNotFound, "No matching rule"), UnmatchedRule
	}

	r.requests.WithLabelValues(rule.Name).Inc()

	if rule.Delay > 0 {
		timer := time.NewTimer(rule.Delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return errorResponse(http.StatusServiceUnavailable, "Request cancelled"), rule.Name
		}
	}

	response, err := rule.Respond(req)
	if err == nil && response == nil {
		err = fmt.Errorf("%w: rule %s", ErrNoResponse, rule.Name)
	}

	if err != nil {
		log.Error(err, "response template failed", "rule", rule.Name)

		return errorResponse(http.StatusInternalServerError, "Response template failed"), rule.Name
	}

	if response.Status == 0 {
		response.Status = http.StatusOK
	}

	return response, rule.Name
}

func (r *Responder) record(req *Request, rule string, status int) {
	r.journalLock.Lock()
	defer r.journalLock.Unlock()

	if r.journalSize <= 0 {
		return
	}

	if len(r.journal) >= r.journalSize {
		r.journal = slices.Delete(r.journal, 0, len(r.journal)-r.journalSize+1)
	}

	r.journal = append(r.journal, JournalEntry{
		Time:    r.now(),
		Request: *req,
		Rule:    rule,
		Status:  status,
	})
}

// Requests returns the journal, oldest first.
func (r *Responder) Requests() []JournalEntry {
	r.journalLock.Lock()
	defer r.journalLock.Unlock()

	return slices.Clone(r.journal)
}

// ResetJournal forgets all recorded requests.
func (r *Responder) ResetJournal() {
	r.journalLock.Lock()
	defer r.journalLock.Unlock()

	r.journal = nil
}

// MetricsHandler exposes the responder's metrics.
func (r *Responder) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler.
func (r *Responder) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, hr.Body, maxBodySize))
	if err != nil {
		log.FromContext(ctx).Error(err, "unable to read request body")

		status, message := http.StatusBadRequest, "Unreadable request body"

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status, message = http.StatusRequestEntityTooLarge, "Request body too large"
		}

		req := &Request{
			Method: hr.Method,
			Path:   hr.URL.Path,
			Header: hr.Header.Clone(),
		}

		r.record(req, UnmatchedRule, status)

		writeResponse(ctx, w, errorResponse(status, message))

		return
	}

	req := &Request{
		Method: hr.Method,
		Path:   hr.URL.Path,
		Header: hr.Header.Clone(),
		Body:   body,
	}

	response, rule := r.handle(ctx, req)

	r.record(req, rule, response.Status)

	writeResponse(ctx, w, response)
}

func writeResponse(ctx context.Context, w http.ResponseWriter, response *Response) {
	for key, values := range response.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	w.WriteHeader(response.Status)

	if _, err := io.Copy(w, bytes.NewReader(response.Body)); err != nil {
		log.FromContext(ctx).Error(err, "unable to write response body")
	}
}

