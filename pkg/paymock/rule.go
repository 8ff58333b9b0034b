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
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"
)

var (
	// ErrRule is returned when a rule cannot be registered.
	ErrRule = errors.New("invalid rule")
)

// Request is an inbound request as seen by matchers and templates.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	// PathParams holds wildcards captured by the matching rule's path.
	PathParams map[string]string
}

// DecodeJSON unmarshals the request body.
func (r *Request) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Response is what a rule generates.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Template generates a response for a matched request.
type Template func(*Request) (*Response, error)

// Static returns the same body every time.
func Static(status int, body []byte) Template {
	return func(*Request) (*Response, error) {
		return &Response{
			Status: status,
			Body:   body,
		}, nil
	}
}

// JSON returns the same JSON document every time.  Marshaling errors are
// reported when the rule fires.
func JSON(status int, v any) Template {
	body, err := json.Marshal(v)

	return func(*Request) (*Response, error) {
		if err != nil {
			return nil, err
		}

		return JSONResponse(status, body), nil
	}
}

// JSONResponse wraps an encoded body with a JSON content type.
func JSONResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Header: http.Header{
			"Content-Type": []string{"application/json"},
		},
		Body: body,
	}
}

// Matcher selects requests.  Zero valued fields match anything.
type Matcher struct {
	// Method is compared case insensitively.
	Method string

	// Path is a slash separated pattern, a segment of the form {name} matches
	// any single non-empty segment and captures it.
	Path string

	// Body is a partial JSON document.  Every key it contains must be present
	// in the request body with an equal value.  Objects are compared
	// recursively, anything else must be equal.
	Body any

	// Predicate is an arbitrary extra condition evaluated last.
	Predicate func(*Request) bool
}

// Rule is a named matcher and response template.
type Rule struct {
	Name    string
	Match   Matcher
	Respond Template

	// Delay is applied before responding.
	Delay time.Duration
}

// compiledRule is a validated rule with its pattern pre-parsed.
type compiledRule struct {
	Rule

	segments []string
	body     any
}

func compile(rule Rule) (*compiledRule, error) {
	if rule.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrRule)
	}

	if rule.Respond == nil {
		return nil, fmt.Errorf("%w: rule %s has no response template", ErrRule, rule.Name)
	}

	c := &compiledRule{
		Rule: rule,
	}

	if rule.Match.Path != "" {
		c.segments = splitPath(rule.Match.Path)

		for _, segment := range c.segments {
			if strings.HasPrefix(segment, "{") != strings.HasSuffix(segment, "}") || segment == "{}" {
				return nil, fmt.Errorf("%w: rule %s has malformed path segment %q", ErrRule, rule.Name, segment)
			}
		}
	}

	if rule.Match.Body != nil {
		// Normalize through JSON so typed values compare against decoded ones.
		data, err := json.Marshal(rule.Match.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s body: %w", ErrRule, rule.Name, err)
		}

		if err := json.Unmarshal(data, &c.body); err != nil {
			return nil, fmt.Errorf("%w: rule %s body: %w", ErrRule, rule.Name, err)
		}
	}

	return c, nil
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// matchPath returns captured parameters if the path matches.
func (c *compiledRule) matchPath(path string) (map[string]string, bool) {
	if c.segments == nil {
		return nil, true
	}

	segments := splitPath(path)

	if len(segments) != len(c.segments) {
		return nil, false
	}

	var params map[string]string

	for i, pattern := range c.segments {
		if name, ok := strings.CutPrefix(pattern, "{"); ok {
			if segments[i] == "" {
				return nil, false
			}

			if params == nil {
				params = map[string]string{}
			}

			params[strings.TrimSuffix(name, "}")] = segments[i]

			continue
		}

		if pattern != segments[i] {
			return nil, false
		}
	}

	return params, true
}

func (c *compiledRule) matchBody(r *Request) bool {
	if c.body == nil {
		return true
	}

	var body any

	if err := json.Unmarshal(r.Body, &body); err != nil {
		return false
	}

	return subset(c.body, body)
}

// subset reports whether want is contained in got.
func subset(want, got any) bool {
	wantObject, ok := want.(map[string]any)
	if !ok {
		return reflect.DeepEqual(want, got)
	}

	gotObject, ok := got.(map[string]any)
	if !ok {
		return false
	}

	for key, value := range wantObject {
		v, ok := gotObject[key]
		if !ok || !subset(value, v) {
			return false
		}
	}

	return true
}

// match checks the request, filling in path parameters on success.
func (c *compiledRule) match(r *Request) bool {
	if c.Match.Method != "" && !strings.EqualFold(c.Match.Method, r.Method) {
		return false
	}

	params, ok := c.matchPath(r.Path)
	if !ok {
		return false
	}

	r.PathParams = params

	if !c.matchBody(r) {
		return false
	}

	if c.Match.Predicate != nil && !c.Match.Predicate(r) {
		return false
	}

	return true
}
