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

/*
Package paymock implements a programmable HTTP responder that stands in for a
third party payment provider in tests.

A Responder holds an ordered list of rules.  Each rule pairs a Matcher with a
Template.  Requests are tried against each rule in the order they were
registered and the first match generates the response, so more specific rules
must be registered before general ones.  Requests that match nothing get a 404.

Every request is recorded in a journal that tests, or the admin API, can
inspect after the fact.
*/
package paymock
