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

package api

import (
	"net/url"
	"strconv"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
)

// Endpoints contains all API endpoint patterns.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Service endpoints.
func (e *Endpoints) Health() string {
	return "/api/health"
}

func (e *Endpoints) Schema() string {
	return "/api/openapi.json"
}

// User management endpoints.
func (e *Endpoints) Users() string {
	return "/api/Users"
}

func (e *Endpoints) User(id int64) string {
	return "/api/Users/" + strconv.FormatInt(id, 10)
}

func (e *Endpoints) Login() string {
	return "/api/Users/login"
}

// Payment provider endpoints.
func (e *Endpoints) Payments() string {
	return constants.PaymentsPath
}

func (e *Endpoints) Transaction(id string) string {
	return constants.PaymentsPath + "/" + url.PathEscape(id)
}

func (e *Endpoints) AdminMappings() string {
	return constants.AdminPathPrefix + "/mappings"
}

func (e *Endpoints) AdminRequests() string {
	return constants.AdminPathPrefix + "/requests"
}
