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

//nolint:revive
package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/unikorn-cloud/sandbox/pkg/auth"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/pkg/server/handler/users"
	"github.com/unikorn-cloud/sandbox/pkg/server/util"
	"github.com/unikorn-cloud/sandbox/pkg/store"
)

type Handler struct {
	// store persists users.
	store store.Store

	// issuer signs and verifies access tokens.
	issuer *auth.Issuer

	// schema is the served OpenAPI document.
	schema *openapi3.T
}

var _ openapi.ServerInterface = &Handler{}

func New(store store.Store, issuer *auth.Issuer, schema *openapi3.T) (*Handler, error) {
	h := &Handler{
		store:  store,
		issuer: issuer,
		schema: schema,
	}

	return h, nil
}

func (h *Handler) setUncacheable(w http.ResponseWriter) {
	w.Header().Add("Cache-Control", "no-cache")
}

func (h *Handler) usersClient() *users.Client {
	return users.NewClient(h.store, h.issuer)
}

func (h *Handler) GetApiHealth(w http.ResponseWriter, r *http.Request) {
	h.setUncacheable(w)
	util.WriteJSONResponse(w, r, http.StatusOK, &openapi.Health{Status: "ok"})
}

func (h *Handler) GetApiOpenapiJson(w http.ResponseWriter, r *http.Request) {
	util.WriteJSONResponse(w, r, http.StatusOK, h.schema)
}

func (h *Handler) GetApiUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.usersClient().List(r.Context())
	if err != nil {
		errors.HandleError(w, r, err)
		return
	}

	h.setUncacheable(w)
	util.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *Handler) PostApiUsers(w http.ResponseWriter, r *http.Request) {
	request := &openapi.UserCreate{}

	if err := util.ReadJSONBody(r, request); err != nil {
		errors.HandleError(w, r, errors.OAuth2InvalidRequest("invalid request body").WithError(err))
		return
	}

	result, err := h.usersClient().Create(r.Context(), request)
	if err != nil {
		errors.HandleError(w, r, err)
		return
	}

	h.setUncacheable(w)
	util.WriteJSONResponse(w, r, http.StatusCreated, result)
}

func (h *Handler) PostApiUsersLogin(w http.ResponseWriter, r *http.Request) {
	request := &openapi.LoginRequest{}

	if err := util.ReadJSONBody(r, request); err != nil {
		errors.HandleError(w, r, errors.OAuth2InvalidRequest("invalid request body").WithError(err))
		return
	}

	result, err := h.usersClient().Login(r.Context(), request)
	if err != nil {
		errors.HandleError(w, r, err)
		return
	}

	h.setUncacheable(w)
	util.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *Handler) GetApiUsersId(w http.ResponseWriter, r *http.Request, id openapi.UserIDParameter) {
	result, err := h.usersClient().Get(r.Context(), id)
	if err != nil {
		errors.HandleError(w, r, err)
		return
	}

	h.setUncacheable(w)
	util.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *Handler) PutApiUsersId(w http.ResponseWriter, r *http.Request, id openapi.UserIDParameter) {
	request := &openapi.UserUpdate{}

	if err := util.ReadJSONBody(r, request); err != nil {
		errors.HandleError(w, r, errors.OAuth2InvalidRequest("invalid request body").WithError(err))
		return
	}

	result, err := h.usersClient().Update(r.Context(), id, request)
	if err != nil {
		errors.HandleError(w, r, err)
		return
	}

	h.setUncacheable(w)
	util.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *Handler) DeleteApiUsersId(w http.ResponseWriter, r *http.Request, id openapi.UserIDParameter) {
	if err := h.usersClient().Delete(r.Context(), id); err != nil {
		errors.HandleError(w, r, err)
		return
	}

	h.setUncacheable(w)
	w.WriteHeader(http.StatusNoContent)
}
