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

package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/sandbox/pkg/auth"
	"github.com/unikorn-cloud/sandbox/pkg/contract"
	"github.com/unikorn-cloud/sandbox/pkg/log"
	"github.com/unikorn-cloud/sandbox/pkg/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/server/errors"
	"github.com/unikorn-cloud/sandbox/pkg/server/handler"
	"github.com/unikorn-cloud/sandbox/pkg/server/middleware/logging"
	openapimiddleware "github.com/unikorn-cloud/sandbox/pkg/server/middleware/openapi"
	"github.com/unikorn-cloud/sandbox/pkg/store"
	"github.com/unikorn-cloud/sandbox/pkg/store/memory"
	"github.com/unikorn-cloud/sandbox/pkg/store/postgres"
)

// HTTPOptions are common to every HTTP server binary.
type HTTPOptions struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (o *HTTPOptions) AddFlags(f *pflag.FlagSet, defaultListenAddress string) {
	f.StringVar(&o.ListenAddress, "listen-address", defaultListenAddress, "API listener address.")
	f.DurationVar(&o.ReadTimeout, "read-timeout", 15*time.Second, "How long to wait for the client to send the request body.")
	f.DurationVar(&o.WriteTimeout, "write-timeout", 15*time.Second, "How long to wait for the API to respond to the client.")
	f.DurationVar(&o.IdleTimeout, "idle-timeout", 60*time.Second, "How long to keep an idle keep-alive connection open.")
	f.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "How long to drain in flight requests on shutdown.")
}

// Server wraps up the users API.
type Server struct {
	// HTTPOptions are HTTP listener options.
	HTTPOptions HTTPOptions

	// AuthOptions control access token issue.
	AuthOptions auth.Options

	// LogOptions control logging.
	LogOptions log.Options

	// DatabaseURL selects the PostgreSQL store, when empty users are held in memory.
	DatabaseURL string

	// SigningKeyFile, when set, is read for the token signing key.
	SigningKeyFile string
}

func (s *Server) AddFlags(f *pflag.FlagSet) {
	s.HTTPOptions.AddFlags(f, ":8080")
	s.AuthOptions.AddFlags(f)
	s.LogOptions.AddFlags(f)

	f.StringVar(&s.DatabaseURL, "database-url", "", "PostgreSQL connection string, users are held in memory when unset.")
	f.StringVar(&s.SigningKeyFile, "jwt-signing-key-file", "", "File containing the token signing key, overrides --jwt-signing-key.")
}

// SetupLogging builds the root logger from the CLI options.
func (s *Server) SetupLogging() (logr.Logger, error) {
	return s.LogOptions.Setup()
}

// NewIssuer builds the token issuer, reading the key from file if requested.
func (s *Server) NewIssuer() (*auth.Issuer, error) {
	options := s.AuthOptions

	if s.SigningKeyFile != "" {
		key, err := os.ReadFile(s.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading signing key: %w", err)
		}

		options.SigningKey = string(key)
	}

	return auth.NewIssuer(&options)
}

// NewStore opens the configured store.  The returned function releases it.
func (s *Server) NewStore(ctx context.Context) (store.Store, func(), error) {
	if s.DatabaseURL == "" {
		return memory.New(), func() {}, nil
	}

	db, err := postgres.Open(ctx, s.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	return db, db.Close, nil
}

// handleParameterError renders path parameter binding failures.
func handleParameterError(w http.ResponseWriter, r *http.Request, err error) {
	errors.HandleError(w, r, errors.OAuth2InvalidRequest("invalid request parameter").WithError(err))
}

// NewRouter builds the users API routes.
func NewRouter(logger logr.Logger, store store.Store, issuer *auth.Issuer) (http.Handler, error) {
	schema, err := openapi.GetSwagger()
	if err != nil {
		return nil, err
	}

	// The validator takes ownership of its document, so serve a separate copy.
	validatorSchema, err := openapi.GetSwagger()
	if err != nil {
		return nil, err
	}

	validator, err := contract.FromDocument(context.Background(), validatorSchema)
	if err != nil {
		return nil, err
	}

	h, err := handler.New(store, issuer, schema)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logging.Middleware(logger))
	router.Use(middleware.Recoverer)

	router.NotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.HandleError(w, r, errors.HTTPNotFound())
	}))

	router.MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.HandleError(w, r, errors.OAuth2InvalidRequest("method not allowed"))
	}))

	return openapi.HandlerWithOptions(h, openapi.ChiServerOptions{
		BaseRouter: router,
		// Later entries wrap earlier ones: authenticate, then validate.
		Middlewares: []openapi.MiddlewareFunc{
			openapimiddleware.Validator(validator),
			openapimiddleware.Authenticator(issuer),
		},
		ErrorHandlerFunc: handleParameterError,
	}), nil
}

// Serve runs an HTTP server until the context is cancelled, then drains it.
func Serve(ctx context.Context, options *HTTPOptions, h http.Handler) error {
	log := log.FromContext(ctx)

	server := &http.Server{
		Addr:              options.ListenAddress,
		Handler:           h,
		ReadTimeout:       options.ReadTimeout,
		ReadHeaderTimeout: options.ReadTimeout,
		WriteTimeout:      options.WriteTimeout,
		IdleTimeout:       options.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("server listening", "address", options.ListenAddress)

		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !goerrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received, draining requests", "timeout", options.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), options.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	return nil
}
