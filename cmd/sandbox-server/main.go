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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/sandbox/pkg/constants"
	"github.com/unikorn-cloud/sandbox/pkg/log"
	"github.com/unikorn-cloud/sandbox/pkg/server"
)

func run(ctx context.Context, s *server.Server) error {
	logger, err := s.SetupLogging()
	if err != nil {
		return err
	}

	logger.WithName("init").Info("service starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision)

	ctx = log.IntoContext(ctx, logger)

	issuer, err := s.NewIssuer()
	if err != nil {
		return err
	}

	store, closeStore, err := s.NewStore(ctx)
	if err != nil {
		return err
	}

	defer closeStore()

	router, err := server.NewRouter(logger, store, issuer)
	if err != nil {
		return err
	}

	return server.Serve(ctx, &s.HTTPOptions, router)
}

func main() {
	var s server.Server

	s.AddFlags(pflag.CommandLine)

	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &s); err != nil {
		fmt.Println(err)
		os.Exit(1) //nolint:gocritic
	}
}
