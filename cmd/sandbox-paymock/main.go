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
	"github.com/unikorn-cloud/sandbox/pkg/paymock"
	"github.com/unikorn-cloud/sandbox/pkg/server"
)

type options struct {
	http        server.HTTPOptions
	log         log.Options
	journalSize int
}

func (o *options) AddFlags(f *pflag.FlagSet) {
	o.http.AddFlags(f, ":8081")
	o.log.AddFlags(f)

	f.IntVar(&o.journalSize, "journal-size", 1000, "Number of requests retained for inspection via the admin API.")
}

func run(ctx context.Context, o *options) error {
	logger, err := o.log.Setup()
	if err != nil {
		return err
	}

	logger.WithName("init").Info("service starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision)

	ctx = log.IntoContext(ctx, logger)

	responder := paymock.New(paymock.WithJournalSize(o.journalSize))

	if err := responder.Register(paymock.PaymentRules(nil)...); err != nil {
		return err
	}

	logger.Info("rules registered", "rules", responder.Rules())

	return server.Serve(ctx, &o.http, paymock.NewRouter(logger, responder))
}

func main() {
	var o options

	o.AddFlags(pflag.CommandLine)

	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &o); err != nil {
		fmt.Println(err)
		os.Exit(1) //nolint:gocritic
	}
}
