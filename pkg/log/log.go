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

// Package log carries a logr.Logger, backed by zap, through request contexts.
package log

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals
var root = logr.Discard()

// Options defines logging behaviour on the CLI.
type Options struct {
	// Level is the minimum zap level that is emitted.
	Level string
	// Development selects the human readable console encoder.
	Development bool
}

// AddFlags registers logging flags.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.Level, "log-level", "info", "Minimum log level, one of debug, info, warn or error.")
	f.BoolVar(&o.Development, "log-development", false, "Use the development console logger.")
}

// Setup builds the root logger and installs it as the package default.
func (o *Options) Setup() (logr.Logger, error) {
	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return logr.Discard(), fmt.Errorf("parsing log level: %w", err)
	}

	config := zap.NewProductionConfig()
	if o.Development {
		config = zap.NewDevelopmentConfig()
	}

	config.Level = zap.NewAtomicLevelAt(level)

	z, err := config.Build()
	if err != nil {
		return logr.Discard(), fmt.Errorf("building logger: %w", err)
	}

	root = zapr.NewLogger(z)

	return root, nil
}

// Log returns the process wide logger.
func Log() logr.Logger {
	return root
}

// IntoContext attaches a logger to the context.
func IntoContext(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// FromContext returns the request scoped logger, falling back to the root logger.
func FromContext(ctx context.Context, keysAndValues ...any) logr.Logger {
	logger, err := logr.FromContext(ctx)
	if err != nil {
		logger = root
	}

	return logger.WithValues(keysAndValues...)
}
