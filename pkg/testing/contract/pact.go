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

// Package contract provides consumer contract testing helpers.
package contract

import (
	"errors"
	"fmt"

	"github.com/pact-foundation/pact-go/v2/consumer"
)

var (
	// ErrConfig is returned when pact configuration is incomplete.
	ErrConfig = errors.New("invalid pact configuration")
)

// PactConfig names the parties to a contract.
type PactConfig struct {
	// Consumer is the service making requests.
	Consumer string
	// Provider is the service being mocked.
	Provider string
	// PactDir is where pact files are written, defaults to ./pacts.
	PactDir string
	// Host is the mock provider address, defaults to 127.0.0.1.
	Host string
}

// NewV4Pact creates a V4 HTTP mock provider.
func NewV4Pact(config PactConfig) (*consumer.V4HTTPMockProvider, error) {
	if config.Consumer == "" || config.Provider == "" {
		return nil, fmt.Errorf("%w: consumer and provider are required", ErrConfig)
	}

	if config.PactDir == "" {
		config.PactDir = "./pacts"
	}

	if config.Host == "" {
		config.Host = "127.0.0.1"
	}

	pact, err := consumer.NewV4Pact(consumer.MockHTTPProviderConfig{
		Consumer: config.Consumer,
		Provider: config.Provider,
		PactDir:  config.PactDir,
		Host:     config.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pact: %w", err)
	}

	return pact, nil
}
