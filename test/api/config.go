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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/onsi/ginkgo/v2"
)

// TestConfig configures the API suites.  Empty base URLs mean the suites
// start in-process servers.
type TestConfig struct {
	BaseURL         string
	PaymentsBaseURL string
	AuthToken       string
	JWTSigningKey   string
	RequestTimeout  time.Duration
	TestTimeout     time.Duration
	DebugLogging    bool
	LogRequests     bool
	LogResponses    bool
}

// LoadTestConfig loads configuration from environment variables and .env files.
func LoadTestConfig() *TestConfig {
	loadEnvFile()

	return &TestConfig{
		BaseURL:         os.Getenv("API_BASE_URL"),
		PaymentsBaseURL: os.Getenv("PAYMENTS_BASE_URL"),
		AuthToken:       os.Getenv("API_AUTH_TOKEN"),
		JWTSigningKey:   getStringWithDefault("JWT_SIGNING_KEY", "sandbox-test-signing-key-0123456789"),
		RequestTimeout:  getDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		TestTimeout:     getDurationWithDefault("TEST_TIMEOUT", 5*time.Minute),
		DebugLogging:    getBoolWithDefault("DEBUG_LOGGING", false),
		LogRequests:     getBoolWithDefault("LOG_REQUESTS", false),
		LogResponses:    getBoolWithDefault("LOG_RESPONSES", false),
	}
}

// ServerLogger is the logger handed to in-process servers, silent unless
// DEBUG_LOGGING is set.
func (c *TestConfig) ServerLogger() logr.Logger {
	if c.DebugLogging {
		return ginkgo.GinkgoLogr
	}

	return logr.Discard()
}

func getStringWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getBoolWithDefault gets a boolean from environment variable or returns default.
func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func loadEnvFile() {
	envPaths := []string{
		"../../.env",    // From test/api/suites directory
		"../../../.env", // From the repository root layout
	}

	var envPath string

	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// .env file not found, fine when variables are set directly.
		return
	}

	// Existing environment variables take precedence.
	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}
