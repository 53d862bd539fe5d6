// Copyright 2025 The retriever Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package retriever

import (
	"runtime"
	"time"

	"google.golang.org/grpc"
)

const (
	DefaultEndpoint = "generativelanguage.googleapis.com:443"

	// Scope required for corpus administration under application default
	// credentials.
	RetrieverScope = "https://www.googleapis.com/auth/generative-language.retriever"

	defaultMaxMessageBytes int           = 20 << 20 // 20 MiB
	defaultTimeout         time.Duration = 5 * time.Minute
)

// ClientOption configures the retriever client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	apiKey      string
	endpoint    string
	scopes      []string
	metadata    map[string]string
	dialOptions []grpc.DialOption
	useInsecure bool
	timeout     time.Duration
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		endpoint: DefaultEndpoint,
		scopes:   []string{RetrieverScope},
		metadata: map[string]string{
			"x-goog-api-client": "retriever-go/" + Version + " gl-go/" + runtime.Version(),
		},
		timeout: defaultTimeout,
	}
}

// WithAPIKey sets the API key sent with every RPC. When unset, the
// GEMINI_API_KEY / GOOGLE_API_KEY environment variables are consulted, and
// failing those, application default credentials.
func WithAPIKey(key string) ClientOption {
	return func(o *clientOptions) {
		o.apiKey = key
	}
}

// WithEndpoint overrides the default service endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(o *clientOptions) {
		if endpoint != "" {
			o.endpoint = endpoint
		}
	}
}

// WithScopes overrides the OAuth scopes requested under application default
// credentials.
func WithScopes(scopes ...string) ClientOption {
	return func(o *clientOptions) {
		if len(scopes) > 0 {
			o.scopes = scopes
		}
	}
}

// WithMetadata attaches static metadata to every RPC.
func WithMetadata(md map[string]string) ClientOption {
	return func(o *clientOptions) {
		for k, v := range md {
			o.metadata[k] = v
		}
	}
}

// WithDialOptions appends grpc.DialOptions to the client configuration.
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(o *clientOptions) {
		o.dialOptions = append(o.dialOptions, opts...)
	}
}

// WithInsecure enables plaintext transport (useful for local development).
func WithInsecure() ClientOption {
	return func(o *clientOptions) {
		o.useInsecure = true
	}
}

// WithTimeout sets the default RPC timeout applied when no deadline is
// present on the context.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}
