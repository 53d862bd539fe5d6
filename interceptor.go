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
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// metadataUnaryInterceptor attaches the API key (when set) and static
// metadata to every outgoing RPC. The retriever service is unary-only, so no
// stream variant exists.
func metadataUnaryInterceptor(apiKey string, md map[string]string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		ctx = attachMetadata(ctx, apiKey, md)
		return invoker(ctx, method, req, reply, cc, callOpts...)
	}
}

// timeoutUnaryInterceptor applies the default timeout when the caller's
// context carries no deadline.
func timeoutUnaryInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, callOpts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok && timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, callOpts...)
	}
}

func attachMetadata(ctx context.Context, apiKey string, static map[string]string) context.Context {
	pairs := make([]string, 0, 2+2*len(static))
	if apiKey != "" {
		pairs = append(pairs, "x-goog-api-key", apiKey)
	}
	for k, v := range static {
		pairs = append(pairs, k, v)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
