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
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestMetadataInterceptor(t *testing.T) {
	interceptor := metadataUnaryInterceptor("secret", map[string]string{"x-custom": "yes"})

	var got metadata.MD
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		got, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}
	if err := interceptor(context.Background(), "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if v := got.Get("x-goog-api-key"); len(v) != 1 || v[0] != "secret" {
		t.Errorf("x-goog-api-key = %v, want [secret]", v)
	}
	if v := got.Get("x-custom"); len(v) != 1 || v[0] != "yes" {
		t.Errorf("x-custom = %v, want [yes]", v)
	}
}

func TestMetadataInterceptorNoKey(t *testing.T) {
	interceptor := metadataUnaryInterceptor("", nil)

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get("x-goog-api-key")) > 0 {
			t.Errorf("empty key still attached: %v", md)
		}
		return nil
	}
	if err := interceptor(context.Background(), "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
}

func TestTimeoutInterceptor(t *testing.T) {
	interceptor := timeoutUnaryInterceptor(time.Minute)

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("no deadline applied")
		}
		return nil
	}
	if err := interceptor(context.Background(), "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
}

func TestTimeoutInterceptorKeepsCallerDeadline(t *testing.T) {
	interceptor := timeoutUnaryInterceptor(time.Minute)

	callerCtx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := callerCtx.Deadline()

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		got, ok := ctx.Deadline()
		if !ok || !got.Equal(want) {
			t.Errorf("deadline = %v, want the caller's %v", got, want)
		}
		return nil
	}
	if err := interceptor(callerCtx, "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
}
