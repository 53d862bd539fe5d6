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
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error provides structured access to gRPC status errors returned by the
// retriever service.
type Error struct {
	Code    codes.Code
	Message string
	Details []any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// GRPCStatus builds a status.Status from the structured error for interoperability.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

// Unwrap enables errors.Is/As to reach the underlying status.
func (e *Error) Unwrap() error {
	return status.New(e.Code, e.Message).Err()
}

// ParseError converts a gRPC status error into an *Error if possible.
func ParseError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	return &Error{Code: st.Code(), Message: st.Message(), Details: st.Details()}, true
}

// WrapError returns an *Error if err is a gRPC status error; otherwise returns err unchanged.
func WrapError(err error) error {
	if e, ok := ParseError(err); ok {
		return e
	}
	return err
}

// IsRetryable reports whether an error is retryable (currently UNAVAILABLE or
// DEADLINE_EXCEEDED). This mirrors the retryable set in the client service
// config; retries themselves are the transport's concern.
func IsRetryable(err error) bool {
	if e, ok := ParseError(err); ok {
		switch e.Code {
		case codes.Unavailable, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}

// AsError is a helper for errors.As.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// NameError reports a resource ID that does not match the slug grammar:
// lowercase alphanumeric characters or dashes, 40 or fewer characters, not
// starting or ending with a dash.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("the name must consist of lowercase alphanumeric characters (or -) and be 40 or fewer characters; got %q (len %d)", e.Name, len(e.Name))
}

// UnsupportedFieldError reports an update path naming a field the service
// does not allow to be partially updated.
type UnsupportedFieldError struct {
	Entity  string // "Corpus", "Document", or "Chunk"
	Path    string // the offending path
	Allowed string // the sole mutable path for the entity
}

func (e *UnsupportedFieldError) Error() string {
	return fmt.Sprintf("currently only the %q attribute can be updated for a %s, attempted to update %q", e.Allowed, e.Entity, e.Path)
}

// FieldPathError reports a dotted path that does not resolve to a field of
// the target entity.
type FieldPathError struct {
	Entity string
	Path   string
}

func (e *FieldPathError) Error() string {
	return fmt.Sprintf("no such field path %q on %s", e.Path, e.Entity)
}

// AmbiguousPathError reports an update spec that sets both a field and one of
// its sub-fields; the field mask cannot express both.
type AmbiguousPathError struct {
	Path   string
	Prefix string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("ambiguous update spec: %q is set both as a value (%q) and as a nested struct", e.Path, e.Prefix)
}

// InvalidValueError reports a value whose type is not accepted by an input
// normalizer.
type InvalidValueError struct {
	Value any
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value type: received %v of type %T", e.Value, e.Value)
}

// ChunkLengthError reports a positional chunk spec whose length is not 2 or 3.
type ChunkLengthError struct {
	Length int
	Value  []any
}

func (e *ChunkLengthError) Error() string {
	return fmt.Sprintf("chunk slices should have length 2 or 3, got length %d (value %v)", e.Length, e.Value)
}

// ResultsCountError reports a query results count outside [1, 100].
type ResultsCountError struct {
	Count int32
}

func (e *ResultsCountError) Error() string {
	return fmt.Sprintf("the number of results returned must be between 1 and 100, got %d", e.Count)
}
