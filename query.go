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

// QueryOption configures a corpus or document query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	metadataFilters []MetadataFilter
	resultsCount    int32
}

// WithResultsCount bounds the number of chunks returned; must be in [1, 100].
func WithResultsCount(n int32) QueryOption {
	return func(o *queryOptions) {
		o.resultsCount = n
	}
}

// WithMetadataFilters restricts matches by chunk or document metadata.
func WithMetadataFilters(filters ...MetadataFilter) QueryOption {
	return func(o *queryOptions) {
		o.metadataFilters = append(o.metadataFilters, filters...)
	}
}

func applyQueryOptions(opts []QueryOption) (*queryOptions, error) {
	qo := &queryOptions{}
	for _, opt := range opts {
		opt(qo)
	}
	if qo.resultsCount != 0 && (qo.resultsCount < 1 || qo.resultsCount > 100) {
		return nil, &ResultsCountError{Count: qo.resultsCount}
	}
	return qo, nil
}
