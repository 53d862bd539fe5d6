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

// Package retriever is a typed Go client for the Semantic Retriever service
// of the Generative Language API.
//
// It models the Corpus -> Document -> Chunk resource hierarchy and translates
// between Go values and the service's gRPC wire messages. All reads and
// mutations are remote calls; nothing is indexed, ranked, or stored locally.
//
// Partial updates follow the standard field-mask contract: the update spec is
// flattened into dotted paths, applied to the in-memory entity through
// per-entity setter tables, and sent alongside a field mask listing exactly
// the modified paths.
package retriever
