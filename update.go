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
	"maps"
	"slices"
	"strings"

	"google.golang.org/protobuf/types/known/fieldmaskpb"
)

// UpdateSpec names the fields to change in a partial update. Keys are either
// flat dotted paths ("data.string_value") or nested maps ("data" ->
// {"string_value": ...}); both flatten to the same thing. A key containing a
// literal dot is indistinguishable from a nested path.
type UpdateSpec = map[string]any

// flatUpdate is a flattened UpdateSpec: dotted leaf paths in canonical
// (lexicographic) order plus their values. The path order is the field mask
// order.
type flatUpdate struct {
	paths  []string
	values map[string]any
}

// flattenUpdatePaths flattens spec by descending into nested map values,
// prefixing child keys with "{parent}.". Non-map values are leaves, even when
// the semantic field is a list. Specs that set both a field and one of its
// sub-fields are rejected.
func flattenUpdatePaths(spec UpdateSpec) (*flatUpdate, error) {
	f := &flatUpdate{values: make(map[string]any, len(spec))}
	f.flatten("", spec)
	slices.Sort(f.paths)

	for i, p := range f.paths {
		prefix := p + "."
		for _, q := range f.paths[i+1:] {
			if strings.HasPrefix(q, prefix) {
				return nil, &AmbiguousPathError{Path: q, Prefix: p}
			}
		}
	}
	return f, nil
}

func (f *flatUpdate) flatten(prefix string, m map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := m[k].(map[string]any); ok {
			f.flatten(path, child)
			continue
		}
		f.set(path, m[k])
	}
}

// set records a leaf. A repeated path keeps its first mask position;
// the value is last-write-wins.
func (f *flatUpdate) set(path string, value any) {
	if _, ok := f.values[path]; !ok {
		f.paths = append(f.paths, path)
	}
	f.values[path] = value
}

// fieldMask builds the wire-level list of modified paths, one per flattened
// entry, in flattened order, with no deduplication beyond the flatten step.
func (f *flatUpdate) fieldMask() *fieldmaskpb.FieldMask {
	return &fieldmaskpb.FieldMask{Paths: slices.Clone(f.paths)}
}

// checkMutable verifies every path names the entity's sole mutable field.
// Runs before any mutation or RPC.
func (f *flatUpdate) checkMutable(entity, allowed string) error {
	for _, p := range f.paths {
		if p != allowed {
			return &UnsupportedFieldError{Entity: entity, Path: p, Allowed: allowed}
		}
	}
	return nil
}

// applyUpdates walks the flattened entries in order and assigns each value
// through the entity's setter table. The entity is mutated in place; a
// failure midway leaves earlier paths applied (the remote write, not the
// local mutation, owns consistency).
func applyUpdates[T any](entity *T, kind string, setters map[string]func(*T, any) error, f *flatUpdate) error {
	for _, path := range f.paths {
		set, ok := setters[path]
		if !ok {
			return &FieldPathError{Entity: kind, Path: path}
		}
		if err := set(entity, f.values[path]); err != nil {
			return err
		}
	}
	return nil
}
