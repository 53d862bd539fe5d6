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
	"regexp"
	"strings"
)

// Resource IDs are lowercase alphanumeric or dashes, 1-39 characters, and
// must not start or end with a dash.
var validNameRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,37}[a-z0-9])?$`)

// ValidName reports whether id is usable as a corpus, document, or chunk ID.
func ValidName(id string) bool {
	return validNameRE.MatchString(id)
}

// checkName returns a *NameError for IDs that fail the slug grammar.
func checkName(id string) error {
	if !ValidName(id) {
		return &NameError{Name: id}
	}
	return nil
}

// childName joins a bare ID onto its parent resource name. Names that already
// contain a "/" are taken as full resource names and passed through.
func childName(parent, collection, name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return parent + "/" + collection + "/" + name
}

// corpusResourceName expands a bare corpus ID into "corpora/{id}".
func corpusResourceName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return "corpora/" + name
}
