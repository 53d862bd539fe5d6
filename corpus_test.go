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
	"errors"
	"testing"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
)

func TestCreateDocument(t *testing.T) {
	f := newFakeRetriever()
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	doc, err := co.CreateDocument(context.Background(), "greek-myths", "Greek Myths",
		CustomMetadata{Key: "lang", Value: StringValue("en")})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.Name != "corpora/demo/documents/greek-myths" {
		t.Errorf("Name = %q, want corpora/demo/documents/greek-myths", doc.Name)
	}
	if f.lastCreateDocument.GetParent() != "corpora/demo" {
		t.Errorf("Parent = %q, want corpora/demo", f.lastCreateDocument.GetParent())
	}
	wantMD := []CustomMetadata{{Key: "lang", Value: StringValue("en")}}
	if diff := cmp.Diff(wantMD, doc.CustomMetadata); diff != "" {
		t.Errorf("CustomMetadata mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDocumentBadName(t *testing.T) {
	f := newFakeRetriever()
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	_, err := co.CreateDocument(context.Background(), "Bad_Name", "x")
	var nameErr *NameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("CreateDocument = %v, want *NameError", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("invalid name still issued calls: %v", f.calls)
	}
}

func TestGetDocumentExpandsName(t *testing.T) {
	f := newFakeRetriever()
	f.documents["corpora/demo/documents/doc"] = &pb.Document{Name: "corpora/demo/documents/doc"}
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	doc, err := co.GetDocument(context.Background(), "doc")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Name != "corpora/demo/documents/doc" {
		t.Errorf("Name = %q", doc.Name)
	}

	// A full resource name passes through untouched.
	if _, err := co.GetDocument(context.Background(), "corpora/demo/documents/doc"); err != nil {
		t.Fatalf("GetDocument full name: %v", err)
	}
}

func TestListDocumentsPagination(t *testing.T) {
	f := newFakeRetriever()
	f.documentPages = []*pb.ListDocumentsResponse{
		{
			Documents: []*pb.Document{
				{Name: "corpora/demo/documents/a"},
				{Name: "corpora/demo/documents/b"},
			},
			NextPageToken: "page-2",
		},
		{
			Documents: []*pb.Document{{Name: "corpora/demo/documents/c"}},
		},
	}
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	var names []string
	for doc, err := range co.ListDocuments(context.Background(), 2) {
		if err != nil {
			t.Fatalf("ListDocuments: %v", err)
		}
		names = append(names, doc.Name)
	}
	want := []string{
		"corpora/demo/documents/a",
		"corpora/demo/documents/b",
		"corpora/demo/documents/c",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
	if got := len(f.calls); got != 2 {
		t.Errorf("page fetches = %d, want 2", got)
	}
}

func TestListDocumentsEarlyBreak(t *testing.T) {
	f := newFakeRetriever()
	f.documentPages = []*pb.ListDocumentsResponse{
		{
			Documents:     []*pb.Document{{Name: "corpora/demo/documents/a"}},
			NextPageToken: "page-2",
		},
		{
			Documents: []*pb.Document{{Name: "corpora/demo/documents/b"}},
		},
	}
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	for range co.ListDocuments(context.Background(), 1) {
		break
	}
	if got := len(f.calls); got != 1 {
		t.Errorf("page fetches after early break = %d, want 1", got)
	}
}

func TestCorpusQuery(t *testing.T) {
	f := newFakeRetriever()
	f.queryChunks = []*pb.RelevantChunk{
		{
			ChunkRelevanceScore: 0.9,
			Chunk:               &pb.Chunk{Name: "corpora/demo/documents/doc/chunks/a", Data: chunkData("hello")},
		},
		{
			ChunkRelevanceScore: 0.4,
			Chunk:               &pb.Chunk{Name: "corpora/demo/documents/doc/chunks/b", Data: chunkData("world")},
		},
	}
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	filter := MetadataFilter{
		Key:        "document.custom_metadata.lang",
		Conditions: []Condition{{Value: StringValue("en"), Operation: pb.Condition_EQUAL}},
	}
	results, err := co.Query(context.Background(), "greeting",
		WithResultsCount(10), WithMetadataFilters(filter))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Score != 0.9 || results[0].Chunk.Data.StringValue != "hello" {
		t.Errorf("first result = (%v, %q)", results[0].Score, results[0].Chunk.Data.StringValue)
	}

	req := f.lastQueryCorpus
	if req.GetQuery() != "greeting" {
		t.Errorf("Query = %q, want greeting", req.GetQuery())
	}
	if req.GetResultsCount() != 10 {
		t.Errorf("ResultsCount = %d, want 10", req.GetResultsCount())
	}
	wantFilters := []*pb.MetadataFilter{{
		Key: "document.custom_metadata.lang",
		Conditions: []*pb.Condition{{
			Value:     &pb.Condition_StringValue{StringValue: "en"},
			Operation: pb.Condition_EQUAL,
		}},
	}}
	if diff := cmp.Diff(wantFilters, req.GetMetadataFilters(), protocmp.Transform()); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestCorpusQueryResultsCountBounds(t *testing.T) {
	f := newFakeRetriever()
	c := newTestClient(f)
	co := &Corpus{c: c, Name: "corpora/demo"}

	for _, n := range []int32{-1, 101, 150} {
		_, err := co.Query(context.Background(), "q", WithResultsCount(n))
		var countErr *ResultsCountError
		if !errors.As(err, &countErr) {
			t.Errorf("Query with count %d = %v, want *ResultsCountError", n, err)
		}
	}
	if len(f.calls) != 0 {
		t.Errorf("out-of-bounds count still issued calls: %v", f.calls)
	}
}
