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
	"iter"
	"time"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"

	"github.com/goretriever/retriever/internal/ctxlog"
)

// Corpus is a collection of Documents. Instances are decoded from service
// responses; Update mutates the receiver in place.
type Corpus struct {
	c *Client

	Name        string
	DisplayName string
	CreateTime  time.Time
	UpdateTime  time.Time
}

const corpusMutablePath = "display_name"

var corpusSetters = map[string]func(*Corpus, any) error{
	"display_name": func(co *Corpus, v any) error {
		s, ok := v.(string)
		if !ok {
			return &InvalidValueError{Value: v}
		}
		co.DisplayName = s
		return nil
	},
}

func decodeCorpus(c *Client, p *pb.Corpus) *Corpus {
	co := &Corpus{
		c:           c,
		Name:        p.GetName(),
		DisplayName: p.GetDisplayName(),
	}
	if ts := p.GetCreateTime(); ts != nil {
		co.CreateTime = ts.AsTime()
	}
	if ts := p.GetUpdateTime(); ts != nil {
		co.UpdateTime = ts.AsTime()
	}
	return co
}

// proto builds the wire snapshot sent with update calls.
func (co *Corpus) proto() *pb.Corpus {
	return &pb.Corpus{Name: co.Name, DisplayName: co.DisplayName}
}

// Update applies a partial update to the corpus. Only "display_name" is
// mutable; any other path fails with *UnsupportedFieldError before a call is
// issued. On success the receiver reflects the update and is returned.
func (co *Corpus) Update(ctx context.Context, updates UpdateSpec) (*Corpus, error) {
	req, err := co.updateRequest(updates)
	if err != nil {
		return nil, err
	}
	ctx, end := startSpan(ctx, "UpdateCorpus", co.Name)
	defer end()
	ctxlog.Debug(ctx, "updating corpus", "name", co.Name, "paths", req.GetUpdateMask().GetPaths())
	if _, err := co.c.rs.UpdateCorpus(ctx, req); err != nil {
		return nil, WrapError(err)
	}
	return co, nil
}

func (co *Corpus) updateRequest(updates UpdateSpec) (*pb.UpdateCorpusRequest, error) {
	flat, err := flattenUpdatePaths(updates)
	if err != nil {
		return nil, err
	}
	if err := flat.checkMutable("Corpus", corpusMutablePath); err != nil {
		return nil, err
	}
	if err := applyUpdates(co, "Corpus", corpusSetters, flat); err != nil {
		return nil, err
	}
	return &pb.UpdateCorpusRequest{Corpus: co.proto(), UpdateMask: flat.fieldMask()}, nil
}

// CreateDocument creates a Document under the corpus. An empty name lets the
// service assign one; otherwise name must match the slug grammar and becomes
// "{corpus}/documents/{name}".
func (co *Corpus) CreateDocument(ctx context.Context, name, displayName string, metadata ...CustomMetadata) (*Document, error) {
	md, err := customMetadataProtos(metadata)
	if err != nil {
		return nil, err
	}
	doc := &pb.Document{DisplayName: displayName, CustomMetadata: md}
	if name != "" {
		if err := checkName(name); err != nil {
			return nil, err
		}
		doc.Name = co.Name + "/documents/" + name
	}

	ctx, end := startSpan(ctx, "CreateDocument", co.Name)
	defer end()
	ctxlog.Debug(ctx, "creating document", "parent", co.Name, "name", doc.GetName())
	resp, err := co.c.rs.CreateDocument(ctx, &pb.CreateDocumentRequest{Parent: co.Name, Document: doc})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeDocument(co.c, resp), nil
}

// GetDocument fetches a Document by bare ID or full resource name.
func (co *Corpus) GetDocument(ctx context.Context, name string) (*Document, error) {
	name = childName(co.Name, "documents", name)

	ctx, end := startSpan(ctx, "GetDocument", name)
	defer end()
	resp, err := co.c.rs.GetDocument(ctx, &pb.GetDocumentRequest{Name: name})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeDocument(co.c, resp), nil
}

// DeleteDocument deletes a Document. With force, its chunks are deleted too.
func (co *Corpus) DeleteDocument(ctx context.Context, name string, force bool) error {
	name = childName(co.Name, "documents", name)

	ctx, end := startSpan(ctx, "DeleteDocument", name)
	defer end()
	ctxlog.Debug(ctx, "deleting document", "name", name, "force", force)
	if _, err := co.c.rs.DeleteDocument(ctx, &pb.DeleteDocumentRequest{Name: name, Force: force}); err != nil {
		return WrapError(err)
	}
	return nil
}

// ListDocuments returns a lazy sequence over all documents in the corpus,
// fetching pages of pageSize (service default when zero) as it is consumed.
func (co *Corpus) ListDocuments(ctx context.Context, pageSize int32) iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		token := ""
		for {
			resp, err := co.c.rs.ListDocuments(ctx, &pb.ListDocumentsRequest{
				Parent:    co.Name,
				PageSize:  pageSize,
				PageToken: token,
			})
			if err != nil {
				yield(nil, WrapError(err))
				return
			}
			for _, d := range resp.GetDocuments() {
				if !yield(decodeDocument(co.c, d), nil) {
					return
				}
			}
			token = resp.GetNextPageToken()
			if token == "" {
				return
			}
		}
	}
}

// Query performs semantic search over the corpus. Results arrive highest
// relevance first; the ordering is owned by the service.
func (co *Corpus) Query(ctx context.Context, query string, opts ...QueryOption) ([]RelevantChunk, error) {
	qo, err := applyQueryOptions(opts)
	if err != nil {
		return nil, err
	}
	filters, err := metadataFilterProtos(qo.metadataFilters)
	if err != nil {
		return nil, err
	}

	ctx, end := startSpan(ctx, "QueryCorpus", co.Name)
	defer end()
	ctxlog.Debug(ctx, "querying corpus", "name", co.Name, "results_count", qo.resultsCount)
	resp, err := co.c.rs.QueryCorpus(ctx, &pb.QueryCorpusRequest{
		Name:            co.Name,
		Query:           query,
		MetadataFilters: filters,
		ResultsCount:    qo.resultsCount,
	})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeRelevantChunks(co.c, resp.GetRelevantChunks()), nil
}
