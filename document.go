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
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"

	"github.com/goretriever/retriever/internal/ctxlog"
)

// Document is a collection of Chunks within a Corpus. Instances are decoded
// from service responses; Update mutates the receiver in place.
type Document struct {
	c *Client

	Name           string
	DisplayName    string
	CustomMetadata []CustomMetadata
	CreateTime     time.Time
	UpdateTime     time.Time
}

const documentMutablePath = "display_name"

var documentSetters = map[string]func(*Document, any) error{
	"display_name": func(d *Document, v any) error {
		s, ok := v.(string)
		if !ok {
			return &InvalidValueError{Value: v}
		}
		d.DisplayName = s
		return nil
	},
}

func decodeDocument(c *Client, p *pb.Document) *Document {
	d := &Document{
		c:           c,
		Name:        p.GetName(),
		DisplayName: p.GetDisplayName(),
	}
	for _, cm := range p.GetCustomMetadata() {
		d.CustomMetadata = append(d.CustomMetadata, customMetadataFromProto(cm))
	}
	if ts := p.GetCreateTime(); ts != nil {
		d.CreateTime = ts.AsTime()
	}
	if ts := p.GetUpdateTime(); ts != nil {
		d.UpdateTime = ts.AsTime()
	}
	return d
}

// proto builds the wire snapshot sent with update calls.
func (d *Document) proto() (*pb.Document, error) {
	md, err := customMetadataProtos(d.CustomMetadata)
	if err != nil {
		return nil, err
	}
	return &pb.Document{Name: d.Name, DisplayName: d.DisplayName, CustomMetadata: md}, nil
}

// Update applies a partial update to the document. Only "display_name" is
// mutable; any other path fails with *UnsupportedFieldError before a call is
// issued. On success the receiver reflects the update and is returned.
func (d *Document) Update(ctx context.Context, updates UpdateSpec) (*Document, error) {
	req, err := d.updateRequest(updates)
	if err != nil {
		return nil, err
	}
	ctx, end := startSpan(ctx, "UpdateDocument", d.Name)
	defer end()
	ctxlog.Debug(ctx, "updating document", "name", d.Name, "paths", req.GetUpdateMask().GetPaths())
	if _, err := d.c.rs.UpdateDocument(ctx, req); err != nil {
		return nil, WrapError(err)
	}
	return d, nil
}

func (d *Document) updateRequest(updates UpdateSpec) (*pb.UpdateDocumentRequest, error) {
	flat, err := flattenUpdatePaths(updates)
	if err != nil {
		return nil, err
	}
	if err := flat.checkMutable("Document", documentMutablePath); err != nil {
		return nil, err
	}
	if err := applyUpdates(d, "Document", documentSetters, flat); err != nil {
		return nil, err
	}
	snapshot, err := d.proto()
	if err != nil {
		return nil, err
	}
	return &pb.UpdateDocumentRequest{Document: snapshot, UpdateMask: flat.fieldMask()}, nil
}

// CreateChunk creates a Chunk with the given textual data. An empty name lets
// the service assign one; otherwise name must match the slug grammar and
// becomes "{document}/chunks/{name}".
func (d *Document) CreateChunk(ctx context.Context, name, data string, metadata ...CustomMetadata) (*Chunk, error) {
	md, err := customMetadataProtos(metadata)
	if err != nil {
		return nil, err
	}
	chunk := &pb.Chunk{Data: chunkData(data), CustomMetadata: md}
	if name != "" {
		if err := checkName(name); err != nil {
			return nil, err
		}
		chunk.Name = d.Name + "/chunks/" + name
	}

	ctx, end := startSpan(ctx, "CreateChunk", d.Name)
	defer end()
	ctxlog.Debug(ctx, "creating chunk", "parent", d.Name, "name", chunk.GetName())
	resp, err := d.c.rs.CreateChunk(ctx, &pb.CreateChunkRequest{Parent: d.Name, Chunk: chunk})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeChunk(d.c, resp), nil
}

// BatchCreateChunks creates several chunks in one call. Chunks without a name
// are numbered by position; bare names are prefixed with
// "{document}/chunks/". Either every chunk is created or none is.
func (d *Document) BatchCreateChunks(ctx context.Context, chunks []ChunkSource) ([]*Chunk, error) {
	req, err := d.batchCreateRequest(chunks)
	if err != nil {
		return nil, err
	}

	ctx, end := startSpan(ctx, "BatchCreateChunks", d.Name)
	defer end()
	ctxlog.Debug(ctx, "batch creating chunks", "parent", d.Name, "count", len(chunks))
	resp, err := d.c.rs.BatchCreateChunks(ctx, req)
	if err != nil {
		return nil, WrapError(err)
	}
	out := make([]*Chunk, len(resp.GetChunks()))
	for i, ch := range resp.GetChunks() {
		out[i] = decodeChunk(d.c, ch)
	}
	return out, nil
}

func (d *Document) batchCreateRequest(chunks []ChunkSource) (*pb.BatchCreateChunksRequest, error) {
	requests := make([]*pb.CreateChunkRequest, len(chunks))
	for i, src := range chunks {
		chunk, err := src.chunkProto()
		if err != nil {
			return nil, err
		}
		if chunk.GetName() == "" {
			chunk.Name = strconv.Itoa(i)
		}
		if !strings.Contains(chunk.GetName(), "/") {
			chunk.Name = d.Name + "/chunks/" + chunk.GetName()
		}
		requests[i] = &pb.CreateChunkRequest{Parent: d.Name, Chunk: chunk}
	}
	return &pb.BatchCreateChunksRequest{Parent: d.Name, Requests: requests}, nil
}

// GetChunk fetches a Chunk by bare ID or full resource name.
func (d *Document) GetChunk(ctx context.Context, name string) (*Chunk, error) {
	name = childName(d.Name, "chunks", name)

	ctx, end := startSpan(ctx, "GetChunk", name)
	defer end()
	resp, err := d.c.rs.GetChunk(ctx, &pb.GetChunkRequest{Name: name})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeChunk(d.c, resp), nil
}

// ListChunks returns a lazy sequence over all chunks in the document,
// fetching pages of pageSize (service default when zero) as it is consumed.
func (d *Document) ListChunks(ctx context.Context, pageSize int32) iter.Seq2[*Chunk, error] {
	return func(yield func(*Chunk, error) bool) {
		token := ""
		for {
			resp, err := d.c.rs.ListChunks(ctx, &pb.ListChunksRequest{
				Parent:    d.Name,
				PageSize:  pageSize,
				PageToken: token,
			})
			if err != nil {
				yield(nil, WrapError(err))
				return
			}
			for _, ch := range resp.GetChunks() {
				if !yield(decodeChunk(d.c, ch), nil) {
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

// Query performs semantic search over the document's chunks. Results arrive
// highest relevance first; the ordering is owned by the service.
func (d *Document) Query(ctx context.Context, query string, opts ...QueryOption) ([]RelevantChunk, error) {
	qo, err := applyQueryOptions(opts)
	if err != nil {
		return nil, err
	}
	filters, err := metadataFilterProtos(qo.metadataFilters)
	if err != nil {
		return nil, err
	}

	ctx, end := startSpan(ctx, "QueryDocument", d.Name)
	defer end()
	ctxlog.Debug(ctx, "querying document", "name", d.Name, "results_count", qo.resultsCount)
	resp, err := d.c.rs.QueryDocument(ctx, &pb.QueryDocumentRequest{
		Name:            d.Name,
		Query:           query,
		MetadataFilters: filters,
		ResultsCount:    qo.resultsCount,
	})
	if err != nil {
		return nil, WrapError(err)
	}
	return decodeRelevantChunks(d.c, resp.GetRelevantChunks()), nil
}

// BatchUpdateChunks applies a partial update to several chunks in one call,
// keyed by chunk name. Each chunk is fetched, updated locally under the same
// rules as Chunk.Update, and sent in a single batched request. There is no
// partial-success reporting: the batch succeeds or fails as a whole.
func (d *Document) BatchUpdateChunks(ctx context.Context, updates map[string]UpdateSpec) ([]*Chunk, error) {
	requests := make([]*pb.UpdateChunkRequest, 0, len(updates))
	for _, name := range slices.Sorted(maps.Keys(updates)) {
		chunk, err := d.GetChunk(ctx, name)
		if err != nil {
			return nil, err
		}
		req, err := chunk.updateRequest(updates[name])
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return d.BatchUpdateChunkRequests(ctx, requests)
}

// BatchUpdateChunkRequests sends pre-built update requests in one call.
func (d *Document) BatchUpdateChunkRequests(ctx context.Context, requests []*pb.UpdateChunkRequest) ([]*Chunk, error) {
	ctx, end := startSpan(ctx, "BatchUpdateChunks", d.Name)
	defer end()
	ctxlog.Debug(ctx, "batch updating chunks", "parent", d.Name, "count", len(requests))
	resp, err := d.c.rs.BatchUpdateChunks(ctx, &pb.BatchUpdateChunksRequest{Parent: d.Name, Requests: requests})
	if err != nil {
		return nil, WrapError(err)
	}
	out := make([]*Chunk, len(resp.GetChunks()))
	for i, ch := range resp.GetChunks() {
		out[i] = decodeChunk(d.c, ch)
	}
	return out, nil
}

// DeleteChunk deletes a Chunk by bare ID or full resource name.
func (d *Document) DeleteChunk(ctx context.Context, name string) error {
	name = childName(d.Name, "chunks", name)

	ctx, end := startSpan(ctx, "DeleteChunk", name)
	defer end()
	ctxlog.Debug(ctx, "deleting chunk", "name", name)
	if _, err := d.c.rs.DeleteChunk(ctx, &pb.DeleteChunkRequest{Name: name}); err != nil {
		return WrapError(err)
	}
	return nil
}

// BatchDeleteChunks deletes several chunks in one call. Either every chunk is
// deleted or none is confirmed deleted.
func (d *Document) BatchDeleteChunks(ctx context.Context, names ...string) error {
	requests := make([]*pb.DeleteChunkRequest, len(names))
	for i, name := range names {
		requests[i] = &pb.DeleteChunkRequest{Name: childName(d.Name, "chunks", name)}
	}

	ctx, end := startSpan(ctx, "BatchDeleteChunks", d.Name)
	defer end()
	ctxlog.Debug(ctx, "batch deleting chunks", "parent", d.Name, "count", len(names))
	if _, err := d.c.rs.BatchDeleteChunks(ctx, &pb.BatchDeleteChunksRequest{Parent: d.Name, Requests: requests}); err != nil {
		return WrapError(err)
	}
	return nil
}
