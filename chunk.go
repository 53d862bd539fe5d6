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
	"maps"
	"slices"
	"time"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/protobuf/proto"

	"github.com/goretriever/retriever/internal/ctxlog"
)

// ChunkData is the textual payload of a Chunk.
type ChunkData struct {
	StringValue string
}

// Chunk is a unit of text content with metadata, the unit returned by
// queries. Instances are decoded from service responses; Update mutates the
// receiver in place.
type Chunk struct {
	c *Client

	Name           string
	Data           ChunkData
	CustomMetadata []CustomMetadata
	State          State
	CreateTime     time.Time
	UpdateTime     time.Time
}

const chunkMutablePath = "data.string_value"

var chunkSetters = map[string]func(*Chunk, any) error{
	"data.string_value": func(ch *Chunk, v any) error {
		s, ok := v.(string)
		if !ok {
			return &InvalidValueError{Value: v}
		}
		ch.Data.StringValue = s
		return nil
	},
}

func decodeChunk(c *Client, p *pb.Chunk) *Chunk {
	ch := &Chunk{
		c:     c,
		Name:  p.GetName(),
		Data:  ChunkData{StringValue: p.GetData().GetStringValue()},
		State: p.GetState(),
	}
	for _, cm := range p.GetCustomMetadata() {
		ch.CustomMetadata = append(ch.CustomMetadata, customMetadataFromProto(cm))
	}
	if ts := p.GetCreateTime(); ts != nil {
		ch.CreateTime = ts.AsTime()
	}
	if ts := p.GetUpdateTime(); ts != nil {
		ch.UpdateTime = ts.AsTime()
	}
	return ch
}

// proto builds the wire snapshot sent with update calls.
func (ch *Chunk) proto() (*pb.Chunk, error) {
	md, err := customMetadataProtos(ch.CustomMetadata)
	if err != nil {
		return nil, err
	}
	return &pb.Chunk{
		Name:           ch.Name,
		Data:           chunkData(ch.Data.StringValue),
		CustomMetadata: md,
		State:          ch.State,
	}, nil
}

// Update applies a partial update to the chunk. Only "data.string_value" is
// mutable; any other path fails with *UnsupportedFieldError before a call is
// issued. On success the receiver reflects the update and is returned.
func (ch *Chunk) Update(ctx context.Context, updates UpdateSpec) (*Chunk, error) {
	req, err := ch.updateRequest(updates)
	if err != nil {
		return nil, err
	}
	ctx, end := startSpan(ctx, "UpdateChunk", ch.Name)
	defer end()
	ctxlog.Debug(ctx, "updating chunk", "name", ch.Name, "paths", req.GetUpdateMask().GetPaths())
	if _, err := ch.c.rs.UpdateChunk(ctx, req); err != nil {
		return nil, WrapError(err)
	}
	return ch, nil
}

// updateRequest validates the spec, mutates the chunk, and builds the wire
// request. No RPC is issued here.
func (ch *Chunk) updateRequest(updates UpdateSpec) (*pb.UpdateChunkRequest, error) {
	flat, err := flattenUpdatePaths(updates)
	if err != nil {
		return nil, err
	}
	if err := flat.checkMutable("Chunk", chunkMutablePath); err != nil {
		return nil, err
	}
	if err := applyUpdates(ch, "Chunk", chunkSetters, flat); err != nil {
		return nil, err
	}
	snapshot, err := ch.proto()
	if err != nil {
		return nil, err
	}
	return &pb.UpdateChunkRequest{Chunk: snapshot, UpdateMask: flat.fieldMask()}, nil
}

// RelevantChunk pairs a query match with its relevance score.
type RelevantChunk struct {
	Score float32
	Chunk *Chunk
}

func decodeRelevantChunks(c *Client, rcs []*pb.RelevantChunk) []RelevantChunk {
	out := make([]RelevantChunk, len(rcs))
	for i, rc := range rcs {
		out[i] = RelevantChunk{
			Score: rc.GetChunkRelevanceScore(),
			Chunk: decodeChunk(c, rc.GetChunk()),
		}
	}
	return out
}

// ChunkSource is one of the accepted shapes for a chunk to create: Text,
// NamedText, RawChunk, or ChunkMap. Dynamic values normalize through
// MakeChunk.
type ChunkSource interface {
	chunkProto() (*pb.Chunk, error)
}

// Text is a bare textual payload; the service assigns the chunk name unless
// the batch call numbers it.
func Text(data string) ChunkSource {
	return chunkText(data)
}

// NamedText is a (name, data) pair with optional metadata.
func NamedText(name, data string, metadata ...CustomMetadata) ChunkSource {
	return namedChunk{name: name, data: data, metadata: metadata}
}

// RawChunk passes a pre-built wire chunk through unchanged.
func RawChunk(chunk *pb.Chunk) ChunkSource {
	return rawChunk{chunk: chunk}
}

// ChunkMap is a mapping-shaped chunk spec with "name", "data",
// "custom_metadata", and "state" keys. A plain string under "data" is
// normalized into the canonical payload sub-structure.
func ChunkMap(m map[string]any) ChunkSource {
	return chunkMap(m)
}

type chunkText string

func (t chunkText) chunkProto() (*pb.Chunk, error) {
	return &pb.Chunk{Data: chunkData(string(t))}, nil
}

type namedChunk struct {
	name     string
	data     string
	metadata []CustomMetadata
}

func (n namedChunk) chunkProto() (*pb.Chunk, error) {
	md, err := customMetadataProtos(n.metadata)
	if err != nil {
		return nil, err
	}
	return &pb.Chunk{Name: n.name, Data: chunkData(n.data), CustomMetadata: md}, nil
}

type rawChunk struct {
	chunk *pb.Chunk
}

func (r rawChunk) chunkProto() (*pb.Chunk, error) {
	return proto.Clone(r.chunk).(*pb.Chunk), nil
}

type chunkMap map[string]any

func (m chunkMap) chunkProto() (*pb.Chunk, error) {
	out := &pb.Chunk{}
	for key, value := range m {
		switch key {
		case "name":
			s, ok := value.(string)
			if !ok {
				return nil, &InvalidValueError{Value: value}
			}
			out.Name = s
		case "data":
			switch data := value.(type) {
			case string:
				out.Data = chunkData(data)
			case map[string]any:
				s, ok := data["string_value"].(string)
				if !ok {
					return nil, &InvalidValueError{Value: value}
				}
				out.Data = chunkData(s)
			case *pb.ChunkData:
				out.Data = data
			default:
				return nil, &InvalidValueError{Value: value}
			}
		case "custom_metadata":
			md, err := normalizeMetadataList(value)
			if err != nil {
				return nil, err
			}
			protos, err := customMetadataProtos(md)
			if err != nil {
				return nil, err
			}
			out.CustomMetadata = protos
		case "state":
			st, err := ToState(value)
			if err != nil {
				return nil, err
			}
			out.State = st
		default:
			return nil, &FieldPathError{Entity: "Chunk", Path: key}
		}
	}
	return out, nil
}

// MakeChunk normalizes a dynamic value into a ChunkSource. Accepted shapes:
// an existing ChunkSource or *pb.Chunk (passthrough), a bare string, a slice
// of length 2 or 3 holding (name, data[, metadata]), or a mapping with a
// "data" key. Anything else fails with *InvalidValueError.
func MakeChunk(v any) (ChunkSource, error) {
	switch x := v.(type) {
	case ChunkSource:
		return x, nil
	case *pb.Chunk:
		return RawChunk(x), nil
	case string:
		return Text(x), nil
	case []any:
		if len(x) != 2 && len(x) != 3 {
			return nil, &ChunkLengthError{Length: len(x), Value: x}
		}
		name, ok := x[0].(string)
		if !ok {
			return nil, &InvalidValueError{Value: x[0]}
		}
		data, ok := x[1].(string)
		if !ok {
			return nil, &InvalidValueError{Value: x[1]}
		}
		var metadata []CustomMetadata
		if len(x) == 3 && x[2] != nil {
			md, err := normalizeMetadataList(x[2])
			if err != nil {
				return nil, err
			}
			metadata = md
		}
		return namedChunk{name: name, data: data, metadata: metadata}, nil
	case map[string]any:
		return ChunkMap(x), nil
	default:
		return nil, &InvalidValueError{Value: v}
	}
}

// MakeChunks normalizes a batch of dynamic chunk specs for
// Document.BatchCreateChunks. Accepted shapes: a []ChunkSource (returned
// unchanged), a map from name to data string, a map from name to a
// (data[, metadata]) slice, or a slice of MakeChunk-accepted values.
// Map entries are ordered by name for deterministic requests.
func MakeChunks(v any) ([]ChunkSource, error) {
	switch x := v.(type) {
	case []ChunkSource:
		return x, nil
	case map[string]string:
		out := make([]ChunkSource, 0, len(x))
		for _, name := range slices.Sorted(maps.Keys(x)) {
			out = append(out, NamedText(name, x[name]))
		}
		return out, nil
	case map[string]any:
		out := make([]ChunkSource, 0, len(x))
		for _, name := range slices.Sorted(maps.Keys(x)) {
			var spec []any
			switch value := x[name].(type) {
			case string:
				spec = []any{name, value}
			case []any:
				spec = append([]any{name}, value...)
			default:
				return nil, &InvalidValueError{Value: x[name]}
			}
			src, err := MakeChunk(spec)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		}
		return out, nil
	case []any:
		out := make([]ChunkSource, len(x))
		for i, el := range x {
			src, err := MakeChunk(el)
			if err != nil {
				return nil, err
			}
			out[i] = src
		}
		return out, nil
	default:
		return nil, &InvalidValueError{Value: v}
	}
}

func normalizeMetadataList(v any) ([]CustomMetadata, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []CustomMetadata:
		return x, nil
	case []*pb.CustomMetadata:
		out := make([]CustomMetadata, len(x))
		for i, cm := range x {
			out[i] = customMetadataFromProto(cm)
		}
		return out, nil
	case []any:
		out := make([]CustomMetadata, len(x))
		for i, el := range x {
			cm, err := MakeCustomMetadata(el)
			if err != nil {
				return nil, err
			}
			out[i] = cm
		}
		return out, nil
	default:
		return nil, &InvalidValueError{Value: v}
	}
}

func chunkData(s string) *pb.ChunkData {
	return &pb.ChunkData{Data: &pb.ChunkData_StringValue{StringValue: s}}
}
