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
	"strings"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
)

// Operator is a metadata filter comparison operator.
type Operator = pb.Condition_Operator

// State is a chunk lifecycle state.
type State = pb.Chunk_State

var operatorNames = map[string]Operator{
	"operator_unspecified":   pb.Condition_OPERATOR_UNSPECIFIED,
	"unspecified":            pb.Condition_OPERATOR_UNSPECIFIED,
	"operator_less":          pb.Condition_LESS,
	"less":                   pb.Condition_LESS,
	"<":                      pb.Condition_LESS,
	"operator_less_equal":    pb.Condition_LESS_EQUAL,
	"less_equal":             pb.Condition_LESS_EQUAL,
	"<=":                     pb.Condition_LESS_EQUAL,
	"operator_equal":         pb.Condition_EQUAL,
	"equal":                  pb.Condition_EQUAL,
	"==":                     pb.Condition_EQUAL,
	"operator_greater":       pb.Condition_GREATER,
	"greater":                pb.Condition_GREATER,
	">":                      pb.Condition_GREATER,
	"operator_greater_equal": pb.Condition_GREATER_EQUAL,
	"greater_equal":          pb.Condition_GREATER_EQUAL,
	">=":                     pb.Condition_GREATER_EQUAL,
	"operator_not_equal":     pb.Condition_NOT_EQUAL,
	"not_equal":              pb.Condition_NOT_EQUAL,
	"!=":                     pb.Condition_NOT_EQUAL,
	"operator_includes":      pb.Condition_INCLUDES,
	"includes":               pb.Condition_INCLUDES,
	"operator_excludes":      pb.Condition_EXCLUDES,
	"excludes":               pb.Condition_EXCLUDES,
	"not in":                 pb.Condition_EXCLUDES,
}

var stateNames = map[string]State{
	"state_unspecified":        pb.Chunk_STATE_UNSPECIFIED,
	"unspecified":              pb.Chunk_STATE_UNSPECIFIED,
	"state_pending_processing": pb.Chunk_STATE_PENDING_PROCESSING,
	"pending_processing":       pb.Chunk_STATE_PENDING_PROCESSING,
	"pending":                  pb.Chunk_STATE_PENDING_PROCESSING,
	"state_active":             pb.Chunk_STATE_ACTIVE,
	"active":                   pb.Chunk_STATE_ACTIVE,
	"state_failed":             pb.Chunk_STATE_FAILED,
	"failed":                   pb.Chunk_STATE_FAILED,
}

// ToOperator resolves an Operator from the enum itself, a numeric wire code,
// or a case-insensitive string alias ("less_equal", "<=", "not in", ...).
// Numeric codes resolve through the proto enum's value table, so every
// operator is reachable by its own code.
func ToOperator(v any) (Operator, error) {
	switch x := v.(type) {
	case Operator:
		return x, nil
	case int:
		return operatorFromCode(int32(x))
	case int32:
		return operatorFromCode(x)
	case int64:
		return operatorFromCode(int32(x))
	case string:
		if op, ok := operatorNames[strings.ToLower(x)]; ok {
			return op, nil
		}
	}
	return pb.Condition_OPERATOR_UNSPECIFIED, &InvalidValueError{Value: v}
}

func operatorFromCode(code int32) (Operator, error) {
	if _, ok := pb.Condition_Operator_name[code]; ok {
		return Operator(code), nil
	}
	return pb.Condition_OPERATOR_UNSPECIFIED, &InvalidValueError{Value: code}
}

// ToState resolves a State from the enum itself, a numeric wire code, or a
// case-insensitive string alias ("active", "pending", ...).
func ToState(v any) (State, error) {
	switch x := v.(type) {
	case State:
		return x, nil
	case int:
		return stateFromCode(int32(x))
	case int32:
		return stateFromCode(x)
	case int64:
		return stateFromCode(int32(x))
	case string:
		if st, ok := stateNames[strings.ToLower(x)]; ok {
			return st, nil
		}
	}
	return pb.Chunk_STATE_UNSPECIFIED, &InvalidValueError{Value: v}
}

func stateFromCode(code int32) (State, error) {
	if _, ok := pb.Chunk_State_name[code]; ok {
		return State(code), nil
	}
	return pb.Chunk_STATE_UNSPECIFIED, &InvalidValueError{Value: code}
}

// MetadataValue is a custom metadata value: a string, a string list, or a
// number. Construct one with StringValue, StringListValue, or NumericValue,
// or from a dynamic value with MetadataValueOf.
type MetadataValue interface {
	setMetadataValue(cm *pb.CustomMetadata)
}

// ConditionValue is a filter condition value: a string or a number.
type ConditionValue interface {
	setConditionValue(c *pb.Condition)
}

// StringValue is a string-typed metadata or condition value.
type StringValue string

func (v StringValue) setMetadataValue(cm *pb.CustomMetadata) {
	cm.Value = &pb.CustomMetadata_StringValue{StringValue: string(v)}
}

func (v StringValue) setConditionValue(c *pb.Condition) {
	c.Value = &pb.Condition_StringValue{StringValue: string(v)}
}

// StringListValue is a list-of-strings metadata value.
type StringListValue []string

func (v StringListValue) setMetadataValue(cm *pb.CustomMetadata) {
	cm.Value = &pb.CustomMetadata_StringListValue{
		StringListValue: &pb.StringList{Values: []string(v)},
	}
}

// NumericValue is a numeric metadata or condition value.
type NumericValue float32

func (v NumericValue) setMetadataValue(cm *pb.CustomMetadata) {
	cm.Value = &pb.CustomMetadata_NumericValue{NumericValue: float32(v)}
}

func (v NumericValue) setConditionValue(c *pb.Condition) {
	c.Value = &pb.Condition_NumericValue{NumericValue: float32(v)}
}

// MetadataValueOf normalizes a dynamic value into a MetadataValue.
// Strings resolve first, then string lists (an already-converted
// *pb.StringList passes through by its values), then numerics coerced to
// float. Canonical values return unchanged. Anything else fails with
// *InvalidValueError.
func MetadataValueOf(v any) (MetadataValue, error) {
	switch x := v.(type) {
	case MetadataValue:
		return x, nil
	case string:
		return StringValue(x), nil
	case []string:
		return StringListValue(x), nil
	case *pb.StringList:
		return StringListValue(x.GetValues()), nil
	case []any:
		values := make([]string, len(x))
		for i, el := range x {
			s, ok := el.(string)
			if !ok {
				return nil, &InvalidValueError{Value: v}
			}
			values[i] = s
		}
		return StringListValue(values), nil
	case float32:
		return NumericValue(x), nil
	case float64:
		return NumericValue(x), nil
	case int:
		return NumericValue(x), nil
	case int32:
		return NumericValue(x), nil
	case int64:
		return NumericValue(x), nil
	default:
		return nil, &InvalidValueError{Value: v}
	}
}

// ConditionValueOf normalizes a dynamic value into a ConditionValue.
// Only strings and numerics are representable in a filter condition.
func ConditionValueOf(v any) (ConditionValue, error) {
	switch x := v.(type) {
	case ConditionValue:
		return x, nil
	case string:
		return StringValue(x), nil
	case float32:
		return NumericValue(x), nil
	case float64:
		return NumericValue(x), nil
	case int:
		return NumericValue(x), nil
	case int32:
		return NumericValue(x), nil
	case int64:
		return NumericValue(x), nil
	default:
		return nil, &InvalidValueError{Value: v}
	}
}

// CustomMetadata is a user-attached key/value annotation on a Document or
// Chunk.
type CustomMetadata struct {
	Key   string
	Value MetadataValue
}

func (m CustomMetadata) proto() (*pb.CustomMetadata, error) {
	if m.Value == nil {
		return nil, &InvalidValueError{Value: nil}
	}
	cm := &pb.CustomMetadata{Key: m.Key}
	m.Value.setMetadataValue(cm)
	return cm, nil
}

func customMetadataFromProto(cm *pb.CustomMetadata) CustomMetadata {
	out := CustomMetadata{Key: cm.GetKey()}
	switch v := cm.GetValue().(type) {
	case *pb.CustomMetadata_StringValue:
		out.Value = StringValue(v.StringValue)
	case *pb.CustomMetadata_StringListValue:
		out.Value = StringListValue(v.StringListValue.GetValues())
	case *pb.CustomMetadata_NumericValue:
		out.Value = NumericValue(v.NumericValue)
	}
	return out
}

// MakeCustomMetadata normalizes a dynamic value into a CustomMetadata.
// Accepted shapes: CustomMetadata (returned unchanged), *pb.CustomMetadata,
// or a map with a "key" entry and one of "value", "string_value",
// "string_list_value", or "numeric_value".
func MakeCustomMetadata(v any) (CustomMetadata, error) {
	switch x := v.(type) {
	case CustomMetadata:
		return x, nil
	case *pb.CustomMetadata:
		return customMetadataFromProto(x), nil
	case map[string]any:
		key, _ := x["key"].(string)
		var raw any
		for _, field := range []string{"value", "string_value", "string_list_value", "numeric_value"} {
			if val, ok := x[field]; ok && val != nil {
				raw = val
				break
			}
		}
		value, err := MetadataValueOf(raw)
		if err != nil {
			return CustomMetadata{}, err
		}
		return CustomMetadata{Key: key, Value: value}, nil
	default:
		return CustomMetadata{}, &InvalidValueError{Value: v}
	}
}

func customMetadataProtos(md []CustomMetadata) ([]*pb.CustomMetadata, error) {
	if len(md) == 0 {
		return nil, nil
	}
	out := make([]*pb.CustomMetadata, len(md))
	for i, m := range md {
		cm, err := m.proto()
		if err != nil {
			return nil, err
		}
		out[i] = cm
	}
	return out, nil
}

// Condition is a single comparison in a metadata filter.
type Condition struct {
	Value     ConditionValue
	Operation Operator
}

// MetadataFilter restricts a query to chunks whose metadata under Key
// satisfies every condition.
type MetadataFilter struct {
	Key        string
	Conditions []Condition
}

func (f MetadataFilter) proto() (*pb.MetadataFilter, error) {
	conditions := make([]*pb.Condition, len(f.Conditions))
	for i, c := range f.Conditions {
		if c.Value == nil {
			return nil, &InvalidValueError{Value: nil}
		}
		cond := &pb.Condition{Operation: c.Operation}
		c.Value.setConditionValue(cond)
		conditions[i] = cond
	}
	return &pb.MetadataFilter{Key: f.Key, Conditions: conditions}, nil
}

func metadataFilterProtos(filters []MetadataFilter) ([]*pb.MetadataFilter, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	out := make([]*pb.MetadataFilter, len(filters))
	for i, f := range filters {
		mf, err := f.proto()
		if err != nil {
			return nil, err
		}
		out[i] = mf
	}
	return out, nil
}
