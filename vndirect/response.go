// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vndirect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/vnindustry/table"
)

// DataKey is the top-level response key holding the records.
const DataKey = "data"

// Record is a single industry row as returned by the provider. Numbers are
// kept as json.Number to preserve their original representation.
type Record map[string]interface{}

// String returns the value of a string field. The second value is false when
// the field is absent or is not a string.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Cells formats the values of the given columns for printing. Absent and null
// values become empty strings.
func (r Record) Cells(columns []string) []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		switch v := r[c].(type) {
		case nil:
		case string:
			cells[i] = v
		case json.Number:
			cells[i] = v.String()
		case bool:
			cells[i] = fmt.Sprintf("%t", v)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				cells[i] = fmt.Sprintf("%v", v)
				continue
			}
			cells[i] = string(b)
		}
	}
	return cells
}

// Metadata holds all the top-level response fields except "data", in their
// original order and verbatim.
type Metadata struct {
	keys   []string
	values map[string]json.RawMessage
}

var _ json.Marshaler = Metadata{}

func (m *Metadata) set(key string, value json.RawMessage) {
	if m.values == nil {
		m.values = make(map[string]json.RawMessage)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Keys in the order of the original response. The caller may modify the
// returned slice.
func (m Metadata) Keys() []string {
	return append([]string{}, m.keys...)
}

// Len is the number of metadata fields.
func (m Metadata) Len() int { return len(m.keys) }

// Get the raw JSON value of the field.
func (m Metadata) Get(key string) (json.RawMessage, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Decode unmarshals the field's value into v.
func (m Metadata) Decode(key string, v interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return errors.Reason("no metadata field %q", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Annotate(err, "failed to decode metadata field %q", key)
	}
	return nil
}

// MarshalJSON implements json.Marshaler, preserving the field order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, errors.Annotate(err, "failed to marshal key %q", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(m.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LookupResult is the normalized response of a single lookup.
type LookupResult struct {
	Records []Record // in the provider's order
	Columns []string // union of record fields, in the order first seen
	Meta    Metadata
}

// Table renders the records as a table with Columns as the header.
func (r *LookupResult) Table() *table.Table {
	t := table.NewTable(r.Columns...)
	for _, rec := range r.Records {
		t.AddRow(rec.Cells(r.Columns)...)
	}
	return t
}

// decodeObject reads a JSON object, keeping the order of its keys. Repeated
// keys keep their first position and the last value.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.Annotate(err, "invalid JSON")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.Reason("expected a JSON object, got %v", tok)
	}
	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.Annotate(err, "invalid JSON")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.Reason("expected an object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, errors.Annotate(err, "invalid JSON value for key %q", key)
		}
		if _, ok := values[key]; !ok {
			keys = append(keys, key)
		}
		values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, errors.Annotate(err, "invalid JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.Reason("unexpected data after the JSON object")
	}
	return keys, values, nil
}

func decodeValue(raw json.RawMessage) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeRecord(raw json.RawMessage) (Record, []string, error) {
	keys, values, err := decodeObject(raw)
	if err != nil {
		return nil, nil, err
	}
	r := make(Record, len(values))
	for _, k := range keys {
		v, err := decodeValue(values[k])
		if err != nil {
			return nil, nil, errors.Annotate(err, "failed to decode field %q", k)
		}
		r[k] = v
	}
	return r, keys, nil
}

// Split separates the provider's JSON response into records and metadata.
func Split(body []byte) (*LookupResult, error) {
	keys, values, err := decodeObject(body)
	if err != nil {
		return nil, &MalformedResponse{Err: errors.Annotate(err, "failed to parse response")}
	}
	data, ok := values[DataKey]
	if !ok {
		return nil, &MalformedResponse{Err: errors.Reason("no %q key in response", DataKey)}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, &MalformedResponse{Err: errors.Reason("%q is not an array: %s", DataKey, string(data))}
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &MalformedResponse{Err: errors.Annotate(err, "failed to parse %q", DataKey)}
	}
	res := LookupResult{Records: make([]Record, 0, len(raws))}
	seen := make(map[string]bool)
	for i, raw := range raws {
		rec, recKeys, err := decodeRecord(raw)
		if err != nil {
			return nil, &MalformedResponse{Err: errors.Annotate(err, "record %d", i)}
		}
		for _, k := range recKeys {
			if !seen[k] {
				seen[k] = true
				res.Columns = append(res.Columns, k)
			}
		}
		res.Records = append(res.Records, rec)
	}
	for _, k := range keys {
		if k != DataKey {
			res.Meta.set(k, values[k])
		}
	}
	return &res, nil
}
