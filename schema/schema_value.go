// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package schema

type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueLong
	ValueDouble
	ValueString
	ValueArray
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueBool:
		return "boolean"
	case ValueLong:
		return "integer"
	case ValueDouble:
		return "number"
	case ValueString:
		return "string"
	case ValueArray:
		return "array"
	case ValueObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-like value with ordered object entries. It represents
// field defaults, annotation arguments, and property values. Numbers are
// split into integral (ValueLong) and non-integral (ValueDouble) so that
// default validation can tell `1` from `1.5`.
type Value struct {
	kind    ValueKind
	boolVal bool
	longVal int64
	dblVal  float64
	strVal  string
	items   []Value
	entries []ObjectEntry
}

type ObjectEntry struct {
	Key   string
	Value Value
}

func NullValue() Value {
	return Value{kind: ValueNull}
}

func BoolValue(v bool) Value {
	return Value{kind: ValueBool, boolVal: v}
}

func LongValue(v int64) Value {
	return Value{kind: ValueLong, longVal: v}
}

func DoubleValue(v float64) Value {
	return Value{kind: ValueDouble, dblVal: v}
}

func StringValue(v string) Value {
	return Value{kind: ValueString, strVal: v}
}

func ArrayValue(items []Value) Value {
	return Value{kind: ValueArray, items: items}
}

func ObjectValue(entries []ObjectEntry) Value {
	return Value{kind: ValueObject, entries: entries}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == ValueNull
}

func (v Value) Bool() bool {
	return v.boolVal
}

func (v Value) Long() int64 {
	return v.longVal
}

func (v Value) Double() float64 {
	if v.kind == ValueLong {
		return float64(v.longVal)
	}
	return v.dblVal
}

func (v Value) Str() string {
	return v.strVal
}

func (v Value) Items() []Value {
	return v.items
}

func (v Value) Entries() []ObjectEntry {
	return v.entries
}

// Lookup finds an object entry by key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, entry := range v.entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return Value{}, false
}

// Properties is an insertion-ordered key/value map of extra attributes
// attached to a schema node or field.
type Properties struct {
	entries []ObjectEntry
}

func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

func (p *Properties) Entries() []ObjectEntry {
	if p == nil {
		return nil
	}
	return p.entries
}

func (p *Properties) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	for _, entry := range p.entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return Value{}, false
}

func (p *Properties) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Add appends a new entry. It reports false, without modifying the
// properties, when the key is already present.
func (p *Properties) Add(key string, value Value) bool {
	if p.Has(key) {
		return false
	}
	p.entries = append(p.entries, ObjectEntry{Key: key, Value: value})
	return true
}

// Set overwrites the entry for key in place, or appends it.
func (p *Properties) Set(key string, value Value) {
	for ii := range p.entries {
		if p.entries[ii].Key == key {
			p.entries[ii].Value = value
			return
		}
	}
	p.entries = append(p.entries, ObjectEntry{Key: key, Value: value})
}

// Remove deletes the entry for key, reporting whether it was present.
func (p *Properties) Remove(key string) bool {
	for ii := range p.entries {
		if p.entries[ii].Key == key {
			p.entries = append(p.entries[:ii], p.entries[ii+1:]...)
			return true
		}
	}
	return false
}
