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

package compiler

import (
	"fmt"
	"math"
	"strconv"

	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

// Recursive record defaults cannot nest deeper than this; self-typed
// fields cannot carry complete defaults anyway.
const maxDefaultDepth = 32

// checkDefaults validates every field default against its resolved
// type. Running after resolution lets one pass cover forward
// references, imported types, and record-default completeness.
func (c *compiler) checkDefaults() {
	for _, named := range c.registry.order {
		record, ok := named.(*schema.Record)
		if !ok {
			continue
		}
		for _, field := range record.Fields {
			c.checkFieldDefault(field, record.FullName())
		}
	}
	if c.protocol != nil {
		for _, message := range c.protocol.Messages {
			for _, param := range message.Request {
				c.checkFieldDefault(param, message.Name)
			}
		}
	}
}

// checkFieldDefault qualifies the field with its enclosing record or
// message, so every default diagnostic names the owning type.
func (c *compiler) checkFieldDefault(field *schema.Field, owner string) {
	if !field.HasDefault {
		return
	}
	span := c.fieldSpans[field]
	c.validateDefault(owner+"."+field.Name, field.Default, field.Type, span, 0)
}

func (c *compiler) validateDefault(fieldName string, value schema.Value, s schema.Schema, span syntax.Span, depth int) {
	if depth > maxDefaultDepth {
		return
	}
	got := value.Kind().String()

	switch s := s.(type) {
	case *schema.Primitive:
		c.validatePrimitiveDefault(fieldName, value, s.Kind(), span)

	case *schema.Logical:
		c.validateDefault(fieldName, value, s.Base, span, depth)

	case *schema.Array:
		if value.Kind() != schema.ValueArray {
			c.err(errInvalidDefault(fieldName, "an array", got, span))
			return
		}
		for _, item := range value.Items() {
			c.validateDefault(fieldName, item, s.Items, span, depth+1)
		}

	case *schema.Map:
		if value.Kind() != schema.ValueObject {
			c.err(errInvalidDefault(fieldName, "an object", got, span))
			return
		}
		for _, entry := range value.Entries() {
			c.validateDefault(fieldName, entry.Value, s.Values, span, depth+1)
		}

	case *schema.Union:
		// Avro union defaults are interpreted against the first branch.
		if len(s.Branches) > 0 {
			c.validateDefault(fieldName, value, s.Branches[0], span, depth)
		}

	case *schema.Reference:
		if s.Target != nil {
			c.validateDefault(fieldName, value, s.Target, span, depth)
		}

	case *schema.Enum:
		if value.Kind() != schema.ValueString || !s.HasSymbol(value.Str()) {
			want := fmt.Sprintf("a symbol of enum %q", s.FullName())
			if value.Kind() == schema.ValueString {
				got = fmt.Sprintf("%q", value.Str())
			}
			c.err(errInvalidDefault(fieldName, want, got, span))
		}

	case *schema.Fixed:
		if value.Kind() != schema.ValueString || len(value.Str()) != int(s.Size) {
			want := fmt.Sprintf("a string of length %d", s.Size)
			c.err(errInvalidDefault(fieldName, want, got, span))
		}

	case *schema.Record:
		c.validateRecordDefault(fieldName, value, s, span, depth)
	}
}

func (c *compiler) validatePrimitiveDefault(fieldName string, value schema.Value, kind schema.Kind, span syntax.Span) {
	got := value.Kind().String()
	switch kind {
	case schema.KindNull:
		if value.Kind() != schema.ValueNull {
			c.err(errInvalidDefault(fieldName, "null", got, span))
		}
	case schema.KindBoolean:
		if value.Kind() != schema.ValueBool {
			c.err(errInvalidDefault(fieldName, "a boolean", got, span))
		}
	case schema.KindInt:
		if value.Kind() != schema.ValueLong {
			c.err(errInvalidDefault(fieldName, "an integer", got, span))
		} else if value.Long() < math.MinInt32 || value.Long() > math.MaxInt32 {
			got := strconv.FormatInt(value.Long(), 10)
			c.err(errInvalidDefault(fieldName, "a 32-bit integer", got, span))
		}
	case schema.KindLong:
		if value.Kind() != schema.ValueLong {
			c.err(errInvalidDefault(fieldName, "an integer", got, span))
		}
	case schema.KindFloat, schema.KindDouble:
		if value.Kind() != schema.ValueLong && value.Kind() != schema.ValueDouble {
			c.err(errInvalidDefault(fieldName, "a number", got, span))
		}
	case schema.KindBytes, schema.KindString:
		if value.Kind() != schema.ValueString {
			c.err(errInvalidDefault(fieldName, "a string", got, span))
		}
	}
}

// validateRecordDefault checks completeness: a record default must
// supply a value for every target field that has no default of its own,
// recursively.
func (c *compiler) validateRecordDefault(fieldName string, value schema.Value, record *schema.Record, span syntax.Span, depth int) {
	if value.Kind() != schema.ValueObject {
		c.err(errInvalidDefault(fieldName, "an object", value.Kind().String(), span))
		return
	}
	for _, target := range record.Fields {
		entry, present := value.Lookup(target.Name)
		if !present {
			if !target.HasDefault {
				c.err(errIncompleteRecordDefault(
					fieldName, record.FullName(), target.Name, span,
				))
			}
			continue
		}
		c.validateDefault(fieldName, entry, target.Type, span, depth+1)
	}
}
