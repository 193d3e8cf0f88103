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

// Package avsc encodes resolved schemas and protocols as Avro JSON
// (.avsc and .avpr documents) and decodes such documents back into the
// schema model.
//
// Encoding is canonical: for every node the well-known keys are written
// in a fixed order, extra properties follow in their declaration order,
// and empty or absent attributes are omitted entirely. Decoding
// preserves the property order of the input document.
package avsc

import (
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"go.avroidl.org/avroidl/schema"
)

// EncodeSchema renders a single schema as a .avsc document, terminated
// by a newline.
func EncodeSchema(s schema.Schema) string {
	var buf strings.Builder
	EncodeSchemaTo(s, &buf)
	return buf.String()
}

func EncodeSchemaTo(s schema.Schema, w io.Writer) error {
	e := encoder{w: w}
	e.visitSchema(s)
	e.write("\n")
	return e.err
}

// EncodeProtocol renders a protocol as a .avpr document, terminated by
// a newline.
func EncodeProtocol(p *schema.Protocol) string {
	var buf strings.Builder
	EncodeProtocolTo(p, &buf)
	return buf.String()
}

func EncodeProtocolTo(p *schema.Protocol, w io.Writer) error {
	e := encoder{w: w, inProtocol: true}
	e.visitProtocol(p)
	e.write("\n")
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	counts []int
	err    error

	// Error records serialize as {"type": "error"} only inside a
	// protocol document.
	inProtocol bool
}

func (e *encoder) write(s string) {
	if e.err != nil {
		return
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
	}
}

func (e *encoder) writeIndent() {
	for ii := 0; ii < e.indent; ii++ {
		e.write("  ")
	}
}

func (e *encoder) writeString(s string) {
	data, err := json.Marshal(s)
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		return
	}
	e.write(string(data))
}

func (e *encoder) beginObject() {
	e.write("{")
	e.indent += 1
	e.counts = append(e.counts, 0)
}

func (e *encoder) objectKey(key string) {
	top := len(e.counts) - 1
	if e.counts[top] > 0 {
		e.write(",")
	}
	e.counts[top] += 1
	e.write("\n")
	e.writeIndent()
	e.writeString(key)
	e.write(": ")
}

func (e *encoder) endObject() {
	top := len(e.counts) - 1
	count := e.counts[top]
	e.counts = e.counts[:top]
	e.indent -= 1
	if count == 0 {
		e.write("}")
		return
	}
	e.write("\n")
	e.writeIndent()
	e.write("}")
}

func (e *encoder) beginArray() {
	e.write("[")
	e.indent += 1
	e.counts = append(e.counts, 0)
}

func (e *encoder) arrayItem() {
	top := len(e.counts) - 1
	if e.counts[top] > 0 {
		e.write(",")
	}
	e.counts[top] += 1
	e.write("\n")
	e.writeIndent()
}

func (e *encoder) endArray() {
	top := len(e.counts) - 1
	count := e.counts[top]
	e.counts = e.counts[:top]
	e.indent -= 1
	if count == 0 {
		e.write("]")
		return
	}
	e.write("\n")
	e.writeIndent()
	e.write("]")
}

func (e *encoder) visitSchema(s schema.Schema) {
	switch s := s.(type) {
	case *schema.Primitive:
		if s.Properties.Len() == 0 {
			e.writeString(s.Kind().String())
			return
		}
		e.beginObject()
		e.objectKey("type")
		e.writeString(s.Kind().String())
		e.visitProps(&s.Properties)
		e.endObject()

	case *schema.Reference:
		name := s.Name
		if s.Target != nil {
			name = s.Target.FullName()
		}
		if s.Properties.Len() == 0 {
			e.writeString(name)
			return
		}
		e.beginObject()
		e.objectKey("type")
		e.writeString(name)
		e.visitProps(&s.Properties)
		e.endObject()

	case *schema.Record:
		e.visitRecord(s)
	case *schema.Enum:
		e.visitEnum(s)
	case *schema.Fixed:
		e.visitFixed(s)

	case *schema.Array:
		e.beginObject()
		e.objectKey("type")
		e.writeString("array")
		e.objectKey("items")
		e.visitSchema(s.Items)
		e.visitProps(&s.Properties)
		e.endObject()

	case *schema.Map:
		e.beginObject()
		e.objectKey("type")
		e.writeString("map")
		e.objectKey("values")
		e.visitSchema(s.Values)
		e.visitProps(&s.Properties)
		e.endObject()

	case *schema.Union:
		e.beginArray()
		for _, branch := range s.Branches {
			e.arrayItem()
			e.visitSchema(branch)
		}
		e.endArray()

	case *schema.Logical:
		e.visitLogical(s)
	}
}

func (e *encoder) visitRecord(record *schema.Record) {
	e.beginObject()
	e.objectKey("type")
	if record.IsError && e.inProtocol {
		e.writeString("error")
	} else {
		e.writeString("record")
	}
	e.objectKey("name")
	e.writeString(record.Name)
	if record.Namespace != "" {
		e.objectKey("namespace")
		e.writeString(record.Namespace)
	}
	if record.Doc != "" {
		e.objectKey("doc")
		e.writeString(record.Doc)
	}
	e.objectKey("fields")
	e.beginArray()
	for _, field := range record.Fields {
		e.arrayItem()
		e.visitField(field)
	}
	e.endArray()
	e.visitAliases(record.Aliases)
	e.visitProps(&record.Properties)
	e.endObject()
}

func (e *encoder) visitField(field *schema.Field) {
	e.beginObject()
	e.objectKey("name")
	e.writeString(field.Name)
	e.objectKey("type")
	e.visitSchema(field.Type)
	if field.Doc != "" {
		e.objectKey("doc")
		e.writeString(field.Doc)
	}
	if field.HasDefault {
		e.objectKey("default")
		e.visitValue(field.Default)
	}
	if field.Order != schema.OrderNone {
		e.objectKey("order")
		e.writeString(field.Order.String())
	}
	e.visitAliases(field.Aliases)
	e.visitProps(&field.Properties)
	e.endObject()
}

func (e *encoder) visitEnum(enum *schema.Enum) {
	e.beginObject()
	e.objectKey("type")
	e.writeString("enum")
	e.objectKey("name")
	e.writeString(enum.Name)
	if enum.Namespace != "" {
		e.objectKey("namespace")
		e.writeString(enum.Namespace)
	}
	e.visitAliases(enum.Aliases)
	if enum.Doc != "" {
		e.objectKey("doc")
		e.writeString(enum.Doc)
	}
	e.objectKey("symbols")
	e.beginArray()
	for _, symbol := range enum.Symbols {
		e.arrayItem()
		e.writeString(symbol)
	}
	e.endArray()
	if enum.Default != "" {
		e.objectKey("default")
		e.writeString(enum.Default)
	}
	e.visitProps(&enum.Properties)
	e.endObject()
}

func (e *encoder) visitFixed(fixed *schema.Fixed) {
	e.beginObject()
	e.objectKey("type")
	e.writeString("fixed")
	e.objectKey("name")
	e.writeString(fixed.Name)
	if fixed.Namespace != "" {
		e.objectKey("namespace")
		e.writeString(fixed.Namespace)
	}
	e.objectKey("size")
	e.write(strconv.FormatUint(uint64(fixed.Size), 10))
	e.visitAliases(fixed.Aliases)
	e.visitProps(&fixed.Properties)
	e.endObject()
}

func (e *encoder) visitLogical(logical *schema.Logical) {
	e.beginObject()
	e.objectKey("type")
	e.writeString(logical.Base.Kind().String())
	e.objectKey("logicalType")
	e.writeString(logical.LogicalType)
	if logical.LogicalType == schema.LogicalDecimal {
		e.objectKey("precision")
		e.write(strconv.FormatUint(uint64(logical.Precision), 10))
		e.objectKey("scale")
		e.write(strconv.FormatUint(uint64(logical.Scale), 10))
	}
	e.visitProps(&logical.Properties)
	e.endObject()
}

func (e *encoder) visitAliases(aliases []string) {
	if len(aliases) == 0 {
		return
	}
	e.objectKey("aliases")
	e.beginArray()
	for _, alias := range aliases {
		e.arrayItem()
		e.writeString(alias)
	}
	e.endArray()
}

func (e *encoder) visitProps(props *schema.Properties) {
	for _, entry := range props.Entries() {
		e.objectKey(entry.Key)
		e.visitValue(entry.Value)
	}
}

func (e *encoder) visitValue(value schema.Value) {
	switch value.Kind() {
	case schema.ValueNull:
		e.write("null")
	case schema.ValueBool:
		if value.Bool() {
			e.write("true")
		} else {
			e.write("false")
		}
	case schema.ValueLong:
		e.write(strconv.FormatInt(value.Long(), 10))
	case schema.ValueDouble:
		data, err := json.Marshal(value.Double())
		if err != nil {
			if e.err == nil {
				e.err = err
			}
			return
		}
		e.write(string(data))
	case schema.ValueString:
		e.writeString(value.Str())
	case schema.ValueArray:
		e.beginArray()
		for _, item := range value.Items() {
			e.arrayItem()
			e.visitValue(item)
		}
		e.endArray()
	case schema.ValueObject:
		e.beginObject()
		for _, entry := range value.Entries() {
			e.objectKey(entry.Key)
			e.visitValue(entry.Value)
		}
		e.endObject()
	}
}

func (e *encoder) visitProtocol(p *schema.Protocol) {
	e.beginObject()
	e.objectKey("protocol")
	e.writeString(p.Name)
	if p.Namespace != "" {
		e.objectKey("namespace")
		e.writeString(p.Namespace)
	}
	if p.Doc != "" {
		e.objectKey("doc")
		e.writeString(p.Doc)
	}
	e.visitProps(&p.Properties)
	e.objectKey("types")
	e.beginArray()
	for _, named := range p.Types {
		e.arrayItem()
		e.visitSchema(named)
	}
	e.endArray()
	e.objectKey("messages")
	e.beginObject()
	for _, message := range p.Messages {
		e.objectKey(message.Name)
		e.visitMessage(message)
	}
	e.endObject()
	e.endObject()
}

func (e *encoder) visitMessage(message *schema.Message) {
	e.beginObject()
	if message.Doc != "" {
		e.objectKey("doc")
		e.writeString(message.Doc)
	}
	e.visitProps(&message.Properties)
	e.objectKey("request")
	e.beginArray()
	for _, param := range message.Request {
		e.arrayItem()
		e.visitField(param)
	}
	e.endArray()
	e.objectKey("response")
	e.visitSchema(message.Response)
	if len(message.Errors) > 0 {
		e.objectKey("errors")
		e.beginArray()
		for _, name := range message.Errors {
			e.arrayItem()
			e.writeString(name)
		}
		e.endArray()
	}
	if message.OneWay {
		e.objectKey("one-way")
		e.write("true")
	}
	e.endObject()
}
