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

package avsc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"go.avroidl.org/avroidl/encoding/avsc"
	"go.avroidl.org/avroidl/schema"
)

func jsonKeys(t *testing.T, doc, path string) []string {
	t.Helper()
	value := gjson.Parse(doc)
	if path != "" {
		value = value.Get(path)
	}
	require.True(t, value.IsObject(), "expected object at %q in %s", path, doc)
	var keys []string
	value.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

func TestEncodeRecord(t *testing.T) {
	t.Parallel()

	record := &schema.Record{
		Name:      "Point",
		Namespace: "com.acme",
		Fields: []*schema.Field{
			{Name: "x", Type: schema.NewPrimitive(schema.KindDouble)},
			{
				Name:       "y",
				Type:       schema.NewPrimitive(schema.KindDouble),
				HasDefault: true,
				Default:    schema.LongValue(0),
			},
		},
	}

	expect := `{
  "type": "record",
  "name": "Point",
  "namespace": "com.acme",
  "fields": [
    {
      "name": "x",
      "type": "double"
    },
    {
      "name": "y",
      "type": "double",
      "default": 0
    }
  ]
}
`
	assert.Equal(t, expect, avsc.EncodeSchema(record))
}

func TestEncodeFieldKeyOrder(t *testing.T) {
	t.Parallel()

	field := &schema.Field{
		Name:    "id",
		Type:    schema.NewPrimitive(schema.KindString),
		Doc:     "Row key.",
		Order:   schema.OrderDescending,
		Aliases: []string{"key"},
	}
	field.Properties.Add("zeta", schema.LongValue(1))
	field.HasDefault = true
	field.Default = schema.StringValue("")

	record := &schema.Record{Name: "Row", Fields: []*schema.Field{field}}
	doc := avsc.EncodeSchema(record)

	assert.Equal(t, []string{"type", "name", "fields"}, jsonKeys(t, doc, ""))
	assert.Equal(
		t,
		[]string{"name", "type", "doc", "default", "order", "aliases", "zeta"},
		jsonKeys(t, doc, "fields.0"),
	)
}

func TestEncodeEnumKeyOrder(t *testing.T) {
	t.Parallel()

	enum := &schema.Enum{
		Name:      "Color",
		Namespace: "com.acme",
		Doc:       "Palette.",
		Symbols:   []string{"RED", "GREEN"},
		Default:   "RED",
		Aliases:   []string{"Colour"},
	}
	enum.Properties.Add("ui-hint", schema.StringValue("swatch"))

	doc := avsc.EncodeSchema(enum)
	assert.Equal(
		t,
		[]string{"type", "name", "namespace", "aliases", "doc", "symbols", "default", "ui-hint"},
		jsonKeys(t, doc, ""),
	)
	assert.Equal(t, "RED", gjson.Get(doc, "default").String())
}

func TestEncodeFixedAndLogical(t *testing.T) {
	t.Parallel()

	fixed := &schema.Fixed{Name: "Window", Namespace: "org.x", Size: 12}
	fixed.Properties.Add("logicalType", schema.StringValue("duration"))
	doc := avsc.EncodeSchema(fixed)
	assert.Equal(
		t,
		[]string{"type", "name", "namespace", "size", "logicalType"},
		jsonKeys(t, doc, ""),
	)
	assert.Equal(t, int64(12), gjson.Get(doc, "size").Int())

	amount := &schema.Logical{
		LogicalType: schema.LogicalDecimal,
		Base:        schema.NewPrimitive(schema.KindBytes),
		Precision:   9,
		Scale:       2,
	}
	doc = avsc.EncodeSchema(amount)
	assert.Equal(
		t,
		[]string{"type", "logicalType", "precision", "scale"},
		jsonKeys(t, doc, ""),
	)
	assert.Equal(t, "bytes", gjson.Get(doc, "type").String())
}

func TestEncodeUnionAndContainers(t *testing.T) {
	t.Parallel()

	union := &schema.Union{Branches: []schema.Schema{
		schema.NewPrimitive(schema.KindNull),
		schema.NewPrimitive(schema.KindString),
	}}
	record := &schema.Record{
		Name: "R",
		Fields: []*schema.Field{
			{Name: "note", Type: union, HasDefault: true, Default: schema.NullValue()},
			{Name: "tags", Type: &schema.Array{Items: schema.NewPrimitive(schema.KindString)}},
			{Name: "attrs", Type: &schema.Map{Values: schema.NewPrimitive(schema.KindLong)}},
		},
	}

	doc := avsc.EncodeSchema(record)
	noteType := gjson.Get(doc, "fields.0.type")
	require.True(t, noteType.IsArray())
	assert.Equal(t, "null", noteType.Array()[0].String())
	assert.Equal(t, "string", noteType.Array()[1].String())
	assert.Equal(t, gjson.Null, gjson.Get(doc, "fields.0.default").Type)
	assert.Equal(t, "array", gjson.Get(doc, "fields.1.type.type").String())
	assert.Equal(t, "map", gjson.Get(doc, "fields.2.type.type").String())
}

func TestEncodeReferenceProps(t *testing.T) {
	t.Parallel()

	target := &schema.Enum{Name: "Op", Namespace: "org.x", Symbols: []string{"A"}}
	plain := &schema.Reference{Name: "org.x.Op", Target: target}
	assert.Equal(t, "\"org.x.Op\"\n", avsc.EncodeSchema(plain))

	annotated := &schema.Reference{Name: "org.x.Op", Target: target}
	annotated.Properties.Add("hint", schema.BoolValue(true))
	doc := avsc.EncodeSchema(annotated)
	assert.Equal(t, []string{"type", "hint"}, jsonKeys(t, doc, ""))
	assert.Equal(t, "org.x.Op", gjson.Get(doc, "type").String())
}

func TestEncodeProtocol(t *testing.T) {
	t.Parallel()

	overflow := &schema.Record{
		Name:      "Overflow",
		Namespace: "org.x",
		IsError:   true,
		Fields: []*schema.Field{
			{Name: "message", Type: schema.NewPrimitive(schema.KindString)},
		},
	}
	protocol := &schema.Protocol{
		Name:      "Calc",
		Namespace: "org.x",
		Doc:       "A calculator.",
		Types:     []schema.NamedSchema{overflow},
		Messages: []*schema.Message{
			{
				Name: "eval",
				Request: []*schema.Field{
					{Name: "n", Type: schema.NewPrimitive(schema.KindLong)},
				},
				Response: schema.NewPrimitive(schema.KindLong),
				Errors:   []string{"org.x.Overflow"},
			},
			{
				Name:     "ping",
				Request:  nil,
				Response: schema.NewPrimitive(schema.KindNull),
				OneWay:   true,
			},
		},
	}

	doc := avsc.EncodeProtocol(protocol)
	assert.Equal(
		t,
		[]string{"protocol", "namespace", "doc", "types", "messages"},
		jsonKeys(t, doc, ""),
	)
	assert.Equal(t, "error", gjson.Get(doc, "types.0.type").String())
	assert.Equal(t, []string{"eval", "ping"}, jsonKeys(t, doc, "messages"))
	assert.Equal(t, "org.x.Overflow", gjson.Get(doc, "messages.eval.errors.0").String())
	assert.True(t, gjson.Get(doc, `messages.ping.one-way`).Bool())
	assert.False(t, gjson.Get(doc, "messages.eval.one-way").Exists())

	// Outside a protocol, error records render as plain records.
	assert.Equal(t, "record", gjson.Get(avsc.EncodeSchema(overflow), "type").String())
}

func TestDecodeSchema(t *testing.T) {
	t.Parallel()

	doc := `{
		"type": "record",
		"name": "Outer",
		"namespace": "com.acme",
		"fields": [
			{"name": "inner", "type": {
				"type": "record",
				"name": "Inner",
				"fields": [{"name": "ref", "type": "Other"}]
			}},
			{"name": "amount", "type": {
				"type": "bytes",
				"logicalType": "decimal",
				"precision": 9,
				"scale": 2
			}},
			{"name": "b", "type": "long", "custom-b": 1, "custom-a": 2}
		]
	}`
	decoded, err := avsc.DecodeSchema([]byte(doc))
	require.NoError(t, err)

	record, ok := decoded.(*schema.Record)
	require.True(t, ok)
	assert.Equal(t, "com.acme.Outer", record.FullName())

	inner, ok := record.Fields[0].Type.(*schema.Record)
	require.True(t, ok)
	assert.Equal(t, "com.acme", inner.Namespace)

	ref, ok := inner.Fields[0].Type.(*schema.Reference)
	require.True(t, ok)
	assert.Equal(t, "com.acme.Other", ref.Name)

	logical, ok := record.Fields[1].Type.(*schema.Logical)
	require.True(t, ok)
	assert.Equal(t, schema.LogicalDecimal, logical.LogicalType)
	assert.Equal(t, uint32(9), logical.Precision)

	props := record.Fields[2].Properties
	require.Equal(t, 2, props.Len())
	assert.Equal(t, "custom-b", props.Entries()[0].Key)
	assert.Equal(t, "custom-a", props.Entries()[1].Key)
}

func TestDecodeSchemaErrors(t *testing.T) {
	t.Parallel()

	decodeErr := func(doc string) error {
		_, err := avsc.DecodeSchema([]byte(doc))
		require.Error(t, err)
		return err
	}

	assert.ErrorContains(t, decodeErr(`{`), "not valid JSON")
	assert.ErrorContains(t, decodeErr(`{"name": "X"}`), `missing "type"`)
	assert.ErrorContains(
		t,
		decodeErr(`{"type": "fixed", "name": "F", "size": 5000000000}`),
		"out of range",
	)
	assert.ErrorContains(
		t,
		decodeErr(`{"type": "fixed", "name": "F", "size": 1.5}`),
		"non-negative integer",
	)
	assert.ErrorContains(
		t,
		decodeErr(`["null", ["int", "string"]]`),
		"unions may not immediately contain other unions",
	)
	assert.ErrorContains(t, decodeErr(`["int", "int"]`), "duplicate union branch")
	assert.ErrorContains(
		t,
		decodeErr(`{"type": "enum", "name": "E", "symbols": ["A", "A"]}`),
		"duplicate enum symbol",
	)
	assert.ErrorContains(
		t,
		decodeErr(`{"type": "enum", "name": "E", "symbols": ["A"], "default": "B"}`),
		"not a symbol",
	)

	err := decodeErr(`{
		"type": "record", "name": "R",
		"fields": [{"name": "f"}]
	}`)
	var avscErr *avsc.Error
	require.ErrorAs(t, err, &avscErr)
	assert.Equal(t, "fields.0", avscErr.Path())
}

func TestDecodeProtocol(t *testing.T) {
	t.Parallel()

	doc := `{
		"protocol": "Calc",
		"namespace": "org.x",
		"types": [
			{"type": "error", "name": "Overflow", "fields": [
				{"name": "message", "type": "string"}
			]}
		],
		"messages": {
			"eval": {
				"request": [{"name": "n", "type": "long"}],
				"response": "long",
				"errors": ["Overflow"]
			},
			"ping": {"request": [], "response": "null", "one-way": true}
		}
	}`
	protocol, err := avsc.DecodeProtocol([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "org.x.Calc", protocol.FullName())
	require.Len(t, protocol.Types, 1)
	overflow, ok := protocol.Types[0].(*schema.Record)
	require.True(t, ok)
	assert.True(t, overflow.IsError)
	assert.Equal(t, "org.x.Overflow", overflow.FullName())

	require.Len(t, protocol.Messages, 2)
	eval := protocol.Message("eval")
	require.NotNil(t, eval)
	assert.Equal(t, []string{"org.x.Overflow"}, eval.Errors)
	assert.True(t, protocol.Message("ping").OneWay)
}

func TestEncodeDecodeLogicalDuration(t *testing.T) {
	t.Parallel()

	doc := `{"type": "fixed", "name": "Window", "size": 12, "logicalType": "duration"}`
	decoded, err := avsc.DecodeSchema([]byte(doc))
	require.NoError(t, err)

	fixed, ok := decoded.(*schema.Fixed)
	require.True(t, ok)
	assert.Equal(t, uint32(12), fixed.Size)

	out := avsc.EncodeSchema(fixed)
	assert.Equal(
		t,
		[]string{"type", "name", "size", "logicalType"},
		jsonKeys(t, out, ""),
	)
}
