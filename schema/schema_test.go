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

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.avroidl.org/avroidl/schema"
)

func TestFullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "org.example.Op", schema.FullName("org.example", "Op"))
	assert.Equal(t, "Op", schema.FullName("", "Op"))

	namespace, name := schema.SplitFullName("org.example.Op")
	assert.Equal(t, "org.example", namespace)
	assert.Equal(t, "Op", name)

	namespace, name = schema.SplitFullName("Op")
	assert.Equal(t, "", namespace)
	assert.Equal(t, "Op", name)
}

func TestProperties(t *testing.T) {
	t.Parallel()

	var props schema.Properties
	assert.True(t, props.Add("b", schema.LongValue(1)))
	assert.True(t, props.Add("a", schema.LongValue(2)))
	assert.False(t, props.Add("b", schema.LongValue(3)))

	got, ok := props.Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Long())

	keys := make([]string, 0, props.Len())
	for _, entry := range props.Entries() {
		keys = append(keys, entry.Key)
	}
	assert.Equal(t, []string{"b", "a"}, keys)

	props.Set("b", schema.LongValue(9))
	got, _ = props.Get("b")
	assert.Equal(t, int64(9), got.Long())

	assert.True(t, props.Remove("b"))
	assert.False(t, props.Remove("b"))
	assert.Equal(t, 1, props.Len())

	var nilProps *schema.Properties
	assert.Equal(t, 0, nilProps.Len())
	assert.False(t, nilProps.Has("a"))
}

func TestNullableBranch(t *testing.T) {
	t.Parallel()

	str := schema.NewPrimitive(schema.KindString)
	null := schema.NewPrimitive(schema.KindNull)

	union := &schema.Union{Branches: []schema.Schema{null, str}}
	assert.Same(t, schema.Schema(str), union.NullableBranch())

	union = &schema.Union{Branches: []schema.Schema{str, null}}
	assert.Same(t, schema.Schema(str), union.NullableBranch())

	union = &schema.Union{Branches: []schema.Schema{
		str, schema.NewPrimitive(schema.KindInt),
	}}
	assert.Nil(t, union.NullableBranch())
}

func TestPromoteLogical(t *testing.T) {
	t.Parallel()

	base := schema.NewPrimitive(schema.KindBytes)
	base.Props().Add("logicalType", schema.StringValue("decimal"))
	base.Props().Add("precision", schema.LongValue(9))
	base.Props().Add("scale", schema.LongValue(2))
	base.Props().Add("extra", schema.BoolValue(true))

	promoted := schema.PromoteLogical(base)
	logical, ok := promoted.(*schema.Logical)
	require.True(t, ok)
	assert.Equal(t, schema.LogicalDecimal, logical.LogicalType)
	assert.Equal(t, schema.KindBytes, logical.Base.Kind())
	assert.Equal(t, uint32(9), logical.Precision)
	assert.Equal(t, uint32(2), logical.Scale)
	assert.True(t, logical.Props().Has("extra"))
	assert.False(t, logical.Props().Has("logicalType"))
}

func TestPromoteLogicalIncompatible(t *testing.T) {
	t.Parallel()

	// date requires an int base; string stays unpromoted with the
	// property intact.
	base := schema.NewPrimitive(schema.KindString)
	base.Props().Add("logicalType", schema.StringValue("date"))
	promoted := schema.PromoteLogical(base)
	assert.Same(t, schema.Schema(base), promoted)
	assert.True(t, promoted.Props().Has("logicalType"))

	// Unknown kinds are left alone.
	base = schema.NewPrimitive(schema.KindInt)
	base.Props().Add("logicalType", schema.StringValue("datetime"))
	assert.Same(t, schema.Schema(base), schema.PromoteLogical(base))

	// scale > precision violates the decimal contract.
	base = schema.NewPrimitive(schema.KindBytes)
	base.Props().Add("logicalType", schema.StringValue("decimal"))
	base.Props().Add("precision", schema.LongValue(2))
	base.Props().Add("scale", schema.LongValue(4))
	assert.Same(t, schema.Schema(base), schema.PromoteLogical(base))
}

func TestPromoteLogicalFixed(t *testing.T) {
	t.Parallel()

	fixed := &schema.Fixed{Name: "Window", Namespace: "org.example", Size: 12}
	fixed.Props().Add("note", schema.StringValue("x"))
	fixed.Props().Add("logicalType", schema.StringValue("duration"))

	promoted := schema.PromoteLogical(fixed)
	require.Same(t, schema.Schema(fixed), promoted)

	// The logical key is reordered to the front so serialization puts
	// it directly after the fixed keys.
	entries := fixed.Props().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "logicalType", entries[0].Key)
	assert.Equal(t, "note", entries[1].Key)

	// duration requires size 12.
	wrongSize := &schema.Fixed{Name: "W", Size: 8}
	wrongSize.Props().Add("logicalType", schema.StringValue("duration"))
	assert.Same(t, schema.Schema(wrongSize), schema.PromoteLogical(wrongSize))
}
