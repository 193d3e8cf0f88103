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

package compiler_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"go.avroidl.org/avroidl/compiler"
	"go.avroidl.org/avroidl/encoding/avsc"
	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

func compileSrc(t *testing.T, src string, opts ...compiler.CompileOption) compiler.CompileResult {
	t.Helper()
	unit, err := syntax.Parse([]byte(src))
	require.NoError(t, err)
	return compiler.Compile(unit, opts...)
}

func compileOk(t *testing.T, src string, opts ...compiler.CompileOption) compiler.CompileResult {
	t.Helper()
	result := compileSrc(t, src, opts...)
	require.Empty(t, result.Errors, "unexpected compile errors: %v", result.Errors)
	return result
}

func errorMessages(result compiler.CompileResult) []string {
	var messages []string
	for _, err := range result.Errors {
		messages = append(messages, err.Message())
	}
	return messages
}

func TestCompileProtocol(t *testing.T) {
	t.Parallel()

	src := `
/** A calculator. */
@namespace("org.example")
@version("1.2")
protocol Calculator {
	enum Op { ADD, SUB } = ADD;
	fixed MD5(16);

	record Request {
		/** Left operand. */
		long lhs;
		long rhs = 0;
		decimal(9, 2) amount;
	}

	error Overflow {
		string message;
	}

	/** Evaluates one operation. */
	long eval(Request req, Op op = "ADD") throws Overflow;
	void ping() oneway;
}
`
	result := compileOk(t, src)
	protocol := result.Protocol
	require.NotNil(t, protocol)
	assert.Equal(t, "org.example.Calculator", protocol.FullName())
	assert.Equal(t, "A calculator.", protocol.Doc)
	version, ok := protocol.Properties.Get("version")
	require.True(t, ok)
	assert.Equal(t, "1.2", version.Str())

	require.Len(t, protocol.Types, 4)
	op, ok := protocol.Types[0].(*schema.Enum)
	require.True(t, ok)
	assert.Equal(t, "org.example.Op", op.FullName())
	assert.Equal(t, "ADD", op.Default)

	request := protocol.Types[2].(*schema.Record)
	assert.Equal(t, "org.example", request.Namespace)
	assert.Equal(t, "Left operand.", request.Fields[0].Doc)

	amount, ok := request.Fields[2].Type.(*schema.Logical)
	require.True(t, ok)
	assert.Equal(t, schema.LogicalDecimal, amount.LogicalType)
	assert.Equal(t, uint32(9), amount.Precision)
	assert.Equal(t, uint32(2), amount.Scale)
	assert.Equal(t, schema.KindBytes, amount.Base.Kind())

	require.Len(t, protocol.Messages, 2)
	eval := protocol.Message("eval")
	require.NotNil(t, eval)
	assert.Equal(t, []string{"org.example.Overflow"}, eval.Errors)
	reqParam := eval.Request[0]
	ref, ok := reqParam.Type.(*schema.Reference)
	require.True(t, ok)
	require.NotNil(t, ref.Target)
	assert.Equal(t, "org.example.Request", ref.Target.FullName())

	ping := protocol.Message("ping")
	assert.True(t, ping.OneWay)
	assert.Equal(t, schema.KindNull, ping.Response.Kind())
}

func TestCompileSchemaUnit(t *testing.T) {
	t.Parallel()

	src := `
@namespace("com.acme")
record Point {
	double x;
	double y;
}

enum Color { RED, GREEN }
`
	result := compileOk(t, src)
	assert.Nil(t, result.Protocol)
	require.Len(t, result.Schemata, 2)
	assert.Equal(t, "com.acme.Point", result.Schemata[0].FullName())
	assert.Equal(t, "Color", result.Schemata[1].FullName())

	schemata, _ := func() ([]schema.NamedSchema, compiler.CompileResult) {
		unit, err := syntax.Parse([]byte(src))
		require.NoError(t, err)
		return compiler.CompileToNamedSchemata(unit)
	}()
	require.Len(t, schemata, 2)
}

func TestNamespaceAnnotations(t *testing.T) {
	t.Parallel()

	src := `
@namespace("org.x")
protocol P {
	record Inherited { int a; }
	@namespace("org.y") record Moved { int a; }
	@namespace("") record Bare { int a; }
	record Uses { Bare b; org.y.Moved m; }
}
`
	result := compileOk(t, src)
	types := result.Protocol.Types
	assert.Equal(t, "org.x.Inherited", types[0].FullName())
	assert.Equal(t, "org.y.Moved", types[1].FullName())
	assert.Equal(t, "Bare", types[2].FullName())
	assert.Equal(t, "", types[2].TypeNamespace())

	// An empty namespace serializes with no namespace key at all.
	doc := avsc.EncodeSchema(types[2])
	assert.False(t, gjson.Get(doc, "namespace").Exists())

	uses := types[3].(*schema.Record)
	bareRef := uses.Fields[0].Type.(*schema.Reference)
	require.NotNil(t, bareRef.Target)
	assert.Equal(t, "Bare", bareRef.Target.FullName())
	movedRef := uses.Fields[1].Type.(*schema.Reference)
	require.NotNil(t, movedRef.Target)
	assert.Equal(t, "org.y.Moved", movedRef.Target.FullName())

	// A bare name resolves against the enclosing namespace, so a
	// sibling declared into another namespace needs its qualified
	// name. The diagnostic suggests it.
	result = compileSrc(t, `
@namespace("org.x")
protocol P {
	@namespace("org.y") record Moved { int a; }
	record Uses { Moved m; }
}
`)
	require.Len(t, result.Errors, 1)
	related := result.Errors[0].Related()
	require.Len(t, related, 1)
	assert.Contains(t, related[0].Message(), `Unknown type "Moved"`)
	assert.Contains(t, related[0].Help(), `"org.y.Moved"`)

	result = compileSrc(t, `@namespace("a") @namespace("b") record R { int x; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "Duplicate @namespace")
}

func TestNullableUnionCanonicalization(t *testing.T) {
	t.Parallel()

	src := `
record R {
	string? a = "x";
	string? b;
	@hint("z") string? c = "y";
	@hint("z") string? d;
}
`
	result := compileOk(t, src)
	record := result.Schemata[0].(*schema.Record)

	a := record.Fields[0].Type.(*schema.Union)
	require.Len(t, a.Branches, 2)
	assert.Equal(t, schema.KindString, a.Branches[0].Kind())
	assert.Equal(t, schema.KindNull, a.Branches[1].Kind())

	b := record.Fields[1].Type.(*schema.Union)
	assert.Equal(t, schema.KindNull, b.Branches[0].Kind())
	assert.Equal(t, schema.KindString, b.Branches[1].Kind())

	// Annotations on the element type always land on the non-null
	// branch, whichever position it ends up in. They never stick to
	// the field itself.
	c := record.Fields[2].Type.(*schema.Union)
	assert.True(t, c.Branches[0].Props().Has("hint"))
	assert.False(t, record.Fields[2].Properties.Has("hint"))
	d := record.Fields[3].Type.(*schema.Union)
	assert.True(t, d.Branches[1].Props().Has("hint"))
	assert.False(t, record.Fields[3].Properties.Has("hint"))
}

func TestUnionErrors(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `record R { union { int, string, int } u; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Duplicate union branch "int"`)

	result = compileSrc(t, `record R { union { union { int, long }, string } u; }`)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message(), "Unions may not immediately contain")

	result = compileSrc(t, `record R { union { null, string }? u; }`)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message(), "Unions may not immediately contain")

	// A plain multi-branch union has no branch an annotation could
	// target, in field position as much as anywhere else.
	result = compileOk(t, `record R { @hint("z") union { int, string } u; }`)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message(), "ignored")
}

func TestEnumErrors(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `enum Op { RED, GREEN, RED }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Duplicate symbol "RED" in enum "Op"`)

	result = compileSrc(t, `enum Op { RED } = GREEN;`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Default "GREEN" is not a symbol`)
}

func TestNumericRanges(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `fixed Huge(5000000000);`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "fixed size out of range")

	result = compileSrc(t, `record R { decimal(0, 0) d; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "decimal precision out of range")

	result = compileSrc(t, `record R { decimal(4, 9) d; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "scale must be in [0, precision]")
}

func TestLogicalAnnotations(t *testing.T) {
	t.Parallel()

	src := `
record R {
	@logicalType("timestamp-millis") long ts;
	@logicalType("date") string notADate;
}
`
	result := compileOk(t, src)
	record := result.Schemata[0].(*schema.Record)

	ts, ok := record.Fields[0].Type.(*schema.Logical)
	require.True(t, ok)
	assert.Equal(t, schema.LogicalTimestampMillis, ts.LogicalType)

	// Incompatible combinations stay plain properties.
	notADate := record.Fields[1].Type
	assert.Equal(t, schema.KindString, notADate.Kind())
	assert.True(t, notADate.Props().Has("logicalType"))
}

func TestDefaultValidation(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `record R { int n = "oops"; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Default for field "R.n" must be an integer, got string`)

	result = compileSrc(t, `record R { int n = 5000000000; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "32-bit integer")

	result = compileSrc(t, `record R { union { null, string } u = "x"; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Default for field "R.u" must be null`)

	compileOk(t, `record R { array<long> xs = [1, 2]; map<double> m = {"a": 1.5}; }`)
}

func TestIncompleteRecordDefault(t *testing.T) {
	t.Parallel()

	src := `
record Outer {
	Inner i = {"s": "explicit"};
}
record Inner {
	int value;
	string s = "d";
}
`
	result := compileSrc(t, src)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `missing a value for Inner.value`)

	compileOk(t, `
record Outer {
	Inner i = {"value": 7};
}
record Inner {
	int value;
	string s = "d";
}
`)
}

func TestUnresolvedReferences(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `record R { Strng a; Int b; Missing c; }`)
	require.Len(t, result.Errors, 1)
	top := result.Errors[0]
	assert.Contains(t, top.Message(), "3 unresolved type references")

	related := top.Related()
	require.Len(t, related, 3)
	assert.Contains(t, related[0].Message(), `Unknown type "Strng"`)
	assert.Contains(t, related[0].Help(), `did you mean "string"?`)
	assert.Contains(t, related[1].Help(), "case-sensitive")
	assert.Equal(t, "", related[2].Help())
	assert.NotZero(t, related[0].Span().Len())
}

func TestReservedNames(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, "record union { int x; }")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "reserved word")

	// Escaping makes the reserved word usable as a type name. Field
	// names never needed it.
	compileOk(t, "record `union` { int x; }")
	compileOk(t, "record R { int record; }")
}

func TestDuplicateDiagnostics(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `@foo(1) @foo(2) record R { int x; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Duplicate property "foo"`)

	result = compileSrc(t, `record R { int x; } record R { int y; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Type "R" is defined more than once`)

	result = compileSrc(t, `record R { int x; long x; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Field "x" is declared more than once`)
}

func TestMessageErrors(t *testing.T) {
	t.Parallel()

	result := compileSrc(t, `protocol P { int bad() oneway; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "oneway")

	result = compileSrc(t, `protocol P { record R { int x; } int f() throws R; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "not an error type")

	result = compileSrc(t, `protocol P { int f(); int f(int x); }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Message "f" is declared more than once`)
}

func TestEscapeDecoding(t *testing.T) {
	t.Parallel()

	src := `record R { string s = "café \101\n 😀"; }`
	result := compileOk(t, src)
	record := result.Schemata[0].(*schema.Record)
	assert.Equal(t, "café A\n 😀", record.Fields[0].Default.Str())

	result = compileSrc(t, `record R { string s = "bad \q escape"; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Invalid escape sequence "\\q"`)

	result = compileSrc(t, `record R { string s = "\uD83D alone"; }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "Invalid escape sequence")
}

func TestOrphanDocWarnings(t *testing.T) {
	t.Parallel()

	src := `
/** displaced */
/** attached */
record R { int x; }
`
	result := compileOk(t, src)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message(), "not attached")
}

func writeSources(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func compileFile(t *testing.T, fs afero.Fs, path string) compiler.CompileResult {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	unit, err := syntax.Parse(data)
	require.NoError(t, err)
	return compiler.Compile(unit,
		compiler.WithFs(fs),
		compiler.WithSourcePath(path),
	)
}

func TestDiamondImports(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `
@namespace("org.x")
protocol A {
	import idl "b.avdl";
	import idl "c.avdl";
	record Top { Shared s; }
}`,
		"/src/b.avdl": `
@namespace("org.x")
protocol B {
	import idl "d.avdl";
}`,
		"/src/c.avdl": `
@namespace("org.x")
protocol C {
	import idl "d.avdl";
}`,
		"/src/d.avdl": `
@namespace("org.x")
protocol D {
	record Shared { int n; }
}`,
	})

	result := compileFile(t, fs, "/src/a.avdl")
	require.Empty(t, result.Errors, "diamond import must deduplicate: %v", result.Errors)

	var names []string
	for _, named := range result.Protocol.Types {
		names = append(names, named.FullName())
	}
	assert.Equal(t, []string{"org.x.Shared", "org.x.Top"}, names)
}

func TestImportCycle(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `protocol A { import idl "b.avdl"; }`,
		"/src/b.avdl": `protocol B { import idl "a.avdl"; }`,
	})

	result := compileFile(t, fs, "/src/a.avdl")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), "Import cycle")
	assert.Contains(t, result.Errors[0].Message(), "/src/a.avdl")
}

func TestImportNotFound(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `protocol A { import idl "missing.avdl"; }`,
	})
	result := compileFile(t, fs, "/src/a.avdl")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `"missing.avdl" not found`)
	assert.Contains(t, result.Errors[0].Help(), "/src/missing.avdl")
}

func TestImportJsonDocuments(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `
@namespace("org.x")
protocol A {
	import schema "color.avsc";
	import protocol "calc.avpr";
	record Top { Color c; }
	void own();
}`,
		"/src/color.avsc": `{
			"type": "enum",
			"name": "Color",
			"namespace": "org.x",
			"symbols": ["RED", "GREEN"]
		}`,
		"/src/calc.avpr": `{
			"protocol": "Calc",
			"namespace": "org.x",
			"types": [
				{"type": "record", "name": "Num", "fields": [
					{"name": "v", "type": "long"}
				]}
			],
			"messages": {
				"eval": {
					"request": [{"name": "n", "type": "Num"}],
					"response": "long"
				}
			}
		}`,
	})

	result := compileFile(t, fs, "/src/a.avdl")
	require.Empty(t, result.Errors, "%v", result.Errors)

	var names []string
	for _, named := range result.Protocol.Types {
		names = append(names, named.FullName())
	}
	assert.Equal(t, []string{"org.x.Color", "org.x.Num", "org.x.Top"}, names)

	// Imported messages follow the importer's own messages.
	require.Len(t, result.Protocol.Messages, 2)
	assert.Equal(t, "own", result.Protocol.Messages[0].Name)
	assert.Equal(t, "eval", result.Protocol.Messages[1].Name)

	eval := result.Protocol.Message("eval")
	ref := eval.Request[0].Type.(*schema.Reference)
	require.NotNil(t, ref.Target)
	assert.Equal(t, "org.x.Num", ref.Target.FullName())
}

func TestImportCollision(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `
@namespace("org.x")
protocol A {
	import idl "b.avdl";
	record Shared { int n; }
}`,
		"/src/b.avdl": `
@namespace("org.x")
protocol B {
	record Shared { long n; }
}`,
	})

	result := compileFile(t, fs, "/src/a.avdl")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `"org.x.Shared" defined in both`)
}

func TestImportAnonymousSchema(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `
protocol A {
	import schema "tags.avsc";
	record R { int x; }
}`,
		"/src/tags.avsc": `{"type": "array", "items": "string"}`,
	})

	result := compileFile(t, fs, "/src/a.avdl")
	require.Empty(t, result.Errors, "%v", result.Errors)
	require.Len(t, result.Schemata, 1)
	assert.Equal(t, "R", result.Schemata[0].FullName())
}

func TestImportMessageCollision(t *testing.T) {
	t.Parallel()

	fs := writeSources(t, map[string]string{
		"/src/a.avdl": `
@namespace("org.x")
protocol A {
	import protocol "calc.avpr";
	long eval();
}`,
		"/src/calc.avpr": `{
			"protocol": "Calc",
			"namespace": "org.x",
			"types": [],
			"messages": {
				"eval": {"request": [], "response": "long"}
			}
		}`,
	})

	result := compileFile(t, fs, "/src/a.avdl")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message(), `Message "eval" defined in both`)
	assert.Contains(t, result.Errors[0].Message(), "/src/calc.avpr")
}

func TestCompileEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	src := `
@namespace("org.example")
protocol Calculator {
	record Request {
		long lhs;
		string? note = "n/a";
	}
	long eval(Request req);
}
`
	result := compileOk(t, src)
	doc := avsc.EncodeProtocol(result.Protocol)

	assert.Equal(t, "Calculator", gjson.Get(doc, "protocol").String())
	assert.Equal(t, "org.example", gjson.Get(doc, "namespace").String())

	// note defaults to a non-null value, so the union is reordered.
	noteType := gjson.Get(doc, "types.0.fields.1.type")
	require.True(t, noteType.IsArray())
	assert.Equal(t, "string", noteType.Array()[0].String())
	assert.Equal(t, "null", noteType.Array()[1].String())
	assert.Equal(t, "n/a", gjson.Get(doc, "types.0.fields.1.default").String())

	assert.Equal(t, "org.example.Request", gjson.Get(doc, "messages.eval.request.0.type").String())
}
