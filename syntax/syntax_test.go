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

package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.avroidl.org/avroidl/syntax"
)

func tokenKinds(t *testing.T, src string) []syntax.TokenKind {
	t.Helper()
	tokens, err := syntax.NewTokens([]byte(src))
	require.NoError(t, err)

	var kinds []syntax.TokenKind
	for {
		var token syntax.Token
		require.NoError(t, tokens.Next(&token))
		if token.Kind == syntax.T_EOF {
			return kinds
		}
		if token.Kind == syntax.T_SPACE || token.Kind == syntax.T_NEWLINE {
			continue
		}
		kinds = append(kinds, token.Kind)
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	kinds := tokenKinds(t, `record R { int x = -5; }`)
	assert.Equal(t, []syntax.TokenKind{
		syntax.T_IDENT, syntax.T_IDENT, syntax.T_OPEN_CURL,
		syntax.T_IDENT, syntax.T_IDENT, syntax.T_EQ, syntax.T_INT_LIT,
		syntax.T_SEMI, syntax.T_CLOSE_CURL,
	}, kinds)

	kinds = tokenKinds(t, `array<string> map<int> 1.25 2e9 "x" @a.b(true)`)
	assert.Equal(t, []syntax.TokenKind{
		syntax.T_IDENT, syntax.T_LT, syntax.T_IDENT, syntax.T_GT,
		syntax.T_IDENT, syntax.T_LT, syntax.T_IDENT, syntax.T_GT,
		syntax.T_FLOAT_LIT, syntax.T_FLOAT_LIT, syntax.T_TEXT_LIT,
		syntax.T_AT, syntax.T_IDENT, syntax.T_DOT, syntax.T_IDENT,
		syntax.T_OPEN_PAREN, syntax.T_IDENT, syntax.T_CLOSE_PAREN,
	}, kinds)

	kinds = tokenKinds(t, "`record` // trailing\n/* block */ /** doc */")
	assert.Equal(t, []syntax.TokenKind{
		syntax.T_ESC_IDENT, syntax.T_COMMENT, syntax.T_COMMENT,
		syntax.T_DOC_COMMENT,
	}, kinds)
}

func TestTokensErrors(t *testing.T) {
	t.Parallel()

	next := func(src string) error {
		tokens, err := syntax.NewTokens([]byte(src))
		require.NoError(t, err)
		var token syntax.Token
		for {
			if err := tokens.Next(&token); err != nil {
				return err
			}
			if token.Kind == syntax.T_EOF {
				return nil
			}
		}
	}

	assert.ErrorContains(t, next(`"unterminated`), "Unterminated string literal")
	assert.ErrorContains(t, next("/* open"), "Unterminated block comment")
	assert.ErrorContains(t, next("`bad"), "Unterminated escaped identifier")
	assert.ErrorContains(t, next("12abc"), `Invalid numeric literal "12abc"`)
	assert.ErrorContains(t, next("1.e5"), "Invalid numeric literal")
	assert.ErrorContains(t, next("\x01"), "Forbidden control character")
}

const testProtocolSrc = `/** A calculator. */
@namespace("org.example")
protocol Calculator {
	/** Operation codes. */
	enum Op { ADD, SUB } = ADD;

	fixed MD5(16);

	import idl "shared.avdl";

	record Request {
		/** The left operand. */
		long lhs;
		long rhs = 0;
		string? note;
		array<@foo("bar") int> history;
		decimal(9, 2) amount;
	}

	error Overflow {
		string message;
	}

	/** Evaluates one operation. */
	long eval(Request req) throws Overflow;
	void ping() oneway;
}
`

func TestParseProtocol(t *testing.T) {
	t.Parallel()

	unit, err := syntax.Parse([]byte(testProtocolSrc))
	require.NoError(t, err)

	protocol := unit.Protocol()
	require.NotNil(t, protocol)
	assert.Equal(t, "Calculator", protocol.Name().Get())
	assert.Equal(t, "A calculator.", protocol.Doc())
	require.Len(t, protocol.Annotations(), 1)
	assert.Equal(t, "namespace", protocol.Annotations()[0].Name().Get())

	require.Len(t, protocol.Decls(), 5)

	enum, ok := protocol.Decls()[0].(*syntax.EnumDecl)
	require.True(t, ok)
	assert.Equal(t, "Op", enum.Name().Get())
	assert.Equal(t, "Operation codes.", enum.Doc())
	require.Len(t, enum.Symbols(), 2)
	assert.Equal(t, "ADD", enum.Symbols()[0].Name().Get())
	require.NotNil(t, enum.DefaultSymbol())
	assert.Equal(t, "ADD", enum.DefaultSymbol().Get())

	fixed, ok := protocol.Decls()[1].(*syntax.FixedDecl)
	require.True(t, ok)
	assert.Equal(t, "MD5", fixed.Name().Get())
	assert.Equal(t, int64(16), fixed.Size().Value())

	importDecl, ok := protocol.Decls()[2].(*syntax.ImportDecl)
	require.True(t, ok)
	assert.Equal(t, syntax.ImportIdl, importDecl.Kind())
	assert.Equal(t, "shared.avdl", importDecl.Path().Raw())

	record, ok := protocol.Decls()[3].(*syntax.RecordDecl)
	require.True(t, ok)
	assert.False(t, record.IsError())
	require.Len(t, record.Fields(), 5)

	lhs := record.Fields()[0]
	assert.Equal(t, "lhs", lhs.Name().Get())
	assert.Equal(t, "The left operand.", lhs.Doc())
	assert.Nil(t, lhs.Default())

	rhs := record.Fields()[1]
	require.NotNil(t, rhs.Default())
	num, ok := rhs.Default().(*syntax.JsonNumber)
	require.True(t, ok)
	assert.True(t, num.IsInt())
	assert.Equal(t, int64(0), num.Int())

	note := record.Fields()[2]
	_, ok = note.Type().(*syntax.OptionalType)
	assert.True(t, ok)

	history := record.Fields()[3]
	arrayType, ok := history.Type().(*syntax.ArrayType)
	require.True(t, ok)
	require.Len(t, arrayType.Items().Annotations(), 1)

	amount := record.Fields()[4]
	decimalType, ok := amount.Type().(*syntax.DecimalType)
	require.True(t, ok)
	assert.Equal(t, int64(9), decimalType.Precision().Value())
	assert.Equal(t, int64(2), decimalType.Scale().Value())

	errorDecl, ok := protocol.Decls()[4].(*syntax.RecordDecl)
	require.True(t, ok)
	assert.True(t, errorDecl.IsError())

	require.Len(t, protocol.Messages(), 2)
	eval := protocol.Messages()[0]
	assert.Equal(t, "eval", eval.Name().Get())
	assert.Equal(t, "Evaluates one operation.", eval.Doc())
	require.Len(t, eval.Params(), 1)
	require.Len(t, eval.Throws(), 1)
	assert.Equal(t, "Overflow", eval.Throws()[0].Get())
	assert.False(t, eval.OneWay())

	ping := protocol.Messages()[1]
	_, ok = ping.Response().(*syntax.VoidType)
	assert.True(t, ok)
	assert.True(t, ping.OneWay())
}

func TestParseSchemaUnit(t *testing.T) {
	t.Parallel()

	src := `
@namespace("com.acme")
record Point {
	double x;
	double y;
}

enum Color { RED, GREEN, BLUE }
`
	unit, err := syntax.Parse([]byte(src))
	require.NoError(t, err)
	assert.Nil(t, unit.Protocol())
	require.Len(t, unit.Decls(), 2)

	record, ok := unit.Decls()[0].(*syntax.RecordDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", record.Name().Get())
	require.Len(t, record.DeclAnnotations(), 1)
}

func TestParseEscapedIdent(t *testing.T) {
	t.Parallel()

	unit, err := syntax.Parse([]byte("record `error` { int `int`; }"))
	require.NoError(t, err)
	record := unit.Decls()[0].(*syntax.RecordDecl)
	assert.Equal(t, "error", record.Name().Get())
	assert.True(t, record.Name().Escaped())
	assert.Equal(t, "int", record.Fields()[0].Name().Get())
}

func TestParseUnionDefault(t *testing.T) {
	t.Parallel()

	src := `record R { union { null, string } u = null; map<int> m = {"a": 1}; }`
	unit, err := syntax.Parse([]byte(src))
	require.NoError(t, err)

	record := unit.Decls()[0].(*syntax.RecordDecl)
	union, ok := record.Fields()[0].Type().(*syntax.UnionType)
	require.True(t, ok)
	require.Len(t, union.Branches(), 2)
	_, ok = record.Fields()[0].Default().(*syntax.JsonNull)
	assert.True(t, ok)

	obj, ok := record.Fields()[1].Default().(*syntax.JsonObject)
	require.True(t, ok)
	require.Len(t, obj.Entries(), 1)
	assert.Equal(t, "a", obj.Entries()[0].Key().Raw())
}

func TestOrphanDocs(t *testing.T) {
	t.Parallel()

	src := `
/** displaced */
/** attached */
record R { int x; /** dangling */ }
`
	unit, err := syntax.Parse([]byte(src))
	require.NoError(t, err)

	record := unit.Decls()[0].(*syntax.RecordDecl)
	assert.Equal(t, "attached", record.Doc())

	require.Len(t, unit.OrphanDocs(), 2)
	assert.Equal(t, "displaced", unit.OrphanDocs()[0].Text())
	assert.Equal(t, "dangling", unit.OrphanDocs()[1].Text())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	parseErr := func(src string) *syntax.Error {
		_, err := syntax.Parse([]byte(src))
		require.Error(t, err)
		var syntaxErr *syntax.Error
		require.ErrorAs(t, err, &syntaxErr)
		return syntaxErr
	}

	err := parseErr(`record R { int x }`)
	assert.Contains(t, err.Message(), "Expected ';'")

	err = parseErr(`protocol P { record R { } `)
	assert.Contains(t, err.Message(), "Expected '}'")

	err = parseErr(`widget W {}`)
	assert.Contains(t, err.Message(), "Expected one of")

	err = parseErr(`@x(1) import idl "a.avdl";`)
	assert.Contains(t, err.Message(), "not allowed on import")

	err = parseErr(`record R { int x = 99999999999999999999; }`)
	assert.Contains(t, err.Message(), "out of range")
}

func TestSpans(t *testing.T) {
	t.Parallel()

	src := `record Rec { int count; }`
	unit, err := syntax.Parse([]byte(src))
	require.NoError(t, err)

	record := unit.Decls()[0].(*syntax.RecordDecl)
	nameSpan := record.Name().Span()
	assert.Equal(t, uint32(7), nameSpan.Start())
	assert.Equal(t, uint32(3), nameSpan.Len())
	assert.Equal(t, "Rec", src[nameSpan.Start():nameSpan.End()])

	field := record.Fields()[0]
	fieldSpan := field.Span()
	assert.Equal(t, "int count;", src[fieldSpan.Start():fieldSpan.End()])

	// Accessors work directly on a returned span, without binding it
	// to a variable first.
	assert.Equal(t, uint32(7), record.Name().Span().Start())
	assert.Equal(t, uint32(3), syntax.NewSpan(1, 3).Len())
	assert.Equal(t, uint32(4), syntax.NewSpan(1, 3).End())
}
