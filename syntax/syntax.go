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

// Package syntax tokenizes and parses Avro IDL source into a typed
// syntax tree. Every node carries a byte span into the original source.
// The parser performs no semantic checks; name validation, namespace
// handling, and escape decoding belong to the compiler.
package syntax

import (
	"strconv"
)

const maxNestingDepth = 200

type ParseOption interface {
	apply(*ParseOptions)
}

type ParseOptions struct{}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOptions := &ParseOptions{}
	for _, opt := range opts {
		opt.apply(parseOptions)
	}
	return parseOptions
}

func Parse(src []byte, opts ...ParseOption) (*Unit, error) {
	return NewParseOptions(opts...).ParseUnit(src)
}

func (opts *ParseOptions) ParseUnit(src []byte) (*Unit, error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	ctx := &parseCtx{
		opts:   opts,
		rest:   src,
		tokens: tokens,
	}
	unit := parseUnit(ctx)
	if ctx.err != nil {
		return nil, ctx.err
	}
	return unit, nil
}

type parseCtx struct {
	opts   *ParseOptions
	rest   []byte
	tokens *Tokens
	offset uint32

	haveToken bool
	token     Token
	err       error

	pendingDoc     string
	pendingDocSpan Span
	havePendingDoc bool
	orphanDocs     []*OrphanDoc

	depth int
}

// ensureToken advances past trivia to the next significant token,
// capturing doc comments along the way. A doc comment displaced by a
// later doc comment is recorded as orphaned.
func (ctx *parseCtx) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	for {
		if !ctx.haveToken {
			if err := ctx.tokens.Next(&ctx.token); err != nil {
				ctx.err = err
				return ctx.err
			}
			ctx.haveToken = true
		}
		switch ctx.token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT:
			ctx.advance()
		case T_DOC_COMMENT:
			ctx.flushPendingDoc()
			ctx.pendingDoc = cleanDoc(string(ctx.tokenText()))
			ctx.pendingDocSpan = ctx.tokenSpan()
			ctx.havePendingDoc = true
			ctx.advance()
		default:
			return nil
		}
	}
}

func (ctx *parseCtx) tokenText() []byte {
	return ctx.rest[:ctx.token.Len]
}

func (ctx *parseCtx) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx) advance() {
	ctx.rest = ctx.rest[ctx.token.Len:]
	ctx.offset += uint32(ctx.token.Len)
	ctx.haveToken = false
}

func (ctx *parseCtx) takeDoc() string {
	if !ctx.havePendingDoc {
		return ""
	}
	ctx.havePendingDoc = false
	return ctx.pendingDoc
}

func (ctx *parseCtx) flushPendingDoc() {
	if !ctx.havePendingDoc {
		return
	}
	ctx.orphanDocs = append(ctx.orphanDocs, &OrphanDoc{
		text: ctx.pendingDoc,
		span: ctx.pendingDocSpan,
	})
	ctx.havePendingDoc = false
}

func (ctx *parseCtx) atKind(kind TokenKind) bool {
	if ctx.ensureToken() != nil {
		return false
	}
	return ctx.token.Kind == kind
}

// atKeyword reports whether the current token is the given bare
// (unescaped) identifier. Escaped identifiers never match keywords.
func (ctx *parseCtx) atKeyword(keyword string) bool {
	if !ctx.atKind(T_IDENT) {
		return false
	}
	return string(ctx.tokenText()) == keyword
}

func (ctx *parseCtx) sigil(want string, kind TokenKind) {
	if ctx.ensureToken() != nil {
		return
	}
	if ctx.token.Kind != kind {
		ctx.err = errExpectedSigil(
			want,
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return
	}
	ctx.advance()
}

func (ctx *parseCtx) trySigil(kind TokenKind) bool {
	if !ctx.atKind(kind) {
		return false
	}
	ctx.advance()
	return true
}

func (ctx *parseCtx) keyword(keyword string) {
	if ctx.ensureToken() != nil {
		return
	}
	if !ctx.atKeyword(keyword) {
		ctx.err = errExpectedKeyword(
			keyword,
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return
	}
	ctx.advance()
}

func (ctx *parseCtx) ident() *Ident {
	if ctx.ensureToken() != nil {
		return nil
	}
	var node *Ident
	switch ctx.token.Kind {
	case T_IDENT:
		node = &Ident{
			name:  string(ctx.tokenText()),
			start: ctx.offset,
		}
	case T_ESC_IDENT:
		text := ctx.tokenText()
		node = &Ident{
			name:    string(text[1 : len(text)-1]),
			escaped: true,
			start:   ctx.offset,
		}
	default:
		ctx.err = errExpectedIdent(
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}
	ctx.advance()
	return node
}

func (ctx *parseCtx) qualName() *QualName {
	first := ctx.ident()
	if first == nil {
		return nil
	}
	segments := []*Ident{first}
	for ctx.trySigil(T_DOT) {
		seg := ctx.ident()
		if seg == nil {
			return nil
		}
		segments = append(segments, seg)
	}
	return &QualName{segments: segments}
}

func (ctx *parseCtx) textLit() *TextLit {
	if ctx.ensureToken() != nil {
		return nil
	}
	if ctx.token.Kind != T_TEXT_LIT {
		ctx.err = errExpectedTextLit(
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}
	text := ctx.tokenText()
	node := &TextLit{
		raw:   string(text[1 : len(text)-1]),
		start: ctx.offset,
	}
	ctx.advance()
	return node
}

func (ctx *parseCtx) intLit() *IntLit {
	if ctx.ensureToken() != nil {
		return nil
	}
	if ctx.token.Kind != T_INT_LIT {
		ctx.err = errExpectedIntLit(
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}
	raw := string(ctx.tokenText())
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		ctx.err = errIntLitOutOfRange(raw, ctx.tokenSpan())
		return nil
	}
	node := &IntLit{
		raw:   raw,
		value: value,
		start: ctx.offset,
	}
	ctx.advance()
	return node
}

func (ctx *parseCtx) enterNesting() bool {
	ctx.depth++
	if ctx.depth > maxNestingDepth {
		if ctx.err == nil {
			ctx.err = errNestingTooDeep(ctx.tokenSpan())
		}
		return false
	}
	return true
}

func (ctx *parseCtx) leaveNesting() {
	ctx.depth--
}

func parseUnit(ctx *parseCtx) *Unit {
	if ctx.ensureToken() != nil {
		return nil
	}
	srcLen := uint32(len(ctx.rest)) + ctx.offset

	annotations := parseAnnotations(ctx)
	if ctx.err != nil {
		return nil
	}

	unit := &Unit{
		span: Span{start: 0, len: srcLen},
	}

	if ctx.atKeyword("protocol") {
		unit.protocol = parseProtocol(ctx, annotations)
	} else {
		first := parseDecl(ctx, annotations)
		if ctx.err != nil {
			return nil
		}
		unit.decls = append(unit.decls, first)
		for {
			if ctx.ensureToken() != nil {
				return nil
			}
			if ctx.token.Kind == T_EOF {
				break
			}
			annotations := parseAnnotations(ctx)
			decl := parseDecl(ctx, annotations)
			if ctx.err != nil {
				return nil
			}
			unit.decls = append(unit.decls, decl)
		}
	}
	if ctx.err != nil {
		return nil
	}

	if ctx.ensureToken() != nil {
		return nil
	}
	if ctx.token.Kind != T_EOF {
		ctx.err = errUnexpectedTrailing(
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}

	ctx.flushPendingDoc()
	unit.orphanDocs = ctx.orphanDocs
	return unit
}

func parseAnnotations(ctx *parseCtx) []*Annotation {
	var annotations []*Annotation
	for ctx.atKind(T_AT) {
		start := ctx.offset
		ctx.advance()
		name := ctx.qualName()
		if name == nil {
			return nil
		}
		ctx.sigil("(", T_OPEN_PAREN)
		value := parseJsonValue(ctx)
		ctx.sigil(")", T_CLOSE_PAREN)
		if ctx.err != nil {
			return nil
		}
		annotations = append(annotations, &Annotation{
			name:  name,
			value: value,
			span: Span{
				start: start,
				len:   ctx.offset - start,
			},
		})
	}
	return annotations
}

func parseProtocol(ctx *parseCtx, annotations []*Annotation) *ProtocolDecl {
	start := ctx.offset
	if len(annotations) > 0 {
		start = annotations[0].span.start
	}
	doc := ctx.takeDoc()
	ctx.keyword("protocol")
	name := ctx.ident()
	ctx.sigil("{", T_OPEN_CURL)
	if ctx.err != nil {
		return nil
	}

	protocol := &ProtocolDecl{
		annotations: annotations,
		doc:         doc,
		name:        name,
	}

	for {
		if ctx.ensureToken() != nil {
			return nil
		}
		if ctx.token.Kind == T_CLOSE_CURL {
			ctx.flushPendingDoc()
			ctx.advance()
			break
		}
		if ctx.token.Kind == T_EOF {
			ctx.sigil("}", T_CLOSE_CURL)
			return nil
		}

		itemAnnotations := parseAnnotations(ctx)
		if ctx.err != nil {
			return nil
		}
		if ctx.ensureToken() != nil {
			return nil
		}

		switch {
		case ctx.atKeyword("record"), ctx.atKeyword("error"),
			ctx.atKeyword("enum"), ctx.atKeyword("fixed"),
			ctx.atKeyword("import"):
			decl := parseDecl(ctx, itemAnnotations)
			if ctx.err != nil {
				return nil
			}
			protocol.decls = append(protocol.decls, decl)
		default:
			message := parseMessage(ctx, itemAnnotations)
			if ctx.err != nil {
				return nil
			}
			protocol.messages = append(protocol.messages, message)
		}
	}

	protocol.span = Span{
		start: start,
		len:   ctx.offset - start,
	}
	return protocol
}

func parseDecl(ctx *parseCtx, annotations []*Annotation) Decl {
	if ctx.ensureToken() != nil {
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedDeclaration(
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}

	switch string(ctx.tokenText()) {
	case "record":
		return parseRecord(ctx, annotations, false)
	case "error":
		return parseRecord(ctx, annotations, true)
	case "enum":
		return parseEnum(ctx, annotations)
	case "fixed":
		return parseFixed(ctx, annotations)
	case "import":
		return parseImport(ctx, annotations)
	}
	ctx.err = errExpectedOneOf(
		[]string{"'record'", "'error'", "'enum'", "'fixed'", "'import'", "'protocol'"},
		ctx.token.Kind,
		string(ctx.tokenText()),
		ctx.tokenSpan(),
	)
	return nil
}

func parseRecord(ctx *parseCtx, annotations []*Annotation, isError bool) Decl {
	start := declStart(ctx, annotations)
	doc := ctx.takeDoc()
	ctx.advance() // 'record' or 'error'
	name := ctx.ident()
	ctx.sigil("{", T_OPEN_CURL)
	if ctx.err != nil {
		return nil
	}

	var fields []*FieldDecl
	for {
		if ctx.ensureToken() != nil {
			return nil
		}
		if ctx.token.Kind == T_CLOSE_CURL {
			ctx.flushPendingDoc()
			ctx.advance()
			break
		}
		if ctx.token.Kind == T_EOF {
			ctx.sigil("}", T_CLOSE_CURL)
			return nil
		}
		field := parseField(ctx)
		if ctx.err != nil {
			return nil
		}
		fields = append(fields, field)
	}

	return &RecordDecl{
		annotations: annotations,
		doc:         doc,
		isError:     isError,
		name:        name,
		fields:      fields,
		span: Span{
			start: start,
			len:   ctx.offset - start,
		},
	}
}

func parseField(ctx *parseCtx) *FieldDecl {
	start := ctx.offset
	annotations := parseAnnotations(ctx)
	if ctx.err != nil {
		return nil
	}
	doc := ctx.takeDoc()
	typeExpr := parseType(ctx)
	name := ctx.ident()
	var defaultVal JsonValue
	if ctx.trySigil(T_EQ) {
		defaultVal = parseJsonValue(ctx)
	}
	ctx.sigil(";", T_SEMI)
	if ctx.err != nil {
		return nil
	}
	return &FieldDecl{
		annotations: annotations,
		doc:         doc,
		typeExpr:    typeExpr,
		name:        name,
		defaultVal:  defaultVal,
		span: Span{
			start: start,
			len:   ctx.offset - start,
		},
	}
}

func parseEnum(ctx *parseCtx, annotations []*Annotation) Decl {
	start := declStart(ctx, annotations)
	doc := ctx.takeDoc()
	ctx.advance() // 'enum'
	name := ctx.ident()
	ctx.sigil("{", T_OPEN_CURL)
	if ctx.err != nil {
		return nil
	}

	var symbols []*EnumSymbol
	for {
		if ctx.ensureToken() != nil {
			return nil
		}
		if ctx.token.Kind == T_CLOSE_CURL {
			ctx.flushPendingDoc()
			ctx.advance()
			break
		}
		symbol := ctx.ident()
		if symbol == nil {
			return nil
		}
		symbols = append(symbols, &EnumSymbol{name: symbol})
		if !ctx.trySigil(T_COMMA) {
			ctx.sigil("}", T_CLOSE_CURL)
			if ctx.err != nil {
				return nil
			}
			break
		}
	}

	var defaultSym *Ident
	if ctx.trySigil(T_EQ) {
		defaultSym = ctx.ident()
		ctx.sigil(";", T_SEMI)
	} else {
		// A trailing semicolon after the closing brace is accepted
		// but not required.
		ctx.trySigil(T_SEMI)
	}
	if ctx.err != nil {
		return nil
	}

	return &EnumDecl{
		annotations: annotations,
		doc:         doc,
		name:        name,
		symbols:     symbols,
		defaultSym:  defaultSym,
		span: Span{
			start: start,
			len:   ctx.offset - start,
		},
	}
}

func parseFixed(ctx *parseCtx, annotations []*Annotation) Decl {
	start := declStart(ctx, annotations)
	doc := ctx.takeDoc()
	ctx.advance() // 'fixed'
	name := ctx.ident()
	ctx.sigil("(", T_OPEN_PAREN)
	size := ctx.intLit()
	ctx.sigil(")", T_CLOSE_PAREN)
	ctx.sigil(";", T_SEMI)
	if ctx.err != nil {
		return nil
	}
	return &FixedDecl{
		annotations: annotations,
		doc:         doc,
		name:        name,
		size:        size,
		span: Span{
			start: start,
			len:   ctx.offset - start,
		},
	}
}

func parseImport(ctx *parseCtx, annotations []*Annotation) Decl {
	if len(annotations) > 0 {
		ctx.err = errAnnotatedImport(annotations[0].span)
		return nil
	}
	start := ctx.offset
	ctx.advance() // 'import'
	if ctx.ensureToken() != nil {
		return nil
	}

	var kind ImportKind
	switch {
	case ctx.atKeyword("idl"):
		kind = ImportIdl
	case ctx.atKeyword("protocol"):
		kind = ImportProtocol
	case ctx.atKeyword("schema"):
		kind = ImportSchema
	default:
		ctx.err = errExpectedImportKind(
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}
	ctx.advance()

	path := ctx.textLit()
	ctx.sigil(";", T_SEMI)
	if ctx.err != nil {
		return nil
	}
	return &ImportDecl{
		kind: kind,
		path: path,
		span: Span{
			start: start,
			len:   ctx.offset - start,
		},
	}
}

func parseMessage(ctx *parseCtx, annotations []*Annotation) *MessageDecl {
	start := declStart(ctx, annotations)
	doc := ctx.takeDoc()

	var response TypeExpr
	if ctx.atKeyword("void") {
		response = &VoidType{span: ctx.tokenSpan()}
		ctx.advance()
	} else {
		response = parseType(ctx)
	}
	name := ctx.ident()
	ctx.sigil("(", T_OPEN_PAREN)
	if ctx.err != nil {
		return nil
	}

	var params []*FormalParam
	if !ctx.trySigil(T_CLOSE_PAREN) {
		for {
			paramType := parseType(ctx)
			paramName := ctx.ident()
			var paramDefault JsonValue
			if ctx.trySigil(T_EQ) {
				paramDefault = parseJsonValue(ctx)
			}
			if ctx.err != nil {
				return nil
			}
			params = append(params, &FormalParam{
				typeExpr:   paramType,
				name:       paramName,
				defaultVal: paramDefault,
			})
			if !ctx.trySigil(T_COMMA) {
				break
			}
		}
		ctx.sigil(")", T_CLOSE_PAREN)
	}

	var throws []*QualName
	oneway := false
	switch {
	case ctx.atKeyword("throws"):
		ctx.advance()
		for {
			errName := ctx.qualName()
			if errName == nil {
				return nil
			}
			throws = append(throws, errName)
			if !ctx.trySigil(T_COMMA) {
				break
			}
		}
	case ctx.atKeyword("oneway"):
		ctx.advance()
		oneway = true
	}

	ctx.sigil(";", T_SEMI)
	if ctx.err != nil {
		return nil
	}
	return &MessageDecl{
		annotations: annotations,
		doc:         doc,
		response:    response,
		name:        name,
		params:      params,
		throws:      throws,
		oneway:      oneway,
		span: Span{
			start: start,
			len:   ctx.offset - start,
		},
	}
}

func parseType(ctx *parseCtx) TypeExpr {
	if !ctx.enterNesting() {
		return nil
	}
	defer ctx.leaveNesting()

	start := ctx.offset
	annotations := parseAnnotations(ctx)
	if ctx.err != nil {
		return nil
	}
	if ctx.ensureToken() != nil {
		return nil
	}

	var base TypeExpr
	switch {
	case ctx.atKeyword("array"):
		ctx.advance()
		ctx.sigil("<", T_LT)
		items := parseType(ctx)
		ctx.sigil(">", T_GT)
		if ctx.err != nil {
			return nil
		}
		base = &ArrayType{
			annotations: annotations,
			items:       items,
			span:        Span{start: start, len: ctx.offset - start},
		}
	case ctx.atKeyword("map"):
		ctx.advance()
		ctx.sigil("<", T_LT)
		values := parseType(ctx)
		ctx.sigil(">", T_GT)
		if ctx.err != nil {
			return nil
		}
		base = &MapType{
			annotations: annotations,
			values:      values,
			span:        Span{start: start, len: ctx.offset - start},
		}
	case ctx.atKeyword("union"):
		ctx.advance()
		ctx.sigil("{", T_OPEN_CURL)
		var branches []TypeExpr
		for {
			branch := parseType(ctx)
			if ctx.err != nil {
				return nil
			}
			branches = append(branches, branch)
			if !ctx.trySigil(T_COMMA) {
				break
			}
		}
		ctx.sigil("}", T_CLOSE_CURL)
		if ctx.err != nil {
			return nil
		}
		base = &UnionType{
			annotations: annotations,
			branches:    branches,
			span:        Span{start: start, len: ctx.offset - start},
		}
	case ctx.atKeyword("decimal"):
		// `decimal(p, s)` is sugar; a bare `decimal` is an ordinary
		// type reference.
		declIdent := ctx.ident()
		if ctx.atKind(T_OPEN_PAREN) {
			ctx.advance()
			precision := ctx.intLit()
			ctx.sigil(",", T_COMMA)
			scale := ctx.intLit()
			ctx.sigil(")", T_CLOSE_PAREN)
			if ctx.err != nil {
				return nil
			}
			base = &DecimalType{
				annotations: annotations,
				precision:   precision,
				scale:       scale,
				span:        Span{start: start, len: ctx.offset - start},
			}
		} else {
			base = &TypeRef{
				annotations: annotations,
				name:        &QualName{segments: []*Ident{declIdent}},
			}
		}
	case ctx.token.Kind == T_IDENT, ctx.token.Kind == T_ESC_IDENT:
		name := ctx.qualName()
		if name == nil {
			return nil
		}
		base = &TypeRef{
			annotations: annotations,
			name:        name,
		}
	default:
		ctx.err = errExpectedTypeName(
			ctx.token.Kind,
			string(ctx.tokenText()),
			ctx.tokenSpan(),
		)
		return nil
	}

	if ctx.atKind(T_QUESTION) {
		ctx.advance()
		return &OptionalType{
			elem: base,
			span: Span{start: start, len: ctx.offset - start},
		}
	}
	return base
}

func parseJsonValue(ctx *parseCtx) JsonValue {
	if !ctx.enterNesting() {
		return nil
	}
	defer ctx.leaveNesting()

	if ctx.ensureToken() != nil {
		return nil
	}

	switch ctx.token.Kind {
	case T_TEXT_LIT:
		lit := ctx.textLit()
		if lit == nil {
			return nil
		}
		return &JsonString{lit: lit}

	case T_INT_LIT:
		span := ctx.tokenSpan()
		raw := string(ctx.tokenText())
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.err = errIntLitOutOfRange(raw, span)
			return nil
		}
		ctx.advance()
		return &JsonNumber{
			isInt:  true,
			intVal: value,
			span:   span,
		}

	case T_FLOAT_LIT:
		span := ctx.tokenSpan()
		raw := string(ctx.tokenText())
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ctx.err = errFloatLitInvalid(raw, span)
			return nil
		}
		ctx.advance()
		return &JsonNumber{
			floatVal: value,
			span:     span,
		}

	case T_IDENT:
		span := ctx.tokenSpan()
		switch string(ctx.tokenText()) {
		case "null":
			ctx.advance()
			return &JsonNull{span: span}
		case "true":
			ctx.advance()
			return &JsonBool{value: true, span: span}
		case "false":
			ctx.advance()
			return &JsonBool{value: false, span: span}
		}

	case T_OPEN_SQUARE:
		start := ctx.offset
		ctx.advance()
		var items []JsonValue
		if !ctx.trySigil(T_CLOSE_SQUARE) {
			for {
				item := parseJsonValue(ctx)
				if ctx.err != nil {
					return nil
				}
				items = append(items, item)
				if !ctx.trySigil(T_COMMA) {
					break
				}
			}
			ctx.sigil("]", T_CLOSE_SQUARE)
			if ctx.err != nil {
				return nil
			}
		}
		return &JsonArray{
			items: items,
			span:  Span{start: start, len: ctx.offset - start},
		}

	case T_OPEN_CURL:
		start := ctx.offset
		ctx.advance()
		var entries []*JsonObjectEntry
		if !ctx.trySigil(T_CLOSE_CURL) {
			for {
				key := ctx.textLit()
				ctx.sigil(":", T_COLON)
				value := parseJsonValue(ctx)
				if ctx.err != nil {
					return nil
				}
				entries = append(entries, &JsonObjectEntry{
					key:   key,
					value: value,
				})
				if !ctx.trySigil(T_COMMA) {
					break
				}
			}
			ctx.sigil("}", T_CLOSE_CURL)
			if ctx.err != nil {
				return nil
			}
		}
		return &JsonObject{
			entries: entries,
			span:    Span{start: start, len: ctx.offset - start},
		}
	}

	ctx.err = errExpectedJsonValue(
		ctx.token.Kind,
		string(ctx.tokenText()),
		ctx.tokenSpan(),
	)
	return nil
}

func declStart(ctx *parseCtx, annotations []*Annotation) uint32 {
	if len(annotations) > 0 {
		return annotations[0].span.start
	}
	return ctx.offset
}
