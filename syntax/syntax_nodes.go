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

package syntax

import (
	"strings"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) End() uint32 {
	return s.start + s.len
}

func (s Span) Len() uint32 {
	return s.len
}

func spanBetween(from, to Span) Span {
	if to.End() < from.start {
		return from
	}
	return Span{
		start: from.start,
		len:   to.End() - from.start,
	}
}

type Node interface {
	Span() Span
}

// Ident is a simple identifier. Escaped identifiers (`record`) drop
// their backticks; Escaped() reports the original spelling.
type Ident struct {
	name    string
	escaped bool
	start   uint32
}

var _ Node = (*Ident)(nil)

func (n *Ident) Get() string {
	return n.name
}

func (n *Ident) Escaped() bool {
	return n.escaped
}

func (n *Ident) Span() Span {
	nameLen := uint32(len(n.name))
	if n.escaped {
		nameLen += 2
	}
	return Span{
		start: n.start,
		len:   nameLen,
	}
}

// QualName is a possibly-dotted name such as `org.example.Record`.
type QualName struct {
	segments []*Ident
}

var _ Node = (*QualName)(nil)

func (n *QualName) Segments() []*Ident {
	return n.segments
}

func (n *QualName) Get() string {
	if len(n.segments) == 1 {
		return n.segments[0].Get()
	}
	var buf strings.Builder
	for ii, seg := range n.segments {
		if ii > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(seg.Get())
	}
	return buf.String()
}

func (n *QualName) IsQualified() bool {
	return len(n.segments) > 1
}

// Escaped reports whether any segment used keyword escaping.
func (n *QualName) Escaped() bool {
	for _, seg := range n.segments {
		if seg.Escaped() {
			return true
		}
	}
	return false
}

func (n *QualName) Span() Span {
	first := n.segments[0].Span()
	last := n.segments[len(n.segments)-1].Span()
	return spanBetween(first, last)
}

// TextLit is a double-quoted string literal. Raw() returns the text
// between the quotes with escape sequences still encoded; the compiler
// decodes them so malformed escapes get compiler diagnostics.
type TextLit struct {
	raw   string
	start uint32
}

var _ Node = (*TextLit)(nil)

func (n *TextLit) Raw() string {
	return n.raw
}

func (n *TextLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)) + 2,
	}
}

type IntLit struct {
	raw   string
	value int64
	start uint32
}

var _ Node = (*IntLit)(nil)

func (n *IntLit) Value() int64 {
	return n.value
}

func (n *IntLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

type FloatLit struct {
	raw   string
	value float64
	start uint32
}

var _ Node = (*FloatLit)(nil)

func (n *FloatLit) Value() float64 {
	return n.value
}

func (n *FloatLit) Span() Span {
	return Span{
		start: n.start,
		len:   uint32(len(n.raw)),
	}
}

// JsonValue is a JSON literal appearing as a field default, annotation
// argument, or message parameter default.
type JsonValue interface {
	Node
	jsonValueNode()
}

type JsonNull struct {
	span Span
}

var _ JsonValue = (*JsonNull)(nil)

func (n *JsonNull) jsonValueNode() {}
func (n *JsonNull) Span() Span { return n.span }

type JsonBool struct {
	value bool
	span  Span
}

var _ JsonValue = (*JsonBool)(nil)

func (n *JsonBool) jsonValueNode() {}
func (n *JsonBool) Span() Span { return n.span }

func (n *JsonBool) Get() bool {
	return n.value
}

type JsonNumber struct {
	isInt    bool
	intVal   int64
	floatVal float64
	span     Span
}

var _ JsonValue = (*JsonNumber)(nil)

func (n *JsonNumber) jsonValueNode() {}
func (n *JsonNumber) Span() Span { return n.span }

func (n *JsonNumber) IsInt() bool {
	return n.isInt
}

func (n *JsonNumber) Int() int64 {
	return n.intVal
}

func (n *JsonNumber) Float() float64 {
	if n.isInt {
		return float64(n.intVal)
	}
	return n.floatVal
}

type JsonString struct {
	lit *TextLit
}

var _ JsonValue = (*JsonString)(nil)

func (n *JsonString) jsonValueNode() {}
func (n *JsonString) Span() Span { return n.lit.Span() }

func (n *JsonString) Lit() *TextLit {
	return n.lit
}

type JsonArray struct {
	items []JsonValue
	span  Span
}

var _ JsonValue = (*JsonArray)(nil)

func (n *JsonArray) jsonValueNode() {}
func (n *JsonArray) Span() Span { return n.span }

func (n *JsonArray) Items() []JsonValue {
	return n.items
}

type JsonObjectEntry struct {
	key   *TextLit
	value JsonValue
}

func (n *JsonObjectEntry) Key() *TextLit {
	return n.key
}

func (n *JsonObjectEntry) Value() JsonValue {
	return n.value
}

type JsonObject struct {
	entries []*JsonObjectEntry
	span    Span
}

var _ JsonValue = (*JsonObject)(nil)

func (n *JsonObject) jsonValueNode() {}
func (n *JsonObject) Span() Span { return n.span }

func (n *JsonObject) Entries() []*JsonObjectEntry {
	return n.entries
}

// Annotation is a schema property written as `@name(value)`.
type Annotation struct {
	name  *QualName
	value JsonValue
	span  Span
}

var _ Node = (*Annotation)(nil)

func (n *Annotation) Span() Span {
	return n.span
}

func (n *Annotation) Name() *QualName {
	return n.name
}

func (n *Annotation) Value() JsonValue {
	return n.value
}

// TypeExpr is a type usage: primitive or named reference, array, map,
// union, optional (`T?`), decimal sugar, or void (message results only).
type TypeExpr interface {
	Node
	Annotations() []*Annotation
}

type TypeRef struct {
	annotations []*Annotation
	name        *QualName
}

var _ TypeExpr = (*TypeRef)(nil)

func (n *TypeRef) Span() Span {
	return n.name.Span()
}

func (n *TypeRef) Annotations() []*Annotation {
	return n.annotations
}

func (n *TypeRef) Name() *QualName {
	return n.name
}

type ArrayType struct {
	annotations []*Annotation
	items       TypeExpr
	span        Span
}

var _ TypeExpr = (*ArrayType)(nil)

func (n *ArrayType) Span() Span { return n.span }
func (n *ArrayType) Annotations() []*Annotation { return n.annotations }

func (n *ArrayType) Items() TypeExpr {
	return n.items
}

type MapType struct {
	annotations []*Annotation
	values      TypeExpr
	span        Span
}

var _ TypeExpr = (*MapType)(nil)

func (n *MapType) Span() Span { return n.span }
func (n *MapType) Annotations() []*Annotation { return n.annotations }

func (n *MapType) Values() TypeExpr {
	return n.values
}

type UnionType struct {
	annotations []*Annotation
	branches    []TypeExpr
	span        Span
}

var _ TypeExpr = (*UnionType)(nil)

func (n *UnionType) Span() Span { return n.span }
func (n *UnionType) Annotations() []*Annotation { return n.annotations }

func (n *UnionType) Branches() []TypeExpr {
	return n.branches
}

type OptionalType struct {
	elem TypeExpr
	span Span
}

var _ TypeExpr = (*OptionalType)(nil)

func (n *OptionalType) Span() Span { return n.span }

func (n *OptionalType) Annotations() []*Annotation {
	return n.elem.Annotations()
}

func (n *OptionalType) Elem() TypeExpr {
	return n.elem
}

type DecimalType struct {
	annotations []*Annotation
	precision   *IntLit
	scale       *IntLit
	span        Span
}

var _ TypeExpr = (*DecimalType)(nil)

func (n *DecimalType) Span() Span { return n.span }
func (n *DecimalType) Annotations() []*Annotation { return n.annotations }

func (n *DecimalType) Precision() *IntLit {
	return n.precision
}

func (n *DecimalType) Scale() *IntLit {
	return n.scale
}

type VoidType struct {
	span Span
}

var _ TypeExpr = (*VoidType)(nil)

func (n *VoidType) Span() Span { return n.span }
func (n *VoidType) Annotations() []*Annotation { return nil }

// Decl is a declaration inside a protocol body or schema unit.
type Decl interface {
	Node
	declNode()
	DeclAnnotations() []*Annotation
}

type RecordDecl struct {
	annotations []*Annotation
	doc         string
	isError     bool
	name        *Ident
	fields      []*FieldDecl
	span        Span
}

var _ Decl = (*RecordDecl)(nil)

func (n *RecordDecl) declNode() {}
func (n *RecordDecl) Span() Span { return n.span }
func (n *RecordDecl) DeclAnnotations() []*Annotation { return n.annotations }

func (n *RecordDecl) Doc() string { return n.doc }
func (n *RecordDecl) IsError() bool { return n.isError }
func (n *RecordDecl) Name() *Ident { return n.name }
func (n *RecordDecl) Fields() []*FieldDecl { return n.fields }

type FieldDecl struct {
	annotations []*Annotation
	doc         string
	typeExpr    TypeExpr
	name        *Ident
	defaultVal  JsonValue
	span        Span
}

var _ Node = (*FieldDecl)(nil)

func (n *FieldDecl) Span() Span { return n.span }
func (n *FieldDecl) Annotations() []*Annotation { return n.annotations }

func (n *FieldDecl) Doc() string { return n.doc }
func (n *FieldDecl) Type() TypeExpr { return n.typeExpr }
func (n *FieldDecl) Name() *Ident { return n.name }
func (n *FieldDecl) Default() JsonValue { return n.defaultVal }

type EnumSymbol struct {
	name *Ident
}

func (n *EnumSymbol) Name() *Ident {
	return n.name
}

type EnumDecl struct {
	annotations []*Annotation
	doc         string
	name        *Ident
	symbols     []*EnumSymbol
	defaultSym  *Ident
	span        Span
}

var _ Decl = (*EnumDecl)(nil)

func (n *EnumDecl) declNode() {}
func (n *EnumDecl) Span() Span { return n.span }
func (n *EnumDecl) DeclAnnotations() []*Annotation { return n.annotations }

func (n *EnumDecl) Doc() string { return n.doc }
func (n *EnumDecl) Name() *Ident { return n.name }
func (n *EnumDecl) Symbols() []*EnumSymbol { return n.symbols }

// DefaultSymbol returns the `= SYMBOL` default, or nil.
func (n *EnumDecl) DefaultSymbol() *Ident {
	return n.defaultSym
}

type FixedDecl struct {
	annotations []*Annotation
	doc         string
	name        *Ident
	size        *IntLit
	span        Span
}

var _ Decl = (*FixedDecl)(nil)

func (n *FixedDecl) declNode() {}
func (n *FixedDecl) Span() Span { return n.span }
func (n *FixedDecl) DeclAnnotations() []*Annotation { return n.annotations }

func (n *FixedDecl) Doc() string { return n.doc }
func (n *FixedDecl) Name() *Ident { return n.name }
func (n *FixedDecl) Size() *IntLit { return n.size }

type ImportKind uint8

const (
	ImportIdl ImportKind = iota
	ImportProtocol
	ImportSchema
)

func (k ImportKind) String() string {
	switch k {
	case ImportIdl:
		return "idl"
	case ImportProtocol:
		return "protocol"
	case ImportSchema:
		return "schema"
	default:
		return "unknown"
	}
}

type ImportDecl struct {
	kind ImportKind
	path *TextLit
	span Span
}

var _ Decl = (*ImportDecl)(nil)

func (n *ImportDecl) declNode() {}
func (n *ImportDecl) Span() Span { return n.span }
func (n *ImportDecl) DeclAnnotations() []*Annotation { return nil }

func (n *ImportDecl) Kind() ImportKind { return n.kind }
func (n *ImportDecl) Path() *TextLit { return n.path }

type FormalParam struct {
	typeExpr   TypeExpr
	name       *Ident
	defaultVal JsonValue
}

func (n *FormalParam) Type() TypeExpr { return n.typeExpr }
func (n *FormalParam) Name() *Ident { return n.name }
func (n *FormalParam) Default() JsonValue { return n.defaultVal }

type MessageDecl struct {
	annotations []*Annotation
	doc         string
	response    TypeExpr
	name        *Ident
	params      []*FormalParam
	throws      []*QualName
	oneway      bool
	span        Span
}

var _ Node = (*MessageDecl)(nil)

func (n *MessageDecl) Span() Span { return n.span }
func (n *MessageDecl) Annotations() []*Annotation { return n.annotations }

func (n *MessageDecl) Doc() string { return n.doc }
func (n *MessageDecl) Response() TypeExpr { return n.response }
func (n *MessageDecl) Name() *Ident { return n.name }
func (n *MessageDecl) Params() []*FormalParam { return n.params }
func (n *MessageDecl) Throws() []*QualName { return n.throws }
func (n *MessageDecl) OneWay() bool { return n.oneway }

type ProtocolDecl struct {
	annotations []*Annotation
	doc         string
	name        *Ident
	decls       []Decl
	messages    []*MessageDecl
	span        Span
}

var _ Node = (*ProtocolDecl)(nil)

func (n *ProtocolDecl) Span() Span { return n.span }
func (n *ProtocolDecl) Annotations() []*Annotation { return n.annotations }

func (n *ProtocolDecl) Doc() string { return n.doc }
func (n *ProtocolDecl) Name() *Ident { return n.name }
func (n *ProtocolDecl) Decls() []Decl { return n.decls }
func (n *ProtocolDecl) Messages() []*MessageDecl { return n.messages }

// OrphanDoc is a doc comment that did not attach to any declaration.
// The compiler reports these as warnings.
type OrphanDoc struct {
	text string
	span Span
}

func (n *OrphanDoc) Span() Span { return n.span }
func (n *OrphanDoc) Text() string { return n.text }

// Unit is one parsed source file: either a protocol declaration or a
// bare sequence of type declarations (schema syntax).
type Unit struct {
	protocol   *ProtocolDecl
	decls      []Decl
	orphanDocs []*OrphanDoc
	span       Span
}

var _ Node = (*Unit)(nil)

func (n *Unit) Span() Span { return n.span }

// Protocol returns the protocol declaration, or nil for a schema unit.
func (n *Unit) Protocol() *ProtocolDecl {
	return n.protocol
}

// Decls returns the top-level declarations of a schema unit.
func (n *Unit) Decls() []Decl {
	return n.decls
}

func (n *Unit) OrphanDocs() []*OrphanDoc {
	return n.orphanDocs
}

// cleanDoc strips the comment delimiters and the conventional leading
// asterisks from a doc comment body.
func cleanDoc(raw string) string {
	body := strings.TrimPrefix(raw, "/**")
	body = strings.TrimSuffix(body, "*/")
	lines := strings.Split(body, "\n")
	for ii, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		if len(line) > 0 && line[0] == ' ' {
			line = line[1:]
		}
		lines[ii] = line
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
