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

// Package schema defines the resolved Avro schema model produced by the
// compiler: primitives, named types (record, enum, fixed), the anonymous
// container types (array, map, union), unresolved references, logical
// types, and protocols with their messages.
//
// Values of these types are built once and treated as immutable afterward,
// except for the single resolution pass that binds Reference targets. The
// compiler's registry owns the canonical instance of every named type; all
// other holders point at that instance.
package schema

import (
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindRecord
	KindEnum
	KindFixed
	KindArray
	KindMap
	KindUnion
	KindReference
	KindLogical
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindRecord:
		return "record"
	case KindEnum:
		return "enum"
	case KindFixed:
		return "fixed"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindReference:
		return "reference"
	case KindLogical:
		return "logical"
	default:
		return "unknown"
	}
}

func (k Kind) IsPrimitive() bool {
	return k <= KindString
}

// Schema is the closed variant type of the model. Concrete types are
// *Primitive, *Record, *Enum, *Fixed, *Array, *Map, *Union, *Reference,
// and *Logical.
type Schema interface {
	Kind() Kind

	// Props returns the extra properties attached at the site this
	// schema value was written. May return nil.
	Props() *Properties
}

// NamedSchema is a Record, Enum, or Fixed: a type addressed by its
// namespace-qualified full name.
type NamedSchema interface {
	Schema
	FullName() string
	TypeName() string
	TypeNamespace() string
	AliasNames() []string
}

// FullName joins a namespace and a simple name. An empty namespace
// yields the bare name.
func FullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// SplitFullName splits a dotted full name into namespace and simple name.
func SplitFullName(fullName string) (namespace, name string) {
	if idx := strings.LastIndexByte(fullName, '.'); idx >= 0 {
		return fullName[:idx], fullName[idx+1:]
	}
	return "", fullName
}

type Primitive struct {
	kind       Kind
	Properties Properties
}

var _ Schema = (*Primitive)(nil)

func NewPrimitive(kind Kind) *Primitive {
	if !kind.IsPrimitive() {
		panic("schema.NewPrimitive: kind is not primitive")
	}
	return &Primitive{kind: kind}
}

func (p *Primitive) Kind() Kind {
	return p.kind
}

func (p *Primitive) Props() *Properties {
	return &p.Properties
}

// PrimitiveKind returns the Kind for an Avro primitive type name, or
// false if the name does not denote a primitive.
func PrimitiveKind(name string) (Kind, bool) {
	switch name {
	case "null":
		return KindNull, true
	case "boolean":
		return KindBoolean, true
	case "int":
		return KindInt, true
	case "long":
		return KindLong, true
	case "float":
		return KindFloat, true
	case "double":
		return KindDouble, true
	case "bytes":
		return KindBytes, true
	case "string":
		return KindString, true
	}
	return 0, false
}

// PrimitiveNames lists the Avro primitive type names, in specification
// order.
var PrimitiveNames = []string{
	"null", "boolean", "int", "long", "float", "double", "bytes", "string",
}

type Order uint8

const (
	OrderNone Order = iota
	OrderAscending
	OrderDescending
	OrderIgnore
)

func (o Order) String() string {
	switch o {
	case OrderAscending:
		return "ascending"
	case OrderDescending:
		return "descending"
	case OrderIgnore:
		return "ignore"
	default:
		return ""
	}
}

type Field struct {
	Name       string
	Type       Schema
	Doc        string
	HasDefault bool
	Default    Value
	Order      Order
	Aliases    []string
	Properties Properties
}

type Record struct {
	Name       string
	Namespace  string
	Doc        string
	IsError    bool
	Fields     []*Field
	Aliases    []string
	Properties Properties
}

var _ NamedSchema = (*Record)(nil)

func (r *Record) Kind() Kind { return KindRecord }
func (r *Record) Props() *Properties { return &r.Properties }
func (r *Record) FullName() string { return FullName(r.Namespace, r.Name) }
func (r *Record) TypeName() string { return r.Name }
func (r *Record) TypeNamespace() string { return r.Namespace }
func (r *Record) AliasNames() []string { return r.Aliases }

func (r *Record) Field(name string) *Field {
	for _, field := range r.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

type Enum struct {
	Name       string
	Namespace  string
	Doc        string
	Symbols    []string
	Default    string
	Aliases    []string
	Properties Properties
}

var _ NamedSchema = (*Enum)(nil)

func (e *Enum) Kind() Kind { return KindEnum }
func (e *Enum) Props() *Properties { return &e.Properties }
func (e *Enum) FullName() string { return FullName(e.Namespace, e.Name) }
func (e *Enum) TypeName() string { return e.Name }
func (e *Enum) TypeNamespace() string { return e.Namespace }
func (e *Enum) AliasNames() []string { return e.Aliases }

func (e *Enum) HasSymbol(symbol string) bool {
	for _, s := range e.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

type Fixed struct {
	Name       string
	Namespace  string
	Size       uint32
	Aliases    []string
	Properties Properties
}

var _ NamedSchema = (*Fixed)(nil)

func (f *Fixed) Kind() Kind { return KindFixed }
func (f *Fixed) Props() *Properties { return &f.Properties }
func (f *Fixed) FullName() string { return FullName(f.Namespace, f.Name) }
func (f *Fixed) TypeName() string { return f.Name }
func (f *Fixed) TypeNamespace() string { return f.Namespace }
func (f *Fixed) AliasNames() []string { return f.Aliases }

type Array struct {
	Items      Schema
	Properties Properties
}

var _ Schema = (*Array)(nil)

func (a *Array) Kind() Kind { return KindArray }
func (a *Array) Props() *Properties { return &a.Properties }

type Map struct {
	Values     Schema
	Properties Properties
}

var _ Schema = (*Map)(nil)

func (m *Map) Kind() Kind { return KindMap }
func (m *Map) Props() *Properties { return &m.Properties }

type Union struct {
	Branches []Schema
}

var _ Schema = (*Union)(nil)

func (u *Union) Kind() Kind { return KindUnion }
func (u *Union) Props() *Properties { return nil }

// NullableBranch returns the single non-null branch of a two-branch
// nullable union, or nil if the union is not of that shape.
func (u *Union) NullableBranch() Schema {
	if len(u.Branches) != 2 {
		return nil
	}
	if u.Branches[0].Kind() == KindNull {
		return u.Branches[1]
	}
	if u.Branches[1].Kind() == KindNull {
		return u.Branches[0]
	}
	return nil
}

// Reference names a named type without containing its definition. Target
// is nil until the registry's resolution pass binds it. Properties
// attached at the reference site stay on the Reference; they are never
// merged into the target type.
type Reference struct {
	Name       string
	Properties Properties
	Target     NamedSchema
}

var _ Schema = (*Reference)(nil)

func (r *Reference) Kind() Kind { return KindReference }
func (r *Reference) Props() *Properties { return &r.Properties }

// Logical type kinds recognized by the compiler.
const (
	LogicalDecimal              = "decimal"
	LogicalDate                 = "date"
	LogicalTimeMillis           = "time-millis"
	LogicalTimestampMillis      = "timestamp-millis"
	LogicalLocalTimestampMillis = "local-timestamp-millis"
	LogicalDuration             = "duration"
	LogicalUUID                 = "uuid"
)

type Logical struct {
	LogicalType string
	Base        Schema
	Precision   uint32
	Scale       uint32
	Properties  Properties
}

var _ Schema = (*Logical)(nil)

func (l *Logical) Kind() Kind { return KindLogical }
func (l *Logical) Props() *Properties { return &l.Properties }

type Message struct {
	Name       string
	Doc        string
	Request    []*Field
	Response   Schema
	Errors     []string
	OneWay     bool
	Properties Properties
}

type Protocol struct {
	Name       string
	Namespace  string
	Doc        string
	Types      []NamedSchema
	Messages   []*Message
	Properties Properties
}

func (p *Protocol) FullName() string {
	return FullName(p.Namespace, p.Name)
}

func (p *Protocol) Message(name string) *Message {
	for _, msg := range p.Messages {
		if msg.Name == name {
			return msg
		}
	}
	return nil
}
