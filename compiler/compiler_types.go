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
	"math"

	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

var reservedNames = map[string]bool{
	"array": true, "boolean": true, "bytes": true, "date": true,
	"decimal": true, "double": true, "enum": true, "error": true,
	"false": true, "fixed": true, "float": true, "idl": true,
	"import": true, "int": true, "long": true, "map": true,
	"null": true, "oneway": true, "protocol": true, "record": true,
	"schema": true, "string": true, "throws": true, "true": true,
	"union": true, "void": true,
}

func isValidNameSegment(name string) bool {
	if name == "" {
		return false
	}
	for ii := 0; ii < len(name); ii++ {
		c := name[ii]
		alpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		if !alpha && (ii == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// declName validates a type or protocol name. Reserved words are
// allowed only when written as escaped identifiers.
func (c *compiler) declName(ident *syntax.Ident) string {
	name := ident.Get()
	if !isValidNameSegment(name) {
		c.err(errInvalidName(name, ident.Span()))
	} else if reservedNames[name] && !ident.Escaped() {
		c.err(errReservedName(name, ident.Span()))
	}
	return name
}

// fieldName validates a field, parameter, message, or symbol name.
// Reserved type keywords are legal here.
func (c *compiler) fieldName(ident *syntax.Ident) string {
	name := ident.Get()
	if !isValidNameSegment(name) {
		c.err(errInvalidName(name, ident.Span()))
	}
	return name
}

func (c *compiler) checkNamespace(namespace string, span syntax.Span) {
	if namespace == "" {
		return
	}
	start := 0
	for ii := 0; ii <= len(namespace); ii++ {
		if ii == len(namespace) || namespace[ii] == '.' {
			if !isValidNameSegment(namespace[start:ii]) {
				c.err(errInvalidName(namespace, span))
				return
			}
			start = ii + 1
		}
	}
}

type annTarget uint8

const (
	annTargetProtocol annTarget = iota
	annTargetNamed
	annTargetField
	annTargetMessage
)

// splitAnns is the result of sorting a declaration's annotations into
// the attributes the compiler understands and the free-form properties
// it passes through. Field declarations are special: their free-form
// annotations describe the field's type, not the field, and are kept
// as raw annotations so they can be applied to the compiled type.
type splitAnns struct {
	namespace    string
	hasNamespace bool
	aliases      []string
	order        schema.Order
	props        schema.Properties
	typeAnns     []*syntax.Annotation
}

func (c *compiler) splitAnnotations(anns []*syntax.Annotation, target annTarget) splitAnns {
	var out splitAnns
	for _, ann := range anns {
		name := ann.Name().Get()
		switch {
		case name == "namespace" && (target == annTargetProtocol || target == annTargetNamed):
			if out.hasNamespace {
				c.err(errDuplicateNamespace(ann.Span()))
				continue
			}
			lit, ok := ann.Value().(*syntax.JsonString)
			if !ok {
				c.err(errAnnotationValue("namespace", "a string value", ann.Span()))
				continue
			}
			out.hasNamespace = true
			out.namespace = c.text(lit.Lit())
			c.checkNamespace(out.namespace, ann.Span())

		case name == "aliases" && (target == annTargetNamed || target == annTargetField):
			aliases, ok := c.stringArray(ann.Value())
			if !ok {
				c.err(errAnnotationValue("aliases", "an array of strings", ann.Span()))
				continue
			}
			out.aliases = aliases

		case name == "order" && target == annTargetField:
			lit, ok := ann.Value().(*syntax.JsonString)
			if !ok {
				c.err(errAnnotationValue("order", `one of "ascending", "descending", or "ignore"`, ann.Span()))
				continue
			}
			switch c.text(lit.Lit()) {
			case "ascending":
				out.order = schema.OrderAscending
			case "descending":
				out.order = schema.OrderDescending
			case "ignore":
				out.order = schema.OrderIgnore
			default:
				c.err(errAnnotationValue("order", `one of "ascending", "descending", or "ignore"`, ann.Span()))
			}

		default:
			if target == annTargetField {
				out.typeAnns = append(out.typeAnns, ann)
				continue
			}
			if !out.props.Add(name, c.compileValue(ann.Value())) {
				c.err(errDuplicateProperty(name, ann.Span()))
			}
		}
	}
	return out
}

func (c *compiler) stringArray(value syntax.JsonValue) ([]string, bool) {
	arr, ok := value.(*syntax.JsonArray)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr.Items()))
	for _, item := range arr.Items() {
		str, ok := item.(*syntax.JsonString)
		if !ok {
			return nil, false
		}
		out = append(out, c.text(str.Lit()))
	}
	return out, true
}

// attachProps converts type-site annotations into extra properties.
func (c *compiler) attachProps(props *schema.Properties, anns []*syntax.Annotation) {
	for _, ann := range anns {
		name := ann.Name().Get()
		if !props.Add(name, c.compileValue(ann.Value())) {
			c.err(errDuplicateProperty(name, ann.Span()))
		}
	}
}

func (c *compiler) compileRecord(decl *syntax.RecordDecl, enclosing, file string) {
	anns := c.splitAnnotations(decl.DeclAnnotations(), annTargetNamed)
	namespace := enclosing
	if anns.hasNamespace {
		namespace = anns.namespace
	}
	record := &schema.Record{
		Name:       c.declName(decl.Name()),
		Namespace:  namespace,
		Doc:        decl.Doc(),
		IsError:    decl.IsError(),
		Aliases:    anns.aliases,
		Properties: anns.props,
	}
	for _, fieldDecl := range decl.Fields() {
		field := c.compileField(fieldDecl, namespace)
		if record.Field(field.Name) != nil {
			c.err(errDuplicateFieldName(field.Name, record.Name, fieldDecl.Name().Span()))
			continue
		}
		record.Fields = append(record.Fields, field)
	}
	c.registry.register(c, record, file, decl.Name().Span())
}

func (c *compiler) compileField(decl *syntax.FieldDecl, namespace string) *schema.Field {
	anns := c.splitAnnotations(decl.Annotations(), annTargetField)
	field := &schema.Field{
		Name:    c.fieldName(decl.Name()),
		Doc:     decl.Doc(),
		Order:   anns.order,
		Aliases: anns.aliases,
	}
	if decl.Default() != nil {
		field.HasDefault = true
		field.Default = c.compileValue(decl.Default())
	}
	field.Type = c.compileFieldType(decl.Type(), namespace, field)
	field.Type = c.applyTypeAnnotations(field.Type, anns.typeAnns)
	c.fieldSpans[field] = decl.Span()
	return field
}

// applyTypeAnnotations moves annotations written ahead of a field's
// type onto the type itself. For a nullable union they land on the
// non-null branch, wherever canonicalization placed it; a plain union
// has no branch to target, so the annotation is ignored with a
// warning. Primitives re-run logical promotion afterwards, since the
// annotation may have supplied the logicalType.
func (c *compiler) applyTypeAnnotations(s schema.Schema, anns []*syntax.Annotation) schema.Schema {
	if len(anns) == 0 {
		return s
	}
	if union, ok := s.(*schema.Union); ok {
		if union.NullableBranch() == nil {
			for _, ann := range anns {
				c.warn(warnIgnoredUnionAnnotation(ann.Name().Get(), ann.Span()))
			}
			return union
		}
		for ii, branch := range union.Branches {
			if branch.Kind() != schema.KindNull {
				union.Branches[ii] = c.applyTypeAnnotations(branch, anns)
			}
		}
		return union
	}
	c.attachProps(s.Props(), anns)
	if prim, ok := s.(*schema.Primitive); ok {
		return schema.PromoteLogical(prim)
	}
	return s
}

func (c *compiler) compileParam(param *syntax.FormalParam, namespace string) *schema.Field {
	field := &schema.Field{
		Name: c.fieldName(param.Name()),
	}
	if param.Default() != nil {
		field.HasDefault = true
		field.Default = c.compileValue(param.Default())
	}
	field.Type = c.compileFieldType(param.Type(), namespace, field)
	c.fieldSpans[field] = param.Name().Span()
	return field
}

// compileFieldType canonicalizes the optional sugar: `T?` becomes the
// union [null, T], or [T, null] when the field declares a non-null
// default, so the default always matches the union's first branch.
// Annotations written on the element type stay on the non-null branch
// in either arrangement.
func (c *compiler) compileFieldType(expr syntax.TypeExpr, namespace string, field *schema.Field) schema.Schema {
	opt, ok := expr.(*syntax.OptionalType)
	if !ok {
		return c.compileType(expr, namespace)
	}
	elem := c.compileType(opt.Elem(), namespace)
	if elem.Kind() == schema.KindUnion {
		c.err(errNestedUnion(opt.Span()))
		return elem
	}
	null := schema.NewPrimitive(schema.KindNull)
	if field.HasDefault && !field.Default.IsNull() {
		return &schema.Union{Branches: []schema.Schema{elem, null}}
	}
	return &schema.Union{Branches: []schema.Schema{null, elem}}
}

func (c *compiler) compileType(expr syntax.TypeExpr, namespace string) schema.Schema {
	switch expr := expr.(type) {
	case *syntax.TypeRef:
		name := expr.Name().Get()
		if kind, ok := schema.PrimitiveKind(name); ok && !expr.Name().IsQualified() && !expr.Name().Escaped() {
			prim := schema.NewPrimitive(kind)
			c.attachProps(&prim.Properties, expr.Annotations())
			return schema.PromoteLogical(prim)
		}
		ref := &schema.Reference{Name: name}
		c.attachProps(&ref.Properties, expr.Annotations())
		c.registry.addRef(ref, namespace, c.file, expr.Span())
		return ref

	case *syntax.ArrayType:
		arr := &schema.Array{Items: c.compileType(expr.Items(), namespace)}
		c.attachProps(&arr.Properties, expr.Annotations())
		return arr

	case *syntax.MapType:
		m := &schema.Map{Values: c.compileType(expr.Values(), namespace)}
		c.attachProps(&m.Properties, expr.Annotations())
		return m

	case *syntax.UnionType:
		return c.compileUnion(expr, namespace)

	case *syntax.OptionalType:
		// Optional outside a field position, such as array<string?>.
		elem := c.compileType(expr.Elem(), namespace)
		if elem.Kind() == schema.KindUnion {
			c.err(errNestedUnion(expr.Span()))
			return elem
		}
		return &schema.Union{Branches: []schema.Schema{
			schema.NewPrimitive(schema.KindNull),
			elem,
		}}

	case *syntax.DecimalType:
		return c.compileDecimal(expr)

	case *syntax.VoidType:
		return schema.NewPrimitive(schema.KindNull)
	}
	panic("compileType: unhandled type expression")
}

func (c *compiler) compileUnion(expr *syntax.UnionType, namespace string) schema.Schema {
	for _, ann := range expr.Annotations() {
		c.warn(warnIgnoredUnionAnnotation(ann.Name().Get(), ann.Span()))
	}
	if len(expr.Branches()) == 0 {
		c.err(errEmptyUnion(expr.Span()))
		return &schema.Union{}
	}
	union := &schema.Union{}
	seen := map[string]bool{}
	for _, branchExpr := range expr.Branches() {
		switch branchExpr.(type) {
		case *syntax.UnionType, *syntax.OptionalType:
			c.err(errNestedUnion(branchExpr.Span()))
			continue
		}
		branch := c.compileType(branchExpr, namespace)
		key := unionBranchKey(branch)
		if seen[key] {
			c.err(errDuplicateUnionBranch(key, branchExpr.Span()))
			continue
		}
		seen[key] = true
		union.Branches = append(union.Branches, branch)
	}
	return union
}

// unionBranchKey is the identity branches are deduplicated by: named
// types and references by name, logical types by their base, everything
// else by kind.
func unionBranchKey(s schema.Schema) string {
	switch s := s.(type) {
	case *schema.Reference:
		return s.Name
	case *schema.Logical:
		return s.Base.Kind().String()
	case schema.NamedSchema:
		return s.FullName()
	default:
		return s.Kind().String()
	}
}

func (c *compiler) compileDecimal(expr *syntax.DecimalType) schema.Schema {
	precision := expr.Precision().Value()
	scale := int64(0)
	if expr.Scale() != nil {
		scale = expr.Scale().Value()
	}
	if precision < 1 || precision > math.MaxInt32 {
		c.err(errNumericRange("decimal precision", precision, 1, math.MaxInt32, expr.Precision().Span()))
		precision = 1
		scale = 0
	} else if scale < 0 || scale > precision {
		c.err(errInvalidDecimal(precision, scale, expr.Scale().Span()))
		scale = 0
	}
	logical := &schema.Logical{
		LogicalType: schema.LogicalDecimal,
		Base:        schema.NewPrimitive(schema.KindBytes),
		Precision:   uint32(precision),
		Scale:       uint32(scale),
	}
	c.attachProps(&logical.Properties, expr.Annotations())
	return logical
}

func (c *compiler) compileEnum(decl *syntax.EnumDecl, enclosing, file string) {
	anns := c.splitAnnotations(decl.DeclAnnotations(), annTargetNamed)
	namespace := enclosing
	if anns.hasNamespace {
		namespace = anns.namespace
	}
	enum := &schema.Enum{
		Name:       c.declName(decl.Name()),
		Namespace:  namespace,
		Doc:        decl.Doc(),
		Aliases:    anns.aliases,
		Properties: anns.props,
	}
	if len(decl.Symbols()) == 0 {
		c.err(errEmptyEnum(enum.Name, decl.Span()))
	}
	for _, symbol := range decl.Symbols() {
		name := c.fieldName(symbol.Name())
		if enum.HasSymbol(name) {
			c.err(errDuplicateEnumSymbol(name, enum.Name, symbol.Name().Span()))
			continue
		}
		enum.Symbols = append(enum.Symbols, name)
	}
	if defaultSym := decl.DefaultSymbol(); defaultSym != nil {
		enum.Default = defaultSym.Get()
		if !enum.HasSymbol(enum.Default) {
			c.err(errInvalidEnumDefault(enum.Default, enum.Name, defaultSym.Span()))
		}
	}
	c.registry.register(c, enum, file, decl.Name().Span())
}

func (c *compiler) compileFixed(decl *syntax.FixedDecl, enclosing, file string) {
	anns := c.splitAnnotations(decl.DeclAnnotations(), annTargetNamed)
	namespace := enclosing
	if anns.hasNamespace {
		namespace = anns.namespace
	}
	size := decl.Size().Value()
	if size < 0 || size > math.MaxUint32 {
		c.err(errNumericRange("fixed size", size, 0, math.MaxUint32, decl.Size().Span()))
		size = 0
	}
	fixed := &schema.Fixed{
		Name:       c.declName(decl.Name()),
		Namespace:  namespace,
		Size:       uint32(size),
		Aliases:    anns.aliases,
		Properties: anns.props,
	}
	schema.PromoteLogical(fixed)
	c.registry.register(c, fixed, file, decl.Name().Span())
}
