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

package avsc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"go.avroidl.org/avroidl/schema"
)

// Error describes a malformed .avsc or .avpr document. Path locates the
// offending value within the document (for example "types.2.fields.0").
type Error struct {
	path    string
	message string
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	if err.path == "" {
		return err.message
	}
	return fmt.Sprintf("%s: %s", err.path, err.message)
}

func (err *Error) Path() string {
	return err.path
}

func (err *Error) Message() string {
	return err.message
}

func errAt(path, format string, a ...any) error {
	return &Error{path: path, message: fmt.Sprintf(format, a...)}
}

// errNumericRange reports an integer attribute that does not fit the
// model's width for that attribute.
func errNumericRange(path, key, raw string, max uint64) error {
	return errAt(path, "value %s for %q out of range [0, %d]", raw, key, max)
}

// DecodeSchema parses a .avsc document. Named types nested in the
// document inherit the namespace of their enclosing type, matching the
// Avro schema resolution rules.
func DecodeSchema(data []byte) (schema.Schema, error) {
	if !gjson.ValidBytes(data) {
		return nil, errAt("", "document is not valid JSON")
	}
	return decodeSchema(gjson.ParseBytes(data), "", "")
}

// DecodeProtocol parses a .avpr document.
func DecodeProtocol(data []byte) (*schema.Protocol, error) {
	if !gjson.ValidBytes(data) {
		return nil, errAt("", "document is not valid JSON")
	}
	return decodeProtocol(gjson.ParseBytes(data))
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func decodeSchema(r gjson.Result, namespace, path string) (schema.Schema, error) {
	switch r.Type {
	case gjson.String:
		return decodeTypeName(r.String(), namespace), nil
	case gjson.JSON:
		if r.IsArray() {
			return decodeUnion(r, namespace, path)
		}
		if r.IsObject() {
			return decodeObjectSchema(r, namespace, path)
		}
	}
	return nil, errAt(path, "expected a schema (string, array, or object), got %s", r.Raw)
}

func decodeTypeName(name, namespace string) schema.Schema {
	if kind, ok := schema.PrimitiveKind(name); ok {
		return schema.NewPrimitive(kind)
	}
	if !strings.Contains(name, ".") && namespace != "" {
		name = namespace + "." + name
	}
	return &schema.Reference{Name: name}
}

func decodeUnion(r gjson.Result, namespace, path string) (schema.Schema, error) {
	union := &schema.Union{}
	seen := map[string]bool{}
	var err error
	ii := 0
	r.ForEach(func(_, item gjson.Result) bool {
		itemPath := childPath(path, strconv.Itoa(ii))
		ii += 1
		if item.IsArray() {
			err = errAt(itemPath, "unions may not immediately contain other unions")
			return false
		}
		var branch schema.Schema
		branch, err = decodeSchema(item, namespace, itemPath)
		if err != nil {
			return false
		}
		key := unionBranchKey(branch)
		if seen[key] {
			err = errAt(itemPath, "duplicate union branch %q", key)
			return false
		}
		seen[key] = true
		union.Branches = append(union.Branches, branch)
		return true
	})
	if err != nil {
		return nil, err
	}
	return union, nil
}

// unionBranchKey yields the identity a union branch is deduplicated by:
// named types by full name, everything else by its kind.
func unionBranchKey(s schema.Schema) string {
	switch s := s.(type) {
	case schema.NamedSchema:
		return s.FullName()
	case *schema.Reference:
		return s.Name
	case *schema.Logical:
		return s.Base.Kind().String()
	default:
		return s.Kind().String()
	}
}

func decodeObjectSchema(r gjson.Result, namespace, path string) (schema.Schema, error) {
	typeName := r.Get("type")
	if !typeName.Exists() {
		return nil, errAt(path, `schema object is missing "type"`)
	}
	if typeName.Type != gjson.String {
		return nil, errAt(childPath(path, "type"), "expected a string, got %s", typeName.Raw)
	}

	switch typeName.String() {
	case "record":
		return decodeRecord(r, namespace, path, false)
	case "error":
		return decodeRecord(r, namespace, path, true)
	case "enum":
		return decodeEnum(r, namespace, path)
	case "fixed":
		return decodeFixed(r, namespace, path)
	case "array":
		items := r.Get("items")
		if !items.Exists() {
			return nil, errAt(path, `array schema is missing "items"`)
		}
		itemSchema, err := decodeSchema(items, namespace, childPath(path, "items"))
		if err != nil {
			return nil, err
		}
		arr := &schema.Array{Items: itemSchema}
		decodeProps(r, &arr.Properties, "type", "items")
		return arr, nil
	case "map":
		values := r.Get("values")
		if !values.Exists() {
			return nil, errAt(path, `map schema is missing "values"`)
		}
		valueSchema, err := decodeSchema(values, namespace, childPath(path, "values"))
		if err != nil {
			return nil, err
		}
		m := &schema.Map{Values: valueSchema}
		decodeProps(r, &m.Properties, "type", "values")
		return m, nil
	}

	if kind, ok := schema.PrimitiveKind(typeName.String()); ok {
		prim := schema.NewPrimitive(kind)
		decodeProps(r, &prim.Properties, "type")
		if err := checkDecimalRange(r, path); err != nil {
			return nil, err
		}
		return schema.PromoteLogical(prim), nil
	}

	// An object whose type is a bare name is a reference carrying
	// reference-site properties.
	ref := decodeTypeName(typeName.String(), namespace)
	if reference, ok := ref.(*schema.Reference); ok {
		decodeProps(r, &reference.Properties, "type")
		return reference, nil
	}
	return ref, nil
}

// nameAndNamespace resolves the name/namespace keys of a named type. A
// dotted name key overrides any namespace key; an absent namespace
// inherits the enclosing one.
func nameAndNamespace(r gjson.Result, enclosing, path string) (name, namespace string, err error) {
	nameVal := r.Get("name")
	if !nameVal.Exists() || nameVal.Type != gjson.String {
		return "", "", errAt(path, `named type requires a string "name"`)
	}
	name = nameVal.String()
	if strings.Contains(name, ".") {
		namespace, name = schema.SplitFullName(name)
		return name, namespace, nil
	}
	if nsVal := r.Get("namespace"); nsVal.Exists() {
		if nsVal.Type != gjson.String {
			return "", "", errAt(childPath(path, "namespace"), "expected a string, got %s", nsVal.Raw)
		}
		return name, nsVal.String(), nil
	}
	return name, enclosing, nil
}

func decodeRecord(r gjson.Result, enclosing, path string, isError bool) (schema.Schema, error) {
	name, namespace, err := nameAndNamespace(r, enclosing, path)
	if err != nil {
		return nil, err
	}
	record := &schema.Record{
		Name:      name,
		Namespace: namespace,
		Doc:       r.Get("doc").String(),
		IsError:   isError,
		Aliases:   decodeStringList(r.Get("aliases")),
	}

	fields := r.Get("fields")
	if !fields.Exists() || !fields.IsArray() {
		return nil, errAt(path, `record schema requires a "fields" array`)
	}
	ii := 0
	fields.ForEach(func(_, fieldVal gjson.Result) bool {
		fieldPath := childPath(childPath(path, "fields"), strconv.Itoa(ii))
		ii += 1
		var field *schema.Field
		field, err = decodeField(fieldVal, namespace, fieldPath)
		if err != nil {
			return false
		}
		record.Fields = append(record.Fields, field)
		return true
	})
	if err != nil {
		return nil, err
	}
	decodeProps(r, &record.Properties, "type", "name", "namespace", "doc", "fields", "aliases")
	return record, nil
}

func decodeField(r gjson.Result, namespace, path string) (*schema.Field, error) {
	if !r.IsObject() {
		return nil, errAt(path, "expected a field object, got %s", r.Raw)
	}
	nameVal := r.Get("name")
	if !nameVal.Exists() || nameVal.Type != gjson.String {
		return nil, errAt(path, `field requires a string "name"`)
	}
	typeVal := r.Get("type")
	if !typeVal.Exists() {
		return nil, errAt(path, `field %q is missing "type"`, nameVal.String())
	}
	fieldType, err := decodeSchema(typeVal, namespace, childPath(path, "type"))
	if err != nil {
		return nil, err
	}

	field := &schema.Field{
		Name:    nameVal.String(),
		Type:    fieldType,
		Doc:     r.Get("doc").String(),
		Aliases: decodeStringList(r.Get("aliases")),
	}
	if defaultVal := r.Get("default"); defaultVal.Exists() {
		field.HasDefault = true
		field.Default = decodeValue(defaultVal)
	}
	if orderVal := r.Get("order"); orderVal.Exists() {
		switch orderVal.String() {
		case "ascending":
			field.Order = schema.OrderAscending
		case "descending":
			field.Order = schema.OrderDescending
		case "ignore":
			field.Order = schema.OrderIgnore
		default:
			return nil, errAt(childPath(path, "order"), "invalid field order %s", orderVal.Raw)
		}
	}
	decodeProps(r, &field.Properties, "name", "type", "doc", "default", "order", "aliases")
	return field, nil
}

func decodeEnum(r gjson.Result, enclosing, path string) (schema.Schema, error) {
	name, namespace, err := nameAndNamespace(r, enclosing, path)
	if err != nil {
		return nil, err
	}
	symbolsVal := r.Get("symbols")
	if !symbolsVal.Exists() || !symbolsVal.IsArray() {
		return nil, errAt(path, `enum schema requires a "symbols" array`)
	}
	enum := &schema.Enum{
		Name:      name,
		Namespace: namespace,
		Doc:       r.Get("doc").String(),
		Symbols:   decodeStringList(symbolsVal),
		Aliases:   decodeStringList(r.Get("aliases")),
	}
	for ii, symbol := range enum.Symbols {
		for _, prev := range enum.Symbols[:ii] {
			if prev == symbol {
				return nil, errAt(childPath(path, "symbols"), "duplicate enum symbol %q", symbol)
			}
		}
	}
	if defaultVal := r.Get("default"); defaultVal.Exists() {
		enum.Default = defaultVal.String()
		if !enum.HasSymbol(enum.Default) {
			return nil, errAt(
				childPath(path, "default"),
				"default %q is not a symbol of enum %q", enum.Default, enum.FullName(),
			)
		}
	}
	decodeProps(r, &enum.Properties, "type", "name", "namespace", "doc", "symbols", "default", "aliases")
	return enum, nil
}

func decodeFixed(r gjson.Result, enclosing, path string) (schema.Schema, error) {
	name, namespace, err := nameAndNamespace(r, enclosing, path)
	if err != nil {
		return nil, err
	}
	size, err := decodeUint32(r.Get("size"), childPath(path, "size"), "size")
	if err != nil {
		return nil, err
	}
	fixed := &schema.Fixed{
		Name:      name,
		Namespace: namespace,
		Size:      size,
		Aliases:   decodeStringList(r.Get("aliases")),
	}
	decodeProps(r, &fixed.Properties, "type", "name", "namespace", "size", "aliases")
	if err := checkDecimalRange(r, path); err != nil {
		return nil, err
	}
	return schema.PromoteLogical(fixed), nil
}

// decodeUint32 performs checked narrowing of an integer attribute.
func decodeUint32(r gjson.Result, path, key string) (uint32, error) {
	if !r.Exists() {
		return 0, errAt(path, "missing required attribute %q", key)
	}
	if r.Type != gjson.Number {
		return 0, errAt(path, "expected an integer for %q, got %s", key, r.Raw)
	}
	value, err := strconv.ParseUint(r.Raw, 10, 64)
	if err != nil {
		return 0, errAt(path, "expected a non-negative integer for %q, got %s", key, r.Raw)
	}
	if value > math.MaxUint32 {
		return 0, errNumericRange(path, key, r.Raw, math.MaxUint32)
	}
	return uint32(value), nil
}

// checkDecimalRange rejects decimal precision or scale values that do
// not fit the model before the lenient promotion pass sees them.
func checkDecimalRange(r gjson.Result, path string) error {
	if r.Get("logicalType").String() != schema.LogicalDecimal {
		return nil
	}
	for _, key := range []string{"precision", "scale"} {
		attr := r.Get(key)
		if !attr.Exists() || attr.Type != gjson.Number {
			continue
		}
		value, err := strconv.ParseUint(attr.Raw, 10, 64)
		if err != nil {
			continue
		}
		if value > math.MaxInt32 {
			return errNumericRange(childPath(path, key), key, attr.Raw, math.MaxInt32)
		}
	}
	return nil
}

func decodeStringList(r gjson.Result) []string {
	if !r.Exists() || !r.IsArray() {
		return nil
	}
	var out []string
	r.ForEach(func(_, item gjson.Result) bool {
		out = append(out, item.String())
		return true
	})
	return out
}

// decodeProps collects, in document order, every key that is not one of
// the node's well-known keys.
func decodeProps(r gjson.Result, props *schema.Properties, known ...string) {
	r.ForEach(func(key, value gjson.Result) bool {
		for _, k := range known {
			if key.String() == k {
				return true
			}
		}
		props.Add(key.String(), decodeValue(value))
		return true
	})
}

func decodeValue(r gjson.Result) schema.Value {
	switch r.Type {
	case gjson.Null:
		return schema.NullValue()
	case gjson.True:
		return schema.BoolValue(true)
	case gjson.False:
		return schema.BoolValue(false)
	case gjson.Number:
		if longVal, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return schema.LongValue(longVal)
		}
		return schema.DoubleValue(r.Float())
	case gjson.String:
		return schema.StringValue(r.String())
	}
	if r.IsArray() {
		var items []schema.Value
		r.ForEach(func(_, item gjson.Result) bool {
			items = append(items, decodeValue(item))
			return true
		})
		return schema.ArrayValue(items)
	}
	var entries []schema.ObjectEntry
	r.ForEach(func(key, value gjson.Result) bool {
		entries = append(entries, schema.ObjectEntry{
			Key:   key.String(),
			Value: decodeValue(value),
		})
		return true
	})
	return schema.ObjectValue(entries)
}

func decodeProtocol(r gjson.Result) (*schema.Protocol, error) {
	nameVal := r.Get("protocol")
	if !nameVal.Exists() || nameVal.Type != gjson.String {
		return nil, errAt("", `protocol document requires a string "protocol"`)
	}
	protocol := &schema.Protocol{
		Name:      nameVal.String(),
		Namespace: r.Get("namespace").String(),
		Doc:       r.Get("doc").String(),
	}
	if strings.Contains(protocol.Name, ".") {
		protocol.Namespace, protocol.Name = schema.SplitFullName(protocol.Name)
	}

	var err error
	if typesVal := r.Get("types"); typesVal.Exists() {
		if !typesVal.IsArray() {
			return nil, errAt("types", "expected an array, got %s", typesVal.Raw)
		}
		ii := 0
		typesVal.ForEach(func(_, typeVal gjson.Result) bool {
			typePath := childPath("types", strconv.Itoa(ii))
			ii += 1
			var decoded schema.Schema
			decoded, err = decodeSchema(typeVal, protocol.Namespace, typePath)
			if err != nil {
				return false
			}
			named, ok := decoded.(schema.NamedSchema)
			if !ok {
				err = errAt(typePath, "protocol types must be named types")
				return false
			}
			protocol.Types = append(protocol.Types, named)
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	if messagesVal := r.Get("messages"); messagesVal.Exists() {
		if !messagesVal.IsObject() {
			return nil, errAt("messages", "expected an object, got %s", messagesVal.Raw)
		}
		messagesVal.ForEach(func(key, messageVal gjson.Result) bool {
			messagePath := childPath("messages", key.String())
			var message *schema.Message
			message, err = decodeMessage(key.String(), messageVal, protocol.Namespace, messagePath)
			if err != nil {
				return false
			}
			protocol.Messages = append(protocol.Messages, message)
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	decodeProps(r, &protocol.Properties, "protocol", "namespace", "doc", "types", "messages")
	return protocol, nil
}

func decodeMessage(name string, r gjson.Result, namespace, path string) (*schema.Message, error) {
	if !r.IsObject() {
		return nil, errAt(path, "expected a message object, got %s", r.Raw)
	}
	message := &schema.Message{
		Name:   name,
		Doc:    r.Get("doc").String(),
		OneWay: r.Get("one-way").Bool(),
	}

	var err error
	requestVal := r.Get("request")
	if !requestVal.Exists() || !requestVal.IsArray() {
		return nil, errAt(path, `message requires a "request" array`)
	}
	ii := 0
	requestVal.ForEach(func(_, paramVal gjson.Result) bool {
		paramPath := childPath(childPath(path, "request"), strconv.Itoa(ii))
		ii += 1
		var param *schema.Field
		param, err = decodeField(paramVal, namespace, paramPath)
		if err != nil {
			return false
		}
		message.Request = append(message.Request, param)
		return true
	})
	if err != nil {
		return nil, err
	}

	responseVal := r.Get("response")
	if !responseVal.Exists() {
		return nil, errAt(path, `message is missing "response"`)
	}
	message.Response, err = decodeSchema(responseVal, namespace, childPath(path, "response"))
	if err != nil {
		return nil, err
	}

	if errorsVal := r.Get("errors"); errorsVal.Exists() {
		for _, errName := range decodeStringList(errorsVal) {
			if !strings.Contains(errName, ".") && namespace != "" && errName != "string" {
				errName = namespace + "." + errName
			}
			message.Errors = append(message.Errors, errName)
		}
	}

	decodeProps(r, &message.Properties, "doc", "request", "response", "errors", "one-way")
	return message, nil
}
