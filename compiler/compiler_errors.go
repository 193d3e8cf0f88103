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
	"fmt"
	"strings"

	"go.avroidl.org/avroidl/syntax"
)

// Error is a compile diagnostic. Span locates the offending source text
// in the unit named by File; diagnostics raised against imported JSON
// documents carry a zero span, since those documents have no source
// offsets. Help, when non-empty, is a one-line suggestion. Related
// holds subordinate diagnostics, such as the individual unresolved
// references bundled under a resolution failure.
type Error struct {
	code    uint32
	message string
	span    syntax.Span
	file    string
	help    string
	related []*Error
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

func (err *Error) File() string {
	return err.file
}

func (err *Error) Help() string {
	return err.help
}

func (err *Error) Related() []*Error {
	return err.related
}

func errInvalidEscape(escape string, span syntax.Span) error {
	return &Error{
		code:    3000,
		message: fmt.Sprintf("Invalid escape sequence %q in string literal", escape),
		span:    span,
	}
}

func errInvalidName(name string, span syntax.Span) error {
	return &Error{
		code:    3001,
		message: fmt.Sprintf("Invalid name %q", name),
		span:    span,
		help:    "names must match [A-Za-z_][A-Za-z0-9_]* in every dotted segment",
	}
}

func errReservedName(name string, span syntax.Span) error {
	return &Error{
		code:    3002,
		message: fmt.Sprintf("%q is a reserved word and may not be used as a name", name),
		span:    span,
		help:    fmt.Sprintf("write `%s` (with backticks) to use the reserved word as a name", name),
	}
}

func errDuplicateNamespace(span syntax.Span) error {
	return &Error{
		code:    3003,
		message: "Duplicate @namespace annotation",
		span:    span,
	}
}

func errAnnotationValue(name, want string, span syntax.Span) error {
	return &Error{
		code:    3004,
		message: fmt.Sprintf("Annotation @%s requires %s", name, want),
		span:    span,
	}
}

func errDuplicateProperty(key string, span syntax.Span) error {
	return &Error{
		code:    3005,
		message: fmt.Sprintf("Duplicate property %q", key),
		span:    span,
	}
}

func errDuplicateDefinition(fullName string, span syntax.Span) error {
	return &Error{
		code:    3006,
		message: fmt.Sprintf("Type %q is defined more than once", fullName),
		span:    span,
	}
}

func errUnresolvedReferences(related []*Error) error {
	noun := "reference"
	if len(related) > 1 {
		noun = "references"
	}
	span := syntax.Span{}
	if len(related) > 0 {
		span = related[0].span
	}
	return &Error{
		code:    3007,
		message: fmt.Sprintf("%d unresolved type %s", len(related), noun),
		span:    span,
		related: related,
	}
}

func errUnresolvedReference(name, file, help string, span syntax.Span) *Error {
	return &Error{
		code:    3008,
		message: fmt.Sprintf("Unknown type %q", name),
		span:    span,
		file:    file,
		help:    help,
	}
}

func errDuplicateEnumSymbol(symbol, enumName string, span syntax.Span) error {
	return &Error{
		code:    3009,
		message: fmt.Sprintf("Duplicate symbol %q in enum %q", symbol, enumName),
		span:    span,
	}
}

func errInvalidEnumDefault(symbol, enumName string, span syntax.Span) error {
	return &Error{
		code:    3010,
		message: fmt.Sprintf("Default %q is not a symbol of enum %q", symbol, enumName),
		span:    span,
	}
}

func errNestedUnion(span syntax.Span) error {
	return &Error{
		code:    3011,
		message: "Unions may not immediately contain other unions",
		span:    span,
	}
}

func errDuplicateUnionBranch(branch string, span syntax.Span) error {
	return &Error{
		code:    3012,
		message: fmt.Sprintf("Duplicate union branch %q", branch),
		span:    span,
	}
}

func errNumericRange(what string, value int64, min, max uint64, span syntax.Span) error {
	return &Error{
		code: 3013,
		message: fmt.Sprintf(
			"Value %d for %s out of range [%d, %d]",
			value, what, min, max,
		),
		span: span,
	}
}

func errInvalidDecimal(precision, scale int64, span syntax.Span) error {
	return &Error{
		code: 3014,
		message: fmt.Sprintf(
			"Invalid decimal(%d, %d): scale must be in [0, precision]",
			precision, scale,
		),
		span: span,
	}
}

func errInvalidDefault(fieldName, want, got string, span syntax.Span) error {
	return &Error{
		code: 3015,
		message: fmt.Sprintf(
			"Default for field %q must be %s, got %s",
			fieldName, want, got,
		),
		span: span,
	}
}

func errIncompleteRecordDefault(fieldName, recordName, missingField string, span syntax.Span) error {
	return &Error{
		code: 3016,
		message: fmt.Sprintf(
			"Default for field %q is missing a value for %s.%s",
			fieldName, recordName, missingField,
		),
		span: span,
		help: fmt.Sprintf(
			"record defaults must cover every field of %q that has no default of its own",
			recordName,
		),
	}
}

func errThrowsNotError(name string, span syntax.Span) error {
	return &Error{
		code:    3017,
		message: fmt.Sprintf("Type %q in throws clause is not an error type", name),
		span:    span,
	}
}

func errImportNotFound(path string, searched []string, span syntax.Span) error {
	return &Error{
		code:    3018,
		message: fmt.Sprintf("Imported file %q not found", path),
		span:    span,
		help:    fmt.Sprintf("searched: %s", strings.Join(searched, ", ")),
	}
}

func errImportRead(path string, cause error, span syntax.Span) error {
	return &Error{
		code:    3019,
		message: fmt.Sprintf("Failed to read imported file %q: %s", path, cause),
		span:    span,
	}
}

func errImportParse(path string, cause error, span syntax.Span) error {
	return &Error{
		code:    3020,
		message: fmt.Sprintf("Failed to parse imported file %q: %s", path, cause),
		span:    span,
	}
}

func errImportCycle(chain []string, span syntax.Span) error {
	return &Error{
		code:    3021,
		message: fmt.Sprintf("Import cycle: %s", strings.Join(chain, " -> ")),
		span:    span,
	}
}

func errImportCollision(fullName, firstFile, secondFile string, span syntax.Span) error {
	return &Error{
		code: 3022,
		message: fmt.Sprintf(
			"Type %q defined in both %q and %q",
			fullName, firstFile, secondFile,
		),
		span: span,
	}
}

func errDuplicateMessage(name, firstFile, secondFile string, span syntax.Span) error {
	message := fmt.Sprintf("Message %q is declared more than once", name)
	if firstFile != secondFile {
		message = fmt.Sprintf(
			"Message %q defined in both %q and %q",
			name, firstFile, secondFile,
		)
	}
	return &Error{
		code:    3028,
		message: message,
		span:    span,
	}
}

func errOneWayNotVoid(messageName string, span syntax.Span) error {
	return &Error{
		code: 3025,
		message: fmt.Sprintf(
			"Message %q is declared oneway but does not return void",
			messageName,
		),
		span: span,
	}
}

func errDuplicateFieldName(fieldName, recordName string, span syntax.Span) error {
	return &Error{
		code: 3026,
		message: fmt.Sprintf(
			"Field %q is declared more than once in record %q",
			fieldName, recordName,
		),
		span: span,
	}
}

func errEmptyUnion(span syntax.Span) error {
	return &Error{
		code:    3023,
		message: "Unions must have at least one branch",
		span:    span,
	}
}

func errEmptyEnum(enumName string, span syntax.Span) error {
	return &Error{
		code:    3024,
		message: fmt.Sprintf("Enum %q must have at least one symbol", enumName),
		span:    span,
	}
}
