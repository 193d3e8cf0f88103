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
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

type Error struct {
	code    uint32
	message string
	span    Span
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

func (err *Error) Span() Span {
	return err.span
}

func errSourceTooLong(srcLen int) error {
	lenUint32 := uint32(math.MaxUint32)
	if uint64(srcLen) < math.MaxUint32 {
		lenUint32 = uint32(srcLen)
	}
	return &Error{
		code: 1000,
		message: fmt.Sprintf(
			"Source file size (%d bytes) exceeds maximum (%d bytes)",
			srcLen, maxSrcLen,
		),
		span: Span{0, lenUint32},
	}
}

func errInvalidUtf8(src []byte) error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return &Error{
		code:    1001,
		message: "Source file contains invalid UTF-8",
		span:    Span{off, 1},
	}
}

func errUnexpectedCharacter(start uint32, r rune) error {
	return &Error{
		code:    1002,
		message: fmt.Sprintf("Unexpected character '%s' (U+%04X)", string(r), r),
		span:    Span{start, uint32(utf8.RuneLen(r))},
	}
}

func errForbiddenControlCharacter(start uint32, c byte) error {
	return &Error{
		code:    1003,
		message: fmt.Sprintf("Forbidden control character U+%04X", c),
		span:    Span{start, 1},
	}
}

func errTokenTooLong(start uint32, tokenLen int) error {
	lenUint32 := uint32(math.MaxUint32)
	if uint64(tokenLen) < math.MaxUint32 {
		lenUint32 = uint32(tokenLen)
	}
	return &Error{
		code: 1004,
		message: fmt.Sprintf(
			"Token size (%d bytes) exceeds maximum (%d bytes)",
			tokenLen, maxTokenLen,
		),
		span: Span{start, lenUint32},
	}
}

func errNumLitInvalid(start uint32, token []byte) error {
	tokenLen := uint32(math.MaxUint32)
	if uint64(len(token)) < math.MaxUint32 {
		tokenLen = uint32(len(token))
	}
	return &Error{
		code:    1005,
		message: fmt.Sprintf("Invalid numeric literal %q", token),
		span:    Span{start, tokenLen},
	}
}

func errTextLitUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1006,
		message: "Unterminated string literal",
		span:    Span{start, tokenLen},
	}
}

func errTextLitContainsNewline(start, newlineLen uint32) error {
	return &Error{
		code:    1007,
		message: "String literal contains unescaped newline",
		span:    Span{start, newlineLen},
	}
}

func errCommentUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1008,
		message: "Unterminated block comment",
		span:    Span{start, tokenLen},
	}
}

func errEscIdentInvalid(start uint32, token []byte) error {
	return &Error{
		code:    1009,
		message: fmt.Sprintf("Invalid escaped identifier %q", token),
		span:    Span{start, uint32(len(token))},
	}
}

func errEscIdentUnterminated(start, tokenLen uint32) error {
	return &Error{
		code:    1010,
		message: "Unterminated escaped identifier",
		span:    Span{start, tokenLen},
	}
}

func errExpectedSigil(want string, gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2000,
		message: fmt.Sprintf("Expected '%s', got (%s %q)", want, gotKind, gotToken),
		span:    span,
	}
}

func errExpectedIdent(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2001,
		message: fmt.Sprintf("Expected identifier, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedTypeName(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2002,
		message: fmt.Sprintf("Expected type name, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedTextLit(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2003,
		message: fmt.Sprintf("Expected string literal, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedIntLit(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2004,
		message: fmt.Sprintf("Expected integer literal, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedKeyword(keyword string, gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code: 2005,
		message: fmt.Sprintf(
			"Expected keyword '%s', got (%s %q)",
			keyword, gotKind, gotToken,
		),
		span: span,
	}
}

func errExpectedOneOf(expected []string, gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code: 2006,
		message: fmt.Sprintf(
			"Expected one of %s, got (%s %q)",
			strings.Join(expected, ", "), gotKind, gotToken,
		),
		span: span,
	}
}

func errExpectedDeclaration(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2007,
		message: fmt.Sprintf("Expected declaration, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedJsonValue(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2008,
		message: fmt.Sprintf("Expected JSON value, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}

func errExpectedImportKind(gotToken string, span Span) error {
	return &Error{
		code: 2009,
		message: fmt.Sprintf(
			"Expected import kind ('idl', 'protocol', or 'schema'), got %q",
			gotToken,
		),
		span: span,
	}
}

func errIntLitOutOfRange(token string, span Span) error {
	return &Error{
		code: 2010,
		message: fmt.Sprintf(
			"Integer literal %s out of range [%d, %d]",
			token, int64(math.MinInt64), uint64(math.MaxInt64),
		),
		span: span,
	}
}

func errFloatLitInvalid(token string, span Span) error {
	return &Error{
		code:    2011,
		message: fmt.Sprintf("Invalid floating-point literal %q", token),
		span:    span,
	}
}

func errAnnotatedImport(span Span) error {
	return &Error{
		code:    2013,
		message: "Annotations are not allowed on import statements",
		span:    span,
	}
}

func errNestingTooDeep(span Span) error {
	return &Error{
		code: 2014,
		message: fmt.Sprintf(
			"Nesting depth exceeds maximum (%d)", maxNestingDepth,
		),
		span: span,
	}
}

func errUnexpectedTrailing(gotKind TokenKind, gotToken string, span Span) error {
	return &Error{
		code:    2012,
		message: fmt.Sprintf("Unexpected input after unit, got (%s %q)", gotKind, gotToken),
		span:    span,
	}
}
