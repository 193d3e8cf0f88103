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
	"strings"
	"unicode/utf16"

	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

func (c *compiler) compileValue(value syntax.JsonValue) schema.Value {
	switch value := value.(type) {
	case *syntax.JsonNull:
		return schema.NullValue()
	case *syntax.JsonBool:
		return schema.BoolValue(value.Get())
	case *syntax.JsonNumber:
		if value.IsInt() {
			return schema.LongValue(value.Int())
		}
		return schema.DoubleValue(value.Float())
	case *syntax.JsonString:
		return schema.StringValue(c.text(value.Lit()))
	case *syntax.JsonArray:
		items := make([]schema.Value, 0, len(value.Items()))
		for _, item := range value.Items() {
			items = append(items, c.compileValue(item))
		}
		return schema.ArrayValue(items)
	case *syntax.JsonObject:
		entries := make([]schema.ObjectEntry, 0, len(value.Entries()))
		for _, entry := range value.Entries() {
			entries = append(entries, schema.ObjectEntry{
				Key:   c.text(entry.Key()),
				Value: c.compileValue(entry.Value()),
			})
		}
		return schema.ObjectValue(entries)
	}
	return schema.NullValue()
}

// text decodes the escape sequences of a string literal, reporting an
// error for each malformed escape. The span of each error covers just
// the offending sequence.
func (c *compiler) text(lit *syntax.TextLit) string {
	decoded, badEscapes := decodeText(lit.Raw())
	base := lit.Span().Start() + 1
	for _, bad := range badEscapes {
		c.err(errInvalidEscape(bad.seq, syntax.NewSpan(base+bad.off, bad.len)))
	}
	return decoded
}

type escapeError struct {
	seq string
	off uint32
	len uint32
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}

// decodeText interprets the escape sequences of a raw string literal
// body: the JSON singles plus \', Unicode escapes with surrogate pair
// combination, and octal escapes up to \377.
func decodeText(raw string) (string, []escapeError) {
	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}
	var buf strings.Builder
	var bad []escapeError
	buf.Grow(len(raw))

	ii := 0
	for ii < len(raw) {
		c := raw[ii]
		if c != '\\' {
			buf.WriteByte(c)
			ii += 1
			continue
		}
		if ii+1 == len(raw) {
			bad = append(bad, escapeError{seq: `\`, off: uint32(ii), len: 1})
			break
		}
		start := ii
		switch raw[ii+1] {
		case 'b':
			buf.WriteByte('\b')
			ii += 2
		case 'f':
			buf.WriteByte('\f')
			ii += 2
		case 'n':
			buf.WriteByte('\n')
			ii += 2
		case 'r':
			buf.WriteByte('\r')
			ii += 2
		case 't':
			buf.WriteByte('\t')
			ii += 2
		case '\\':
			buf.WriteByte('\\')
			ii += 2
		case '"':
			buf.WriteByte('"')
			ii += 2
		case '\'':
			buf.WriteByte('\'')
			ii += 2
		case '/':
			buf.WriteByte('/')
			ii += 2
		case 'u':
			r, size, ok := decodeUnicodeEscape(raw[ii:])
			if !ok {
				bad = append(bad, escapeError{
					seq: raw[start : start+size],
					off: uint32(start),
					len: uint32(size),
				})
				ii += size
				continue
			}
			buf.WriteRune(r)
			ii += size
		case '0', '1', '2', '3', '4', '5', '6', '7':
			value := uint32(0)
			size := 1
			for size < 4 && ii+size < len(raw) && isOctalDigit(raw[ii+size]) {
				next := value*8 + uint32(raw[ii+size]-'0')
				if next > 0o377 {
					break
				}
				value = next
				size += 1
			}
			buf.WriteRune(rune(value))
			ii += size
		default:
			seqLen := 2
			bad = append(bad, escapeError{
				seq: raw[start : start+seqLen],
				off: uint32(start),
				len: uint32(seqLen),
			})
			ii += seqLen
		}
	}
	return buf.String(), bad
}

// decodeUnicodeEscape decodes a \uXXXX sequence at the start of s,
// combining UTF-16 surrogate pairs. The returned size covers the bytes
// consumed even when decoding fails, so the caller can report a span.
func decodeUnicodeEscape(s string) (r rune, size int, ok bool) {
	parseHex4 := func(s string) (uint32, bool) {
		if len(s) < 4 {
			return 0, false
		}
		value := uint32(0)
		for ii := 0; ii < 4; ii++ {
			digit, ok := hexDigit(s[ii])
			if !ok {
				return 0, false
			}
			value = value<<4 | digit
		}
		return value, true
	}

	first, okHex := parseHex4(s[2:])
	if !okHex {
		size = len(s)
		if size > 6 {
			size = 6
		}
		return 0, size, false
	}
	if !utf16.IsSurrogate(rune(first)) {
		return rune(first), 6, true
	}

	// A high surrogate must be followed by a low surrogate; anything
	// else, including a lone low surrogate, is malformed.
	if len(s) >= 12 && s[6] == '\\' && s[7] == 'u' {
		if second, ok := parseHex4(s[8:]); ok {
			combined := utf16.DecodeRune(rune(first), rune(second))
			if combined != 0xFFFD {
				return combined, 12, true
			}
			return 0, 12, false
		}
	}
	return 0, 6, false
}
