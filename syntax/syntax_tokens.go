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
	"unicode/utf8"
)

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)
)

type Token struct {
	Len  uint16
	Kind TokenKind
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT
	T_DOC_COMMENT

	T_AT
	T_COMMA
	T_SEMI
	T_COLON
	T_DOT
	T_EQ
	T_QUESTION
	T_LT
	T_GT

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_PAREN
	T_CLOSE_PAREN
	T_OPEN_SQUARE
	T_CLOSE_SQUARE

	T_INT_LIT
	T_FLOAT_LIT
	T_TEXT_LIT

	T_IDENT
	T_ESC_IDENT
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_DOC_COMMENT:
		return "DOC_COMMENT"
	case T_AT:
		return "AT"
	case T_COMMA:
		return "COMMA"
	case T_SEMI:
		return "SEMI"
	case T_COLON:
		return "COLON"
	case T_DOT:
		return "DOT"
	case T_EQ:
		return "EQ"
	case T_QUESTION:
		return "QUESTION"
	case T_LT:
		return "LT"
	case T_GT:
		return "GT"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_PAREN:
		return "OPEN_PAREN"
	case T_CLOSE_PAREN:
		return "CLOSE_PAREN"
	case T_OPEN_SQUARE:
		return "OPEN_SQUARE"
	case T_CLOSE_SQUARE:
		return "CLOSE_SQUARE"
	case T_INT_LIT:
		return "INT_LIT"
	case T_FLOAT_LIT:
		return "FLOAT_LIT"
	case T_TEXT_LIT:
		return "TEXT_LIT"
	case T_IDENT:
		return "IDENT"
	case T_ESC_IDENT:
		return "ESC_IDENT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src: src,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
		}
		return nil
	}

	c := t.src[0]
	var kind TokenKind
	switch c {
	case '\t', ' ':
		return t.nextSpace(token)
	case '\n':
		kind = T_NEWLINE
		goto len1
	case '@':
		kind = T_AT
		goto len1
	case ',':
		kind = T_COMMA
		goto len1
	case ';':
		kind = T_SEMI
		goto len1
	case ':':
		kind = T_COLON
		goto len1
	case '.':
		kind = T_DOT
		goto len1
	case '=':
		kind = T_EQ
		goto len1
	case '?':
		kind = T_QUESTION
		goto len1
	case '<':
		kind = T_LT
		goto len1
	case '>':
		kind = T_GT
		goto len1
	case '{':
		kind = T_OPEN_CURL
		goto len1
	case '}':
		kind = T_CLOSE_CURL
		goto len1
	case '(':
		kind = T_OPEN_PAREN
		goto len1
	case ')':
		kind = T_CLOSE_PAREN
		goto len1
	case '[':
		kind = T_OPEN_SQUARE
		goto len1
	case ']':
		kind = T_CLOSE_SQUARE
		goto len1
	case '/':
		return t.nextComment(token)
	case '"':
		return t.nextTextLit(token)
	case '`':
		return t.nextEscIdent(token)
	case '\r':
		if len(t.src) < 2 || t.src[1] != '\n' {
			return errForbiddenControlCharacter(t.offset, c)
		}
		*token = Token{
			Kind: T_NEWLINE,
			Len:  2,
		}
		t.offset += 2
		t.src = t.src[2:]
		return nil
	default:
		goto big
	}

len1:
	*token = Token{
		Kind: kind,
		Len:  1,
	}
	t.offset += 1
	t.src = t.src[1:]
	return nil

big:
	if (c >= '0' && c <= '9') || c == '-' {
		return t.nextNumLit(token)
	}

	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_' {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func (t *Tokens) nextSpace(token *Token) error {
	src := t.src
	for len(src) > 0 && (src[0] == ' ' || src[0] == '\t') {
		src = src[1:]
	}
	tokenLen, err := t.checkTokenLen(len(t.src) - len(src))
	if err != nil {
		return err
	}
	*token = Token{
		Kind: T_SPACE,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = src
	return nil
}

func (t *Tokens) nextComment(token *Token) error {
	if len(t.src) >= 2 {
		switch t.src[1] {
		case '/':
			return t.nextLineComment(token)
		case '*':
			return t.nextBlockComment(token)
		}
	}
	return errUnexpectedCharacter(t.offset, '/')
}

func (t *Tokens) nextLineComment(token *Token) error {
	src := t.src
	for ii, c := range src {
		if c == '\n' || c == '\r' {
			src = src[:ii]
			break
		}
	}

	tokenLen, err := t.checkTokenLen(len(src))
	if err != nil {
		return err
	}
	*token = Token{
		Kind: T_COMMENT,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextBlockComment(token *Token) error {
	kind := T_COMMENT
	if len(t.src) >= 4 && t.src[2] == '*' && t.src[3] != '/' {
		kind = T_DOC_COMMENT
	}

	end := -1
	for ii := 2; ii+1 < len(t.src); ii++ {
		if t.src[ii] == '*' && t.src[ii+1] == '/' {
			end = ii + 2
			break
		}
	}
	if end < 0 {
		return errCommentUnterminated(t.offset, uint32(len(t.src)))
	}

	tokenLen, err := t.checkTokenLen(end)
	if err != nil {
		return err
	}
	*token = Token{
		Kind: kind,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextNumLit(token *Token) error {
	src := t.src
	ii := 0
	if src[ii] == '-' {
		ii++
		if ii == len(src) || src[ii] < '0' || src[ii] > '9' {
			return errNumLitInvalid(t.offset, src[:ii])
		}
	}

	digits := func() {
		for ii < len(src) && src[ii] >= '0' && src[ii] <= '9' {
			ii++
		}
	}
	digits()

	kind := T_INT_LIT
	if ii < len(src) && src[ii] == '.' {
		kind = T_FLOAT_LIT
		ii++
		if ii == len(src) || src[ii] < '0' || src[ii] > '9' {
			return errNumLitInvalid(t.offset, src[:ii])
		}
		digits()
	}
	if ii < len(src) && (src[ii] == 'e' || src[ii] == 'E') {
		kind = T_FLOAT_LIT
		ii++
		if ii < len(src) && (src[ii] == '+' || src[ii] == '-') {
			ii++
		}
		if ii == len(src) || src[ii] < '0' || src[ii] > '9' {
			return errNumLitInvalid(t.offset, src[:ii])
		}
		digits()
	}

	// A number running straight into identifier characters is one
	// merged token, not two.
	if ii < len(src) && isIdentByte(src[ii]) {
		for ii < len(src) && isIdentByte(src[ii]) {
			ii++
		}
		return errNumLitInvalid(t.offset, src[:ii])
	}

	tokenLen, err := t.checkTokenLen(ii)
	if err != nil {
		return err
	}
	*token = Token{
		Kind: kind,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) nextTextLit(token *Token) error {
	src := t.src
	escaped := false
	ok := false
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if c == '"' {
			src = t.src[:ii+1]
			ok = true
			break
		}
		if (c <= 0x1F || c == 0x7F) && c != 0x09 {
			off := t.offset + uint32(ii)
			if c == 0x0A {
				return errTextLitContainsNewline(off, 1)
			}
			if c == 0x0D && ii+1 < len(t.src) && t.src[ii+1] == 0x0A {
				return errTextLitContainsNewline(off, 2)
			}
			return errForbiddenControlCharacter(off, c)
		}
		escaped = c == '\\'
	}
	if !ok {
		return errTextLitUnterminated(t.offset, uint32(len(src)))
	}

	tokenLen, err := t.checkTokenLen(len(src))
	if err != nil {
		return err
	}
	*token = Token{
		Kind: T_TEXT_LIT,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func isIdentByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '_'
}

func (t *Tokens) nextIdent(token *Token) error {
	src := t.src
	for ii, c := range src {
		if ii == 0 {
			continue
		}
		if isIdentByte(c) {
			continue
		}
		src = src[:ii]
		break
	}

	tokenLen, err := t.checkTokenLen(len(src))
	if err != nil {
		return err
	}
	*token = Token{
		Kind: T_IDENT,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

// nextEscIdent consumes a backtick-escaped identifier such as `int`,
// the spelling for names that collide with type keywords.
func (t *Tokens) nextEscIdent(token *Token) error {
	end := -1
	for ii := 1; ii < len(t.src); ii++ {
		c := t.src[ii]
		if c == '`' {
			end = ii + 1
			break
		}
		if !isIdentByte(c) {
			return errEscIdentInvalid(t.offset, t.src[:ii+1])
		}
	}
	if end < 0 {
		return errEscIdentUnterminated(t.offset, uint32(len(t.src)))
	}
	if end == 2 {
		return errEscIdentInvalid(t.offset, t.src[:end])
	}

	tokenLen, err := t.checkTokenLen(end)
	if err != nil {
		return err
	}
	*token = Token{
		Kind: T_ESC_IDENT,
		Len:  tokenLen,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func (t *Tokens) checkTokenLen(len int) (uint16, error) {
	if len > maxTokenLen {
		return 0, errTokenTooLong(t.offset, len)
	}
	return uint16(len), nil
}
