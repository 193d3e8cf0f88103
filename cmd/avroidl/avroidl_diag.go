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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"go.avroidl.org/avroidl/compiler"
	"go.avroidl.org/avroidl/syntax"
)

var (
	colorError   = color.New(color.FgRed, color.Bold)
	colorWarning = color.New(color.FgYellow, color.Bold)
	colorHelp    = color.New(color.FgCyan)
	colorLoc     = color.New(color.Bold)
)

// diagPrinter renders compile diagnostics against the source text of
// the unit being compiled. Diagnostics raised against other files
// (imported JSON documents, nested IDL imports) carry their own file
// name and are printed without a source excerpt.
type diagPrinter struct {
	out  io.Writer
	path string
	src  []byte
}

func (p *diagPrinter) syntaxError(err *syntax.Error) {
	span := err.Span()
	p.header(colorError, "error", fmt.Sprintf("E%d", err.Code()),
		compiler.EnrichMessage(err.Message()), p.path, span)
	p.excerpt(span)
}

func (p *diagPrinter) compileError(err *compiler.Error) {
	path := err.File()
	if path == "" {
		path = p.path
	}
	span := err.Span()
	p.header(colorError, "error", fmt.Sprintf("E%d", err.Code()),
		err.Message(), path, span)
	if path == p.path {
		p.excerpt(span)
	}
	if help := err.Help(); help != "" {
		fmt.Fprintf(p.out, "  %s %s\n", colorHelp.Sprint("help:"), help)
	}
	for _, related := range err.Related() {
		p.compileError(related)
	}
}

func (p *diagPrinter) warning(warn *compiler.Warning) {
	span := warn.Span()
	p.header(colorWarning, "warning", fmt.Sprintf("W%d", warn.Code()),
		warn.Message(), p.path, span)
	p.excerpt(span)
}

func (p *diagPrinter) header(label *color.Color, kind, code, message, path string, span syntax.Span) {
	line, col := p.lineCol(span)
	loc := path
	if line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", path, line, col)
	}
	fmt.Fprintf(p.out, "%s %s: %s\n",
		colorLoc.Sprintf("%s:", loc),
		label.Sprintf("%s[%s]", kind, code),
		message,
	)
}

// lineCol converts a span's byte offset into 1-based line and column
// numbers. A zero span means the diagnostic has no source location.
func (p *diagPrinter) lineCol(span syntax.Span) (int, int) {
	if span.Len() == 0 && span.Start() == 0 {
		return 0, 0
	}
	start := int(span.Start())
	if start > len(p.src) {
		start = len(p.src)
	}
	line := 1 + strings.Count(string(p.src[:start]), "\n")
	lineStart := strings.LastIndexByte(string(p.src[:start]), '\n') + 1
	return line, start - lineStart + 1
}

// excerpt prints the source line the span starts on, with a caret
// marker under the spanned text.
func (p *diagPrinter) excerpt(span syntax.Span) {
	line, col := p.lineCol(span)
	if line == 0 {
		return
	}
	start := int(span.Start())
	lineStart := strings.LastIndexByte(string(p.src[:start]), '\n') + 1
	lineEnd := len(p.src)
	if ii := strings.IndexByte(string(p.src[lineStart:]), '\n'); ii >= 0 {
		lineEnd = lineStart + ii
	}
	text := string(p.src[lineStart:lineEnd])

	markLen := int(span.Len())
	if start+markLen > lineEnd {
		markLen = lineEnd - start
	}
	if markLen < 1 {
		markLen = 1
	}
	fmt.Fprintf(p.out, "  %s\n", strings.ReplaceAll(text, "\t", " "))
	fmt.Fprintf(p.out, "  %s%s\n",
		strings.Repeat(" ", col-1),
		colorLoc.Sprint(strings.Repeat("^", markLen)),
	)
}

// printDiagnostics renders a compilation's warnings and errors and
// reports whether the compilation failed.
func printDiagnostics(p *diagPrinter, result *compiler.CompileResult) bool {
	for _, warn := range result.Warnings {
		p.warning(warn)
	}
	for _, err := range result.Errors {
		p.compileError(err)
	}
	return len(result.Errors) > 0
}
