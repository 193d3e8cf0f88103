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

// Package compiler transforms parsed Avro IDL units into the resolved
// schema model. Compilation registers every named type in a registry,
// resolves forward and imported references in a second pass, validates
// defaults and logical types, and accumulates coded diagnostics instead
// of stopping at the first problem.
package compiler

import (
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	fs         afero.Fs
	logger     logrus.FieldLogger
	searchDirs []string
	sourcePath string
}

// WithFs sets the filesystem used to resolve import statements. The
// default is the host filesystem.
func WithFs(fs afero.Fs) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.fs = fs
	})
}

// WithLogger sets the logger that import resolution reports progress
// to. The default logger discards everything.
func WithLogger(logger logrus.FieldLogger) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.logger = logger
	})
}

// WithSearchDirs sets directories searched for imported files, after
// the importing file's own directory.
func WithSearchDirs(dirs []string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.searchDirs = dirs
	})
}

// WithSourcePath names the unit being compiled. Imports written with
// relative paths resolve against this file's directory, and diagnostics
// attach it as their file name.
func WithSourcePath(sourcePath string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.sourcePath = sourcePath
	})
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{
		fs: afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	if compileOptions.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		compileOptions.logger = logger
	}
	return compileOptions
}

// CompileResult holds the outcome of one compilation. On success
// Schemata lists every named type, defined or imported, in
// registration order; Protocol is additionally set when the unit is a
// protocol. Warnings are reported on both success and failure.
type CompileResult struct {
	Protocol *schema.Protocol
	Schemata []schema.NamedSchema

	Errors   []*Error
	Warnings []*Warning
}

// NamedSchemata returns every named type known to the compilation, in
// registration order. This includes types pulled in through imports.
func (r *CompileResult) NamedSchemata() []schema.NamedSchema {
	return r.Schemata
}

func Compile(unit *syntax.Unit, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(unit)
}

// CompileToNamedSchemata compiles a unit and returns every named type
// it defines or imports, in registration order.
func CompileToNamedSchemata(unit *syntax.Unit, opts ...CompileOption) ([]schema.NamedSchema, CompileResult) {
	result := Compile(unit, opts...)
	return result.Schemata, result
}

func (opts *CompileOptions) Compile(unit *syntax.Unit) CompileResult {
	c := compiler{
		opts:     opts,
		registry: newRegistry(),
		session:  newImportSession(opts),
	}
	c.fieldSpans = make(map[*schema.Field]syntax.Span)
	c.messageFiles = make(map[string]string)

	c.compileUnit(unit, opts.sourcePath, true)
	c.registry.resolveAll(&c)
	if len(c.errors) == 0 {
		c.checkThrows()
		c.checkDefaults()
	}

	result := CompileResult{
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if len(c.errors) > 0 {
		return result
	}
	result.Schemata = c.registry.order
	if c.protocol != nil {
		c.protocol.Types = c.registry.order
		result.Protocol = c.protocol
	}
	return result
}

type compiler struct {
	opts     *CompileOptions
	registry *registry
	session  *importSession
	errors   []*Error
	warnings []*Warning

	protocol         *schema.Protocol
	importedMessages []*schema.Message
	pendingThrows    []*pendingThrows

	// messageFiles maps message names to their defining file, so a
	// merge collision can name both sides.
	messageFiles map[string]string

	// fieldSpans locates fields for post-resolution default checks.
	// Fields decoded from imported JSON documents are absent and
	// report zero spans.
	fieldSpans map[*schema.Field]syntax.Span

	// file names the unit currently being compiled. Nested IDL
	// imports swap it in and restore it on return.
	file string
}

type pendingThrows struct {
	message *schema.Message
	ref     *schema.Reference
	span    syntax.Span
}

func (c *compiler) recordMessage(name, file string, span syntax.Span) {
	if firstFile, ok := c.messageFiles[name]; ok {
		c.err(errDuplicateMessage(name, firstFile, file, span))
		return
	}
	c.messageFiles[name] = file
}

func (c *compiler) err(err error) {
	c.errors = append(c.errors, err.(*Error))
}

func (c *compiler) warn(w *Warning) {
	c.warnings = append(c.warnings, w)
}

// compileUnit builds one source file. The root unit populates the
// result; imported IDL units contribute registered types and, for
// protocol units, messages appended after the importer's own.
func (c *compiler) compileUnit(unit *syntax.Unit, file string, isRoot bool) {
	prevFile := c.file
	c.file = file
	defer func() { c.file = prevFile }()

	for _, orphan := range unit.OrphanDocs() {
		if isRoot {
			c.warn(warnOrphanDoc(orphan.Span()))
		}
	}

	if protocolDecl := unit.Protocol(); protocolDecl != nil {
		c.compileProtocol(protocolDecl, file, isRoot)
		return
	}
	for _, decl := range unit.Decls() {
		c.compileDecl(decl, "", file)
	}
}

func (c *compiler) compileProtocol(decl *syntax.ProtocolDecl, file string, isRoot bool) {
	anns := c.splitAnnotations(decl.Annotations(), annTargetProtocol)
	namespace := anns.namespace
	name := c.declName(decl.Name())

	var protocol *schema.Protocol
	if isRoot {
		protocol = &schema.Protocol{
			Name:       name,
			Namespace:  namespace,
			Doc:        decl.Doc(),
			Properties: anns.props,
		}
		c.protocol = protocol
	}

	for _, item := range decl.Decls() {
		c.compileDecl(item, namespace, file)
	}

	var messages []*schema.Message
	for _, messageDecl := range decl.Messages() {
		message := c.compileMessage(messageDecl, namespace)
		c.recordMessage(message.Name, file, messageDecl.Span())
		messages = append(messages, message)
	}
	if isRoot {
		protocol.Messages = append(messages, c.importedMessages...)
	} else {
		c.importedMessages = append(c.importedMessages, messages...)
	}
}

func (c *compiler) compileDecl(decl syntax.Decl, namespace, file string) {
	switch decl := decl.(type) {
	case *syntax.RecordDecl:
		c.compileRecord(decl, namespace, file)
	case *syntax.EnumDecl:
		c.compileEnum(decl, namespace, file)
	case *syntax.FixedDecl:
		c.compileFixed(decl, namespace, file)
	case *syntax.ImportDecl:
		c.compileImport(decl, filepath.Dir(file))
	}
}

func (c *compiler) compileMessage(decl *syntax.MessageDecl, namespace string) *schema.Message {
	anns := c.splitAnnotations(decl.Annotations(), annTargetMessage)
	message := &schema.Message{
		Name:       c.fieldName(decl.Name()),
		Doc:        decl.Doc(),
		OneWay:     decl.OneWay(),
		Properties: anns.props,
	}

	for _, param := range decl.Params() {
		field := c.compileParam(param, namespace)
		message.Request = append(message.Request, field)
	}

	if voidType, ok := decl.Response().(*syntax.VoidType); ok {
		for _, ann := range voidType.Annotations() {
			c.warn(warnIgnoredVoidAnnotation(ann.Name().Get(), ann.Span()))
		}
		message.Response = schema.NewPrimitive(schema.KindNull)
	} else {
		message.Response = c.compileType(decl.Response(), namespace)
	}

	if message.OneWay && message.Response.Kind() != schema.KindNull {
		c.err(errOneWayNotVoid(message.Name, decl.Span()))
	}

	for _, throws := range decl.Throws() {
		ref := &schema.Reference{Name: throws.Get()}
		span := throws.Span()
		c.registry.addRef(ref, namespace, c.file, span)
		c.pendingThrows = append(c.pendingThrows, &pendingThrows{
			message: message,
			ref:     ref,
			span:    span,
		})
	}
	return message
}

// checkThrows runs after resolution: every type named in a throws
// clause must be an error record.
func (c *compiler) checkThrows() {
	for _, pending := range c.pendingThrows {
		target := pending.ref.Target
		if target == nil {
			continue
		}
		record, ok := target.(*schema.Record)
		if !ok || !record.IsError {
			c.err(errThrowsNotError(target.FullName(), pending.span))
			continue
		}
		pending.message.Errors = append(pending.message.Errors, record.FullName())
	}
}
