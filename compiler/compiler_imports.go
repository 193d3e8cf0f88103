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
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"go.avroidl.org/avroidl/encoding/avsc"
	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

// importSession is owned by the top-level compilation and shared by all
// nested imports. The visited set deduplicates diamond imports (the
// same file reached along two paths loads once); the stack detects
// cycles and names the chain in the diagnostic.
type importSession struct {
	fs         afero.Fs
	logger     logrus.FieldLogger
	searchDirs []string
	visited    map[string]bool
	stack      []string
}

func newImportSession(opts *CompileOptions) *importSession {
	return &importSession{
		fs:         opts.fs,
		logger:     opts.logger,
		searchDirs: opts.searchDirs,
		visited:    map[string]bool{},
		stack:      []string{filepath.Clean(opts.sourcePath)},
	}
}

// locate finds an imported path relative to the importing file's
// directory first, then each search directory in order.
func (s *importSession) locate(path, importerDir string) (string, []string) {
	candidates := []string{filepath.Join(importerDir, path)}
	for _, dir := range s.searchDirs {
		candidates = append(candidates, filepath.Join(dir, path))
	}
	for _, candidate := range candidates {
		if exists, err := afero.Exists(s.fs, candidate); err == nil && exists {
			return filepath.Clean(candidate), candidates
		}
	}
	return "", candidates
}

func (c *compiler) compileImport(decl *syntax.ImportDecl, importerDir string) {
	path := c.text(decl.Path())
	span := decl.Path().Span()

	found, searched := c.session.locate(path, importerDir)
	if found == "" {
		c.err(errImportNotFound(path, searched, span))
		return
	}
	for ii, onStack := range c.session.stack {
		if onStack == found {
			chain := append([]string{}, c.session.stack[ii:]...)
			c.err(errImportCycle(append(chain, found), span))
			return
		}
	}
	if c.session.visited[found] {
		return
	}
	c.session.visited[found] = true

	c.session.logger.WithFields(logrus.Fields{
		"path": found,
		"kind": decl.Kind().String(),
	}).Debug("resolving import")

	data, err := afero.ReadFile(c.session.fs, found)
	if err != nil {
		c.err(errImportRead(found, err, span))
		return
	}

	switch decl.Kind() {
	case syntax.ImportIdl:
		unit, parseErr := syntax.Parse(data)
		if parseErr != nil {
			c.err(errImportParse(found, parseErr, span))
			return
		}
		c.session.stack = append(c.session.stack, found)
		c.compileUnit(unit, found, false)
		c.session.stack = c.session.stack[:len(c.session.stack)-1]

	case syntax.ImportProtocol:
		protocol, decodeErr := avsc.DecodeProtocol(data)
		if decodeErr != nil {
			c.err(errImportParse(found, decodeErr, span))
			return
		}
		for _, named := range protocol.Types {
			c.registerDecoded(named, found)
		}
		for _, message := range protocol.Messages {
			for _, param := range message.Request {
				c.registerDecodedChild(param.Type, found)
			}
			c.registerDecodedChild(message.Response, found)
			c.recordMessage(message.Name, found, span)
			c.importedMessages = append(c.importedMessages, message)
		}

	case syntax.ImportSchema:
		decoded, decodeErr := avsc.DecodeSchema(data)
		if decodeErr != nil {
			c.err(errImportParse(found, decodeErr, span))
			return
		}
		// Anonymous and primitive schemas define nothing to register.
		named, ok := decoded.(schema.NamedSchema)
		if !ok {
			c.session.logger.WithField("path", found).
				Debug("imported schema defines no named type")
			return
		}
		c.registerDecoded(named, found)
	}
}

// registerDecoded registers a named type decoded from a JSON document,
// along with every named type defined inline within it, and collects
// its references for the resolution pass. Decoded schemas carry no
// source spans; their diagnostics locate by file only.
func (c *compiler) registerDecoded(named schema.NamedSchema, file string) {
	c.registry.register(c, named, file, syntax.Span{})
	if record, ok := named.(*schema.Record); ok {
		for _, field := range record.Fields {
			c.registerDecodedChild(field.Type, file)
		}
	}
}

func (c *compiler) registerDecodedChild(s schema.Schema, file string) {
	switch s := s.(type) {
	case *schema.Reference:
		c.registry.addRef(s, "", file, syntax.Span{})
	case *schema.Record, *schema.Enum, *schema.Fixed:
		c.registerDecoded(s.(schema.NamedSchema), file)
	case *schema.Array:
		c.registerDecodedChild(s.Items, file)
	case *schema.Map:
		c.registerDecodedChild(s.Values, file)
	case *schema.Union:
		for _, branch := range s.Branches {
			c.registerDecodedChild(branch, file)
		}
	case *schema.Logical:
		c.registerDecodedChild(s.Base, file)
	}
}
