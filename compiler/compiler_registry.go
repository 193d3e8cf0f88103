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

	"go.avroidl.org/avroidl/schema"
	"go.avroidl.org/avroidl/syntax"
)

// registry owns the canonical instance of every named type seen by a
// compilation, across the root unit and all imports. References are
// collected during the build pass and bound to their targets in a
// single resolution pass, so forward references and references into
// not-yet-processed imports need no special handling.
type registry struct {
	types map[string]schema.NamedSchema
	order []schema.NamedSchema
	files map[string]string
	refs  []*refSite
}

type refSite struct {
	ref       *schema.Reference
	namespace string
	file      string
	span      syntax.Span
}

func newRegistry() *registry {
	return &registry{
		types: make(map[string]schema.NamedSchema),
		files: make(map[string]string),
	}
}

func (r *registry) register(c *compiler, named schema.NamedSchema, file string, span syntax.Span) {
	fullName := named.FullName()
	if _, exists := r.types[fullName]; exists {
		prevFile := r.files[fullName]
		if prevFile != file {
			c.err(errImportCollision(fullName, prevFile, file, span))
		} else {
			c.err(errDuplicateDefinition(fullName, span))
		}
		return
	}
	r.types[fullName] = named
	r.files[fullName] = file
	r.order = append(r.order, named)
}

func (r *registry) addRef(ref *schema.Reference, namespace, file string, span syntax.Span) {
	r.refs = append(r.refs, &refSite{
		ref:       ref,
		namespace: namespace,
		file:      file,
		span:      span,
	})
}

// lookup resolves a written name against the namespace it was written
// in: qualified names resolve as-is, bare names prefer the local
// namespace and fall back to the null namespace.
func (r *registry) lookup(name, namespace string) (schema.NamedSchema, bool) {
	if strings.Contains(name, ".") {
		named, ok := r.types[name]
		return named, ok
	}
	if named, ok := r.types[schema.FullName(namespace, name)]; ok {
		return named, true
	}
	named, ok := r.types[name]
	return named, ok
}

// resolveAll binds every collected reference. All failures are bundled
// under a single diagnostic so one missing type is reported once per
// use site rather than aborting resolution.
func (r *registry) resolveAll(c *compiler) {
	var unresolved []*Error
	for _, site := range r.refs {
		if named, ok := r.lookup(site.ref.Name, site.namespace); ok {
			site.ref.Target = named
			continue
		}
		unresolved = append(unresolved, errUnresolvedReference(
			site.ref.Name,
			site.file,
			c.suggest(site.ref.Name, site.namespace),
			site.span,
		))
	}
	if len(unresolved) > 0 {
		c.err(errUnresolvedReferences(unresolved))
	}
}
