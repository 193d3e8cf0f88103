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

	"github.com/agnivade/levenshtein"

	"go.avroidl.org/avroidl/schema"
)

const maxSuggestDistance = 2

// suggest produces a help line for an unresolved type name: a
// case-sensitivity hint when the name differs from a primitive only in
// case, otherwise the nearest primitive or registered type within a
// small edit distance.
func (c *compiler) suggest(name, namespace string) string {
	for _, primitive := range schema.PrimitiveNames {
		if name == primitive {
			continue
		}
		if strings.EqualFold(name, primitive) {
			return fmt.Sprintf(
				"did you mean %q? type names are case-sensitive", primitive,
			)
		}
	}

	// A registered type with exactly this simple name means the
	// reference was written bare from the wrong namespace; its
	// qualified name is the fix.
	exact := ""
	for fullName, named := range c.registry.types {
		if named.TypeName() != name || fullName == name {
			continue
		}
		if exact == "" || fullName < exact {
			exact = fullName
		}
	}
	if exact != "" {
		return fmt.Sprintf("did you mean %q?", exact)
	}

	best := ""
	bestDistance := maxSuggestDistance + 1
	consider := func(candidate string) {
		if candidate == name {
			return
		}
		distance := levenshtein.ComputeDistance(name, candidate)
		if distance > maxSuggestDistance {
			return
		}
		if distance < bestDistance || (distance == bestDistance && candidate < best) {
			best = candidate
			bestDistance = distance
		}
	}

	for _, primitive := range schema.PrimitiveNames {
		consider(primitive)
	}
	for fullName, named := range c.registry.types {
		consider(named.TypeName())
		consider(fullName)
	}

	if best == "" {
		return ""
	}
	// Prefer suggesting a resolvable spelling: if the simple name won,
	// qualify it the way the reference would resolve.
	if named, ok := c.registry.lookup(best, namespace); ok {
		if !strings.Contains(best, ".") && named.FullName() != schema.FullName(namespace, best) && named.FullName() != best {
			best = named.FullName()
		}
	}
	return fmt.Sprintf("did you mean %q?", best)
}
