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
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxListedOptions caps "Expected one of" lists before they stop being
// readable.
const maxListedOptions = 6

var (
	gotClauseRe  = regexp.MustCompile(`\(([A-Z_]+) ("(?:[^"\\]|\\.)*")\)`)
	oneOfListRe  = regexp.MustCompile(`Expected one of (.+), got `)
	keywordRe    = regexp.MustCompile(`Expected (?:keyword '([a-z]+)'|one of (.+)), got identifier "([A-Za-z0-9_]+)"`)
	mergedNumRe  = regexp.MustCompile(`Invalid numeric literal "(-?[0-9][0-9.eE+-]*)([A-Za-z_][A-Za-z0-9_]*)"`)
	quotedItemRe = regexp.MustCompile(`'([a-z]+)'`)
)

var tokenClassNames = map[string]string{
	"EOF":         "end of file",
	"IDENT":       "identifier",
	"ESC_IDENT":   "escaped identifier",
	"INT_LIT":     "integer literal",
	"FLOAT_LIT":   "floating-point literal",
	"TEXT_LIT":    "string literal",
	"COMMENT":     "comment",
	"DOC_COMMENT": "documentation comment",
}

// EnrichMessage rewrites a raw parser diagnostic into a friendlier one:
// token class names become plain English, long "Expected one of" lists
// are deduplicated and capped, and close misspellings of keywords get a
// suggestion. The input is returned unchanged when no rewrite applies;
// the function has no other inputs and no side effects.
func EnrichMessage(raw string) string {
	message := gotClauseRe.ReplaceAllStringFunc(raw, rewriteGotClause)
	message = rewriteOneOfList(message)
	if suggestion := keywordSuggestion(message); suggestion != "" {
		message += suggestion
	}
	if m := mergedNumRe.FindStringSubmatch(message); m != nil {
		message += fmt.Sprintf(
			" (a number may not run straight into %q; add whitespace)", m[2],
		)
	}
	return message
}

func rewriteGotClause(clause string) string {
	m := gotClauseRe.FindStringSubmatch(clause)
	kind, quoted := m[1], m[2]
	if kind == "EOF" {
		return "end of file"
	}
	if name, ok := tokenClassNames[kind]; ok {
		return name + " " + quoted
	}
	// Punctuation reads better as the literal character.
	if text, err := strconv.Unquote(quoted); err == nil {
		return fmt.Sprintf("'%s'", text)
	}
	return clause
}

func rewriteOneOfList(message string) string {
	m := oneOfListRe.FindStringSubmatchIndex(message)
	if m == nil {
		return message
	}
	list := message[m[2]:m[3]]
	items := strings.Split(list, ", ")
	var unique []string
	seen := map[string]bool{}
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	if len(unique) > maxListedOptions {
		unique = append(unique[:maxListedOptions], "...")
	}
	return message[:m[2]] + strings.Join(unique, ", ") + message[m[3]:]
}

func keywordSuggestion(message string) string {
	m := keywordRe.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	got := m[3]
	var candidates []string
	if m[1] != "" {
		candidates = []string{m[1]}
	} else {
		for _, item := range quotedItemRe.FindAllStringSubmatch(m[2], -1) {
			candidates = append(candidates, item[1])
		}
	}

	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if candidate == got {
			continue
		}
		distance := levenshtein.ComputeDistance(got, candidate)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf("; did you mean '%s'?", best)
}
