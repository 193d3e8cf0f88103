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

package schema

import (
	"math"
)

// logicalRule is one row of the promotion table: which base kind a
// logical type requires, plus any extra contract on the base.
type logicalRule struct {
	baseKinds []Kind
	check     func(base Schema, props *Properties) bool
}

var logicalRules = map[string]logicalRule{
	LogicalDecimal: {
		baseKinds: []Kind{KindBytes, KindFixed},
		check:     checkDecimalParams,
	},
	LogicalDate: {
		baseKinds: []Kind{KindInt},
	},
	LogicalTimeMillis: {
		baseKinds: []Kind{KindInt},
	},
	LogicalTimestampMillis: {
		baseKinds: []Kind{KindLong},
	},
	LogicalLocalTimestampMillis: {
		baseKinds: []Kind{KindLong},
	},
	LogicalDuration: {
		baseKinds: []Kind{KindFixed},
		check: func(base Schema, _ *Properties) bool {
			return base.(*Fixed).Size == 12
		},
	},
	LogicalUUID: {
		baseKinds: []Kind{KindString},
	},
}

func checkDecimalParams(base Schema, props *Properties) bool {
	precision, ok := intProp(props, "precision")
	if !ok || precision < 1 || precision > math.MaxInt32 {
		return false
	}
	scale := int64(0)
	if scaleVal, present := props.Get("scale"); present {
		if scaleVal.Kind() != ValueLong {
			return false
		}
		scale = scaleVal.Long()
	}
	return scale >= 0 && scale <= precision
}

func intProp(props *Properties, key string) (int64, bool) {
	value, ok := props.Get(key)
	if !ok || value.Kind() != ValueLong {
		return 0, false
	}
	return value.Long(), true
}

// LogicalCompatible reports whether a logical type kind may legally wrap
// the given base schema, per the fixed promotion table. Parameter
// checks (decimal precision/scale, duration size) are included.
func LogicalCompatible(kind string, base Schema, props *Properties) bool {
	rule, ok := logicalRules[kind]
	if !ok {
		return false
	}
	baseOk := false
	for _, baseKind := range rule.baseKinds {
		if base.Kind() == baseKind {
			baseOk = true
			break
		}
	}
	if !baseOk {
		return false
	}
	if rule.check != nil {
		return rule.check(base, props)
	}
	return true
}

// PromoteLogical inspects a schema's `logicalType` property and, when
// the combination is recognized and valid, promotes it.
//
// Primitive bases become a Logical node wrapping the bare primitive:
// the consumed keys (`logicalType`, and `precision`/`scale` for
// decimal) move onto the Logical, followed by any remaining extra
// properties.
//
// A Fixed base stays a Fixed (it is a named type owned by the
// registry); its properties are reordered so the logical keys lead,
// preserving the serialized key contract.
//
// Anything else, including unrecognized kinds and contract violations,
// is returned unchanged: the property remains a plain property.
func PromoteLogical(base Schema) Schema {
	props := base.Props()
	kindVal, ok := props.Get("logicalType")
	if !ok || kindVal.Kind() != ValueString {
		return base
	}
	kind := kindVal.Str()
	if !LogicalCompatible(kind, base, props) {
		return base
	}

	if fixed, ok := base.(*Fixed); ok {
		reorderLogicalProps(&fixed.Properties, kind)
		return fixed
	}

	logical := &Logical{
		LogicalType: kind,
		Base:        NewPrimitive(base.Kind()),
	}
	props.Remove("logicalType")
	if kind == LogicalDecimal {
		if precision, ok := intProp(props, "precision"); ok {
			logical.Precision = uint32(precision)
		}
		if scale, ok := intProp(props, "scale"); ok {
			logical.Scale = uint32(scale)
		}
		props.Remove("precision")
		props.Remove("scale")
	}
	logical.Properties.entries = props.entries
	props.entries = nil
	return logical
}

// reorderLogicalProps moves logicalType (and decimal parameters) to the
// front of the property list without disturbing the relative order of
// the rest.
func reorderLogicalProps(props *Properties, kind string) {
	lead := []string{"logicalType"}
	if kind == LogicalDecimal {
		lead = append(lead, "precision", "scale")
	}
	var front, back []ObjectEntry
	for _, key := range lead {
		if value, ok := props.Get(key); ok {
			front = append(front, ObjectEntry{Key: key, Value: value})
		}
	}
	for _, entry := range props.entries {
		isLead := false
		for _, key := range lead {
			if entry.Key == key {
				isLead = true
				break
			}
		}
		if !isLead {
			back = append(back, entry)
		}
	}
	props.entries = append(front, back...)
}
