// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"go/ast"

	"gopkg.microglot.org/paramgen/internal/exc"
)

// Value is one element of a brace-delimited list. Text is the verbatim
// source of the expression and Expr its parsed form.
type Value struct {
	Text     string
	Expr     ast.Expr
	Location exc.Location
}

// ParameterList is one `id = { e1, e2, ... }` group. In the value-source
// form ID names a function parameter. In the case-by-case form it names a
// test case and Values are the positional arguments of that case.
type ParameterList struct {
	ID         string
	IDLocation exc.Location
	Values     []Value
}

// ParameterizedList is a full directive argument in source order.
type ParameterizedList struct {
	Lists []ParameterList
}

// IDs returns the group identifiers in source order.
func (p *ParameterizedList) IDs() []string {
	ids := make([]string, 0, len(p.Lists))
	for _, l := range p.Lists {
		ids = append(ids, l.ID)
	}
	return ids
}

// Segment is one directive line worth of argument text and the location of
// its first byte.
type Segment struct {
	Text     string
	Location exc.Location
}
