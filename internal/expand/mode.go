// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package expand

import (
	"fmt"

	"gopkg.microglot.org/paramgen/internal/attr"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/signature"
)

const (
	DirectiveValues   = "paramgen:values"
	DirectiveCases    = "paramgen:cases"
	DirectiveParallel = "paramgen:parallel"
	// DefaultMarker is the directive that marks a function as a test. The
	// expansion writes it on every generated unit.
	DefaultMarker = "paramgen:test"
)

// Mode is one of the two ways a directive argument turns into cases. The
// mode is chosen once from the directive verb; everything after planning
// is shared.
type Mode interface {
	Directive() string
	// plan validates the parsed argument against the function and returns
	// one row per case, in declaration order, with values aligned to
	// fn.Params.
	plan(lists *attr.ParameterizedList, fn *signature.Function, at exc.Location) ([]row, exc.Exception)
}

type row struct {
	name   string
	values []attr.Value
}

var (
	// ValueSource zips per-parameter lists: case i binds the i-th value of
	// every list.
	ValueSource Mode = valueSource{}
	// CaseByCase names every case and lists its arguments positionally.
	CaseByCase Mode = caseByCase{}
)

// ModeFor returns the mode selected by a directive name.
func ModeFor(directive string) (Mode, bool) {
	switch directive {
	case DirectiveValues:
		return ValueSource, true
	case DirectiveCases:
		return CaseByCase, true
	default:
		return nil, false
	}
}

type valueSource struct{}

func (valueSource) Directive() string {
	return DirectiveValues
}

func (valueSource) plan(lists *attr.ParameterizedList, fn *signature.Function, at exc.Location) ([]row, exc.Exception) {
	if err := checkUnique(lists, "identifier"); err != nil {
		return nil, err
	}
	count, err := caseCount(lists)
	if err != nil {
		return nil, err
	}
	if err := checkParameters(lists, fn, at); err != nil {
		return nil, err
	}

	byID := make(map[string][]attr.Value, len(lists.Lists))
	for _, l := range lists.Lists {
		byID[l.ID] = l.Values
	}
	rows := make([]row, 0, count)
	for i := 0; i < count; i = i + 1 {
		values := make([]attr.Value, 0, len(fn.Params))
		for _, p := range fn.Params {
			values = append(values, byID[p.Name][i])
		}
		rows = append(rows, row{name: fmt.Sprintf("case_%d", i), values: values})
	}
	return rows, nil
}

type caseByCase struct{}

func (caseByCase) Directive() string {
	return DirectiveCases
}

func (caseByCase) plan(lists *attr.ParameterizedList, fn *signature.Function, at exc.Location) ([]row, exc.Exception) {
	if err := checkUnique(lists, "case"); err != nil {
		return nil, err
	}
	rows := make([]row, 0, len(lists.Lists))
	for _, l := range lists.Lists {
		if err := checkArity(l, fn); err != nil {
			return nil, err
		}
		rows = append(rows, row{name: l.ID, values: l.Values})
	}
	return rows, nil
}
