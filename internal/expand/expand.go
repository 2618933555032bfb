// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package expand turns one parameterized test function into a container
// test and one generated unit per case.
//
// A function opts in with directive comments. The value-source form lists
// the values of every parameter and zips them by index:
//
//	//paramgen:values input = { 0, 1, 2 },
//	//paramgen:values expected = { 5, 6, 7 },
//	func testAdd5(t *testing.T, input uint16, expected uint32) { ... }
//
// The case-by-case form names every case and lists its arguments:
//
//	//paramgen:cases one = { 1, A.One }, two = { 2, A.Two }
//	func testA(t *testing.T, n int, a A) { ... }
//
// Directive lines with the same verb are joined in order, so a long
// argument can be split across lines.
package expand

import (
	"context"
	"go/ast"

	"gopkg.microglot.org/paramgen/internal/attr"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// Expander expands the functions of one package. It must not be shared
// between packages because unit names are only unique per Counter.
type Expander struct {
	counter *Counter
	markers []string
}

// New returns an Expander that numbers units with counter. The first
// marker is written on every unit; all of them are recognized on input.
func New(counter *Counter, markers []string) *Expander {
	if len(markers) == 0 {
		markers = []string{DefaultMarker}
	}
	return &Expander{
		counter: counter,
		markers: markers,
	}
}

// HasDirective reports whether any attribute asks for an expansion.
func HasDirective(attributes []signature.Attribute) bool {
	for _, a := range attributes {
		if _, ok := ModeFor(a.Name); ok {
			return true
		}
	}
	return false
}

// Expand validates decl and its directive argument and returns the
// container that replaces it. Nothing is produced for a function that
// fails any check.
func (e *Expander) Expand(ctx context.Context, src *signature.Source, decl *ast.FuncDecl) (*Container, exc.Exception) {
	fn, err := signature.Extract(src, decl)
	if err != nil {
		return nil, err
	}
	mode, segments, err := selectMode(fn)
	if err != nil {
		return nil, err
	}
	lists, err := attr.Parse(ctx, segments)
	if err != nil {
		return nil, err
	}
	rows, err := mode.plan(lists, fn, segments[0].Location)
	if err != nil {
		return nil, err
	}
	parallel := false
	for _, a := range fn.Attributes {
		if a.Name == DirectiveParallel {
			parallel = true
		}
	}
	return synthesize(fn, mode, rows, propagate(fn.Attributes, e.markers), parallel, e.counter), nil
}

// selectMode picks the mode from the directive verb and collects the
// argument text of every line that uses it.
func selectMode(fn *signature.Function) (Mode, []attr.Segment, exc.Exception) {
	var mode Mode
	var first signature.Attribute
	segments := []attr.Segment{}
	for _, a := range fn.Attributes {
		m, ok := ModeFor(a.Name)
		if !ok {
			continue
		}
		if mode == nil {
			mode = m
			first = a
		}
		if m != mode {
			return nil, nil, exc.Newf(a.Location, exc.CodeConflictingDirectives,
				"%s uses both //%s and //%s; choose one form", fn.Name, first.Name, a.Name)
		}
		segments = append(segments, attr.Segment{Text: a.Args, Location: a.ArgsLocation})
	}
	if mode == nil {
		return nil, nil, exc.Newf(fn.Location, exc.CodeUnknownFatal,
			"%s has no //%s or //%s directive", fn.Name, DirectiveValues, DirectiveCases)
	}
	return mode, segments, nil
}
