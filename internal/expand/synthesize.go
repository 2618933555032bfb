// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package expand

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.microglot.org/paramgen/internal/attr"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// Binding is one `var Name Type = Value` statement at the top of a unit.
type Binding struct {
	Name  string
	Type  string
	Value attr.Value
	// Used is false when the original body never mentions Name. The unit
	// then discards the variable explicitly so it still compiles.
	Used bool
}

// GeneratedCase is one runnable unit: a top-level test function named
// Ident that binds the case's values and runs the original body.
type GeneratedCase struct {
	// Name is the subtest name passed to t.Run.
	Name  string
	Ident string
	// Handle is the parameter name of the unit's *testing.T. It is empty
	// when the body has no use for it.
	Handle     string
	Parallel   bool
	Attributes []string
	Bindings   []Binding
	Body       string
}

// Container is the test function that replaces one parameterized function
// and runs each of its cases as a subtest.
type Container struct {
	Name     string
	Function string
	Mode     string
	Location exc.Location
	Cases    []GeneratedCase
}

// Idents returns every top-level name the container adds to its package.
func (c *Container) Idents() []string {
	idents := make([]string, 0, len(c.Cases)+1)
	idents = append(idents, c.Name)
	for _, gc := range c.Cases {
		idents = append(idents, gc.Ident)
	}
	return idents
}

// ContainerName derives the container's test name from a function name:
// testAdd5 becomes TestAdd5. A leading "test" is only dropped when it is a
// whole word, so testingHelper becomes TestTestingHelper.
func ContainerName(name string) string {
	rest := name
	if after, ok := strings.CutPrefix(name, "test"); ok {
		if after == "" {
			return "Test"
		}
		r, _ := utf8.DecodeRuneInString(after)
		if unicode.IsUpper(r) || unicode.IsDigit(r) || r == '_' {
			rest = after
		}
	}
	r, size := utf8.DecodeRuneInString(rest)
	return "Test" + string(unicode.ToUpper(r)) + rest[size:]
}

func unitIdent(fn *signature.Function, id uint64) string {
	return fmt.Sprintf("%s_%d", fn.Name, id)
}

// handleName picks the unit's parameter name. The original name is kept
// when there is one; a fresh name is only needed to call t.Parallel.
func handleName(fn *signature.Function, parallel bool) string {
	if name := fn.Handle.ValueOr(signature.Param{}).Name; name != "" && name != "_" {
		return name
	}
	if !parallel {
		return ""
	}
	taken := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		taken[p.Name] = true
	}
	candidate := "t"
	for i := 0; taken[candidate] || fn.Mentions(candidate); i = i + 1 {
		candidate = fmt.Sprintf("t%d", i)
	}
	return candidate
}

// synthesize turns validated rows into units. Ids are taken from counter in
// row order, so a container's units are numbered consecutively.
func synthesize(fn *signature.Function, mode Mode, rows []row, attributes []string, parallel bool, counter *Counter) *Container {
	container := &Container{
		Name:     ContainerName(fn.Name),
		Function: fn.Name,
		Mode:     mode.Directive(),
		Location: fn.Location,
		Cases:    make([]GeneratedCase, 0, len(rows)),
	}
	handle := handleName(fn, parallel)
	for _, r := range rows {
		bindings := make([]Binding, 0, len(fn.Params))
		for i, p := range fn.Params {
			bindings = append(bindings, Binding{
				Name:  p.Name,
				Type:  p.Type,
				Value: r.values[i],
				Used:  fn.Mentions(p.Name),
			})
		}
		container.Cases = append(container.Cases, GeneratedCase{
			Name:       r.name,
			Ident:      unitIdent(fn, counter.Next()),
			Handle:     handle,
			Parallel:   parallel,
			Attributes: attributes,
			Bindings:   bindings,
			Body:       fn.Body,
		})
	}
	return container
}
