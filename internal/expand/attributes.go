// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package expand

import (
	"gopkg.microglot.org/paramgen/internal/signature"
)

// isGeneratorDirective reports directives that describe the original
// function rather than the units. A go:generate line would run once per unit
// and a line directive would point unit positions at the wrong source.
func isGeneratorDirective(name string) bool {
	switch name {
	case DirectiveValues, DirectiveCases, DirectiveParallel, "go:generate", "line":
		return true
	default:
		return false
	}
}

// propagate returns the directive lines that every generated unit carries.
// Generator directives are dropped. The last test marker is dropped too
// because each unit gets exactly one marker from the expansion itself.
func propagate(attributes []signature.Attribute, markers []string) []string {
	kept := make([]signature.Attribute, 0, len(attributes))
	for _, a := range attributes {
		if isGeneratorDirective(a.Name) {
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept) - 1; i >= 0; i = i - 1 {
		if isMarker(kept[i].Name, markers) {
			kept = append(kept[:i:i], kept[i+1:]...)
			break
		}
	}

	lines := make([]string, 0, len(kept)+1)
	if len(markers) > 0 {
		lines = append(lines, "//"+markers[0])
	}
	for _, a := range kept {
		lines = append(lines, a.Text)
	}
	return lines
}

func isMarker(name string, markers []string) bool {
	for _, m := range markers {
		if name == m {
			return true
		}
	}
	return false
}
