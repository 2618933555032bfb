// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package expand

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.microglot.org/paramgen/internal/attr"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// checkUnique reports the first identifier that was already declared.
func checkUnique(lists *attr.ParameterizedList, kind string) exc.Exception {
	seen := make(map[string]bool, len(lists.Lists))
	for _, l := range lists.Lists {
		if seen[l.ID] {
			return exc.Newf(l.IDLocation, exc.CodeDuplicateIdentifier,
				"duplicate %s '%s'; every %s must be declared once", kind, l.ID, kind)
		}
		seen[l.ID] = true
	}
	return nil
}

// caseCount returns the common length of all lists, or 0 without lists.
//
// Values are matched one by one across lists: for
//
//	v = { "a", "b", "c" }, w = { 1, 2 }
//
// the third case has a value for v but none for w, so no complete set of
// cases exists.
func caseCount(lists *attr.ParameterizedList) (int, exc.Exception) {
	if len(lists.Lists) == 0 {
		return 0, nil
	}
	expected := len(lists.Lists[0].Values)
	for _, l := range lists.Lists[1:] {
		if len(l.Values) == expected {
			continue
		}
		return 0, exc.Newf(l.IDLocation, exc.CodeUnequalLength,
			"inconsistent argument list length for '%s': expected %d values; all inputs (%s) should have equal length",
			l.ID, expected, lengths(lists))
	}
	return expected, nil
}

// lengths lists every identifier with its count, sorted by identifier so the
// message does not depend on declaration order.
func lengths(lists *attr.ParameterizedList) string {
	sorted := make([]attr.ParameterList, len(lists.Lists))
	copy(sorted, lists.Lists)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	parts := make([]string, 0, len(sorted))
	for _, l := range sorted {
		parts = append(parts, fmt.Sprintf("%s: %d", l.ID, len(l.Values)))
	}
	return strings.Join(parts, ", ")
}

// checkParameters matches list identifiers against parameter names. Names
// compare exactly.
func checkParameters(lists *attr.ParameterizedList, fn *signature.Function, at exc.Location) exc.Exception {
	params := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		params[p.Name] = true
	}
	declared := make(map[string]bool, len(lists.Lists))
	for _, l := range lists.Lists {
		if !params[l.ID] {
			return exc.Newf(l.IDLocation, exc.CodeUnknownParameter,
				"no parameter named '%s' in %s(%s)", l.ID, fn.Name, strings.Join(fn.ParamNames(), ", "))
		}
		declared[l.ID] = true
	}
	for _, p := range fn.Params {
		if !declared[p.Name] {
			return exc.Newf(at, exc.CodeMissingValues,
				"no values for parameter '%s' of %s", p.Name, fn.Name)
		}
	}
	return nil
}

func checkArity(l attr.ParameterList, fn *signature.Function) exc.Exception {
	if len(l.Values) == len(fn.Params) {
		return nil
	}
	return exc.Newf(l.IDLocation, exc.CodeArityMismatch,
		"case '%s' has %d argument(s) but %s takes %d", l.ID, len(l.Values), fn.Name, len(fn.Params))
}
