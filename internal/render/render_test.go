// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"gopkg.microglot.org/paramgen/internal/expand"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// expandFile writes text to dir and expands every function of it that
// carries a directive.
func expandFile(t *testing.T, dir string, name string, text string) (*signature.Source, []*expand.Container) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, text, parser.ParseComments)
	require.NoError(t, err)
	src := &signature.Source{Fset: fset, File: f, Text: []byte(text)}

	expander := expand.New(&expand.Counter{}, nil)
	containers := []*expand.Container{}
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !expand.HasDirective(signature.Attributes(src, fn.Doc)) {
			continue
		}
		container, exception := expander.Expand(context.Background(), src, fn)
		require.Nil(t, exception)
		containers = append(containers, container)
	}
	return src, containers
}

func TestRenderGolden(t *testing.T) {
	t.Parallel()
	archive, err := txtar.ParseFile(filepath.Join("testdata", "add.txtar"))
	require.NoError(t, err)
	files := map[string]string{}
	for _, f := range archive.Files {
		files[f.Name] = string(f.Data)
	}

	dir := t.TempDir()
	src, containers := expandFile(t, dir, "add_test.go", files["add_test.go"])
	out, err := Render(context.Background(), filepath.Join(dir, "add_paramgen_test.go"), src, containers)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "add_paramgen_test.go"), out.GetName())
	if diff := cmp.Diff(files["add_paramgen_test.go"], out.GetContent()); diff != "" {
		t.Fatalf("generated file mismatch (-want +got):\n%s", diff)
	}
	require.True(t, IsGenerated([]byte(out.GetContent())))
}

func importPaths(t *testing.T, content string) map[string]string {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "out.go", content, parser.ImportsOnly)
	require.NoError(t, err)
	paths := map[string]string{}
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		require.NoError(t, err)
		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		}
		paths[path] = name
	}
	return paths
}

func TestRenderImports(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		source   string
		imports  map[string]string
		contains []string
	}{
		{
			name: "unused imports are removed",
			source: `package add

import (
	"fmt"
	"strings"
	"testing"
	_ "embed"
)

func TestFormat(t *testing.T) {
	t.Log(fmt.Sprint(1))
}

//paramgen:values s = { "a", "b" }
func testUpper(t *testing.T, s string) {
	if strings.ToUpper(s) == s {
		t.Fail()
	}
}
`,
			imports:  map[string]string{"strings": "", "testing": ""},
			contains: []string{"func TestUpper(t *testing.T) {", "func testUpper_0(t *testing.T) {"},
		},
		{
			name: "aliased testing",
			source: `package add

import tst "testing"

//paramgen:values v = { 1 }
func testAlias(t *tst.T, v int) {
	t.Log(v)
}
`,
			imports:  map[string]string{"testing": "tst"},
			contains: []string{"func TestAlias(t *tst.T) {", "func testAlias_0(t *tst.T) {"},
		},
		{
			name: "testing added",
			source: `package add

//paramgen:values v = { 1 }
func testPlain(v int) {
	_ = v
}
`,
			imports:  map[string]string{"testing": ""},
			contains: []string{"func TestPlain(t *testing.T) {", "func testPlain_0(*testing.T) {"},
		},
		{
			name: "external test package",
			source: `package add_test

import (
	"testing"
	"unicode/utf8"
)

//paramgen:cases ascii = { "abc", 3 }, accented = { "été", 3 }
func testLen(t *testing.T, s string, n int) {
	if utf8.RuneCountInString(s) != n {
		t.Fail()
	}
}
`,
			imports:  map[string]string{"testing": "", "unicode/utf8": ""},
			contains: []string{"package add_test", `t.Run("accented", testLen_1)`},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			src, containers := expandFile(t, dir, "add_test.go", testCase.source)
			out, err := Render(context.Background(), filepath.Join(dir, "add_paramgen_test.go"), src, containers)
			require.NoError(t, err)
			require.Equal(t, testCase.imports, importPaths(t, out.GetContent()))
			for _, c := range testCase.contains {
				require.Contains(t, out.GetContent(), c)
			}
		})
	}
}

func TestBuildConstraint(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		source   string
		expected string
	}{
		{name: "none", source: "package p\n", expected: ""},
		{name: "simple", source: "//go:build linux\n\npackage p\n", expected: "//go:build linux"},
		{name: "after header", source: "// Copyright\n\n//go:build linux && !race\n\npackage p\n", expected: "//go:build linux && !race"},
		{name: "in package doc", source: "// Package p.\n//go:build linux\npackage p\n", expected: "//go:build linux"},
		{name: "after package", source: "package p\n\n//go:build linux\n", expected: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			f, err := parser.ParseFile(token.NewFileSet(), "p.go", testCase.source, parser.ParseComments)
			require.NoError(t, err)
			require.Equal(t, testCase.expected, buildConstraint(f))
		})
	}
}
