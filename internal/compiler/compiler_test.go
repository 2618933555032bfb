// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
	"google.golang.org/protobuf/encoding/protojson"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/expand"
)

// writeArchive copies the files of a txtar archive into a new directory.
func writeArchive(t *testing.T, archive *txtar.Archive) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range archive.Files {
		path := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
	}
	return dir
}

func writeFixture(t *testing.T, name string) string {
	t.Helper()
	archive, err := txtar.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return writeArchive(t, archive)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	archive := &txtar.Archive{}
	for name, content := range files {
		archive.Files = append(archive.Files, txtar.File{Name: name, Data: []byte(content)})
	}
	return writeArchive(t, archive)
}

func generate(t *testing.T, req *api.GenerateRequest, opts ...Option) (*api.GenerateResponse, error) {
	t.Helper()
	g, err := New(append([]Option{OptionWithMaxConcurrency(2)}, opts...)...)
	require.NoError(t, err)
	return g.Generate(context.Background(), req)
}

func outputs(resp *api.GenerateResponse) map[string]string {
	out := map[string]string{}
	for _, f := range resp.Files {
		out[filepath.Base(f.GetName())] = f.GetContent()
	}
	return out
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	dir := writeFixture(t, "package.txtar")
	resp, err := generate(t, &api.GenerateRequest{Packages: []string{dir}})
	require.NoError(t, err)

	out := outputs(resp)
	require.Len(t, out, 2)
	require.Contains(t, out, "add_paramgen_test.go")
	require.Contains(t, out, "wine_paramgen_test.go")
	for _, f := range resp.Files {
		require.Equal(t, dir, filepath.Dir(f.GetName()))
	}
	require.Equal(t, []string{filepath.Join(dir, "old_paramgen_test.go")}, resp.Stale)
	require.Nil(t, resp.Plan)

	add := out["add_paramgen_test.go"]
	require.True(t, strings.HasPrefix(add, "// Code generated by paramgen. DO NOT EDIT.\n"))
	require.Contains(t, add, "func TestAdd5(t *testing.T) {")
	require.Contains(t, add, `t.Run("case_2", testAdd5_2)`)
	require.Contains(t, add, "var expected uint32 = 7")
	require.NotContains(t, add, `"fmt"`)

	// Files expand in name order and share one counter.
	wine := out["wine_paramgen_test.go"]
	require.Contains(t, wine, "func TestWinesTasted(t *testing.T) {")
	require.Contains(t, wine, `t.Run("champagne", winesTasted_3)`)
	require.Contains(t, wine, `t.Run("languedoc", winesTasted_4)`)
	require.Contains(t, wine, "var region WineRegion = Languedoc")
	require.Equal(t, 2, strings.Count(wine, "//paramgen:test\nfunc winesTasted_"))
	require.Equal(t, 2, strings.Count(wine, "//paramgen:test"))

	for name, content := range out {
		_, err := parser.ParseFile(token.NewFileSet(), name, content, parser.ParseComments)
		require.NoError(t, err, name)
	}
}

func TestGenerateIsStable(t *testing.T) {
	t.Parallel()
	dir := writeFixture(t, "package.txtar")
	first, err := generate(t, &api.GenerateRequest{Packages: []string{dir}})
	require.NoError(t, err)
	second, err := generate(t, &api.GenerateRequest{Packages: []string{dir}}, OptionWithMaxConcurrency(1))
	require.NoError(t, err)
	require.Equal(t, outputs(first), outputs(second))
}

func TestGenerateReportsEveryFailure(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"a_test.go": `package p

import "testing"

//paramgen:values v = { 1, 2 }, w = { 1 }
func testA(t *testing.T, v int, w int) {}

//paramgen:values v = { 1 }
func testOK(t *testing.T, v int) {}
`,
		"b_test.go": `package p

//paramgen:cases one = { 1, 2 }
func testB(v int) {}

type s struct{}

//paramgen:values v = { 1 }
func (self *s) testC(v int) {}
`,
	})
	reporter := exc.NewReporter()
	resp, err := generate(t, &api.GenerateRequest{Packages: []string{dir}}, OptionWithExcReporter(reporter))
	require.Nil(t, resp)
	require.Error(t, err)

	var me MultiException
	require.True(t, errors.As(err, &me))
	require.Equal(t, []exc.Exception(me), reporter.Reported())
	codes := []string{}
	for _, e := range me {
		codes = append(codes, e.Code())
	}
	require.Equal(t, []string{exc.CodeUnequalLength, exc.CodeArityMismatch, exc.CodeMalformedParameter}, codes)
	require.Equal(t, filepath.Join(dir, "a_test.go"), me[0].Location().URI)
	require.Equal(t, filepath.Join(dir, "b_test.go"), me[2].Location().URI)
	require.Contains(t, err.Error(), "; ")
}

func TestGenerateNameCollision(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		files   map[string]string
		collide bool
		message string
	}{
		{
			name: "container name taken in the package",
			files: map[string]string{
				"a.go":      "package p\n\nvar TestAdd = 1\n",
				"a_test.go": "package p\n\n//paramgen:values v = { 1 }\nfunc testAdd(v int) {}\n",
			},
			collide: true,
		},
		{
			name: "unit name taken",
			files: map[string]string{
				"a_test.go": "package p\n\nfunc testAdd_0() {}\n\n//paramgen:values v = { 1 }\nfunc testAdd(v int) {}\n",
			},
			collide: true,
		},
		{
			name: "two functions with one container name",
			files: map[string]string{
				"a_test.go": "package p\n\n//paramgen:values v = { 1 }\nfunc testAdd(v int) {}\n\n//paramgen:values v = { 1 }\nfunc Add(v int) {}\n",
			},
			collide: true,
		},
		{
			name:    "hand-written file at the output path",
			message: "refusing to overwrite",
			files: map[string]string{
				"a_paramgen_test.go": "package p\n\nfunc helper() {}\n",
				"a_test.go":          "package p\n\n//paramgen:values v = { 1 }\nfunc testAdd(v int) {}\n",
			},
			collide: true,
		},
		{
			name: "external test package has its own names",
			files: map[string]string{
				"a.go":      "package p\n\nvar TestAdd = 1\n",
				"a_test.go": "package p_test\n\n//paramgen:values v = { 1 }\nfunc testAdd(v int) {}\n",
			},
		},
		{
			name: "methods do not collide",
			files: map[string]string{
				"a_test.go": "package p\n\ntype s struct{}\n\nfunc (s) TestAdd() {}\n\n//paramgen:values v = { 1 }\nfunc testAdd(v int) {}\n",
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			dir := writeFiles(t, testCase.files)
			resp, err := generate(t, &api.GenerateRequest{Packages: []string{dir}})
			if !testCase.collide {
				require.NoError(t, err)
				require.Len(t, resp.Files, 1)
				return
			}
			var me MultiException
			require.True(t, errors.As(err, &me))
			require.Len(t, me, 1)
			require.Equal(t, exc.CodeNameCollision, me[0].Code())
			require.Contains(t, me[0].Message(), testCase.message)
		})
	}
}

func TestGenerateParseError(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"a_test.go": "package p\n\nfunc broken( {\n",
	})
	_, err := generate(t, &api.GenerateRequest{Packages: []string{dir}})
	var me MultiException
	require.True(t, errors.As(err, &me))
	require.Equal(t, exc.CodeGoParse, me[0].Code())
	require.Equal(t, 3, me[0].Location().Line)
}

func TestGenerateMissingPackage(t *testing.T) {
	t.Parallel()
	_, err := generate(t, &api.GenerateRequest{Packages: []string{filepath.Join(t.TempDir(), "missing")}})
	var e exc.Exception
	require.True(t, errors.As(err, &e))
	require.Equal(t, exc.CodeFileNotFound, e.Code())
}

func TestGenerateCustomOptions(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"a_test.go": "package p\n\n//team:test\n//paramgen:values v = { 1 }\nfunc testAdd(v int) { _ = v }\n",
	})
	resp, err := generate(t, &api.GenerateRequest{Packages: []string{dir}},
		OptionWithSuffix("_gen_test.go"), OptionWithMarkers([]string{"team:test"}))
	require.NoError(t, err)
	out := outputs(resp)
	require.Contains(t, out, "a_gen_test.go")
	require.Equal(t, 1, strings.Count(out["a_gen_test.go"], "//team:test"))
	require.NotContains(t, out["a_gen_test.go"], "//paramgen:test")
}

func TestOptionErrors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		option Option
	}{
		{name: "suffix without _test.go", option: OptionWithSuffix("_gen.go")},
		{name: "suffix equal to _test.go", option: OptionWithSuffix("_test.go")},
		{name: "empty marker", option: OptionWithMarkers([]string{""})},
		{name: "marker with space", option: OptionWithMarkers([]string{"a b"})},
		{name: "negative concurrency", option: OptionWithMaxConcurrency(-1)},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(testCase.option)
			require.Error(t, err)
		})
	}
}

func TestGenerateDumpTree(t *testing.T) {
	t.Parallel()
	dir := writeFixture(t, "package.txtar")
	resp, err := generate(t, &api.GenerateRequest{Packages: []string{dir}, DumpTree: true})
	require.NoError(t, err)
	require.NotNil(t, resp.Plan)

	files := resp.Plan.GetFields()["files"].GetListValue().GetValues()
	require.Len(t, files, 2)
	first := files[0].GetStructValue().GetFields()
	require.Equal(t, filepath.Join(dir, "add_test.go"), first["source"].GetStringValue())
	require.Equal(t, filepath.Join(dir, "add_paramgen_test.go"), first["output"].GetStringValue())
	containers := first["containers"].GetListValue().GetValues()
	require.Len(t, containers, 1)
	container := containers[0].GetStructValue().GetFields()
	require.Equal(t, "TestAdd5", container["name"].GetStringValue())
	require.Equal(t, "paramgen:values", container["mode"].GetStringValue())
	require.Len(t, container["cases"].GetListValue().GetValues(), 3)

	_, err = protojson.MarshalOptions{Multiline: true}.Marshal(resp.Plan)
	require.NoError(t, err)
}

func TestSymbolTable(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"a.go": "package p\n\nimport \"fmt\"\n\ntype T struct{}\n\nvar a, _ = 1, 2\n\nconst (\n\tB = iota\n\tC\n)\n\nfunc init() {}\n\nfunc (T) M() {}\n\nfunc F() { fmt.Println() }\n",
	})
	g, err := New()
	require.NoError(t, err)
	c := g.(*compiler)
	files, err := c.FS.Open(context.Background(), dir)
	require.NoError(t, err)
	sources, err := c.parseFiles(context.Background(), files)
	require.NoError(t, err)

	symbols := &packageSymbolTable{}
	symbols.collect(sources[0].src)
	declared := func(pkg string, name string) exc.Exception {
		return symbols.declare(pkg, &expand.Container{
			Name:     name,
			Function: "f",
			Location: exc.Location{URI: "/b_test.go", Line: 1},
		})
	}
	for _, name := range []string{"T", "a", "B", "C", "F"} {
		err := declared("p", name)
		require.NotNil(t, err, name)
		require.Equal(t, exc.CodeNameCollision, err.Code())
	}
	for _, name := range []string{"_", "init", "M", "fmt"} {
		require.Nil(t, declared("p", name), name)
	}
	require.Contains(t, declared("p", "T").Message(), "a.go:5:6")
	require.Nil(t, declared("p_test", "T"))

	// A declared container reserves its names for the rest of the package.
	require.NotNil(t, declared("p", "M"))
}
