// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package render writes the expansions of one source file as a Go file of
// the same package.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"go/ast"
	"go/build/constraint"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/expand"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// Header is the first line of every generated file.
const Header = "// Code generated by paramgen. DO NOT EDIT."

//go:embed templates/file.go.tmpl
var fileTemplateText string

var fileTemplate = template.Must(template.New("file").Parse(fileTemplateText))

type importSpec struct {
	Name string
	Path string
}

type fileData struct {
	Constraint string
	Package    string
	Imports    []importSpec
	TestingT   string
	Containers []*expand.Container
}

// Render produces the generated file for the containers expanded from src.
// The file is named path and lives next to src. Imports of src that the
// generated code does not use are removed.
func Render(ctx context.Context, path string, src *signature.Source, containers []*expand.Container) (*pluginpb.CodeGeneratorResponse_File, error) {
	data := &fileData{
		Constraint: buildConstraint(src.File),
		Package:    src.File.Name.Name,
		Containers: containers,
	}
	data.Imports, data.TestingT = fileImports(src)

	var b bytes.Buffer
	if err := fileTemplate.Execute(&b, data); err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: path}, err)
	}
	content, err := imports.Process(path, b.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, exc.Wrap(exc.Location{URI: path}, exc.CodeGoParse, err)
	}
	return &pluginpb.CodeGeneratorResponse_File{
		Name:    proto.String(path),
		Content: proto.String(string(content)),
	}, nil
}

// fileImports copies the imports of src without blank imports. The testing
// package is referred to by the name src uses for it, and imported when src
// does not import it at all.
func fileImports(src *signature.Source) ([]importSpec, string) {
	specs := make([]importSpec, 0, len(src.File.Imports)+1)
	for _, imp := range src.File.Imports {
		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" {
			continue
		}
		specs = append(specs, importSpec{Name: name, Path: imp.Path.Value})
	}
	switch testing := src.TestingName(); testing {
	case "":
		specs = append(specs, importSpec{Path: strconv.Quote("testing")})
		return specs, "*testing.T"
	case ".":
		return specs, "*T"
	default:
		return specs, "*" + testing + ".T"
	}
}

// buildConstraint returns the //go:build line of f, or "" when it has none.
func buildConstraint(f *ast.File) string {
	for _, group := range f.Comments {
		if group.Pos() >= f.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				continue
			}
			return "//go:build " + expr.String()
		}
	}
	return ""
}

// IsGenerated reports whether content starts like a file that Render
// wrote.
func IsGenerated(content []byte) bool {
	return strings.HasPrefix(string(content), Header)
}
