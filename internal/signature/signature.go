// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package signature reads the parts of a parameterized test function that
// the expansion needs: its name, visibility, directive attributes,
// parameters and body.
package signature

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/optional"
)

// Attribute is one directive line of a doc comment, such as
// "//nolint:errcheck" or "//paramgen:values v = { 1 }".
type Attribute struct {
	Name string
	Args string
	// Text is the comment line as written.
	Text         string
	Location     exc.Location
	ArgsLocation exc.Location
}

type Param struct {
	Name string
	// Type is the source text of the declared type. A variadic ...T is
	// reported as []T.
	Type     string
	Variadic bool
	Location exc.Location
}

type Function struct {
	Name       string
	Exported   bool
	Attributes []Attribute
	// Handle is the leading *testing.T or testing.TB parameter, if any.
	Handle   optional.Optional[Param]
	Params   []Param
	Body     string
	BodyNode *ast.BlockStmt
	Location exc.Location
}

// Source is a parsed Go file together with its text.
type Source struct {
	Fset *token.FileSet
	File *ast.File
	Text []byte
}

func (s *Source) location(p token.Pos) exc.Location {
	return exc.LocationOf(s.Fset.Position(p))
}

func (s *Source) text(n ast.Node) string {
	return string(s.Text[s.Fset.Position(n.Pos()).Offset:s.Fset.Position(n.End()).Offset])
}

// TestingName returns the identifier under which the file imports the
// testing package, "." for a dot import, or "" when it is not imported.
func (s *Source) TestingName() string {
	for _, imp := range s.File.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != "testing" {
			continue
		}
		if imp.Name == nil {
			return "testing"
		}
		if imp.Name.Name == "_" {
			continue
		}
		return imp.Name.Name
	}
	return ""
}

// Extract validates that decl is a plain function whose parameters can all
// be bound to values and returns a read-only view of it.
func Extract(src *Source, decl *ast.FuncDecl) (*Function, exc.Exception) {
	fn := &Function{
		Name:       decl.Name.Name,
		Exported:   decl.Name.IsExported(),
		Attributes: Attributes(src, decl.Doc),
		Location:   src.location(decl.Pos()),
	}
	if prefix, ok := goTestPrefix(fn.Name); ok {
		return nil, exc.Newf(src.location(decl.Name.Pos()), exc.CodeUnsupportedSignature,
			"%s is run by go test as written; a parameterized function must not be named %s followed by an upper-case letter, digit or nothing", fn.Name, prefix)
	}
	if decl.Recv != nil && len(decl.Recv.List) > 0 {
		return nil, exc.Newf(src.location(decl.Recv.Pos()), exc.CodeMalformedParameter,
			"%s has a receiver %s; only plain functions can be parameterized", fn.Name, src.text(decl.Recv.List[0].Type))
	}
	if decl.Type.TypeParams != nil && len(decl.Type.TypeParams.List) > 0 {
		return nil, exc.Newf(src.location(decl.Type.TypeParams.Pos()), exc.CodeUnsupportedSignature,
			"%s declares type parameters", fn.Name)
	}
	if decl.Type.Results != nil && len(decl.Type.Results.List) > 0 {
		return nil, exc.Newf(src.location(decl.Type.Results.Pos()), exc.CodeUnsupportedSignature,
			"%s returns values; a parameterized test must not have results", fn.Name)
	}
	if decl.Body == nil {
		return nil, exc.Newf(fn.Location, exc.CodeUnsupportedSignature, "%s has no body", fn.Name)
	}
	fn.BodyNode = decl.Body
	fn.Body = src.text(decl.Body)

	testing := src.TestingName()
	position := 0
	for _, field := range decl.Type.Params.List {
		if len(field.Names) == 0 {
			return nil, exc.Newf(src.location(field.Pos()), exc.CodeMalformedParameter,
				"parameter %d of %s has no name", position+1, fn.Name)
		}
		for _, name := range field.Names {
			param := Param{
				Name:     name.Name,
				Type:     src.text(field.Type),
				Location: src.location(name.Pos()),
			}
			if ellipsis, ok := field.Type.(*ast.Ellipsis); ok {
				param.Variadic = true
				param.Type = "[]" + src.text(ellipsis.Elt)
			}
			if position == 0 && isHandle(field.Type, testing) {
				fn.Handle = optional.Some(param)
				position = position + 1
				continue
			}
			if name.Name == "_" {
				return nil, exc.Newf(param.Location, exc.CodeMalformedParameter,
					"parameter %d of %s is blank and cannot be bound to a value", position+1, fn.Name)
			}
			fn.Params = append(fn.Params, param)
			position = position + 1
		}
	}
	return fn, nil
}

var goTestPrefixes = []string{"Test", "Benchmark", "Fuzz", "Example"}

// goTestPrefix reports whether go test would collect a function of this
// name. The function stays in its source file next to the generated units,
// and every unit name derived from it would be collected as well.
func goTestPrefix(name string) (string, bool) {
	for _, prefix := range goTestPrefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if len(name) == len(prefix) {
			return prefix, true
		}
		r, _ := utf8.DecodeRuneInString(name[len(prefix):])
		if !unicode.IsLower(r) {
			return prefix, true
		}
	}
	return "", false
}

// ParamNames returns the bound parameter names in declaration order.
func (f *Function) ParamNames() []string {
	names := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		names = append(names, p.Name)
	}
	return names
}

// Mentions reports whether the body refers to an identifier with the given
// name anywhere. Shadowing is not taken into account.
func (f *Function) Mentions(name string) bool {
	found := false
	ast.Inspect(f.BodyNode, func(n ast.Node) bool {
		if found {
			return false
		}
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = true
		}
		return true
	})
	return found
}

func isHandle(expr ast.Expr, testing string) bool {
	if testing == "" {
		return false
	}
	if star, ok := expr.(*ast.StarExpr); ok {
		return isTestingIdent(star.X, testing, "T")
	}
	return isTestingIdent(expr, testing, "TB")
}

func isTestingIdent(expr ast.Expr, testing string, name string) bool {
	if testing == "." {
		id, ok := expr.(*ast.Ident)
		return ok && id.Name == name
	}
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == testing
}

// Attributes returns the directive lines of a doc comment in source order.
func Attributes(src *Source, doc *ast.CommentGroup) []Attribute {
	if doc == nil {
		return nil
	}
	var attributes []Attribute
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, "//") || !isDirective(c.Text[2:]) {
			continue
		}
		body := c.Text[2:]
		name, args := body, ""
		if idx := strings.IndexAny(body, " \t"); idx >= 0 {
			name = body[:idx]
			args = strings.TrimLeft(body[idx:], " \t")
		}
		loc := src.location(c.Slash)
		attributes = append(attributes, Attribute{
			Name:         name,
			Args:         args,
			Text:         c.Text,
			Location:     loc,
			ArgsLocation: loc.Shift(len(c.Text) - len(args)),
		})
	}
	return attributes
}

// isDirective follows the go/ast convention: "//line ", "//extern ",
// "//export " or "//[a-z0-9]+:[a-z0-9]". The leading slashes are already
// removed.
func isDirective(c string) bool {
	if strings.HasPrefix(c, "line ") || strings.HasPrefix(c, "extern ") || strings.HasPrefix(c, "export ") {
		return true
	}
	colon := strings.Index(c, ":")
	if colon <= 0 || colon+1 >= len(c) {
		return false
	}
	for i := 0; i <= colon+1; i = i + 1 {
		if i == colon {
			continue
		}
		b := c[i]
		if !('a' <= b && b <= 'z' || '0' <= b && b <= '9') {
			return false
		}
	}
	return true
}
