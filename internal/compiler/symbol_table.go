// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"go/ast"
	"go/token"
	"sync"

	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/expand"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// packageSymbolTable holds the top-level names of one directory. A
// directory can hold two packages, p and p_test, which do not share names,
// so names are kept per package name.
type packageSymbolTable struct {
	lock     sync.Mutex
	packages map[string]map[string]exc.Location
}

// packageSymbolTable.collect() adds the top-level declarations of a file.
// Duplicates within the sources are left for the Go compiler to report.
func (s *packageSymbolTable) collect(src *signature.Source) {
	s.lock.Lock()
	defer s.lock.Unlock()

	names := s.names(src.File.Name.Name)
	add := func(id *ast.Ident) {
		if id.Name == "_" {
			return
		}
		if _, ok := names[id.Name]; ok {
			return
		}
		names[id.Name] = exc.LocationOf(src.Fset.Position(id.Pos()))
	}
	for _, decl := range src.File.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil || d.Name.Name == "init" {
				continue
			}
			add(d.Name)
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				continue
			}
			for _, spec := range d.Specs {
				switch sp := spec.(type) {
				case *ast.TypeSpec:
					add(sp.Name)
				case *ast.ValueSpec:
					for _, name := range sp.Names {
						add(name)
					}
				}
			}
		}
	}
}

// packageSymbolTable.declare() adds the names a container generates. It
// fails without adding anything if one of them is already taken.
func (s *packageSymbolTable) declare(pkg string, container *expand.Container) exc.Exception {
	s.lock.Lock()
	defer s.lock.Unlock()

	names := s.names(pkg)
	for _, ident := range container.Idents() {
		if taken, ok := names[ident]; ok {
			return exc.Newf(container.Location, exc.CodeNameCollision,
				"%s generates %s, which is already declared at %s:%d:%d", container.Function, ident, taken.URI, taken.Line, taken.Column)
		}
	}
	for _, ident := range container.Idents() {
		names[ident] = container.Location
	}
	return nil
}

// Assumes we're already holding s.lock!
func (s *packageSymbolTable) names(pkg string) map[string]exc.Location {
	if s.packages == nil {
		s.packages = make(map[string]map[string]exc.Location)
	}
	if s.packages[pkg] == nil {
		s.packages[pkg] = make(map[string]exc.Location)
	}
	return s.packages[pkg]
}
