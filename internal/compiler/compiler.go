// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package compiler drives the expansion of whole Go packages: it reads the
// files of each package, expands every parameterized test function and
// renders one generated file per source file.
package compiler

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"runtime"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/pluginpb"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/expand"
	"gopkg.microglot.org/paramgen/internal/fs"
	"gopkg.microglot.org/paramgen/internal/render"
	"gopkg.microglot.org/paramgen/internal/signature"
)

// DefaultSuffix replaces "_test.go" in the name of a source file to name
// its generated file.
const DefaultSuffix = "_paramgen_test.go"

type Option func(c *compiler) error

func OptionWithFS(fs api.FileSystem) Option {
	return func(c *compiler) error {
		c.FS = fs
		return nil
	}
}

func OptionWithExcReporter(reporter exc.Reporter) Option {
	return func(c *compiler) error {
		c.Reporter = reporter
		return nil
	}
}

// OptionWithMarkers sets the directives that mark a function as a test. The
// first one is written on every generated unit.
func OptionWithMarkers(markers []string) Option {
	return func(c *compiler) error {
		for _, m := range markers {
			if m == "" || strings.ContainsAny(m, " \t") {
				return fmt.Errorf("invalid marker %q", m)
			}
		}
		c.Markers = markers
		return nil
	}
}

func OptionWithSuffix(suffix string) Option {
	return func(c *compiler) error {
		if !strings.HasSuffix(suffix, "_test.go") || suffix == "_test.go" {
			return fmt.Errorf("suffix %q must end in _test.go and differ from it", suffix)
		}
		c.Suffix = suffix
		return nil
	}
}

func OptionWithMaxConcurrency(max int) Option {
	return func(c *compiler) error {
		if max < 0 {
			return fmt.Errorf("max concurrency must not be negative, got %d", max)
		}
		c.MaxConcurrency = max
		return nil
	}
}

func New(opts ...Option) (api.Generator, error) {
	c := &compiler{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.FS == nil {
		dfs, err := NewDefaultFS()
		if err != nil {
			return nil, err
		}
		c.FS = dfs
	}
	if c.MaxConcurrency == 0 {
		max := runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if max > cpus {
			max = cpus
		}
		c.MaxConcurrency = max
	}
	if c.Reporter == nil {
		c.Reporter = exc.NewReporter()
	}
	if len(c.Markers) == 0 {
		c.Markers = []string{expand.DefaultMarker}
	}
	if c.Suffix == "" {
		c.Suffix = DefaultSuffix
	}
	return c, nil
}

type compiler struct {
	FS             api.FileSystem
	MaxConcurrency int
	Reporter       exc.Reporter
	Markers        []string
	Suffix         string
}

// Generate expands every package of the request. Nothing is returned when
// any directive fails; the error then holds every reported exception.
func (self *compiler) Generate(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResponse, error) {
	resp := &api.GenerateResponse{}
	plans := []*filePlan{}
	for _, dir := range req.Packages {
		pkg, err := self.generatePackage(ctx, dir)
		if err != nil {
			return nil, err
		}
		resp.Files = append(resp.Files, pkg.files...)
		resp.Stale = append(resp.Stale, pkg.stale...)
		plans = append(plans, pkg.plans...)
	}
	caught := self.Reporter.Reported()
	if len(caught) > 0 {
		return nil, MultiException(caught)
	}
	if req.DumpTree {
		plan, err := dumpPlan(plans)
		if err != nil {
			return nil, exc.WrapUnknown(exc.Location{}, err)
		}
		resp.Plan = plan
	}
	return resp, nil
}

type sourceFile struct {
	file api.File
	src  *signature.Source
	// output is a file this tool wrote earlier.
	output bool
	// generated files by other tools declare names but are never expanded.
	generated bool
}

type filePlan struct {
	path       string
	output     string
	containers []*expand.Container
}

type packageResult struct {
	files []*pluginpb.CodeGeneratorResponse_File
	stale []string
	plans []*filePlan
}

func (self *compiler) generatePackage(ctx context.Context, dir string) (*packageResult, error) {
	glog.V(1).Infof("generating package %s", dir)
	files, err := self.FS.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	sources, err := self.parseFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	symbols := &packageSymbolTable{}
	authored := map[string]bool{}
	for _, s := range sources {
		if s != nil && !s.output {
			symbols.collect(s.src)
			authored[s.file.Path(ctx)] = true
		}
	}

	// Expansion runs in file and declaration order so that unit names are
	// the same on every run.
	counter := &expand.Counter{}
	expander := expand.New(counter, self.Markers)
	result := &packageResult{}
	outputs := map[string]bool{}
	for _, s := range sources {
		if s == nil || s.output || s.generated || s.file.Kind(ctx) != api.FileKindGoTest {
			continue
		}
		plan := self.expandFile(ctx, expander, symbols, s)
		if len(plan.containers) == 0 {
			continue
		}
		if authored[plan.output] {
			self.Reporter.Report(exc.Newf(
				exc.Location{URI: plan.output},
				exc.CodeNameCollision,
				"refusing to overwrite %s: it was not generated by paramgen",
				plan.output,
			))
			continue
		}
		outputs[plan.output] = true
		result.plans = append(result.plans, plan)
		out, err := render.Render(ctx, plan.output, s.src, plan.containers)
		if err != nil {
			if e, ok := err.(exc.Exception); ok {
				self.Reporter.Report(e)
				continue
			}
			return nil, err
		}
		result.files = append(result.files, out)
	}
	for _, s := range sources {
		if s == nil || !s.output {
			continue
		}
		path := s.file.Path(ctx)
		if !outputs[path] {
			glog.V(1).Infof("%s is stale", path)
			result.stale = append(result.stale, path)
		}
	}
	return result, nil
}

// parseFiles reads and parses the Go files of one package concurrently. The
// result is index aligned with files; entries are nil for files that are
// not Go or did not parse. Earlier output of this tool is recognized by
// name and header and not parsed. Parse failures are reported, read failures are
// returned.
func (self *compiler) parseFiles(ctx context.Context, files []api.File) ([]*sourceFile, error) {
	fset := token.NewFileSet()
	sources := make([]*sourceFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(self.MaxConcurrency)
	for offset, file := range files {
		if file.Kind(ctx) == api.FileKindNone {
			continue
		}
		g.Go(func() error {
			path := file.Path(gctx)
			content, err := fs.ReadAll(gctx, file)
			if err != nil {
				return err
			}
			if strings.HasSuffix(path, self.Suffix) && render.IsGenerated(content) {
				// Earlier output is replaced, never read.
				sources[offset] = &sourceFile{file: file, output: true}
				return nil
			}
			f, err := parser.ParseFile(fset, path, content, parser.ParseComments)
			if err != nil {
				self.reportParseError(path, err)
				return nil
			}
			sources[offset] = &sourceFile{
				file:      file,
				src:       &signature.Source{Fset: fset, File: f, Text: content},
				generated: ast.IsGenerated(f),
			}
			glog.V(2).Infof("parsed %s", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

func (self *compiler) reportParseError(path string, err error) {
	list, ok := err.(scanner.ErrorList)
	if !ok || len(list) == 0 {
		self.Reporter.Report(exc.Wrap(exc.Location{URI: path}, exc.CodeGoParse, err))
		return
	}
	for _, e := range list {
		self.Reporter.Report(exc.New(exc.LocationOf(e.Pos), exc.CodeGoParse, e.Msg))
	}
}

// expandFile expands every function of s that carries a directive. A
// function that fails is reported and left out; the others still expand.
func (self *compiler) expandFile(ctx context.Context, expander *expand.Expander, symbols *packageSymbolTable, s *sourceFile) *filePlan {
	path := s.file.Path(ctx)
	plan := &filePlan{
		path:   path,
		output: strings.TrimSuffix(path, "_test.go") + self.Suffix,
	}
	pkg := s.src.File.Name.Name
	for _, decl := range s.src.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !expand.HasDirective(signature.Attributes(s.src, fn.Doc)) {
			continue
		}
		glog.V(1).Infof("expanding %s.%s", pkg, fn.Name.Name)
		container, err := expander.Expand(ctx, s.src, fn)
		if err != nil {
			self.Reporter.Report(err)
			continue
		}
		if err := symbols.declare(pkg, container); err != nil {
			self.Reporter.Report(err)
			continue
		}
		glog.V(2).Infof("%s expands to %d cases", container.Name, len(container.Cases))
		plan.containers = append(plan.containers, container)
	}
	return plan
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}
