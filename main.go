// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Command paramgen expands parameterized test functions into one Go test
// per case. It is meant to be run by go generate:
//
//	//go:generate paramgen
package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/compiler"
	"gopkg.microglot.org/paramgen/internal/exc"
	"gopkg.microglot.org/paramgen/internal/expand"
	"gopkg.microglot.org/paramgen/internal/fs"
	"gopkg.microglot.org/paramgen/internal/target"
)

type opts struct {
	Suffix         string
	Output         string
	Markers        []string
	Check          bool
	DumpTree       bool
	MaxConcurrency int
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	op := &opts{}
	flags := pflag.NewFlagSet("paramgen", pflag.ExitOnError)
	flags.StringVar(&op.Suffix, "suffix", compiler.DefaultSuffix, "Replaces _test.go in a source file name to name its generated file.")
	flags.StringVar(&op.Output, "output", "", "Set to - to print generated files to STDOUT instead of writing them.")
	flags.StringSliceVar(&op.Markers, "marker", []string{expand.DefaultMarker}, "Directives that mark a function as a test. The first is written on every generated test.")
	flags.BoolVar(&op.Check, "check", false, "Write nothing; print a diff and fail if generated files are out of date.")
	flags.BoolVar(&op.DumpTree, "dump-tree", false, "Output the expansion plan as JSON")
	flags.IntVar(&op.MaxConcurrency, "max-concurrency", 0, "Files parsed at once. 0 picks the number of CPUs.")
	flags.AddGoFlagSet(goflag.CommandLine)
	_ = flags.Parse(os.Args[1:])
	// glog reads its flags from the standard flag set.
	_ = goflag.CommandLine.Parse([]string{})
	targets := flags.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	code := run(ctx, op, targets, os.Stdout, os.Stderr)
	cancel()
	glog.Flush()
	os.Exit(code)
}

func run(ctx context.Context, op *opts, targets []string, stdout io.Writer, stderr io.Writer) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	packages := []string{}
	for _, t := range targets {
		dirs, err := target.Expand(os.DirFS("/"), target.Normalize(cwd, t))
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		packages = append(packages, dirs...)
	}

	fsys, err := compiler.NewDefaultFS()
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	g, err := compiler.New(
		compiler.OptionWithFS(fsys),
		compiler.OptionWithSuffix(op.Suffix),
		compiler.OptionWithMarkers(op.Markers),
		compiler.OptionWithMaxConcurrency(op.MaxConcurrency),
	)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	out, err := g.Generate(ctx, &api.GenerateRequest{
		Packages: packages,
		DumpTree: op.DumpTree,
	})
	if err != nil {
		var me compiler.MultiException
		if errors.As(err, &me) {
			for _, err := range me {
				fmt.Fprintln(stderr, err.Error())
			}
			return 1
		}
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	if op.DumpTree {
		b, err := protojson.MarshalOptions{Multiline: true}.Marshal(out.Plan)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		fmt.Fprintln(stdout, string(b))
	}

	switch {
	case op.Check:
		return check(ctx, fsys, out, stdout)
	case op.Output == "-":
		for _, f := range out.Files {
			fmt.Fprintf(stdout, "// %s\n%s", f.GetName(), f.GetContent())
		}
		return 0
	default:
		return write(ctx, fsys, out, stderr)
	}
}

func write(ctx context.Context, fsys api.FileSystem, out *api.GenerateResponse, stderr io.Writer) int {
	for _, f := range out.Files {
		glog.V(1).Infof("writing %s", f.GetName())
		if err := fsys.Write(ctx, f.GetName(), f.GetContent()); err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
	}
	for _, path := range out.Stale {
		glog.V(1).Infof("removing %s", path)
		if err := fsys.Remove(ctx, path); err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
	}
	return 0
}

// check compares the generated files with what is on disk and prints a
// line diff for each one that differs.
func check(ctx context.Context, fsys api.FileSystem, out *api.GenerateResponse, stdout io.Writer) int {
	code := 0
	for _, f := range out.Files {
		current, err := readExisting(ctx, fsys, f.GetName())
		if err != nil {
			fmt.Fprintln(stdout, err.Error())
			return 1
		}
		if current == f.GetContent() {
			continue
		}
		code = 1
		fmt.Fprintf(stdout, "--- %s\n+++ %s (generated)\n%s", f.GetName(), f.GetName(), lineDiff(current, f.GetContent()))
	}
	for _, path := range out.Stale {
		code = 1
		fmt.Fprintf(stdout, "%s is stale and would be removed\n", path)
	}
	return code
}

func readExisting(ctx context.Context, fsys api.FileSystem, path string) (string, error) {
	files, err := fsys.Open(ctx, path)
	if err != nil {
		var e exc.Exception
		if errors.As(err, &e) && e.Code() == exc.CodeFileNotFound {
			return "", nil
		}
		return "", err
	}
	content, err := fs.ReadAll(ctx, files[0])
	if err != nil {
		return "", err
	}
	return string(content), nil
}
