// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package api holds the contracts shared between the paramgen driver, its
// file systems and its iterators.
package api

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/pluginpb"

	"gopkg.microglot.org/paramgen/internal/optional"
)

type Closer interface {
	Close(ctx context.Context) error
}

type Iterator[T any] interface {
	Next(ctx context.Context) optional.Optional[T]
	Closer
}

type Lookahead[T any] interface {
	Iterator[T]
	Lookahead(ctx context.Context, n uint8) optional.Optional[T]
}

type Filter[T any] interface {
	Keep(ctx context.Context, v T) bool
}

type Reader interface {
	Read(ctx context.Context, size int32) ([]byte, error)
}

type FileBody interface {
	Reader
	Closer
}

type FileKind uint32

const (
	FileKindNone FileKind = iota
	// FileKindGoSource is a non-test Go file. It only contributes package
	// level names.
	FileKindGoSource
	// FileKindGoTest is a _test.go file that may carry paramgen directives.
	FileKindGoTest
)

func (k FileKind) String() string {
	switch k {
	case FileKindGoSource:
		return "go"
	case FileKindGoTest:
		return "go-test"
	default:
		return "none"
	}
}

type File interface {
	Path(ctx context.Context) string
	Kind(ctx context.Context) FileKind
	Body(ctx context.Context) (FileBody, error)
}

type FileSystem interface {
	Open(ctx context.Context, uri string) ([]File, error)
	Write(ctx context.Context, uri string, content string) error
	Remove(ctx context.Context, uri string) error
}

type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

type GenerateRequest struct {
	// Packages are directories, each holding one Go package.
	Packages []string
	// DumpTree requests a description of every expansion in the response.
	DumpTree bool
}

type GenerateResponse struct {
	// Files are the generated files keyed by absolute path in Name.
	Files []*pluginpb.CodeGeneratorResponse_File
	// Stale lists previously generated files that no longer have a source
	// carrying paramgen directives.
	Stale []string
	// Plan describes every container and case. It is only populated when
	// the request sets DumpTree.
	Plan *structpb.Struct
}
