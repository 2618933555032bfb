// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"bufio"
	"context"
	"io"
	"strings"

	"gopkg.microglot.org/paramgen/internal/api"
)

// NewFileString wraps static string content in api.File.
func NewFileString(path string, content string, kind api.FileKind) api.File {
	return NewFileFN(path, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}, kind)
}

type fileIOFunc struct {
	path string
	kind api.FileKind
	body func() (io.ReadCloser, error)
}

// NewFileFN is intended to wrap actual file based content in the api.File
// interface. The given body function is used each time there is a call to the
// api.File.Body method so it must return a new io.ReadCloser handle. There is
// no guarantee that only on output of the body function will be used at a time.
func NewFileFN(path string, body func() (io.ReadCloser, error), kind api.FileKind) api.File {
	return &fileIOFunc{
		path: path,
		kind: kind,
		body: body,
	}
}

func (f *fileIOFunc) Path(ctx context.Context) string {
	return f.path
}
func (f *fileIOFunc) Kind(ctx context.Context) api.FileKind {
	return f.kind
}
func (f *fileIOFunc) Body(ctx context.Context) (api.FileBody, error) {
	rc, err := f.body()
	if err != nil {
		return nil, fsErr(f.path, err)
	}
	rcb := bufio.NewReader(rc)
	rcbc := &bufioReaderCloser{
		Reader: rcb,
		Closer: rc,
	}
	return bodyFromIO(rcbc), nil
}

type bufioReaderCloser struct {
	*bufio.Reader
	io.Closer
}

// KindOf classifies a file by name.
func KindOf(name string) api.FileKind {
	switch {
	case strings.HasSuffix(name, "_test.go"):
		return api.FileKindGoTest
	case strings.HasSuffix(name, ".go"):
		return api.FileKindGoSource
	default:
		return api.FileKindNone
	}
}
