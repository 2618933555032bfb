// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/exc"
)

var _ api.FileSystem = (*fileSystemLocal)(nil)

type FileSystemLocalOption func(*fileSystemLocal)

// WithOptionFSFactory installs a custom factory function used to generate the
// underlying file system handle for reads. The default value is os.DirFS. The
// string value provided to the factory function is the root directory of the
// file system. All paths given to open, write or remove are considered
// relative to this root.
func WithOptionFSFactory(v func(root string) fs.FS) FileSystemLocalOption {
	return func(rfs *fileSystemLocal) {
		rfs.fsFactory = v
	}
}

type fileSystemLocal struct {
	root      string
	fsFactory func(string) fs.FS
}

// NewFileSystemLocal creates a new FileSystem that uses the local file system.
func NewFileSystemLocal(root string, options ...FileSystemLocalOption) (api.FileSystem, error) {
	absroot, err := filepath.Abs(root)
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: root}, err)
	}
	result := &fileSystemLocal{
		root:      absroot,
		fsFactory: os.DirFS,
	}
	for _, option := range options {
		option(result)
	}
	return result, nil
}

// relative turns a URI or slash rooted path into the un-rooted form that
// fs.FS requires.
func relative(uri string) string {
	path := uri
	u, err := url.Parse(uri)
	if err == nil && (u.Scheme == "" || u.Scheme == "file") {
		path = u.Path
	}
	p := filepath.ToSlash(filepath.Clean(filepath.Join("/", path)))
	if p == "/" {
		// fs.ValidPath only allows, and requires, '.' for the root.
		return "."
	}
	return strings.TrimPrefix(p, "/")
}

// Open returns the file at uri or, for a directory, every file in it that
// passes the filter, sorted by name. Sub-directories are not searched
// because each directory is its own Go package.
func (r *fileSystemLocal) Open(ctx context.Context, uri string) ([]api.File, error) {
	dir := r.fsFactory(r.root)
	p := relative(uri)
	stat, err := fs.Stat(dir, p)
	if err != nil {
		return nil, fsErr(uri, err)
	}
	if !stat.IsDir() {
		f := NewFileFN(r.absolute(p), func() (io.ReadCloser, error) {
			return dir.Open(p)
		}, KindOf(p))
		return []api.File{f}, nil
	}
	dfs, err := fs.ReadDir(dir, p)
	if err != nil {
		return nil, fsErr(uri, err)
	}
	files := make([]api.File, 0, len(dfs))
	for _, df := range dfs {
		if df.IsDir() {
			continue
		}
		if KindOf(df.Name()) == api.FileKindNone {
			continue
		}
		dfPath := pathJoin(p, df.Name())
		f := NewFileFN(r.absolute(dfPath), func() (io.ReadCloser, error) {
			return dir.Open(dfPath)
		}, KindOf(dfPath))
		files = append(files, f)
	}
	if len(files) < 1 {
		return nil, exc.New(exc.Location{URI: uri}, exc.CodeFileNotFound, fmt.Sprintf("found directory %s but it has no Go files", uri))
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path(ctx) < files[j].Path(ctx)
	})
	return files, nil
}

func (r *fileSystemLocal) Write(ctx context.Context, uri string, content string) error {
	p := r.absolute(relative(uri))
	d := filepath.Dir(p)
	if err := os.MkdirAll(d, os.ModeDir|0o755); err != nil {
		return fsErr(d, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return fsErr(p, err)
	}
	return nil
}

func (r *fileSystemLocal) Remove(ctx context.Context, uri string) error {
	p := r.absolute(relative(uri))
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsErr(p, err)
	}
	return nil
}

func (r *fileSystemLocal) absolute(p string) string {
	if p == "." {
		return r.root
	}
	return filepath.Join(r.root, filepath.FromSlash(p))
}

func pathJoin(dir string, name string) string {
	if dir == "." {
		return name
	}
	return dir + "/" + name
}

func fsErr(path string, err error) error {
	var errT *fs.PathError
	if errors.As(err, &errT) {
		switch {
		case errors.Is(errT.Err, fs.ErrInvalid):
			return exc.WrapUnknown(exc.Location{URI: path}, errT)
		case errors.Is(errT.Err, fs.ErrNotExist):
			return exc.Wrap(exc.Location{URI: path}, exc.CodeFileNotFound, errT)
		case errors.Is(errT.Err, fs.ErrPermission):
			return exc.Wrap(exc.Location{URI: path}, exc.CodePermissionDenied, errT)
		default:
			return exc.WrapUnknown(exc.Location{URI: path}, errT)
		}
	}
	return exc.WrapUnknown(exc.Location{URI: path}, err)
}
