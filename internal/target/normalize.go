// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package target

import (
	"io/fs"
	"net/url"
	pathpkg "path"
	"path/filepath"
	"sort"
	"strings"
)

// Normalize processes a given package target and converts it into an
// absolute directory path.
//
// Targets may be file paths or file URIs. Relative paths are resolved
// against dir. A trailing "/..." is kept so that Expand can find the
// packages below the directory.
func Normalize(dir string, target string) string {
	u, err := url.Parse(target)
	if err == nil && u.Scheme == "file" {
		target = u.Path
	}
	recursive := false
	if target == "..." || strings.HasSuffix(target, "/...") {
		recursive = true
		target = strings.TrimSuffix(strings.TrimSuffix(target, "..."), "/")
		if target == "" {
			target = "."
		}
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	target = filepath.Clean(target)
	if recursive {
		return target + "/..."
	}
	return target
}

// Expand returns the directories a normalized target names. A target ending
// in "/..." names every directory at or below it that holds a _test.go
// file, except those the go tool ignores as well: testdata, vendor and
// names starting with "." or "_".
func Expand(fsys fs.FS, target string) ([]string, error) {
	if !strings.HasSuffix(target, "/...") {
		return []string{target}, nil
	}
	root := strings.TrimSuffix(target, "/...")
	rel := strings.TrimPrefix(filepath.ToSlash(root), "/")
	if rel == "" {
		rel = "."
	}
	seen := map[string]bool{}
	dirs := []string{}
	err := fs.WalkDir(fsys, rel, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rel && ignored(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, "_test.go") {
			return nil
		}
		dir := filepath.Join("/", filepath.FromSlash(pathpkg.Dir(path)))
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dirs)
	return dirs, nil
}

func ignored(name string) bool {
	return name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
