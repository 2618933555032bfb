// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/fs"
)

// NewDefaultFS returns the local file system. Package targets are absolute
// paths, so the file system is rooted at the file system root.
func NewDefaultFS() (api.FileSystem, error) {
	return fs.NewFileSystemLocal("/")
}
