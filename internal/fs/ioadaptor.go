// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"bytes"
	"context"
	"errors"
	"io"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/exc"
)

const readChunk = 32 * 1024

func bodyFromIO(v io.ReadCloser) api.FileBody {
	return &ioFileBody{rc: v}
}

type ioFileBody struct {
	rc io.ReadCloser
	b  []byte
}

func (self *ioFileBody) Read(ctx context.Context, size int32) ([]byte, error) {
	if len(self.b) < int(size) {
		self.b = make([]byte, size)
	}
	count, err := self.rc.Read(self.b[:size])
	if err != nil && err != io.EOF {
		return nil, exc.WrapUnknown(exc.Location{}, err)
	}
	if err == io.EOF {
		return self.b[:count], exc.Wrap(exc.Location{}, exc.CodeEOF, err)
	}
	return self.b[:count], nil
}

func (self *ioFileBody) Close(ctx context.Context) error {
	return self.rc.Close()
}

// ReadAll returns the full content of f and closes its body.
func ReadAll(ctx context.Context, f api.File) ([]byte, error) {
	body, err := f.Body(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close(ctx)
	var b bytes.Buffer
	for {
		chunk, err := body.Read(ctx, readChunk)
		b.Write(chunk)
		if err == nil {
			continue
		}
		var e exc.Exception
		if errors.As(err, &e) && e.Code() == exc.CodeEOF {
			return b.Bytes(), nil
		}
		return nil, exc.WrapUnknown(exc.Location{URI: f.Path(ctx)}, err)
	}
}
