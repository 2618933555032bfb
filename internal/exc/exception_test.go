// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"errors"
	"go/token"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExceptionError(t *testing.T) {
	t.Parallel()
	loc := LocationOf(token.Position{Filename: "/a_test.go", Line: 3, Column: 17, Offset: 40})
	e := New(loc, CodeSyntax, "expected '='")
	require.Equal(t, "/a_test.go:3:17 -- P0010: expected '='", e.Error())
	require.Equal(t, CodeSyntax, e.Code())
	require.Equal(t, "expected '='", e.Message())
	require.Equal(t, loc, e.Location())

	shifted := loc.Shift(4)
	require.Equal(t, 21, shifted.Column)
	require.Equal(t, 44, shifted.Offset)
	require.Equal(t, 3, shifted.Line)
}

func TestWrap(t *testing.T) {
	t.Parallel()
	require.Nil(t, Wrap(Location{}, CodeUnknownFatal, nil))

	w := WrapUnknown(Location{URI: "/x"}, io.ErrUnexpectedEOF)
	require.Equal(t, CodeUnknownFatal, w.Code())
	require.True(t, errors.Is(w, io.ErrUnexpectedEOF))

	inner := New(Location{URI: "/y"}, CodeFileNotFound, "missing")
	outer := Wrap(Location{URI: "/z"}, CodePermissionDenied, inner)
	require.Equal(t, "missing", outer.Message())
	require.Equal(t, CodePermissionDenied, outer.Code())
	var target Exception
	require.True(t, errors.As(errors.Unwrap(outer), &target))
	require.Equal(t, CodeFileNotFound, target.Code())
}

func TestReporter(t *testing.T) {
	t.Parallel()
	r := NewReporter()

	var wg sync.WaitGroup
	for x := 0; x < 10; x = x + 1 {
		wg.Add(1)
		go func(line int) {
			defer wg.Done()
			r.Report(New(Location{URI: "/b", Line: line}, CodeSyntax, "bad"))
		}(10 - x)
	}
	wg.Wait()

	r.Report(New(Location{URI: "/a", Line: 2}, CodeUnequalLength, "short"))
	r.Report(New(Location{URI: "/a", Line: 1}, CodeNameCollision, "taken"))

	reported := r.Reported()
	require.Len(t, reported, 12)
	require.Equal(t, "/a", reported[0].Location().URI)
	require.Equal(t, 1, reported[0].Location().Line)
	for x := 2; x < len(reported); x = x + 1 {
		require.Equal(t, "/b", reported[x].Location().URI)
		require.Equal(t, x-1, reported[x].Location().Line)
	}
}
