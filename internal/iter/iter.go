// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"context"

	"gopkg.microglot.org/paramgen/internal/api"
	"gopkg.microglot.org/paramgen/internal/optional"
)

// NewFunc adapts a producer function into an Iterator. The producer reports
// false once it is exhausted and is never called again after that.
func NewFunc[T any](next func(ctx context.Context) (T, bool)) api.Iterator[T] {
	return &iteratorFunc[T]{next: next}
}

type iteratorFunc[T any] struct {
	next func(ctx context.Context) (T, bool)
	done bool
}

func (it *iteratorFunc[T]) Next(ctx context.Context) optional.Optional[T] {
	if it.done {
		return optional.None[T]()
	}
	v, ok := it.next(ctx)
	if !ok {
		it.done = true
		return optional.None[T]()
	}
	return optional.Some(v)
}

func (it *iteratorFunc[T]) Close(ctx context.Context) error {
	it.done = true
	return nil
}

// NewIteratorFilter wraps an iterator with a filter so that only values that
// pass the filter are returned.
func NewIteratorFilter[T any](it api.Iterator[T], f api.Filter[T]) api.Iterator[T] {
	return &iteratorFilter[T]{
		iter:   it,
		filter: f,
	}
}

type iteratorFilter[T any] struct {
	iter   api.Iterator[T]
	filter api.Filter[T]
}

func (it *iteratorFilter[T]) Next(ctx context.Context) optional.Optional[T] {
	for {
		v := it.iter.Next(ctx)
		if !v.IsPresent() {
			return v
		}
		if it.filter.Keep(ctx, v.Value()) {
			return v
		}
	}
}

func (it *iteratorFilter[T]) Close(ctx context.Context) error {
	return it.iter.Close(ctx)
}

// NewLookahead wraps an iterator in a Lookahead implementation to enable
// peeking at the next n values. Lookahead(ctx, 0) is the value that the next
// call to Next returns.
func NewLookahead[T any](it api.Iterator[T], n uint8) api.Lookahead[T] {
	return &lookahead[T]{
		iter: it,
		n:    n,
	}
}

type lookahead[T any] struct {
	iter  api.Iterator[T]
	n     uint8
	peeks []optional.Optional[T]
}

func (look *lookahead[T]) fill(ctx context.Context) {
	if look.peeks != nil {
		return
	}
	look.peeks = make([]optional.Optional[T], look.n+1)
	for x := 0; x <= int(look.n); x = x + 1 {
		look.peeks[x] = look.iter.Next(ctx)
	}
}

func (look *lookahead[T]) Next(ctx context.Context) optional.Optional[T] {
	look.fill(ctx)
	head := look.peeks[0]
	copy(look.peeks, look.peeks[1:])
	look.peeks[len(look.peeks)-1] = look.iter.Next(ctx)
	return head
}

func (look *lookahead[T]) Close(ctx context.Context) error {
	return look.iter.Close(ctx)
}

func (look *lookahead[T]) Lookahead(ctx context.Context, n uint8) optional.Optional[T] {
	if n > look.n {
		return optional.None[T]()
	}
	look.fill(ctx)
	return look.peeks[n]
}

// FilterFunc is an adaptor for simple filter functions that makes them
// compatible with the Filter interface. Use like:
//
//	FilterFunc[T](func(ctx context.Context, val T) bool { return true })
//
// Note that this type should never be referenced directly in any signature.
// Always use Filter as an input or output type.
type FilterFunc[T any] func(ctx context.Context, val T) bool

func (f FilterFunc[T]) Keep(ctx context.Context, val T) bool {
	return f(ctx, val)
}
