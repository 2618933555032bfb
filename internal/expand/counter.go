// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package expand

import "sync/atomic"

// Counter hands out the ids that keep generated unit names unique within
// one package. The driver owns one Counter per package and passes it to
// every expansion of that package; it is never reset in between.
type Counter struct {
	next atomic.Uint64
}

// Next returns an id that no earlier call on the same Counter returned.
func (c *Counter) Next() uint64 {
	return c.next.Add(1) - 1
}
