// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"sort"
	"sync"
)

// Reporter is used to accumulate and report errors during generation. An
// expansion stops at its first exception but the driver keeps expanding the
// remaining directives of a package so that every problem is shown to the
// user at once. Any reported exception fails the run.
type Reporter interface {
	// Report adds the given record to the set.
	Report(Exception)
	// Reported returns the set of accumulated exceptions ordered by location.
	Reported() []Exception
}

// NewReporter returns a concurrent-safe implementation of Reporter.
func NewReporter() Reporter {
	return &reporterLock{
		Reporter: &reporter{},
		lock:     &sync.Mutex{},
	}
}

type reporter struct {
	reported []Exception
}

func (r *reporter) Report(e Exception) {
	r.reported = append(r.reported, e)
}

func (r *reporter) Reported() []Exception {
	out := make([]Exception, len(r.reported))
	copy(out, r.reported)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Location(), out[j].Location()
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

type reporterLock struct {
	Reporter
	lock sync.Locker
}

func (r *reporterLock) Report(e Exception) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Reporter.Report(e)
}

func (r *reporterLock) Reported() []Exception {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.Reporter.Reported()
}
