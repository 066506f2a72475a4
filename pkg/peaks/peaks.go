//  Copyright 2019 Marius Ackerman
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

/*
Package peaks finds the local maxima of an onset strength envelope.

A sample is a peak when it is strictly greater than both of its neighbours.
The first and last samples are never peaks. Plateaus are not peaks.
*/
package peaks

import (
	"sort"
)

// Find returns the ascending indices of the local maxima of x
func Find(x []float64) []int {
	var pks []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] > x[i+1] {
			pks = append(pks, i)
		}
	}
	return pks
}

// Set is the peak set of one envelope. It supports membership tests in O(1)
// and range queries in O(log n).
type Set struct {
	idx  []int
	mask []bool
}

// NewSet computes the peaks of x
func NewSet(x []float64) *Set {
	s := &Set{
		idx:  Find(x),
		mask: make([]bool, len(x)),
	}
	for _, i := range s.idx {
		s.mask[i] = true
	}
	return s
}

// Len returns the number of peaks
func (s *Set) Len() int { return len(s.idx) }

// Indices returns the sorted peak indices. The caller must not modify them.
func (s *Set) Indices() []int { return s.idx }

// Contains reports whether i is a peak
func (s *Set) Contains(i int) bool {
	return i >= 0 && i < len(s.mask) && s.mask[i]
}

// First returns the first peak
func (s *Set) First() (int, bool) {
	if len(s.idx) == 0 {
		return 0, false
	}
	return s.idx[0], true
}

// FirstIn returns the first peak in [lo,hi)
func (s *Set) FirstIn(lo, hi int) (int, bool) {
	k := sort.SearchInts(s.idx, lo)
	if k < len(s.idx) && s.idx[k] < hi {
		return s.idx[k], true
	}
	return 0, false
}

// LastIn returns the last peak in [lo,hi]
func (s *Set) LastIn(lo, hi int) (int, bool) {
	k := sort.SearchInts(s.idx, hi+1) - 1
	if k >= 0 && s.idx[k] >= lo {
		return s.idx[k], true
	}
	return 0, false
}

// Nearest returns the peak in [lo,hi) closest to target.
// On a tie the earlier peak wins.
func (s *Set) Nearest(target, lo, hi int) (int, bool) {
	if lo >= hi {
		return 0, false
	}
	after, okAfter := s.FirstIn(max(target, lo), hi)
	before, okBefore := s.LastIn(lo, min(target, hi)-1)
	switch {
	case okAfter && okBefore:
		if target-before <= after-target {
			return before, true
		}
		return after, true
	case okBefore:
		return before, true
	case okAfter:
		return after, true
	}
	return 0, false
}
