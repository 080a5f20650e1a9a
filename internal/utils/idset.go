// idset.go
//
// P3DV catalog: local 3D model library host with offline license activation
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of p3dv-catalog.
// p3dv-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// p3dv-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with p3dv-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package utils

// IDSet is a set of record ids that remembers insertion order.
type IDSet struct {
	items map[uint64]struct{}
	order []uint64
}

// NewIDSet creates a set holding ids, keeping the first occurrence of duplicates.
func NewIDSet(ids ...uint64) *IDSet {
	s := &IDSet{items: make(map[uint64]struct{}, len(ids))}
	s.AddAll(ids)
	return s
}

// Add adds id and reports whether it was new.
func (s *IDSet) Add(id uint64) bool {
	if _, ok := s.items[id]; ok {
		return false
	}
	s.items[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// AddAll adds all ids.
func (s *IDSet) AddAll(ids []uint64) {
	for _, id := range ids {
		s.Add(id)
	}
}

// Has returns true if the id exists in the set.
func (s *IDSet) Has(id uint64) bool {
	_, ok := s.items[id]
	return ok
}

// Intersects reports whether s and other share an id.
func (s *IDSet) Intersects(other *IDSet) bool {
	for _, id := range s.order {
		if other.Has(id) {
			return true
		}
	}
	return false
}

// ToSlice returns the ids in insertion order.
func (s *IDSet) ToSlice() []uint64 {
	out := make([]uint64, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of elements in the set.
func (s *IDSet) Len() int {
	return len(s.order)
}

// IsEmpty returns true if the set has no elements.
func (s *IDSet) IsEmpty() bool {
	return len(s.order) == 0
}
