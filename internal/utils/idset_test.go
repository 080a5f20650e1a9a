// idset_test.go
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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSet(t *testing.T) {
	s := NewIDSet(3, 1, 3, 2, 1)

	assert.Equal(t, []uint64{3, 1, 2}, s.ToSlice())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(4))
	assert.False(t, s.IsEmpty())

	assert.True(t, s.Add(4))
	assert.False(t, s.Add(4))
	assert.Equal(t, []uint64{3, 1, 2, 4}, s.ToSlice())
}

func TestIDSet_Empty(t *testing.T) {
	s := NewIDSet()
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.ToSlice())
}

func TestIDSet_Intersects(t *testing.T) {
	a := NewIDSet(1, 2)
	assert.True(t, a.Intersects(NewIDSet(2, 3)))
	assert.False(t, a.Intersects(NewIDSet(3, 4)))
	assert.False(t, a.Intersects(NewIDSet()))
}

func TestIDSet_ToSliceIsACopy(t *testing.T) {
	s := NewIDSet(1, 2)
	out := s.ToSlice()
	out[0] = 9
	assert.Equal(t, []uint64{1, 2}, s.ToSlice())
}
