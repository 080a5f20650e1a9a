// json_test.go
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

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_ValueOfUnsetBag(t *testing.T) {
	v, err := NewMetadata(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestMetadata_ScanAndMap(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan([]byte(`{"author":"ada","notes":"first"}`)))
	assert.Equal(t, map[string]string{"author": "ada", "notes": "first"}, m.Map())

	copied := m.Map()
	copied["author"] = "bob"
	assert.Equal(t, "ada", m.Map()["author"])

	require.NoError(t, m.Scan(`{"license":"CC0"}`))
	assert.Equal(t, "CC0", m.Map()["license"])

	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m.Map())
	assert.Empty(t, m.Map())

	assert.Error(t, m.Scan(42))
}

func TestMetadata_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(NewMetadata(map[string]string{"source": "scan"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"scan"}`, string(out))

	out, err = json.Marshal(NewMetadata(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}
