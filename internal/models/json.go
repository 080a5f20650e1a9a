// json.go
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
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Metadata is the open string-keyed bag of descriptive model fields
// (author, version, license, source, notes), stored serialized as JSON.
type Metadata struct {
	datatypes.JSONType[map[string]string]
}

// NewMetadata wraps m for persistence.
func NewMetadata(m map[string]string) Metadata {
	return Metadata{datatypes.NewJSONType(m)}
}

// Map returns a copy of the stored fields, never nil.
func (m Metadata) Map() map[string]string {
	src := m.Data()
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Value stores an empty object rather than JSON null for an unset bag.
func (m Metadata) Value() (driver.Value, error) {
	if m.Data() == nil {
		return "{}", nil
	}
	return m.JSONType.Value()
}

// Scan tolerates NULL columns left by rows written outside the catalog.
func (m *Metadata) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = NewMetadata(nil)
		return nil
	case []byte, string:
		return m.JSONType.Scan(v)
	default:
		return fmt.Errorf("metadata: unsupported column type %T", value)
	}
}

// MarshalJSON promotes the embedded JSONType's encoding
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// GormDBDataType ensures the correct data type is used for each database driver.
// This resolves the issue where MSSQL does not support the 'json' data type.
func (Metadata) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
