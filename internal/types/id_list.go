// id_list.go
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

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IDList is a list of record ids as the UI sends them: a single id for a
// one-row action, an array for a selection, or a comma-joined string from
// older tag fields. Elements may be numbers or numeric strings.
type IDList []uint64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []FlexUint64
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("IDList: %w", err)
		}
		out := make(IDList, 0, len(items))
		for _, id := range items {
			out = append(out, id.Uint64())
		}
		*l = out
		return nil

	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return l.parseJoined(s)
	}

	var id FlexUint64
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = IDList{id.Uint64()}
	return nil
}

// parseJoined reads "3" or "3, 5,8". Blank entries are dropped.
func (l *IDList) parseJoined(s string) error {
	out := IDList{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return fmt.Errorf("IDList: invalid id %q: %w", part, err)
		}
		out = append(out, id)
	}
	*l = out
	return nil
}
