// keys.go
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

package license

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/localnerve/p3dv-catalog/internal/types"
)

const (
	keyGroups    = 4
	keyGroupSize = 4
	keyAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// KeyPattern matches PRODUCT-XXXX-XXXX-XXXX-XXXX with uppercase alphanumeric groups.
func KeyPattern(product string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s(-[A-Z0-9]{%d}){%d}$`, regexp.QuoteMeta(product), keyGroupSize, keyGroups))
}

func validateKey(pattern *regexp.Regexp, key string) error {
	if !pattern.MatchString(key) {
		return types.ErrInvalidKeyFormat
	}
	return nil
}

// GenerateSampleKey returns a random, well formed key for demo installs.
func GenerateSampleKey(product string) (string, error) {
	var b strings.Builder
	b.WriteString(product)
	limit := big.NewInt(int64(len(keyAlphabet)))
	for range keyGroups {
		b.WriteByte('-')
		for range keyGroupSize {
			n, err := rand.Int(rand.Reader, limit)
			if err != nil {
				return "", fmt.Errorf("license: generate sample key: %w", err)
			}
			b.WriteByte(keyAlphabet[n.Int64()])
		}
	}
	return b.String(), nil
}
