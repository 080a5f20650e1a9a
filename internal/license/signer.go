// signer.go
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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const signingKeySize = 32

// Signer computes and verifies HMAC-SHA-256 signatures with a key derived
// from the embedded application secret.
type Signer struct {
	key []byte
}

// NewSigner derives the signing key from secret, bound to product.
func NewSigner(secret, product string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("license: signing secret is empty")
	}
	key := make([]byte, signingKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(product)), key); err != nil {
		return nil, fmt.Errorf("license: derive signing key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Sign returns the lowercase hex HMAC of payload.
func (s *Signer) Sign(payload []byte) string {
	return hex.EncodeToString(s.mac(payload))
}

// Verify reports whether signature is exactly the lowercase hex HMAC of
// payload. Any other spelling of the same bytes is rejected.
func (s *Signer) Verify(payload []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(s.Sign(payload)))
}

func (s *Signer) mac(payload []byte) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write(payload)
	return m.Sum(nil)
}
