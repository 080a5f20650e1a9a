// fingerprint.go
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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"strings"

	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/shirou/gopsutil/v4/host"
)

// HostIdentity is the machine description a fingerprint is derived from.
type HostIdentity struct {
	ID   string
	OS   string
	Arch string
}

// HostProvider reports the identity of the machine the process runs on.
type HostProvider interface {
	HostIdentity(ctx context.Context) (HostIdentity, error)
}

// FingerprintProvider computes the hardware fingerprint of the current machine.
type FingerprintProvider interface {
	Compute(ctx context.Context) (string, error)
}

// SystemHost reads host identity from the operating system.
type SystemHost struct{}

// HostIdentity queries the OS for the host id, platform and kernel architecture.
// The host id falls back to the hostname on systems that do not expose one.
func (SystemHost) HostIdentity(ctx context.Context) (HostIdentity, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostIdentity{}, types.Wrap(types.ErrHostQuery, err)
	}

	id := info.HostID
	if id == "" {
		id = info.Hostname
	}
	if id == "" {
		return HostIdentity{}, types.Wrapf(types.ErrHostQuery, "host reported no identity")
	}

	osName := info.OS
	if osName == "" {
		osName = runtime.GOOS
	}
	arch := info.KernelArch
	if arch == "" {
		arch = runtime.GOARCH
	}
	return HostIdentity{ID: id, OS: osName, Arch: arch}, nil
}

// Fingerprinter hashes a host identity into a stable hex digest.
type Fingerprinter struct {
	host HostProvider
}

// NewFingerprinter returns a Fingerprinter reading identity from h.
func NewFingerprinter(h HostProvider) *Fingerprinter {
	if h == nil {
		h = SystemHost{}
	}
	return &Fingerprinter{host: h}
}

// Compute returns the lowercase SHA-256 hex digest of id|os|arch.
func (f *Fingerprinter) Compute(ctx context.Context) (string, error) {
	id, err := f.host.HostIdentity(ctx)
	if err != nil {
		return "", err
	}
	return Digest(id), nil
}

// Digest is the pure part of Compute.
func Digest(id HostIdentity) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{id.ID, id.OS, id.Arch}, "|")))
	return hex.EncodeToString(sum[:])
}
