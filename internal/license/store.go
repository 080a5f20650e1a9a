// store.go
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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// PersistedLicense is the on-disk license document.
type PersistedLicense struct {
	LicenseKey     string            `json:"licenseKey"`
	IsActivated    bool              `json:"isActivated"`
	ActivationData *ActivationRecord `json:"activationData"`
	SavedAt        time.Time         `json:"savedAt"`
}

// RecordStore persists the activation record between runs.
// Load returns (nil, nil) when nothing has been saved.
type RecordStore interface {
	Load(ctx context.Context) (*PersistedLicense, error)
	Save(ctx context.Context, doc *PersistedLicense) error
	Clear(ctx context.Context) error
}

// FileStore keeps the license document in a single JSON file.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a store for path on fsys.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	return &FileStore{fs: fsys, path: path}
}

// Load reads the license document. A missing file is not an error.
func (s *FileStore) Load(_ context.Context) (*PersistedLicense, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("license: read %s: %w", s.path, err)
	}

	var doc PersistedLicense
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("license: decode %s: %w", s.path, err)
	}
	return &doc, nil
}

// Save writes doc through a temp file and rename so a crash never leaves a half written license.
func (s *FileStore) Save(_ context.Context, doc *PersistedLicense) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("license: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("license: create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".license-*.tmp")
	if err != nil {
		return fmt.Errorf("license: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(raw)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Rename(tmpName, s.path)
	}
	if err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("license: write %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the license document. Clearing an absent document is not an error.
func (s *FileStore) Clear(_ context.Context) error {
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("license: remove %s: %w", s.path, err)
	}
	return nil
}
