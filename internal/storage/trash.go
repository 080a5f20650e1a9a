// trash.go
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

package storage

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/localnerve/p3dv-catalog/internal/types"
)

type trashMove struct {
	original string
	trashed  string
}

// TrashBatch holds files moved aside while a record is deleted, so the
// deletion can be committed or rolled back as a unit.
type TrashBatch struct {
	m     *Manager
	moves []trashMove
}

// Trash moves paths into the hidden trash directory. Empty and absent paths are
// skipped, as are paths outside the managed root. If any move fails the files
// already moved are put back.
func (m *Manager) Trash(paths ...string) (*TrashBatch, error) {
	batch := &TrashBatch{m: m}
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean, ok := m.Contains(p)
		if !ok {
			m.log.Warn("leaving file outside managed root in place", "path", p)
			continue
		}
		if _, err := m.lstat(clean); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			_ = batch.Restore()
			return nil, types.Wrap(types.ErrFileIO, err)
		}

		trashed := filepath.Join(m.root, trashDir, uuid.NewString()+"-"+filepath.Base(clean))
		if err := m.fs.Rename(clean, trashed); err != nil {
			_ = batch.Restore()
			return nil, types.Wrap(types.ErrFileIO, err)
		}
		batch.moves = append(batch.moves, trashMove{original: clean, trashed: trashed})
	}
	return batch, nil
}

// Len returns the number of files held by the batch.
func (b *TrashBatch) Len() int {
	return len(b.moves)
}

// Commit permanently removes the trashed files.
func (b *TrashBatch) Commit() error {
	var errs []error
	for _, mv := range b.moves {
		if err := b.m.fs.Remove(mv.trashed); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	b.moves = nil
	return errors.Join(errs...)
}

// Restore moves the trashed files back to where they came from.
func (b *TrashBatch) Restore() error {
	var errs []error
	for i := len(b.moves) - 1; i >= 0; i-- {
		mv := b.moves[i]
		if err := b.m.fs.Rename(mv.trashed, mv.original); err != nil {
			errs = append(errs, err)
		}
	}
	b.moves = nil
	return errors.Join(errs...)
}
