// library.go
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

package services

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/localnerve/p3dv-catalog/internal/storage"
	"github.com/localnerve/p3dv-catalog/internal/types"
)

// AddModelInput describes a model to add from a file on disk.
type AddModelInput struct {
	Name        string
	Description string
	SourcePath  string
	CategoryID  *uint64
	TagIDs      []uint64
	Metadata    map[string]string
}

// Library runs the single model flows that touch both the store and the managed files.
type Library struct {
	store *CatalogStore
	files *storage.Manager
	log   *slog.Logger
}

// NewLibrary creates a Library.
func NewLibrary(store *CatalogStore, files *storage.Manager, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	return &Library{store: store, files: files, log: log}
}

// Store returns the underlying record store.
func (l *Library) Store() *CatalogStore {
	return l.store
}

// AddModel inserts the record, stages its binary under the record id and then
// records the staged path. If staging fails the new record is removed again so
// no record points at a missing binary.
func (l *Library) AddModel(ctx context.Context, in AddModelInput) (Model, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Model{}, types.Wrapf(types.ErrInvalidInput, "name is required")
	}
	if _, err := l.files.ValidateSource(in.SourcePath); err != nil {
		return Model{}, err
	}

	tags := make([]TagRef, 0, len(in.TagIDs))
	for _, id := range in.TagIDs {
		tags = append(tags, TagRef{ID: id})
	}
	m, err := l.store.InsertModel(ctx, Model{
		Name:        name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Tags:        tags,
		Metadata:    in.Metadata,
	})
	if err != nil {
		return Model{}, err
	}

	staged, err := l.files.Stage(ctx, in.SourcePath, m.ID)
	if err != nil {
		l.rollbackInsert(ctx, m.ID, err)
		return Model{}, err
	}
	if err := l.store.UpdateModelPath(ctx, m.ID, staged.Path, staged.Size); err != nil {
		if rmErr := l.files.Remove(staged.Path); rmErr != nil {
			l.log.Error("failed to remove staged file", "id", m.ID, "error", rmErr)
		}
		l.rollbackInsert(ctx, m.ID, err)
		return Model{}, err
	}

	l.log.Info("model added", "id", m.ID, "name", name, "size", staged.Size)
	return l.store.GetModel(ctx, m.ID)
}

func (l *Library) rollbackInsert(ctx context.Context, id uint64, cause error) {
	l.log.Warn("add model failed, removing record", "id", id, "error", cause)
	if err := l.store.DeleteModel(ctx, id); err != nil {
		l.log.Error("failed to remove record after staging failure", "id", id, "error", err)
	}
}

// ListModels returns the full catalogue, newest first.
func (l *Library) ListModels(ctx context.Context) ([]Model, error) {
	return l.store.ListModels(ctx)
}

// GetModel returns one model.
func (l *Library) GetModel(ctx context.Context, id uint64) (Model, error) {
	return l.store.GetModel(ctx, id)
}

// UpdateModel edits a model.
func (l *Library) UpdateModel(ctx context.Context, id uint64, fields ModelFields) (Model, error) {
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return Model{}, types.Wrapf(types.ErrInvalidInput, "name is required")
		}
		fields.Name = &name
	}
	return l.store.UpdateModel(ctx, id, fields)
}

// DeleteModel deletes one model with its staged files.
func (l *Library) DeleteModel(ctx context.Context, id uint64) error {
	m, err := l.store.GetModel(ctx, id)
	if err != nil {
		return err
	}
	if err := deleteModelFiles(ctx, l.store, l.files, m, l.log); err != nil {
		return err
	}
	l.log.Info("model deleted", "id", id)
	return nil
}

// SetThumbnail stores PNG bytes as the model's thumbnail.
func (l *Library) SetThumbnail(ctx context.Context, id uint64, png io.Reader) (Model, error) {
	if _, err := l.store.GetModel(ctx, id); err != nil {
		return Model{}, err
	}
	path, err := l.files.StoreThumbnail(id, png)
	if err != nil {
		return Model{}, err
	}
	return l.store.UpdateModel(ctx, id, ModelFields{ThumbnailPath: &path})
}

// RecentModels returns the most recently updated models.
func (l *Library) RecentModels(ctx context.Context, limit int) ([]Model, error) {
	if limit <= 0 {
		limit = 10
	}
	return l.store.RecentModels(ctx, limit)
}

// deleteModelFiles deletes a record and its files as a unit. Files are moved to
// the trash first; if the record cannot be deleted they are restored.
func deleteModelFiles(ctx context.Context, store *CatalogStore, files *storage.Manager, m Model, log *slog.Logger) error {
	batch, err := files.Trash(
		m.FilePath,
		m.ThumbnailPath,
		files.ResolveAssetPath(m.ID),
		files.ResolveThumbnailPath(m.ID),
	)
	if err != nil {
		return err
	}

	if err := store.DeleteModel(ctx, m.ID); err != nil {
		if rErr := batch.Restore(); rErr != nil {
			log.Error("failed to restore files after delete failure", "id", m.ID, "error", rErr)
		}
		return err
	}

	if err := batch.Commit(); err != nil {
		log.Warn("deleted model files left in trash", "id", m.ID, "error", err)
	}
	return nil
}
