// catalog_store.go
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
	"errors"
	"time"

	"github.com/localnerve/p3dv-catalog/internal/models"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// CatalogStore is the typed access layer over the models, categories, tags and
// model_tags tables. It only hands out canonical domain values.
type CatalogStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCatalogStore wraps db.
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// storeErr maps gorm errors onto the catalogue error taxonomy.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var ce *types.CustomError
	switch {
	case errors.As(err, &ce):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return types.Wrap(types.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.Wrap(types.ErrDuplicateName, err)
	default:
		return types.Wrap(types.ErrStore, err)
	}
}

// quiet returns a session that does not log expected misses.
func (s *CatalogStore) quiet(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Session(&gorm.Session{Logger: s.db.Logger.LogMode(logger.Silent)})
}

type tagJoinRow struct {
	ModelID uint64
	ID      uint64
	Name    string
	Color   string
}

// loadTags reads tag references for ids (all models when ids is nil) in one joined query.
func loadTags(tx *gorm.DB, ids []uint64) (map[uint64][]TagRef, error) {
	var rows []tagJoinRow
	q := tx.Table("model_tags").
		Select("model_tags.model_id AS model_id, tags.id AS id, tags.name AS name, tags.color AS color").
		Joins("JOIN tags ON tags.id = model_tags.tag_id")
	if ids != nil {
		q = q.Where("model_tags.model_id IN ?", ids)
	}
	if err := q.Order("tags.name").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uint64][]TagRef, len(rows))
	for _, r := range rows {
		out[r.ModelID] = append(out[r.ModelID], TagRef{ID: r.ID, Name: r.Name, Color: r.Color})
	}
	return out, nil
}

// ListModels returns every model with its category and tags, newest first.
func (s *CatalogStore) ListModels(ctx context.Context) ([]Model, error) {
	tx := s.db.WithContext(ctx)

	var rows []models.Model
	if err := tx.Clauses(hints.CommentBefore("select", "p3dv:list_models")).
		Joins("Category").
		Order("models.created_at DESC").
		Order("models.id DESC").
		Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}

	tags, err := loadTags(tx.Clauses(hints.CommentBefore("select", "p3dv:list_model_tags")), nil)
	if err != nil {
		return nil, storeErr(err)
	}

	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		out = append(out, modelFromRow(row, tags[row.ID]))
	}
	return out, nil
}

// RecentModels returns the most recently updated models.
func (s *CatalogStore) RecentModels(ctx context.Context, limit int) ([]Model, error) {
	tx := s.db.WithContext(ctx)

	var rows []models.Model
	if err := tx.Clauses(hints.CommentBefore("select", "p3dv:recent_models")).
		Joins("Category").
		Order("models.updated_at DESC").
		Order("models.id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	tags, err := loadTags(tx, ids)
	if err != nil {
		return nil, storeErr(err)
	}

	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		out = append(out, modelFromRow(row, tags[row.ID]))
	}
	return out, nil
}

// GetModel returns one model, or ErrNotFound.
func (s *CatalogStore) GetModel(ctx context.Context, id uint64) (Model, error) {
	return s.getModel(s.quiet(ctx), id)
}

func (s *CatalogStore) getModel(tx *gorm.DB, id uint64) (Model, error) {
	var row models.Model
	if err := tx.Joins("Category").Where("models.id = ?", id).First(&row).Error; err != nil {
		return Model{}, storeErr(err)
	}
	tags, err := loadTags(tx, []uint64{id})
	if err != nil {
		return Model{}, storeErr(err)
	}
	return modelFromRow(row, tags[id]), nil
}

// InsertModel creates a model record and its tag associations and returns it with its new id.
func (s *CatalogStore) InsertModel(ctx context.Context, m Model) (Model, error) {
	row := rowFromModel(m)
	row.ID = 0
	now := s.now()
	row.CreatedAt, row.UpdatedAt = now, now

	tagIDs := m.TagIDs()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, row.CategoryID, tagIDs); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		return addTags(tx, row.ID, tagIDs)
	})
	if err != nil {
		return Model{}, storeErr(err)
	}
	return s.GetModel(ctx, row.ID)
}

// UpdateModelPath records where the binary for id was staged.
func (s *CatalogStore) UpdateModelPath(ctx context.Context, id uint64, path string, size int64) error {
	res := s.db.WithContext(ctx).Model(&models.Model{}).
		Where("id = ?", id).
		Updates(map[string]any{"file_path": path, "file_size": size, "updated_at": s.now()})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpdateModel applies a partial edit to a model and returns the result.
func (s *CatalogStore) UpdateModel(ctx context.Context, id uint64, fields ModelFields) (Model, error) {
	var out Model
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Model
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&row).Error; err != nil {
			return err
		}

		updates := map[string]any{"updated_at": s.now()}
		if fields.Name != nil {
			updates["name"] = *fields.Name
		}
		if fields.Description != nil {
			updates["description"] = *fields.Description
		}
		if fields.ThumbnailPath != nil {
			updates["thumbnail_path"] = *fields.ThumbnailPath
		}
		if fields.Metadata != nil {
			updates["metadata"] = models.NewMetadata(fields.Metadata)
		}
		if fields.ClearCategory {
			updates["category_id"] = nil
		} else if fields.CategoryID != nil {
			if err := checkRefs(tx, fields.CategoryID, nil); err != nil {
				return err
			}
			updates["category_id"] = *fields.CategoryID
		}
		if err := tx.Model(&models.Model{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if fields.SetTags {
			if err := checkRefs(tx, nil, fields.TagIDs); err != nil {
				return err
			}
			if err := tx.Where("model_id = ?", id).Delete(&models.ModelTag{}).Error; err != nil {
				return err
			}
			if err := addTags(tx, id, fields.TagIDs); err != nil {
				return err
			}
		}

		var err error
		out, err = s.getModel(tx, id)
		return err
	})
	if err != nil {
		return Model{}, storeErr(err)
	}
	return out, nil
}

// DeleteModel removes a model and its tag associations in one transaction.
func (s *CatalogStore) DeleteModel(ctx context.Context, id uint64) error {
	return storeErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteModelTx(tx, id)
	}))
}

func deleteModelTx(tx *gorm.DB, id uint64) error {
	if err := tx.Where("model_id = ?", id).Delete(&models.ModelTag{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&models.Model{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// SetModelCategory moves a model to categoryID, or to uncategorized when nil.
func (s *CatalogStore) SetModelCategory(ctx context.Context, id uint64, categoryID *uint64) error {
	var value any
	if categoryID != nil {
		value = *categoryID
	}
	res := s.db.WithContext(ctx).Model(&models.Model{}).
		Where("id = ?", id).
		Updates(map[string]any{"category_id": value, "updated_at": s.now()})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpdateModelTags replaces the tag set of a model with next(current) in one transaction.
func (s *CatalogStore) UpdateModelTags(ctx context.Context, id uint64, next func(current map[uint64]struct{}) map[uint64]struct{}) error {
	return storeErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Model
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", id).
			First(&row).Error; err != nil {
			return err
		}

		var currentIDs []uint64
		if err := tx.Model(&models.ModelTag{}).Where("model_id = ?", id).Pluck("tag_id", &currentIDs).Error; err != nil {
			return err
		}
		current := make(map[uint64]struct{}, len(currentIDs))
		for _, tid := range currentIDs {
			current[tid] = struct{}{}
		}

		desired := next(current)

		var remove []uint64
		for tid := range current {
			if _, keep := desired[tid]; !keep {
				remove = append(remove, tid)
			}
		}
		var add []uint64
		for _, tid := range sortedIDs(desired) {
			if _, had := current[tid]; !had {
				add = append(add, tid)
			}
		}

		if len(remove) > 0 {
			if err := tx.Where("model_id = ? AND tag_id IN ?", id, remove).Delete(&models.ModelTag{}).Error; err != nil {
				return err
			}
		}
		if err := addTags(tx, id, add); err != nil {
			return err
		}
		return tx.Model(&models.Model{}).Where("id = ?", id).Update("updated_at", s.now()).Error
	}))
}

func addTags(tx *gorm.DB, modelID uint64, tagIDs []uint64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]models.ModelTag, 0, len(tagIDs))
	for _, tid := range tagIDs {
		rows = append(rows, models.ModelTag{ModelID: modelID, TagID: tid})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// checkRefs verifies that a category and a set of tags exist.
func checkRefs(tx *gorm.DB, categoryID *uint64, tagIDs []uint64) error {
	if categoryID != nil {
		ok, err := categoryExists(tx, *categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return types.Wrapf(types.ErrCategoryNotFound, "%d", *categoryID)
		}
	}
	missing, err := missingTags(tx, tagIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return types.Wrapf(types.ErrTagNotFound, "%v", missing)
	}
	return nil
}

// ListCategories returns all categories by name with their model counts.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]Category, error) {
	tx := s.db.WithContext(ctx)

	var rows []models.Category
	if err := tx.Order("name").Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}

	var counts []struct {
		CategoryID uint64
		N          int64
	}
	if err := tx.Model(&models.Model{}).
		Select("category_id, COUNT(*) AS n").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, storeErr(err)
	}
	byID := make(map[uint64]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.N
	}

	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		c := categoryFromRow(row)
		c.ModelCount = byID[row.ID]
		out = append(out, c)
	}
	return out, nil
}

// ListTags returns all tags by name with their model counts.
func (s *CatalogStore) ListTags(ctx context.Context) ([]Tag, error) {
	tx := s.db.WithContext(ctx)

	var rows []models.Tag
	if err := tx.Order("name").Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}

	var counts []struct {
		TagID uint64
		N     int64
	}
	if err := tx.Model(&models.ModelTag{}).
		Select("tag_id, COUNT(*) AS n").
		Group("tag_id").
		Scan(&counts).Error; err != nil {
		return nil, storeErr(err)
	}
	byID := make(map[uint64]int64, len(counts))
	for _, c := range counts {
		byID[c.TagID] = c.N
	}

	out := make([]Tag, 0, len(rows))
	for _, row := range rows {
		t := tagFromRow(row)
		t.ModelCount = byID[row.ID]
		out = append(out, t)
	}
	return out, nil
}

// InsertCategory creates a category. Names are unique.
func (s *CatalogStore) InsertCategory(ctx context.Context, name, color string) (Category, error) {
	row := models.Category{Name: name, Color: color, CreatedAt: s.now()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Category{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return types.Wrapf(types.ErrDuplicateName, "category %q", name)
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return Category{}, storeErr(err)
	}
	return categoryFromRow(row), nil
}

// DeleteCategory deletes a category. Models in it become uncategorized in the same transaction.
func (s *CatalogStore) DeleteCategory(ctx context.Context, id uint64) error {
	return storeErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Model{}).
			Where("category_id = ?", id).
			Updates(map[string]any{"category_id": nil, "updated_at": s.now()}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}
		return nil
	}))
}

// InsertTag creates a tag. Names are unique.
func (s *CatalogStore) InsertTag(ctx context.Context, name, color string) (Tag, error) {
	row := models.Tag{Name: name, Color: color, CreatedAt: s.now()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Tag{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return types.Wrapf(types.ErrDuplicateName, "tag %q", name)
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return Tag{}, storeErr(err)
	}
	return tagFromRow(row), nil
}

// DeleteTag deletes a tag and its associations.
func (s *CatalogStore) DeleteTag(ctx context.Context, id uint64) error {
	return storeErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.ModelTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}
		return nil
	}))
}

// CategoryExists reports whether a category with id exists.
func (s *CatalogStore) CategoryExists(ctx context.Context, id uint64) (bool, error) {
	ok, err := categoryExists(s.db.WithContext(ctx), id)
	return ok, storeErr(err)
}

func categoryExists(tx *gorm.DB, id uint64) (bool, error) {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// MissingTags returns the ids in ids that name no tag.
func (s *CatalogStore) MissingTags(ctx context.Context, ids []uint64) ([]uint64, error) {
	missing, err := missingTags(s.db.WithContext(ctx), ids)
	return missing, storeErr(err)
}

func missingTags(tx *gorm.DB, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint64
	if err := tx.Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	have := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []uint64
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
