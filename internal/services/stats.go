// stats.go
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

	"github.com/localnerve/p3dv-catalog/internal/models"
	"gorm.io/hints"
)

// ModelStats summarises the catalogue.
type ModelStats struct {
	TotalModels     int64  `json:"totalModels"`
	TotalSize       int64  `json:"totalSize"`
	TotalCategories int64  `json:"totalCategories"`
	TotalTags       int64  `json:"totalTags"`
	Uncategorized   int64  `json:"uncategorized"`
	NewestModel     *Model `json:"newestModel,omitempty"`
}

// Stats returns catalogue totals and the newest model.
func (s *CatalogStore) Stats(ctx context.Context) (ModelStats, error) {
	tx := s.db.WithContext(ctx).Clauses(hints.CommentBefore("select", "p3dv:stats"))

	var st ModelStats
	var agg struct {
		N    int64
		Size int64
	}
	if err := tx.Model(&models.Model{}).Select("COUNT(*) AS n, COALESCE(SUM(file_size), 0) AS size").Scan(&agg).Error; err != nil {
		return st, storeErr(err)
	}
	st.TotalModels, st.TotalSize = agg.N, agg.Size

	if err := s.db.WithContext(ctx).Model(&models.Model{}).Where("category_id IS NULL").Count(&st.Uncategorized).Error; err != nil {
		return st, storeErr(err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Count(&st.TotalCategories).Error; err != nil {
		return st, storeErr(err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Count(&st.TotalTags).Error; err != nil {
		return st, storeErr(err)
	}

	if st.TotalModels > 0 {
		var newest models.Model
		if err := s.quiet(ctx).Order("created_at DESC").Order("id DESC").Select("id").First(&newest).Error; err != nil {
			return st, storeErr(err)
		}
		m, err := s.GetModel(ctx, newest.ID)
		if err != nil {
			return st, err
		}
		st.NewestModel = &m
	}
	return st, nil
}
