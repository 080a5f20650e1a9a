// seed.go
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

package database

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/localnerve/p3dv-catalog/data"
	"github.com/localnerve/p3dv-catalog/internal/models"
	"gorm.io/gorm"
)

type seedEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type seedFile struct {
	Categories []seedEntry `json:"categories"`
	Tags       []seedEntry `json:"tags"`
}

// Seed creates the default categories and tags on an empty catalog.
// Tables that already hold rows are left alone so deleted defaults stay deleted.
func Seed(db *gorm.DB) error {
	var defaults seedFile
	if err := json.Unmarshal(data.DefaultsJSON, &defaults); err != nil {
		return fmt.Errorf("failed to decode seed data: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			rows := make([]models.Category, 0, len(defaults.Categories))
			for _, c := range defaults.Categories {
				rows = append(rows, models.Category{Name: c.Name, Color: c.Color})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to seed categories: %w", err)
			}
			slog.Info("seeded default categories", "count", len(rows))
		}

		if err := tx.Model(&models.Tag{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			rows := make([]models.Tag, 0, len(defaults.Tags))
			for _, t := range defaults.Tags {
				rows = append(rows, models.Tag{Name: t.Name, Color: t.Color})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to seed tags: %w", err)
			}
			slog.Info("seeded default tags", "count", len(rows))
		}
		return nil
	})
}
