// catalog.go
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

package models

import "time"

// Model is a persisted 3D asset record
type Model struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	Name          string    `gorm:"size:255;not null"`
	Description   string    `gorm:"type:text"`
	FilePath      string    `gorm:"size:1024;not null;default:''"`
	ThumbnailPath *string   `gorm:"size:1024"`
	FileSize      int64     `gorm:"not null;default:0"`
	CategoryID    *uint64   `gorm:"index"`
	Category      *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Tags          []Tag     `gorm:"many2many:model_tags;constraint:OnDelete:CASCADE;"`
	Metadata      Metadata
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

// Category is a named, colored grouping of models
type Category struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	Color     string `gorm:"size:7;not null;default:'#3B82F6'"`
	CreatedAt time.Time
}

// Tag is a named, colored label attached to models through model_tags
type Tag struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	Color     string `gorm:"size:7;not null;default:'#6B7280'"`
	CreatedAt time.Time
}

// ModelTag is the model_tags join row
type ModelTag struct {
	ModelID uint64 `gorm:"primaryKey"`
	TagID   uint64 `gorm:"primaryKey"`
}

// TableName overrides the table name for Model
func (Model) TableName() string {
	return "models"
}

// TableName overrides the table name for Category
func (Category) TableName() string {
	return "categories"
}

// TableName overrides the table name for Tag
func (Tag) TableName() string {
	return "tags"
}

// TableName overrides the table name for ModelTag
func (ModelTag) TableName() string {
	return "model_tags"
}
