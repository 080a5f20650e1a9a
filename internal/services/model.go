// model.go
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
	"slices"
	"time"

	"github.com/localnerve/p3dv-catalog/internal/models"
)

// TagRef is a tag attached to a model.
type TagRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryRef is the category a model belongs to.
type CategoryRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Model is the canonical catalogue entry handed to callers. Tags are always a
// typed list, never a joined string.
type Model struct {
	ID            uint64            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	FilePath      string            `json:"filePath"`
	ThumbnailPath string            `json:"thumbnailPath,omitempty"`
	FileSize      int64             `json:"fileSize"`
	CategoryID    *uint64           `json:"categoryId"`
	Category      *CategoryRef      `json:"category,omitempty"`
	Tags          []TagRef          `json:"tags"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// TagIDs returns the ids of the model's tags.
func (m Model) TagIDs() []uint64 {
	ids := make([]uint64, 0, len(m.Tags))
	for _, t := range m.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// HasAnyTag reports whether the model carries at least one of ids.
func (m Model) HasAnyTag(ids map[uint64]struct{}) bool {
	for _, t := range m.Tags {
		if _, ok := ids[t.ID]; ok {
			return true
		}
	}
	return false
}

// Category is a catalogue category.
type Category struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"createdAt"`
	ModelCount int64     `json:"modelCount"`
}

// Tag is a catalogue tag.
type Tag struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"createdAt"`
	ModelCount int64     `json:"modelCount"`
}

// ModelFields is a partial update of a model's editable fields. Nil fields are left alone.
type ModelFields struct {
	Name          *string
	Description   *string
	ThumbnailPath *string
	Metadata      map[string]string
	CategoryID    *uint64
	ClearCategory bool
	TagIDs        []uint64
	SetTags       bool
}

// modelFromRow converts a persisted row into the canonical shape.
func modelFromRow(row models.Model, tags []TagRef) Model {
	m := Model{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		FilePath:    row.FilePath,
		FileSize:    row.FileSize,
		CategoryID:  row.CategoryID,
		Tags:        tags,
		Metadata:    row.Metadata.Map(),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.ThumbnailPath != nil {
		m.ThumbnailPath = *row.ThumbnailPath
	}
	if row.Category != nil && row.CategoryID != nil {
		m.Category = &CategoryRef{ID: row.Category.ID, Name: row.Category.Name, Color: row.Category.Color}
	}
	if m.Tags == nil {
		m.Tags = []TagRef{}
	}
	return m
}

// rowFromModel converts a canonical model into the row shape, without associations.
func rowFromModel(m Model) models.Model {
	row := models.Model{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		FilePath:    m.FilePath,
		FileSize:    m.FileSize,
		CategoryID:  m.CategoryID,
		Metadata:    models.NewMetadata(m.Metadata),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.ThumbnailPath != "" {
		thumb := m.ThumbnailPath
		row.ThumbnailPath = &thumb
	}
	return row
}

func categoryFromRow(row models.Category) Category {
	return Category{ID: row.ID, Name: row.Name, Color: row.Color, CreatedAt: row.CreatedAt}
}

func tagFromRow(row models.Tag) Tag {
	return Tag{ID: row.ID, Name: row.Name, Color: row.Color, CreatedAt: row.CreatedAt}
}

func sortedIDs(set map[uint64]struct{}) []uint64 {
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
