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

package handlers

import (
	"bytes"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

const (
	defaultCategoryColor = "#3B82F6"
	defaultTagColor      = "#6B7280"
)

// CatalogHandler handles model, category and tag routes
type CatalogHandler struct {
	Library *services.Library
}

// createModelRequest adds a model from a file on the local disk.
type createModelRequest struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description" validate:"max=4000"`
	SourcePath  string            `json:"sourcePath" validate:"required"`
	CategoryID  types.NullableID  `json:"categoryId"`
	TagIDs      types.IDList      `json:"tagIds"`
	Metadata    map[string]string `json:"metadata"`
}

type updateModelRequest struct {
	Name        *string           `json:"name" validate:"omitempty,max=255"`
	Description *string           `json:"description" validate:"omitempty,max=4000"`
	Metadata    map[string]string `json:"metadata"`
	CategoryID  types.NullableID  `json:"categoryId"`
	TagIDs      types.IDList      `json:"tagIds"`
}

type namedColorRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,rgbhex"`
}

// ListModels handles GET /api/models
// @Summary List models
// @Description All models, newest first, with category and tags
// @Tags Models
// @Produce json
// @Success 200 {array} services.Model
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /models [get]
func (h *CatalogHandler) ListModels(c *fiber.Ctx) error {
	list, err := h.Library.ListModels(c.UserContext())
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// RecentModels handles GET /api/models/recent?limit=n
// @Summary List recent models
// @Tags Models
// @Produce json
// @Param limit query int false "Maximum number of models (default 10)"
// @Success 200 {array} services.Model
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /models/recent [get]
func (h *CatalogHandler) RecentModels(c *fiber.Ctx) error {
	list, err := h.Library.RecentModels(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// GetModel handles GET /api/models/:id
// @Summary Get a model
// @Tags Models
// @Produce json
// @Param id path int true "Model ID"
// @Success 200 {object} services.Model
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /models/{id} [get]
func (h *CatalogHandler) GetModel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	m, err := h.Library.GetModel(c.UserContext(), id)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, m, fiber.StatusOK)
}

// CreateModel handles POST /api/models
// @Summary Add a model
// @Description Registers a .glb/.gltf file from the local disk and stages a copy under the managed root
// @Tags Models
// @Accept json
// @Produce json
// @Param body body createModelRequest true "Model to add"
// @Success 201 {object} services.Model
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 413 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /models [post]
func (h *CatalogHandler) CreateModel(c *fiber.Ctx) error {
	var body createModelRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	body.Name = strings.TrimSpace(body.Name)
	if err := utils.ValidateStruct(&body); err != nil {
		return utils.ErrorFromError(c, err)
	}

	m, err := h.Library.AddModel(c.UserContext(), services.AddModelInput{
		Name:        body.Name,
		Description: body.Description,
		SourcePath:  body.SourcePath,
		CategoryID:  body.CategoryID.Ptr(),
		TagIDs:      body.TagIDs,
		Metadata:    body.Metadata,
	})
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, m, fiber.StatusCreated)
}

// UpdateModel handles PUT /api/models/:id
// @Summary Update a model
// @Description Partial update. Absent fields are left alone, categoryId null uncategorizes, tagIds replaces the tag set.
// @Tags Models
// @Accept json
// @Produce json
// @Param id path int true "Model ID"
// @Param body body updateModelRequest true "Fields to change"
// @Success 200 {object} services.Model
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /models/{id} [put]
func (h *CatalogHandler) UpdateModel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	var body updateModelRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	if err := utils.ValidateStruct(&body); err != nil {
		return utils.ErrorFromError(c, err)
	}

	present := bodyKeys(c)
	fields := services.ModelFields{
		Name:        body.Name,
		Description: body.Description,
		Metadata:    body.Metadata,
	}
	if present["categoryId"] {
		if body.CategoryID.Valid {
			fields.CategoryID = body.CategoryID.Ptr()
		} else {
			fields.ClearCategory = true
		}
	}
	if present["tagIds"] {
		fields.TagIDs = body.TagIDs
		fields.SetTags = true
	}

	m, err := h.Library.UpdateModel(c.UserContext(), id, fields)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, m, fiber.StatusOK)
}

// DeleteModel handles DELETE /api/models/:id
// @Summary Delete a model
// @Description Deletes the record with its staged binary and thumbnail
// @Tags Models
// @Produce json
// @Param id path int true "Model ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /models/{id} [delete]
func (h *CatalogHandler) DeleteModel(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	if err := h.Library.DeleteModel(c.UserContext(), id); err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.MutationSuccessResponse(c, 1)
}

// UploadThumbnail handles POST /api/models/:id/thumbnail
// @Summary Store a model thumbnail
// @Description Accepts a multipart "thumbnail" PNG file or a raw image/png body
// @Tags Models
// @Accept mpfd,png
// @Produce json
// @Param id path int true "Model ID"
// @Success 200 {object} services.Model
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /models/{id}/thumbnail [post]
func (h *CatalogHandler) UploadThumbnail(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorFromError(c, err)
	}

	if fh, ferr := c.FormFile("thumbnail"); ferr == nil {
		f, err := fh.Open()
		if err != nil {
			return utils.ErrorFromError(c, types.Wrap(types.ErrInvalidInput, err))
		}
		defer f.Close()
		m, err := h.Library.SetThumbnail(c.UserContext(), id, f)
		if err != nil {
			return utils.ErrorFromError(c, err)
		}
		return utils.SuccessResponse(c, m, fiber.StatusOK)
	}

	if len(c.Body()) == 0 {
		return utils.ErrorFromError(c, types.Wrapf(types.ErrInvalidInput, "thumbnail is required"))
	}
	m, err := h.Library.SetThumbnail(c.UserContext(), id, bytes.NewReader(c.Body()))
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, m, fiber.StatusOK)
}

// Stats handles GET /api/stats
// @Summary Catalogue statistics
// @Tags Models
// @Produce json
// @Success 200 {object} services.ModelStats
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /stats [get]
func (h *CatalogHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.Library.Store().Stats(c.UserContext())
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, stats, fiber.StatusOK)
}

// ListCategories handles GET /api/categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {array} services.Category
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	list, err := h.Library.Store().ListCategories(c.UserContext())
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// CreateCategory handles POST /api/categories
// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param body body namedColorRequest true "Category"
// @Success 201 {object} services.Category
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /categories [post]
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	body, err := parseNamedColor(c, defaultCategoryColor)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	cat, err := h.Library.Store().InsertCategory(c.UserContext(), body.Name, body.Color)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, cat, fiber.StatusCreated)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete a category
// @Description Models in the category become uncategorized
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	if err := h.Library.Store().DeleteCategory(c.UserContext(), id); err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.MutationSuccessResponse(c, 1)
}

// ListTags handles GET /api/tags
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} services.Tag
// @Router /tags [get]
func (h *CatalogHandler) ListTags(c *fiber.Ctx) error {
	list, err := h.Library.Store().ListTags(c.UserContext())
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// CreateTag handles POST /api/tags
// @Summary Create a tag
// @Tags Tags
// @Accept json
// @Produce json
// @Param body body namedColorRequest true "Tag"
// @Success 201 {object} services.Tag
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /tags [post]
func (h *CatalogHandler) CreateTag(c *fiber.Ctx) error {
	body, err := parseNamedColor(c, defaultTagColor)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	tag, err := h.Library.Store().InsertTag(c.UserContext(), body.Name, body.Color)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, tag, fiber.StatusCreated)
}

// DeleteTag handles DELETE /api/tags/:id
// @Summary Delete a tag
// @Description Removes the tag from every model
// @Tags Tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /tags/{id} [delete]
func (h *CatalogHandler) DeleteTag(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	if err := h.Library.Store().DeleteTag(c.UserContext(), id); err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.MutationSuccessResponse(c, 1)
}

func parseNamedColor(c *fiber.Ctx, defaultColor string) (namedColorRequest, error) {
	var body namedColorRequest
	if err := parseBody(c, &body); err != nil {
		return body, err
	}
	body.Name = strings.TrimSpace(body.Name)
	if err := utils.ValidateStruct(&body); err != nil {
		return body, err
	}
	if body.Color == "" {
		body.Color = defaultColor
	}
	return body, nil
}
