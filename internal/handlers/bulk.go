// bulk.go
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
	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

// BulkHandler handles operations on a selection of models
type BulkHandler struct {
	Bulk *services.BulkExecutor
}

type bulkSelection struct {
	IDs types.IDList `json:"ids"`
}

type bulkMoveRequest struct {
	bulkSelection
	CategoryID types.NullableID `json:"categoryId"`
}

type bulkTagRequest struct {
	bulkSelection
	Add    types.IDList `json:"add"`
	Remove types.IDList `json:"remove"`
}

type bulkExportRequest struct {
	bulkSelection
	Format string `json:"format"`
}

// Delete handles POST /api/bulk/delete
// @Summary Delete selected models
// @Description Each model is deleted with its files. A failure on one model does not stop the batch.
// @Tags Bulk
// @Accept json
// @Produce json
// @Param body body bulkSelection true "Selection"
// @Success 200 {object} services.DeleteResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /bulk/delete [post]
func (h *BulkHandler) Delete(c *fiber.Ctx) error {
	var body bulkSelection
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	result, err := h.Bulk.Delete(c.UserContext(), body.IDs)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// Move handles POST /api/bulk/move
// @Summary Move selected models to a category
// @Description categoryId is required; null or 0 makes the models uncategorized
// @Tags Bulk
// @Accept json
// @Produce json
// @Param body body bulkMoveRequest true "Selection and target category"
// @Success 200 {object} services.UpdateResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /bulk/move [post]
func (h *BulkHandler) Move(c *fiber.Ctx) error {
	var body bulkMoveRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	if !body.CategoryID.Present {
		return utils.ErrorFromError(c, types.Wrapf(types.ErrInvalidInput, "categoryId is required, use null for uncategorized"))
	}
	result, err := h.Bulk.Move(c.UserContext(), body.IDs, body.CategoryID.Ptr())
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// Tag handles POST /api/bulk/tag
// @Summary Add and remove tags on selected models
// @Tags Bulk
// @Accept json
// @Produce json
// @Param body body bulkTagRequest true "Selection and tag changes"
// @Success 200 {object} services.UpdateResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /bulk/tag [post]
func (h *BulkHandler) Tag(c *fiber.Ctx) error {
	var body bulkTagRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	result, err := h.Bulk.Tag(c.UserContext(), body.IDs, body.Add, body.Remove)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// Export handles POST /api/bulk/export
// @Summary Export selected models
// @Description format is collection, archive or metadata
// @Tags Bulk
// @Accept json
// @Produce json
// @Param body body bulkExportRequest true "Selection and format"
// @Success 200 {object} services.ExportResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /bulk/export [post]
func (h *BulkHandler) Export(c *fiber.Ctx) error {
	var body bulkExportRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	result, err := h.Bulk.Export(c.UserContext(), body.IDs, body.Format)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}
