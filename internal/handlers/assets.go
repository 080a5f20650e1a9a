// assets.go
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
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/metrics"
	"github.com/localnerve/p3dv-catalog/internal/storage"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

var assetContentTypes = map[string]string{
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".png":  "image/png",
}

// AssetHandler serves managed files to the UI viewer.
type AssetHandler struct {
	Files *storage.Manager
}

// ServeFile handles GET /assets/file/*
// @Summary Read a managed asset
// @Description Returns the bytes of a file inside the managed assets root. The wildcard is the URL-encoded absolute path. Every refusal is the same 404.
// @Tags Assets
// @Produce octet-stream
// @Param path path string true "URL-encoded absolute path"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /assets/file/{path} [get]
func (h *AssetHandler) ServeFile(c *fiber.Ctx) error {
	requested, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return h.deny(c, "undecodable path")
	}

	data, err := h.Files.Serve(requested)
	if err != nil {
		return h.deny(c, err.Error())
	}

	metrics.BridgeRequests.WithLabelValues("served").Inc()
	contentType, ok := assetContentTypes[strings.ToLower(filepath.Ext(requested))]
	if !ok {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(fiber.StatusOK).Send(data)
}

func (h *AssetHandler) deny(c *fiber.Ctx, reason string) error {
	metrics.BridgeRequests.WithLabelValues("denied").Inc()
	logger.WithComponent("bridge").Debug("asset request denied", "reason", reason)
	return utils.ErrorFromError(c, types.ErrAssetNotFound)
}
