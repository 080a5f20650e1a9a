// license.go
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
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/license"
	"github.com/localnerve/p3dv-catalog/internal/metrics"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

// LicenseHandler handles the offline activation handshake
type LicenseHandler struct {
	License *license.Manager
}

type licenseKeyRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

type activationCodeRequest struct {
	ActivationCode string `json:"activationCode" validate:"required"`
}

type activateRequest struct {
	LicenseKey     string `json:"licenseKey" validate:"required"`
	ActivationCode string `json:"activationCode" validate:"required"`
}

func licenseEvent(event string, err error) {
	metrics.LicenseEvents.WithLabelValues(event, resultLabel(err)).Inc()
}

// Status handles GET /api/license
// @Summary Activation status
// @Tags License
// @Produce json
// @Success 200 {object} license.Status
// @Router /license [get]
func (h *LicenseHandler) Status(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, h.License.Status(), fiber.StatusOK)
}

// Fingerprint handles GET /api/license/fingerprint
// @Summary Hardware fingerprint of this machine
// @Tags License
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /license/fingerprint [get]
func (h *LicenseHandler) Fingerprint(c *fiber.Ctx) error {
	fp, err := h.License.Fingerprint(c.UserContext())
	licenseEvent("fingerprint", err)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, fiber.Map{"fingerprint": fp}, fiber.StatusOK)
}

// SampleKey handles GET /api/license/sample-key
// @Summary Generate a well formed demo key
// @Tags License
// @Produce json
// @Success 200 {object} map[string]string
// @Router /license/sample-key [get]
func (h *LicenseHandler) SampleKey(c *fiber.Ctx) error {
	key, err := h.License.SampleKey()
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, fiber.Map{"licenseKey": key}, fiber.StatusOK)
}

// Request handles POST /api/license/request
// @Summary Generate an activation code
// @Description Binds the key to this machine. The code is sent to the vendor out of band.
// @Tags License
// @Accept json
// @Produce json
// @Param body body licenseKeyRequest true "License key"
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 503 {object} utils.ErrorResponseStruct
// @Router /license/request [post]
func (h *LicenseHandler) Request(c *fiber.Ctx) error {
	var body licenseKeyRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	body.LicenseKey = strings.TrimSpace(body.LicenseKey)
	if err := utils.ValidateStruct(&body); err != nil {
		return utils.ErrorFromError(c, err)
	}

	code, err := h.License.GenerateActivationRequest(c.UserContext(), body.LicenseKey)
	licenseEvent("request", err)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, fiber.Map{"activationCode": code}, fiber.StatusOK)
}

// Validate handles POST /api/license/validate
// @Summary Check an activation code
// @Description Always 200; valid is false with a reason when the code is rejected
// @Tags License
// @Accept json
// @Produce json
// @Param body body activationCodeRequest true "Activation code"
// @Success 200 {object} license.Validation
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /license/validate [post]
func (h *LicenseHandler) Validate(c *fiber.Ctx) error {
	var body activationCodeRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	if err := utils.ValidateStruct(&body); err != nil {
		return utils.ErrorFromError(c, err)
	}

	v := h.License.ValidateActivationResponse(c.UserContext(), strings.TrimSpace(body.ActivationCode))
	result := "ok"
	if !v.Valid {
		result = string(v.Reason)
	}
	metrics.LicenseEvents.WithLabelValues("validate", result).Inc()
	return utils.SuccessResponse(c, v, fiber.StatusOK)
}

// Activate handles POST /api/license/activate
// @Summary Redeem an activation code
// @Tags License
// @Accept json
// @Produce json
// @Param body body activateRequest true "Key and activation code"
// @Success 200 {object} license.Status
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /license/activate [post]
func (h *LicenseHandler) Activate(c *fiber.Ctx) error {
	var body activateRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	body.LicenseKey = strings.TrimSpace(body.LicenseKey)
	body.ActivationCode = strings.TrimSpace(body.ActivationCode)
	if err := utils.ValidateStruct(&body); err != nil {
		return utils.ErrorFromError(c, err)
	}

	_, err := h.License.Activate(c.UserContext(), body.LicenseKey, body.ActivationCode)
	licenseEvent("activate", err)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, h.License.Status(), fiber.StatusOK)
}

// Deactivate handles DELETE /api/license
// @Summary Deactivate this machine
// @Tags License
// @Produce json
// @Success 200 {object} license.Status
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /license [delete]
func (h *LicenseHandler) Deactivate(c *fiber.Ctx) error {
	err := h.License.Deactivate(c.UserContext())
	licenseEvent("deactivate", err)
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	return utils.SuccessResponse(c, h.License.Status(), fiber.StatusOK)
}
