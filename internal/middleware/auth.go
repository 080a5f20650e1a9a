// auth.go
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

package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/types"
)

const (
	// BridgeTokenHeader carries the shared secret of the UI process
	BridgeTokenHeader = "X-Bridge-Token"
	// BridgeCookie is the cookie alternative to the header
	BridgeCookie = "bridge_session"
)

// ErrBridgeUnauthorized rejects an API call without the bridge token
var ErrBridgeUnauthorized = &types.CustomError{
	Code:    fiber.StatusForbidden,
	Message: "Bridge token missing or invalid",
	Type:    "bridge.authorization",
	Kind:    types.KindValidation,
}

// BridgeAuth requires the shared bridge token when one is configured.
// denial is returned for rejected requests so the asset route can keep its
// uniform not-found answer.
func BridgeAuth(token string, denial error) fiber.Handler {
	if token == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	expected := []byte(token)

	return func(c *fiber.Ctx) error {
		presented := c.Get(BridgeTokenHeader)
		if presented == "" {
			presented = c.Cookies(BridgeCookie)
		}
		if subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
			logger.WithComponent("bridge").Debug("rejected request without bridge token", "path", c.Path())
			return denial
		}
		return c.Next()
	}
}
