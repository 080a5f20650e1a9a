// version.go
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
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/utils"
)

// VersionMiddleware parses the X-Api-Version header, stores it in context and
// rejects callers built against a different major version of the host API
func VersionMiddleware(serverVersion string) fiber.Handler {
	serverMajor := majorOf(serverVersion)

	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", serverVersion)

		// Support version aliases
		if strings.Count(version, ".") == 1 {
			version += ".0"
		}

		// Store version in context
		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", serverVersion)

		if majorOf(version) != serverMajor {
			return utils.VersionErrorResponse(c, serverVersion)
		}
		return c.Next()
	}
}

func majorOf(version string) string {
	major, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(version), "v"), ".")
	return major
}
