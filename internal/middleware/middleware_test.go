// middleware_test.go
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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/p3dv-catalog/internal/types"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var ce *types.CustomError
			if errors.As(err, &ce) {
				return c.Status(ce.Code).SendString(ce.Type)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	handlers = append(handlers, func(c *fiber.Ctx) error {
		v, _ := c.Locals("apiVersion").(string)
		return c.SendString("ok " + v)
	})
	app.Get("/", handlers...)
	return app
}

func TestBridgeAuth_DisabledWithoutToken(t *testing.T) {
	app := newApp(BridgeAuth("", ErrBridgeUnauthorized))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBridgeAuth(t *testing.T) {
	app := newApp(BridgeAuth("s3cret", ErrBridgeUnauthorized))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing", func(r *http.Request) {}, fiber.StatusForbidden},
		{"wrong header", func(r *http.Request) { r.Header.Set(BridgeTokenHeader, "nope") }, fiber.StatusForbidden},
		{"prefix only", func(r *http.Request) { r.Header.Set(BridgeTokenHeader, "s3c") }, fiber.StatusForbidden},
		{"header", func(r *http.Request) { r.Header.Set(BridgeTokenHeader, "s3cret") }, fiber.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: BridgeCookie, Value: "s3cret"}) }, fiber.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestBridgeAuth_CustomDenial(t *testing.T) {
	app := newApp(BridgeAuth("s3cret", types.ErrAssetNotFound))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestVersionMiddleware(t *testing.T) {
	app := newApp(VersionMiddleware("1.2.0"))

	tests := []struct {
		header string
		status int
	}{
		{"", fiber.StatusOK},
		{"1.0.0", fiber.StatusOK},
		{"v1.9", fiber.StatusOK},
		{"2.0.0", fiber.StatusConflict},
		{"0.9.1", fiber.StatusConflict},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("X-Api-Version", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.header)
		assert.Equal(t, "1.2.0", resp.Header.Get("X-Api-Version"))
	}
}

func TestMajorOf(t *testing.T) {
	assert.Equal(t, "1", majorOf("1.0.0"))
	assert.Equal(t, "2", majorOf("v2.1"))
	assert.Equal(t, "3", majorOf(" 3 "))
}
