// server_test.go
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

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/p3dv-catalog/internal/app"
	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/localnerve/p3dv-catalog/internal/license"
	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/testutil"
)

type fixedFingerprint string

func (f fixedFingerprint) Compute(context.Context) (string, error) {
	return string(f), nil
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Ok      bool   `json:"ok"`
	Type    string `json:"type"`
}

type searchBody struct {
	Active  bool             `json:"active"`
	Total   int              `json:"total"`
	Results []services.Model `json:"results"`
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) (*fiber.App, afero.Fs) {
	t.Helper()
	cfg := &config.Config{
		AssetsDir:     "/srv/p3dv/library",
		ExportDir:     "/srv/p3dv/exports",
		LicenseFile:   "/srv/p3dv/license.json",
		MaxUploadMB:   1,
		ProductCode:   "P3DV",
		AppVersion:    "1.0.0",
		LicenseSecret: "test-secret",
	}
	for _, m := range mutate {
		m(cfg)
	}
	fsys := afero.NewMemMapFs()
	a, err := app.Wire(context.Background(), cfg, testutil.NewTestDB(t), fsys, fixedFingerprint("fp-test"))
	require.NoError(t, err)
	return New(a, Options{}), fsys
}

func do(t *testing.T, f *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := f.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func addModel(t *testing.T, f *fiber.App, fsys afero.Fs, name string, extra map[string]any) services.Model {
	t.Helper()
	src := "/incoming/" + name + ".glb"
	require.NoError(t, afero.WriteFile(fsys, src, []byte("glb:"+name), 0o644))

	body := map[string]any{"name": name, "sourcePath": src}
	for k, v := range extra {
		body[k] = v
	}
	resp := do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/models", body))
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var m services.Model
	testutil.ParseJSON(t, resp, &m)
	return m
}

func assetURL(path string) string {
	return "/assets/file/" + url.PathEscape(path)
}

func TestModelLifecycle(t *testing.T) {
	f, fsys := newTestServer(t)

	resp := do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/categories", map[string]any{"name": "Props"}))
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var cat services.Category
	testutil.ParseJSON(t, resp, &cat)
	assert.Equal(t, "#3B82F6", cat.Color)

	m := addModel(t, f, fsys, "crate", map[string]any{"categoryId": cat.ID, "description": "wooden"})
	assert.Equal(t, "crate", m.Name)
	require.NotNil(t, m.CategoryID)
	assert.Equal(t, cat.ID, *m.CategoryID)
	assert.Equal(t, "/srv/p3dv/library/models/model_1.glb", m.FilePath)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var list []services.Model
	testutil.ParseJSON(t, resp, &list)
	require.Len(t, list, 1)

	target := "/api/models/" + itoa(m.ID)
	resp = do(t, f, testutil.JSONRequest(t, http.MethodPut, target, map[string]any{"name": " Crate ", "categoryId": nil}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var updated services.Model
	testutil.ParseJSON(t, resp, &updated)
	assert.Equal(t, "Crate", updated.Name)
	assert.Equal(t, "wooden", updated.Description)
	assert.Nil(t, updated.CategoryID)

	resp = do(t, f, httptest.NewRequest(http.MethodDelete, target, nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, target, nil))
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
	exists, err := afero.Exists(fsys, m.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateModel_Rejections(t *testing.T) {
	f, fsys := newTestServer(t)
	require.NoError(t, afero.WriteFile(fsys, "/incoming/mesh.obj", []byte("o"), 0o644))

	tests := []struct {
		name     string
		body     map[string]any
		status   int
		errorTyp string
	}{
		{"missing source", map[string]any{"name": "x"}, fiber.StatusBadRequest, "validation.input"},
		{"blank name", map[string]any{"name": "  ", "sourcePath": "/incoming/mesh.obj"}, fiber.StatusBadRequest, "validation.input"},
		{"unsupported type", map[string]any{"name": "x", "sourcePath": "/incoming/mesh.obj"}, fiber.StatusBadRequest, "storage.unsupported_file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/models", tc.body))
			testutil.AssertStatus(t, resp, tc.status)
			var e errorBody
			testutil.ParseJSON(t, resp, &e)
			assert.False(t, e.Ok)
			assert.Equal(t, tc.errorTyp, e.Type)
		})
	}
}

func TestCategoriesAndTags_Validation(t *testing.T) {
	f, _ := newTestServer(t)

	resp := do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/tags", map[string]any{"name": "lowpoly", "color": "green"}))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/tags", map[string]any{"name": "lowpoly"}))
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	var tag services.Tag
	testutil.ParseJSON(t, resp, &tag)
	assert.Equal(t, "#6B7280", tag.Color)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/tags", map[string]any{"name": "lowpoly", "color": "#112233"}))
	testutil.AssertStatus(t, resp, fiber.StatusConflict)

	resp = do(t, f, httptest.NewRequest(http.MethodDelete, "/api/categories/abc", nil))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = do(t, f, httptest.NewRequest(http.MethodDelete, "/api/categories/42", nil))
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestAssetBridge(t *testing.T) {
	f, fsys := newTestServer(t)
	m := addModel(t, f, fsys, "lamp", nil)

	resp := do(t, f, httptest.NewRequest(http.MethodGet, assetURL(m.FilePath), nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, "model/gltf-binary", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "glb:lamp", string(body))

	denied := []string{
		"/incoming/lamp.glb",
		"/srv/p3dv/library/../license.json",
		"/srv/p3dv/library/models/missing.glb",
		"models/model_1.glb",
		"/srv/p3dv/library/.trash/x.glb",
	}
	for _, p := range denied {
		resp := do(t, f, httptest.NewRequest(http.MethodGet, assetURL(p), nil))
		testutil.AssertStatus(t, resp, fiber.StatusNotFound)
		var e errorBody
		testutil.ParseJSON(t, resp, &e)
		assert.Equal(t, "storage.asset_not_found", e.Type, p)
		assert.Equal(t, "Resource Not Found", e.Message, p)
	}
}

func TestSearch(t *testing.T) {
	f, fsys := newTestServer(t)
	addModel(t, f, fsys, "Alpha", nil)
	addModel(t, f, fsys, "Beta", nil)

	resp := do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/search", map[string]any{"sortBy": "name", "sortOrder": "desc"}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var stateless searchBody
	testutil.ParseJSON(t, resp, &stateless)
	require.Equal(t, 2, stateless.Total)
	assert.Equal(t, "Beta", stateless.Results[0].Name)
	assert.Equal(t, "Alpha", stateless.Results[1].Name)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPut, "/api/search/criteria", map[string]any{"query": "ALP", "minSizeMB": "abc"}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var session searchBody
	testutil.ParseJSON(t, resp, &session)
	assert.True(t, session.Active)
	require.Equal(t, 1, session.Total)
	assert.Equal(t, "Alpha", session.Results[0].Name)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, "/api/search/results", nil))
	testutil.ParseJSON(t, resp, &session)
	assert.True(t, session.Active)
	assert.Equal(t, 1, session.Total)

	resp = do(t, f, httptest.NewRequest(http.MethodDelete, "/api/search", nil))
	testutil.ParseJSON(t, resp, &session)
	assert.False(t, session.Active)
	assert.Equal(t, 2, session.Total)
}

func TestBulkRoutes(t *testing.T) {
	f, fsys := newTestServer(t)
	a := addModel(t, f, fsys, "a", nil)
	b := addModel(t, f, fsys, "b", nil)

	resp := do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/categories", map[string]any{"name": "Set"}))
	var cat services.Category
	testutil.ParseJSON(t, resp, &cat)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/move", map[string]any{
		"ids":        []any{itoa(a.ID), b.ID},
		"categoryId": itoa(cat.ID),
	}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var moved services.UpdateResult
	testutil.ParseJSON(t, resp, &moved)
	assert.Equal(t, services.UpdateResult{Attempted: 2, Updated: 2}, moved)

	// a missing categoryId is rejected, never read as uncategorized
	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/move", map[string]any{"ids": []any{a.ID, b.ID}}))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	var missing errorBody
	testutil.ParseJSON(t, resp, &missing)
	assert.Equal(t, "validation.input", missing.Type)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, "/api/models/"+itoa(b.ID), nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var kept services.Model
	testutil.ParseJSON(t, resp, &kept)
	require.NotNil(t, kept.CategoryID)
	assert.Equal(t, cat.ID, *kept.CategoryID)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/move", map[string]any{"ids": b.ID, "categoryId": nil}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	testutil.ParseJSON(t, resp, &moved)
	assert.Equal(t, services.UpdateResult{Attempted: 1, Updated: 1}, moved)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, "/api/models/"+itoa(b.ID), nil))
	var cleared services.Model
	testutil.ParseJSON(t, resp, &cleared)
	assert.Nil(t, cleared.CategoryID)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/export", map[string]any{"ids": a.ID, "format": "zip"}))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	var e errorBody
	testutil.ParseJSON(t, resp, &e)
	assert.Equal(t, "bulk.unsupported_export_format", e.Type)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/tag", map[string]any{"ids": a.ID}))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	testutil.ParseJSON(t, resp, &e)
	assert.Equal(t, "bulk.no_tag_change", e.Type)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/delete", map[string]any{"ids": []any{}}))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	testutil.ParseJSON(t, resp, &e)
	assert.Equal(t, "bulk.empty_selection", e.Type)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/bulk/delete", map[string]any{"ids": itoa(a.ID)}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var deleted services.DeleteResult
	testutil.ParseJSON(t, resp, &deleted)
	assert.Equal(t, services.DeleteResult{Attempted: 1, Deleted: 1}, deleted)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	var stats services.ModelStats
	testutil.ParseJSON(t, resp, &stats)
	assert.Equal(t, int64(1), stats.TotalModels)
}

func TestLicenseRoutes(t *testing.T) {
	f, fsys := newTestServer(t)

	resp := do(t, f, httptest.NewRequest(http.MethodGet, "/api/license/sample-key", nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var sample map[string]string
	testutil.ParseJSON(t, resp, &sample)
	key := sample["licenseKey"]
	require.NotEmpty(t, key)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/license/request", map[string]any{"licenseKey": "not-a-key"}))
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/license/request", map[string]any{"licenseKey": key}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var req map[string]string
	testutil.ParseJSON(t, resp, &req)
	code := req["activationCode"]
	require.NotEmpty(t, code)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/license/validate", map[string]any{"activationCode": "garbage"}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var v license.Validation
	testutil.ParseJSON(t, resp, &v)
	assert.False(t, v.Valid)
	assert.Equal(t, license.ReasonMalformedCode, v.Reason)

	resp = do(t, f, testutil.JSONRequest(t, http.MethodPost, "/api/license/activate", map[string]any{"licenseKey": key, "activationCode": code}))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	var status license.Status
	testutil.ParseJSON(t, resp, &status)
	assert.True(t, status.Activated)
	assert.Equal(t, license.StateActivated, status.State)

	saved, err := afero.Exists(fsys, "/srv/p3dv/license.json")
	require.NoError(t, err)
	assert.True(t, saved)

	resp = do(t, f, httptest.NewRequest(http.MethodDelete, "/api/license", nil))
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	testutil.ParseJSON(t, resp, &status)
	assert.False(t, status.Activated)
}

func TestBridgeToken(t *testing.T) {
	f, fsys := newTestServer(t, func(c *config.Config) { c.BridgeToken = "s3cret" })
	require.NoError(t, afero.WriteFile(fsys, "/srv/p3dv/library/models/model_9.glb", []byte("glb"), 0o644))

	resp := do(t, f, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("X-Bridge-Token", "s3cret")
	resp = do(t, f, req)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	req = httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.AddCookie(&http.Cookie{Name: "bridge_session", Value: "s3cret"})
	resp = do(t, f, req)
	testutil.AssertStatus(t, resp, fiber.StatusOK)

	resp = do(t, f, httptest.NewRequest(http.MethodGet, assetURL("/srv/p3dv/library/models/model_9.glb"), nil))
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)

	req = httptest.NewRequest(http.MethodGet, assetURL("/srv/p3dv/library/models/model_9.glb"), nil)
	req.Header.Set("X-Bridge-Token", "s3cret")
	resp = do(t, f, req)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
}

func TestVersionMismatch(t *testing.T) {
	f, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("X-Api-Version", "2.0.0")
	resp := do(t, f, req)
	testutil.AssertStatus(t, resp, fiber.StatusConflict)
	assert.Equal(t, "1.0.0", resp.Header.Get("X-Api-Version"))

	req = httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("X-Api-Version", "1.4")
	resp = do(t, f, req)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
}

func TestUnknownRoute(t *testing.T) {
	f, _ := newTestServer(t)

	resp := do(t, f, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
