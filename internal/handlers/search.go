// search.go
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
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

// SearchHandler handles the search routes. The stateless route filters the
// current catalogue once; the session routes drive the UI search mode.
type SearchHandler struct {
	Store   *services.CatalogStore
	Session *services.SearchSession
}

// searchRequest is the UI's filter form. Bounds arrive as the raw text of
// the inputs, or as numbers for the size bounds; malformed bounds are ignored.
type searchRequest struct {
	Query      string           `json:"query"`
	CategoryID types.NullableID `json:"categoryId"`
	TagIDs     types.IDList     `json:"tagIds"`
	DateFrom   string           `json:"dateFrom"`
	DateTo     string           `json:"dateTo"`
	MinSizeMB  json.RawMessage  `json:"minSizeMB"`
	MaxSizeMB  json.RawMessage  `json:"maxSizeMB"`
	SortBy     string           `json:"sortBy"`
	SortOrder  string           `json:"sortOrder"`
}

type searchResponse struct {
	Active   bool                    `json:"active"`
	Criteria services.SearchCriteria `json:"criteria"`
	Total    int                     `json:"total"`
	Results  []services.Model        `json:"results"`
}

func (r searchRequest) criteria() services.SearchCriteria {
	return services.SearchCriteria{
		Query:      r.Query,
		CategoryID: r.CategoryID.Ptr(),
		TagIDs:     r.TagIDs,
		DateRange: services.DateRange{
			From: services.ParseDateBound(r.DateFrom, false),
			To:   services.ParseDateBound(r.DateTo, true),
		},
		FileSize: services.SizeRange{
			MinMB: services.ParseSizeBound(boundText(r.MinSizeMB)),
			MaxMB: services.ParseSizeBound(boundText(r.MaxSizeMB)),
		},
		SortBy:    services.ParseSortField(r.SortBy),
		SortOrder: services.ParseSortOrder(r.SortOrder),
	}
}

// boundText accepts a JSON number or string and returns its text.
func boundText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

func respond(c *fiber.Ctx, active bool, crit services.SearchCriteria, results []services.Model) error {
	if results == nil {
		results = []services.Model{}
	}
	return utils.SuccessResponse(c, searchResponse{
		Active:   active,
		Criteria: crit,
		Total:    len(results),
		Results:  results,
	}, fiber.StatusOK)
}

// refresh loads the current catalogue into the session.
func (h *SearchHandler) refresh(c *fiber.Ctx) error {
	list, err := h.Store.ListModels(c.UserContext())
	if err != nil {
		return err
	}
	h.Session.SetSnapshot(list)
	return nil
}

// Search handles POST /api/search
// @Summary Filter and sort the catalogue
// @Description Stateless search: every set predicate must match, tags match any
// @Tags Search
// @Accept json
// @Produce json
// @Param body body searchRequest true "Criteria"
// @Success 200 {object} searchResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /search [post]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var body searchRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	list, err := h.Store.ListModels(c.UserContext())
	if err != nil {
		return utils.ErrorFromError(c, err)
	}
	crit := body.criteria()
	return respond(c, true, crit, services.Search(list, crit))
}

// SetCriteria handles PUT /api/search/criteria
// @Summary Enter search mode with new criteria
// @Tags Search
// @Accept json
// @Produce json
// @Param body body searchRequest true "Criteria"
// @Success 200 {object} searchResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /search/criteria [put]
func (h *SearchHandler) SetCriteria(c *fiber.Ctx) error {
	var body searchRequest
	if err := parseBody(c, &body); err != nil {
		return utils.ErrorFromError(c, err)
	}
	if err := h.refresh(c); err != nil {
		return utils.ErrorFromError(c, err)
	}
	crit := body.criteria()
	return respond(c, true, crit, h.Session.SetCriteria(crit))
}

// Results handles GET /api/search/results
// @Summary Current view
// @Description The filtered view in search mode, otherwise the whole catalogue
// @Tags Search
// @Produce json
// @Success 200 {object} searchResponse
// @Router /search/results [get]
func (h *SearchHandler) Results(c *fiber.Ctx) error {
	if err := h.refresh(c); err != nil {
		return utils.ErrorFromError(c, err)
	}
	return respond(c, h.Session.Active(), h.Session.Criteria(), h.Session.Results())
}

// Clear handles DELETE /api/search
// @Summary Leave search mode
// @Tags Search
// @Produce json
// @Success 200 {object} searchResponse
// @Router /search [delete]
func (h *SearchHandler) Clear(c *fiber.Ctx) error {
	h.Session.Clear()
	if err := h.refresh(c); err != nil {
		return utils.ErrorFromError(c, err)
	}
	return respond(c, false, h.Session.Criteria(), h.Session.Results())
}
