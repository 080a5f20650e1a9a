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

package services

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SortField selects the key search results are ordered by.
type SortField string

const (
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByFileSize  SortField = "fileSize"
)

// ParseSortField accepts camelCase and snake_case names. Unknown names sort by name.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "createdat":
		return SortByCreatedAt
	case "updatedat":
		return SortByUpdatedAt
	case "filesize":
		return SortByFileSize
	default:
		return SortByName
	}
}

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder returns SortDesc for "desc" and SortAsc for anything else.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return SortDesc
	}
	return SortAsc
}

const bytesPerMB = 1024 * 1024

// DateRange bounds createdAt inclusively. Either side may be open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// SizeRange bounds the file size in megabytes inclusively. Either side may be open.
type SizeRange struct {
	MinMB *float64 `json:"minMB,omitempty"`
	MaxMB *float64 `json:"maxMB,omitempty"`
}

// SearchCriteria combines the predicates of a search. Unset predicates match everything.
type SearchCriteria struct {
	Query      string    `json:"query"`
	CategoryID *uint64   `json:"categoryId,omitempty"`
	TagIDs     []uint64  `json:"tagIds,omitempty"`
	DateRange  DateRange `json:"dateRange"`
	FileSize   SizeRange `json:"fileSize"`
	SortBy     SortField `json:"sortBy"`
	SortOrder  SortOrder `json:"sortOrder"`
}

// DefaultCriteria matches everything, sorted by name ascending.
func DefaultCriteria() SearchCriteria {
	return SearchCriteria{SortBy: SortByName, SortOrder: SortAsc}
}

// Equal reports whether c and o select and order models identically.
func (c SearchCriteria) Equal(o SearchCriteria) bool {
	return strings.TrimSpace(c.Query) == strings.TrimSpace(o.Query) &&
		equalPtr(c.CategoryID, o.CategoryID) &&
		slices.Equal(c.TagIDs, o.TagIDs) &&
		equalTime(c.DateRange.From, o.DateRange.From) &&
		equalTime(c.DateRange.To, o.DateRange.To) &&
		equalPtr(c.FileSize.MinMB, o.FileSize.MinMB) &&
		equalPtr(c.FileSize.MaxMB, o.FileSize.MaxMB) &&
		ParseSortField(string(c.SortBy)) == ParseSortField(string(o.SortBy)) &&
		ParseSortOrder(string(c.SortOrder)) == ParseSortOrder(string(o.SortOrder))
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ParseSizeBound parses a megabyte bound typed by a user. Blank or malformed
// input yields nil so the bound is ignored.
func ParseSizeBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ParseDateBound parses a date or timestamp. A bare date used as an upper bound
// covers the whole day. Blank or malformed input yields nil.
func ParseDateBound(s string, upper bool) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" && upper {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t
	}
	return nil
}

// Search filters snapshot by c and returns the survivors in a new, stably sorted
// slice. snapshot is not modified.
func Search(snapshot []Model, c SearchCriteria) []Model {
	query := strings.ToLower(strings.TrimSpace(c.Query))

	var tagSet map[uint64]struct{}
	if len(c.TagIDs) > 0 {
		tagSet = make(map[uint64]struct{}, len(c.TagIDs))
		for _, id := range c.TagIDs {
			tagSet[id] = struct{}{}
		}
	}

	var minBytes, maxBytes float64 = 0, math.Inf(1)
	if c.FileSize.MinMB != nil {
		minBytes = *c.FileSize.MinMB * bytesPerMB
	}
	if c.FileSize.MaxMB != nil {
		maxBytes = *c.FileSize.MaxMB * bytesPerMB
	}

	out := make([]Model, 0, len(snapshot))
	for _, m := range snapshot {
		if query != "" && !matchesQuery(m, query) {
			continue
		}
		if c.CategoryID != nil && (m.CategoryID == nil || *m.CategoryID != *c.CategoryID) {
			continue
		}
		if tagSet != nil && !m.HasAnyTag(tagSet) {
			continue
		}
		if c.DateRange.From != nil && m.CreatedAt.Before(*c.DateRange.From) {
			continue
		}
		if c.DateRange.To != nil && m.CreatedAt.After(*c.DateRange.To) {
			continue
		}
		if size := float64(m.FileSize); size < minBytes || size > maxBytes {
			continue
		}
		out = append(out, m)
	}

	compare := comparator(ParseSortField(string(c.SortBy)))
	if ParseSortOrder(string(c.SortOrder)) == SortDesc {
		asc := compare
		compare = func(a, b Model) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func matchesQuery(m Model, query string) bool {
	return strings.Contains(strings.ToLower(m.Name), query) ||
		strings.Contains(strings.ToLower(m.Description), query) ||
		strings.Contains(strings.ToLower(m.Metadata["author"]), query) ||
		strings.Contains(strings.ToLower(m.Metadata["notes"]), query)
}

func comparator(field SortField) func(a, b Model) int {
	switch field {
	case SortByCreatedAt:
		return func(a, b Model) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByUpdatedAt:
		return func(a, b Model) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortByFileSize:
		return func(a, b Model) int { return cmp.Compare(a.FileSize, b.FileSize) }
	default:
		return func(a, b Model) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	}
}

// SearchSession keeps the current model snapshot, the active criteria and the
// search mode toggle for the UI. Results are recomputed only when the criteria
// or the snapshot change.
type SearchSession struct {
	mu         sync.Mutex
	snapshot   []Model
	generation uint64
	criteria   SearchCriteria
	active     bool

	cached     []Model
	cachedGen  uint64
	cachedCrit SearchCriteria
	hasCache   bool
	runs       int
}

// NewSearchSession returns an inactive session with default criteria.
func NewSearchSession() *SearchSession {
	return &SearchSession{criteria: DefaultCriteria()}
}

// SetSnapshot replaces the model collection searched by the session. An
// identical collection keeps the cached view.
func (s *SearchSession) SetSnapshot(models []Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation > 0 && slices.EqualFunc(s.snapshot, models, sameModel) {
		return
	}
	s.snapshot = slices.Clone(models)
	s.generation++
}

func sameModel(a, b Model) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.FilePath == b.FilePath &&
		a.ThumbnailPath == b.ThumbnailPath &&
		a.FileSize == b.FileSize &&
		equalPtr(a.CategoryID, b.CategoryID) &&
		equalPtr(a.Category, b.Category) &&
		slices.Equal(a.Tags, b.Tags) &&
		maps.Equal(a.Metadata, b.Metadata) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

// SetCriteria updates the criteria and turns search mode on.
func (s *SearchSession) SetCriteria(c SearchCriteria) []Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c
	s.active = true
	return s.resultsLocked()
}

// Clear resets the criteria and leaves search mode.
func (s *SearchSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = DefaultCriteria()
	s.active = false
}

// Active reports whether search mode is on.
func (s *SearchSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Criteria returns the current criteria.
func (s *SearchSession) Criteria() SearchCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Results returns the search view in search mode, otherwise the whole snapshot.
func (s *SearchSession) Results() []Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return slices.Clone(s.snapshot)
	}
	return s.resultsLocked()
}

func (s *SearchSession) resultsLocked() []Model {
	if !s.hasCache || s.cachedGen != s.generation || !s.cachedCrit.Equal(s.criteria) {
		s.cached = Search(s.snapshot, s.criteria)
		s.cachedGen = s.generation
		s.cachedCrit = s.criteria
		s.hasCache = true
		s.runs++
	}
	return slices.Clone(s.cached)
}
