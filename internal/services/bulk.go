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

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localnerve/p3dv-catalog/internal/metrics"
	"github.com/localnerve/p3dv-catalog/internal/storage"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/localnerve/p3dv-catalog/internal/utils"
	"github.com/spf13/afero"
)

// DeleteResult reports a bulk delete. Missing records count as neither deleted nor failed.
type DeleteResult struct {
	Attempted int `json:"attempted"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

// UpdateResult reports a bulk move or tag change.
type UpdateResult struct {
	Attempted int `json:"attempted"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// BulkOptions wires a BulkExecutor.
type BulkOptions struct {
	Store      *CatalogStore
	Files      *storage.Manager
	ExportFS   afero.Fs
	ExportDir  string
	AppVersion string
	Clock      func() time.Time
	Logger     *slog.Logger
}

// BulkExecutor applies one operation to a selection of models. Records are
// processed one at a time and a failure on one record never stops the batch.
type BulkExecutor struct {
	store     *CatalogStore
	files     *storage.Manager
	exportFS  afero.Fs
	exportDir string
	version   string
	now       func() time.Time
	log       *slog.Logger
}

// NewBulkExecutor creates an executor.
func NewBulkExecutor(opts BulkOptions) *BulkExecutor {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &BulkExecutor{
		store:     opts.Store,
		files:     opts.Files,
		exportFS:  opts.ExportFS,
		exportDir: opts.ExportDir,
		version:   opts.AppVersion,
		now:       now,
		log:       log,
	}
}

// selection deduplicates ids, keeping first occurrences, and rejects an empty selection.
func selection(ids []uint64) ([]uint64, error) {
	set := utils.NewIDSet(ids...)
	if set.IsEmpty() {
		return nil, types.ErrEmptySelection
	}
	return set.ToSlice(), nil
}

func recordOutcome(op string, err error) {
	switch {
	case err == nil:
		metrics.BulkOperations.WithLabelValues(op, metrics.OutcomeOK).Inc()
	case types.KindOf(err) == types.KindValidation:
		metrics.BulkOperations.WithLabelValues(op, metrics.OutcomeRejected).Inc()
	default:
		metrics.BulkOperations.WithLabelValues(op, metrics.OutcomeFailed).Inc()
	}
}

func recordItems(op string, ok, failed, skipped int) {
	metrics.BulkItems.WithLabelValues(op, "ok").Add(float64(ok))
	metrics.BulkItems.WithLabelValues(op, "failed").Add(float64(failed))
	metrics.BulkItems.WithLabelValues(op, "skipped").Add(float64(skipped))
}

// Delete removes each selected model with its staged binary and thumbnail.
func (b *BulkExecutor) Delete(ctx context.Context, ids []uint64) (result DeleteResult, err error) {
	defer func() { recordOutcome("delete", err) }()

	sel, err := selection(ids)
	if err != nil {
		return result, err
	}
	result.Attempted = len(sel)

	skipped := 0
	for _, id := range sel {
		m, err := b.store.GetModel(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			skipped++
			continue
		}
		if err == nil {
			err = deleteModelFiles(ctx, b.store, b.files, m, b.log)
		}
		switch {
		case err == nil:
			result.Deleted++
		case errors.Is(err, types.ErrNotFound):
			skipped++
		default:
			result.Failed++
			b.log.Warn("bulk delete failed", "id", id, "error", err)
		}
	}

	recordItems("delete", result.Deleted, result.Failed, skipped)
	b.log.Info("bulk delete finished", "attempted", result.Attempted, "deleted", result.Deleted, "failed", result.Failed)
	return result, nil
}

// Move puts each selected model in categoryID, or leaves them uncategorized when nil.
func (b *BulkExecutor) Move(ctx context.Context, ids []uint64, categoryID *uint64) (result UpdateResult, err error) {
	defer func() { recordOutcome("move", err) }()

	sel, err := selection(ids)
	if err != nil {
		return result, err
	}
	if categoryID != nil {
		ok, err := b.store.CategoryExists(ctx, *categoryID)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, types.Wrapf(types.ErrCategoryNotFound, "%d", *categoryID)
		}
	}
	result.Attempted = len(sel)

	skipped := 0
	for _, id := range sel {
		err := b.store.SetModelCategory(ctx, id, categoryID)
		switch {
		case err == nil:
			result.Updated++
		case errors.Is(err, types.ErrNotFound):
			skipped++
		default:
			result.Failed++
			b.log.Warn("bulk move failed", "id", id, "error", err)
		}
	}

	recordItems("move", result.Updated, result.Failed, skipped)
	b.log.Info("bulk move finished", "attempted", result.Attempted, "updated", result.Updated, "failed", result.Failed)
	return result, nil
}

// Tag adds and removes tags on each selected model: the new set is (current ∪ add) \ remove.
func (b *BulkExecutor) Tag(ctx context.Context, ids, add, remove []uint64) (result UpdateResult, err error) {
	defer func() { recordOutcome("tag", err) }()

	sel, err := selection(ids)
	if err != nil {
		return result, err
	}
	addSet, removeSet := utils.NewIDSet(add...), utils.NewIDSet(remove...)
	if addSet.IsEmpty() && removeSet.IsEmpty() {
		return result, types.ErrNoTagChangeRequested
	}
	if addSet.Intersects(removeSet) {
		return result, types.ErrConflictingTagChange
	}
	missing, err := b.store.MissingTags(ctx, append(addSet.ToSlice(), removeSet.ToSlice()...))
	if err != nil {
		return result, err
	}
	if len(missing) > 0 {
		return result, types.Wrapf(types.ErrTagNotFound, "%v", missing)
	}
	result.Attempted = len(sel)

	next := func(current map[uint64]struct{}) map[uint64]struct{} {
		out := make(map[uint64]struct{}, len(current)+addSet.Len())
		for id := range current {
			out[id] = struct{}{}
		}
		for _, id := range addSet.ToSlice() {
			out[id] = struct{}{}
		}
		for _, id := range removeSet.ToSlice() {
			delete(out, id)
		}
		return out
	}

	skipped := 0
	for _, id := range sel {
		err := b.store.UpdateModelTags(ctx, id, next)
		switch {
		case err == nil:
			result.Updated++
		case errors.Is(err, types.ErrNotFound):
			skipped++
		default:
			result.Failed++
			b.log.Warn("bulk tag failed", "id", id, "error", err)
		}
	}

	recordItems("tag", result.Updated, result.Failed, skipped)
	b.log.Info("bulk tag finished", "attempted", result.Attempted, "updated", result.Updated, "failed", result.Failed)
	return result, nil
}
