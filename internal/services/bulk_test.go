// bulk_test.go
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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBulkDelete_SkipsMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addModel(t, "a", nil)
	b := env.addModel(t, "b", nil)
	thumb, err := env.files.StoreThumbnail(a.ID, strings.NewReader("png"))
	require.NoError(t, err)

	res, err := env.bulk.Delete(ctx, []uint64{a.ID, 9999, b.ID})
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Attempted: 3, Deleted: 2}, res)

	assert.False(t, env.exists(t, a.FilePath))
	assert.False(t, env.exists(t, b.FilePath))
	assert.False(t, env.exists(t, thumb))

	models, err := env.store.ListModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestBulkDelete_DeduplicatesSelection(t *testing.T) {
	env := newTestEnv(t)
	a := env.addModel(t, "a", nil)

	res, err := env.bulk.Delete(context.Background(), []uint64{a.ID, a.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Deleted)
}

func TestBulkDelete_AbsentFilesAreFine(t *testing.T) {
	env := newTestEnv(t)
	a := env.addModel(t, "a", nil)
	require.NoError(t, env.fs.Remove(a.FilePath))

	res, err := env.bulk.Delete(context.Background(), []uint64{a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
}

func TestBulkDelete_LeavesFilesOutsideRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(env.fs, "/home/user/keep.glb", []byte("mine"), 0o644))

	m, err := env.store.InsertModel(ctx, Model{Name: "legacy"})
	require.NoError(t, err)
	require.NoError(t, env.store.UpdateModelPath(ctx, m.ID, "/home/user/keep.glb", 4))

	res, err := env.bulk.Delete(ctx, []uint64{m.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.True(t, env.exists(t, "/home/user/keep.glb"))
}

func TestBulkDelete_RecordFailureDoesNotStopBatch(t *testing.T) {
	fsys := &renameFailFs{Fs: afero.NewMemMapFs()}
	env := newTestEnvFs(t, fsys, nil)
	ctx := context.Background()

	a := env.addModel(t, "a", nil)
	b := env.addModel(t, "b", nil)
	c := env.addModel(t, "c", nil)
	fsys.target = filepath.Base(b.FilePath)

	res, err := env.bulk.Delete(ctx, []uint64{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Attempted: 3, Deleted: 2, Failed: 1}, res)

	assert.False(t, env.exists(t, a.FilePath))
	assert.False(t, env.exists(t, c.FilePath))
	assert.True(t, env.exists(t, b.FilePath))

	left, err := env.store.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, b.ID, left[0].ID)
}

func TestBulkDelete_StoreFailureRestoresFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.addModel(t, "a", nil)
	thumb, err := env.files.StoreThumbnail(a.ID, strings.NewReader("png"))
	require.NoError(t, err)

	require.NoError(t, env.store.db.Callback().Delete().Before("gorm:delete").Register("test:fail_models", func(tx *gorm.DB) {
		if tx.Statement.Table == "models" {
			_ = tx.AddError(errors.New("database is locked"))
		}
	}))

	res, err := env.bulk.Delete(ctx, []uint64{a.ID})
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Attempted: 1, Failed: 1}, res)

	assert.True(t, env.exists(t, a.FilePath))
	assert.True(t, env.exists(t, thumb))
	got, err := afero.ReadFile(env.fs, a.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "glb:a", string(got))

	_, err = env.store.GetModel(ctx, a.ID)
	assert.NoError(t, err)
}

func TestBulk_EmptySelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.bulk.Delete(ctx, nil)
	assert.ErrorIs(t, err, types.ErrEmptySelection)
	_, err = env.bulk.Move(ctx, []uint64{}, nil)
	assert.ErrorIs(t, err, types.ErrEmptySelection)
	_, err = env.bulk.Tag(ctx, nil, []uint64{1}, nil)
	assert.ErrorIs(t, err, types.ErrEmptySelection)
	_, err = env.bulk.Export(ctx, nil, "collection")
	assert.ErrorIs(t, err, types.ErrEmptySelection)
	assert.Equal(t, types.KindValidation, types.KindOf(err))
}

func TestBulkMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	from := env.category(t, "From")
	to := env.category(t, "To")

	a := env.addModel(t, "a", &from)
	b := env.addModel(t, "b", nil)

	res, err := env.bulk.Move(ctx, []uint64{a.ID, b.ID, 4040}, &to)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Attempted: 3, Updated: 2}, res)

	for _, id := range []uint64{a.ID, b.ID} {
		m, err := env.store.GetModel(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, m.CategoryID)
		assert.Equal(t, to, *m.CategoryID)
	}

	got, err := env.store.GetModel(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(a.UpdatedAt))

	res, err = env.bulk.Move(ctx, []uint64{a.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	got, err = env.store.GetModel(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestBulkMove_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	a := env.addModel(t, "a", nil)

	_, err := env.bulk.Move(context.Background(), []uint64{a.ID}, ptr(uint64(31337)))
	assert.ErrorIs(t, err, types.ErrCategoryNotFound)
}

func TestBulkTag_AddAndRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t1 := env.tag(t, "T1")
	t2 := env.tag(t, "T2")
	t3 := env.tag(t, "T3")

	m := env.addModel(t, "m", nil, t2, t3)

	res, err := env.bulk.Tag(ctx, []uint64{m.ID, 777}, []uint64{t1}, []uint64{t2})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Attempted: 2, Updated: 1}, res)

	got, err := env.store.GetModel(ctx, m.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{t1, t3}, got.TagIDs())
}

func TestBulkTag_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t1 := env.tag(t, "T1")
	m := env.addModel(t, "m", nil)

	_, err := env.bulk.Tag(ctx, []uint64{m.ID}, nil, nil)
	assert.ErrorIs(t, err, types.ErrNoTagChangeRequested)

	_, err = env.bulk.Tag(ctx, []uint64{m.ID}, []uint64{t1}, []uint64{t1})
	assert.ErrorIs(t, err, types.ErrConflictingTagChange)

	_, err = env.bulk.Tag(ctx, []uint64{m.ID}, []uint64{t1, 555}, nil)
	assert.ErrorIs(t, err, types.ErrTagNotFound)

	got, err := env.store.GetModel(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestBulkExport_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	a := env.addModel(t, "a", nil)

	_, err := env.bulk.Export(context.Background(), []uint64{a.ID}, "tarball")
	assert.ErrorIs(t, err, types.ErrUnsupportedExportFormat)
}

func readManifest(t *testing.T, fsys afero.Fs, path string) ExportManifest {
	t.Helper()
	raw, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	var m ExportManifest
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestBulkExport_Collection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Furniture")
	tg := env.tag(t, "Modern")

	a := env.addModel(t, "chair", &cat, tg)
	b := env.addModel(t, "desk", nil)
	require.NoError(t, env.fs.Remove(b.FilePath))

	res, err := env.bulk.Export(ctx, []uint64{a.ID, b.ID, 404}, "collection")
	require.NoError(t, err)
	assert.Equal(t, ExportCollection, res.Format)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 1, res.Exported)
	assert.True(t, strings.HasPrefix(res.ExportPath, filepath.Join(exportDir, "p3dv-collection-20260504-103000-")))

	copied, err := afero.ReadFile(env.fs, filepath.Join(res.ExportPath, "models", "model_"+itoa(a.ID)+".glb"))
	require.NoError(t, err)
	assert.Equal(t, "glb:chair", string(copied))

	manifest := readManifest(t, env.fs, filepath.Join(res.ExportPath, "collection.json"))
	assert.Equal(t, ExportCollection, manifest.Format)
	assert.Equal(t, "1.0.0", manifest.Version)
	assert.Equal(t, res.ExportID, manifest.ExportID)
	require.Len(t, manifest.Models, 2)
	assert.Equal(t, "chair", manifest.Models[0].Name)
	assert.Equal(t, "Furniture", manifest.Models[0].Category)
	assert.Equal(t, []string{"Modern"}, manifest.Models[0].Tags)
	assert.Equal(t, "models/model_"+itoa(a.ID)+".glb", manifest.Models[0].File)
	assert.Empty(t, manifest.Models[1].File)
}

func TestBulkExport_Metadata(t *testing.T) {
	env := newTestEnv(t)
	a := env.addModel(t, "a", nil)

	res, err := env.bulk.Export(context.Background(), []uint64{a.ID}, "metadata")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.ExportPath, ".json"))

	manifest := readManifest(t, env.fs, res.ExportPath)
	require.Len(t, manifest.Models, 1)
	assert.Equal(t, a.ID, manifest.Models[0].ID)
	assert.Empty(t, manifest.Models[0].File)

	entries, err := afero.ReadDir(env.fs, exportDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no binaries are copied")
}

func TestBulkExport_Archive(t *testing.T) {
	env := newTestEnv(t)
	a := env.addModel(t, "a", nil)
	b := env.addModel(t, "b", nil)

	res, err := env.bulk.Export(context.Background(), []uint64{a.ID, b.ID}, "archive")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Exported)
	assert.True(t, strings.HasSuffix(res.ExportPath, ".zip"))

	raw, err := afero.ReadFile(env.fs, res.ExportPath)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"models/model_" + itoa(a.ID) + ".glb",
		"models/model_" + itoa(b.ID) + ".glb",
	}, names)
}

func TestBulkExport_ManifestFailureRemovesBundle(t *testing.T) {
	fsys := afero.NewMemMapFs()
	env := newTestEnvFs(t, fsys, &failingFs{Fs: fsys, prefix: ".export-"})
	a := env.addModel(t, "a", nil)

	_, err := env.bulk.Export(context.Background(), []uint64{a.ID}, "collection")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrExportFailed)

	entries, err := afero.ReadDir(fsys, exportDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func itoa(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
