// library_test.go
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
	"strings"
	"testing"

	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_AddModelStagesBinary(t *testing.T) {
	env := newTestEnv(t)
	cat := env.category(t, "Characters")

	m := env.addModel(t, "Knight", &cat)

	assert.Equal(t, env.files.ResolveAssetPath(m.ID), m.FilePath)
	assert.Equal(t, int64(len("glb:Knight")), m.FileSize)
	assert.Equal(t, "tester", m.Metadata["author"])
	require.NotNil(t, m.Category)
	assert.Equal(t, "Characters", m.Category.Name)

	data, err := env.files.Serve(m.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "glb:Knight", string(data))
}

func TestLibrary_AddModelRejectsBeforeInsert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(env.fs, "/incoming/model.fbx", []byte("x"), 0o644))

	_, err := env.lib.AddModel(ctx, AddModelInput{Name: "fbx", SourcePath: "/incoming/model.fbx"})
	assert.ErrorIs(t, err, types.ErrUnsupportedFile)

	_, err = env.lib.AddModel(ctx, AddModelInput{Name: "  ", SourcePath: "/incoming/model.glb"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	models, err := env.store.ListModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestLibrary_AddModelStagingFailureRemovesRecord(t *testing.T) {
	fsys := afero.NewMemMapFs()
	env := newTestEnvFs(t, &failingFs{Fs: fsys, prefix: ".stage-"}, fsys)
	ctx := context.Background()
	require.NoError(t, afero.WriteFile(fsys, "/incoming/a.glb", []byte("a"), 0o644))

	_, err := env.lib.AddModel(ctx, AddModelInput{Name: "a", SourcePath: "/incoming/a.glb"})
	assert.ErrorIs(t, err, types.ErrCopyFailed)

	models, err := env.store.ListModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, models, "no record may point at a missing binary")
}

func TestLibrary_UpdateModel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.addModel(t, "before", nil)

	got, err := env.lib.UpdateModel(ctx, m.ID, ModelFields{Name: ptr("  after "), Description: ptr("desc")})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name)
	assert.Equal(t, "desc", got.Description)

	_, err = env.lib.UpdateModel(ctx, m.ID, ModelFields{Name: ptr("")})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestLibrary_DeleteModel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.addModel(t, "gone", nil)

	_, err := env.lib.SetThumbnail(ctx, m.ID, strings.NewReader("png"))
	require.NoError(t, err)

	require.NoError(t, env.lib.DeleteModel(ctx, m.ID))
	assert.False(t, env.exists(t, m.FilePath))
	assert.False(t, env.exists(t, env.files.ResolveThumbnailPath(m.ID)))
	assert.ErrorIs(t, env.lib.DeleteModel(ctx, m.ID), types.ErrNotFound)
}

func TestLibrary_SetThumbnail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := env.addModel(t, "thumbed", nil)

	got, err := env.lib.SetThumbnail(ctx, m.ID, strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, env.files.ResolveThumbnailPath(m.ID), got.ThumbnailPath)

	_, err = env.lib.SetThumbnail(ctx, 999, strings.NewReader("x"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLibrary_RecentModels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addModel(t, "a", nil)
	env.addModel(t, "b", nil)

	_, err := env.lib.UpdateModel(ctx, a.ID, ModelFields{Description: ptr("touched")})
	require.NoError(t, err)

	recent, err := env.lib.RecentModels(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, a.ID, recent[0].ID)
}
