// helpers_test.go
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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/storage"
	"github.com/localnerve/p3dv-catalog/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	assetsRoot = "/srv/p3dv"
	exportDir  = "/srv/exports"
)

// failingFs fails to open any file whose base name starts with prefix.
type failingFs struct {
	afero.Fs
	prefix string
}

func (f *failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.HasPrefix(filepath.Base(name), f.prefix) {
		return nil, errors.New("disk full")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

// renameFailFs fails to move the file with base name target.
type renameFailFs struct {
	afero.Fs
	target string
}

func (f *renameFailFs) Rename(oldname, newname string) error {
	if filepath.Base(oldname) == f.target {
		return errors.New("device busy")
	}
	return f.Fs.Rename(oldname, newname)
}

type testEnv struct {
	store *CatalogStore
	fs    afero.Fs
	files *storage.Manager
	lib   *Library
	bulk  *BulkExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvFs(t, afero.NewMemMapFs(), nil)
}

func newTestEnvFs(t *testing.T, fsys afero.Fs, exportFS afero.Fs) *testEnv {
	t.Helper()
	if exportFS == nil {
		exportFS = fsys
	}

	files, err := storage.NewManager(fsys, assetsRoot, 1, logger.Discard())
	require.NoError(t, err)

	store := NewCatalogStore(testutil.NewTestDB(t))
	return &testEnv{
		store: store,
		fs:    fsys,
		files: files,
		lib:   NewLibrary(store, files, logger.Discard()),
		bulk: NewBulkExecutor(BulkOptions{
			Store:      store,
			Files:      files,
			ExportFS:   exportFS,
			ExportDir:  exportDir,
			AppVersion: "1.0.0",
			Clock:      func() time.Time { return time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC) },
			Logger:     logger.Discard(),
		}),
	}
}

func (e *testEnv) category(t *testing.T, name string) uint64 {
	t.Helper()
	c, err := e.store.InsertCategory(context.Background(), name, "#112233")
	require.NoError(t, err)
	return c.ID
}

func (e *testEnv) tag(t *testing.T, name string) uint64 {
	t.Helper()
	tg, err := e.store.InsertTag(context.Background(), name, "#445566")
	require.NoError(t, err)
	return tg.ID
}

func (e *testEnv) addModel(t *testing.T, name string, categoryID *uint64, tagIDs ...uint64) Model {
	t.Helper()
	src := filepath.Join("/incoming", strings.ReplaceAll(name, " ", "_")+".glb")
	require.NoError(t, afero.WriteFile(e.fs, src, []byte("glb:"+name), 0o644))

	m, err := e.lib.AddModel(context.Background(), AddModelInput{
		Name:       name,
		SourcePath: src,
		CategoryID: categoryID,
		TagIDs:     tagIDs,
		Metadata:   map[string]string{"author": "tester"},
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(e.fs, path)
	require.NoError(t, err)
	return ok
}

func tagNames(m Model) []string {
	out := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		out = append(out, t.Name)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
