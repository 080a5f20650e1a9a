//go:build integration

// postgres_integration_test.go
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

package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/localnerve/p3dv-catalog/internal/database"
	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/testutil"
	"github.com/localnerve/p3dv-catalog/internal/types"
)

func TestPostgresCatalogStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testutil.StartPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	cfg := &config.Config{DBLogLevel: "silent", DBConnectionLimit: 4}
	pg.Apply(cfg)

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.Seed(db))

	store := services.NewCatalogStore(db)
	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	tags, err := store.ListTags(ctx)
	require.NoError(t, err)

	m, err := store.InsertModel(ctx, services.Model{
		Name:       "Tower",
		CategoryID: &cats[0].ID,
		Tags:       []services.TagRef{{ID: tags[0].ID}, {ID: tags[1].ID}},
		Metadata:   map[string]string{"author": "ci"},
	})
	require.NoError(t, err)

	got, err := store.GetModel(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)
	assert.Equal(t, "ci", got.Metadata["author"])

	_, err = store.InsertCategory(ctx, cats[0].Name, "#000000")
	assert.ErrorIs(t, err, types.ErrDuplicateName)

	require.NoError(t, store.DeleteCategory(ctx, cats[0].ID))
	got, err = store.GetModel(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}
