// config_test.go
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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("P3DV_DATA_DIR", dir)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("P3DV_ENV_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, filepath.Join(dir, "p3dv.db"), cfg.DBDatabase)
	assert.Equal(t, filepath.Join(dir, "library"), cfg.AssetsDir)
	assert.Equal(t, filepath.Join(dir, "exports"), cfg.ExportDir)
	assert.Equal(t, filepath.Join(dir, "license.json"), cfg.LicenseFile)
	assert.Equal(t, "P3DV", cfg.ProductCode)
	assert.Equal(t, 100, cfg.MaxUploadMB)
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())
}

func TestLoad_ServerDatabaseRequiresCredentials(t *testing.T) {
	t.Setenv("P3DV_DATA_DIR", t.TempDir())
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_DATABASE", "catalog")
	t.Setenv("DB_USER", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestLoad_PostgresDefaultPort(t *testing.T) {
	t.Setenv("P3DV_DATA_DIR", t.TempDir())
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_DATABASE", "catalog")
	t.Setenv("DB_USER", "p3dv")
	t.Setenv("DB_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5432", cfg.DBPort)
}

func TestLoad_UnsupportedDatabase(t *testing.T) {
	t.Setenv("DB_TYPE", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ExplicitEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=4555\nMAX_UPLOAD_MB=12\n"), 0o600))

	t.Setenv("P3DV_DATA_DIR", dir)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("P3DV_ENV_FILE", envFile)
	// godotenv never overrides variables that are already set
	t.Setenv("PORT", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	os.Unsetenv("PORT")
	os.Unsetenv("MAX_UPLOAD_MB")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4555", cfg.Port)
	assert.Equal(t, 12, cfg.MaxUploadMB)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	t.Setenv("P3DV_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	_, err := Load()
	require.Error(t, err)
}
