// cli_test.go
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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/p3dv-catalog/internal/license"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func isolatedEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("P3DV_DATA_DIR", dir)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_DATABASE", "")
	t.Setenv("P3DV_ENV_FILE", "")
	t.Setenv("LOG_OUTPUT", "stderr")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", " 1 ", "3"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1, 3}, ids)

	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"x"})
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "robot", baseName("/home/me/models/robot.glb"))
	assert.Equal(t, "scene.v2", baseName("scene.v2.gltf"))
}

func TestSampleKeyCommand(t *testing.T) {
	isolatedEnv(t)

	out, err := execute(t, "license", "sample-key")
	require.NoError(t, err)
	assert.Regexp(t, license.KeyPattern("P3DV"), strings.TrimSpace(out))
}

func TestMigrateCommand(t *testing.T) {
	dir := isolatedEnv(t)

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "p3dv.db"))
	assert.NoError(t, err)
}

func TestLicenseStatusWithoutActivation(t *testing.T) {
	isolatedEnv(t)

	out, err := execute(t, "license", "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"activated": false`)
}

func TestExportRejectsBadIDs(t *testing.T) {
	isolatedEnv(t)

	_, err := execute(t, "export", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model id")
}
