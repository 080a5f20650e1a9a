// root.go
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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/localnerve/p3dv-catalog/internal/app"
	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/localnerve/p3dv-catalog/internal/logger"
)

var envFile string

// NewRootCommand returns the catalog administration command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "P3DV catalogue administration",
		Long:          `Offline administration of the P3DV 3D model catalogue: migrations, license activation, model import and export.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "Path to a .env file (default: ./.env when present)")

	root.AddCommand(
		newMigrateCommand(),
		newLicenseCommand(),
		newModelsCommand(),
		newExportCommand(),
	)
	return root
}

// initEnv loads the configuration and installs the process logger.
func initEnv() (*config.Config, error) {
	if envFile != "" {
		if err := os.Setenv("P3DV_ENV_FILE", envFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// withApp runs fn against the fully wired catalogue.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := initEnv()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
