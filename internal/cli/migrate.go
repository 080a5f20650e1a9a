// migrate.go
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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localnerve/p3dv-catalog/internal/database"
	"github.com/localnerve/p3dv-catalog/internal/logger"
)

var skipSeed bool

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalogue schema",
		Long:  `Apply the catalogue schema to the configured database and seed the default categories and tags on an empty catalogue.`,
		RunE:  runMigrate,
	}
	cmd.Flags().BoolVar(&skipSeed, "no-seed", false, "Do not create the default categories and tags")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := initEnv()
	if err != nil {
		return err
	}
	log := logger.WithComponent("migrate")

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Info("running migrations", "type", cfg.DBType)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if !skipSeed {
		if err := database.Seed(db); err != nil {
			return err
		}
	}
	log.Info("migrations completed successfully")
	return nil
}
