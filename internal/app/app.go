// app.go
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

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/localnerve/p3dv-catalog/internal/database"
	"github.com/localnerve/p3dv-catalog/internal/license"
	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/storage"
)

// App holds the wired catalogue components shared by the host channel and the CLI.
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Files   *storage.Manager
	Store   *services.CatalogStore
	Library *services.Library
	Bulk    *services.BulkExecutor
	Search  *services.SearchSession
	License *license.Manager
}

// New connects the record store, migrates and seeds it, opens the managed
// assets root and restores any persisted activation.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.Seed(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	a, err := Wire(ctx, cfg, db, afero.NewOsFs(), license.NewFingerprinter(license.SystemHost{}))
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return a, nil
}

// Wire builds the components over an open database, a file system and a
// fingerprint source.
func Wire(ctx context.Context, cfg *config.Config, db *gorm.DB, fsys afero.Fs, fingerprints license.FingerprintProvider) (*App, error) {
	files, err := storage.NewManager(fsys, cfg.AssetsDir, cfg.MaxUploadMB, logger.WithComponent("storage"))
	if err != nil {
		return nil, err
	}

	signer, err := license.NewSigner(cfg.LicenseSecret, cfg.ProductCode)
	if err != nil {
		return nil, err
	}

	store := services.NewCatalogStore(db)
	a := &App{
		Config:  cfg,
		DB:      db,
		Files:   files,
		Store:   store,
		Library: services.NewLibrary(store, files, logger.WithComponent("library")),
		Bulk: services.NewBulkExecutor(services.BulkOptions{
			Store:      store,
			Files:      files,
			ExportFS:   fsys,
			ExportDir:  cfg.ExportDir,
			AppVersion: cfg.AppVersion,
			Logger:     logger.WithComponent("bulk"),
		}),
		Search: services.NewSearchSession(),
		License: license.NewManager(license.Options{
			Product:      cfg.ProductCode,
			Version:      cfg.AppVersion,
			Fingerprints: fingerprints,
			Signer:       signer,
			Store:        license.NewFileStore(fsys, cfg.LicenseFile),
			Logger:       logger.WithComponent("license"),
		}),
	}

	if a.License.LoadPersisted(ctx) {
		logger.WithComponent("license").Info("restored activation")
	}
	return a, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return errors.New("app not initialized")
	}
	return database.Close(a.DB)
}
