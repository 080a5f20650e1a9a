// server.go
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

package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	"github.com/localnerve/p3dv-catalog/internal/app"
	"github.com/localnerve/p3dv-catalog/internal/handlers"
	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/middleware"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

// Options tunes the fiber app for the process it runs in.
type Options struct {
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// collector registers the HTTP collectors once per process.
func collector() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("p3dv-catalog")
	})
	return prom
}

// New builds the host channel for a.
func New(a *app.App, opts Options) *fiber.App {
	f := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
		BodyLimit:             8 * 1024 * 1024,
	})

	// Global middleware
	f.Use(recover.New())
	if opts.AccessLog {
		f.Use(fiberlogger.New())
	}
	f.Use(compress.New())

	// Prometheus metrics
	p := collector()
	p.RegisterAt(f, "/metrics")
	f.Use(p.Middleware)

	// Swagger documentation
	f.Get("/swagger/*", swagger.HandlerDefault)

	// Serving bridge
	assets := &handlers.AssetHandler{Files: a.Files}
	f.Get("/assets/file/*", middleware.BridgeAuth(a.Config.BridgeToken, types.ErrAssetNotFound), assets.ServeFile)

	// API routes under /api
	api := f.Group("/api", middleware.BridgeAuth(a.Config.BridgeToken, middleware.ErrBridgeUnauthorized))
	api.Use(middleware.VersionMiddleware(a.Config.AppVersion))

	catalog := &handlers.CatalogHandler{Library: a.Library}
	api.Get("/models", catalog.ListModels)
	api.Post("/models", catalog.CreateModel)
	api.Get("/models/recent", catalog.RecentModels)
	api.Get("/models/:id", catalog.GetModel)
	api.Put("/models/:id", catalog.UpdateModel)
	api.Delete("/models/:id", catalog.DeleteModel)
	api.Post("/models/:id/thumbnail", catalog.UploadThumbnail)
	api.Get("/stats", catalog.Stats)

	api.Get("/categories", catalog.ListCategories)
	api.Post("/categories", catalog.CreateCategory)
	api.Delete("/categories/:id", catalog.DeleteCategory)
	api.Get("/tags", catalog.ListTags)
	api.Post("/tags", catalog.CreateTag)
	api.Delete("/tags/:id", catalog.DeleteTag)

	search := &handlers.SearchHandler{Store: a.Store, Session: a.Search}
	api.Post("/search", search.Search)
	api.Delete("/search", search.Clear)
	api.Put("/search/criteria", search.SetCriteria)
	api.Get("/search/results", search.Results)

	bulk := &handlers.BulkHandler{Bulk: a.Bulk}
	api.Post("/bulk/delete", bulk.Delete)
	api.Post("/bulk/move", bulk.Move)
	api.Post("/bulk/tag", bulk.Tag)
	api.Post("/bulk/export", bulk.Export)

	lic := &handlers.LicenseHandler{License: a.License}
	api.Get("/license", lic.Status)
	api.Delete("/license", lic.Deactivate)
	api.Get("/license/fingerprint", lic.Fingerprint)
	api.Get("/license/sample-key", lic.SampleKey)
	api.Post("/license/request", lic.Request)
	api.Post("/license/validate", lic.Validate)
	api.Post("/license/activate", lic.Activate)

	// 404 handler
	f.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	return f
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	var ce *types.CustomError
	var fe *fiber.Error
	if !errors.As(err, &ce) && !errors.As(err, &fe) {
		logger.WithComponent("http").Error("unhandled error", "path", c.Path(), "error", err)
	}
	return utils.ErrorFromError(c, err)
}

// Run serves f on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, f *fiber.App, addr string) error {
	log := logger.WithComponent("http")
	errCh := make(chan error, 1)
	go func() {
		log.Info("host channel listening", "addr", addr)
		errCh <- f.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("gracefully shutting down")
		if err := f.ShutdownWithTimeout(10 * time.Second); err != nil {
			return err
		}
		return <-errCh
	}
}
