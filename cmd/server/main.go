// main.go
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

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/localnerve/p3dv-catalog/internal/app"
	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/server"

	_ "github.com/localnerve/p3dv-catalog/docs/api" // Swagger docs
)

// @title P3DV Catalog API
// @version 1.0.0
// @description Local host channel of the P3DV 3D model catalogue
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/p3dv-catalog
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host 127.0.0.1:3000
// @BasePath /api
// @schemes http

// @securityDefinitions.apikey BridgeToken
// @in header
// @name X-Bridge-Token

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		l.Error("failed to start catalogue", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	f := server.New(a, server.Options{AccessLog: true})
	if err := server.Run(ctx, f, cfg.Addr()); err != nil {
		l.Error("server stopped with error", "error", err)
		return
	}

	l.Info("server stopped")
}
