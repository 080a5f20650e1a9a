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
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/localnerve/p3dv-catalog/internal/database"
	"github.com/localnerve/p3dv-catalog/internal/logger"
	"github.com/localnerve/p3dv-catalog/internal/services"
	"github.com/localnerve/p3dv-catalog/internal/storage"
	"github.com/localnerve/p3dv-catalog/internal/utils"
)

func main() {
	var ping bool
	flag.BoolVar(&ping, "ping", false, "also check that the host channel is listening")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	files, err := storage.NewManager(afero.NewOsFs(), cfg.AssetsDir, cfg.MaxUploadMB, logger.Discard())
	if err != nil {
		log.Fatalf("Failed to open assets root: %v", err)
	}

	// Perform health check
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := services.HealthCheck(ctx, cfg, db, files)

	if ping {
		if err := utils.PingHost(ctx, cfg.Addr()); err != nil {
			result.Status = "unhealthy"
			result.Details["host_channel_error"] = err.Error()
		} else {
			result.Details["host_channel"] = cfg.Addr()
		}
	}

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
	os.Exit(0)
}
