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
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/localnerve/p3dv-catalog/internal/testutil"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var writeEnv string
	flag.StringVar(&writeEnv, "o", "", "write the database settings to this .env file")
	flag.Parse()

	usage := `
Run a disposable Postgres for the catalogue with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-o OUTPUT_ENV_PATH]

ENV_FILE_PATH: path to the .env file
OUTPUT_ENV_PATH: where to write DB_* settings for P3DV_ENV_FILE

example
  testcontainers -f /path/to/something/.env -o ./dev.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	pg, err := testutil.StartPostgres(ctx)
	if err != nil {
		log.Fatalf("Failed to create test container: %v\n", err)
	}

	env := pg.Env()
	if writeEnv != "" {
		if err := godotenv.Write(env, writeEnv); err != nil {
			log.Printf("Failed to write %s: %v\n", writeEnv, err)
		}
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, env[k])
	}
	fmt.Print(b.String())

	<-ctx.Done()
	log.Printf("\nReceived signal, terminating test container...\n")

	shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pg.Terminate(shutdown); err != nil {
		log.Printf("Failed to terminate container: %v\n", err)
		os.Exit(1)
	}
}
