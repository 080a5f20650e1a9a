// containers.go
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

package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/p3dv-catalog/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "p3dv"
	postgresPassword = "p3dv-dev"
	postgresDatabase = "catalog"
)

// PostgresContainer is a throwaway Postgres server for integration tests and local development.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// StartPostgres starts a Postgres container and waits until it accepts connections.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	tcpPort, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to create DB port: %w", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{string(tcpPort)},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDatabase,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(tcpPort),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to resolve postgres host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to resolve postgres port: %w", err)
	}

	return &PostgresContainer{Container: container, Host: host, Port: mapped.Port()}, nil
}

// Apply points cfg at the container.
func (p *PostgresContainer) Apply(cfg *config.Config) {
	cfg.DBType = "postgres"
	cfg.DBHost = p.Host
	cfg.DBPort = p.Port
	cfg.DBUser = postgresUser
	cfg.DBPassword = postgresPassword
	cfg.DBDatabase = postgresDatabase
}

// Env returns the environment needed to run the server against the container.
func (p *PostgresContainer) Env() map[string]string {
	return map[string]string{
		"DB_TYPE":     "postgres",
		"DB_HOST":     p.Host,
		"DB_PORT":     p.Port,
		"DB_USER":     postgresUser,
		"DB_PASSWORD": postgresPassword,
		"DB_DATABASE": postgresDatabase,
	}
}

// Terminate stops and removes the container.
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	if p == nil || p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}
