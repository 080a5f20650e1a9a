// config.go
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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// LoggerConfig controls the slog handler built by the logger package.
type LoggerConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text, json
	OutputPath string // stdout, stderr or a file path
}

// Config holds all application configuration
type Config struct {
	// Host channel configuration (loopback only by default)
	Host        string
	Port        string
	BridgeToken string

	// Local storage layout
	DataDir     string
	AssetsDir   string
	ExportDir   string
	LicenseFile string
	MaxUploadMB int

	// Database configuration
	DBType            string // sqlite, sqlite3, mysql, mariadb, postgres, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
	DBLogLevel        string

	// License configuration
	ProductCode   string
	AppVersion    string
	LicenseSecret string

	Logger LoggerConfig
}

const defaultLicenseSecret = "P3DV_SECRET_KEY_2024"

// Load loads configuration from environment variables, after merging an optional .env file.
// P3DV_ENV_FILE names the file; without it ./.env is used when present.
func Load() (*Config, error) {
	if err := loadEnvFile(os.Getenv("P3DV_ENV_FILE")); err != nil {
		return nil, err
	}

	dataDir := getEnv("P3DV_DATA_DIR", defaultDataDir())

	cfg := &Config{
		Host:              getEnv("HOST", "127.0.0.1"),
		Port:              getEnv("PORT", "3000"),
		BridgeToken:       getEnv("BRIDGE_TOKEN", ""),
		DataDir:           dataDir,
		AssetsDir:         getEnv("ASSETS_DIR", filepath.Join(dataDir, "library")),
		ExportDir:         getEnv("EXPORT_DIR", filepath.Join(dataDir, "exports")),
		LicenseFile:       getEnv("LICENSE_FILE", filepath.Join(dataDir, "license.json")),
		MaxUploadMB:       getEnvAsInt("MAX_UPLOAD_MB", 100),
		DBType:            getEnv("DB_TYPE", "sqlite"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", ""),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		ProductCode:       getEnv("PRODUCT_CODE", "P3DV"),
		AppVersion:        getEnv("APP_VERSION", "1.0.0"),
		LicenseSecret:     getEnv("LICENSE_SECRET", defaultLicenseSecret),
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize fills driver dependent defaults and validates required fields
func (c *Config) normalize() error {
	switch c.DBType {
	case "sqlite", "sqlite3":
		if c.DBDatabase == "" {
			c.DBDatabase = filepath.Join(c.DataDir, "p3dv.db")
		}
	case "mysql", "mariadb", "postgres", "postgresql", "sqlserver", "mssql":
		if c.DBDatabase == "" {
			return fmt.Errorf("DB_DATABASE is required for DB_TYPE %s", c.DBType)
		}
		if c.DBUser == "" {
			return fmt.Errorf("DB_USER is required for DB_TYPE %s", c.DBType)
		}
		if c.DBPort == "" {
			c.DBPort = defaultPort(c.DBType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DBType)
	}

	if c.ProductCode == "" {
		return fmt.Errorf("PRODUCT_CODE is required")
	}
	if c.LicenseSecret == "" {
		return fmt.Errorf("LICENSE_SECRET is required")
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 100
	}
	return nil
}

// Addr returns the listen address of the host channel
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "p3dv")
	}
	return "data"
}

func defaultPort(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return "5432"
	case "sqlserver", "mssql":
		return "1433"
	default:
		return "3306"
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
