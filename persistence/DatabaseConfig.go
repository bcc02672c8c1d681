package persistence

import (
	"database/sql"
	"errors"
	"os"
	"strings"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv reads DATABASE_DRIVER (default mysql) and DATABASE_URL.
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := os.Getenv("DATABASE_DRIVER")
	if driverType == "" {
		driverType = "mysql"
	}
	driverArgs := os.Getenv("DATABASE_URL")
	if driverArgs == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

// PrepareMysqlDatabase creates the database of driverArgs when absent.
// driverArgs: user:pass@(host:port)/database?params
func PrepareMysqlDatabase(driverArgs string) error {
	slashIdx := strings.Index(driverArgs, "/")
	if slashIdx < 0 {
		return errors.New("invalid mysql driver args: " + driverArgs)
	}
	serverArgs := driverArgs[0:slashIdx] + "/"
	database := driverArgs[slashIdx+1:]
	if queryIdx := strings.Index(database, "?"); queryIdx >= 0 {
		database = database[0:queryIdx]
	}
	if database == "" {
		return errors.New("database name not found in driver args")
	}

	db, err := sql.Open("mysql", serverArgs)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + database + "` CHARACTER SET utf8mb4")
	return err
}
