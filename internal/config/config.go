// Package config loads the handful of environment variables the server
// needs at startup: the listening port and the Postgres connection
// parameters.
package config

import (
	"os"
	"strconv"
)

// DefaultPort is used when the port6 environment variable is unset.
const DefaultPort = 8080

// Config is the server's environment-derived configuration.
type Config struct {
	Port int

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
}

// Load reads Config from the environment, applying DefaultPort when
// port6 is unset or unparsable.
func Load() Config {
	return Config{
		Port:       loadPort(),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
	}
}

func loadPort() int {
	raw := os.Getenv("port6")
	if raw == "" {
		return DefaultPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultPort
	}
	return port
}
