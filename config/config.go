// Package config loads environment-based configuration for the marketgo
// CLI commands.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	AppName     = "marketgo"
	EnvFileName = "config.env"
)

// Environment variables the commands read.
const (
	EnvBaseURL        = "MARKET_API_BASE_URL" // optional, defaults to the production backend
	EnvDBPath         = "MARKET_DB_PATH"      // optional, defaults to tokens.db
	EnvTokenKey       = "MARKET_TOKEN_KEY"    // required, passphrase for token encryption at rest
	EnvInstallationID = "MARKET_INSTALLATION_ID"
)

var requiredEnvVars = []string{EnvTokenKey}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// CheckRequiredConfig returns the names of required environment variables
// that are not set.
func CheckRequiredConfig() []string {
	var missing []string
	for _, v := range requiredEnvVars {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// BaseURL returns the configured API base URL, or "" for the default.
func BaseURL() string {
	return os.Getenv(EnvBaseURL)
}

// DBPath returns the token store path, defaulting to tokens.db.
func DBPath() string {
	if p := os.Getenv(EnvDBPath); p != "" {
		return p
	}
	return "tokens.db"
}

// TokenKey returns the token encryption passphrase.
func TokenKey() string {
	return os.Getenv(EnvTokenKey)
}

// InstallationID returns the configured installation id, or "" to generate
// one per process.
func InstallationID() string {
	return os.Getenv(EnvInstallationID)
}
