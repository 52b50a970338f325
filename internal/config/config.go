// Package config reads the demo tooling's environment configuration.
package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	baseURLVar         = "AUTHDEMO_BASE_URL"
	appIDVar           = "AUTHDEMO_APP_ID"
	usernameVar        = "AUTHDEMO_USERNAME"
	passwordVar        = "AUTHDEMO_PASSWORD"
	storagePathVar     = "AUTHDEMO_STORAGE_PATH"
	storagePassVar     = "AUTHDEMO_STORAGE_PASSPHRASE"
	refreshIntervalVar = "AUTHDEMO_REFRESH_INTERVAL"
)

type Config interface {
	GetBaseURL() string
	GetAppID() string
	GetUsername() string
	GetPassword() string
	GetStoragePath() string
	GetStoragePassphrase() string
	GetRefreshInterval() time.Duration
}

type EnvVars struct{}

var _ Config = EnvVars{}

func New() Config {
	return EnvVars{}
}

func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "")
}

func (EnvVars) GetAppID() string {
	return GetEnv(appIDVar, "")
}

func (EnvVars) GetUsername() string {
	return GetEnv(usernameVar, "")
}

func (EnvVars) GetPassword() string {
	return GetEnv(passwordVar, "")
}

func (EnvVars) GetStoragePath() string {
	if path := GetEnv(storagePathVar, ""); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "authdemo-state.json"
	}
	return filepath.Join(home, ".authdemo", "state.json")
}

// GetStoragePassphrase returns the passphrase for at-rest token encryption;
// empty means tokens are stored unencrypted.
func (EnvVars) GetStoragePassphrase() string {
	return GetEnv(storagePassVar, "")
}

func (EnvVars) GetRefreshInterval() time.Duration {
	interval, err := time.ParseDuration(GetEnv(refreshIntervalVar, "5m"))
	if err != nil {
		return 5 * time.Minute
	}
	return interval
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
