package app

import (
	"strings"

	"remindbot/internal/config"
	"remindbot/internal/storage"
)

func mapStorageConfig(cfg *config.Config, d config.Durations) storage.Config {
	return storage.Config{
		Driver:      cfg.Storage.DriverName(),
		Path:        strings.TrimSpace(cfg.Storage.Path),
		BusyTimeout: d.BusyTimeout,
	}
}

// storeOwnsState reports whether profile state lives outside the config file.
func storeOwnsState(cfg *config.Config) bool {
	return cfg.Storage.DriverName() != config.DriverConfig
}
