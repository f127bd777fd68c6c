package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/carefollow/internal/flagx"
	"github.com/dmitrijs2005/carefollow/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "zero", so a partial file only overrides what it
// names. Durations use timex.Duration and accept "30s" or nanoseconds.
type JsonConfig struct {
	ServerBaseURL     *string         `json:"server_url"`
	DatabasePath      *string         `json:"database_path"`
	RequestTimeout    *timex.Duration `json:"request_timeout"`
	ValidateOnStartup *bool           `json:"validate_on_startup"`
	CallbackAddr      *string         `json:"callback_addr"`
	AuthProviderURL   *string         `json:"auth_provider_url"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays Config with values from the JSON file named by
// -c/--config in args. Without the flag nothing changes.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerBaseURL != nil {
		cfg.ServerBaseURL = *jc.ServerBaseURL
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ValidateOnStartup != nil {
		cfg.ValidateOnStartup = *jc.ValidateOnStartup
	}
	if jc.CallbackAddr != nil {
		cfg.CallbackAddr = *jc.CallbackAddr
	}
	if jc.AuthProviderURL != nil {
		cfg.AuthProviderURL = *jc.AuthProviderURL
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
