package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/homeshare/internal/flagx"
	"github.com/dmitrijs2005/homeshare/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// timex.Duration, so "3s" and integer nanoseconds both work.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
	ResetRedirectURL    string         `json:"reset_redirect_url"`
	LogFile             *string        `json:"log_file"`
}

// parseJson overlays Config with values from the file named by -c/-config.
// Absent keys keep their current values; "log_file": "" switches logging to
// stderr. Read or decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ResetRedirectURL != "" {
		cfg.ResetRedirectURL = jc.ResetRedirectURL
	}
	if jc.LogFile != nil {
		cfg.LogFile = *jc.LogFile
	}
}
