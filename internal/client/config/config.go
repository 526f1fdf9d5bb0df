package config

import "time"

// Config holds runtime settings for the homeshare CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the client checks server reachability.
//   - DatabasePath: local SQLite file that keeps the persisted session.
//   - ResetRedirectURL: link target put into password-reset mails.
//   - LogFile: file for the client log; empty means stderr.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	ResetRedirectURL    string
	LogFile             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "homeshare.db"
	c.ResetRedirectURL = "http://localhost:8080/auth/reset-password"
	c.LogFile = "homeshare.log"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
