package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/flagx"
	"github.com/dmitrijs2005/homeshare/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations use
// timex.Duration, so both "15m" and integer nanoseconds are accepted.
// Zero values leave the corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrGRPC              string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                   string         `json:"database_dsn"`
	SecretKey                     string         `json:"secret_key"`
	AccessTokenValidityDuration   timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration  timex.Duration `json:"refresh_token_validity_duration"`
	PasswordResetValidityDuration timex.Duration `json:"password_reset_validity_duration"`
	S3RootUser                    string         `json:"s3_root_user"`
	S3RootPassword                string         `json:"s3_root_password"`
	S3Region                      string         `json:"s3_region"`
	S3BaseEndpoint                string         `json:"s3_base_endpoint"`
	S3PublicBaseURL               string         `json:"s3_public_base_url"`
	SMTPHost                      string         `json:"smtp_host"`
	SMTPPort                      int            `json:"smtp_port"`
	SMTPUser                      string         `json:"smtp_user"`
	SMTPPassword                  string         `json:"smtp_password"`
	SMTPFrom                      string         `json:"smtp_from"`
	AuthRateLimitRPS              float64        `json:"auth_rate_limit_rps"`
	AuthRateLimitBurst            int            `json:"auth_rate_limit_burst"`
	MaxMessageSize                int            `json:"max_message_size"`
}

// parseJson loads configuration values from the file named by -c/-config.
// Without the flag nothing is loaded. Read or decode errors panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.PasswordResetValidityDuration, c.PasswordResetValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.AuthRateLimitRPS != 0 {
		config.AuthRateLimitRPS = c.AuthRateLimitRPS
	}
	if c.AuthRateLimitBurst != 0 {
		config.AuthRateLimitBurst = c.AuthRateLimitBurst
	}
	if c.MaxMessageSize != 0 {
		config.MaxMessageSize = c.MaxMessageSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
