package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/flagx"
)

var allowedFlags = []string{
	"-a", "-d", "-s", "-t", "-r", "-w",
	"-u", "-p", "-g", "-e", "-o",
	"-m", "-n", "-f", "-smtp-user", "-smtp-password",
	"-l", "-b",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-w int      password reset token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-o string   public base URL for stored objects
//	-m string   SMTP host (empty disables mailing)
//	-n int      SMTP port
//	-f string   sender address for outgoing mail
//	-smtp-user, -smtp-password   SMTP credentials
//	-l float    auth rate limit, requests per second per peer
//	-b int      auth rate limit burst
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], allowedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	passwordResetValidityDuration := fs.Int("w", int(config.PasswordResetValidityDuration.Minutes()), "password_reset_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicBaseURL, "o", config.S3PublicBaseURL, "public base URL of stored objects")

	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "n", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPFrom, "f", config.SMTPFrom, "mail sender address")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")

	fs.Float64Var(&config.AuthRateLimitRPS, "l", config.AuthRateLimitRPS, "auth requests per second per peer")
	fs.IntVar(&config.AuthRateLimitBurst, "b", config.AuthRateLimitBurst, "auth request burst per peer")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.PasswordResetValidityDuration = time.Duration(*passwordResetValidityDuration) * time.Minute
}
