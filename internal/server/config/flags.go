package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/flagx"
)

var valueFlags = []string{"-d", "-s", "-t", "-v", "-u", "-p", "-b", "-g", "-e", "-l"}

// FlagNames lists every flag consumed by LoadConfig, -c/-config included.
func FlagNames() []string {
	return append([]string{"-c", "-config"}, valueFlags...)
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-v int      profile picture URL validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first, so command names and
// command flags elsewhere on the line are left alone.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	profileURLValidity := fs.Int("v", int(config.ProfileURLValidity.Minutes()), "profile picture URL validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations are only overridden when the flag is present
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		case "v":
			config.ProfileURLValidity = time.Duration(*profileURLValidity) * time.Minute
		}
	})
}
