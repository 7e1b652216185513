package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   REST bind address (e.g., ":8080")
//	-d string   database DSN (postgres://... or a sqlite file path)
//	-t int      sync code validity, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	syncCodeTTL := fs.Int("t", int(config.SyncCodeTTL.Minutes()), "sync code validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SyncCodeTTL = time.Duration(*syncCodeTTL) * time.Minute
}
