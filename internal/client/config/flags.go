package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/foodscheduler/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   server base URL (e.g. "http://127.0.0.1:8080")
//	-D string   data directory for the on-device slots
//
// The args are filtered through flagx.FilterArgs first so flags owned by
// other packages are left alone.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-D"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerBaseURL, "s", config.ServerBaseURL, "server base URL")
	fs.StringVar(&config.DataDir, "D", config.DataDir, "data directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
