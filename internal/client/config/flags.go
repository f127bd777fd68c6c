package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/carefollow/internal/flagx"
)

var configFlags = []string{
	"-a", "--a", "-server", "--server",
	"-t", "--t", "-timeout", "--timeout",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a, --server string      backend base URL
//	-t, --timeout duration   default request timeout, e.g. 30s
//
// args is filtered with flagx.FilterArgs first, so subcommands and their
// flags do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, configFlags)

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "backend base URL")
	fs.StringVar(&cfg.ServerBaseURL, "server", cfg.ServerBaseURL, "backend base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "default request timeout")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "default request timeout")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
