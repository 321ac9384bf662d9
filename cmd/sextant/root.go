package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sextant",
	Short: "Sextant - discovery-aware reverse proxy for pod fleets",
	Long: `Sextant is a reverse proxy that gives a fleet of backend pods a single
stable address. Clients name the pod they want in the first path segment;
Sextant discovers where that pod currently lives and relays the request.

It sits in front of the fleet, providing:
  - Path-based pod addressing (first segment names the target pod)
  - DNS enumeration and identity probing of backend candidates
  - Transparent HTTP and WebSocket relaying
  - Fleet-wide health aggregation
  - Audit records for every discovery round

For more information, visit: https://github.com/sextant-gg/sextant`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// completion.go ships its own completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// configPath resolves the --config flag. The default path is optional: when
// no file was named and none exists on disk, configuration comes from
// defaults and environment variables alone. A path the user named must
// exist; loading reports the missing file.
func configPath() string {
	if rootCmd.PersistentFlags().Changed("config") {
		return cfgFile
	}
	if _, err := os.Stat(cfgFile); err != nil {
		return ""
	}
	return cfgFile
}
