package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Build metadata. Release builds stamp these through -ldflags; a plain
// `go build` reports the defaults.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build metadata",
	Long:  `Print the release version along with the commit, build date, and toolchain it was built with.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), versionInfo())
	},
}

// versionInfo renders the block the version command prints.
func versionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sextant %s\n", Version)
	fmt.Fprintf(&b, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(&b, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(&b, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return b.String()
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
