package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sextant-gg/sextant/pkg/cli"
	"github.com/sextant-gg/sextant/pkg/config"
	"github.com/sextant-gg/sextant/pkg/routes"
)

var validateFlags struct {
	showResolved bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration file and any referenced route overrides.

The validate command loads the configuration exactly the way run does,
including defaults and environment variable overrides, and reports the
first problem it finds. When a route override file is configured it is
parsed as well, so a bad pin surfaces here instead of at startup.

Examples:
  # Validate the default config
  sextant validate

  # Validate a specific file
  sextant validate --config /etc/sextant/config.yaml

  # Print the fully resolved configuration
  sextant validate --show`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.showResolved, "show", false, "print the fully resolved configuration")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	path := configPath()
	if err := config.Initialize(path); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	cfg := config.GetConfig()

	if path != "" {
		fmt.Printf("Validating configuration: %s\n", path)
	} else {
		fmt.Println("Validating defaults and environment variables (no config file)")
	}
	fmt.Println("✓ Configuration OK")
	fmt.Println()

	fmt.Printf("Listen address:   %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("Backend hostname: %s\n", cfg.Discovery.BackendHostname)
	fmt.Printf("Backend port:     %d\n", cfg.Discovery.BackendPort)
	fmt.Printf("Probe timeout:    %s\n", cfg.Discovery.ProbeTimeout)
	fmt.Printf("Cache TTL:        %s\n", cfg.Discovery.CacheTTL)
	if cfg.Discovery.Nameserver != "" {
		fmt.Printf("Nameserver:       %s\n", cfg.Discovery.Nameserver)
	}
	fmt.Printf("Audit backend:    %s (enabled: %t)\n", cfg.Audit.Backend, cfg.Audit.Enabled)
	fmt.Printf("Metrics:          %t\n", cfg.Telemetry.Metrics.Enabled)

	// Parse the route override file when one is configured
	if cfg.Routes.Path != "" {
		fmt.Println()
		table := routes.NewTable(cfg.Routes.Path)
		if err := table.Load(); err != nil {
			return cli.NewCommandError("validate", fmt.Errorf("route overrides invalid: %w", err))
		}
		fmt.Printf("✓ Route overrides valid (%d pins)\n", table.Len())
		for _, podID := range table.PodIDs() {
			if addr, ok := table.Lookup(podID); ok {
				fmt.Printf("  %s -> %s\n", podID, addr)
			}
		}
	}

	if validateFlags.showResolved {
		fmt.Println()
		fmt.Println("Resolved configuration:")
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return cli.NewCommandError("validate", fmt.Errorf("failed to render config: %w", err))
		}
		fmt.Print(string(data))
	}

	return nil
}
