package main

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sextant-gg/sextant/pkg/cli"
	"github.com/sextant-gg/sextant/pkg/config"
	"github.com/sextant-gg/sextant/pkg/discovery"
)

var probeFlags struct {
	timeout time.Duration
	format  string
	output  string
}

var probeCmd = &cobra.Command{
	Use:   "probe [podId]",
	Short: "Run one discovery round from the command line",
	Long: `Resolve the backend hostname and probe every candidate for its identity.

This is the same round the proxy runs for a cache miss, detached from the
request path: enumerate the addresses behind the shared hostname, ask each
one who it is, and print the answers. With a pod identifier argument the
round also reports which address, if any, claimed that identity.

Examples:
  # Probe the whole fleet
  sextant probe

  # Find where a specific pod lives
  sextant probe alpha

  # Machine-readable output
  sextant probe --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: probeFleet,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().DurationVar(&probeFlags.timeout, "timeout", 0, "per-candidate probe timeout (defaults to the config)")
	probeCmd.Flags().StringVar(&probeFlags.format, "format", "text", "render as text, json, or csv")
	probeCmd.Flags().StringVarP(&probeFlags.output, "output", "o", "", "write to this file instead of stdout")
}

// probeRow is one candidate's answer, shaped for output.
type probeRow struct {
	Address  string `json:"address"`
	PodID    string `json:"pod_id,omitempty"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
}

// probeTable renders rows in the tabular form the CSV formatter consumes.
type probeTable []probeRow

func (t probeTable) Header() []string {
	return []string{"address", "pod_id", "status", "duration"}
}

func (t probeTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, row := range t {
		rows = append(rows, []string{row.Address, row.PodID, row.Status, row.Duration})
	}
	return rows
}

func probeFleet(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(configPath()); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	cfg := config.GetConfig()

	timeout := probeFlags.timeout
	if timeout == 0 {
		timeout = cfg.Discovery.ProbeTimeout
	}

	resolver := discovery.NewResolver(cfg.Discovery.BackendHostname, cfg.Discovery.Nameserver)
	prober := discovery.NewProber(timeout, nil)

	ctx := context.Background()
	addrs, err := resolver.Resolve(ctx)
	if err != nil {
		return cli.NewCommandError("probe", fmt.Errorf("failed to resolve %s: %w", cfg.Discovery.BackendHostname, err))
	}
	if len(addrs) == 0 {
		return cli.NewCommandError("probe", fmt.Errorf("%s resolved to no addresses", cfg.Discovery.BackendHostname))
	}

	candidates := make([]netip.AddrPort, 0, len(addrs))
	for _, addr := range addrs {
		candidates = append(candidates, netip.AddrPortFrom(addr, uint16(cfg.Discovery.BackendPort)))
	}

	results := prober.ProbeAll(ctx, candidates)

	rows := make(probeTable, 0, len(results))
	for _, result := range results {
		row := probeRow{
			Address:  result.Addr.String(),
			Duration: result.Duration.Round(time.Millisecond).String(),
		}
		if result.OK() {
			row.PodID = result.PodID
			row.Status = "ok"
		} else {
			row.Status = result.Err.Error()
		}
		rows = append(rows, row)
	}

	var output *os.File
	if probeFlags.output != "" {
		output, err = os.Create(probeFlags.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	switch probeFlags.format {
	case "json":
		return outputProbeJSON(output, cfg.Discovery.BackendHostname, rows, args)
	case "csv":
		return cli.NewFormatter(cli.FormatCSV).FormatTo(output, rows)
	default:
		return outputProbeText(output, cfg.Discovery.BackendHostname, rows, args)
	}
}

func outputProbeText(output *os.File, hostname string, rows probeTable, args []string) error {
	fmt.Fprintf(output, "Probing %d candidates behind %s...\n", len(rows), hostname)
	fmt.Fprintln(output)

	tw := tabwriter.NewWriter(output, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tPOD ID\tSTATUS\tDURATION")
	for _, row := range rows {
		podID := row.PodID
		if podID == "" {
			podID = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Address, podID, row.Status, row.Duration)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	healthy := 0
	for _, row := range rows {
		if row.Status == "ok" {
			healthy++
		}
	}
	fmt.Fprintln(output)
	fmt.Fprintf(output, "%d/%d candidates answered\n", healthy, len(rows))

	if len(args) == 1 {
		fmt.Fprintln(output)
		printMatch(output, rows, args[0])
	}

	return nil
}

// printMatch reports which addresses claimed the requested identity. More
// than one match is the duplicate-identity misconfiguration the audit trail
// flags; all claimants are listed so the operator can see both pods.
func printMatch(output *os.File, rows probeTable, podID string) {
	var matches []string
	for _, row := range rows {
		if row.Status == "ok" && row.PodID == podID {
			matches = append(matches, row.Address)
		}
	}

	switch len(matches) {
	case 0:
		fmt.Fprintf(output, "✗ No candidate claimed pod %q\n", podID)
	case 1:
		fmt.Fprintf(output, "✓ Pod %q found at %s\n", podID, matches[0])
	default:
		fmt.Fprintf(output, "✓ Pod %q claimed by %d candidates: %s\n", podID, len(matches), strings.Join(matches, ", "))
		fmt.Fprintln(output, "  Multiple claimants usually mean a misconfigured fleet.")
	}
}

func outputProbeJSON(output *os.File, hostname string, rows probeTable, args []string) error {
	result := map[string]interface{}{
		"hostname":   hostname,
		"candidates": rows,
	}
	if len(args) == 1 {
		var matches []string
		for _, row := range rows {
			if row.Status == "ok" && row.PodID == args[0] {
				matches = append(matches, row.Address)
			}
		}
		result["pod_id"] = args[0]
		result["matches"] = matches
	}

	return cli.NewFormatter(cli.FormatJSON).FormatTo(output, result)
}
