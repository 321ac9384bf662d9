/*
Package cli carries the pieces the sextant command shares across its
subcommands: output formatting, typed errors, and signal handling.

Output Formatting:

Results render as text, JSON, or CSV. Commands build a formatter from
their format flag and hand it whatever result they produce:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

CSV needs rows, so that format requires the result to implement Tabular:

	func (t probeTable) Header() []string { return []string{"address", "pod_id", "status"} }
	func (t probeTable) Rows() [][]string { ... }

Errors:

ConfigError and CommandError distinguish a bad configuration from a
failed execution, so the root command can exit with a useful message.

Signal Handling:

SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
Commands that report which signal stopped them read from WaitForShutdown
instead:

	sig := <-cli.WaitForShutdown()
	fmt.Printf("received %v, shutting down\n", sig)
*/
package cli
