package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sextant-gg/sextant/pkg/audit"
	"github.com/sextant-gg/sextant/pkg/audit/storage"
	"github.com/sextant-gg/sextant/pkg/cli"
	"github.com/sextant-gg/sextant/pkg/config"
)

var auditFlags struct {
	backend        string
	timeRange      string
	kind           string
	podID          string
	outcome        string
	duplicatesOnly bool
	limit          int
	offset         int
	format         string
	output         string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the discovery audit trail",
	Long: `Query and export audit records for discovery and health rounds.

Every discovery round and health sweep leaves a record: which addresses
were probed, which one matched, and how long the round took. The audit
command answers "why did this pod resolve there" long after the cache
entry is gone.

Subcommands:
  query   - Query audit records with filters
  report  - Summarize rounds by kind, outcome, and pod

Examples:
  # Everything recorded for one pod
  sextant audit query --pod-id "alpha"

  # Failed rounds inside a window
  sextant audit query --outcome not_found --time-range "2026-02-01T00:00:00Z/2026-02-02T00:00:00Z"

  # Dump to JSON for other tooling
  sextant audit query --format json --output audit.json`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the audit trail",
	Long: `Search audit records, narrowing by kind, pod, outcome, or time.

The --time-range flag takes two RFC3339 times joined by a slash,
e.g. "2026-02-01T00:00:00Z/2026-02-02T00:00:00Z". Both bounds are
inclusive.

Examples:
  # Everything inside a window
  sextant audit query --time-range "2026-02-01T00:00:00Z/2026-02-02T00:00:00Z"

  # Failed lookups for one pod
  sextant audit query --pod-id "alpha" --outcome not_found

  # Rounds where two pods claimed the same identity
  sextant audit query --duplicates-only

  # Export to CSV
  sextant audit query --format csv --output audit.csv`,
	RunE: queryAudit,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize audit records",
	Long:  `Summarize audit records by kind, outcome, and pod.`,
	RunE:  reportAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditReportCmd)

	auditQueryCmd.Flags().StringVar(&auditFlags.backend, "backend", "", "audit backend to read, sqlite or memory (defaults to the config)")
	auditQueryCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "RFC3339 window, written start/end")
	auditQueryCmd.Flags().StringVar(&auditFlags.kind, "kind", "", "filter by record kind (discovery, health)")
	auditQueryCmd.Flags().StringVar(&auditFlags.podID, "pod-id", "", "filter by pod identifier")
	auditQueryCmd.Flags().StringVar(&auditFlags.outcome, "outcome", "", "filter by outcome (matched, not_found, no_candidates, ...)")
	auditQueryCmd.Flags().BoolVar(&auditFlags.duplicatesOnly, "duplicates-only", false, "only rounds where multiple pods claimed one identity")
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "cap the number of records returned")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "skip this many records first")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "render as text, json, or csv")
	auditQueryCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "write to this file instead of stdout")

	auditReportCmd.Flags().StringVar(&auditFlags.backend, "backend", "", "audit backend to read, sqlite or memory")
	auditReportCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "RFC3339 window, written start/end")
	auditReportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "write to this file instead of stdout")
}

// openAuditStorage loads the configuration and opens the audit backend the
// flags or config select. Callers own closing the returned storage.
func openAuditStorage() (audit.Storage, error) {
	if err := config.Initialize(configPath()); err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	cfg := config.GetConfig()

	backendType := auditFlags.backend
	if backendType == "" {
		backendType = cfg.Audit.Backend
	}

	switch backendType {
	case "sqlite":
		sqliteConfig := storage.DefaultSQLiteConfig()
		sqliteConfig.Path = cfg.Audit.Path
		store, err := storage.NewSQLiteStorage(sqliteConfig)
		if err != nil {
			return nil, cli.NewCommandError("audit", fmt.Errorf("open sqlite audit storage: %w", err))
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(int(cfg.Audit.MaxRecords)), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q (want sqlite or memory)", backendType)
	}
}

// buildAuditQuery translates flags into a storage query. The time range is
// an RFC3339 interval, "start/end", both bounds inclusive.
func buildAuditQuery() (*audit.Query, error) {
	query := &audit.Query{
		Kind:          auditFlags.kind,
		PodID:         auditFlags.podID,
		Outcome:       auditFlags.outcome,
		DuplicateOnly: auditFlags.duplicatesOnly,
		Limit:         auditFlags.limit,
		Offset:        auditFlags.offset,
	}

	if auditFlags.timeRange != "" {
		startRaw, endRaw, ok := strings.Cut(auditFlags.timeRange, "/")
		if !ok {
			return nil, fmt.Errorf("time range must be two RFC3339 times joined by a slash")
		}

		startTime, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, fmt.Errorf("time range start: %w", err)
		}
		query.StartTime = &startTime

		endTime, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return nil, fmt.Errorf("time range end: %w", err)
		}
		query.EndTime = &endTime
	}

	return query, nil
}

func queryAudit(cmd *cobra.Command, args []string) error {
	store, err := openAuditStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("audit query: %w", err))
	}

	var output *os.File
	if auditFlags.output != "" {
		output, err = os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	switch auditFlags.format {
	case "json":
		return outputAuditJSON(output, records)
	case "csv":
		return cli.NewFormatter(cli.FormatCSV).FormatTo(output, auditRecordTable(records))
	default:
		return outputAuditText(output, records, query)
	}
}

func outputAuditText(output *os.File, records []*audit.Record, query *audit.Query) error {
	if query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(output, "Window: %s to %s\n",
			query.StartTime.Format(time.RFC3339),
			query.EndTime.Format(time.RFC3339))
	}

	if len(records) == 0 {
		fmt.Fprintln(output, "No records matched.")
		return nil
	}
	fmt.Fprintf(output, "Matched %d records\n", len(records))

	for i, record := range records {
		fmt.Fprintln(output)
		fmt.Fprintf(output, "Record: %s\n", record.ID)
		fmt.Fprintf(output, "At: %s\n", record.At.Format(time.RFC3339))
		fmt.Fprintf(output, "Kind: %s\n", record.Kind)
		if record.PodID != "" {
			fmt.Fprintf(output, "Pod: %s\n", record.PodID)
		}
		fmt.Fprintf(output, "Outcome: %s\n", record.Outcome)
		if record.MatchedAddr != "" {
			fmt.Fprintf(output, "Matched: %s\n", record.MatchedAddr)
		}
		if len(record.Candidates) > 0 {
			fmt.Fprintf(output, "Candidates: %s\n", strings.Join(record.Candidates, ", "))
		}
		if record.Duplicate {
			fmt.Fprintln(output, "Duplicate: multiple pods claimed this identity")
		}
		fmt.Fprintf(output, "Duration: %s\n", record.Duration)

		// Text mode prints at most ten records.
		if i >= 9 && len(records) > 10 {
			fmt.Fprintln(output)
			fmt.Fprintf(output, "(%d more not shown; raise --limit or page with --offset)\n", len(records)-10)
			break
		}
	}

	return nil
}

func outputAuditJSON(output *os.File, records []*audit.Record) error {
	return cli.NewFormatter(cli.FormatJSON).FormatTo(output, map[string]interface{}{
		"total_records": len(records),
		"records":       records,
	})
}

// auditRecordTable renders records in the tabular form the CSV formatter
// consumes.
type auditRecordTable []*audit.Record

func (t auditRecordTable) Header() []string {
	return []string{"id", "at", "kind", "pod_id", "outcome", "matched_addr", "duplicate", "duration_ms", "candidates"}
}

func (t auditRecordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, record := range t {
		rows = append(rows, []string{
			record.ID,
			record.At.Format(time.RFC3339),
			record.Kind,
			record.PodID,
			record.Outcome,
			record.MatchedAddr,
			strconv.FormatBool(record.Duplicate),
			strconv.FormatInt(record.Duration.Milliseconds(), 10),
			strings.Join(record.Candidates, " "),
		})
	}
	return rows
}

func reportAudit(cmd *cobra.Command, args []string) error {
	store, err := openAuditStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	// Report honors the time range only; the per-record filters and
	// pagination belong to query.
	query := &audit.Query{}
	if auditFlags.timeRange != "" {
		full, err := buildAuditQuery()
		if err != nil {
			return err
		}
		query.StartTime = full.StartTime
		query.EndTime = full.EndTime
	}

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("audit query: %w", err))
	}

	var output *os.File
	if auditFlags.output != "" {
		output, err = os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	return writeAuditReport(output, records, query)
}

func writeAuditReport(output *os.File, records []*audit.Record, query *audit.Query) error {
	fmt.Fprintln(output, "Sextant discovery report")
	if query.StartTime != nil && query.EndTime != nil {
		fmt.Fprintf(output, "Window: %s to %s\n",
			query.StartTime.Format("2006-01-02"),
			query.EndTime.Format("2006-01-02"))
	}
	fmt.Fprintf(output, "Generated at %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(output)

	var totalDuration time.Duration
	duplicates := 0
	kindCounts := make(map[string]int)
	outcomeCounts := make(map[string]int)
	podCounts := make(map[string]int)

	for _, record := range records {
		totalDuration += record.Duration
		if record.Duplicate {
			duplicates++
		}
		kindCounts[record.Kind]++
		outcomeCounts[record.Outcome]++
		if record.PodID != "" {
			podCounts[record.PodID]++
		}
	}

	if len(records) == 0 {
		fmt.Fprintln(output, "0 rounds in this window.")
		return nil
	}

	fmt.Fprintf(output, "%d rounds, mean duration %s\n",
		len(records), totalDuration/time.Duration(len(records)))
	fmt.Fprintf(output, "%d rounds saw duplicate identity claims\n", duplicates)
	fmt.Fprintln(output)

	writeBreakdown(output, "Rounds by kind", kindCounts, len(records))
	writeBreakdown(output, "Rounds by outcome", outcomeCounts, len(records))
	writeBreakdown(output, "Rounds by pod", podCounts, len(records))

	return nil
}

// writeBreakdown prints one count section, keys sorted so the report is
// stable run to run.
func writeBreakdown(output *os.File, title string, counts map[string]int, total int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(output, "%s:\n", title)
	for _, key := range keys {
		pct := float64(counts[key]) / float64(total) * 100
		fmt.Fprintf(output, "  %-24s %d (%.0f%%)\n", key, counts[key], pct)
	}
	fmt.Fprintln(output)
}
