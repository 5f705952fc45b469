package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/procurement/pkg/audit"
	"mercator-hq/procurement/pkg/audit/export"
	"mercator-hq/procurement/pkg/cli"
	"mercator-hq/procurement/pkg/config"
)

var auditFlags struct {
	userID       string
	departmentID string
	action       string
	since        string
	until        string
	limit        int
	format       string
	exportFormat string
	output       string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query, export and verify audit records",
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List audit records",
	Long: `List audit records, newest first.

Examples:
  # Latest FIN decisions
  procure audit query --department FIN

  # Budget denials since the start of the month
  procure audit query --action purchase_denied_budget --since 2026-10-01T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runAuditQuery,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit records as JSON or CSV",
	Long: `Export every audit record matching the filters, oldest first.

Examples:
  procure audit export --format csv --output audit.csv
  procure audit export --user u004 --format json`,
	Args: cobra.NoArgs,
	RunE: runAuditExport,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the details hash of audit records",
	Long: `Recompute the SHA-256 hash of each record's details and compare it with
the stored hash. Any mismatch means the record was altered after it was
written.`,
	Args: cobra.NoArgs,
	RunE: runAuditVerify,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditExportCmd, auditVerifyCmd)

	for _, c := range []*cobra.Command{auditQueryCmd, auditExportCmd, auditVerifyCmd} {
		c.Flags().StringVar(&auditFlags.userID, "user", "", "filter by user id")
		c.Flags().StringVar(&auditFlags.departmentID, "department", "", "filter by department id")
		c.Flags().StringVar(&auditFlags.action, "action", "", "filter by action")
		c.Flags().StringVar(&auditFlags.since, "since", "", "only records at or after this time (RFC3339)")
		c.Flags().StringVar(&auditFlags.until, "until", "", "only records at or before this time (RFC3339)")
	}

	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 0, "maximum records to return (default from audit.query.default_limit)")
	auditQueryCmd.Flags().StringVarP(&auditFlags.format, "format", "f", "text", "output format: text, json, csv")

	auditExportCmd.Flags().StringVarP(&auditFlags.exportFormat, "format", "f", "json", "export format: json, csv")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default stdout)")
}

// auditQuery builds a query from the filter flags.
func auditQuery() (*audit.Query, error) {
	q := &audit.Query{
		UserID:       auditFlags.userID,
		DepartmentID: auditFlags.departmentID,
		Action:       auditFlags.action,
	}
	var err error
	if q.StartTime, err = parseTimeFlag("since", auditFlags.since); err != nil {
		return nil, err
	}
	if q.EndTime, err = parseTimeFlag("until", auditFlags.until); err != nil {
		return nil, err
	}
	return q, nil
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, cli.NewConfigError(name, fmt.Sprintf("invalid RFC3339 time %q", value))
	}
	return &t, nil
}

func openAudit() (*config.Config, audit.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, nil, err
	}
	store, err := openAuditStorage(&cfg.Audit)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}
	q, err := auditQuery()
	if err != nil {
		return err
	}

	cfg, store, err := openAudit()
	if err != nil {
		return err
	}
	defer store.Close()

	q.Limit = auditFlags.limit
	if q.Limit <= 0 {
		q.Limit = cfg.Audit.Query.DefaultLimit
	}
	if q.Limit > cfg.Audit.Query.MaxLimit {
		q.Limit = cfg.Audit.Query.MaxLimit
	}

	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}

	var data any = records
	if format != cli.FormatJSON {
		data = recordTable(records)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	exporter, ok := export.ForFormat(auditFlags.exportFormat, true)
	if !ok {
		return cli.NewConfigError("format", fmt.Sprintf("unsupported export format %q (use json or csv)", auditFlags.exportFormat))
	}
	q, err := auditQuery()
	if err != nil {
		return err
	}

	_, store, err := openAudit()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := allRecords(cmd.Context(), store, q, nil)
	if err != nil {
		return cli.NewCommandError("audit export", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return cli.NewCommandError("audit export", err)
		}
		defer f.Close()
		w = f
	}

	if err := exporter.Export(cmd.Context(), records, w); err != nil {
		return cli.NewCommandError("audit export", err)
	}
	if auditFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d records to %s\n", len(records), auditFlags.output)
	}
	return nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	q, err := auditQuery()
	if err != nil {
		return err
	}

	_, store, err := openAudit()
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.Count(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("audit verify", err)
	}

	progress := cli.NewProgressReporter(cmd.ErrOrStderr())
	if sp, ok := progress.(*cli.SimpleProgress); ok {
		sp.Unit = "records"
	}
	progress.Start(total)

	var invalid []string
	checked := int64(0)
	_, err = allRecords(cmd.Context(), store, q, func(r *audit.Record) {
		if !audit.VerifyHash(r) {
			invalid = append(invalid, r.ID)
		}
		checked++
		progress.Update(checked)
	})
	if err != nil {
		progress.Error(err)
		return cli.NewCommandError("audit verify", err)
	}
	progress.Finish()

	out := cmd.OutOrStdout()
	if len(invalid) > 0 {
		fmt.Fprintf(out, "✗ %d of %d records failed verification:\n  %s\n",
			len(invalid), checked, strings.Join(invalid, "\n  "))
		return cli.NewCommandError("audit verify", fmt.Errorf("%d records failed hash verification", len(invalid)))
	}
	fmt.Fprintf(out, "✓ %d records verified\n", checked)
	return nil
}

// allRecords pages through every record matching q in timestamp order,
// calling visit for each one when it is set.
func allRecords(ctx context.Context, store audit.Storage, q *audit.Query, visit func(*audit.Record)) ([]*audit.Record, error) {
	page := *q
	page.Limit = audit.MaxLimit
	page.SortOrder = "asc"

	var records []*audit.Record
	for {
		batch, err := store.Query(ctx, &page)
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			if visit != nil {
				visit(r)
			} else {
				records = append(records, r)
			}
		}
		if len(batch) < page.Limit {
			return records, nil
		}
		page.Offset += len(batch)
	}
}

func recordTable(records []*audit.Record) cli.Table {
	t := cli.Table{Headers: []string{"id", "timestamp", "user", "department", "action"}}
	for _, r := range records {
		t.Data = append(t.Data, []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339),
			r.UserID,
			r.DepartmentID,
			r.Action,
		})
	}
	return t
}
