package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/procurement/pkg/cli"
	"mercator-hq/procurement/pkg/decision"
	"mercator-hq/procurement/pkg/procurement"
)

var decideFlags struct {
	userID    string
	requestID string
	format    string
}

var decideCmd = &cobra.Command{
	Use:   "decide QUERY...",
	Short: "Decide a purchase request",
	Long: `Run one purchase request through the decision pipeline.

The budget commit and audit record are real: the request is charged to the
user's department in the configured ledger. The command exits with code 3
when no purchase is recommended.

Examples:
  # Recommend a laptop for user u001
  procure decide --user u001 laptop

  # Full decision as JSON
  procure decide --user u004 --format json "office chair"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringVarP(&decideFlags.userID, "user", "u", "", "requesting user id (required)")
	decideCmd.Flags().StringVar(&decideFlags.requestID, "request-id", "", "request id (generated when empty)")
	decideCmd.Flags().StringVarP(&decideFlags.format, "format", "f", "text", "output format: text, json")
	_ = decideCmd.MarkFlagRequired("user")
}

func runDecide(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(decideFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "decide supports text and json output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return cli.NewCommandError("decide", err)
	}
	defer a.Close()

	d, err := a.engine.Decide(cmd.Context(), decision.Request{
		RequestID: decideFlags.requestID,
		UserID:    decideFlags.userID,
		Query:     strings.Join(args, " "),
	})
	if d == nil {
		return cli.NewCommandError("decide", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		if ferr := (&cli.JSONFormatter{Indent: true}).FormatTo(out, d); ferr != nil {
			return ferr
		}
	} else {
		printDecision(out, d)
	}

	// The purchase stands even when the audit write failed.
	if err != nil {
		return cli.NewCommandError("decide", err)
	}
	if !d.Recommended() {
		return &cli.RejectedError{State: string(d.State), Reason: d.Rejection.Message}
	}
	return nil
}

func printDecision(w io.Writer, d *decision.Decision) {
	fmt.Fprintf(w, "Request:  %s\n", d.RequestID)
	fmt.Fprintf(w, "User:     %s (%s)\n", d.UserID, d.DepartmentID)
	fmt.Fprintf(w, "Query:    %s\n", d.Query)
	fmt.Fprintf(w, "State:    %s\n", d.State)

	rec := d.Recommendation()
	if rec == nil {
		if d.Rejection != nil {
			fmt.Fprintf(w, "Reason:   %s\n", d.Rejection.Message)
			if d.Rejection.Remaining != nil {
				fmt.Fprintf(w, "Budget:   %s remaining\n", d.Rejection.Remaining.StringFixed(2))
			}
		}
		return
	}

	fmt.Fprintf(w, "Product:  %s (%s)\n", rec.Product.Name, rec.Product.ID)
	fmt.Fprintf(w, "Supplier: %s (%s)\n", rec.Supplier.Name, rec.Supplier.ID)
	fmt.Fprintf(w, "Price:    %s\n", rec.TotalCost.StringFixed(2))
	fmt.Fprintf(w, "Delivery: %d days\n", rec.Offer.DeliveryDays)
	if d.Budget != nil {
		fmt.Fprintf(w, "Budget:   %s of %s spent in %s\n",
			d.Budget.Spent.StringFixed(2), d.Budget.Limit.StringFixed(2), d.Budget.Period)
	}
	if d.Degraded {
		fmt.Fprintln(w, "Degraded: no offer within the delivery limit, all usable offers evaluated")
	}
	fmt.Fprintf(w, "Why:      %s\n", rec.Justification)
	if d.AuditRecordID != "" {
		fmt.Fprintf(w, "Audit:    %s\n", d.AuditRecordID)
	}

	if len(rec.Alternatives) > 0 {
		fmt.Fprintln(w, "\nAlternatives:")
		_ = (&cli.TextFormatter{}).FormatTo(w, offerTable(rec.Alternatives))
	}
}

func offerTable(offers []procurement.Offer) cli.Table {
	t := cli.Table{Headers: []string{"supplier", "price", "delivery_days", "availability"}}
	for _, o := range offers {
		t.Data = append(t.Data, []string{
			o.SupplierID,
			o.Price.StringFixed(2),
			strconv.Itoa(o.DeliveryDays),
			string(o.Availability),
		})
	}
	return t
}
