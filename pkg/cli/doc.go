/*
Package cli provides command-line helpers for the procure command.

Output Formatting:

Results print as text, JSON or CSV. Values implementing Tabular are aligned
in columns for text output and written row by row for CSV:

	format, err := cli.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	table := cli.Table{Headers: []string{"department", "spent"}, Data: rows}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Progress Reporting:

Long scans, such as verifying audit record hashes, report progress:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(records)))
	for i, r := range records {
		verify(r)
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 3 when a decision was rejected, 1 for anything else.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM, and reloads on SIGHUP:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	cli.HandleReload(ctx, reload)
*/
package cli
