package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"mercator-hq/procurement/pkg/audit"
)

// CSVExporter exports audit records as CSV. Details are written as a JSON
// object in a single column.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Header returns the CSV column names.
func (e *CSVExporter) Header() []string {
	return []string{
		"id",
		"timestamp",
		"user_id",
		"department_id",
		"action",
		"reasoning",
		"details",
		"details_hash",
	}
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(e.Header()); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
		row, err := e.recordToRow(record)
		if err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(row); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}
	return nil
}

func (e *CSVExporter) recordToRow(record *audit.Record) ([]string, error) {
	details := "{}"
	if len(record.Details) > 0 {
		data, err := json.Marshal(record.Details)
		if err != nil {
			return nil, err
		}
		details = string(data)
	}

	return []string{
		record.ID,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.UserID,
		record.DepartmentID,
		record.Action,
		record.Reasoning,
		details,
		record.DetailsHash,
	}, nil
}

// ForFormat returns the exporter for "json" or "csv".
func ForFormat(format string, pretty bool) (audit.Exporter, bool) {
	switch format {
	case "json":
		return NewJSONExporter(pretty), true
	case "csv":
		return NewCSVExporter(true), true
	default:
		return nil, false
	}
}
