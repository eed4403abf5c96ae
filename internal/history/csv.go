package history

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/billfold/billfold/internal/invoice"
)

// WriteCSV emits the stored collection as a flat CSV summary, one row per
// invoice.
func WriteCSV(w io.Writer, records []invoice.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Number", "Client", "Issue Date", "Due Date", "Subtotal", "Total", "Saved At"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write([]string{
			rec.Number(),
			clientName(rec),
			stringOrEmpty(rec.IssueDate),
			stringOrEmpty(rec.DueDate),
			formatFloat(floatOrZero(rec.Subtotal)),
			formatFloat(floatOrZero(rec.Total)),
			rec.SavedAt,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func clientName(rec invoice.Record) string {
	if rec.Client == nil || rec.Client.Name == nil {
		return ""
	}
	return *rec.Client.Name
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
