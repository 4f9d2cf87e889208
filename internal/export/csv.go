package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

const ContentTypeCSV = "text/csv; charset=utf-8"

// WriteCSV writes the header and rows of t as RFC 4180 CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// Filename suggests a download name such as "daybook_2024-01-01_2024-01-31.csv".
func Filename(mode, from, to string) string {
	if mode == "" {
		mode = "general"
	}
	return fmt.Sprintf("%s_%s_%s.csv", mode, from, to)
}
