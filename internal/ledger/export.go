package ledger

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"petitiondesk/domain/submission"
)

const exportSheet = "Submissions"

// ExportHeaders is the header row of the review export
var ExportHeaders = []string{"Date", "Category", "Priority", "Confidence", "Type", "Text"}

// ExportXLSX writes subs as a single-sheet workbook in the given order
func ExportXLSX(w io.Writer, subs []submission.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, s := range subs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.Timestamp.UTC().Format(time.RFC3339),
			s.Category,
			string(s.Urgency),
			s.Confidence,
			string(s.SourceType),
			s.Text,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
