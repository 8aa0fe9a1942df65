package excel

// RawRowData represents a row of raw spreadsheet data as header -> cell pairs
type RawRowData map[string]string

// ExcelData represents the complete tabular dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}
