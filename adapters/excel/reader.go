package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"petitiondesk/domain/core"
	"petitiondesk/domain/petition"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading the petition dataset from Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadData reads the file into header-keyed rows
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s file %s", core.ErrNotFound, strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// ReadExamples reads and validates every row as a LabeledExample
func (r *DataReader) ReadExamples() ([]petition.LabeledExample, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return ToExamples(data)
}

// ToExamples maps the four named columns onto examples. Column order does not matter.
func ToExamples(data *ExcelData) ([]petition.LabeledExample, error) {
	present := make(map[string]bool, len(data.Headers))
	for _, h := range data.Headers {
		present[h] = true
	}
	for _, col := range petition.Headers {
		if !present[col] {
			return nil, fmt.Errorf("%w %q", core.ErrMissingColumn, col)
		}
	}

	examples := make([]petition.LabeledExample, 0, len(data.Rows))
	for i, row := range data.Rows {
		// Row 1 is the header
		line := i + 2

		category, err := petition.ParseCategory(row[petition.ColumnCategory])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrUnknownLabel, line, err)
		}
		urgency, err := petition.ParseUrgency(row[petition.ColumnUrgency])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrUnknownLabel, line, err)
		}
		text := row[petition.ColumnPetition]
		if strings.TrimSpace(text) == "" {
			return nil, core.NewDataError("row %d: blank %s", line, petition.ColumnPetition)
		}

		examples = append(examples, petition.LabeledExample{
			Category:     category,
			Urgency:      urgency,
			Reasoning:    row[petition.ColumnReason],
			PetitionText: text,
		})
	}

	return examples, nil
}

// readExcelData reads Excel data from Sheet1 into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[DataReader] Sheet1 read in %.2fms (%d rows)", float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, core.NewDataError("Excel file has no header row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewDataError("failed to read CSV file: %v", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 1 {
		return nil, core.NewDataError("CSV file has no header row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		// Excel exports sometimes carry a UTF-8 BOM on the first cell
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData)
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = cell
			}
		}
		dataRows = append(dataRows, rowData)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}
