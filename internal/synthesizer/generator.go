// Package synthesizer produces the labeled petition dataset used for training.
package synthesizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"

	"petitiondesk/domain/petition"
	"petitiondesk/internal/fsutil"

	"github.com/xuri/excelize/v2"
)

// Dataset is the in-memory form of the petition table, in generation order
type Dataset struct {
	Examples []petition.LabeledExample
}

// Headers returns the file header row
func (ds *Dataset) Headers() []string {
	return append([]string(nil), petition.Headers...)
}

// Rows renders every example as string cells
func (ds *Dataset) Rows() [][]string {
	rows := make([][]string, len(ds.Examples))
	for i, e := range ds.Examples {
		rows[i] = e.Row()
	}
	return rows
}

type Config struct {
	Rows int
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Rows: 1000,
		Seed: 42,
	}
}

// Generate samples category and urgency independently and uniformly for every row
// and fills text from the category template. Urgency therefore carries no signal
// in the petition text.
func Generate(cfg Config) (*Dataset, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	examples := make([]petition.LabeledExample, cfg.Rows)
	for i := range examples {
		category := petition.Categories[rng.Intn(len(petition.Categories))]
		urgency := petition.Urgencies[rng.Intn(len(petition.Urgencies))]
		examples[i] = petition.NewExample(category, urgency)
	}

	return &Dataset{Examples: examples}, nil
}

// WriteCSV writes the header and rows as UTF-8 CSV, replacing path atomically
func WriteCSV(path string, ds *Dataset) error {
	return fsutil.WriteFileAtomic(path, 0644, func(out io.Writer) error {
		return EncodeCSV(out, ds)
	})
}

// EncodeCSV writes the header and rows to out with standard CSV quoting
func EncodeCSV(out io.Writer, ds *Dataset) error {
	w := csv.NewWriter(out)
	if err := w.Write(ds.Headers()); err != nil {
		return err
	}
	if err := w.WriteAll(ds.Rows()); err != nil {
		return err
	}
	return w.Error()
}

// WriteXLSX writes the same table to Sheet1 of an Excel workbook
func WriteXLSX(path string, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range ds.Headers() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range ds.Rows() {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return fsutil.WriteFileAtomic(path, 0644, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
}
