// Package export writes ranked suggestions to a CSV or XLSX file
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	perr "chatminer/internal/platform/errors"
	"chatminer/internal/platform/logger"
	"chatminer/internal/services/mining/domain"

	"github.com/xuri/excelize/v2"
)

// ExampleSeparator joins example messages inside one cell
const ExampleSeparator = " | "

// DefaultPath returns output/<variant>_suggestions_YYYYMMDD.xlsx for now
func DefaultPath(v domain.Variant, now time.Time) string {
	return filepath.Join("output", fmt.Sprintf("%s_suggestions_%s.xlsx", v, now.Format("20060102")))
}

// SheetName is the worksheet that holds the suggestion table
func SheetName(v domain.Variant) string { return string(v) + "_suggestions" }

// Header returns the fixed column layout for classes
func Header(classes []string) []string {
	h := []string{"phrase", "suggested_class", "weight", "type"}
	for _, c := range classes {
		h = append(h, c+"_count")
	}
	return append(h, "ratio", "examples")
}

// Rows renders the report body in header order
func Rows(r domain.Report) [][]string {
	out := make([][]string, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		row := []string{s.Phrase, s.Class, strconv.Itoa(s.Weight), s.Type}
		for _, c := range r.Classes {
			row = append(row, strconv.Itoa(s.Count(c)))
		}
		row = append(row,
			FormatRatio(s.Ratio),
			strings.Join(s.Examples, ExampleSeparator),
		)
		out = append(out, row)
	}
	return out
}

// FormatRatio renders r with two decimals, rounding halves away from zero
func FormatRatio(r float64) string {
	return strconv.FormatFloat(math.Round(r*100)/100, 'f', 2, 64)
}

// Writer is a file sink; the format follows the path extension
type Writer struct {
	Path string
}

// New returns a Writer for path. Only .csv and .xlsx are accepted at write time
func New(path string) *Writer { return &Writer{Path: path} }

// Write renders r to w.Path, creating parent directories as needed
func (w *Writer) Write(ctx context.Context, r domain.Report) error {
	if w.Path == "" {
		return perr.Exportf("export: empty output path")
	}
	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: mkdir for %s", w.Path)
	}

	var err error
	switch ext := strings.ToLower(filepath.Ext(w.Path)); ext {
	case ".csv":
		err = w.writeCSV(r)
	case ".xlsx":
		err = w.writeXLSX(r)
	default:
		return perr.WithField(perr.Exportf("export: unsupported extension %q", ext), "output")
	}
	if err != nil {
		return err
	}

	logger.C(ctx).Info().
		Str("path", w.Path).
		Int("rows", len(r.Suggestions)).
		Msg("suggestions exported")
	return nil
}

func (w *Writer) writeCSV(r domain.Report) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: create %s", w.Path)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(append([][]string{Header(r.Classes)}, Rows(r)...)); err != nil {
		_ = f.Close()
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: write %s", w.Path)
	}
	if err := f.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: close %s", w.Path)
	}
	return nil
}

func (w *Writer) writeXLSX(r domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := SheetName(r.Variant)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: sheet %s", sheet)
	}

	header := Header(r.Classes)
	if err := setRow(f, sheet, 1, toCells(header, nil)); err != nil {
		return err
	}
	// numeric columns stay numeric so the sheet sorts and filters properly
	numeric := map[int]bool{2: true}
	for i := range r.Classes {
		numeric[4+i] = true
	}
	numeric[len(header)-2] = true

	for i, row := range Rows(r) {
		if err := setRow(f, sheet, i+2, toCells(row, numeric)); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: freeze header")
	}
	if err := f.SaveAs(w.Path); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: save %s", w.Path)
	}
	return nil
}

func toCells(row []string, numeric map[int]bool) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
		if !numeric[i] {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cells[i] = f
		}
	}
	return cells
}

func setRow(f *excelize.File, sheet string, n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: row %d", n)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeExport, "export: row %d", n)
	}
	return nil
}
