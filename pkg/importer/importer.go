// Package importer bulk-loads inventory rows from Excel workbooks.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"asset-inventory-api/internal/validate"
)

// Kind is the value type of a field, used to convert cells.
type Kind string

const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindDate      Kind = "date"
	KindTimestamp Kind = "timestamp"
)

// Field is one importable column of a resource.
type Field struct {
	Name string
	Kind Kind
}

// InsertFunc validates and stores one row given as a JSON object.
type InsertFunc func(ctx context.Context, body []byte) error

// Target is a resource that accepts imported rows.
type Target interface {
	Fields() []Field
	// Batch runs fn in a single unit of work, kept only when commit is true.
	Batch(ctx context.Context, commit bool, fn func(insert InsertFunc) error) error
}

// ErrTooManyErrors aborts an import whose error count passed MaxErrors.
var ErrTooManyErrors = errors.New("too many errors")

// Options defines the configuration for Excel import operations
type Options struct {
	Resource  string   // key into Mapping.Resources
	Sheet     string   // overrides the mapped sheet; default is the first sheet
	Mapping   *Mapping // nil matches headers to field names
	DryRun    bool
	MaxErrors int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Resource string         `json:"resource"`
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

const maxSamples = 20

// ImportExcel reads a workbook and inserts its rows into target. Rows that
// fail validation are counted and sampled; any other failure aborts the whole
// import. Nothing is kept on a dry run.
func ImportExcel(ctx context.Context, target Target, r io.Reader, opts Options) (ImportSummary, error) {
	summary := ImportSummary{
		Resource: opts.Resource,
		DryRun:   opts.DryRun,
		Sheets:   []SheetSummary{},
	}
	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	var rm ResourceMapping
	if opts.Mapping != nil {
		rm = opts.Mapping.Resources[opts.Resource]
	}
	if opts.Sheet == "" {
		opts.Sheet = rm.Sheet
	}

	// xlsx needs random access, so the upload is buffered
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	sheet, err := pickSheet(xlFile, opts.Sheet)
	if err != nil {
		return summary, err
	}

	fields := target.Fields()
	res := newResolver(fields, rm)

	err = target.Batch(ctx, !opts.DryRun, func(insert InsertFunc) error {
		ss, err := processSheet(ctx, sheet, fields, res, insert, opts.MaxErrors)
		summary.Sheets = append(summary.Sheets, ss)
		summary.Inserted += ss.Inserted
		summary.Skipped += ss.Skipped
		summary.Errors += ss.Errors
		return err
	})
	return summary, err
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sh, ok := f.Sheet[name]
		if !ok {
			return nil, fmt.Errorf("sheet %q not found", name)
		}
		return sh, nil
	}
	if len(f.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func processSheet(ctx context.Context, sheet *xlsx.Sheet, fields []Field, res resolver, insert InsertFunc, maxErrors int) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet.Name}

	headerRow, err := sheet.Row(0)
	if err != nil {
		return summary, fmt.Errorf("failed to read header row: %w", err)
	}

	// column index -> field name
	columns := map[int]string{}
	for col := 0; col < sheet.MaxCol; col++ {
		cell := headerRow.GetCell(col)
		if cell == nil {
			continue
		}
		if field, ok := res.field(cell.String()); ok {
			columns[col] = field
		}
	}
	if len(columns) == 0 {
		return summary, fmt.Errorf("sheet %q: no header matches a known field", sheet.Name)
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		row, err := sheet.Row(rowIdx)
		if err != nil {
			break
		}

		values := map[string]*xlsx.Cell{}
		for col, field := range columns {
			cell := row.GetCell(col)
			if cell != nil && strings.TrimSpace(cell.String()) != "" {
				values[field] = cell
			}
		}
		if len(values) == 0 {
			summary.Skipped++
			continue
		}

		if err := insert(ctx, rowJSON(fields, values)); err != nil {
			if !validate.IsValidation(err) {
				return summary, fmt.Errorf("row %d: %w", rowIdx+1, err)
			}
			summary.Errors++
			if len(summary.Samples) < maxSamples {
				summary.Samples = append(summary.Samples, RowError{
					Sheet:   sheet.Name,
					Row:     rowIdx + 1,
					Message: err.Error(),
				})
			}
			if summary.Errors > maxErrors {
				return summary, fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, summary.Errors)
			}
			continue
		}
		summary.Inserted++
	}
	return summary, nil
}

// rowJSON renders the populated cells as a JSON object in field order.
func rowJSON(fields []Field, values map[string]*xlsx.Cell) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range fields {
		cell, ok := values[f.Name]
		if !ok {
			continue
		}
		key, _ := json.Marshal(f.Name)
		val, _ := json.Marshal(cellValue(cell, f.Kind))
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func cellValue(cell *xlsx.Cell, kind Kind) interface{} {
	raw := strings.TrimSpace(cell.String())
	switch kind {
	case KindNumber:
		if cell.Type() == xlsx.CellTypeNumeric {
			if f, err := cell.Float(); err == nil {
				return f
			}
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64); err == nil {
			return f
		}
		// left as text so validation names the field
		return raw
	case KindDate, KindTimestamp:
		if cell.Type() == xlsx.CellTypeNumeric && cell.IsTime() {
			if t, err := cell.GetTime(false); err == nil {
				if kind == KindDate {
					return t.Format("2006-01-02")
				}
				return t.Format(time.RFC3339)
			}
		}
		return raw
	default:
		return raw
	}
}
