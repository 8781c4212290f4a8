/*
sheet.go - xlsx workbook loader

PURPOSE:
  Turns a workbook into an engine.Payload so a spreadsheet can be imported
  without a browser: every sheet becomes a section, the first non-blank row
  of a sheet holds the column labels, every later non-blank row a record.

CELLS:
  Cells are read raw. A date cell comes through as its serial number
  ("45366"), which normalize.ToDate reads back as the same calendar day.
  Blank cells are left out of the record so accessors see them as absent.
  A cell formatted as a percentage stores a fraction (0.5 for 50%); it is
  scaled back to the number the sheet shows ("50").

SECTIONS:
  "Leave Types" -> "leave_types". With Flat, every sheet lands in the
  "records" section instead, for families that read a single sheet.

SEE ALSO:
  - engine/payload.go: section and label matching
  - cmd/importer: the command that uses this loader
*/
package sheet

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/engine"
	"github.com/xuri/excelize/v2"
)

// Options controls how sheets map to sections.
type Options struct {
	// Flat puts the rows of every sheet into engine.DefaultSection.
	Flat bool
}

// Load reads a workbook from r.
func Load(r io.Reader, opts Options) (engine.Payload, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return FromFile(f, opts)
}

// LoadFile reads the workbook at path.
func LoadFile(path string, opts Options) (engine.Payload, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return FromFile(f, opts)
}

// FromFile converts an already opened workbook.
func FromFile(f *excelize.File, opts Options) (engine.Payload, error) {
	p := engine.Payload{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if err := scalePercentages(f, name, rows); err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		section := SectionName(name)
		if opts.Flat {
			section = engine.DefaultSection
		}
		p[section] = append(p[section], records(rows)...)
	}
	return p, nil
}

// Built-in number formats 9 ("0%") and 10 ("0.00%").
const (
	numFmtPercent        = 9
	numFmtPercentDecimal = 10
)

// scalePercentages rewrites, in place, the raw fraction of every numeric
// cell whose style is a percentage format.
func scalePercentages(f *excelize.File, sheet string, rows [][]string) error {
	percent := make(map[int]bool)
	for r, cells := range rows {
		for c, raw := range cells {
			v, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}
			isPercent, seen := percent[styleID]
			if !seen {
				if isPercent, err = percentStyle(f, styleID); err != nil {
					return err
				}
				percent[styleID] = isPercent
			}
			if isPercent {
				cells[c] = v.Shift(2).String()
			}
		}
	}
	return nil
}

func percentStyle(f *excelize.File, styleID int) (bool, error) {
	if styleID == 0 {
		return false, nil
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	if style.NumFmt == numFmtPercent || style.NumFmt == numFmtPercentDecimal {
		return true, nil
	}
	return style.CustomNumFmt != nil && strings.Contains(*style.CustomNumFmt, "%"), nil
}

// records pairs every data row with the header row.
func records(rows [][]string) []engine.Record {
	start := 0
	for start < len(rows) && blank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil
	}
	header := rows[start]

	var out []engine.Record
	for _, cells := range rows[start+1:] {
		if blank(cells) {
			continue
		}
		rec := make(engine.Record, len(header))
		for i, label := range header {
			label = strings.TrimSpace(label)
			if label == "" || i >= len(cells) {
				continue
			}
			if v := strings.TrimSpace(cells[i]); v != "" {
				rec[label] = v
			}
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SectionName snake-cases a sheet name: "Leave Types" -> "leave_types".
func SectionName(sheet string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(sheet) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}
