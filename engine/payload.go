package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/staffing-engine/normalize"
)

// DefaultSection receives the records of a payload sent as a bare array.
const DefaultSection = "records"

// =============================================================================
// PAYLOAD
// =============================================================================

// Payload maps section names ("resources", "calendar", "records", ...) to
// their records.
type Payload map[string][]Record

// ParsePayload reads either an object of arrays or a bare array.
func ParsePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = Payload{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if b[0] == '[' {
		var records []Record
		if err := dec.Decode(&records); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		*p = Payload{DefaultSection: records}
		return nil
	}

	var sections map[string][]Record
	if err := dec.Decode(&sections); err != nil {
		return fmt.Errorf("%w: every section must be an array of records: %v", ErrInvalidPayload, err)
	}
	*p = Payload(sections)
	return nil
}

// Section returns the records of name. Names match exactly first, then
// ignoring case, spaces and underscores.
func (p Payload) Section(name string) []Record {
	if recs, ok := p[name]; ok {
		return recs
	}
	want := sectionKey(name)
	for k, recs := range p {
		if sectionKey(k) == want {
			return recs
		}
	}
	return nil
}

// Size is the total number of records across sections.
func (p Payload) Size() int {
	n := 0
	for _, recs := range p {
		n += len(recs)
	}
	return n
}

func sectionKey(s string) string {
	return normalize.Key(strings.NewReplacer("_", " ", "-", " ").Replace(s))
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one spreadsheet row keyed by its column labels. Every accessor
// states what an absent or blank cell yields.
type Record map[string]any

// Get returns the raw cell of label. Labels match exactly first, then
// ignoring case and whitespace.
func (r Record) Get(label string) (any, bool) {
	if v, ok := r[label]; ok {
		return v, true
	}
	want := normalize.Key(label)
	for k, v := range r {
		if normalize.Key(k) == want {
			return v, true
		}
	}
	return nil, false
}

// String is the trimmed text of label. Absent -> "".
func (r Record) String(label string) string {
	v, _ := r.Get(label)
	return normalize.Text(v)
}

// OptString is the trimmed text of label. Absent or blank -> nil.
func (r Record) OptString(label string) *string {
	s := r.String(label)
	if s == "" {
		return nil
	}
	return &s
}

// Bool reads a flag. Absent or unrecognized -> false.
func (r Record) Bool(label string) bool {
	return r.BoolOr(label, false)
}

// BoolOr reads a flag. Absent or unrecognized -> def.
func (r Record) BoolOr(label string, def bool) bool {
	v, _ := r.Get(label)
	if b, ok := normalize.ToBool(v); ok {
		return b
	}
	return def
}

// Date reads a date. Absent or unparseable -> the zero Date (stored as NULL).
func (r Record) Date(label string) normalize.Date {
	v, _ := r.Get(label)
	d, _ := normalize.ToDate(v)
	return d
}

// Decimal reads a number. Absent or unparseable -> invalid (stored as NULL).
func (r Record) Decimal(label string) decimal.NullDecimal {
	v, _ := r.Get(label)
	return normalize.NullDecimal(v)
}

// OptInt reads a whole number. Absent or unparseable -> nil.
func (r Record) OptInt(label string) *int {
	v, _ := r.Get(label)
	n, ok := normalize.ToInt(v)
	if !ok {
		return nil
	}
	return &n
}

// List splits a comma separated cell. Absent -> nil, blanks dropped.
func (r Record) List(label string) []string {
	v, _ := r.Get(label)
	return normalize.List(v)
}

// Labels returns the record's column labels, sorted.
func (r Record) Labels() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
