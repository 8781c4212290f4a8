package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TEXT AND KEYS
// =============================================================================

// Text renders a loosely typed cell as trimmed text. nil becomes "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case *string:
		if x == nil {
			return ""
		}
		return strings.TrimSpace(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		d, _ := ToDate(x)
		return d.String()
	case Date:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Key builds the matching form of a natural key: each part trimmed,
// lowercased and whitespace-collapsed, parts joined with "|".
func Key(parts ...string) string {
	if len(parts) == 1 {
		return keyPart(parts[0])
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = keyPart(p)
	}
	return strings.Join(out, "|")
}

func keyPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Presentable is the stored form of a newly created name: trimmed, inner
// whitespace collapsed, first letter upper-cased.
func Presentable(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// List splits a comma or semicolon separated cell, dropping blanks.
func List(v any) []string {
	s := Text(v)
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// NUMBERS
// =============================================================================

// ToDecimal reads money, percentages and plain numbers. Percent signs are
// dropped and comma decimals ("12,5", "1.234,56") are accepted.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case decimal.Decimal:
		return x, true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	}

	s := strings.TrimSpace(Text(v))
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "€")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	if strings.Contains(s, ",") {
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// NullDecimal wraps ToDecimal for nullable columns.
func NullDecimal(v any) decimal.NullDecimal {
	d, ok := ToDecimal(v)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// ToInt reads a whole number, truncating any fraction.
func ToInt(v any) (int, bool) {
	d, ok := ToDecimal(v)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

// =============================================================================
// BOOLEANS
// =============================================================================

var truthy = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true,
	"x": true, "si": true, "sì": true, "vero": true, "ok": true,
}

var falsy = map[string]bool{
	"false": true, "f": true, "no": true, "n": true, "0": true, "falso": true,
}

// ToBool reads a flag. The second result is false when the cell is absent
// or not recognizably boolean.
func ToBool(v any) (bool, bool) {
	switch x := v.(type) {
	case nil:
		return false, false
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case int:
		return x != 0, true
	}
	s := strings.ToLower(Text(v))
	switch {
	case truthy[s]:
		return true, true
	case falsy[s]:
		return false, true
	default:
		return false, false
	}
}
