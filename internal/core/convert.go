package core

// convert.go holds the cell-level conversions used by the loader and the
// PK source builder:
//   - null token detection (NA, N/A, null, empty)
//   - numeric type inference that never rounds identifiers
//   - parsing of the exporter's fixed date pattern into calendar dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NullTokens are cell values read as absent.
var NullTokens = []string{"NA", "N/A", "null"}

var (
	integerRegex = regexp.MustCompile(`^[+-]?\d+$`)
	numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// SourceDateLayout is the textual date pattern written by the DIMA exporter.
// Two-digit years 69-99 map to 19xx, 00-68 to 20xx.
const SourceDateLayout = "01/02/06 15:04:05"

// dateLayouts are tried in order after SourceDateLayout.
var dateLayouts = []string{
	"1/2/06 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/06",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// IsNullToken reports whether a raw cell is an absent value.
func IsNullToken(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	for _, tok := range NullTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// cellKind classifies a single non-null cell for inference.
func cellKind(s string) ColumnType {
	s = strings.TrimSpace(s)
	if integerRegex.MatchString(s) {
		if hasLeadingZero(s) {
			return TypeText
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			// Out of int64 range: keep the digits verbatim.
			return TypeText
		}
		return TypeInt
	}
	if numericRegex.MatchString(s) {
		return TypeFloat
	}
	return TypeText
}

func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0'
}

// widen returns the narrowest type able to hold both a and b.
func widen(a, b ColumnType) ColumnType {
	switch {
	case a == b:
		return a
	case (a == TypeInt && b == TypeFloat) || (a == TypeFloat && b == TypeInt):
		return TypeFloat
	default:
		return TypeText
	}
}

// InferType scans every cell of a column and returns its type. A column with
// no values at all is text.
func InferType(cells []string) ColumnType {
	typ := ColumnType(-1)
	for _, c := range cells {
		if IsNullToken(c) {
			continue
		}
		k := cellKind(c)
		if typ < 0 {
			typ = k
		} else {
			typ = widen(typ, k)
		}
		if typ == TypeText {
			return TypeText
		}
	}
	if typ < 0 {
		return TypeText
	}
	return typ
}

// ParseCell converts a raw cell into a value of the given type.
func ParseCell(s string, typ ColumnType) Value {
	if IsNullToken(s) {
		return Null()
	}
	switch typ {
	case TypeInt:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Null()
		}
		return Int(i)
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Null()
		}
		return Float(f)
	case TypeDate, TypeTimestamp:
		t, ok := ParseSourceDate(s)
		if !ok {
			return Null()
		}
		return Time(t)
	default:
		return Text(s)
	}
}

// ParseSourceDate parses an exporter date. It accepts SourceDateLayout first
// and then a few common fallbacks, including already-normalized ISO dates.
func ParseSourceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(SourceDateLayout, s); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToCalendarDate converts a date-marker value to a calendar date, dropping
// any time of day. Values that cannot be read as a date become absent.
func ToCalendarDate(v Value) Value {
	if !v.Valid {
		return Null()
	}
	var t time.Time
	switch x := v.Raw.(type) {
	case time.Time:
		t = x
	case string:
		parsed, ok := ParseSourceDate(x)
		if !ok {
			return Null()
		}
		t = parsed
	default:
		return Null()
	}
	y, m, d := t.Date()
	return Time(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// CleanHeader trims whitespace and surrounding quotes from a header cell.
func CleanHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
