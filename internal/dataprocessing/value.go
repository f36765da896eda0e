package dataprocessing

import (
	"strconv"
	"strings"
	"time"
)

type valueKind uint8

const (
	kindNull valueKind = iota
	kindString
	kindFloat
	kindInt
	kindTime
)

// Value is a loosely typed cell produced by an extractor. Exactly one of the
// payload fields is meaningful, selected by kind.
type Value struct {
	kind valueKind
	s    string
	f    float64
	i    int64
	t    time.Time
}

// RawRecord maps a format specific field name to its extracted value.
type RawRecord map[string]Value

func String(s string) Value { return Value{kind: kindString, s: s} }
func Float(f float64) Value { return Value{kind: kindFloat, f: f} }
func Int(i int64) Value { return Value{kind: kindInt, i: i} }
func Time(t time.Time) Value { return Value{kind: kindTime, t: t} }
func (v Value) IsNull() bool { return v.kind == kindNull }
func (v Value) IsTime() bool { return v.kind == kindTime }
func (v Value) IsNumeric() bool { return v.kind == kindFloat || v.kind == kindInt }

// AsString renders the value as text. Whole floats print without a fraction
// so that bill numbers read from spreadsheets stay "1024" and not "1024.0".
func (v Value) AsString() string {
	switch v.kind {
	case kindString:
		return v.s
	case kindFloat:
		if v.f == float64(int64(v.f)) {
			return strconv.FormatInt(int64(v.f), 10)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindTime:
		return v.t.Format("2006-01-02")
	}
	return ""
}

// AsFloat converts the value to a float. Text is parsed after removing
// thousands separators.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case kindFloat:
		return v.f, true
	case kindInt:
		return float64(v.i), true
	case kindString:
		return parseNumber(v.s)
	}
	return 0, false
}

// AsInt converts the value to an integer, truncating fractions.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case kindInt:
		return v.i, true
	case kindFloat:
		return int64(v.f), true
	case kindString:
		f, ok := parseNumber(v.s)
		return int64(f), ok
	}
	return 0, false
}

// AsTime returns the time payload.
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == kindTime
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
