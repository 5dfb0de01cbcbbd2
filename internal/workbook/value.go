// Package workbook reads spreadsheet workbooks into in-memory grids of typed cell values.
package workbook

import (
	"strconv"
	"time"
)

// Kind is the variant tag of a cell Value.
type Kind int

const (
	// Empty is an absent or blank cell.
	Empty Kind = iota
	// Text is a string cell (also booleans and error literals).
	Text
	// Number is a numeric cell without a date format.
	Number
	// Date is a numeric cell with a date or time format, or an ISO date cell.
	Date
)

// String returns the name of k.
func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Text:
		return "text"
	case Number:
		return "number"
	case Date:
		return "date"
	}
	return "unknown"
}

// Value is a single cell value. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

// TextValue returns a Text value.
func TextValue(s string) Value { return Value{Kind: Text, Text: s} }

// NumberValue returns a Number value.
func NumberValue(f float64) Value { return Value{Kind: Number, Number: f} }

// DateValue returns a Date value.
func DateValue(t time.Time) Value { return Value{Kind: Date, Time: t} }

// IsEmpty reports whether v holds no value.
func (v Value) IsEmpty() bool { return v.Kind == Empty }

// String renders v the way label matching and text columns see it.
// Numbers use the shortest decimal form and dates render as "2006-01-02 15:04:05".
func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Text
	case Number:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case Date:
		return v.Time.Format("2006-01-02 15:04:05")
	}
	return ""
}
