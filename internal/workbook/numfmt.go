package workbook

import (
	"regexp"
	"strings"
)

// builtInDateFormats are the built-in number format IDs that render a date or time,
// including the East Asian locale formats.
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var (
	bracketed      = regexp.MustCompile(`\[[^\]]*\]`)
	nonDateFormats = map[string]bool{"general": true, "@": true, "0.00e+00": true, "##0.0e+0": true}
)

// builtInTimeFormats are the built-in date format IDs that show only a time of day or a duration.
var builtInTimeFormats = map[int]bool{18: true, 19: true, 20: true, 21: true, 45: true, 46: true, 47: true}

type formatKind int

const (
	plainFormat formatKind = iota
	dateFormat
	timeFormat
)

// classifyFormat tells plain numbers, dates and time-only formats apart.
// A custom format wins over the built-in ID.
func classifyFormat(numFmt int, custom *string) formatKind {
	if custom != nil && *custom != "" {
		switch {
		case !isDateFormatCode(*custom):
			return plainFormat
		case isTimeFormatCode(*custom):
			return timeFormat
		}
		return dateFormat
	}
	switch {
	case builtInTimeFormats[numFmt]:
		return timeFormat
	case builtInDateFormats[numFmt]:
		return dateFormat
	}
	return plainFormat
}

// isTimeFormatCode reports whether a date format code shows no year or day, as in h:mm or [h]:mm:ss.
// A bare m is read as minutes there.
func isTimeFormatCode(code string) bool {
	reduced := strings.ToLower(reduceFormatCode(code))
	return !strings.ContainsAny(reduced, "yd") && strings.ContainsAny(reduced, "hs")
}

// isDateFormatCode applies the usual heuristic: drop quoted literals, escaped characters
// and [bracketed] sections; a date format then has at least one of y m d h s and none of
// the digit placeholders 0 # ?.
func isDateFormatCode(code string) bool {
	reduced := reduceFormatCode(code)
	if nonDateFormats[strings.ToLower(strings.TrimSpace(reduced))] {
		return false
	}
	dates, digits := 0, 0
	for _, r := range strings.ToLower(reduced) {
		switch r {
		case 'y', 'm', 'd', 'h', 's':
			dates++
		case '0', '#', '?':
			digits++
		}
	}
	return dates > 0 && digits == 0
}

// reduceFormatCode keeps the positive section of a format code without literals or brackets.
func reduceFormatCode(code string) string {
	// Only the positive section decides.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	var b strings.Builder
	inQuote, escaped := false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case r == '"':
			inQuote = true
		case r == '\\' || r == '_' || r == '*':
			escaped = true
		default:
			b.WriteRune(r)
		}
	}
	return bracketed.ReplaceAllString(b.String(), "")
}
