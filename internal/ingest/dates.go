package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	internal "github.com/wytlabs/cardops/internal"
)

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var machineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var monthNameLayouts = []string{
	"2-Jan-06",
	"02-Jan-06",
	"2-Jan-2006",
	"02-Jan-2006",
}

// ResolveDate parses the heterogeneous date representations that show up
// in card exports. Resolution order, first success wins:
//  1. already a time.Time
//  2. numeric: a serial day count from the spreadsheet epoch
//  3. machine-readable date string
//  4. D[D]-MMM-YY[YY]
//  5. three numeric parts split on - or /, disambiguating day vs month
//
// The day/month guess when both parts are <= 12 defaults to month-day-year.
// That matches the historical data, not every locale.
func ResolveDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case float64:
		return fromSerial(v), nil
	case int:
		return fromSerial(float64(v)), nil
	case int64:
		return fromSerial(float64(v)), nil
	case string:
		return resolveDateString(v)
	}
	return time.Time{}, invalidDate(value)
}

func resolveDateString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, invalidDate(raw)
	}

	// Spreadsheet cells frequently surface serial dates as bare numbers.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(serial), nil
	}

	for _, layout := range machineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	for _, layout := range monthNameLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if t, ok := resolveThreePart(s); ok {
		return t, nil
	}

	return time.Time{}, invalidDate(raw)
}

// fromSerial converts a day count from the spreadsheet epoch, splitting
// whole days from the fractional remainder and rounding the remainder to
// the nearest second.
func fromSerial(serial float64) time.Time {
	days := math.Floor(serial)
	frac := serial - days
	seconds := math.Round(frac * 86400)
	return spreadsheetEpoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second)
}

// DateToSerial is the inverse of serial resolution, used when writing
// spreadsheet exports.
func DateToSerial(t time.Time) float64 {
	d := t.Sub(spreadsheetEpoch)
	return math.Round(d.Seconds()) / 86400
}

func resolveThreePart(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == 2 && len(part) == 2 {
			part = "20" + part
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var day, month int
	switch {
	case nums[0] > 12:
		day, month = nums[0], nums[1]
	case nums[1] > 12:
		month, day = nums[0], nums[1]
	default:
		// Ambiguous; defaults to month-day-year to match existing data.
		month, day = nums[0], nums[1]
	}
	year := nums[2]

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

func invalidDate(value any) *internal.AppError {
	return internal.NewValidationError("value is not a recognizable date", internal.ErrCodeInvalidDate).
		WithDetails(map[string]any{"value": value})
}
