package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is how dates are written to the sheet ("19 Oct 2026").
const DateLayout = "02 Jan 2006"

// isoDateLayout also accepts an unpadded month and day ("2026-1-5").
const isoDateLayout = "2006-1-2"

// DefaultTimezone is the school's local zone.
const DefaultTimezone = "Asia/Kolkata"

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD calendar dates.
var ErrInvalidDate = errors.New("invalid date")

// indiaStandardTime stands in for Asia/Kolkata when no tz database is available.
var indiaStandardTime = time.FixedZone("IST", 5*60*60+30*60)

// LoadLocation resolves a zone name. Asia/Kolkata falls back to a fixed
// +05:30 offset, which is exact since India has no daylight saving.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == DefaultTimezone || name == "IST" {
		return indiaStandardTime, nil
	}
	return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
}

// DateFormatter renders dates in one fixed zone.
type DateFormatter struct {
	loc *time.Location
	now func() time.Time
}

// NewDateFormatter creates a formatter for loc using the wall clock.
func NewDateFormatter(loc *time.Location) *DateFormatter {
	return &DateFormatter{loc: loc, now: time.Now}
}

// Now is the current time in the formatter's zone.
func (d *DateFormatter) Now() time.Time {
	return d.now().In(d.loc)
}

// Today formats the current date.
func (d *DateFormatter) Today() string {
	return d.Format(d.now())
}

// Format converts t to the formatter's zone before formatting it.
func (d *DateFormatter) Format(t time.Time) string {
	return t.In(d.loc).Format(DateLayout)
}

// FormatISO reformats a YYYY-MM-DD calendar date.
func (d *DateFormatter) FormatISO(s string) (string, error) {
	t, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(s), d.loc)
	if err != nil {
		return "", fmt.Errorf("%w: %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t.Format(DateLayout), nil
}

// FormatOrToday formats s, or today's date when s is blank.
func (d *DateFormatter) FormatOrToday(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return d.Today(), nil
	}
	return d.FormatISO(s)
}
