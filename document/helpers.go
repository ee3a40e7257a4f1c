package document

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrDateOutOfRange    = errors.New("error parsing date")
)

// ExpiryStatus is the unambiguous validity of a document relative to a reference date.
type ExpiryStatus string

const (
	ExpiryValid   ExpiryStatus = "valid"
	ExpiryExpired ExpiryStatus = "expired"
	ExpiryUnknown ExpiryStatus = "unknown"
)

// Two-digit years more than this many years past the current two-digit year
// are placed in the previous century.
const centuryLookahead = 10

const displayLayout = "02/01/06"

func BoolToYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

// splitYYMMDD validates a 6-digit yymmdd string and returns its components.
func splitYYMMDD(dateStr string) (yy, mm, dd int, err error) {
	if len(dateStr) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateStr)
	}
	for _, c := range dateStr {
		if c < '0' || c > '9' {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateStr)
		}
	}
	// digits were checked above, Atoi cannot fail
	yy, _ = strconv.Atoi(dateStr[0:2])
	mm, _ = strconv.Atoi(dateStr[2:4])
	dd, _ = strconv.Atoi(dateStr[4:6])
	return yy, mm, dd, nil
}

// calendarDate builds a UTC date and rejects values time.Date would normalise
// (month 13, February 30, ...).
func calendarDate(year, month, day int) (time.Time, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrDateOutOfRange, year, month, day)
	}
	return date, nil
}

// ParseDate resolves a yymmdd string into a calendar date. A two-digit year
// greater than the current two-digit year plus 10 is read as 19yy, every other
// year as 20yy.
func ParseDate(dateStr string, now time.Time) (time.Time, error) {
	yy, mm, dd, err := splitYYMMDD(dateStr)
	if err != nil {
		return time.Time{}, err
	}

	century := 2000
	if yy > now.Year()%100+centuryLookahead {
		century = 1900
	}

	return calendarDate(century+yy, mm, dd)
}

// ParseExpiryDate resolves the expiration date of a travel document.
func ParseExpiryDate(dateStr string, now time.Time) (time.Time, error) {
	return ParseDate(dateStr, now)
}

// ParseDateOfBirth resolves a birth date. Birth dates cannot lie in the future,
// so a date that would do so is moved back a century.
func ParseDateOfBirth(dateStr string, now time.Time) (time.Time, error) {
	yy, mm, dd, err := splitYYMMDD(dateStr)
	if err != nil {
		return time.Time{}, err
	}

	parsedDate, err := calendarDate(2000+yy, mm, dd)
	if err != nil {
		return time.Time{}, err
	}

	if parsedDate.After(startOfDay(now)) {
		parsedDate = parsedDate.AddDate(-100, 0, 0)
	}
	return parsedDate, nil
}

// IsExpired reports whether the expiration date lies strictly after the
// calendar date of now. Note the inverted naming: true means the document is
// still valid. ExpiryStatusOf gives the unambiguous status.
func IsExpired(expirationDate string, now time.Time) (bool, error) {
	expiry, err := ParseExpiryDate(expirationDate, now)
	if err != nil {
		return false, fmt.Errorf("failed to parse date of expiry: %w", err)
	}
	return startOfDay(now).Before(expiry), nil
}

// ExpiryStatusOf evaluates IsExpired and maps an unparsable date to ExpiryUnknown.
func ExpiryStatusOf(expirationDate string, now time.Time) (bool, ExpiryStatus) {
	isExpired, err := IsExpired(expirationDate, now)
	if err != nil {
		return false, ExpiryUnknown
	}
	if isExpired {
		return true, ExpiryValid
	}
	return false, ExpiryExpired
}

// FormatDisplayDate renders a yymmdd string as dd/mm/yy, or "" when it cannot be parsed.
func FormatDisplayDate(dateStr string, now time.Time) string {
	date, err := ParseDate(dateStr, now)
	if err != nil {
		return ""
	}
	return date.Format(displayLayout)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
