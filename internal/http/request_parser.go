package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bilardo/internal/core"
)

// ReportFormat selects the representation of a report response.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatJSON ReportFormat = "json"
	FormatXLSX ReportFormat = "xlsx"
	FormatPDF  ReportFormat = "pdf"
)

var errInvalidQuantity = errors.New("invalid quantity")

// ReportParams holds the filter of a report request.
type ReportParams struct {
	Range  core.DateRange
	Format ReportFormat
}

// ParseFormat reads ?format=, defaulting to HTML.
func ParseFormat(query url.Values) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(query.Get("format")))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatJSON, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", errors.New("unsupported format: " + string(f))
	}
}

// ParseRangeParams reads ?from=&to= (YYYY-MM-DD, both optional) and ?format=.
// An inverted range is accepted and matches nothing.
func ParseRangeParams(query url.Values) (ReportParams, error) {
	format, err := ParseFormat(query)
	if err != nil {
		return ReportParams{}, err
	}
	rng, err := core.ParseDateRange(query.Get("from"), query.Get("to"))
	if err != nil {
		return ReportParams{}, err
	}
	return ReportParams{Range: rng, Format: format}, nil
}

// ParseDayParam reads ?date= (YYYY-MM-DD), defaulting to the day of now.
func ParseDayParam(query url.Values, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	return core.ParseDay(v)
}

// parseQuantity reads a strictly positive whole quantity.
func parseQuantity(form url.Values, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil || n <= 0 {
		return 0, errInvalidQuantity
	}
	return n, nil
}

// parseStock reads a non-negative opening stock; empty means zero.
func parseStock(form url.Values, key string) (int, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errInvalidQuantity
	}
	return n, nil
}

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formValue returns a sanitized form field.
func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.PostFormValue(key))
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Geçersiz istek biçimi")
	}
	return nil
}
