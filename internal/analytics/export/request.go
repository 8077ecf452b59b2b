// Package export simulates analytics exports. A request is queued, marked as
// exporting while a worker waits out the simulated latency, then reported as
// complete for a short hold before it expires. No file is produced.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest wraps every validation failure.
var ErrInvalidRequest = errors.New("export: invalid request")

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatPDF   Format = "pdf"
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// Option is one selectable value of the export dialog.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Formats lists the formats in display order.
var Formats = []Option{
	{Value: string(FormatPDF), Label: "PDF Report"},
	{Value: string(FormatCSV), Label: "CSV Data"},
	{Value: string(FormatExcel), Label: "Excel Workbook"},
}

// DateRanges lists the exportable ranges in display order.
var DateRanges = []Option{
	{Value: "7days", Label: "Last 7 days"},
	{Value: "30days", Label: "Last 30 days"},
	{Value: "3months", Label: "Last 3 months"},
	{Value: "6months", Label: "Last 6 months"},
	{Value: "1year", Label: "Last year"},
}

// Request selects what to export.
type Request struct {
	Format    Format `json:"format" validate:"required,oneof=pdf csv excel"`
	DateRange string `json:"date_range" validate:"required,oneof=7days 30days 3months 6months 1year"`
}

// DefaultRequest is the dialog's initial selection.
func DefaultRequest() Request {
	return Request{Format: FormatPDF, DateRange: "30days"}
}

var validate = validator.New()

// Validate checks r against the offered formats and ranges.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
}
