package csvimport

import (
	"fmt"
	"strings"
)

// Row error codes
const (
	CodeRequired        = "REQUIRED"
	CodeInvalidType     = "INVALID_TYPE"
	CodeInvalidLength   = "INVALID_LENGTH"
	CodeOutOfRange      = "OUT_OF_RANGE"
	CodeNotAllowed      = "NOT_ALLOWED"
	CodeDuplicateInFile = "DUPLICATE_IN_FILE"
	CodeDuplicateInDB   = "DUPLICATE_IN_DB"
	CodeInvalidRow      = "INVALID_ROW"
	CodeInvalidEncoding = "INVALID_ENCODING"
)

// RowError describes one problem with one cell.
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Message)
}

// ErrorCollection keeps the first max errors and counts the rest.
type ErrorCollection struct {
	max    int
	errors []RowError
	total  int
}

// NewErrorCollection creates a collection; max <= 0 keeps 100.
func NewErrorCollection(max int) *ErrorCollection {
	if max <= 0 {
		max = 100
	}
	return &ErrorCollection{max: max}
}

// Add records an error.
func (c *ErrorCollection) Add(err RowError) {
	c.total++
	if len(c.errors) < c.max {
		c.errors = append(c.errors, err)
	}
}

// Addf records an error with a formatted message.
func (c *ErrorCollection) Addf(line int, column, code, value, format string, args ...any) {
	c.Add(RowError{Line: line, Column: column, Code: code, Message: fmt.Sprintf(format, args...), Value: value})
}

// Errors returns the retained errors.
func (c *ErrorCollection) Errors() []RowError {
	return c.errors
}

// Total counts every error added, retained or not.
func (c *ErrorCollection) Total() int {
	return c.total
}

// HasErrors reports whether any error was added.
func (c *ErrorCollection) HasErrors() bool {
	return c.total > 0
}

// Truncated reports whether errors were dropped.
func (c *ErrorCollection) Truncated() bool {
	return c.total > len(c.errors)
}

func (c *ErrorCollection) String() string {
	if c.total == 0 {
		return "no errors"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s)", c.total)
	for _, err := range c.errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	if c.Truncated() {
		fmt.Fprintf(&b, "\n  ... and %d more", c.total-len(c.errors))
	}
	return b.String()
}
