// Package printing renders invoices and purchase orders to HTML with
// html/template and to PDF with headless Chrome.
package printing

import (
	"context"
	"time"
)

// PaperSize is a page size in millimetres.
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

// Supported paper sizes.
var (
	PaperA4     = PaperSize{Name: "A4", Width: 210, Height: 297}
	PaperLetter = PaperSize{Name: "LETTER", Width: 215.9, Height: 279.4}
)

// IsValid reports whether both dimensions are positive.
func (p PaperSize) IsValid() bool {
	return p.Width > 0 && p.Height > 0
}

// Margins in millimetres.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins matches the padding of the printed documents.
var DefaultMargins = Margins{Top: 14, Right: 14, Bottom: 14, Left: 14}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	Landscape bool
	Margins   Margins
	// FooterHTML is printed on every page when set.
	FooterHTML string
	// Timeout overrides the renderer default.
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
