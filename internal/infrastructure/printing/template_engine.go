package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	TemplateInvoice            = "invoice.html"
	TemplatePurchaseOrder      = "purchase_order.html"
	TemplatePurchaseOrderEmail = "purchase_order_email.html"
)

// TemplateEngine executes the embedded document templates with helpers for
// money, quantities and dates in the organization's locale.
type TemplateEngine struct {
	templates      *template.Template
	printer        *message.Printer
	titler         cases.Caser
	location       *time.Location
	currencySymbol string
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocation prints dates in loc instead of UTC.
func WithLocation(loc *time.Location) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithLanguage sets the locale used for number grouping.
func WithLanguage(tag language.Tag) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.printer = message.NewPrinter(tag)
		e.titler = cases.Title(tag)
	}
}

// WithCurrencySymbol sets the symbol placed before amounts. Defaults to "$".
func WithCurrencySymbol(symbol string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.currencySymbol = symbol
	}
}

// NewTemplateEngine parses the embedded templates.
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		printer:        message.NewPrinter(language.AmericanEnglish),
		titler:         cases.Title(language.AmericanEnglish),
		location:       time.UTC,
		currencySymbol: "$",
	}
	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New("documents").Funcs(e.funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	e.templates = tmpl
	return e, nil
}

func (e *TemplateEngine) funcMap() template.FuncMap {
	return template.FuncMap{
		"money":    e.formatMoney,
		"quantity": e.formatQuantity,
		"date":     e.formatDate,
		"title":    e.titleCase,
		"upper":    strings.ToUpper,
	}
}

// Execute renders the named template with data.
func (e *TemplateEngine) Execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute template "+name, err)
	}
	return buf.String(), nil
}

// formatMoney prints 1234.5 as "$1,234.50".
func (e *TemplateEngine) formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + e.currencySymbol + e.group(d.StringFixed(2))
}

// formatQuantity drops trailing zeros: 2.500 prints as "2.5".
func (e *TemplateEngine) formatQuantity(d decimal.Decimal) string {
	return e.group(d.String())
}

// group inserts the locale's thousands separators into a plain decimal string.
func (e *TemplateEngine) group(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	n, err := decimal.NewFromString(intPart)
	if err != nil {
		return s
	}
	grouped := e.printer.Sprintf("%d", n.IntPart())
	if hasFrac {
		return grouped + "." + fracPart
	}
	return grouped
}

// formatDate prints a long date such as "March 5, 2025".
func (e *TemplateEngine) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(e.location).Format("January 2, 2006")
}

func (e *TemplateEngine) titleCase(s string) string {
	return e.titler.String(strings.ToLower(s))
}
