package csvimport

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType is the expected cell type.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDecimal FieldType = "decimal"
)

// FieldRule validates one column.
type FieldRule struct {
	Column    string
	Required  bool
	Type      FieldType
	MaxLength int
	Min       *decimal.Decimal
	// Allowed restricts values, compared case-insensitively.
	Allowed []string
	Unique  bool
}

// FieldRuleBuilder provides a fluent interface for rules.
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a string rule for a column.
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: normalizeHeader(column), Type: TypeString}}
}

// Required rejects blank cells.
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal expects a decimal number.
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// MaxLength caps the length in characters.
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Min sets the smallest accepted decimal.
func (b *FieldRuleBuilder) Min(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.Min = &v
	return b
}

// OneOf restricts the cell to a set of values.
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.Allowed = values
	return b
}

// Unique rejects a value repeated within the file.
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Build returns the rule.
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator applies rules to rows and collects the failures.
type Validator struct {
	rules  []FieldRule
	seen   map[string]map[string]int
	errors *ErrorCollection
}

// NewValidator checks rows against rules in rule order.
func NewValidator(rules []FieldRule, errs *ErrorCollection) *Validator {
	return &Validator{
		rules:  rules,
		seen:   map[string]map[string]int{},
		errors: errs,
	}
}

// Errors returns the shared error collection.
func (v *Validator) Errors() *ErrorCollection {
	return v.errors
}

// ValidateRow reports whether every rule passed for the row.
func (v *Validator) ValidateRow(row *Row) bool {
	ok := true
	for _, column := range row.InvalidEncoding {
		v.errors.Addf(row.Line, column, CodeInvalidEncoding, row.Get(column), "must be UTF-8 encoded")
		ok = false
	}
	for _, rule := range v.rules {
		if !v.check(row, rule) {
			ok = false
		}
	}
	return ok
}

func (v *Validator) check(row *Row, rule FieldRule) bool {
	value := row.Get(rule.Column)
	if value == "" {
		if rule.Required {
			v.errors.Addf(row.Line, rule.Column, CodeRequired, "", "%s is required", rule.Column)
			return false
		}
		return true
	}

	if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
		v.errors.Addf(row.Line, rule.Column, CodeInvalidLength, value, "must be at most %d characters", rule.MaxLength)
		return false
	}

	if rule.Type == TypeDecimal {
		d, err := decimal.NewFromString(value)
		if err != nil {
			v.errors.Addf(row.Line, rule.Column, CodeInvalidType, value, "must be a number")
			return false
		}
		if rule.Min != nil && d.LessThan(*rule.Min) {
			v.errors.Addf(row.Line, rule.Column, CodeOutOfRange, value, "must be at least %s", rule.Min.String())
			return false
		}
	}

	if len(rule.Allowed) > 0 && !containsFold(rule.Allowed, value) {
		v.errors.Addf(row.Line, rule.Column, CodeNotAllowed, value, "must be one of %s", strings.Join(rule.Allowed, ", "))
		return false
	}

	if rule.Unique {
		key := strings.ToLower(value)
		seen := v.seen[rule.Column]
		if seen == nil {
			seen = map[string]int{}
			v.seen[rule.Column] = seen
		}
		if first, dup := seen[key]; dup {
			v.errors.Addf(row.Line, rule.Column, CodeDuplicateInFile, value, "duplicate value (first seen on line %d)", first)
			return false
		}
		seen[key] = row.Line
	}
	return true
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

// DecimalOrZero parses a cell already checked by a decimal rule.
func DecimalOrZero(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ColumnList formats column names for messages.
func ColumnList(columns []string) string {
	return fmt.Sprintf("[%s]", strings.Join(columns, ", "))
}
