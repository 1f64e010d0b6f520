// Package validation holds the product draft rule set shared by the create and
// edit forms. Rules are pure: they never perform I/O and never panic.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"tokoadmin/internal/format"
)

// Field names a validated draft field.
type Field string

const (
	FieldName        Field = "name"
	FieldPrice       Field = "price"
	FieldDescription Field = "description"
	FieldColors      Field = "colors"
)

// Reason is the machine-checkable cause of a violation.
type Reason string

const (
	TooShort   Reason = "TooShort"
	TooLong    Reason = "TooLong"
	NotANumber Reason = "NotANumber"
	TooLow     Reason = "TooLow"
	TooHigh    Reason = "TooHigh"
	Negative   Reason = "Negative"
)

// Bounds enforced by the backend and mirrored here.
const (
	NameMin        = 3
	NameMax        = 50
	DescriptionMin = 5
	DescriptionMax = 200

	// DefaultPriceCeiling is the maximum accepted price. Form variants have
	// disagreed between 5,000 and 100,000; deployments override it with
	// PRICE_CEILING rather than editing call sites.
	DefaultPriceCeiling = 5000
)

// Violation is a single field-scoped rule failure.
type Violation struct {
	Field   Field  `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Violations is an ordered list of rule failures. A nil or empty list means valid.
type Violations []Violation

func (v Violations) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Valid reports whether no rule failed.
func (v Violations) Valid() bool {
	return len(v) == 0
}

// ForField returns the violations of one field, in order.
func (v Violations) ForField(f Field) Violations {
	var out Violations
	for _, e := range v {
		if e.Field == f {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether field f failed with reason r.
func (v Violations) Has(f Field, r Reason) bool {
	for _, e := range v {
		if e.Field == f && e.Reason == r {
			return true
		}
	}
	return false
}

// Fields maps each failing field to its first message.
func (v Violations) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := fields[string(e.Field)]; !ok {
			fields[string(e.Field)] = e.Message
		}
	}
	return fields
}

// Draft is the candidate product as typed by the operator. Price is kept as
// raw text and coerced during validation.
type Draft struct {
	Name        string
	Price       string
	Description string
	Colors      []string
}

// Config parameterizes the rule set.
type Config struct {
	// PriceCeiling is the inclusive upper price bound. Zero selects DefaultPriceCeiling.
	PriceCeiling decimal.Decimal
	// RequireDescription rejects an empty description. Edit forms turn it off
	// because records may have no description at rest.
	RequireDescription bool
}

// Rules validates drafts.
type Rules struct {
	validate           *validator.Validate
	ceiling            decimal.Decimal
	requireDescription bool
}

// New builds a rule set.
func New(cfg Config) *Rules {
	ceiling := cfg.PriceCeiling
	if ceiling.IsZero() {
		ceiling = decimal.NewFromInt(DefaultPriceCeiling)
	}
	return &Rules{
		validate:           validator.New(),
		ceiling:            ceiling,
		requireDescription: cfg.RequireDescription,
	}
}

// PriceCeiling returns the configured inclusive price maximum.
func (r *Rules) PriceCeiling() decimal.Decimal {
	return r.ceiling
}

// Validate runs every rule against d. Violations are ordered name, price, description.
func (r *Rules) Validate(d Draft) Violations {
	var out Violations
	out = append(out, r.checkName(d.Name)...)
	out = append(out, r.checkPrice(d.Price)...)
	out = append(out, r.checkDescription(d.Description)...)
	return out
}

// ValidateField runs only the rules of one field. Colors always pass.
func (r *Rules) ValidateField(f Field, d Draft) Violations {
	switch f {
	case FieldName:
		return r.checkName(d.Name)
	case FieldPrice:
		return r.checkPrice(d.Price)
	case FieldDescription:
		return r.checkDescription(d.Description)
	default:
		return nil
	}
}

// CoercePrice parses price text. Blank, malformed, NaN and infinite inputs fail.
func (r *Rules) CoercePrice(text string) (decimal.Decimal, bool) {
	return CoercePrice(text)
}

// CoercePrice parses price text. Blank, malformed, NaN and infinite inputs fail.
func CoercePrice(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return p, true
}

func (r *Rules) checkName(name string) Violations {
	return r.checkLength(FieldName, name, NameMin, NameMax)
}

func (r *Rules) checkDescription(desc string) Violations {
	if desc == "" && !r.requireDescription {
		return nil
	}
	return r.checkLength(FieldDescription, desc, DescriptionMin, DescriptionMax)
}

// checkLength counts code points, as validator's min/max tags do for strings.
func (r *Rules) checkLength(f Field, value string, lo, hi int) Violations {
	err := r.validate.Var(value, fmt.Sprintf("min=%d,max=%d", lo, hi))
	if err == nil {
		return nil
	}
	// A string checked against fixed min/max tags only fails with ValidationErrors.
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	var out Violations
	for _, fe := range verrs {
		switch fe.Tag() {
		case "min":
			out = append(out, Violation{
				Field:   f,
				Reason:  TooShort,
				Message: fmt.Sprintf("%s must be at least %d characters", f, lo),
			})
		case "max":
			out = append(out, Violation{
				Field:   f,
				Reason:  TooLong,
				Message: fmt.Sprintf("%s must be at most %d characters", f, hi),
			})
		}
	}
	return out
}

func (r *Rules) checkPrice(text string) Violations {
	p, ok := CoercePrice(text)
	if !ok {
		return Violations{{Field: FieldPrice, Reason: NotANumber, Message: "price must be a number"}}
	}
	var out Violations
	if !p.IsPositive() {
		out = append(out, Violation{Field: FieldPrice, Reason: TooLow, Message: "price must be greater than 0"})
	}
	if p.IsNegative() {
		out = append(out, Violation{Field: FieldPrice, Reason: Negative, Message: "price must not be negative"})
	}
	if p.GreaterThan(r.ceiling) {
		out = append(out, Violation{
			Field:   FieldPrice,
			Reason:  TooHigh,
			Message: fmt.Sprintf("price must not exceed %s", format.Price(r.ceiling.InexactFloat64())),
		})
	}
	return out
}
