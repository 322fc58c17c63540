// Package validation holds the client-side field rules for the identity and
// payment forms. Every check is pure: it never performs I/O and never panics,
// and it reports either "" or a fixed human-readable message.
package validation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

var (
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex   = regexp.MustCompile(`^[A-Za-z][A-Za-z '\-]{1,49}$`)
	cardRegex   = regexp.MustCompile(`^[0-9]{16}$`)
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvRegex    = regexp.MustCompile(`^[0-9]{3,4}$`)
	postalRegex = regexp.MustCompile(`^[0-9]{4,10}$`)
)

// Countries accepted by the payment form.
var Countries = []string{"Pakistan", "USA", "UK"}

const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldCardNumber = "cardNumber"
	FieldExpiry     = "expiry"
	FieldCVV        = "cvv"
	FieldCountry    = "country"
	FieldPostalCode = "postalCode"
	FieldCoupon     = "coupon"
	FieldEmail      = "email"
)

// Rule is one field of the payment schema. Tag is a validator/v10 tag run
// against the field value; Message is reported when it fails.
type Rule struct {
	Label    string
	Required bool
	Tag      string
	Message  string
}

// PaymentSchema describes every payment form field.
var PaymentSchema = map[string]Rule{
	FieldFirstName:  {Label: "First name", Required: true, Tag: "personname", Message: "First name must be 2-50 letters"},
	FieldLastName:   {Label: "Last name", Required: true, Tag: "personname", Message: "Last name must be 2-50 letters"},
	FieldCardNumber: {Label: "Card number", Required: true, Tag: "cardnumber", Message: "Card number must be 16 digits"},
	FieldExpiry:     {Label: "Expiry", Required: true, Tag: "expiry", Message: "Expiry must be in MM/YY format"},
	FieldCVV:        {Label: "CVV", Required: true, Tag: "cvv", Message: "CVV must be 3 or 4 digits"},
	FieldCountry:    {Label: "Country", Required: true, Tag: "oneof=" + strings.Join(Countries, " "), Message: "Please select a valid country"},
	FieldPostalCode: {Label: "Postal code", Required: true, Tag: "postalcode4to10", Message: "Postal code must be 4-10 digits"},
	FieldCoupon:     {Label: "Coupon code", Required: false, Tag: "alphanum", Message: "Coupon code must be alphanumeric"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	register := func(tag string, re *regexp.Regexp) {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	register("personname", nameRegex)
	register("expiry", expiryRegex)
	register("cvv", cvvRegex)
	register("postalcode4to10", postalRegex)
	_ = v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		return cardRegex.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
	})
	return v
}

// ValidateEmail returns "" for a usable address, otherwise a message.
func ValidateEmail(value string) string {
	if value == "" {
		return "Email is required"
	}
	if !emailRegex.MatchString(value) {
		return "Please enter a valid email address"
	}
	return ""
}

// ValidateField checks one payment field against PaymentSchema. Unknown
// fields are always valid.
func ValidateField(field, value string) string {
	rule, ok := PaymentSchema[field]
	if !ok {
		return ""
	}
	if strings.TrimSpace(value) == "" {
		if rule.Required {
			return rule.Label + " is required"
		}
		return ""
	}
	if err := validate.Var(value, rule.Tag); err != nil {
		return rule.Message
	}
	return ""
}

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Check records message under field when it is non-empty.
func (e Errors) Check(field, message string) {
	if message != "" {
		e[field] = message
	}
}

// ValidatePaymentForm runs every schema rule over the form.
func ValidatePaymentForm(form models.PaymentForm) Errors {
	errs := Errors{}
	errs.Check(FieldFirstName, ValidateField(FieldFirstName, form.FirstName))
	errs.Check(FieldLastName, ValidateField(FieldLastName, form.LastName))
	errs.Check(FieldCardNumber, ValidateField(FieldCardNumber, form.CardNumber))
	errs.Check(FieldExpiry, ValidateField(FieldExpiry, form.Expiry))
	errs.Check(FieldCVV, ValidateField(FieldCVV, form.CVV))
	errs.Check(FieldCountry, ValidateField(FieldCountry, form.Country))
	errs.Check(FieldPostalCode, ValidateField(FieldPostalCode, form.PostalCode))
	errs.Check(FieldCoupon, ValidateField(FieldCoupon, form.Coupon))
	return errs
}

// ValidateCoupon is used when a coupon is applied on its own, where an empty
// code is an error rather than "no coupon".
func ValidateCoupon(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Coupon code is required"
	}
	return ValidateField(FieldCoupon, code)
}
