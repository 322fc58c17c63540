package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

func validForm() models.PaymentForm {
	return models.PaymentForm{
		FirstName:  "Ayesha",
		LastName:   "Khan",
		CardNumber: "4242 4242 4242 4242",
		Expiry:     "09/28",
		CVV:        "123",
		Country:    "Pakistan",
		PostalCode: "54000",
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", "Email is required"},
		{"no at", "user.example.com", "Please enter a valid email address"},
		{"no dot in domain", "user@example", "Please enter a valid email address"},
		{"whitespace", "us er@example.com", "Please enter a valid email address"},
		{"double at", "a@b@c.com", "Please enter a valid email address"},
		{"plain", "user@example.com", ""},
		{"subdomain", "first.last@mail.example.co", ""},
		{"plus", "user+tag@example.io", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.value))
		})
	}
}

func TestValidateEmail_AgreesWithPattern(t *testing.T) {
	inputs := []string{"", " ", "@", "a@", "@b.c", "a@b.c", "a@b.", "a b@c.d", "x@y.z.w", "ü@ö.de"}
	for _, in := range inputs {
		msg := ValidateEmail(in)
		if emailRegex.MatchString(in) {
			assert.Empty(t, msg, in)
		} else {
			assert.NotEmpty(t, msg, in)
		}
	}
}

func TestValidatePaymentForm_Valid(t *testing.T) {
	errs := ValidatePaymentForm(validForm())
	assert.True(t, errs.Valid(), errs)
}

func TestValidatePaymentForm_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PaymentForm)
		field  string
		msg    string
	}{
		{"missing first name", func(f *models.PaymentForm) { f.FirstName = "" }, FieldFirstName, "First name is required"},
		{"digits in last name", func(f *models.PaymentForm) { f.LastName = "K4n" }, FieldLastName, "Last name must be 2-50 letters"},
		{"short card", func(f *models.PaymentForm) { f.CardNumber = "4242 4242" }, FieldCardNumber, "Card number must be 16 digits"},
		{"card with letters", func(f *models.PaymentForm) { f.CardNumber = "4242abcd42424242" }, FieldCardNumber, "Card number must be 16 digits"},
		{"month 13", func(f *models.PaymentForm) { f.Expiry = "13/28" }, FieldExpiry, "Expiry must be in MM/YY format"},
		{"no slash", func(f *models.PaymentForm) { f.Expiry = "0928" }, FieldExpiry, "Expiry must be in MM/YY format"},
		{"cvv too long", func(f *models.PaymentForm) { f.CVV = "12345" }, FieldCVV, "CVV must be 3 or 4 digits"},
		{"unknown country", func(f *models.PaymentForm) { f.Country = "France" }, FieldCountry, "Please select a valid country"},
		{"postal letters", func(f *models.PaymentForm) { f.PostalCode = "SW1A1AA" }, FieldPostalCode, "Postal code must be 4-10 digits"},
		{"postal too short", func(f *models.PaymentForm) { f.PostalCode = "123" }, FieldPostalCode, "Postal code must be 4-10 digits"},
		{"coupon symbols", func(f *models.PaymentForm) { f.Coupon = "SAVE-10" }, FieldCoupon, "Coupon code must be alphanumeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			errs := ValidatePaymentForm(form)
			assert.False(t, errs.Valid())
			assert.Equal(t, tt.msg, errs[tt.field])
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidateField(t *testing.T) {
	assert.Empty(t, ValidateField(FieldCoupon, ""), "coupon is optional")
	assert.Empty(t, ValidateField(FieldCoupon, "SAVE10"))
	assert.Empty(t, ValidateField(FieldCVV, "1234"))
	assert.Empty(t, ValidateField(FieldCountry, "UK"))
	assert.Empty(t, ValidateField("nickname", "anything"))
	assert.Equal(t, "CVV is required", ValidateField(FieldCVV, "   "))
}

func TestValidateCoupon(t *testing.T) {
	assert.Equal(t, "Coupon code is required", ValidateCoupon(""))
	assert.Equal(t, "Coupon code must be alphanumeric", ValidateCoupon("10%OFF"))
	assert.Empty(t, ValidateCoupon("WELCOME5"))
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{FieldCVV: "bad cvv", FieldCardNumber: "bad card"}
	assert.Equal(t, "validation failed: cardNumber: bad card; cvv: bad cvv", errs.Error())
}
