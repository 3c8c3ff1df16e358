// Package validate holds the per-field predicates applied to a sanitized
// payment submission. Fields are checked independently in a fixed order and
// every failure is reported, so a caller can surface the complete list at
// once. A required-but-empty field yields the generic required message
// instead of the field's format message.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tbensonwest/payform/internal/domain"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	cvcRe        = regexp.MustCompile(`^\d{3,4}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	postalRe     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

type fieldRule struct {
	field string
	label string
	value func(*domain.PaymentRequest) string
	check func(string) (bool, string)
}

// rules is the stable validation order: one entry per submitted field.
// Fields with a nil check are required-only.
var rules = []fieldRule{
	{"cardNumber", "Card number", func(r *domain.PaymentRequest) string { return r.CardNumber }, checkCardNumber},
	{"cvc", "CVC", func(r *domain.PaymentRequest) string { return r.CVC }, checkCVC},
	{"expiryDate", "Expiry date", func(r *domain.PaymentRequest) string { return r.ExpiryDate }, checkExpiry},
	{"amount", "Amount", func(r *domain.PaymentRequest) string { return r.Amount }, checkAmount},
	{"email", "Email", func(r *domain.PaymentRequest) string { return r.Email }, checkEmail},
	{"postalCode", "Postal code", func(r *domain.PaymentRequest) string { return r.PostalCode }, checkPostalCode},
	{"firstName", "First name", func(r *domain.PaymentRequest) string { return r.FirstName }, nil},
	{"lastName", "Last name", func(r *domain.PaymentRequest) string { return r.LastName }, nil},
	{"city", "City", func(r *domain.PaymentRequest) string { return r.City }, nil},
	{"state", "State", func(r *domain.PaymentRequest) string { return r.State }, nil},
}

// Payment runs every field rule against the sanitized request and returns
// the full list of failures, nil when the submission is clean.
func Payment(req *domain.PaymentRequest) []domain.FieldError {
	var errs []domain.FieldError
	for _, r := range rules {
		v := r.value(req)
		if strings.TrimSpace(v) == "" {
			errs = append(errs, domain.FieldError{Field: r.field, Message: r.label + " is required"})
			continue
		}
		if r.check == nil {
			continue
		}
		if ok, msg := r.check(v); !ok {
			errs = append(errs, domain.FieldError{Field: r.field, Message: msg})
		}
	}
	return errs
}

func checkCardNumber(v string) (bool, string) {
	if !cardNumberRe.MatchString(strings.ReplaceAll(v, " ", "")) {
		return false, "Card number must be 16 digits"
	}
	return true, ""
}

func checkCVC(v string) (bool, string) {
	if !cvcRe.MatchString(v) {
		return false, "CVC must be 3 or 4 digits"
	}
	return true, ""
}

func checkExpiry(v string) (bool, string) {
	return checkExpiryAt(v, time.Now())
}

// checkExpiryAt accepts MM/YY dates that are the current month/year or
// later, comparing against (year mod 100, month) of now.
func checkExpiryAt(v string, now time.Time) (bool, string) {
	m := expiryRe.FindStringSubmatch(v)
	if m == nil {
		return false, "Expiry date must be in MM/YY format"
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	nowYear := now.Year() % 100
	nowMonth := int(now.Month())
	if year < nowYear || (year == nowYear && month < nowMonth) {
		return false, "Card has expired"
	}
	return true, ""
}

func checkAmount(v string) (bool, string) {
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		return false, "Amount must be a number greater than 0"
	}
	return true, ""
}

func checkEmail(v string) (bool, string) {
	if !emailRe.MatchString(v) {
		return false, "Email address is invalid"
	}
	return true, ""
}

func checkPostalCode(v string) (bool, string) {
	if !postalRe.MatchString(v) {
		return false, "Postal code must be a valid ZIP code"
	}
	return true, ""
}
