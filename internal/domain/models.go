package domain

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the lifecycle state of a stored payment. Only the four
// enumerated values are ever persisted.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is one of the persistable statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// User is an admin identity. Password is opaque to the storage layer;
// callers put a bcrypt hash there.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Payment is a stored transaction record. CardNumber holds only the masked
// form; the raw number never reaches a persisted Payment. CVC is kept out of
// every JSON rendering.
type Payment struct {
	ID            int64         `json:"id"`
	TransactionID string        `json:"transactionId"`
	CardNumber    string        `json:"cardNumber"`
	CVC           string        `json:"-"`
	ExpiryDate    string        `json:"expiryDate"`
	Amount        string        `json:"amount"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Email         string        `json:"email"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	PostalCode    string        `json:"postalCode"`
	Message       *string       `json:"message"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// CustomerName is the display name used in receipts and lookup responses.
func (p *Payment) CustomerName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PaymentRequest is the DTO for an incoming form submission. Every field
// arrives untrusted and passes through sanitization before validation.
type PaymentRequest struct {
	CardNumber string `json:"cardNumber"`
	CVC        string `json:"cvc"`
	ExpiryDate string `json:"expiryDate"`
	Amount     string `json:"amount"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Message    string `json:"message"`
}

// PaymentUpdate carries the mutable fields of a payment. Nil fields are left
// untouched; UpdatedAt is refreshed on every applied update regardless.
type PaymentUpdate struct {
	Status  *PaymentStatus
	Message *string
}

// FieldError is one failed check, addressed by submitted field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every failing field of a submission so the
// caller can report all of them at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// maskChar replaces every character of a stored card number except the last four.
const maskChar = "*"

// MaskCardNumber irreversibly hides all but the last 4 characters. Values of
// 4 characters or fewer pass through, and a previously masked value maps to
// itself, so applying the mask twice is safe.
func MaskCardNumber(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return strings.Repeat(maskChar, len(cardNumber)-4) + cardNumber[len(cardNumber)-4:]
}
