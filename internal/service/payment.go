package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/tbensonwest/payform/internal/domain"
	"github.com/tbensonwest/payform/internal/gateway"
	"github.com/tbensonwest/payform/internal/sanitize"
	"github.com/tbensonwest/payform/internal/store"
	"github.com/tbensonwest/payform/internal/validate"
)

// ErrCardDeclined marks a simulated gateway rejection. The stored record is
// kept in failed status, never deleted.
var ErrCardDeclined = errors.New("card declined")

// Receipt is the safe summary returned after an approved submission. It
// carries no card data.
type Receipt struct {
	TransactionID string
	PaymentID     int64
	Amount        string
	Email         string
	Name          string
	Status        domain.PaymentStatus
}

// PaymentService runs the submission pipeline: sanitize, validate, persist as
// pending, charge, finalize as completed or failed.
type PaymentService struct {
	store   store.Store
	gateway gateway.Provider

	// newTxnID is swapped out in tests for deterministic ids.
	newTxnID func() string
}

func NewPaymentService(st store.Store, gw gateway.Provider) *PaymentService {
	return &PaymentService{
		store:    st,
		gateway:  gw,
		newTxnID: newTransactionID,
	}
}

// Submit processes one form submission end to end. Validation failures return
// a *domain.ValidationError before any record exists; a decline returns
// ErrCardDeclined with the record already marked failed. The create and the
// finalizing update are two independent storage calls with no transaction
// spanning them; a crash in between leaves a pending record.
func (s *PaymentService) Submit(ctx context.Context, req *domain.PaymentRequest) (*Receipt, error) {
	// 1. Sanitize every submitted field.
	clean := sanitizeRequest(req)

	// 2. Validate the cleaned values; the caller gets the full failure list.
	if fieldErrs := validate.Payment(clean); len(fieldErrs) > 0 {
		return nil, &domain.ValidationError{Fields: fieldErrs}
	}

	// 3-4. Persist as pending under a fresh transaction id. The store masks
	// the card number on the way in.
	p := &domain.Payment{
		TransactionID: s.newTxnID(),
		CardNumber:    clean.CardNumber,
		CVC:           clean.CVC,
		ExpiryDate:    clean.ExpiryDate,
		Amount:        clean.Amount,
		FirstName:     clean.FirstName,
		LastName:      clean.LastName,
		Email:         clean.Email,
		City:          clean.City,
		State:         clean.State,
		PostalCode:    clean.PostalCode,
		Status:        domain.StatusPending,
	}
	if clean.Message != "" {
		msg := clean.Message
		p.Message = &msg
	}

	created, err := s.store.CreatePayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	// 5-6. Simulated gateway call: fixed latency, one random outcome.
	result, err := s.gateway.Charge(ctx, created.TransactionID, created.Amount)
	if err != nil {
		return nil, fmt.Errorf("charge: %w", err)
	}

	// 7. Decline: mark the record failed and surface the business outcome.
	// Only the status moves; the customer's message stays as submitted.
	if !result.Approved {
		failed := domain.StatusFailed
		if _, err := s.store.UpdatePayment(ctx, created.ID, domain.PaymentUpdate{Status: &failed}); err != nil {
			return nil, fmt.Errorf("mark payment failed: %w", err)
		}
		return nil, ErrCardDeclined
	}

	// 8. Approval: finalize as completed and hand back the receipt.
	completed := domain.StatusCompleted
	final, err := s.store.UpdatePayment(ctx, created.ID, domain.PaymentUpdate{Status: &completed})
	if err != nil {
		return nil, fmt.Errorf("mark payment completed: %w", err)
	}

	return &Receipt{
		TransactionID: final.TransactionID,
		PaymentID:     final.ID,
		Amount:        final.Amount,
		Email:         final.Email,
		Name:          final.CustomerName(),
		Status:        final.Status,
	}, nil
}

func sanitizeRequest(req *domain.PaymentRequest) *domain.PaymentRequest {
	return &domain.PaymentRequest{
		CardNumber: sanitize.Numeric(req.CardNumber),
		CVC:        sanitize.Numeric(req.CVC),
		ExpiryDate: sanitize.Text(req.ExpiryDate),
		Amount:     sanitize.Numeric(req.Amount),
		FirstName:  sanitize.Text(req.FirstName),
		LastName:   sanitize.Text(req.LastName),
		Email:      sanitize.Email(req.Email),
		City:       sanitize.Text(req.City),
		State:      sanitize.Text(req.State),
		PostalCode: sanitize.Numeric(req.PostalCode),
		Message:    sanitize.Text(req.Message),
	}
}

const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

// newTransactionID builds "TXN-<millisecond timestamp>-<9 random base-36
// chars>". Uniqueness rides on the timestamp plus suffix entropy; the
// payments table additionally enforces it with a unique constraint, and a
// collision there surfaces as store.ErrConflict rather than a retry.
func newTransactionID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36Chars[rand.Intn(len(base36Chars))]
	}
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), suffix)
}
