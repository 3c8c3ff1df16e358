package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbensonwest/payform/internal/domain"
	"github.com/tbensonwest/payform/internal/gateway"
	"github.com/tbensonwest/payform/internal/store"
)

type stubProvider struct {
	result gateway.Result
	err    error

	calls      int
	lastTxnID  string
	lastAmount string
}

func (p *stubProvider) Charge(ctx context.Context, transactionID, amount string) (gateway.Result, error) {
	p.calls++
	p.lastTxnID = transactionID
	p.lastAmount = amount
	return p.result, p.err
}

func validSubmission() *domain.PaymentRequest {
	return &domain.PaymentRequest{
		CardNumber: "4111 1111 1111 1111",
		CVC:        "123",
		ExpiryDate: time.Now().AddDate(1, 0, 0).Format("01/06"),
		Amount:     "49.99",
		FirstName:  "Jane",
		LastName:   "Smith",
		Email:      "Jane.Smith@Example.com",
		City:       "Denver",
		State:      "CO",
		PostalCode: "80202",
	}
}

func TestSubmitApproved(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: true}}
	svc := NewPaymentService(st, gw)

	receipt, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, receipt.Status)
	assert.Equal(t, "49.99", receipt.Amount)
	assert.Equal(t, "jane.smith@example.com", receipt.Email)
	assert.Equal(t, "Jane Smith", receipt.Name)
	assert.NotEmpty(t, receipt.TransactionID)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, receipt.TransactionID, gw.lastTxnID)
	assert.Equal(t, "49.99", gw.lastAmount)

	stored, err := st.GetPayment(ctx, receipt.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, "************1111", stored.CardNumber)
	assert.Equal(t, "jane.smith@example.com", stored.Email)
}

func TestSubmitDeclined(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: false, Reason: "card_declined"}}
	svc := NewPaymentService(st, gw)

	receipt, err := svc.Submit(ctx, validSubmission())
	assert.Nil(t, receipt)
	require.ErrorIs(t, err, ErrCardDeclined)

	all, err := st.GetAllPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusFailed, all[0].Status)
	assert.Nil(t, all[0].Message)
}

func TestSubmitDeclinedKeepsCustomerMessage(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: false, Reason: "card_declined"}}
	svc := NewPaymentService(st, gw)

	req := validSubmission()
	req.Message = "gift for mom"

	_, err := svc.Submit(ctx, req)
	require.ErrorIs(t, err, ErrCardDeclined)

	all, err := st.GetAllPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusFailed, all[0].Status)
	require.NotNil(t, all[0].Message)
	assert.Equal(t, "gift for mom", *all[0].Message)
}

func TestSubmitValidationFailureCreatesNoRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: true}}
	svc := NewPaymentService(st, gw)

	req := validSubmission()
	req.CardNumber = "4111"
	req.Email = ""

	_, err := svc.Submit(ctx, req)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, domain.FieldError{Field: "cardNumber", Message: "Card number must be 16 digits"})
	assert.Contains(t, vErr.Fields, domain.FieldError{Field: "email", Message: "Email is required"})

	assert.Equal(t, 0, gw.calls)
	all, err := st.GetAllPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitSanitizesBeforeValidation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: true}}
	svc := NewPaymentService(st, gw)

	req := validSubmission()
	req.FirstName = `  <b>Jane</b>  `
	req.PostalCode = " 80202 "

	receipt, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "bJane/b Smith", receipt.Name)

	stored, err := st.GetPayment(ctx, receipt.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, "bJane/b", stored.FirstName)
	assert.Equal(t, "80202", stored.PostalCode)
	assert.Equal(t, "************1111", stored.CardNumber)
}

func TestSubmitTwiceYieldsDistinctRecords(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: true}}
	svc := NewPaymentService(st, gw)

	first, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	second, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.NotEqual(t, first.PaymentID, second.PaymentID)
}

func TestSubmitChargeErrorLeavesPendingRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{err: errors.New("gateway unreachable")}
	svc := NewPaymentService(st, gw)

	_, err := svc.Submit(ctx, validSubmission())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCardDeclined)

	all, err := st.GetAllPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusPending, all[0].Status)
}

type failingUpdateStore struct {
	store.Store
}

func (f *failingUpdateStore) UpdatePayment(ctx context.Context, id int64, upd domain.PaymentUpdate) (*domain.Payment, error) {
	return nil, errors.New("connection reset")
}

func TestSubmitFinalizeFailureSurfacesError(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	st := &failingUpdateStore{Store: mem}

	svc := NewPaymentService(st, &stubProvider{result: gateway.Result{Approved: true}})
	_, err := svc.Submit(ctx, validSubmission())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCardDeclined)

	svc = NewPaymentService(st, &stubProvider{result: gateway.Result{Approved: false, Reason: "card_declined"}})
	_, err = svc.Submit(ctx, validSubmission())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCardDeclined)

	// Both records stay at the status they last reached.
	all, err := mem.GetAllPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.StatusPending, all[0].Status)
	assert.Equal(t, domain.StatusPending, all[1].Status)
}

func TestSubmitOptionalMessageStored(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: true}}
	svc := NewPaymentService(st, gw)

	req := validSubmission()
	req.Message = "gift for mom"

	receipt, err := svc.Submit(ctx, req)
	require.NoError(t, err)

	stored, err := st.GetPayment(ctx, receipt.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, stored.Message)
	assert.Equal(t, "gift for mom", *stored.Message)
}

func TestNewTransactionIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^TXN-\d{13,}-[0-9a-z]{9}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := newTransactionID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "duplicate transaction id %s", id)
		seen[id] = true
	}
}

func TestInjectedTransactionID(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gw := &stubProvider{result: gateway.Result{Approved: true}}
	svc := NewPaymentService(st, gw)
	svc.newTxnID = func() string { return "TXN-fixed" }

	receipt, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "TXN-fixed", receipt.TransactionID)

	stored, err := st.GetPaymentByTransactionID(ctx, "TXN-fixed")
	require.NoError(t, err)
	assert.Equal(t, receipt.PaymentID, stored.ID)
}
