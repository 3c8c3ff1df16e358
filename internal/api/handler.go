package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbensonwest/payform/internal/auth"
	"github.com/tbensonwest/payform/internal/config"
	"github.com/tbensonwest/payform/internal/domain"
	"github.com/tbensonwest/payform/internal/service"
	"github.com/tbensonwest/payform/internal/store"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payform_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payform_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "endpoint"})

	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payform_payments_total",
		Help: "Payment submissions by final status",
	}, []string{"status"})
)

const declinedMessage = "Your card was declined. Please try a different card."

type Handler struct {
	store    store.Store
	payments *service.PaymentService
	cfg      *config.Config
}

func NewHandler(s store.Store, svc *service.PaymentService, cfg *config.Config) *Handler {
	return &Handler{store: s, payments: svc, cfg: cfg}
}

// Routes builds the full router: the public payment surface, the
// token-protected admin surface, and the operational endpoints.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.Health).Methods("GET")

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.HandleFunc("/login", h.AdminLogin).Methods("POST")

	secured := r.PathPrefix("/api/admin").Subrouter()
	secured.Use(h.requireAdmin)
	secured.HandleFunc("/payments", h.AdminListPayments).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/payment", h.SubmitPayment).Methods("POST")
	api.HandleFunc("/payment/{transactionId}", h.GetPayment).Methods("GET")
	api.HandleFunc("/payment/{id}/status", h.UpdatePaymentStatus).Methods("PATCH")
	api.HandleFunc("/payment/{id}", h.DeletePayment).Methods("DELETE")
	api.HandleFunc("/payments/customer/{email}", h.GetCustomerPayments).Methods("GET")
	api.HandleFunc("/payments/status/{status}", h.GetStatusPayments).Methods("GET")

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	receipt, err := h.payments.Submit(r.Context(), &req)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondFieldErrors(w, http.StatusBadRequest, "Validation failed", vErr.Fields)
		case errors.Is(err, service.ErrCardDeclined):
			paymentsTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
			respondFieldErrors(w, http.StatusUnprocessableEntity, declinedMessage,
				[]domain.FieldError{{Field: "cardNumber", Message: declinedMessage}})
		default:
			log.Error().Err(err).Msg("payment submission failed")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	paymentsTotal.WithLabelValues(string(receipt.Status)).Inc()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"transactionId": receipt.TransactionID,
		"paymentId":     receipt.PaymentID,
		"data": map[string]interface{}{
			"amount": receipt.Amount,
			"email":  receipt.Email,
			"name":   receipt.Name,
			"status": receipt.Status,
		},
	})
}

// paymentDetail is the single-record lookup shape. Card data stays out.
type paymentDetail struct {
	ID            int64                `json:"id"`
	TransactionID string               `json:"transactionId"`
	Amount        string               `json:"amount"`
	Status        domain.PaymentStatus `json:"status"`
	CustomerName  string               `json:"customerName"`
	Email         string               `json:"email"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	txnID := mux.Vars(r)["transactionId"]

	p, err := h.store.GetPaymentByTransactionID(r.Context(), txnID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		log.Error().Err(err).Str("transactionId", txnID).Msg("payment lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": paymentDetail{
			ID:            p.ID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			Status:        p.Status,
			CustomerName:  p.CustomerName(),
			Email:         p.Email,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		},
	})
}

type customerPayment struct {
	ID            int64                `json:"id"`
	TransactionID string               `json:"transactionId"`
	Amount        string               `json:"amount"`
	Status        domain.PaymentStatus `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func (h *Handler) GetCustomerPayments(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	list, err := h.store.GetPaymentsByEmail(r.Context(), email)
	if err != nil {
		log.Error().Err(err).Msg("customer payment listing failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	rows := make([]customerPayment, 0, len(list))
	for _, p := range list {
		rows = append(rows, customerPayment{
			ID:            p.ID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			Status:        p.Status,
			CreatedAt:     p.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(rows),
		"data":    rows,
	})
}

func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Payment id must be numeric")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	status := domain.PaymentStatus(body.Status)
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "Status must be one of: pending, completed, failed, refunded")
		return
	}

	p, err := h.store.UpdatePayment(r.Context(), id, domain.PaymentUpdate{Status: &status})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("payment status update failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"id":            p.ID,
			"transactionId": p.TransactionID,
			"status":        p.Status,
			"updatedAt":     p.UpdatedAt,
		},
	})
}

type statusPayment struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"transactionId"`
	Amount        string    `json:"amount"`
	CustomerEmail string    `json:"customerEmail"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (h *Handler) GetStatusPayments(w http.ResponseWriter, r *http.Request) {
	status := domain.PaymentStatus(mux.Vars(r)["status"])
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "Status must be one of: pending, completed, failed, refunded")
		return
	}

	list, err := h.store.GetPaymentsByStatus(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("status payment listing failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	rows := make([]statusPayment, 0, len(list))
	for _, p := range list {
		rows = append(rows, statusPayment{
			ID:            p.ID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			CustomerEmail: p.Email,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(rows),
		"data":    rows,
	})
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Payment id must be numeric")
		return
	}

	p, err := h.store.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("payment lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	deleted, err := h.store.DeletePayment(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("payment delete failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "Payment not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"deletedId":     id,
		"transactionId": p.TransactionID,
	})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	u, err := h.store.GetUserByUsername(r.Context(), creds.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error().Err(err).Msg("admin lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(creds.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(u.Username, []byte(h.cfg.JWTSecret), auth.TokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("token generation failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"token":     token,
		"expiresIn": int(auth.TokenTTL.Seconds()),
	})
}

// AdminListPayments returns full stored records, optionally filtered with
// ?status=. Card numbers are already masked at rest and CVC never marshals.
func (h *Handler) AdminListPayments(w http.ResponseWriter, r *http.Request) {
	var (
		list []domain.Payment
		err  error
	)
	if q := r.URL.Query().Get("status"); q != "" {
		status := domain.PaymentStatus(q)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, "Status must be one of: pending, completed, failed, refunded")
			return
		}
		list, err = h.store.GetPaymentsByStatus(r.Context(), status)
	} else {
		list, err = h.store.GetAllPayments(r.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("admin payment listing failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(list),
		"data":    list,
	})
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]interface{}{"success": false, "message": message})
}

func respondFieldErrors(w http.ResponseWriter, code int, message string, errs []domain.FieldError) {
	respondJSON(w, code, map[string]interface{}{"success": false, "message": message, "errors": errs})
}
