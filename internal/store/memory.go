package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tbensonwest/payform/internal/domain"
)

// MemoryStore keeps both entity maps in process memory with monotonic id
// counters. Contents are lost on restart. The HTTP server hits it from many
// goroutines, so all access goes through one mutex.
type MemoryStore struct {
	mu            sync.Mutex
	users         map[int64]domain.User
	payments      map[int64]domain.Payment
	nextUserID    int64
	nextPaymentID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]domain.User),
		payments: make(map[int64]domain.Payment),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return nil, ErrConflict
		}
	}

	s.nextUserID++
	created := *u
	created.ID = s.nextUserID
	s.users[created.ID] = created
	return &created, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return nil, ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Username == u.Username {
			return nil, ErrConflict
		}
	}

	updated := *u
	s.users[u.ID] = updated
	return &updated, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !p.Status.Valid() {
		return nil, errInvalidStatus(p.Status)
	}
	for _, existing := range s.payments {
		if existing.TransactionID == p.TransactionID {
			return nil, ErrConflict
		}
	}

	now := time.Now().UTC()
	s.nextPaymentID++
	created := *p
	created.ID = s.nextPaymentID
	created.CardNumber = domain.MaskCardNumber(p.CardNumber)
	created.CreatedAt = now
	created.UpdatedAt = now
	s.payments[created.ID] = created
	return &created, nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, id int64, upd domain.PaymentUpdate) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, errInvalidStatus(*upd.Status)
		}
		p.Status = *upd.Status
	}
	if upd.Message != nil {
		msg := *upd.Message
		p.Message = &msg
	}
	p.UpdatedAt = time.Now().UTC()
	s.payments[id] = p
	return &p, nil
}

func (s *MemoryStore) DeletePayment(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[id]; !ok {
		return false, nil
	}
	delete(s.payments, id)
	return true, nil
}

func (s *MemoryStore) GetAllPayments(ctx context.Context) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(domain.Payment) bool { return true }), nil
}

func (s *MemoryStore) GetPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(p domain.Payment) bool { return strings.EqualFold(p.Email, email) }), nil
}

func (s *MemoryStore) GetPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(p domain.Payment) bool { return p.Status == status }), nil
}

func (s *MemoryStore) Close() error { return nil }

// collect snapshots matching payments in ascending id order. Callers hold the
// mutex.
func (s *MemoryStore) collect(match func(domain.Payment) bool) []domain.Payment {
	out := make([]domain.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
