package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tbensonwest/payform/internal/domain"
	"github.com/tbensonwest/payform/internal/store/migrations"
)

const (
	userColumns    = "id, username, password"
	paymentColumns = "id, transaction_id, card_number, cvc, expiry_date, amount, " +
		"first_name, last_name, email, city, state, postal_code, message, status, created_at, updated_at"
)

// PostgresStore is the durable backend. Ids come from the table sequences and
// card numbers are masked before the INSERT, same as the in-memory backend.
type PostgresStore struct {
	db *sql.DB
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects via the pgx stdlib driver, verifies the connection
// and brings the schema up to date with the embedded goose migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := newPostgresStore(db)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	created := *u
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id",
		u.Username, u.Password,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.userBy(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.userBy(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (s *PostgresStore) userBy(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	updated := *u
	err := s.db.QueryRowContext(ctx,
		"UPDATE users SET username = $2, password = $3 WHERE id = $1 RETURNING id",
		u.ID, u.Username, u.Password,
	).Scan(&updated.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &updated, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "DELETE FROM users WHERE id = $1", id)
}

func (s *PostgresStore) CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	if !p.Status.Valid() {
		return nil, errInvalidStatus(p.Status)
	}

	now := time.Now().UTC()
	created := *p
	created.CardNumber = domain.MaskCardNumber(p.CardNumber)
	created.CreatedAt = now
	created.UpdatedAt = now

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO payments (transaction_id, card_number, cvc, expiry_date, amount,
			first_name, last_name, email, city, state, postal_code, message, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		created.TransactionID, created.CardNumber, created.CVC, created.ExpiryDate, created.Amount,
		created.FirstName, created.LastName, created.Email, created.City, created.State,
		created.PostalCode, created.Message, created.Status, created.CreatedAt, created.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.paymentBy(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id = $1", id)
}

func (s *PostgresStore) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return s.paymentBy(ctx, "SELECT "+paymentColumns+" FROM payments WHERE transaction_id = $1", transactionID)
}

func (s *PostgresStore) paymentBy(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	var p domain.Payment
	err := scanPayment(s.db.QueryRowContext(ctx, query, arg), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

// UpdatePayment applies the non-nil fields of upd and always refreshes
// updated_at. A missing id yields ErrNotFound; rows are never created here.
func (s *PostgresStore) UpdatePayment(ctx context.Context, id int64, upd domain.PaymentUpdate) (*domain.Payment, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, errInvalidStatus(*upd.Status)
	}

	var p domain.Payment
	err := scanPayment(s.db.QueryRowContext(ctx,
		`UPDATE payments
			SET status = COALESCE($2, status),
			    message = COALESCE($3, message),
			    updated_at = $4
		  WHERE id = $1
		  RETURNING `+paymentColumns,
		id, upd.Status, upd.Message, time.Now().UTC(),
	), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) DeletePayment(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "DELETE FROM payments WHERE id = $1", id)
}

func (s *PostgresStore) GetAllPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.payments(ctx, "SELECT "+paymentColumns+" FROM payments ORDER BY id")
}

func (s *PostgresStore) GetPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	return s.payments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE LOWER(email) = LOWER($1) ORDER BY id", email)
}

func (s *PostgresStore) GetPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	return s.payments(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE status = $1 ORDER BY id", status)
}

func (s *PostgresStore) payments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) deleteByID(ctx context.Context, query string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner, p *domain.Payment) error {
	return row.Scan(
		&p.ID, &p.TransactionID, &p.CardNumber, &p.CVC, &p.ExpiryDate, &p.Amount,
		&p.FirstName, &p.LastName, &p.Email, &p.City, &p.State, &p.PostalCode,
		&p.Message, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func errInvalidStatus(s domain.PaymentStatus) error {
	return fmt.Errorf("invalid payment status %q", s)
}
