package devstack

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/aora-app/client/internal/backend"
)

const sessionTTL = 24 * time.Hour

// AccountStore persists accounts and sessions in Postgres. The store keeps
// the secret of the session it created last; like the other bindings it
// serves a single logical client, so "current session" is process state.
type AccountStore struct {
	pool Pool

	mu      sync.Mutex
	current string
}

// NewAccountStore constructs an account store backed by PostgreSQL.
func NewAccountStore(pool Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// CreateAccount registers a new account with a bcrypt password hash.
func (s *AccountStore) CreateAccount(ctx context.Context, id, email, password, name string) (backend.Account, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return backend.Account{}, fmt.Errorf("hash password: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return backend.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	createdAt := time.Now().UTC()
	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, email, password_hash, name, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, id, email, string(hashed), name, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return backend.Account{}, fmt.Errorf("insert account: %w", backend.ErrConflict)
		}
		return backend.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return backend.Account{ID: id, Email: email, Name: name, CreatedAt: createdAt}, nil
}

// CreateEmailSession verifies the credentials and issues a session row.
func (s *AccountStore) CreateEmailSession(ctx context.Context, email, password string) (backend.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return backend.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, password_hash FROM accounts WHERE email = $1
    `, email)

	var accountID, passwordHash string
	if err := row.Scan(&accountID, &passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return backend.Session{}, fmt.Errorf("select account by email: %w", backend.ErrUnauthorized)
		}
		return backend.Session{}, fmt.Errorf("select account by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return backend.Session{}, fmt.Errorf("verify password: %w", backend.ErrUnauthorized)
	}

	secret, err := randomSecret()
	if err != nil {
		return backend.Session{}, err
	}

	expiresAt := time.Now().UTC().Add(sessionTTL)
	_, err = conn.Exec(ctx, `
        INSERT INTO sessions (secret, account_id, expires_at)
        VALUES ($1, $2, $3)
    `, secret, accountID, expiresAt)
	if err != nil {
		return backend.Session{}, fmt.Errorf("insert session: %w", err)
	}

	s.mu.Lock()
	s.current = secret
	s.mu.Unlock()

	return backend.Session{
		ID:        secret,
		AccountID: accountID,
		Secret:    secret,
		ExpiresAt: expiresAt,
	}, nil
}

// CurrentAccount resolves the account owning the current session.
func (s *AccountStore) CurrentAccount(ctx context.Context) (backend.Account, error) {
	s.mu.Lock()
	secret := s.current
	s.mu.Unlock()

	if secret == "" {
		return backend.Account{}, backend.ErrUnauthorized
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return backend.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT a.id, a.email, a.name, a.created_at, se.expires_at
        FROM sessions se
        JOIN accounts a ON a.id = se.account_id
        WHERE se.secret = $1
    `, secret)

	var account backend.Account
	var expiresAt time.Time
	if err := row.Scan(&account.ID, &account.Email, &account.Name, &account.CreatedAt, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return backend.Account{}, backend.ErrUnauthorized
		}
		return backend.Account{}, fmt.Errorf("select current session: %w", err)
	}

	if time.Now().UTC().After(expiresAt) {
		return backend.Account{}, backend.ErrUnauthorized
	}
	return account, nil
}

// DeleteCurrentSession removes the current session row. Only the current
// session is revoked; other sessions for the account stay valid.
func (s *AccountStore) DeleteCurrentSession(ctx context.Context) error {
	s.mu.Lock()
	secret := s.current
	s.mu.Unlock()

	if secret == "" {
		return backend.ErrUnauthorized
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM sessions WHERE secret = $1`, secret)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return backend.ErrUnauthorized
	}

	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	return nil
}

func randomSecret() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
