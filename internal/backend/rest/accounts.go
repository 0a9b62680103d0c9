package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/logging"
)

type accountPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionPayload struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (p accountPayload) toAccount() backend.Account {
	return backend.Account{ID: p.ID, Email: p.Email, Name: p.Name, CreatedAt: p.CreatedAt}
}

// CreateAccount registers a new account with the provider.
func (c *Client) CreateAccount(ctx context.Context, id, email, password, name string) (backend.Account, error) {
	ctx, span := logging.StartSpan(ctx, "backend.accounts.create")
	defer span.End()

	req := struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}{ID: id, Email: email, Password: password, Name: name}

	var payload accountPayload
	if err := c.doJSON(ctx, http.MethodPost, "/accounts", req, &payload); err != nil {
		return backend.Account{}, err
	}
	return payload.toAccount(), nil
}

// CurrentAccount resolves the account owning the current session.
func (c *Client) CurrentAccount(ctx context.Context) (backend.Account, error) {
	ctx, span := logging.StartSpan(ctx, "backend.accounts.current")
	defer span.End()

	var payload accountPayload
	if err := c.doJSON(ctx, http.MethodGet, "/account", nil, &payload); err != nil {
		return backend.Account{}, err
	}
	return payload.toAccount(), nil
}

// CreateEmailSession authenticates with email credentials and persists the
// returned session secret for subsequent requests.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (backend.Session, error) {
	ctx, span := logging.StartSpan(ctx, "backend.sessions.create")
	defer span.End()

	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var payload sessionPayload
	if err := c.doJSON(ctx, http.MethodPost, "/sessions/email", req, &payload); err != nil {
		return backend.Session{}, err
	}

	if err := c.sessions.Save(payload.Secret); err != nil {
		return backend.Session{}, fmt.Errorf("persist session secret: %w", err)
	}

	return backend.Session{
		ID:        payload.ID,
		AccountID: payload.AccountID,
		Secret:    payload.Secret,
		ExpiresAt: payload.ExpiresAt,
	}, nil
}

// DeleteCurrentSession terminates the current session and drops the stored
// secret.
func (c *Client) DeleteCurrentSession(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "backend.sessions.delete")
	defer span.End()

	if err := c.doJSON(ctx, http.MethodDelete, "/sessions/current", nil, nil); err != nil {
		return err
	}
	return c.sessions.Clear()
}
