package appwrite

import (
	"context"
	"net/http"
	"time"
)

// Account is the authenticated platform account.
type Account struct {
	ID               string    `json:"$id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Status           bool      `json:"status"`
	EmailVerified    bool      `json:"emailVerification"`
	RegistrationDate time.Time `json:"registration"`
}

// Session is a login session. Secret is only populated when the session is
// created with a server API key.
type Session struct {
	ID     string    `json:"$id"`
	UserID string    `json:"userId"`
	Secret string    `json:"secret"`
	Expire time.Time `json:"expire"`
}

// CurrentSession addresses the session attached to the request.
const CurrentSession = "current"

// Accounts exposes the account endpoints.
type Accounts struct {
	client *Client
}

// NewAccounts returns the account service for c.
func NewAccounts(c *Client) *Accounts {
	return &Accounts{client: c}
}

// Create registers a new account.
func (a *Accounts) Create(ctx context.Context, userID, email, password, name string) (*Account, error) {
	payload := map[string]any{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	}
	r, err := a.client.jsonRequest("account", "create", http.MethodPost, "/account", nil, payload)
	if err != nil {
		return nil, err
	}
	var acc Account
	if err := a.client.do(ctx, r, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateEmailPasswordSession logs in with email and password.
func (a *Accounts) CreateEmailPasswordSession(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{"email": email, "password": password}
	r, err := a.client.jsonRequest("account", "createEmailPasswordSession", http.MethodPost, "/account/sessions/email", nil, payload)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := a.client.do(ctx, r, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession ends a session; pass CurrentSession for the attached one.
func (a *Accounts) DeleteSession(ctx context.Context, sessionID string) error {
	r, err := a.client.jsonRequest("account", "deleteSession", http.MethodDelete, "/account/sessions/"+sessionID, nil, nil)
	if err != nil {
		return err
	}
	return a.client.do(ctx, r, nil)
}

// Get returns the account owning the attached session.
func (a *Accounts) Get(ctx context.Context) (*Account, error) {
	r, err := a.client.jsonRequest("account", "get", http.MethodGet, "/account", nil, nil)
	if err != nil {
		return nil, err
	}
	var acc Account
	if err := a.client.do(ctx, r, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}
