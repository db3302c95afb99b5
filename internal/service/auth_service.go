package service

import (
	"context"
	"net/mail"
	"strings"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
	"snapgram/internal/repository"
)

const minPasswordLength = 8

// AccountAPI is the subset of the platform account endpoints the auth flow uses.
type AccountAPI interface {
	Create(ctx context.Context, userID, email, password, name string) (*appwrite.Account, error)
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*appwrite.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Get(ctx context.Context) (*appwrite.Account, error)
}

// AvatarAPI derives default profile images.
type AvatarAPI interface {
	InitialsURL(name string) string
}

var (
	_ AccountAPI = (*appwrite.Accounts)(nil)
	_ AvatarAPI  = (*appwrite.Avatars)(nil)
)

type AuthService struct {
	accounts AccountAPI
	avatars  AvatarAPI
	users    repository.UserRepository
}

type NewUserInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthService(accounts AccountAPI, avatars AvatarAPI, users repository.UserRepository) *AuthService {
	return &AuthService{accounts: accounts, avatars: avatars, users: users}
}

func (in NewUserInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewValidationError("Name is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		return models.NewValidationError("Username is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.NewValidationError("A valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return models.NewValidationError("Password must be at least 8 characters")
	}
	return nil
}

// CreateUserAccount registers an account, then stores its profile document
// with an initials avatar.
func (s *AuthService) CreateUserAccount(ctx context.Context, in NewUserInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.Create(ctx, appwrite.UniqueID(), in.Email, in.Password, in.Name)
	if err != nil {
		if appwrite.IsConflict(err) {
			return nil, models.NewValidationError("An account with this email already exists")
		}
		return nil, fail(ctx, "AuthService", "CreateUserAccount", models.NewRemoteError("create account", err), nil)
	}

	user, err := s.users.Create(ctx, repository.UserDocument{
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Username:  in.Username,
		ImageURL:  s.avatars.InitialsURL(account.Name),
	})
	if err != nil {
		return nil, fail(ctx, "AuthService", "CreateUserAccount", err, map[string]interface{}{"account_id": account.ID})
	}
	return user, nil
}

// SignIn opens an email/password session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*appwrite.Session, error) {
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}
	session, err := s.accounts.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		if appwrite.IsUnauthorized(err) {
			return nil, models.NewUnauthorizedError("Invalid email or password")
		}
		return nil, fail(ctx, "AuthService", "SignIn", models.NewRemoteError("create session", err), nil)
	}
	return session, nil
}

// SignOut deletes the session attached to ctx.
func (s *AuthService) SignOut(ctx context.Context) error {
	if appwrite.SessionFrom(ctx) == "" {
		return models.NewUnauthorizedError("Not signed in")
	}
	if err := s.accounts.DeleteSession(ctx, appwrite.CurrentSession); err != nil {
		if appwrite.IsUnauthorized(err) || appwrite.IsNotFound(err) {
			return nil
		}
		return fail(ctx, "AuthService", "SignOut", models.NewRemoteError("delete session", err), nil)
	}
	return nil
}

// GetAccount returns the account behind ctx's session, or nil when there is none.
func (s *AuthService) GetAccount(ctx context.Context) (*appwrite.Account, error) {
	if appwrite.SessionFrom(ctx) == "" {
		return nil, nil
	}
	account, err := s.accounts.Get(ctx)
	if err != nil {
		if appwrite.IsUnauthorized(err) {
			return nil, nil
		}
		return nil, fail(ctx, "AuthService", "GetAccount", models.NewRemoteError("get account", err), nil)
	}
	return account, nil
}

// GetCurrentUser resolves the signed-in user's profile. Being signed out or
// having no profile document are both reported as (nil, nil).
func (s *AuthService) GetCurrentUser(ctx context.Context) (*models.User, error) {
	account, err := s.GetAccount(ctx)
	if err != nil || account == nil {
		return nil, err
	}
	user, err := s.users.GetByAccountID(ctx, account.ID)
	if err != nil {
		if models.CodeOf(err) == models.CodeUnauthorized {
			return nil, nil
		}
		return nil, fail(ctx, "AuthService", "GetCurrentUser", err, map[string]interface{}{"account_id": account.ID})
	}
	return user, nil
}
