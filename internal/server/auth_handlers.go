package server

import (
	"errors"
	"time"

	"snapgram/internal/appwrite"
	"snapgram/internal/middleware"
	"snapgram/internal/models"
	"snapgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errNoSessionSecret means the session was created without the server API key.
var errNoSessionSecret = errors.New("platform session has no secret")

// SignInResponse carries the BFF token and the signed-in profile.
type SignInResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// SignUp handles POST /api/auth/signup
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req service.NewUserInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.auth.CreateUserAccount(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// SignIn handles POST /api/auth/signin. The platform session is wrapped in a
// signed token the client sends back as a bearer token.
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	session, err := s.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	if session.Secret == "" {
		return respondError(c, models.NewInternalError(errNoSessionSecret))
	}

	token, err := middleware.IssueToken(session.UserID, session.ID, session.Secret, session.Expire)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	claims, err := middleware.ParseToken(token)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	user, err := s.auth.GetCurrentUser(appwrite.WithSession(c.UserContext(), session.Secret))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(SignInResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	})
}

// SignOut handles POST /api/auth/signout
func (s *Server) SignOut(c *fiber.Ctx) error {
	if err := s.auth.SignOut(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetMe handles GET /api/auth/me. Anonymous callers get null.
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.auth.GetCurrentUser(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return c.JSON(nil)
	}
	return c.JSON(user)
}
