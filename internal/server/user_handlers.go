package server

import (
	"snapgram/internal/models"
	"snapgram/internal/navigation"
	"snapgram/internal/service"
	"snapgram/internal/view"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users?limit=
func (s *Server) GetUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return respondError(c, models.NewValidationError("limit must not be negative"))
	}
	if limit > maxUsersLimit {
		limit = maxUsersLimit
	}

	users, err := s.users.GetUsers(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(fiber.Map{"documents": users, "total": len(users)})
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.users.GetUserByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /api/users/:id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name" form:"name"`
		Bio  string `json:"bio" form:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	upload, err := formUpload(c, s.uploadLimit())
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.users.UpdateUser(c.UserContext(), service.UpdateUserInput{
		UserID: c.Params("id"),
		Name:   req.Name,
		Bio:    req.Bio,
		File:   upload,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetSavedPosts handles GET /api/saved
func (s *Server) GetSavedPosts(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view.SavedPosts(user))
}

// GetNavigation handles GET /api/navigation
func (s *Server) GetNavigation(c *fiber.Ctx) error {
	menus, err := navigation.Load()
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(menus)
}
