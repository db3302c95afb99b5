package service

import (
	"context"
	"strings"

	"snapgram/internal/models"
	"snapgram/internal/repository"
)

type UserService struct {
	users repository.UserRepository
	files *FileService
}

// UpdateUserInput edits a profile. A File replaces the avatar; without one the
// stored avatar is kept.
type UpdateUserInput struct {
	UserID string
	Name   string
	Bio    string
	File   *UploadInput
}

func NewUserService(users repository.UserRepository, files *FileService) *UserService {
	return &UserService{users: users, files: files}
}

// GetUsers lists profiles newest first. A limit of zero or less returns the
// platform's default page.
func (s *UserService) GetUsers(ctx context.Context, limit int) ([]models.User, error) {
	opts := repository.ListOptions{OrderBy: "$createdAt"}
	if limit > 0 {
		opts.Limit = limit
	}
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fail(ctx, "UserService", "GetUsers", err, map[string]interface{}{"limit": limit})
	}
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, models.NewValidationError("User ID is required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fail(ctx, "UserService", "GetUserByID", err, map[string]interface{}{"user_id": userID})
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, models.NewValidationError("User ID is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Name is required")
	}

	existing, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fail(ctx, "UserService", "UpdateUser", err, map[string]interface{}{"user_id": in.UserID})
	}
	current := models.UploadedImage{FileID: existing.ImageID, URL: existing.ImageURL}

	img := current
	replacing := in.File.Present()
	if replacing {
		uploaded, err := s.files.Upload(ctx, *in.File)
		if err != nil {
			return nil, err
		}
		img = *uploaded
	}

	user, err := s.users.Update(ctx, in.UserID, repository.UserUpdate{
		Name:     in.Name,
		Bio:      in.Bio,
		ImageURL: img.URL,
		ImageID:  img.FileID,
	})
	if err != nil {
		if replacing {
			s.files.Compensate(ctx, img.FileID, "update user")
		}
		return nil, fail(ctx, "UserService", "UpdateUser", err, map[string]interface{}{"user_id": in.UserID})
	}

	if replacing && current.FileID != "" && current.FileID != img.FileID {
		s.files.Compensate(ctx, current.FileID, "replaced avatar")
	}
	return user, nil
}
