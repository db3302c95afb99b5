package server

import (
	"context"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
	"snapgram/internal/service"
)

// PostAPI is the post behaviour the handlers need. *service.PostService satisfies it.
type PostAPI interface {
	CreatePost(ctx context.Context, in service.CreatePostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, in service.UpdatePostInput) (*models.Post, error)
	DeletePost(ctx context.Context, postID, imageID string) error
	GetPostByID(ctx context.Context, postID string) (*models.Post, error)
	GetRecentPosts(ctx context.Context) ([]models.Post, error)
	GetInfinitePosts(ctx context.Context, cursor string) ([]models.Post, error)
	GetUserPosts(ctx context.Context, userID string) ([]models.Post, error)
	SearchPosts(ctx context.Context, term string) ([]models.Post, error)
	LikePost(ctx context.Context, postID string, likes []string) (*models.Post, error)
	SavePost(ctx context.Context, userID, postID string) (*models.Save, error)
	DeleteSavedPost(ctx context.Context, saveID string) error
}

// UserAPI is the profile behaviour the handlers need.
type UserAPI interface {
	GetUsers(ctx context.Context, limit int) ([]models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, in service.UpdateUserInput) (*models.User, error)
}

// AuthAPI is the account behaviour the handlers need.
type AuthAPI interface {
	CreateUserAccount(ctx context.Context, in service.NewUserInput) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*appwrite.Session, error)
	SignOut(ctx context.Context) error
	GetAccount(ctx context.Context) (*appwrite.Account, error)
	GetCurrentUser(ctx context.Context) (*models.User, error)
}

var (
	_ PostAPI = (*service.PostService)(nil)
	_ UserAPI = (*service.UserService)(nil)
	_ AuthAPI = (*service.AuthService)(nil)
)
