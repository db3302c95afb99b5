package repository

import (
	"context"

	"snapgram/internal/appwrite"
	"snapgram/internal/cache"
	"snapgram/internal/models"
	"snapgram/internal/observability"
)

// UserDocument is the attribute set written when a profile is created.
type UserDocument struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	ImageURL  string `json:"imageUrl"`
}

// UserUpdate is the editable part of a profile.
type UserUpdate struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"imageUrl"`
	ImageID  string `json:"imageId"`
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, doc UserDocument) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.User, error)
	List(ctx context.Context, opts ListOptions) ([]models.User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*models.User, error)
}

type userRepository struct {
	docs DocumentStore
	cols Collections
	log  *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(docs DocumentStore, cols Collections) UserRepository {
	return &userRepository{docs: docs, cols: cols, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, doc UserDocument) (*models.User, error) {
	var user models.User
	id := appwrite.UniqueID()
	if err := r.docs.CreateDocument(ctx, r.cols.DatabaseID, r.cols.Users, id, doc, &user); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, wrapRemote("create user", "User", id, err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID, "account_id": doc.AccountID})
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.docs.GetDocument(ctx, r.cols.DatabaseID, r.cols.Users, id, nil, &user); err != nil {
			return wrapRemote("get user", "User", id, err)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "get")
		return nil, err
	}
	return &user, nil
}

// GetByAccountID returns the profile owned by accountID, or nil when there is none.
// It is not cached since it backs the signed-in user's saves and likes.
func (r *userRepository) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	var page appwrite.DocumentList[models.User]
	err := r.docs.ListDocuments(ctx, r.cols.DatabaseID, r.cols.Users,
		[]appwrite.Query{appwrite.Equal("accountId", accountID)}, &page)
	if err != nil {
		r.log.LogError(ctx, err, "get_by_account")
		return nil, wrapRemote("get current user", "User", accountID, err)
	}
	if len(page.Documents) == 0 {
		return nil, nil
	}
	return &page.Documents[0], nil
}

func (r *userRepository) List(ctx context.Context, opts ListOptions) ([]models.User, error) {
	var page appwrite.DocumentList[models.User]
	if err := r.docs.ListDocuments(ctx, r.cols.DatabaseID, r.cols.Users, opts.Queries(), &page); err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, wrapRemote("list users", "User", "", err)
	}
	if page.Documents == nil {
		page.Documents = []models.User{}
	}
	return page.Documents, nil
}

func (r *userRepository) Update(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	var user models.User
	if err := r.docs.UpdateDocument(ctx, r.cols.DatabaseID, r.cols.Users, id, upd, &user); err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, wrapRemote("update user", "User", id, err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"user_id": id})
	cache.InvalidateUser(ctx, id)
	return &user, nil
}
