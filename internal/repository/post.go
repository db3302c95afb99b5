package repository

import (
	"context"

	"snapgram/internal/appwrite"
	"snapgram/internal/cache"
	"snapgram/internal/models"
	"snapgram/internal/observability"
)

// PostDocument is the writable attribute set of a post. Creator is only sent on create.
type PostDocument struct {
	Creator  string   `json:"creator,omitempty"`
	Caption  string   `json:"caption"`
	ImageURL string   `json:"imageUrl"`
	ImageID  string   `json:"imageId"`
	Location string   `json:"location"`
	Tags     []string `json:"tags"`
	Search   []string `json:"search"`
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, doc PostDocument) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, doc PostDocument) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]models.Post, error)
	ListByCreator(ctx context.Context, userID string, opts ListOptions) ([]models.Post, error)
	Search(ctx context.Context, term string) ([]models.Post, error)
	SetLikes(ctx context.Context, id string, likes []string) (*models.Post, error)
}

type postRepository struct {
	docs DocumentStore
	cols Collections
	log  *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(docs DocumentStore, cols Collections) PostRepository {
	return &postRepository{docs: docs, cols: cols, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, doc PostDocument) (*models.Post, error) {
	var post models.Post
	id := appwrite.UniqueID()
	if err := r.docs.CreateDocument(ctx, r.cols.DatabaseID, r.cols.Posts, id, doc, &post); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, wrapRemote("create post", "Post", id, err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "creator": doc.Creator})
	cache.InvalidatePostsList(ctx)
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.docs.GetDocument(ctx, r.cols.DatabaseID, r.cols.Posts, id, nil, &post); err != nil {
			return wrapRemote("get post", "Post", id, err)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "get")
		return nil, err
	}
	r.log.LogRead(ctx, map[string]interface{}{"post_id": id})
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, id string, doc PostDocument) (*models.Post, error) {
	doc.Creator = ""
	var post models.Post
	if err := r.docs.UpdateDocument(ctx, r.cols.DatabaseID, r.cols.Posts, id, doc, &post); err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, wrapRemote("update post", "Post", id, err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"post_id": id})
	cache.InvalidatePost(ctx, id)
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	if err := r.docs.DeleteDocument(ctx, r.cols.DatabaseID, r.cols.Posts, id); err != nil {
		r.log.LogError(ctx, err, "delete")
		return wrapRemote("delete post", "Post", id, err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": id})
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) List(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	return r.list(ctx, "list posts", opts.Queries())
}

func (r *postRepository) ListByCreator(ctx context.Context, userID string, opts ListOptions) ([]models.Post, error) {
	q := append([]appwrite.Query{appwrite.Equal("creator", userID)}, opts.Queries()...)
	return r.list(ctx, "list user posts", q)
}

func (r *postRepository) Search(ctx context.Context, term string) ([]models.Post, error) {
	return r.list(ctx, "search posts", []appwrite.Query{appwrite.Search("search", term)})
}

func (r *postRepository) SetLikes(ctx context.Context, id string, likes []string) (*models.Post, error) {
	if likes == nil {
		likes = []string{}
	}
	var post models.Post
	err := r.docs.UpdateDocument(ctx, r.cols.DatabaseID, r.cols.Posts, id, map[string]any{"likes": likes}, &post)
	if err != nil {
		r.log.LogError(ctx, err, "set_likes")
		return nil, wrapRemote("like post", "Post", id, err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"post_id": id, "likes": len(likes)})
	cache.InvalidatePost(ctx, id)
	return &post, nil
}

func (r *postRepository) list(ctx context.Context, operation string, queries []appwrite.Query) ([]models.Post, error) {
	var page appwrite.DocumentList[models.Post]
	if err := r.docs.ListDocuments(ctx, r.cols.DatabaseID, r.cols.Posts, queries, &page); err != nil {
		r.log.LogError(ctx, err, operation)
		return nil, wrapRemote(operation, "Post", "", err)
	}
	if page.Documents == nil {
		page.Documents = []models.Post{}
	}
	r.log.LogRead(ctx, map[string]interface{}{"operation": operation, "count": len(page.Documents)})
	return page.Documents, nil
}
