package service

import (
	"context"
	"strings"

	"snapgram/internal/cache"
	"snapgram/internal/models"
	"snapgram/internal/repository"
	"snapgram/internal/textnorm"
)

const (
	RecentPostsLimit   = 20
	InfinitePostsLimit = 10
)

type PostService struct {
	posts repository.PostRepository
	saves repository.SaveRepository
	files *FileService
}

type CreatePostInput struct {
	UserID   string
	Caption  string
	Location string
	Tags     string
	File     *UploadInput
}

// UpdatePostInput rewrites a post's text. A File replaces the image; without
// one the stored image is kept.
type UpdatePostInput struct {
	PostID   string
	Caption  string
	Location string
	Tags     string
	File     *UploadInput
}

func NewPostService(posts repository.PostRepository, saves repository.SaveRepository, files *FileService) *PostService {
	return &PostService{posts: posts, saves: saves, files: files}
}

func postDocument(caption, location, rawTags string, img models.UploadedImage) repository.PostDocument {
	tags := textnorm.ParseTags(rawTags)
	return repository.PostDocument{
		Caption:  caption,
		ImageURL: img.URL,
		ImageID:  img.FileID,
		Location: location,
		Tags:     tags,
		Search:   textnorm.SearchIndex(tags, caption, location),
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, models.NewValidationError("Creator is required")
	}
	if !in.File.Present() {
		return nil, models.NewValidationError("An image is required")
	}

	img, err := s.files.Upload(ctx, *in.File)
	if err != nil {
		return nil, err
	}

	doc := postDocument(in.Caption, in.Location, in.Tags, *img)
	doc.Creator = in.UserID
	post, err := s.posts.Create(ctx, doc)
	if err != nil {
		s.files.Compensate(ctx, img.FileID, "create post")
		return nil, fail(ctx, "PostService", "CreatePost", err, map[string]interface{}{"user_id": in.UserID})
	}
	return post, nil
}

// UpdatePost rewrites the post's attributes. A new file replaces the image:
// it is uploaded first, removed again if the update fails, and the previous
// image is deleted once the update succeeds.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.PostID) == "" {
		return nil, models.NewValidationError("Post ID is required")
	}

	// The stored image is authoritative: it is what gets kept, or deleted
	// after a replacement.
	existing, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, fail(ctx, "PostService", "UpdatePost", err, map[string]interface{}{"post_id": in.PostID})
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

	post, err := s.posts.Update(ctx, in.PostID, postDocument(in.Caption, in.Location, in.Tags, img))
	if err != nil {
		if replacing {
			s.files.Compensate(ctx, img.FileID, "update post")
		}
		return nil, fail(ctx, "PostService", "UpdatePost", err, map[string]interface{}{"post_id": in.PostID})
	}

	if replacing && current.FileID != "" && current.FileID != img.FileID {
		s.files.Compensate(ctx, current.FileID, "replaced post image")
	}
	return post, nil
}

// DeletePost removes the post document and then its image.
func (s *PostService) DeletePost(ctx context.Context, postID, imageID string) error {
	if postID == "" || imageID == "" {
		return models.NewValidationError("Post ID and image ID are required")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return fail(ctx, "PostService", "DeletePost", err, map[string]interface{}{"post_id": postID})
	}
	s.files.Compensate(ctx, imageID, "delete post")
	return nil
}

func (s *PostService) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, models.NewValidationError("Post ID is required")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fail(ctx, "PostService", "GetPostByID", err, map[string]interface{}{"post_id": postID})
	}
	return post, nil
}

// GetRecentPosts returns the newest posts by creation time.
func (s *PostService) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := cache.Aside(ctx, cache.RecentPostsKey, &posts, cache.RecentTTL, func() error {
		var fetchErr error
		posts, fetchErr = s.posts.List(ctx, repository.ListOptions{OrderBy: "$createdAt", Limit: RecentPostsLimit})
		return fetchErr
	})
	if err != nil {
		return nil, fail(ctx, "PostService", "GetRecentPosts", err, nil)
	}
	return posts, nil
}

// GetInfinitePosts returns one page of posts by update time, starting after cursor.
func (s *PostService) GetInfinitePosts(ctx context.Context, cursor string) ([]models.Post, error) {
	posts, err := s.posts.List(ctx, repository.ListOptions{
		OrderBy: "$updatedAt",
		Limit:   InfinitePostsLimit,
		Cursor:  cursor,
	})
	if err != nil {
		return nil, fail(ctx, "PostService", "GetInfinitePosts", err, map[string]interface{}{"cursor": cursor})
	}
	return posts, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	if userID == "" {
		return nil, models.NewValidationError("User ID is required")
	}
	posts, err := s.posts.ListByCreator(ctx, userID, repository.ListOptions{OrderBy: "$createdAt"})
	if err != nil {
		return nil, fail(ctx, "PostService", "GetUserPosts", err, map[string]interface{}{"user_id": userID})
	}
	return posts, nil
}

// SearchPosts runs a full-text search of the lowercased term over the search index.
func (s *PostService) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	posts, err := s.posts.Search(ctx, textnorm.ToLower(term))
	if err != nil {
		return nil, fail(ctx, "PostService", "SearchPosts", err, map[string]interface{}{"term": term})
	}
	return posts, nil
}

// LikePost replaces the post's likes with likes. Concurrent writers race and
// the last one wins.
func (s *PostService) LikePost(ctx context.Context, postID string, likes []string) (*models.Post, error) {
	if postID == "" {
		return nil, models.NewValidationError("Post ID is required")
	}
	post, err := s.posts.SetLikes(ctx, postID, likes)
	if err != nil {
		return nil, fail(ctx, "PostService", "LikePost", err, map[string]interface{}{"post_id": postID})
	}
	return post, nil
}

func (s *PostService) SavePost(ctx context.Context, userID, postID string) (*models.Save, error) {
	if userID == "" || postID == "" {
		return nil, models.NewValidationError("User ID and post ID are required")
	}
	save, err := s.saves.Create(ctx, userID, postID)
	if err != nil {
		return nil, fail(ctx, "PostService", "SavePost", err, map[string]interface{}{"post_id": postID})
	}
	return save, nil
}

func (s *PostService) DeleteSavedPost(ctx context.Context, saveID string) error {
	if saveID == "" {
		return models.NewValidationError("Save ID is required")
	}
	if err := s.saves.Delete(ctx, saveID); err != nil {
		return fail(ctx, "PostService", "DeleteSavedPost", err, map[string]interface{}{"save_id": saveID})
	}
	return nil
}
