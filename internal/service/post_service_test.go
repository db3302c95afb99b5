package service

import (
	"context"
	"errors"
	"testing"

	"snapgram/internal/models"
	"snapgram/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostService(posts *postRepoStub, files *fileRepoStub) *PostService {
	return NewPostService(posts, noopSaveRepo(), NewFileService(files, &orphanRepoStub{}, nil))
}

func TestCreatePost(t *testing.T) {
	posts := noopPostRepo()
	var sent repository.PostDocument
	posts.createFn = func(_ context.Context, doc repository.PostDocument) (*models.Post, error) {
		sent = doc
		return &models.Post{ID: "p1"}, nil
	}
	files := noopFileRepo()
	svc := newPostService(posts, files)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:   "u1",
		Caption:  "Đi Chơi",
		Location: "Hà Nội",
		Tags:     "travel, food",
		File:     pngUpload(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)

	assert.Equal(t, "u1", sent.Creator)
	assert.Equal(t, "new-file", sent.ImageID)
	assert.Equal(t, "https://cdn.example/new-file", sent.ImageURL)
	assert.Equal(t, []string{"travel", "food"}, sent.Tags)
	assert.Equal(t, []string{
		"đi chơi", "hà nội",
		"travel", "food",
		"Di Choi", "Ha Noi",
		"ĐiChơi", "HàNội",
		"DiChoi", "HaNoi",
	}, sent.Search)
	assert.Empty(t, files.deleted)
}

func TestCreatePost_Validation(t *testing.T) {
	files := noopFileRepo()
	svc := newPostService(noopPostRepo(), files)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{File: pngUpload(t)})
	assertValidationError(t, err)

	_, err = svc.CreatePost(context.Background(), CreatePostInput{UserID: "u1"})
	assertValidationError(t, err)
	assert.Zero(t, files.uploads)
}

func TestCreatePost_DocumentFailureDeletesUpload(t *testing.T) {
	posts := noopPostRepo()
	posts.createFn = func(context.Context, repository.PostDocument) (*models.Post, error) {
		return nil, errRemote
	}
	files := noopFileRepo()
	svc := newPostService(posts, files)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: "u1", File: pngUpload(t)})
	assertCode(t, err, models.CodeRemote)
	assert.Equal(t, []string{"new-file"}, files.deleted)
}

func TestCreatePost_PreviewFailure(t *testing.T) {
	posts := noopPostRepo()
	created := false
	posts.createFn = func(context.Context, repository.PostDocument) (*models.Post, error) {
		created = true
		return &models.Post{}, nil
	}
	files := noopFileRepo()
	files.previewFn = func(string) (string, error) { return "", errors.New("bad id") }
	svc := newPostService(posts, files)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: "u1", File: pngUpload(t)})
	assertCode(t, err, models.CodePartialFailure)
	assert.False(t, created)
	assert.Equal(t, []string{"new-file"}, files.deleted)
}

func storedPost(posts *postRepoStub, imageID, imageURL string) {
	posts.getByIDFn = func(_ context.Context, id string) (*models.Post, error) {
		return &models.Post{ID: id, ImageID: imageID, ImageURL: imageURL}, nil
	}
}

func TestUpdatePost_WithoutFileKeepsImage(t *testing.T) {
	posts := noopPostRepo()
	storedPost(posts, "old-file", "old-url")
	var sent repository.PostDocument
	posts.updateFn = func(_ context.Context, id string, doc repository.PostDocument) (*models.Post, error) {
		sent = doc
		return &models.Post{ID: id}, nil
	}
	files := noopFileRepo()
	svc := newPostService(posts, files)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: "p1", Caption: "new"})
	require.NoError(t, err)
	assert.Equal(t, "old-file", sent.ImageID)
	assert.Equal(t, "old-url", sent.ImageURL)
	assert.Zero(t, files.uploads)
	assert.Empty(t, files.deleted)
}

func TestUpdatePost_StoreMissingFailsBeforeUpload(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id string) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	files := noopFileRepo()
	svc := newPostService(posts, files)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: "p1", Caption: "c", File: pngUpload(t)})
	assertCode(t, err, models.CodeNotFound)
	assert.Zero(t, files.uploads)
}

func TestUpdatePost_NewFileReplacesStoredImage(t *testing.T) {
	posts := noopPostRepo()
	storedPost(posts, "old-file", "old-url")
	files := noopFileRepo()
	svc := newPostService(posts, files)

	post, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: "p1", File: pngUpload(t)})
	require.NoError(t, err)
	assert.Equal(t, "new-file", post.ImageID)
	assert.Equal(t, []string{"old-file"}, files.deleted)
}

func TestUpdatePost_FailureDeletesOnlyNewUpload(t *testing.T) {
	posts := noopPostRepo()
	storedPost(posts, "old-file", "old-url")
	posts.updateFn = func(context.Context, string, repository.PostDocument) (*models.Post, error) {
		return nil, errRemote
	}
	files := noopFileRepo()
	svc := newPostService(posts, files)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: "p1", File: pngUpload(t)})
	assertCode(t, err, models.CodeRemote)
	assert.Equal(t, []string{"new-file"}, files.deleted)
}

func TestDeletePost(t *testing.T) {
	t.Run("missing ids make no remote call", func(t *testing.T) {
		posts := noopPostRepo()
		called := false
		posts.deleteFn = func(context.Context, string) error {
			called = true
			return nil
		}
		files := noopFileRepo()
		svc := newPostService(posts, files)

		assertValidationError(t, svc.DeletePost(context.Background(), "", "f1"))
		assertValidationError(t, svc.DeletePost(context.Background(), "p1", ""))
		assert.False(t, called)
		assert.Empty(t, files.deleted)
	})

	t.Run("deletes document then image", func(t *testing.T) {
		files := noopFileRepo()
		svc := newPostService(noopPostRepo(), files)
		require.NoError(t, svc.DeletePost(context.Background(), "p1", "f1"))
		assert.Equal(t, []string{"f1"}, files.deleted)
	})

	t.Run("document failure keeps image", func(t *testing.T) {
		posts := noopPostRepo()
		posts.deleteFn = func(context.Context, string) error { return errRemote }
		files := noopFileRepo()
		svc := newPostService(posts, files)
		assertCode(t, svc.DeletePost(context.Background(), "p1", "f1"), models.CodeRemote)
		assert.Empty(t, files.deleted)
	})
}

func TestListQueries(t *testing.T) {
	posts := noopPostRepo()
	var got []repository.ListOptions
	posts.listFn = func(_ context.Context, opts repository.ListOptions) ([]models.Post, error) {
		got = append(got, opts)
		return []models.Post{}, nil
	}
	svc := newPostService(posts, noopFileRepo())
	ctx := context.Background()

	_, err := svc.GetRecentPosts(ctx)
	require.NoError(t, err)
	_, err = svc.GetInfinitePosts(ctx, "")
	require.NoError(t, err)
	_, err = svc.GetInfinitePosts(ctx, "p10")
	require.NoError(t, err)

	assert.Equal(t, []repository.ListOptions{
		{OrderBy: "$createdAt", Limit: 20},
		{OrderBy: "$updatedAt", Limit: 10},
		{OrderBy: "$updatedAt", Limit: 10, Cursor: "p10"},
	}, got)
}

func TestGetUserPosts(t *testing.T) {
	posts := noopPostRepo()
	var gotUser string
	var gotOpts repository.ListOptions
	posts.listByCreatorFn = func(_ context.Context, userID string, opts repository.ListOptions) ([]models.Post, error) {
		gotUser, gotOpts = userID, opts
		return []models.Post{{ID: "p1"}}, nil
	}
	svc := newPostService(posts, noopFileRepo())

	_, err := svc.GetUserPosts(context.Background(), "")
	assertValidationError(t, err)

	list, err := svc.GetUserPosts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, repository.ListOptions{OrderBy: "$createdAt"}, gotOpts)
}

func TestSearchPosts_LowercasesTerm(t *testing.T) {
	posts := noopPostRepo()
	var term string
	posts.searchFn = func(_ context.Context, q string) ([]models.Post, error) {
		term = q
		return []models.Post{}, nil
	}
	svc := newPostService(posts, noopFileRepo())

	_, err := svc.SearchPosts(context.Background(), "  Hà Nội ")
	require.NoError(t, err)
	assert.Equal(t, "hà nội", term)

	_, err = svc.SearchPosts(context.Background(), "   ")
	assertValidationError(t, err)
}

func TestLikePost_ReplacesList(t *testing.T) {
	svc := newPostService(noopPostRepo(), noopFileRepo())

	post, err := svc.LikePost(context.Background(), "p1", []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, post.LikeIDs())

	post, err = svc.LikePost(context.Background(), "p1", []string{})
	require.NoError(t, err)
	assert.Empty(t, post.LikeIDs())

	_, err = svc.LikePost(context.Background(), "", nil)
	assertValidationError(t, err)
}

func TestSaveAndUnsave(t *testing.T) {
	svc := newPostService(noopPostRepo(), noopFileRepo())

	save, err := svc.SavePost(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", save.Post.ID)

	_, err = svc.SavePost(context.Background(), "u1", "")
	assertValidationError(t, err)

	require.NoError(t, svc.DeleteSavedPost(context.Background(), "s1"))
	assertValidationError(t, svc.DeleteSavedPost(context.Background(), ""))
}
