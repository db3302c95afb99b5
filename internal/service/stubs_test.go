package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
	"snapgram/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, repository.PostDocument) (*models.Post, error)
	getByIDFn       func(context.Context, string) (*models.Post, error)
	updateFn        func(context.Context, string, repository.PostDocument) (*models.Post, error)
	deleteFn        func(context.Context, string) error
	listFn          func(context.Context, repository.ListOptions) ([]models.Post, error)
	listByCreatorFn func(context.Context, string, repository.ListOptions) ([]models.Post, error)
	searchFn        func(context.Context, string) ([]models.Post, error)
	setLikesFn      func(context.Context, string, []string) (*models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, doc repository.PostDocument) (*models.Post, error) {
	return s.createFn(ctx, doc)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, id string, doc repository.PostDocument) (*models.Post, error) {
	return s.updateFn(ctx, id, doc)
}
func (s *postRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, opts repository.ListOptions) ([]models.Post, error) {
	return s.listFn(ctx, opts)
}
func (s *postRepoStub) ListByCreator(ctx context.Context, userID string, opts repository.ListOptions) ([]models.Post, error) {
	return s.listByCreatorFn(ctx, userID, opts)
}
func (s *postRepoStub) Search(ctx context.Context, term string) ([]models.Post, error) {
	return s.searchFn(ctx, term)
}
func (s *postRepoStub) SetLikes(ctx context.Context, id string, likes []string) (*models.Post, error) {
	return s.setLikesFn(ctx, id, likes)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, doc repository.PostDocument) (*models.Post, error) {
			return &models.Post{ID: "p1", Caption: doc.Caption, ImageID: doc.ImageID, ImageURL: doc.ImageURL}, nil
		},
		getByIDFn: func(_ context.Context, id string) (*models.Post, error) { return &models.Post{ID: id}, nil },
		updateFn: func(_ context.Context, id string, doc repository.PostDocument) (*models.Post, error) {
			return &models.Post{ID: id, Caption: doc.Caption, ImageID: doc.ImageID, ImageURL: doc.ImageURL}, nil
		},
		deleteFn:        func(_ context.Context, _ string) error { return nil },
		listFn:          func(_ context.Context, _ repository.ListOptions) ([]models.Post, error) { return []models.Post{}, nil },
		listByCreatorFn: func(_ context.Context, _ string, _ repository.ListOptions) ([]models.Post, error) { return []models.Post{}, nil },
		searchFn:        func(_ context.Context, _ string) ([]models.Post, error) { return []models.Post{}, nil },
		setLikesFn: func(_ context.Context, id string, likes []string) (*models.Post, error) {
			p := &models.Post{ID: id}
			for _, l := range likes {
				p.Likes = append(p.Likes, models.Ref[models.User]{ID: l})
			}
			return p, nil
		},
	}
}

// saveRepoStub is a stub for repository.SaveRepository.
type saveRepoStub struct {
	createFn func(context.Context, string, string) (*models.Save, error)
	deleteFn func(context.Context, string) error
}

func (s *saveRepoStub) Create(ctx context.Context, userID, postID string) (*models.Save, error) {
	return s.createFn(ctx, userID, postID)
}
func (s *saveRepoStub) Delete(ctx context.Context, saveID string) error {
	return s.deleteFn(ctx, saveID)
}

func noopSaveRepo() *saveRepoStub {
	return &saveRepoStub{
		createFn: func(_ context.Context, u, p string) (*models.Save, error) {
			return &models.Save{ID: "s1", User: models.Ref[models.User]{ID: u}, Post: models.Ref[models.Post]{ID: p}}, nil
		},
		deleteFn: func(_ context.Context, _ string) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn         func(context.Context, repository.UserDocument) (*models.User, error)
	getByIDFn        func(context.Context, string) (*models.User, error)
	getByAccountIDFn func(context.Context, string) (*models.User, error)
	listFn           func(context.Context, repository.ListOptions) ([]models.User, error)
	updateFn         func(context.Context, string, repository.UserUpdate) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, doc repository.UserDocument) (*models.User, error) {
	return s.createFn(ctx, doc)
}
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	return s.getByAccountIDFn(ctx, accountID)
}
func (s *userRepoStub) List(ctx context.Context, opts repository.ListOptions) ([]models.User, error) {
	return s.listFn(ctx, opts)
}
func (s *userRepoStub) Update(ctx context.Context, id string, upd repository.UserUpdate) (*models.User, error) {
	return s.updateFn(ctx, id, upd)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, doc repository.UserDocument) (*models.User, error) {
			return &models.User{ID: "u1", AccountID: doc.AccountID, Name: doc.Name, Username: doc.Username, ImageURL: doc.ImageURL}, nil
		},
		getByIDFn:        func(_ context.Context, id string) (*models.User, error) { return &models.User{ID: id}, nil },
		getByAccountIDFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		listFn:           func(_ context.Context, _ repository.ListOptions) ([]models.User, error) { return []models.User{}, nil },
		updateFn: func(_ context.Context, id string, upd repository.UserUpdate) (*models.User, error) {
			return &models.User{ID: id, Name: upd.Name, Bio: upd.Bio, ImageID: upd.ImageID, ImageURL: upd.ImageURL}, nil
		},
	}
}

// fileRepoStub is a stub for repository.FileRepository that records deletes.
type fileRepoStub struct {
	uploadFn  func(context.Context, string, string, []byte) (*models.File, error)
	previewFn func(string) (string, error)
	deleteFn  func(context.Context, string) error
	deleted   []string
	uploads   int
}

func (s *fileRepoStub) Upload(ctx context.Context, name, contentType string, content []byte) (*models.File, error) {
	s.uploads++
	return s.uploadFn(ctx, name, contentType, content)
}
func (s *fileRepoStub) PreviewURL(fileID string) (string, error) {
	return s.previewFn(fileID)
}
func (s *fileRepoStub) Delete(ctx context.Context, fileID string) error {
	s.deleted = append(s.deleted, fileID)
	return s.deleteFn(ctx, fileID)
}
func (s *fileRepoStub) Bucket() string { return "media" }

func noopFileRepo() *fileRepoStub {
	return &fileRepoStub{
		uploadFn: func(_ context.Context, name, _ string, _ []byte) (*models.File, error) {
			return &models.File{ID: "new-file", Name: name}, nil
		},
		previewFn: func(id string) (string, error) { return "https://cdn.example/" + id, nil },
		deleteFn:  func(_ context.Context, _ string) error { return nil },
	}
}

// orphanRepoStub is an in-memory repository.OrphanRepository.
type orphanRepoStub struct {
	rows     []models.OrphanedFile
	resolved []uint
	failed   []uint
	recordFn func(context.Context, string, string, string, error) error
}

func (s *orphanRepoStub) Record(ctx context.Context, bucketID, fileID, reason string, cause error) error {
	if s.recordFn != nil {
		return s.recordFn(ctx, bucketID, fileID, reason, cause)
	}
	s.rows = append(s.rows, models.OrphanedFile{
		ID: uint(len(s.rows) + 1), FileID: fileID, BucketID: bucketID, Reason: reason, Status: models.OrphanPending,
	})
	return nil
}
func (s *orphanRepoStub) ListPending(_ context.Context, _ int) ([]models.OrphanedFile, error) {
	return s.rows, nil
}
func (s *orphanRepoStub) MarkResolved(_ context.Context, id uint) error {
	s.resolved = append(s.resolved, id)
	return nil
}
func (s *orphanRepoStub) MarkFailed(_ context.Context, id uint, _ error, _ int) error {
	s.failed = append(s.failed, id)
	return nil
}

// accountStub is a stub for AccountAPI.
type accountStub struct {
	createFn        func(context.Context, string, string, string, string) (*appwrite.Account, error)
	createSessionFn func(context.Context, string, string) (*appwrite.Session, error)
	deleteSessionFn func(context.Context, string) error
	getFn           func(context.Context) (*appwrite.Account, error)
}

func (s *accountStub) Create(ctx context.Context, userID, email, password, name string) (*appwrite.Account, error) {
	return s.createFn(ctx, userID, email, password, name)
}
func (s *accountStub) CreateEmailPasswordSession(ctx context.Context, email, password string) (*appwrite.Session, error) {
	return s.createSessionFn(ctx, email, password)
}
func (s *accountStub) DeleteSession(ctx context.Context, sessionID string) error {
	return s.deleteSessionFn(ctx, sessionID)
}
func (s *accountStub) Get(ctx context.Context) (*appwrite.Account, error) {
	return s.getFn(ctx)
}

type avatarStub struct{}

func (avatarStub) InitialsURL(name string) string { return "https://avatars.example/" + name }

var errRemote = models.NewRemoteError("platform call", errors.New("503 service unavailable"))

// pngBytes encodes a tiny valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T) *UploadInput {
	return &UploadInput{Filename: "pic.png", ContentType: "image/png", Content: pngBytes(t)}
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
