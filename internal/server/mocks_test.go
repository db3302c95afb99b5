package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"snapgram/internal/appwrite"
	"snapgram/internal/config"
	"snapgram/internal/middleware"
	"snapgram/internal/models"
	"snapgram/internal/notifications"
	"snapgram/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostAPI is a mock of the PostAPI interface
type MockPostAPI struct {
	mock.Mock
}

func (m *MockPostAPI) CreatePost(ctx context.Context, in service.CreatePostInput) (*models.Post, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostAPI) UpdatePost(ctx context.Context, in service.UpdatePostInput) (*models.Post, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostAPI) DeletePost(ctx context.Context, postID, imageID string) error {
	args := m.Called(ctx, postID, imageID)
	return args.Error(0)
}

func (m *MockPostAPI) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostAPI) GetRecentPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockPostAPI) GetInfinitePosts(ctx context.Context, cursor string) ([]models.Post, error) {
	args := m.Called(ctx, cursor)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockPostAPI) GetUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	args := m.Called(ctx, userID)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockPostAPI) SearchPosts(ctx context.Context, term string) ([]models.Post, error) {
	args := m.Called(ctx, term)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockPostAPI) LikePost(ctx context.Context, postID string, likes []string) (*models.Post, error) {
	args := m.Called(ctx, postID, likes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostAPI) SavePost(ctx context.Context, userID, postID string) (*models.Save, error) {
	args := m.Called(ctx, userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Save), args.Error(1)
}

func (m *MockPostAPI) DeleteSavedPost(ctx context.Context, saveID string) error {
	args := m.Called(ctx, saveID)
	return args.Error(0)
}

// MockUserAPI is a mock of the UserAPI interface
type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) GetUsers(ctx context.Context, limit int) ([]models.User, error) {
	args := m.Called(ctx, limit)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserAPI) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserAPI) UpdateUser(ctx context.Context, in service.UpdateUserInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockAuthAPI is a mock of the AuthAPI interface
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) CreateUserAccount(ctx context.Context, in service.NewUserInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthAPI) SignIn(ctx context.Context, email, password string) (*appwrite.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.Session), args.Error(1)
}

func (m *MockAuthAPI) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuthAPI) GetAccount(ctx context.Context) (*appwrite.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.Account), args.Error(1)
}

func (m *MockAuthAPI) GetCurrentUser(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type testEnv struct {
	app   *fiber.App
	srv   *Server
	posts *MockPostAPI
	users *MockUserAPI
	auth  *MockAuthAPI
	token string
}

const testSessionSecret = "session-secret-1"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		posts: new(MockPostAPI),
		users: new(MockUserAPI),
		auth:  new(MockAuthAPI),
	}
	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret-key-12345678901234567890123456789012",
		JWTTTLHours:          1,
		ImageMaxUploadSizeMB: 1,
	}
	srv, err := NewServerWithDeps(cfg, Deps{
		Posts: env.posts,
		Users: env.users,
		Auth:  env.auth,
		Hub:   notifications.NewHub(),
	})
	require.NoError(t, err)
	env.srv = srv
	env.app = srv.NewApp()

	env.token, err = middleware.IssueToken("acc-1", "sess-1", testSessionSecret, time.Time{})
	require.NoError(t, err)

	t.Cleanup(func() {
		env.posts.AssertExpectations(t)
		env.users.AssertExpectations(t)
		env.auth.AssertExpectations(t)
	})
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request, authed bool) *http.Response {
	t.Helper()
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// withSession matches contexts carrying the test session.
func withSession() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		return appwrite.SessionFrom(ctx) == testSessionSecret
	})
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartRequest builds a form with fields and, when content is non-nil, a
// "file" part.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="pic.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
