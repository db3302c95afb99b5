package seed

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
	"snapgram/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	created []service.NewUserInput
	signIn  error
}

func (f *fakeAccounts) CreateUserAccount(_ context.Context, in service.NewUserInput) (*models.User, error) {
	f.created = append(f.created, in)
	return &models.User{ID: "u" + in.Username, Email: in.Email}, nil
}

func (f *fakeAccounts) SignIn(_ context.Context, email, _ string) (*appwrite.Session, error) {
	if f.signIn != nil {
		return nil, f.signIn
	}
	return &appwrite.Session{ID: "s", Secret: "secret-" + email}, nil
}

type fakePosts struct {
	sessions []string
	inputs   []service.CreatePostInput
}

func (f *fakePosts) CreatePost(ctx context.Context, in service.CreatePostInput) (*models.Post, error) {
	f.sessions = append(f.sessions, appwrite.SessionFrom(ctx))
	f.inputs = append(f.inputs, in)
	return &models.Post{ID: "p"}, nil
}

func TestBuildUser(t *testing.T) {
	s := NewSeeder(nil, nil, Options{Seed: 42})

	u := s.BuildUser()
	assert.NotEmpty(t, u.Name)
	assert.Equal(t, DefaultPassword, u.Password)
	assert.True(t, strings.HasPrefix(u.Email, u.Username+"@"))
	assert.Equal(t, strings.ToLower(u.Username), u.Username)
}

func TestBuildPost_ValidImage(t *testing.T) {
	s := NewSeeder(nil, nil, Options{Seed: 7})

	p, err := s.BuildPost("u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.NotEmpty(t, p.Caption)
	assert.NotEmpty(t, p.Tags)
	require.True(t, p.File.Present())

	cfg, err := png.DecodeConfig(bytes.NewReader(p.File.Content))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
}

func TestRun_PostsUnderEachUsersSession(t *testing.T) {
	accounts := &fakeAccounts{}
	posts := &fakePosts{}
	s := NewSeeder(accounts, posts, Options{Users: 2, PostsPerUser: 3, Seed: 1})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Posts: 6}, res)

	require.Len(t, accounts.created, 2)
	require.Len(t, posts.sessions, 6)
	assert.Equal(t, "secret-"+accounts.created[0].Email, posts.sessions[0])
	assert.Equal(t, "secret-"+accounts.created[1].Email, posts.sessions[5])
	assert.Equal(t, "u"+accounts.created[1].Username, posts.inputs[5].UserID)
}

func TestRun_DryRun(t *testing.T) {
	accounts := &fakeAccounts{}
	posts := &fakePosts{}
	s := NewSeeder(accounts, posts, Options{Users: 3, PostsPerUser: 2, DryRun: true})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 3, Posts: 6}, res)
	assert.Empty(t, accounts.created)
	assert.Empty(t, posts.inputs)
}

func TestRun_StopsOnSignInFailure(t *testing.T) {
	accounts := &fakeAccounts{signIn: errors.New("boom")}
	posts := &fakePosts{}
	s := NewSeeder(accounts, posts, Options{Users: 2, PostsPerUser: 1})

	res, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, res.Users)
	assert.Empty(t, posts.inputs)
}
