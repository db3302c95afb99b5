// Package seed creates demo accounts and posts through the application's own
// services. It is intended for development projects only.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"

	"snapgram/internal/appwrite"
	"snapgram/internal/models"
	"snapgram/internal/observability"
	"snapgram/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is given to every seeded account.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	Users        int
	PostsPerUser int
	Password     string
	DryRun       bool
	// Seed makes generated data reproducible when non-zero.
	Seed int64
}

// Accounts registers and signs in users. *service.AuthService satisfies it.
type Accounts interface {
	CreateUserAccount(ctx context.Context, in service.NewUserInput) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*appwrite.Session, error)
}

// Posts creates posts. *service.PostService satisfies it.
type Posts interface {
	CreatePost(ctx context.Context, in service.CreatePostInput) (*models.Post, error)
}

// Result counts what a run created.
type Result struct {
	Users int
	Posts int
}

// Seeder drives a seeding run.
type Seeder struct {
	accounts Accounts
	posts    Posts
	faker    *gofakeit.Faker
	opts     Options
}

// NewSeeder builds a Seeder.
func NewSeeder(accounts Accounts, posts Posts, opts Options) *Seeder {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	faker := gofakeit.New(opts.Seed)
	return &Seeder{accounts: accounts, posts: posts, faker: faker, opts: opts}
}

// BuildUser returns a random sign-up payload.
func (s *Seeder) BuildUser() service.NewUserInput {
	first, last := s.faker.FirstName(), s.faker.LastName()
	username := strings.ToLower(first+last) + fmt.Sprint(s.faker.Number(100, 999))
	return service.NewUserInput{
		Name:     first + " " + last,
		Username: username,
		Email:    username + "@" + s.faker.DomainName(),
		Password: s.opts.Password,
	}
}

// BuildPost returns a random post payload with a generated image for userID.
func (s *Seeder) BuildPost(userID string) (service.CreatePostInput, error) {
	img, err := s.image()
	if err != nil {
		return service.CreatePostInput{}, err
	}

	tags := make([]string, s.faker.Number(1, 4))
	for i := range tags {
		tags[i] = strings.ToLower(s.faker.Hobby())
	}

	return service.CreatePostInput{
		UserID:   userID,
		Caption:  s.faker.Sentence(s.faker.Number(4, 12)),
		Location: s.faker.City() + ", " + s.faker.Country(),
		Tags:     strings.Join(tags, ", "),
		File: &service.UploadInput{
			Filename:    s.faker.UUID() + ".png",
			ContentType: "image/png",
			Content:     img,
		},
	}, nil
}

// image draws a small two-tone PNG.
func (s *Seeder) image() ([]byte, error) {
	const size = 64
	top := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}
	bottom := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		c := top
		if y >= size/2 {
			c = bottom
		}
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode seed image: %w", err)
	}
	return buf.Bytes(), nil
}

// Run creates opts.Users accounts, each with opts.PostsPerUser posts written
// under that user's own session. It stops at the first failure.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	log := observability.GlobalLogger

	for i := 0; i < s.opts.Users; i++ {
		in := s.BuildUser()
		if s.opts.DryRun {
			log.InfoContext(ctx, "[dry-run] create user", slog.String("email", in.Email))
			res.Users++
			res.Posts += s.opts.PostsPerUser
			continue
		}

		user, err := s.accounts.CreateUserAccount(ctx, in)
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", in.Email, err)
		}
		res.Users++

		session, err := s.accounts.SignIn(ctx, in.Email, in.Password)
		if err != nil {
			return res, fmt.Errorf("sign in %s: %w", in.Email, err)
		}
		userCtx := appwrite.WithSession(ctx, session.Secret)

		for j := 0; j < s.opts.PostsPerUser; j++ {
			post, err := s.BuildPost(user.ID)
			if err != nil {
				return res, err
			}
			if _, err := s.posts.CreatePost(userCtx, post); err != nil {
				return res, fmt.Errorf("create post for %s: %w", in.Email, err)
			}
			res.Posts++
		}

		log.InfoContext(ctx, "seeded user",
			slog.String("user_id", user.ID),
			slog.String("email", in.Email),
			slog.Int("posts", s.opts.PostsPerUser),
		)
	}
	return res, nil
}
