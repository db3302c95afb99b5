package server

import (
	"io"
	"log/slog"
	"strings"

	"snapgram/internal/middleware"
	"snapgram/internal/models"
	"snapgram/internal/notifications"
	"snapgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxUsersLimit = 100

// PostsPage is the response body of post list endpoints. NextCursor is set
// when another page may follow.
type PostsPage struct {
	Documents  []models.Post `json:"documents"`
	Total      int           `json:"total"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

func newPostsPage(posts []models.Post) PostsPage {
	if posts == nil {
		posts = []models.Post{}
	}
	return PostsPage{Documents: posts, Total: len(posts)}
}

// respondError writes err with the status mapped from its code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// formUpload reads the optional "file" part of a multipart request. It reads
// at most limit+1 bytes so oversized files still fail validation.
func formUpload(c *fiber.Ctx, limit int64) (*service.UploadInput, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	return &service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

func (s *Server) uploadLimit() int64 {
	return int64(s.config.ImageMaxUploadSizeMB) * 1024 * 1024
}

// currentUser resolves the profile of the signed-in account.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	user, err := s.auth.GetCurrentUser(c.UserContext())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("No profile for the current session")
	}
	return user, nil
}

// publishFeed pushes a local write to feed clients. With the realtime
// subscriber running the platform's own events are forwarded instead.
func (s *Server) publishFeed(c *fiber.Ctx, eventType, postID string) {
	if s.hub == nil || s.subscriber != nil {
		return
	}
	if err := s.hub.Publish(notifications.FeedEvent{Type: eventType, PostID: postID}); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "feed publish failed",
			slog.String("event", eventType),
			slog.String("post_id", postID),
			slog.String("error", err.Error()),
		)
	}
}
