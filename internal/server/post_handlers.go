package server

import (
	"snapgram/internal/models"
	"snapgram/internal/notifications"
	"snapgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postForm is the body of create and update requests. Uploads come as
// multipart with the image in the "file" part.
type postForm struct {
	Caption  string `json:"caption" form:"caption"`
	Location string `json:"location" form:"location"`
	Tags     string `json:"tags" form:"tags"`
}

func (s *Server) parsePostForm(c *fiber.Ctx) (postForm, *service.UploadInput, error) {
	var req postForm
	if len(c.Body()) > 0 || isMultipart(c) {
		if err := c.BodyParser(&req); err != nil {
			return req, nil, models.NewValidationError("Invalid request body")
		}
	}
	upload, err := formUpload(c, s.uploadLimit())
	if err != nil {
		return req, nil, err
	}
	return req, upload, nil
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	req, upload, err := s.parsePostForm(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   user.ID,
		Caption:  req.Caption,
		Location: req.Location,
		Tags:     req.Tags,
		File:     upload,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishFeed(c, notifications.EventPostCreated, post.ID)
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	req, upload, err := s.parsePostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.posts.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:   c.Params("id"),
		Caption:  req.Caption,
		Location: req.Location,
		Tags:     req.Tags,
		File:     upload,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishFeed(c, notifications.EventPostUpdated, post.ID)
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id?imageId=
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID := c.Params("id")
	if err := s.posts.DeletePost(c.UserContext(), postID, c.Query("imageId")); err != nil {
		return respondError(c, err)
	}

	s.publishFeed(c, notifications.EventPostDeleted, postID)
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.posts.GetPostByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetRecentPosts handles GET /api/posts/recent
func (s *Server) GetRecentPosts(c *fiber.Ctx) error {
	posts, err := s.posts.GetRecentPosts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newPostsPage(posts))
}

// GetInfinitePosts handles GET /api/posts?cursor=
func (s *Server) GetInfinitePosts(c *fiber.Ctx) error {
	posts, err := s.posts.GetInfinitePosts(c.UserContext(), c.Query("cursor"))
	if err != nil {
		return respondError(c, err)
	}

	page := newPostsPage(posts)
	if len(posts) == service.InfinitePostsLimit {
		page.NextCursor = posts[len(posts)-1].ID
	}
	return c.JSON(page)
}

// SearchPosts handles GET /api/posts/search?q=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.posts.SearchPosts(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newPostsPage(posts))
}

// LikePost handles PUT /api/posts/:id/likes with the full new likes list.
func (s *Server) LikePost(c *fiber.Ctx) error {
	var req struct {
		Likes []string `json:"likes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.LikePost(c.UserContext(), c.Params("id"), req.Likes)
	if err != nil {
		return respondError(c, err)
	}
	s.publishFeed(c, notifications.EventPostUpdated, post.ID)
	return c.JSON(post)
}

// SavePost handles POST /api/posts/:id/save for the current user.
func (s *Server) SavePost(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	save, err := s.posts.SavePost(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(save)
}

// DeleteSavedPost handles DELETE /api/saves/:id
func (s *Server) DeleteSavedPost(c *fiber.Ctx) error {
	if err := s.posts.DeleteSavedPost(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	posts, err := s.posts.GetUserPosts(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newPostsPage(posts))
}
