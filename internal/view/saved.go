// Package view shapes domain data into screen-ready payloads.
package view

import "snapgram/internal/models"

// State is the render state of a screen.
type State string

const (
	StateLoading State = "loading"
	StateEmpty   State = "empty"
	StateReady   State = "ready"
)

const (
	SavedTitle       = "Saved Posts"
	SavedIcon        = "/assets/icons/save.svg"
	NoAvailablePosts = "No available posts"
)

// SavedPostsView is the payload of the saved-posts screen.
type SavedPostsView struct {
	State   State         `json:"state"`
	Title   string        `json:"title"`
	Icon    string        `json:"icon"`
	Message string        `json:"message,omitempty"`
	Posts   []models.Post `json:"posts"`
}

// SavedPosts builds the saved-posts screen for user. A nil user means the
// current user is still being resolved. Posts are listed newest save first,
// each carrying the current user's image as its creator image. The override
// is display-only and works on copies.
func SavedPosts(user *models.User) SavedPostsView {
	v := SavedPostsView{Title: SavedTitle, Icon: SavedIcon, Posts: []models.Post{}}
	if user == nil {
		v.State = StateLoading
		return v
	}

	for i := len(user.Save) - 1; i >= 0; i-- {
		ref := user.Save[i].Post
		if ref.IsZero() {
			continue
		}
		post := models.Post{ID: ref.ID}
		if ref.Doc != nil {
			post = *ref.Doc
		}
		creator := models.User{ID: post.Creator.ID}
		if post.Creator.Doc != nil {
			creator = *post.Creator.Doc
		}
		creator.ImageURL = user.ImageURL
		post.Creator = models.Ref[models.User]{ID: creator.ID, Doc: &creator}
		v.Posts = append(v.Posts, post)
	}

	if len(v.Posts) == 0 {
		v.State = StateEmpty
		v.Message = NoAvailablePosts
		return v
	}
	v.State = StateReady
	return v
}
