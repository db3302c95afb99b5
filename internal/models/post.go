package models

import "time"

// Post is a document in the posts collection. Search holds the derived index
// entries computed from caption, location and tags on every write.
type Post struct {
	ID        string      `json:"$id"`
	Creator   Ref[User]   `json:"creator"`
	Caption   string      `json:"caption"`
	ImageURL  string      `json:"imageUrl"`
	ImageID   string      `json:"imageId"`
	Location  string      `json:"location"`
	Tags      []string    `json:"tags"`
	Search    []string    `json:"search,omitempty"`
	Likes     []Ref[User] `json:"likes"`
	Save      []Save      `json:"save,omitempty"`
	CreatedAt time.Time   `json:"$createdAt"`
	UpdatedAt time.Time   `json:"$updatedAt"`
}

// LikeIDs returns the ids of the users who liked the post.
func (p *Post) LikeIDs() []string {
	ids := make([]string, 0, len(p.Likes))
	for _, l := range p.Likes {
		ids = append(ids, l.ID)
	}
	return ids
}
