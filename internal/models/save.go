package models

import "time"

// Save is the join document recording that a user saved a post.
type Save struct {
	ID        string    `json:"$id"`
	User      Ref[User] `json:"user"`
	Post      Ref[Post] `json:"post"`
	CreatedAt time.Time `json:"$createdAt"`
}
