package appwrite

import "net/url"

// Avatars derives avatar image URLs.
type Avatars struct {
	client *Client
}

// NewAvatars returns the avatars service for c.
func NewAvatars(c *Client) *Avatars {
	return &Avatars{client: c}
}

// InitialsURL returns the URL of a generated initials avatar for name.
func (a *Avatars) InitialsURL(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("project", a.client.ProjectID())
	return a.client.url("/avatars/initials", q)
}
