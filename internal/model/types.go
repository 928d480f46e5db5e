package model

import "time"

// Post is a single emoji-only message. Immutable after creation; the
// only later mutation is a hard delete.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the subset of directory user fields exposed to clients.
// Username may be empty when the directory record has no handle.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// EnrichedPost pairs a post with its author's profile for display.
// Author.Username is never empty: a missing or handle-less directory
// record is replaced by PlaceholderProfile before it gets here.
type EnrichedPost struct {
	Post   Post    `json:"post"`
	Author Profile `json:"author"`
}

const (
	PlaceholderID       = "Unknown"
	PlaceholderUsername = "Unknown"
	PlaceholderImageURL = "https://cdn.chirpd.dev/avatars/default.png"
)

// PlaceholderProfile is the fallback author shown when the profile
// directory has no usable record for a post's author.
func PlaceholderProfile() Profile {
	return Profile{
		ID:              PlaceholderID,
		Username:        PlaceholderUsername,
		ProfileImageURL: PlaceholderImageURL,
	}
}
