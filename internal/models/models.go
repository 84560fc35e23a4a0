package models

import (
	"strings"
	"time"
)

// Size represents the pixel dimensions of a photo
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Photo represents a photo held by the feed
type Photo struct {
	ID            string     `json:"id"`
	Size          Size       `json:"size"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	Description   *string    `json:"description,omitempty"`
	ThumbImageURL string     `json:"thumb_image_url"`
	LargeImageURL string     `json:"large_image_url"`
	FullImageURL  string     `json:"full_image_url"`
	IsLiked       bool       `json:"is_liked"`
}

// Profile represents the signed-in user's profile
type Profile struct {
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	LoginName string  `json:"login_name"`
	Bio       *string `json:"bio,omitempty"`
}

// URLsResult holds the image URLs returned for a photo
type URLsResult struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

// PhotoResult is a photo as returned by GET /photos
type PhotoResult struct {
	ID          string     `json:"id"`
	CreatedAt   string     `json:"created_at"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Likes       int        `json:"likes"`
	IsLiked     bool       `json:"liked_by_user"`
	Description *string    `json:"description"`
	URLs        URLsResult `json:"urls"`
}

// ProfileResult is the body of GET /me
type ProfileResult struct {
	Username  string  `json:"username"`
	Name      *string `json:"name"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// ProfileImage holds the avatar URLs of a user
type ProfileImage struct {
	Small string `json:"small"`
}

// UserResult is the body of GET /users/{username}
type UserResult struct {
	ProfileImage ProfileImage `json:"profile_image"`
}

// OAuthTokenResponse is the body of POST /oauth/token
type OAuthTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// NewPhoto converts a wire photo into a feed photo.
// CreatedAt stays nil when the server timestamp does not parse.
func NewPhoto(r PhotoResult) Photo {
	photo := Photo{
		ID:            r.ID,
		Size:          Size{Width: r.Width, Height: r.Height},
		Description:   r.Description,
		ThumbImageURL: r.URLs.Thumb,
		LargeImageURL: r.URLs.Regular,
		FullImageURL:  r.URLs.Full,
		IsLiked:       r.IsLiked,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		photo.CreatedAt = &t
	}
	return photo
}

// NewProfile derives a Profile from the /me response
func NewProfile(r ProfileResult) Profile {
	parts := make([]string, 0, 2)
	if r.FirstName != nil {
		parts = append(parts, *r.FirstName)
	}
	if r.LastName != nil {
		parts = append(parts, *r.LastName)
	}
	if len(parts) == 0 && r.Name != nil {
		parts = append(parts, *r.Name)
	}

	return Profile{
		Username:  r.Username,
		Name:      strings.Join(parts, " "),
		LoginName: "@" + r.Username,
		Bio:       r.Bio,
	}
}
