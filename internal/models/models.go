package models

import (
	"strings"
	"time"
)

// Profile represents the signed-in user's profile
type Profile struct {
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	LoginName string  `json:"login_name"`
	Bio       *string `json:"bio,omitempty"`
}

// Size holds photo dimensions in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Photo represents a photo in the feed
type Photo struct {
	ID                 string     `json:"id"`
	Size               Size       `json:"size"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	WelcomeDescription *string    `json:"description,omitempty"`
	ThumbImageURL      string     `json:"thumb_image_url"`
	SmallImageURL      string     `json:"small_image_url"`
	RegularImageURL    string     `json:"regular_image_url"`
	FullImageURL       string     `json:"full_image_url"`
	IsLiked            bool       `json:"is_liked"`
}

// PhotoResult is a photo as returned by GET /photos
type PhotoResult struct {
	ID            string     `json:"id"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	CreatedAt     *string    `json:"created_at"`
	Description   *string    `json:"description"`
	IsLikedByUser bool       `json:"liked_by_user"`
	URLs          URLsResult `json:"urls"`
}

// URLsResult holds image URLs at several resolutions
type URLsResult struct {
	Thumb   string `json:"thumb"`
	Small   string `json:"small"`
	Regular string `json:"regular"`
	Full    string `json:"full"`
}

// Photo converts the API record into a feed photo
func (r PhotoResult) Photo() Photo {
	return Photo{
		ID:                 r.ID,
		Size:               Size{Width: r.Width, Height: r.Height},
		CreatedAt:          parseCreatedAt(r.CreatedAt),
		WelcomeDescription: r.Description,
		ThumbImageURL:      r.URLs.Thumb,
		SmallImageURL:      r.URLs.Small,
		RegularImageURL:    r.URLs.Regular,
		FullImageURL:       r.URLs.Full,
		IsLiked:            r.IsLikedByUser,
	}
}

// parseCreatedAt accepts RFC 3339 timestamps; anything else is treated as missing
func parseCreatedAt(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

// ProfileResult is the body of GET /me
type ProfileResult struct {
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Bio       *string `json:"bio"`
}

// Profile converts the API record into a profile
func (r ProfileResult) Profile() Profile {
	return Profile{
		Username:  r.Username,
		Name:      strings.TrimSpace(r.FirstName + " " + r.LastName),
		LoginName: "@" + r.Username,
		Bio:       r.Bio,
	}
}

// ProfileImage holds avatar URLs
type ProfileImage struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// UserResult is the body of GET /users/{username}
type UserResult struct {
	ProfileImage ProfileImage `json:"profile_image"`
}
