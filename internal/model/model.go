// Package model defines domain entities used by services and repositories.
package model

import "time"

// User represents an account row. PasswordHash is an encoded argon2id hash
// and is never exposed outside the service layer.
type User struct {
	ID            int64
	DisplayName   string
	Email         string
	PasswordHash  string
	EmailVerified bool
	ImageURL      string
	Status        string // "" or "deleted"
	CreatedAt     time.Time
}

// Profile is the public profile view of a user.
type Profile struct {
	Username    string `json:"username"`
	Title       string `json:"title"`
	Designation string `json:"designation"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url"`
	Git         string `json:"git"`
	Website     string `json:"website"`
	Twitter     string `json:"twitter"`
	Karma       string `json:"karma"`
}

// Links collects the external links editable on a profile.
type Links struct {
	Website string `json:"website"`
	Git     string `json:"git"`
	Twitter string `json:"twitter"`
}

// UserSummary is one entry of a paginated user listing.
type UserSummary struct {
	ID          int64  `json:"id,string"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
	ImageURL    string `json:"profile_image_url"`
}

// ProfileField enumerates the single-column profile attributes that may be
// updated through the generic update path. Values double as column names and
// are the only strings ever interpolated into update statements.
type ProfileField string

const (
	// FieldUsername backs both the "username" and the plain "name" updates;
	// the original schema stores either in display_name.
	FieldUsername    ProfileField = "display_name"
	FieldTitle       ProfileField = "title"
	FieldDesignation ProfileField = "designation"
	FieldLocation    ProfileField = "location"
)

// Valid reports whether f is one of the allow-listed profile columns.
func (f ProfileField) Valid() bool {
	switch f {
	case FieldUsername, FieldTitle, FieldDesignation, FieldLocation:
		return true
	}
	return false
}
