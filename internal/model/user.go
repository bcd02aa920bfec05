// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Identity is delegated to an external provider, so the stable external key
// is Subject (e.g. "github:1234567"). We keep our own xid primary key so
// foreign keys never depend on a third party's numbering scheme.
//
// Optional profile fields are pointers: nil means "never set", which the
// JSON encoding reports as null rather than an empty string.
type User struct {
	ID        string    `json:"id"`
	Subject   string    `json:"-"`
	Email     string    `json:"-"`        // private; only /api/me shows it
	Username  string    `json:"username"` // unique, fixed at provisioning
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	Location  *string   `json:"location"`
	Website   *string   `json:"website"`
	Image     *string   `json:"image"` // avatar reference URL
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the public subset of u embedded in posts, comments and
// notifications.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Image:    u.Image,
	}
}

// UserSummary is the author/actor shape shown next to content.
type UserSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
	Image    *string `json:"image"`
}

// ProfileUpdate carries the editable profile fields. An empty string clears
// the field.
type ProfileUpdate struct {
	Name     string
	Bio      string
	Location string
	Website  string
}

// ProfileCounts are derived from the follow and post relations at read time.
type ProfileCounts struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
	Posts     int `json:"posts"`
}

// Profile is a user together with their derived counts.
type Profile struct {
	User
	Counts ProfileCounts `json:"_count"`
}
