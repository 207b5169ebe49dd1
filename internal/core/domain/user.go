package domain

import (
	"strconv"
	"time"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

const usersCollection = "users"

// User is a registered account. Email is the login identity and is unique.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	Role         Role
	// HasImage is set once an avatar has been uploaded; the reference itself
	// is derived from the id, see ImagePath.
	HasImage  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID makes a profile addressable by the access policy: a user owns itself.
func (u *User) OwnerID() int64 { return u.ID }

// ImagePath returns the public avatar reference, or nil when none was uploaded.
func (u *User) ImagePath() *string {
	if !u.HasImage {
		return nil
	}
	p := ImagePath(usersCollection, u.ID)
	return &p
}

// ImagePath builds the synthetic "/{collection}/image/{id}" reference under
// which an entity's uploaded image is served.
func ImagePath(collection string, id int64) string {
	return "/" + collection + "/image/" + strconv.FormatInt(id, 10)
}
