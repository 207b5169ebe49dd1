package domain

import "time"

const adsCollection = "ads"

// Ad is a classified advertisement. OwnerUserID is fixed at creation.
type Ad struct {
	ID          int64
	OwnerUserID int64
	Title       string
	Price       int64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Ad) OwnerID() int64 { return a.OwnerUserID }

// ImagePath is the public reference of the ad picture. It is computed from
// the id and never persisted.
func (a *Ad) ImagePath() string {
	return ImagePath(adsCollection, a.ID)
}
