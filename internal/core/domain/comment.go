package domain

// Comment is a message left by a user under an ad. It lives as long as its
// parent ad does.
type Comment struct {
	ID          int64
	AdID        int64
	OwnerUserID int64
	Text        string
	// CreatedAt is in epoch milliseconds.
	CreatedAt int64
}

func (c *Comment) OwnerID() int64 { return c.OwnerUserID }
