package ports

// AdSummary is the collection-item projection of an ad.
type AdSummary struct {
	ID       int64
	AuthorID int64
	Image    string
	Price    int64
	Title    string
}

// AdDetail is the extended ad projection, joined with the owner's current profile.
type AdDetail struct {
	ID              int64
	AuthorID        int64
	AuthorFirstName string
	AuthorLastName  string
	Description     string
	Email           string
	Image           string
	Phone           string
	Price           int64
	Title           string
}

// CommentView is a comment joined with its author's current display fields.
type CommentView struct {
	ID              int64
	AuthorID        int64
	AuthorImage     *string
	AuthorFirstName string
	CreatedAt       int64
	Text            string
}

// UserProfile is the account view returned to its owner.
type UserProfile struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	Image     *string
}

// Collection wraps an ordered list of projections. Count always equals len(Results).
type Collection[T any] struct {
	Count   int
	Results []T
}
