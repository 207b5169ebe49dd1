package handler

// --- Request types ---

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// adPropertiesRequest is the create body, sent either as JSON or as the
// "properties" part of a multipart form.
type adPropertiesRequest struct {
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

type updateAdRequest struct {
	Title       *string `json:"title"`
	Price       *int64  `json:"price"`
	Description *string `json:"description"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type updateCommentRequest struct {
	Text *string `json:"text"`
}

// --- Response types ---

type userResponse struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     string  `json:"phone"`
	Role      string  `json:"role"`
	Image     *string `json:"image"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type adResponse struct {
	Author int64  `json:"author"`
	Image  string `json:"image"`
	PK     int64  `json:"pk"`
	Price  int64  `json:"price"`
	Title  string `json:"title"`
}

type extendedAdResponse struct {
	PK              int64  `json:"pk"`
	Author          int64  `json:"author"`
	AuthorFirstName string `json:"authorFirstName"`
	AuthorLastName  string `json:"authorLastName"`
	Description     string `json:"description"`
	Email           string `json:"email"`
	Image           string `json:"image"`
	Phone           string `json:"phone"`
	Price           int64  `json:"price"`
	Title           string `json:"title"`
}

type commentResponse struct {
	Author          int64   `json:"author"`
	AuthorImage     *string `json:"authorImage"`
	AuthorFirstName string  `json:"authorFirstName"`
	CreatedAt       int64   `json:"createdAt"`
	PK              int64   `json:"pk"`
	Text            string  `json:"text"`
}

type collectionResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}
