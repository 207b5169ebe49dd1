package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

// RegisterInput carries the registration form. Username is the email.
type RegisterInput struct {
	Username  string `validate:"required,email,max=254"`
	Password  string `validate:"required,min=8,max=64"`
	FirstName string `validate:"required,max=64"`
	LastName  string `validate:"required,max=64"`
	Phone     string `validate:"required,max=32"`
	Role      string `validate:"required,oneof=USER ADMIN"`
}

// UpdateProfileInput is a partial profile update; nil fields are left unchanged.
type UpdateProfileInput struct {
	FirstName *string `validate:"omitnil,min=1,max=64"`
	LastName  *string `validate:"omitnil,min=1,max=64"`
	Phone     *string `validate:"omitnil,min=1,max=32"`
}

type UpdatePasswordInput struct {
	CurrentPassword string `validate:"required"`
	NewPassword     string `validate:"required,min=8,max=64"`
}

// ImageUpload is an image payload received from a client.
type ImageUpload struct {
	ContentType string
	Data        []byte
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  *UserProfile
}

// UserService covers registration, authentication and self-service profile management.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*UserProfile, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate verifies credentials and returns the resulting actor.
	Authenticate(ctx context.Context, email, password string) (*domain.Actor, error)
	Me(ctx context.Context, actor *domain.Actor) (*UserProfile, error)
	UpdateProfile(ctx context.Context, actor *domain.Actor, input UpdateProfileInput) (*UserProfile, error)
	UpdatePassword(ctx context.Context, actor *domain.Actor, input UpdatePasswordInput) error
	UpdateAvatar(ctx context.Context, actor *domain.Actor, upload ImageUpload) error
	Avatar(ctx context.Context, userID int64) (*domain.Image, error)
}
