package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

type CreateAdInput struct {
	Title       string `validate:"required,max=128"`
	Price       int64  `validate:"gte=0"`
	Description string `validate:"required,max=2000"`
	// Image is optional at creation time.
	Image *ImageUpload `validate:"-"`
	// IdempotencyKey, when set, makes a repeated create replay the first result.
	IdempotencyKey string `validate:"max=128"`
}

// UpdateAdInput is a partial ad update; nil fields are left unchanged.
type UpdateAdInput struct {
	Title       *string `validate:"omitnil,min=1,max=128"`
	Price       *int64  `validate:"omitnil,gte=0"`
	Description *string `validate:"omitnil,min=1,max=2000"`
}

// CreateAdResult reports the created (or replayed) ad.
type CreateAdResult struct {
	Ad AdSummary
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// AdService defines use-case operations for ads.
type AdService interface {
	List(ctx context.Context, actor *domain.Actor) (*Collection[AdSummary], error)
	ListMine(ctx context.Context, actor *domain.Actor) (*Collection[AdSummary], error)
	Search(ctx context.Context, actor *domain.Actor, title string) (*Collection[AdSummary], error)
	Get(ctx context.Context, actor *domain.Actor, id int64) (*AdDetail, error)
	Create(ctx context.Context, actor *domain.Actor, input CreateAdInput) (*CreateAdResult, error)
	Update(ctx context.Context, actor *domain.Actor, id int64, input UpdateAdInput) (*AdSummary, error)
	Delete(ctx context.Context, actor *domain.Actor, id int64) error
	UpdateImage(ctx context.Context, actor *domain.Actor, id int64, upload ImageUpload) error
	Image(ctx context.Context, id int64) (*domain.Image, error)
}
