package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

// AdFilter narrows FindAll. Zero values mean "no filter".
type AdFilter struct {
	OwnerID int64
	// TitleContains is matched case-insensitively.
	TitleContains string
}

// AdRepository persists ads.
type AdRepository interface {
	Create(ctx context.Context, ad *domain.Ad) error
	FindByID(ctx context.Context, id int64) (*domain.Ad, error)
	FindAll(ctx context.Context, filter AdFilter) ([]*domain.Ad, error)
	// Update runs mutate against the freshly loaded ad and persists the
	// mutable fields. The owner is never rewritten.
	Update(ctx context.Context, id int64, mutate func(*domain.Ad) error) (*domain.Ad, error)
	// Delete loads the ad, calls check and, if it passes, removes the ad
	// together with all of its comments.
	Delete(ctx context.Context, id int64, check func(*domain.Ad) error) error
}
