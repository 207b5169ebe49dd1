package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

// ImageStore holds uploaded image bytes keyed by collection and entity id.
type ImageStore interface {
	// Save replaces any previous image for the same key.
	Save(ctx context.Context, img *domain.Image) error
	Load(ctx context.Context, collection string, ownerID int64) (*domain.Image, error)
	Delete(ctx context.Context, collection string, ownerID int64) error
}
