package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

// CommentRepository persists comments.
type CommentRepository interface {
	// Create inserts a comment. Returns domain.ErrAdNotFound if the parent
	// ad no longer exists and the store can detect it.
	Create(ctx context.Context, c *domain.Comment) error
	FindByID(ctx context.Context, id int64) (*domain.Comment, error)
	// FindByAd lists an ad's comments in creation order.
	FindByAd(ctx context.Context, adID int64) ([]*domain.Comment, error)
	Update(ctx context.Context, id int64, mutate func(*domain.Comment) error) (*domain.Comment, error)
	Delete(ctx context.Context, id int64, check func(*domain.Comment) error) error
}
