package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

type CreateCommentInput struct {
	Text string `validate:"required,max=1000"`
}

type UpdateCommentInput struct {
	Text *string `validate:"omitnil,min=1,max=1000"`
}

// CommentService defines use-case operations for comments. Every comment is
// addressed through its parent ad; a comment under another ad is not found.
type CommentService interface {
	List(ctx context.Context, actor *domain.Actor, adID int64) (*Collection[CommentView], error)
	Get(ctx context.Context, actor *domain.Actor, adID, commentID int64) (*CommentView, error)
	Create(ctx context.Context, actor *domain.Actor, adID int64, input CreateCommentInput) (*CommentView, error)
	Update(ctx context.Context, actor *domain.Actor, adID, commentID int64, input UpdateCommentInput) (*CommentView, error)
	Delete(ctx context.Context, actor *domain.Actor, adID, commentID int64) error
}
