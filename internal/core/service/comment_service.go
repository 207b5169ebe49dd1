package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/policy"
	"github.com/skyads/marketplace/internal/core/ports"
	"github.com/skyads/marketplace/internal/core/projection"
	"github.com/skyads/marketplace/internal/core/validation"
)

type CommentService struct {
	comments ports.CommentRepository
	ads      ports.AdRepository
	users    ports.UserRepository
	ids      ports.IDGenerator
	validate *validation.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

func NewCommentService(
	comments ports.CommentRepository,
	ads ports.AdRepository,
	users ports.UserRepository,
	ids ports.IDGenerator,
	logger zerolog.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		ads:      ads,
		users:    users,
		ids:      ids,
		validate: validation.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the comments of an ad with each author's current display fields.
func (s *CommentService) List(ctx context.Context, actor *domain.Actor, adID int64) (*ports.Collection[ports.CommentView], error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.ads.FindByID(ctx, adID); err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionList, nil); err != nil {
		return nil, err
	}

	comments, err := s.comments.FindByAd(ctx, adID)
	if err != nil {
		return nil, err
	}

	owners, err := s.users.FindByIDs(ctx, authorIDs(comments))
	if err != nil {
		return nil, err
	}
	return projection.Comments(comments, owners), nil
}

func (s *CommentService) Get(ctx context.Context, actor *domain.Actor, adID, commentID int64) (*ports.CommentView, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.ads.FindByID(ctx, adID); err != nil {
		return nil, err
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.AdID != adID {
		return nil, domain.ErrCommentNotFound
	}
	if err := policy.Authorize(actor, policy.ActionView, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// Create adds a comment by the actor under an existing ad.
func (s *CommentService) Create(ctx context.Context, actor *domain.Actor, adID int64, input ports.CreateCommentInput) (*ports.CommentView, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	input.Text = strings.TrimSpace(input.Text)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.ads.FindByID(ctx, adID); err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionCreate, nil); err != nil {
		return nil, err
	}

	c := &domain.Comment{
		ID:          s.ids.NextID(),
		AdID:        adID,
		OwnerUserID: actor.ID,
		Text:        input.Text,
		CreatedAt:   s.now().UnixMilli(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("comment_id", c.ID).Int64("ad_id", adID).Int64("user_id", actor.ID).Msg("comment created")
	return s.view(ctx, c)
}

func (s *CommentService) Update(ctx context.Context, actor *domain.Actor, adID, commentID int64, input ports.UpdateCommentInput) (*ports.CommentView, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	input.Text = trimPtr(input.Text)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.ads.FindByID(ctx, adID); err != nil {
		return nil, err
	}

	c, err := s.comments.Update(ctx, commentID, func(c *domain.Comment) error {
		if c.AdID != adID {
			return domain.ErrCommentNotFound
		}
		if err := policy.Authorize(actor, policy.ActionUpdate, c); err != nil {
			return err
		}
		if input.Text != nil {
			c.Text = *input.Text
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *CommentService) Delete(ctx context.Context, actor *domain.Actor, adID, commentID int64) error {
	if err := policy.RequireActor(actor); err != nil {
		return err
	}
	// A comment left behind by a deleted ad is not addressable.
	if _, err := s.ads.FindByID(ctx, adID); err != nil {
		return err
	}
	err := s.comments.Delete(ctx, commentID, func(c *domain.Comment) error {
		if c.AdID != adID {
			return domain.ErrCommentNotFound
		}
		return policy.Authorize(actor, policy.ActionDelete, c)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("comment_id", commentID).Int64("user_id", actor.ID).Msg("comment deleted")
	return nil
}

// view projects a single comment, reading the author fresh from the store.
func (s *CommentService) view(ctx context.Context, c *domain.Comment) (*ports.CommentView, error) {
	owner, err := s.users.FindByID(ctx, c.OwnerUserID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	v := projection.Comment(c, owner)
	return &v, nil
}

func authorIDs(comments []*domain.Comment) []int64 {
	seen := make(map[int64]struct{}, len(comments))
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.OwnerUserID]; ok {
			continue
		}
		seen[c.OwnerUserID] = struct{}{}
		ids = append(ids, c.OwnerUserID)
	}
	return ids
}
