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

type AdService struct {
	ads         ports.AdRepository
	users       ports.UserRepository
	images      ports.ImageStore
	ids         ports.IDGenerator
	idempotency ports.IdempotencyStore
	validate    *validation.Validator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAdService wires the ad use cases. idempotency may be nil, in which case
// Idempotency-Key headers are ignored.
func NewAdService(
	ads ports.AdRepository,
	users ports.UserRepository,
	images ports.ImageStore,
	ids ports.IDGenerator,
	idempotency ports.IdempotencyStore,
	logger zerolog.Logger,
) *AdService {
	return &AdService{
		ads:         ads,
		users:       users,
		images:      images,
		ids:         ids,
		idempotency: idempotency,
		validate:    validation.New(),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *AdService) List(ctx context.Context, actor *domain.Actor) (*ports.Collection[ports.AdSummary], error) {
	return s.list(ctx, actor, ports.AdFilter{})
}

// ListMine lists the ads owned by the actor.
func (s *AdService) ListMine(ctx context.Context, actor *domain.Actor) (*ports.Collection[ports.AdSummary], error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, actor, ports.AdFilter{OwnerID: actor.ID})
}

// Search lists ads whose title contains the given text, ignoring case.
func (s *AdService) Search(ctx context.Context, actor *domain.Actor, title string) (*ports.Collection[ports.AdSummary], error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	return s.list(ctx, actor, ports.AdFilter{TitleContains: title})
}

func (s *AdService) list(ctx context.Context, actor *domain.Actor, filter ports.AdFilter) (*ports.Collection[ports.AdSummary], error) {
	if err := policy.Authorize(actor, policy.ActionList, nil); err != nil {
		return nil, err
	}
	ads, err := s.ads.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return projection.Ads(ads), nil
}

// Get returns the extended view of an ad, joined with its owner's current profile.
func (s *AdService) Get(ctx context.Context, actor *domain.Actor, id int64) (*ports.AdDetail, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	ad, err := s.ads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionView, ad); err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, ad.OwnerUserID)
	if err != nil {
		return nil, err
	}
	detail := projection.ExtendedAd(ad, owner)
	return &detail, nil
}

// Create publishes a new ad owned by the actor. When an idempotency key has
// already produced an ad that still exists, that ad is returned instead.
func (s *AdService) Create(ctx context.Context, actor *domain.Actor, input ports.CreateAdInput) (*ports.CreateAdResult, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if input.Image != nil {
		if err := validateImage(*input.Image); err != nil {
			return nil, err
		}
	}
	if err := policy.Authorize(actor, policy.ActionCreate, nil); err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	reserved, existing, err := s.reserve(ctx, actor, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ports.CreateAdResult{Ad: projection.Ad(existing), AlreadyExisted: true}, nil
	}

	ad, err := s.insert(ctx, actor, input)
	if err != nil {
		if reserved {
			if rerr := s.idempotency.Release(ctx, actor.ID, key); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if key != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, actor.ID, key, ad.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to record idempotency key")
		}
	}

	s.logger.Info().Int64("ad_id", ad.ID).Int64("user_id", actor.ID).Msg("ad created")
	return &ports.CreateAdResult{Ad: projection.Ad(ad)}, nil
}

// insert stores the image under the new ad id before the ad itself, so a
// failed image write never leaves an ad behind.
func (s *AdService) insert(ctx context.Context, actor *domain.Actor, input ports.CreateAdInput) (*domain.Ad, error) {
	now := s.now()
	ad := &domain.Ad{
		ID:          s.ids.NextID(),
		OwnerUserID: actor.ID,
		Title:       input.Title,
		Price:       input.Price,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if input.Image != nil {
		if err := s.images.Save(ctx, &domain.Image{
			Collection:  domain.ImageCollectionAds,
			OwnerID:     ad.ID,
			ContentType: input.Image.ContentType,
			Data:        input.Image.Data,
		}); err != nil {
			s.logger.Error().Err(err).Int64("user_id", actor.ID).Msg("failed to store ad image")
			return nil, err
		}
	}

	if err := s.ads.Create(ctx, ad); err != nil {
		s.logger.Error().Err(err).Int64("user_id", actor.ID).Msg("failed to create ad")
		if input.Image != nil {
			if derr := s.images.Delete(ctx, domain.ImageCollectionAds, ad.ID); derr != nil {
				s.logger.Warn().Err(derr).Int64("ad_id", ad.ID).Msg("failed to remove image of unsaved ad")
			}
		}
		return nil, err
	}
	return ad, nil
}

// reserve claims key for this request. When the key was claimed earlier it
// returns the ad that request produced, or ErrRequestInProgress while that
// request is still running. A key whose ad was deleted is treated as fresh.
// Store failures degrade to a plain create.
func (s *AdService) reserve(ctx context.Context, actor *domain.Actor, key string) (bool, *domain.Ad, error) {
	if key == "" || s.idempotency == nil {
		return false, nil, nil
	}
	ok, err := s.idempotency.Reserve(ctx, actor.ID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed")
		return false, nil, nil
	}
	if ok {
		return true, nil, nil
	}

	adID, found, err := s.idempotency.Lookup(ctx, actor.ID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
		return false, nil, nil
	}
	if !found {
		return false, nil, nil
	}
	if adID == 0 {
		return false, nil, domain.ErrRequestInProgress
	}

	ad, err := s.ads.FindByID(ctx, adID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	s.logger.Info().Str("idempotency_key", key).Int64("ad_id", ad.ID).Msg("idempotent replay")
	return false, ad, nil
}

// Update merges the provided fields into the ad. Only the owner or an admin may do so.
func (s *AdService) Update(ctx context.Context, actor *domain.Actor, id int64, input ports.UpdateAdInput) (*ports.AdSummary, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	input.Title = trimPtr(input.Title)
	input.Description = trimPtr(input.Description)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	ad, err := s.ads.Update(ctx, id, func(ad *domain.Ad) error {
		if err := policy.Authorize(actor, policy.ActionUpdate, ad); err != nil {
			return err
		}
		if input.Title != nil {
			ad.Title = *input.Title
		}
		if input.Price != nil {
			ad.Price = *input.Price
		}
		if input.Description != nil {
			ad.Description = *input.Description
		}
		ad.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := projection.Ad(ad)
	return &summary, nil
}

// Delete removes the ad and, in the same unit of work, all of its comments.
func (s *AdService) Delete(ctx context.Context, actor *domain.Actor, id int64) error {
	if err := policy.RequireActor(actor); err != nil {
		return err
	}
	err := s.ads.Delete(ctx, id, func(ad *domain.Ad) error {
		return policy.Authorize(actor, policy.ActionDelete, ad)
	})
	if err != nil {
		return err
	}

	if err := s.images.Delete(ctx, domain.ImageCollectionAds, id); err != nil && !errors.Is(err, domain.ErrImageNotFound) {
		s.logger.Warn().Err(err).Int64("ad_id", id).Msg("failed to remove ad image")
	}

	s.logger.Info().Int64("ad_id", id).Int64("user_id", actor.ID).Msg("ad deleted")
	return nil
}

// UpdateImage replaces the ad picture. No other ad field changes.
func (s *AdService) UpdateImage(ctx context.Context, actor *domain.Actor, id int64, upload ports.ImageUpload) error {
	if err := policy.RequireActor(actor); err != nil {
		return err
	}
	if err := validateImage(upload); err != nil {
		return err
	}

	ad, err := s.ads.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, ad); err != nil {
		return err
	}

	return s.images.Save(ctx, &domain.Image{
		Collection:  domain.ImageCollectionAds,
		OwnerID:     ad.ID,
		ContentType: upload.ContentType,
		Data:        upload.Data,
	})
}

func (s *AdService) Image(ctx context.Context, id int64) (*domain.Image, error) {
	return s.images.Load(ctx, domain.ImageCollectionAds, id)
}
