package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skyads/marketplace/internal/core/domain"
)

type ImageStore struct {
	db *gorm.DB
}

func NewImageStore(db *gorm.DB) *ImageStore {
	return &ImageStore{db: db}
}

// Save upserts on the (collection, owner_id) primary key.
func (s *ImageStore) Save(ctx context.Context, img *domain.Image) error {
	rec := imageRecord{
		Collection:  img.Collection,
		OwnerID:     img.OwnerID,
		ContentType: img.ContentType,
		Data:        img.Data,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "data"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

func (s *ImageStore) Load(ctx context.Context, collection string, ownerID int64) (*domain.Image, error) {
	var rec imageRecord
	err := s.db.WithContext(ctx).First(&rec, "collection = ? AND owner_id = ?", collection, ownerID).Error
	if err != nil {
		return nil, notFound(err, domain.ErrImageNotFound)
	}
	return &domain.Image{
		Collection:  rec.Collection,
		OwnerID:     rec.OwnerID,
		ContentType: rec.ContentType,
		Data:        rec.Data,
	}, nil
}

func (s *ImageStore) Delete(ctx context.Context, collection string, ownerID int64) error {
	res := s.db.WithContext(ctx).Delete(&imageRecord{}, "collection = ? AND owner_id = ?", collection, ownerID)
	if res.Error != nil {
		return fmt.Errorf("delete image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}
