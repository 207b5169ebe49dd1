package gormstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

type AdRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) *AdRepository {
	return &AdRepository{db: db}
}

func (r *AdRepository) Create(ctx context.Context, ad *domain.Ad) error {
	if err := r.db.WithContext(ctx).Create(newAdRecord(ad)).Error; err != nil {
		return fmt.Errorf("insert ad: %w", err)
	}
	return nil
}

func (r *AdRepository) FindByID(ctx context.Context, id int64) (*domain.Ad, error) {
	var rec adRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrAdNotFound)
	}
	return rec.toDomain(), nil
}

func (r *AdRepository) FindAll(ctx context.Context, filter ports.AdFilter) ([]*domain.Ad, error) {
	q := r.db.WithContext(ctx).Model(&adRecord{})
	if filter.OwnerID != 0 {
		q = q.Where("owner_user_id = ?", filter.OwnerID)
	}
	if filter.TitleContains != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(filter.TitleContains))
	}

	var recs []adRecord
	if err := q.Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("find ads: %w", err)
	}

	out := make([]*domain.Ad, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

// likePattern builds a lower-cased "contains" pattern with LIKE wildcards in
// the input escaped.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
	return "%" + s + "%"
}

func (r *AdRepository) Update(ctx context.Context, id int64, mutate func(*domain.Ad) error) (*domain.Ad, error) {
	var out *domain.Ad
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockAd(tx, id)
		if err != nil {
			return err
		}

		ad := rec.toDomain()
		if err := mutate(ad); err != nil {
			return err
		}

		rec.Title = ad.Title
		rec.Price = ad.Price
		rec.Description = ad.Description
		rec.UpdatedAt = ad.UpdatedAt
		if err := tx.Select("title", "price", "description", "updated_at").Updates(rec).Error; err != nil {
			return fmt.Errorf("update ad: %w", err)
		}
		out = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the comments and the ad in one transaction.
func (r *AdRepository) Delete(ctx context.Context, id int64, check func(*domain.Ad) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockAd(tx, id)
		if err != nil {
			return err
		}
		if err := check(rec.toDomain()); err != nil {
			return err
		}

		if err := tx.Where("ad_id = ?", id).Delete(&commentRecord{}).Error; err != nil {
			return fmt.Errorf("delete ad comments: %w", err)
		}
		if err := tx.Delete(&adRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete ad: %w", err)
		}
		return nil
	})
}

func lockAd(tx *gorm.DB, id int64) (*adRecord, error) {
	var rec adRecord
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrAdNotFound)
	}
	return &rec, nil
}
