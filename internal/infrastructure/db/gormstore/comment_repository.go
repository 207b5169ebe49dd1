package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skyads/marketplace/internal/core/domain"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create takes a shared lock on the parent ad so a concurrent delete cannot
// leave the comment orphaned.
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ad adRecord
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").First(&ad, "id = ?", c.AdID).Error
		if err != nil {
			return notFound(err, domain.ErrAdNotFound)
		}

		if err := tx.Omit(clause.Associations).Create(newCommentRecord(c)).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return domain.ErrAdNotFound
			}
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var rec commentRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrCommentNotFound)
	}
	return rec.toDomain(), nil
}

func (r *CommentRepository) FindByAd(ctx context.Context, adID int64) ([]*domain.Comment, error) {
	var recs []commentRecord
	err := r.db.WithContext(ctx).
		Where("ad_id = ?", adID).
		Order("created_at ASC").Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}

	out := make([]*domain.Comment, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (r *CommentRepository) Update(ctx context.Context, id int64, mutate func(*domain.Comment) error) (*domain.Comment, error) {
	var out *domain.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockComment(tx, id)
		if err != nil {
			return err
		}

		c := rec.toDomain()
		if err := mutate(c); err != nil {
			return err
		}

		rec.Text = c.Text
		if err := tx.Model(rec).Update("text", rec.Text).Error; err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		out = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64, check func(*domain.Comment) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockComment(tx, id)
		if err != nil {
			return err
		}
		if err := check(rec.toDomain()); err != nil {
			return err
		}
		if err := tx.Delete(&commentRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return nil
	})
}

func lockComment(tx *gorm.DB, id int64) (*commentRecord, error) {
	var rec commentRecord
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrCommentNotFound)
	}
	return &rec, nil
}
