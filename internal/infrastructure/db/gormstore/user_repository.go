package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skyads/marketplace/internal/core/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(newUserRecord(u)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "email = ?", email).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	out := make(map[int64]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var recs []userRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for i := range recs {
		out[recs[i].ID] = recs[i].toDomain()
	}
	return out, nil
}

// Update locks the row for the duration of mutate. Email and creation time
// are never rewritten.
func (r *UserRepository) Update(ctx context.Context, id int64, mutate func(*domain.User) error) (*domain.User, error) {
	var out *domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec userRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", id).Error; err != nil {
			return notFound(err, domain.ErrUserNotFound)
		}

		u := rec.toDomain()
		if err := mutate(u); err != nil {
			return err
		}

		rec.PasswordHash = u.PasswordHash
		rec.FirstName = u.FirstName
		rec.LastName = u.LastName
		rec.Phone = u.Phone
		rec.Role = string(u.Role)
		rec.HasImage = u.HasImage
		rec.UpdatedAt = u.UpdatedAt
		if err := tx.Select("password_hash", "first_name", "last_name", "phone", "role", "has_image", "updated_at").
			Updates(&rec).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		out = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
