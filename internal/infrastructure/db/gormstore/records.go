package gormstore

import (
	"time"

	"github.com/skyads/marketplace/internal/core/domain"
)

type userRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Email        string `gorm:"size:254;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"size:64;not null"`
	LastName     string `gorm:"size:64;not null"`
	Phone        string `gorm:"size:32;not null"`
	Role         string `gorm:"size:16;not null"`
	HasImage     bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func newUserRecord(u *domain.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Role:         string(u.Role),
		HasImage:     u.HasImage,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		Role:         domain.Role(r.Role),
		HasImage:     r.HasImage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type adRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	OwnerUserID int64  `gorm:"not null;index"`
	Title       string `gorm:"size:128;not null"`
	Price       int64  `gorm:"not null"`
	Description string `gorm:"size:2000;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (adRecord) TableName() string { return "ads" }

func newAdRecord(ad *domain.Ad) *adRecord {
	return &adRecord{
		ID:          ad.ID,
		OwnerUserID: ad.OwnerUserID,
		Title:       ad.Title,
		Price:       ad.Price,
		Description: ad.Description,
		CreatedAt:   ad.CreatedAt,
		UpdatedAt:   ad.UpdatedAt,
	}
}

func (r *adRecord) toDomain() *domain.Ad {
	return &domain.Ad{
		ID:          r.ID,
		OwnerUserID: r.OwnerUserID,
		Title:       r.Title,
		Price:       r.Price,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type commentRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	AdID        int64     `gorm:"not null;index:idx_comments_ad_created,priority:1"`
	Ad          *adRecord `gorm:"foreignKey:AdID;constraint:OnDelete:CASCADE"`
	OwnerUserID int64     `gorm:"not null"`
	Text        string    `gorm:"size:1000;not null"`
	// epoch milliseconds
	CreatedAt int64 `gorm:"autoCreateTime:milli;index:idx_comments_ad_created,priority:2"`
}

func (commentRecord) TableName() string { return "comments" }

func newCommentRecord(c *domain.Comment) *commentRecord {
	return &commentRecord{
		ID:          c.ID,
		AdID:        c.AdID,
		OwnerUserID: c.OwnerUserID,
		Text:        c.Text,
		CreatedAt:   c.CreatedAt,
	}
}

func (r *commentRecord) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:          r.ID,
		AdID:        r.AdID,
		OwnerUserID: r.OwnerUserID,
		Text:        r.Text,
		CreatedAt:   r.CreatedAt,
	}
}

type imageRecord struct {
	Collection  string `gorm:"primaryKey;size:16"`
	OwnerID     int64  `gorm:"primaryKey;autoIncrement:false"`
	ContentType string `gorm:"size:128;not null"`
	Data        []byte `gorm:"not null"`
}

func (imageRecord) TableName() string { return "images" }
