// Package projection turns stored entities into read shapes. Owner-derived
// fields are always taken from the owner record passed in by the caller,
// which must have been loaded for the current request.
package projection

import (
	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

// Ad builds the summary used in collections.
func Ad(ad *domain.Ad) ports.AdSummary {
	return ports.AdSummary{
		ID:       ad.ID,
		AuthorID: ad.OwnerUserID,
		Image:    ad.ImagePath(),
		Price:    ad.Price,
		Title:    ad.Title,
	}
}

// ExtendedAd joins the ad with its owner's current contact details.
func ExtendedAd(ad *domain.Ad, owner *domain.User) ports.AdDetail {
	return ports.AdDetail{
		ID:              ad.ID,
		AuthorID:        ad.OwnerUserID,
		AuthorFirstName: owner.FirstName,
		AuthorLastName:  owner.LastName,
		Description:     ad.Description,
		Email:           owner.Email,
		Image:           ad.ImagePath(),
		Phone:           owner.Phone,
		Price:           ad.Price,
		Title:           ad.Title,
	}
}

// Comment joins the comment with its author's current name and avatar.
// A nil owner yields empty display fields.
func Comment(c *domain.Comment, owner *domain.User) ports.CommentView {
	v := ports.CommentView{
		ID:        c.ID,
		AuthorID:  c.OwnerUserID,
		CreatedAt: c.CreatedAt,
		Text:      c.Text,
	}
	if owner != nil {
		v.AuthorImage = owner.ImagePath()
		v.AuthorFirstName = owner.FirstName
	}
	return v
}

// Profile is the account view of a user. The credential hash is never exposed.
func Profile(u *domain.User) ports.UserProfile {
	return ports.UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Image:     u.ImagePath(),
	}
}

// Ads projects a list of ads into a collection.
func Ads(ads []*domain.Ad) *ports.Collection[ports.AdSummary] {
	return Collect(ads, Ad)
}

// Comments projects comments, resolving each author from owners.
func Comments(comments []*domain.Comment, owners map[int64]*domain.User) *ports.Collection[ports.CommentView] {
	return Collect(comments, func(c *domain.Comment) ports.CommentView {
		return Comment(c, owners[c.OwnerUserID])
	})
}

// Collect maps items through fn and wraps them with their exact count.
func Collect[E, V any](items []E, fn func(E) V) *ports.Collection[V] {
	results := make([]V, len(items))
	for i, item := range items {
		results[i] = fn(item)
	}
	return &ports.Collection[V]{Count: len(results), Results: results}
}
