package ports

import (
	"context"

	"github.com/skyads/marketplace/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDs returns the users that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	// Update loads the user, passes it to mutate and stores the result as one
	// unit of work. A mutate error aborts the update and is returned as is.
	Update(ctx context.Context, id int64, mutate func(*domain.User) error) (*domain.User, error)
}
