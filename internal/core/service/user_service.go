package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/policy"
	"github.com/skyads/marketplace/internal/core/ports"
	"github.com/skyads/marketplace/internal/core/projection"
	"github.com/skyads/marketplace/internal/core/validation"
)

// UserService implements registration, login and profile self-service.
type UserService struct {
	users     ports.UserRepository
	images    ports.ImageStore
	ids       ports.IDGenerator
	validate  *validation.Validator
	jwtSecret string
	tokenTTL  time.Duration
	hashCost  int
	logger    zerolog.Logger
	now       func() time.Time
}

func NewUserService(
	users ports.UserRepository,
	images ports.ImageStore,
	ids ports.IDGenerator,
	jwtSecret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserService{
		users:     users,
		images:    images,
		ids:       ids,
		validate:  validation.New(),
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		hashCost:  bcrypt.DefaultCost,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new account. An email that is already registered is
// rejected with domain.ErrUserExists and the existing record is left untouched.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*ports.UserProfile, error) {
	input.Username = normalizeEmail(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, input.Username)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           s.ids.NextID(),
		Email:        input.Username,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         domain.Role(input.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	profile := projection.Profile(user)
	return &profile, nil
}

// Login verifies the credentials and issues a signed access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	profile := projection.Profile(user)
	return &ports.LoginResult{Token: token, User: &profile}, nil
}

// Authenticate verifies the credentials and returns the matching actor.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.Actor, error) {
	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &domain.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *UserService) Me(ctx context.Context, actor *domain.Actor) (*ports.UserProfile, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionView, user); err != nil {
		return nil, err
	}
	profile := projection.Profile(user)
	return &profile, nil
}

// UpdateProfile merges the provided fields into the actor's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.Actor, input ports.UpdateProfileInput) (*ports.UserProfile, error) {
	if err := policy.RequireActor(actor); err != nil {
		return nil, err
	}
	input.FirstName = trimPtr(input.FirstName)
	input.LastName = trimPtr(input.LastName)
	input.Phone = trimPtr(input.Phone)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, actor.ID, func(u *domain.User) error {
		if err := policy.Authorize(actor, policy.ActionUpdate, u); err != nil {
			return err
		}
		if input.FirstName != nil {
			u.FirstName = *input.FirstName
		}
		if input.LastName != nil {
			u.LastName = *input.LastName
		}
		if input.Phone != nil {
			u.Phone = *input.Phone
		}
		u.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile := projection.Profile(user)
	return &profile, nil
}

// UpdatePassword replaces the actor's credential after verifying the current one.
func (s *UserService) UpdatePassword(ctx context.Context, actor *domain.Actor, input ports.UpdatePasswordInput) error {
	if err := policy.RequireActor(actor); err != nil {
		return err
	}
	if err := s.validate.Struct(input); err != nil {
		return err
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.hashCost)
	if err != nil {
		return err
	}

	_, err = s.users.Update(ctx, actor.ID, func(u *domain.User) error {
		if err := policy.Authorize(actor, policy.ActionUpdate, u); err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.CurrentPassword)) != nil {
			return domain.NewValidationError("currentPassword", "does not match")
		}
		u.PasswordHash = string(newHash)
		u.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", actor.ID).Msg("password changed")
	return nil
}

// UpdateAvatar stores a new avatar for the actor. No other field changes.
func (s *UserService) UpdateAvatar(ctx context.Context, actor *domain.Actor, upload ports.ImageUpload) error {
	if err := policy.RequireActor(actor); err != nil {
		return err
	}
	if err := validateImage(upload); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, user); err != nil {
		return err
	}

	if err := s.images.Save(ctx, &domain.Image{
		Collection:  domain.ImageCollectionUsers,
		OwnerID:     user.ID,
		ContentType: upload.ContentType,
		Data:        upload.Data,
	}); err != nil {
		return err
	}

	if user.HasImage {
		return nil
	}
	_, err = s.users.Update(ctx, user.ID, func(u *domain.User) error {
		u.HasImage = true
		u.UpdatedAt = s.now()
		return nil
	})
	return err
}

func (s *UserService) Avatar(ctx context.Context, userID int64) (*domain.Image, error) {
	return s.images.Load(ctx, domain.ImageCollectionUsers, userID)
}

func (s *UserService) checkCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) generateToken(user *domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"role":  string(user.Role),
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// validateImage rejects empty and non-image uploads.
func validateImage(upload ports.ImageUpload) error {
	if len(upload.Data) == 0 {
		return domain.NewValidationError("image", "is required")
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return domain.NewValidationError("image", "must be an image")
	}
	return nil
}
