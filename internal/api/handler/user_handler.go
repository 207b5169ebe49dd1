package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skyads/marketplace/internal/api/metrics"
	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

// UserHandler serves the caller's own account.
type UserHandler struct {
	users         ports.UserService
	imageMaxBytes int64
}

func NewUserHandler(users ports.UserService, imageMaxBytes int64) *UserHandler {
	return &UserHandler{users: users, imageMaxBytes: imageMaxBytes}
}

// Me handles GET /users/me.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	profile, err := h.users.Me(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(profile))
}

// UpdateMe handles PATCH /users/me. Omitted fields keep their value.
//
// @Summary      Update current user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	profile, err := h.users.UpdateProfile(c.Request().Context(), actor, ports.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(profile))
}

// SetPassword handles POST /users/set_password.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  setPasswordRequest  true  "Current and new password"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /users/set_password [post]
func (h *UserHandler) SetPassword(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req setPasswordRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	err = h.users.UpdatePassword(c.Request().Context(), actor, ports.UpdatePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// UpdateImage handles PATCH /users/me/image (multipart, part "image").
//
// @Summary      Upload avatar
// @Tags         users
// @Accept       mpfd
// @Security     BearerAuth
// @Param        image  formData  file  true  "Avatar picture"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /users/me/image [patch]
func (h *UserHandler) UpdateImage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	img, err := requireImage(c, h.imageMaxBytes)
	if err != nil {
		return err
	}
	if err := h.users.UpdateAvatar(c.Request().Context(), actor, *img); err != nil {
		return err
	}

	metrics.ImageUploadBytes.WithLabelValues(domain.ImageCollectionUsers).Observe(float64(len(img.Data)))
	return c.NoContent(http.StatusOK)
}

// Image handles GET /users/image/:id and streams the stored avatar.
//
// @Summary      Get user avatar
// @Tags         users
// @Produce      image/png,image/jpeg,image/gif,image/webp
// @Param        id   path  int  true  "User id"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /users/image/{id} [get]
func (h *UserHandler) Image(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	img, err := h.users.Avatar(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return serveImage(c, img)
}
