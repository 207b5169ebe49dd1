package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skyads/marketplace/internal/api/metrics"
	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

// CommentHandler handles comments nested under an ad.
type CommentHandler struct {
	comments ports.CommentService
}

func NewCommentHandler(comments ports.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List handles GET /ads/:id/comments.
//
// @Summary      List comments of an ad
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Ad id"
// @Success      200  {object}  collectionResponse[commentResponse]
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ads/{id}/comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	adID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.comments.List(c.Request().Context(), actor, adID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCollection(comments, toCommentResponse))
}

// Create handles POST /ads/:id/comments.
//
// @Summary      Comment on an ad
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Ad id"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      200   {object}  commentResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /ads/{id}/comments [post]
func (h *CommentHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	adID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	view, err := h.comments.Create(c.Request().Context(), actor, adID, ports.CreateCommentInput{Text: req.Text})
	if err != nil {
		return err
	}
	metrics.CommentsCreatedTotal.Inc()
	return c.JSON(http.StatusOK, toCommentResponse(*view))
}

// Get handles GET /ads/:adId/comments/:commentId.
//
// @Summary      Get a comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        adId       path      int  true  "Ad id"
// @Param        commentId  path      int  true  "Comment id"
// @Success      200        {object}  commentResponse
// @Failure      401        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /ads/{adId}/comments/{commentId} [get]
func (h *CommentHandler) Get(c echo.Context) error {
	actor, adID, commentID, err := commentTarget(c)
	if err != nil {
		return err
	}

	view, err := h.comments.Get(c.Request().Context(), actor, adID, commentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(*view))
}

// Update handles PATCH /ads/:adId/comments/:commentId.
//
// @Summary      Edit a comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        adId       path      int                   true  "Ad id"
// @Param        commentId  path      int                   true  "Comment id"
// @Param        body       body      updateCommentRequest  true  "New text"
// @Success      200        {object}  commentResponse
// @Failure      400        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /ads/{adId}/comments/{commentId} [patch]
func (h *CommentHandler) Update(c echo.Context) error {
	actor, adID, commentID, err := commentTarget(c)
	if err != nil {
		return err
	}

	var req updateCommentRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	view, err := h.comments.Update(c.Request().Context(), actor, adID, commentID, ports.UpdateCommentInput{Text: req.Text})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(*view))
}

// Delete handles DELETE /ads/:adId/comments/:commentId.
//
// @Summary      Delete a comment
// @Tags         comments
// @Security     BearerAuth
// @Param        adId       path  int  true  "Ad id"
// @Param        commentId  path  int  true  "Comment id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ads/{adId}/comments/{commentId} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	actor, adID, commentID, err := commentTarget(c)
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.Request().Context(), actor, adID, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func commentTarget(c echo.Context) (actor *domain.Actor, adID, commentID int64, err error) {
	if actor, err = ctxActor(c); err != nil {
		return nil, 0, 0, err
	}
	if adID, err = pathID(c, "adId"); err != nil {
		return nil, 0, 0, err
	}
	if commentID, err = pathID(c, "commentId"); err != nil {
		return nil, 0, 0, err
	}
	return actor, adID, commentID, nil
}
