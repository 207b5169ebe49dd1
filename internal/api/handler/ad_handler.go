package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skyads/marketplace/internal/api/metrics"
	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

const (
	// HeaderIdempotencyKey lets clients retry ad creation safely.
	HeaderIdempotencyKey = "Idempotency-Key"

	propertiesField = "properties"
)

// AdHandler handles HTTP requests for ads.
type AdHandler struct {
	ads           ports.AdService
	imageMaxBytes int64
}

func NewAdHandler(ads ports.AdService, imageMaxBytes int64) *AdHandler {
	return &AdHandler{ads: ads, imageMaxBytes: imageMaxBytes}
}

// List handles GET /ads.
//
// @Summary      List all ads
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  collectionResponse[adResponse]
// @Failure      401  {object}  map[string]string
// @Router       /ads [get]
func (h *AdHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	ads, err := h.ads.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCollection(ads, toAdResponse))
}

// ListMine handles GET /ads/me.
//
// @Summary      List the caller's ads
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  collectionResponse[adResponse]
// @Failure      401  {object}  map[string]string
// @Router       /ads/me [get]
func (h *AdHandler) ListMine(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	ads, err := h.ads.ListMine(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCollection(ads, toAdResponse))
}

// Search handles GET /ads/find/:title.
//
// @Summary      Search ads by title
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        title  path      string  true  "Case-insensitive title fragment"
// @Success      200    {object}  collectionResponse[adResponse]
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /ads/find/{title} [get]
func (h *AdHandler) Search(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	ads, err := h.ads.Search(c.Request().Context(), actor, c.Param("title"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCollection(ads, toAdResponse))
}

// Get handles GET /ads/:id.
//
// @Summary      Get an ad with its author's contact details
// @Tags         ads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Ad id"
// @Success      200  {object}  extendedAdResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ads/{id} [get]
func (h *AdHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ad, err := h.ads.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toExtendedAdResponse(ad))
}

// Create handles POST /ads. The body is either JSON or a multipart form with
// a "properties" JSON part and an optional "image" part. A repeated
// Idempotency-Key returns the original ad with 200 instead of 201.
//
// @Summary      Create an ad
// @Tags         ads
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Client retry key"
// @Param        properties       formData  string               false  "Ad properties as JSON (multipart)"
// @Param        image            formData  file                 false  "Ad picture (multipart)"
// @Param        body             body      adPropertiesRequest  false  "Ad properties (JSON)"
// @Success      201              {object}  adResponse
// @Success      200              {object}  adResponse  "Idempotent replay"
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      409              {object}  map[string]string  "Same Idempotency-Key still in progress"
// @Router       /ads [post]
func (h *AdHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var (
		props adPropertiesRequest
		img   *ports.ImageUpload
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		props, img, err = h.readMultipartAd(c)
		if err != nil {
			return err
		}
	} else if err := c.Bind(&props); err != nil {
		return bindError(err)
	}

	res, err := h.ads.Create(c.Request().Context(), actor, ports.CreateAdInput{
		Title:          props.Title,
		Price:          props.Price,
		Description:    props.Description,
		Image:          img,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	if res.AlreadyExisted {
		metrics.AdsCreatedTotal.WithLabelValues("replayed").Inc()
		return c.JSON(http.StatusOK, toAdResponse(res.Ad))
	}
	metrics.AdsCreatedTotal.WithLabelValues("created").Inc()
	if img != nil {
		metrics.ImageUploadBytes.WithLabelValues(domain.ImageCollectionAds).Observe(float64(len(img.Data)))
	}
	return c.JSON(http.StatusCreated, toAdResponse(res.Ad))
}

// readMultipartAd accepts "properties" either as a plain form value or as a
// file part holding JSON.
func (h *AdHandler) readMultipartAd(c echo.Context) (adPropertiesRequest, *ports.ImageUpload, error) {
	var props adPropertiesRequest

	raw := []byte(c.FormValue(propertiesField))
	if len(raw) == 0 {
		fh, err := c.FormFile(propertiesField)
		if err != nil {
			return props, nil, domain.NewValidationError(propertiesField, "is required")
		}
		f, err := fh.Open()
		if err != nil {
			return props, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
		}
		defer f.Close()
		if raw, err = io.ReadAll(io.LimitReader(f, 1<<16)); err != nil {
			return props, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
		}
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		if ve := fieldError(err); ve != nil {
			return props, nil, ve
		}
		return props, nil, domain.NewValidationError(propertiesField, "must be a JSON object")
	}

	img, err := readImage(c, h.imageMaxBytes)
	if errors.Is(err, errNoImage) {
		return props, nil, nil
	}
	if err != nil {
		return props, nil, err
	}
	return props, img, nil
}

// Update handles PATCH /ads/:id. Omitted fields keep their value.
//
// @Summary      Update an ad
// @Tags         ads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "Ad id"
// @Param        body  body      updateAdRequest  true  "Fields to change"
// @Success      200   {object}  adResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /ads/{id} [patch]
func (h *AdHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateAdRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	ad, err := h.ads.Update(c.Request().Context(), actor, id, ports.UpdateAdInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdResponse(*ad))
}

// Delete handles DELETE /ads/:id. Comments of the ad are removed with it.
//
// @Summary      Delete an ad
// @Tags         ads
// @Security     BearerAuth
// @Param        id   path  int  true  "Ad id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ads/{id} [delete]
func (h *AdHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.ads.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	metrics.AdsDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// UpdateImage handles PATCH /ads/:id/image (multipart, part "image").
//
// @Summary      Replace the ad picture
// @Tags         ads
// @Accept       mpfd
// @Security     BearerAuth
// @Param        id     path      int   true  "Ad id"
// @Param        image  formData  file  true  "Ad picture"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ads/{id}/image [patch]
func (h *AdHandler) UpdateImage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	img, err := requireImage(c, h.imageMaxBytes)
	if err != nil {
		return err
	}
	if err := h.ads.UpdateImage(c.Request().Context(), actor, id, *img); err != nil {
		return err
	}

	metrics.ImageUploadBytes.WithLabelValues(domain.ImageCollectionAds).Observe(float64(len(img.Data)))
	return c.NoContent(http.StatusOK)
}

// Image handles GET /ads/image/:id and streams the stored picture.
//
// @Summary      Get the ad picture
// @Tags         ads
// @Produce      image/png,image/jpeg,image/gif,image/webp
// @Param        id   path  int  true  "Ad id"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /ads/image/{id} [get]
func (h *AdHandler) Image(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	img, err := h.ads.Image(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return serveImage(c, img)
}
