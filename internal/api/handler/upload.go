package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/skyads/marketplace/internal/core/domain"
	"github.com/skyads/marketplace/internal/core/ports"
)

// imageField is the multipart part name carrying image bytes.
const imageField = "image"

var errNoImage = errors.New("no image part")

// readImage loads the image part of a multipart request. The content type is
// sniffed from the bytes; the client-declared type is ignored.
func readImage(c echo.Context, maxBytes int64) (*ports.ImageUpload, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoImage
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	tooLarge := domain.NewValidationError(imageField, fmt.Sprintf("must not exceed %d bytes", maxBytes))
	if fh.Size > maxBytes {
		return nil, tooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge
	}

	return &ports.ImageUpload{
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// requireImage is readImage for endpoints where the part is mandatory.
func requireImage(c echo.Context, maxBytes int64) (*ports.ImageUpload, error) {
	img, err := readImage(c, maxBytes)
	if errors.Is(err, errNoImage) {
		return nil, domain.NewValidationError(imageField, "is required")
	}
	return img, err
}

// serveImage writes stored image bytes with their content type.
func serveImage(c echo.Context, img *domain.Image) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.Blob(http.StatusOK, img.ContentType, img.Data)
}
