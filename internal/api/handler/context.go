package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skyads/marketplace/internal/api/middleware"
	"github.com/skyads/marketplace/internal/core/domain"
)

// ctxActor extracts the actor injected by the Auth middleware. Its absence
// means the route was mounted without authentication.
func ctxActor(c echo.Context) (*domain.Actor, error) {
	actor, _ := c.Get(middleware.ActorKey).(*domain.Actor)
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	return actor, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// bindError turns a body decoding failure into a validation error naming the
// offending field when the JSON decoder reports one.
func bindError(err error) error {
	if ve := fieldError(err); ve != nil {
		return ve
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
}

// fieldError returns nil when err does not point at a single field.
func fieldError(err error) *domain.ValidationError {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return domain.NewValidationError(ute.Field, expectedKind(ute.Type))
	}
	return nil
}

func expectedKind(t reflect.Type) string {
	if t == nil {
		return "has the wrong type"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "must be an integer"
	case reflect.String:
		return "must be a string"
	case reflect.Bool:
		return "must be a boolean"
	default:
		return "has the wrong type"
	}
}
