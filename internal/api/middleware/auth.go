package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/skyads/marketplace/internal/api/metrics"
	"github.com/skyads/marketplace/internal/core/domain"
)

// Context keys set by Auth.
const (
	ActorKey = "actor"
	RoleKey  = "role"
)

// Authenticator verifies HTTP Basic credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Actor, error)
}

// Auth resolves the caller from either a Bearer JWT or HTTP Basic
// credentials and stores the resulting *domain.Actor in the context.
func Auth(jwtSecret string, basic Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			var (
				actor  *domain.Actor
				method string
				err    error
			)
			switch {
			case strings.EqualFold(parts[0], "bearer"):
				method = "bearer"
				actor, err = parseToken(parts[1], jwtSecret)
			case strings.EqualFold(parts[0], "basic") && basic != nil:
				method = "basic"
				email, password, ok := c.Request().BasicAuth()
				if !ok {
					err = domain.ErrInvalidCredentials
					break
				}
				actor, err = basic.Authenticate(c.Request().Context(), email, password)
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			if err != nil {
				metrics.AuthAttemptsTotal.WithLabelValues(method, "failure").Inc()
				if method == "basic" {
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="marketplace"`)
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			metrics.AuthAttemptsTotal.WithLabelValues(method, "success").Inc()

			c.Set(ActorKey, actor)
			c.Set(RoleKey, string(actor.Role))

			return next(c)
		}
	}
}

// parseToken validates an HS256 token and reads the actor from its sub and
// role claims.
func parseToken(raw, secret string) (*domain.Actor, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return nil, jwt.ErrTokenInvalidSubject
	}

	role, _ := claims["role"].(string)
	if !domain.Role(role).Valid() {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &domain.Actor{ID: id, Role: domain.Role(role)}, nil
}
