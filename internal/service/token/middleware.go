package token

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
)

const userContextKey = "user"

// UserFrom returns the authenticated user attached by the middleware, or nil
// for anonymous requests.
func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(userContextKey).(*models.User)
	return u
}

// Authenticate resolves the access cookie, rotating through the refresh
// cookie when the access token expired. When required is false, requests
// without credentials pass through anonymously.
func (t *TokenService) Authenticate(required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok, err := t.resolve(c)
			if err != nil {
				return err
			}
			if !ok {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentification requise")
				}
				return next(c)
			}

			var user models.User
			if err := t.DB.First(&user, userID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentification requise")
				}
				return err
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "compte désactivé")
			}

			c.Set(userContextKey, &user)
			return next(c)
		}
	}
}

// resolve returns the user id carried by the cookies, reporting ok=false for
// anonymous requests. A fresh cookie pair is set when rotation happened.
func (t *TokenService) resolve(c echo.Context) (uint, bool, error) {
	if asCookie, err := c.Cookie("accessToken"); err == nil {
		parsed, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
			if _, ok := j.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signature method: %v", j.Header["alg"])
			}
			return t.JWTSecret, nil
		})
		if err == nil && parsed.Valid {
			claims := parsed.Claims.(jwt.MapClaims)
			sub, ok := claims["sub"].(float64)
			if !ok {
				return 0, false, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			return uint(sub), true, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return 0, false, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return 0, false, nil
	}

	newAccess, newRefresh, claims, err := t.RotateToken(rfCookie.Value)
	if err != nil {
		return 0, false, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(accessTTL)))
	c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(refreshTTL)))

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, false, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return uint(sub), true, nil
}

// RequireRole gates a group behind a role predicate from the access package.
// Denials are recoverable JSON responses, never a hard fault.
func RequireRole(check func(*models.User) error, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := check(UserFrom(c)); err != nil {
				return echo.NewHTTPError(http.StatusForbidden, message)
			}
			return next(c)
		}
	}
}
