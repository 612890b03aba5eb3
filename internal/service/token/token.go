package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (t *TokenService) SignAccessToken(userID uint, role models.Role) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(accessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.JWTSecret)
}

func (t *TokenService) SignRefreshToken(userID uint, role models.Role) (string, error) {
	// jti keeps two tokens for the same user distinct even when they are
	// signed within the same second.
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  time.Now().Add(refreshTTL).Unix(),
		"typ":  "refresh",
		"jti":  hex.EncodeToString(buf),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.RefreshSecret)
}

func (t *TokenService) SaveRefreshToken(token string, userID uint, role models.Role) error {
	rec := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		Role:      string(role),
		ExpiresAt: time.Now().Add(refreshTTL).Unix(),
	}
	if err := t.DB.Create(&rec).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IssueCookies signs a fresh token pair for the user, persists the refresh
// token and attaches both cookies to the response.
func (t *TokenService) IssueCookies(c echo.Context, u *models.User) (access, refresh string, err error) {
	access, err = t.SignAccessToken(u.ID, u.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err = t.SignRefreshToken(u.ID, u.Role)
	if err != nil {
		return "", "", err
	}
	if err := t.SaveRefreshToken(refresh, u.ID, u.Role); err != nil {
		return "", "", err
	}

	c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(accessTTL)))
	c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(refreshTTL)))
	return access, refresh, nil
}

func (t *TokenService) ValidateRefresh(rawToken string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", tok.Header["alg"])
		}
		return t.RefreshSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("refresh token not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, errors.New("refresh token expired")
	}

	return claims, nil
}

// RotateToken exchanges a valid refresh token for a fresh pair.
func (t *TokenService) RotateToken(rawToken string) (string, string, jwt.MapClaims, error) {
	claims, err := t.ValidateRefresh(rawToken)
	if err != nil {
		return "", "", nil, err
	}

	userID := uint(claims["sub"].(float64))
	role := models.Role(claims["role"].(string))

	newAccess, err := t.SignAccessToken(userID, role)
	if err != nil {
		return "", "", nil, err
	}
	newRefresh, err := t.SignRefreshToken(userID, role)
	if err != nil {
		return "", "", nil, err
	}
	if err := t.SaveRefreshToken(newRefresh, userID, role); err != nil {
		return "", "", nil, err
	}

	return newAccess, newRefresh, claims, nil
}

func (t *TokenService) RevokeRefresh(rawToken string) error {
	return t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error
}
