package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/hash"
	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/mykafka"
	"github.com/Hdensac/articlo/internal/service/token"
	"github.com/Hdensac/articlo/internal/validation"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

type registerRequest struct {
	Username       string `json:"username" form:"username" validate:"required,min=3"`
	Email          string `json:"email" form:"email" validate:"required,email"`
	Password       string `json:"password" form:"password" validate:"required,min=8"`
	FirstName      string `json:"first_name" form:"first_name" validate:"required"`
	LastName       string `json:"last_name" form:"last_name" validate:"required"`
	Role           string `json:"role" form:"role" validate:"required,oneof=seller client"`
	WhatsAppNumber string `json:"whatsapp_number" form:"whatsapp_number"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if err := c.Validate(&req); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return fieldErrorResponse(c, fe)
		}
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	var existing models.User
	if err := h.DB.Where("username = ?", req.Username).First(&existing).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		if err != nil {
			return err
		}
		return fieldErrorResponse(c, validation.FieldErrors{"username": "ce nom d'utilisateur existe déjà"})
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   passwordHash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           models.Role(req.Role),
		WhatsAppNumber: req.WhatsAppNumber,
		IsActive:       true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})

	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusUnauthorized, "identifiants invalides")
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorResponse(c, http.StatusUnauthorized, "identifiants invalides")
	}
	if !user.IsActive {
		return errorResponse(c, http.StatusForbidden, "compte désactivé")
	}

	accessToken, refreshToken, err := h.Tokens.IssueCookies(c, &user)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"role":          user.Role,
		"role_label":    user.Role.Label(),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "aucune session")
	}
	if err := h.Tokens.RevokeRefresh(refreshCookie.Value); err != nil {
		return err
	}

	c.SetCookie(token.CreateCookie("accessToken", "", "/", time.Unix(0, 0)))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", time.Unix(0, 0)))

	return c.JSON(http.StatusOK, Response{Status: "ok", Message: "Vous avez été déconnecté avec succès."})
}

type profileRequest struct {
	FirstName      string `json:"first_name" form:"first_name" validate:"required"`
	LastName       string `json:"last_name" form:"last_name" validate:"required"`
	Email          string `json:"email" form:"email" validate:"required,email"`
	WhatsAppNumber string `json:"whatsapp_number" form:"whatsapp_number"`
}

// Profile returns the authenticated user's own record.
func (h *AuthHandler) Profile(c echo.Context) error {
	user := token.UserFrom(c)
	return c.JSON(http.StatusOK, map[string]any{
		"user":       user,
		"role_label": user.Role.Label(),
	})
}

// UpdateProfile edits the user's contact fields. Username, role and the
// active flag are not reachable from here.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user := token.UserFrom(c)

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if err := c.Validate(&req); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return fieldErrorResponse(c, fe)
		}
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	updates := map[string]any{
		"first_name":      strings.TrimSpace(req.FirstName),
		"last_name":       strings.TrimSpace(req.LastName),
		"email":           strings.ToLower(strings.TrimSpace(req.Email)),
		"whatsapp_number": strings.TrimSpace(req.WhatsAppNumber),
	}
	if err := h.DB.Model(user).Updates(updates).Error; err != nil {
		return err
	}
	user.FirstName = updates["first_name"].(string)
	user.LastName = updates["last_name"].(string)
	user.Email = updates["email"].(string)
	user.WhatsAppNumber = updates["whatsapp_number"].(string)

	return c.JSON(http.StatusOK, map[string]any{
		"user":    user,
		"message": "Votre profil a été mis à jour avec succès !",
	})
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["user_id"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
