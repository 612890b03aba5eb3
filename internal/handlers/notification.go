package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/service/token"
)

type NotificationHandler struct {
	DB *gorm.DB
}

// List returns the authenticated user's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	user := token.UserFrom(c)

	var notifications []models.Notification
	if err := h.DB.Where("recipient_id = ?", user.ID).
		Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return err
	}

	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkRead flips the read flag on one of the user's own notifications.
// This is the only mutation a notification ever receives.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}
	user := token.UserFrom(c)

	var notification models.Notification
	if err := h.DB.Where("id = ? AND recipient_id = ?", id, user.ID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	if !notification.IsRead {
		if err := h.DB.Model(&notification).Update("is_read", true).Error; err != nil {
			return err
		}
		notification.IsRead = true
	}

	return c.JSON(http.StatusOK, notification)
}
