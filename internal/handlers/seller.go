package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/service/token"
)

type SellerHandler struct {
	DB *gorm.DB
}

// Dashboard returns the seller's articles, received orders, per-status
// counts and their latest notifications.
func (h *SellerHandler) Dashboard(c echo.Context) error {
	user := token.UserFrom(c)

	var articles []models.Article
	if err := h.DB.Where("seller_id = ?", user.ID).
		Order("created_at DESC, id DESC").Find(&articles).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Preload("Article").Where("seller_id = ?", user.ID).
		Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return err
	}

	var notifications []models.Notification
	if err := h.DB.Where("recipient_id = ?", user.ID).
		Order("created_at DESC, id DESC").Limit(10).Find(&notifications).Error; err != nil {
		return err
	}

	pending, confirmed := 0, 0
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			pending++
		case models.StatusConfirmed:
			confirmed++
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"articles":      articles,
		"orders":        orders,
		"notifications": notifications,
		"stats": map[string]any{
			"articles_count":   len(articles),
			"orders_count":     len(orders),
			"orders_pending":   pending,
			"orders_confirmed": confirmed,
		},
	})
}
