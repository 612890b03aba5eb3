package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/query"
	"github.com/Hdensac/articlo/internal/util"
	"github.com/Hdensac/articlo/internal/validation"
)

// AdminHandler backs the moderation screens. Every route is behind the
// admin gate in the router.
type AdminHandler struct {
	DB       *gorm.DB
	Articles *ArticleHandler
}

type topSellerRow struct {
	ID            uint   `json:"id"`
	Username      string `json:"username"`
	ArticlesCount int64  `json:"articles_count"`
	OrdersCount   int64  `json:"orders_count"`
}

func (h *AdminHandler) topSellers(limit int) ([]topSellerRow, error) {
	var rows []topSellerRow
	err := h.DB.Model(&models.User{}).
		Select(`users.id, users.username,
			COUNT(DISTINCT articles.id) AS articles_count,
			COUNT(DISTINCT orders.id) AS orders_count`).
		Joins("LEFT JOIN articles ON articles.seller_id = users.id").
		Joins("LEFT JOIN orders ON orders.seller_id = users.id").
		Where("users.role = ?", models.RoleSeller).
		Group("users.id, users.username").
		Order("articles_count DESC, orders_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (h *AdminHandler) count(c echo.Context, model any, conds ...any) int64 {
	var n int64
	tx := h.DB.Model(model)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Count(&n).Error; err != nil {
		c.Logger().Errorf("count error: %v", err)
	}
	return n
}

// Dashboard aggregates the headline numbers of the platform.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)

	stats := map[string]any{
		"total_users":          h.count(c, &models.User{}),
		"total_sellers":        h.count(c, &models.User{}, "role = ?", models.RoleSeller),
		"total_clients":        h.count(c, &models.User{}, "role = ?", models.RoleClient),
		"total_articles":       h.count(c, &models.Article{}),
		"total_orders":         h.count(c, &models.Order{}),
		"new_users_30d":        h.count(c, &models.User{}, "created_at >= ?", thirtyDaysAgo),
		"new_articles_30d":     h.count(c, &models.Article{}, "created_at >= ?", thirtyDaysAgo),
		"new_orders_30d":       h.count(c, &models.Order{}, "created_at >= ?", thirtyDaysAgo),
		"orders_pending":       h.count(c, &models.Order{}, "status = ?", models.StatusPending),
		"orders_confirmed":     h.count(c, &models.Order{}, "status = ?", models.StatusConfirmed),
		"orders_cancelled":     h.count(c, &models.Order{}, "status = ?", models.StatusCancelled),
		"unread_notifications": h.count(c, &models.Notification{}, "is_read = ?", false),
	}

	sellers, err := h.topSellers(5)
	if err != nil {
		return err
	}

	var recentArticles []models.Article
	if err := h.DB.Preload("Seller").
		Order("created_at DESC, id DESC").Limit(5).Find(&recentArticles).Error; err != nil {
		return err
	}
	var recentOrders []models.Order
	if err := h.DB.Preload("Article").Preload("Seller").
		Order("created_at DESC, id DESC").Limit(5).Find(&recentOrders).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"stats":           stats,
		"top_sellers":     sellers,
		"recent_articles": recentArticles,
		"recent_orders":   recentOrders,
	})
}

func (h *AdminHandler) Users(c echo.Context) error {
	q := query.UserQuery{
		Search: c.QueryParam("search"),
		Role:   models.Role(c.QueryParam("role")),
		Page:   parseIntDefault(c.QueryParam("page"), 1),
	}

	items, total, err := q.Run(h.DB)
	if err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return fieldErrorResponse(c, fe)
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.PageMeta(q.Page, util.AdminPageSize, total),
	})
}

// ToggleUserActive enables or disables an account.
func (h *AdminHandler) ToggleUserActive(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	if err := h.DB.Model(&user).Update("is_active", !user.IsActive).Error; err != nil {
		return err
	}
	user.IsActive = !user.IsActive

	state := "désactivé"
	if user.IsActive {
		state = "activé"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user":    user,
		"message": "L'utilisateur " + user.Username + " a été " + state + ".",
	})
}

type roleRequest struct {
	Role models.Role `json:"role" form:"role"`
}

func (h *AdminHandler) ChangeUserRole(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if !req.Role.Valid() {
		return fieldErrorResponse(c, validation.FieldErrors{"role": "Rôle invalide."})
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	oldLabel := user.Role.Label()
	if err := h.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		return err
	}
	user.Role = req.Role

	return c.JSON(http.StatusOK, map[string]any{
		"user": user,
		"message": "Le rôle de " + user.Username + " a été changé de " +
			oldLabel + " à " + user.Role.Label() + ".",
	})
}

// AdminArticles lists every article with the admin page size.
func (h *AdminHandler) AdminArticles(c echo.Context) error {
	q := query.ArticleQuery{
		Search:   c.QueryParam("search"),
		SellerID: parseUint(c.QueryParam("seller")),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		PageSize: util.AdminPageSize,
	}

	items, total, err := q.Run(h.DB)
	if err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return fieldErrorResponse(c, fe)
		}
		return err
	}

	var sellers []models.User
	if err := h.DB.Where("role = ?", models.RoleSeller).
		Order("username ASC").Find(&sellers).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":    items,
		"sellers": sellers,
		"meta":    util.PageMeta(q.Page, util.AdminPageSize, total),
	})
}

// AdminDeleteArticle removes any article regardless of owner.
func (h *AdminHandler) AdminDeleteArticle(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var article models.Article
	if err := h.DB.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	if err := h.Articles.deleteArticleRecord(c, &article); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Response{
		Status:  "ok",
		Message: "L'article \"" + article.Title + "\" a été supprimé.",
	})
}

func (h *AdminHandler) AdminOrders(c echo.Context) error {
	q := query.OrderQuery{
		Search:   c.QueryParam("search"),
		SellerID: parseUint(c.QueryParam("seller")),
		Status:   models.OrderStatus(c.QueryParam("status")),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
	}

	items, total, err := q.Run(h.DB)
	if err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return fieldErrorResponse(c, fe)
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.PageMeta(q.Page, util.AdminPageSize, total),
	})
}

// AdminNotifications lists every notification on the platform.
func (h *AdminHandler) AdminNotifications(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, util.AdminPageSize)

	var total int64
	if err := h.DB.Model(&models.Notification{}).Count(&total).Error; err != nil {
		return err
	}

	var items []models.Notification
	if err := h.DB.Preload("Recipient").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.PageMeta(page, util.AdminPageSize, total),
	})
}

// AdminMarkNotificationRead marks any notification as read.
func (h *AdminHandler) AdminMarkNotificationRead(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var notification models.Notification
	if err := h.DB.First(&notification, id).Error; err != nil {
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

	return c.JSON(http.StatusOK, map[string]any{
		"notification": notification,
		"message":      "Notification marquée comme lue.",
	})
}

// Stats is the detailed statistics screen.
func (h *AdminHandler) Stats(c echo.Context) error {
	weekAgo := time.Now().AddDate(0, 0, -7)
	monthAgo := time.Now().AddDate(0, 0, -30)

	stats := map[string]any{
		"users": map[string]any{
			"total": h.count(c, &models.User{}),
			"week":  h.count(c, &models.User{}, "created_at >= ?", weekAgo),
			"month": h.count(c, &models.User{}, "created_at >= ?", monthAgo),
			"by_role": map[string]any{
				"admin":  h.count(c, &models.User{}, "role = ?", models.RoleAdmin),
				"seller": h.count(c, &models.User{}, "role = ?", models.RoleSeller),
				"client": h.count(c, &models.User{}, "role = ?", models.RoleClient),
			},
		},
		"articles": map[string]any{
			"total": h.count(c, &models.Article{}),
			"week":  h.count(c, &models.Article{}, "created_at >= ?", weekAgo),
			"month": h.count(c, &models.Article{}, "created_at >= ?", monthAgo),
		},
		"orders": map[string]any{
			"total": h.count(c, &models.Order{}),
			"week":  h.count(c, &models.Order{}, "created_at >= ?", weekAgo),
			"month": h.count(c, &models.Order{}, "created_at >= ?", monthAgo),
			"by_status": map[string]any{
				"pending":   h.count(c, &models.Order{}, "status = ?", models.StatusPending),
				"confirmed": h.count(c, &models.Order{}, "status = ?", models.StatusConfirmed),
				"cancelled": h.count(c, &models.Order{}, "status = ?", models.StatusCancelled),
			},
		},
	}

	sellers, err := h.topSellers(10)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"stats":       stats,
		"top_sellers": sellers,
	})
}
