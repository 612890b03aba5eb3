package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/access"
	"github.com/Hdensac/articlo/internal/logging"
	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/notify"
	"github.com/Hdensac/articlo/internal/service/token"
	"github.com/Hdensac/articlo/internal/validation"
)

type OrderHandler struct {
	DB       *gorm.DB
	Notifier *notify.Notifier
}

type orderRequest struct {
	ClientName  string `json:"client_name" form:"client_name"`
	ClientPhone string `json:"client_phone" form:"client_phone"`
	ClientEmail string `json:"client_email" form:"client_email"`
	Message     string `json:"message" form:"message"`
}

func validateOrder(req *orderRequest) validation.FieldErrors {
	fe := validation.FieldErrors{}
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.ToLower(strings.TrimSpace(req.ClientEmail))

	if len([]rune(req.ClientName)) < 2 {
		fe.Add("client_name", "Le nom doit contenir au moins 2 caractères")
	}

	phone := normalizePhone(req.ClientPhone)
	if len(strings.TrimPrefix(phone, "+")) < 8 {
		fe.Add("client_phone", "Le numéro de téléphone doit contenir au moins 8 chiffres")
	} else {
		req.ClientPhone = phone
	}

	if req.ClientEmail != "" {
		at := strings.Index(req.ClientEmail, "@")
		if at < 1 || !strings.Contains(req.ClientEmail[at:], ".") {
			fe.Add("client_email", "Veuillez entrer une adresse email valide")
		}
	}
	return fe
}

// normalizePhone keeps a leading + and drops every non-digit.
func normalizePhone(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PlaceOrder creates an order on an article. Anonymous visitors and any
// non-seller account may order; the article's seller is denormalized onto
// the order at creation time and never re-derived.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	if err := access.CanPlaceOrder(token.UserFrom(c)); err != nil {
		return accessError(c, err)
	}

	articleID, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var article models.Article
	if err := h.DB.Preload("Seller").First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if fe := validateOrder(&req); len(fe) > 0 {
		return fieldErrorResponse(c, fe)
	}

	order := models.Order{
		ArticleID:   article.ID,
		SellerID:    article.SellerID,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
		Message:     req.Message,
		Status:      models.StatusPending,
	}
	if err := h.DB.Create(&order).Error; err != nil {
		return err
	}
	order.Article = &article
	order.Seller = article.Seller

	// Best-effort: a notification failure never fails the order.
	if err := h.Notifier.OrderCreated(c.Request().Context(), &order); err != nil {
		h.log(c).Error("order notifications failed", "order_id", order.ID, "error", err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"order": order,
		"message": "Votre commande pour \"" + article.Title +
			"\" a été envoyée avec succès ! Le vendeur va vous contacter bientôt.",
	})
}

// GetOrder backs the order confirmation page.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var order models.Order
	if err := h.DB.Preload("Article").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order":        order,
		"status_label": order.Status.Label(),
	})
}

// OrderDetail is restricted to the order's seller.
func (h *OrderHandler) OrderDetail(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var order models.Order
	if err := h.DB.Preload("Article").Preload("Seller").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	if err := access.CanManageOrder(token.UserFrom(c), &order); err != nil {
		return accessError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order":        order,
		"status_label": order.Status.Label(),
	})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" form:"status"`
}

// UpdateOrderStatus applies the order state machine. Resubmitting the
// current status is an idempotent no-op and produces no notification.
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var order models.Order
	if err := h.DB.Preload("Article").Preload("Seller").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	if err := access.CanManageOrder(token.UserFrom(c), &order); err != nil {
		return accessError(c, err)
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if !req.Status.Valid() {
		return fieldErrorResponse(c, validation.FieldErrors{"status": "statut inconnu"})
	}

	if req.Status == order.Status {
		return c.JSON(http.StatusOK, map[string]any{
			"order":        order,
			"status_label": order.Status.Label(),
		})
	}

	oldStatus := order.Status
	if !oldStatus.CanTransitionTo(req.Status) {
		return fieldErrorResponse(c, validation.FieldErrors{
			"status": "transition invalide de '" + string(oldStatus) + "' vers '" + string(req.Status) + "'",
		})
	}

	if err := h.DB.Model(&order).Update("status", req.Status).Error; err != nil {
		return err
	}
	order.Status = req.Status

	if err := h.Notifier.OrderStatusChanged(c.Request().Context(), &order, oldStatus); err != nil {
		h.log(c).Error("status notifications failed", "order_id", order.ID, "error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"order":        order,
		"status_label": order.Status.Label(),
		"message":      "Le statut de la commande a été mis à jour : " + order.Status.Label(),
	})
}

// SellerRestriction is the explanation page sellers are pointed to when they
// try to order.
func (h *OrderHandler) SellerRestriction(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Status: "info",
		Message: "Les vendeurs ne peuvent pas passer de commandes. " +
			"Vous pouvez gérer vos articles et commandes depuis votre tableau de bord vendeur.",
	})
}

func (h *OrderHandler) log(c echo.Context) *slog.Logger {
	return logging.FromContext(c.Request().Context())
}
