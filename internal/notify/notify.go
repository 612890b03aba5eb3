// Package notify turns order events into notification records. The original
// system wired this through a save signal; here the order mutation paths call
// it explicitly and treat every failure as best-effort: logged, reported to
// the caller, but never allowed to fail the triggering mutation.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/mykafka"
)

const ordersTopic = "order_events"

type Notifier struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Log      *slog.Logger
}

func New(db *gorm.DB, producer *mykafka.Producer, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{DB: db, Producer: producer, Log: log}
}

// OrderCreated notifies the order's seller plus every admin account.
// The order must carry its preloaded Article and Seller.
func (n *Notifier) OrderCreated(ctx context.Context, order *models.Order) error {
	var errs []error

	sellerNote := models.Notification{
		RecipientID: order.SellerID,
		Title:       "Nouvelle commande reçue !",
		Message: fmt.Sprintf("%s souhaite commander votre article '%s' au prix de %s€. Contactez-le au %s.",
			order.ClientName, order.Article.Title, order.Article.PriceDisplay(), order.ClientPhone),
	}
	if err := n.DB.WithContext(ctx).Create(&sellerNote).Error; err != nil {
		n.Log.Error("seller notification failed", "order_id", order.ID, "error", err)
		errs = append(errs, err)
	}

	sellerName := ""
	if order.Seller != nil {
		sellerName = order.Seller.Username
	}
	errs = append(errs, n.notifyAdmins(ctx,
		"Nouvelle commande sur la plateforme",
		fmt.Sprintf("Commande #%d : %s a commandé '%s' chez %s.",
			order.ID, order.ClientName, order.Article.Title, sellerName))...)

	n.publish(ctx, map[string]any{
		"type":       "order_created",
		"order_id":   order.ID,
		"article_id": order.ArticleID,
		"seller_id":  order.SellerID,
	})

	return errors.Join(errs...)
}

// OrderStatusChanged notifies every admin about a confirmed or cancelled
// transition. Other statuses produce nothing.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order *models.Order, oldStatus models.OrderStatus) error {
	if order.Status != models.StatusConfirmed && order.Status != models.StatusCancelled {
		return nil
	}

	sellerName := ""
	if order.Seller != nil {
		sellerName = order.Seller.Username
	}
	errs := n.notifyAdmins(ctx,
		fmt.Sprintf("Commande #%d - Statut mis à jour", order.ID),
		fmt.Sprintf("Le vendeur %s a changé le statut de '%s' vers '%s' pour la commande de %s.",
			sellerName, oldStatus, order.Status, order.ClientName))

	n.publish(ctx, map[string]any{
		"type":       "order_status_changed",
		"order_id":   order.ID,
		"old_status": oldStatus,
		"new_status": order.Status,
	})

	return errors.Join(errs...)
}

func (n *Notifier) notifyAdmins(ctx context.Context, title, message string) []error {
	var admins []models.User
	if err := n.DB.WithContext(ctx).Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		n.Log.Error("admin lookup failed", "error", err)
		return []error{err}
	}

	var errs []error
	for _, admin := range admins {
		note := models.Notification{
			RecipientID: admin.ID,
			Title:       title,
			Message:     message,
		}
		if err := n.DB.WithContext(ctx).Create(&note).Error; err != nil {
			n.Log.Error("admin notification failed", "recipient_id", admin.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

func (n *Notifier) publish(ctx context.Context, event map[string]any) {
	if n.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.Producer.PublishEvent(ctx, ordersTopic, fmt.Sprint(event["order_id"]), event); err != nil {
		n.Log.Error("kafka publish failed", "topic", ordersTopic, "error", err)
	}
}
