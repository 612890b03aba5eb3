package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Hdensac/articlo/internal/models"
)

func TestSellerDashboard(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	other := createUser(t, db, "vendeur2", models.RoleSeller)

	mine := createArticle(t, db, seller, "Vélo de course", 450)
	createArticle(t, db, other, "Article d'un autre vendeur", 50)
	createOrder(t, db, mine, models.StatusPending)
	createOrder(t, db, mine, models.StatusConfirmed)
	createOrder(t, db, mine, models.StatusCancelled)

	note := models.Notification{RecipientID: seller.ID, Title: "Titre", Message: "Message"}
	require.NoError(t, db.Create(&note).Error)

	h := &SellerHandler{DB: db}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/seller/dashboard", nil, seller)
	require.NoError(t, h.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Len(t, out["articles"].([]any), 1)
	require.Len(t, out["orders"].([]any), 3)
	require.Len(t, out["notifications"].([]any), 1)

	stats := out["stats"].(map[string]any)
	require.Equal(t, float64(1), stats["articles_count"])
	require.Equal(t, float64(3), stats["orders_count"])
	require.Equal(t, float64(1), stats["orders_pending"])
	require.Equal(t, float64(1), stats["orders_confirmed"])
}

func TestNotificationList(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	other := createUser(t, db, "vendeur2", models.RoleSeller)

	for i := 0; i < 3; i++ {
		note := models.Notification{RecipientID: seller.ID, Title: fmt.Sprintf("Titre %d", i), Message: "Message"}
		require.NoError(t, db.Create(&note).Error)
	}
	foreign := models.Notification{RecipientID: other.ID, Title: "Autre", Message: "Message"}
	require.NoError(t, db.Create(&foreign).Error)

	h := &NotificationHandler{DB: db}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/notifications", nil, seller)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Len(t, out["notifications"].([]any), 3)
	require.Equal(t, float64(3), out["unread_count"])
}

func TestNotificationMarkReadOwnOnly(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	other := createUser(t, db, "vendeur2", models.RoleSeller)

	note := models.Notification{RecipientID: seller.ID, Title: "Titre", Message: "Message"}
	require.NoError(t, db.Create(&note).Error)

	h := &NotificationHandler{DB: db}

	// someone else's notification looks like a missing record
	c, rec := jsonContext(t, e, http.MethodPatch, "/", nil, other, "id", fmt.Sprint(note.ID))
	require.NoError(t, h.MarkRead(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = jsonContext(t, e, http.MethodPatch, "/", nil, seller, "id", fmt.Sprint(note.ID))
	require.NoError(t, h.MarkRead(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, note.ID).Error)
	require.True(t, reloaded.IsRead)

	// marking twice stays read and still succeeds
	c, rec = jsonContext(t, e, http.MethodPatch, "/", nil, seller, "id", fmt.Sprint(note.ID))
	require.NoError(t, h.MarkRead(c))
	require.Equal(t, http.StatusOK, rec.Code)
}
