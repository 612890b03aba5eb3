package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Hdensac/articlo/internal/models"
)

func TestToggleUserActive(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)
	target := createUser(t, db, "client1", models.RoleClient)

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}

	c, rec := jsonContext(t, e, http.MethodPatch, "/", nil, admin, "id", fmt.Sprint(target.ID))
	require.NoError(t, h.ToggleUserActive(c))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	require.Contains(t, out["message"], "désactivé")

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	require.False(t, reloaded.IsActive)

	// toggling again re-enables
	c, rec = jsonContext(t, e, http.MethodPatch, "/", nil, admin, "id", fmt.Sprint(target.ID))
	require.NoError(t, h.ToggleUserActive(c))
	out = decodeBody(t, rec)
	require.Contains(t, out["message"], "activé")
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	require.True(t, reloaded.IsActive)
}

func TestChangeUserRole(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)
	target := createUser(t, db, "client1", models.RoleClient)

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}

	c, rec := jsonContext(t, e, http.MethodPatch, "/",
		map[string]any{"role": "seller"}, admin, "id", fmt.Sprint(target.ID))
	require.NoError(t, h.ChangeUserRole(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Contains(t, out["message"], "Client")
	require.Contains(t, out["message"], "Vendeur")

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	require.Equal(t, models.RoleSeller, reloaded.Role)

	c, rec = jsonContext(t, e, http.MethodPatch, "/",
		map[string]any{"role": "superuser"}, admin, "id", fmt.Sprint(target.ID))
	require.NoError(t, h.ChangeUserRole(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDeleteArticleAnyOwner(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	article := createArticle(t, db, seller, "Vélo de course", 450)
	createOrder(t, db, article, models.StatusPending)

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}
	c, rec := jsonContext(t, e, http.MethodDelete, "/", nil, admin, "id", fmt.Sprint(article.ID))
	require.NoError(t, h.AdminDeleteArticle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Contains(t, out["message"], "Vélo de course")

	var articles, orders int64
	db.Model(&models.Article{}).Count(&articles)
	db.Model(&models.Order{}).Count(&orders)
	require.Zero(t, articles)
	require.Zero(t, orders)
}

func TestAdminUsersListing(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)
	createUser(t, db, "vendeur1", models.RoleSeller)
	createUser(t, db, "client1", models.RoleClient)

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/admin/users?role=seller", nil, admin)
	require.NoError(t, h.Users(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	data := out["data"].([]any)
	require.Len(t, data, 1)

	c, rec = jsonContext(t, e, http.MethodGet, "/api/v1/admin/users?role=superuser", nil, admin)
	require.NoError(t, h.Users(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDashboard(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	article := createArticle(t, db, seller, "Vélo de course", 450)
	createOrder(t, db, article, models.StatusPending)
	createOrder(t, db, article, models.StatusConfirmed)

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/admin/dashboard", nil, admin)
	require.NoError(t, h.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	stats := out["stats"].(map[string]any)
	require.Equal(t, float64(2), stats["total_users"])
	require.Equal(t, float64(1), stats["total_articles"])
	require.Equal(t, float64(2), stats["total_orders"])
	require.Equal(t, float64(1), stats["orders_pending"])
	require.Equal(t, float64(1), stats["orders_confirmed"])

	top := out["top_sellers"].([]any)
	require.Len(t, top, 1)
	first := top[0].(map[string]any)
	require.Equal(t, "vendeur1", first["username"])
	require.Equal(t, float64(1), first["articles_count"])
	require.Equal(t, float64(2), first["orders_count"])
}

func TestAdminDashboardSurvivesCountFailure(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)

	// break one aggregate source; the dashboard must still render
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/admin/dashboard", nil, admin)
	require.NoError(t, h.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	stats := out["stats"].(map[string]any)
	require.Equal(t, float64(0), stats["unread_notifications"])
	require.Equal(t, float64(1), stats["total_users"])
}

func TestAdminMarkNotificationRead(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	admin := createUser(t, db, "admin1", models.RoleAdmin)
	seller := createUser(t, db, "vendeur1", models.RoleSeller)

	note := models.Notification{RecipientID: seller.ID, Title: "Titre", Message: "Message"}
	require.NoError(t, db.Create(&note).Error)

	h := &AdminHandler{DB: db, Articles: &ArticleHandler{DB: db}}
	c, rec := jsonContext(t, e, http.MethodPatch, "/", nil, admin, "id", fmt.Sprint(note.ID))
	require.NoError(t, h.AdminMarkNotificationRead(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, note.ID).Error)
	require.True(t, reloaded.IsRead)
}
