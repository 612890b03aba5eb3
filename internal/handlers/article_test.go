package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Hdensac/articlo/internal/models"
)

func TestCreateArticleAsSeller(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)

	h := &ArticleHandler{DB: db}
	body := map[string]any{
		"title":       "Vélo de course vintage",
		"description": "Un vélo de course des années 80, entièrement restauré.",
		"price":       450.0,
	}
	c, rec := jsonContext(t, e, http.MethodPost, "/api/v1/articles", body, seller)
	require.NoError(t, h.CreateArticle(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var article models.Article
	require.NoError(t, db.First(&article).Error)
	require.Equal(t, seller.ID, article.SellerID)
	require.Equal(t, "Vélo de course vintage", article.Title)
}

func TestCreateArticleDeniedForClientAndAnonymous(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	client := createUser(t, db, "client1", models.RoleClient)

	h := &ArticleHandler{DB: db}
	body := map[string]any{
		"title":       "Vélo de course vintage",
		"description": "Un vélo de course des années 80, entièrement restauré.",
		"price":       450.0,
	}

	c, rec := jsonContext(t, e, http.MethodPost, "/", body, client)
	require.NoError(t, h.CreateArticle(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = jsonContext(t, e, http.MethodPost, "/", body, nil)
	require.NoError(t, h.CreateArticle(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateArticleValidation(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)

	h := &ArticleHandler{DB: db}
	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"short title", map[string]any{"title": "Vélo", "description": "Une description suffisamment longue ici.", "price": 10.0}, "title"},
		{"short description", map[string]any{"title": "Vélo de course", "description": "Trop court", "price": 10.0}, "description"},
		{"zero price", map[string]any{"title": "Vélo de course", "description": "Une description suffisamment longue ici.", "price": 0.0}, "price"},
		{"negative price", map[string]any{"title": "Vélo de course", "description": "Une description suffisamment longue ici.", "price": -5.0}, "price"},
		{"price above ceiling", map[string]any{"title": "Vélo de course", "description": "Une description suffisamment longue ici.", "price": 1000000.0}, "price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := jsonContext(t, e, http.MethodPost, "/", tc.body, seller)
			require.NoError(t, h.CreateArticle(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			out := decodeBody(t, rec)
			require.Contains(t, out["errors"], tc.field)
		})
	}

	var count int64
	db.Model(&models.Article{}).Count(&count)
	require.Zero(t, count)
}

func TestEditArticleOwnershipHidesExistence(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	owner := createUser(t, db, "vendeur1", models.RoleSeller)
	other := createUser(t, db, "vendeur2", models.RoleSeller)
	article := createArticle(t, db, owner, "Vélo de course", 450)

	h := &ArticleHandler{DB: db}
	body := map[string]any{
		"title":       "Vélo de course modifié",
		"description": "Une description suffisamment longue pour la validation.",
		"price":       400.0,
	}

	c, rec := jsonContext(t, e, http.MethodPatch, "/", body, other, "id", fmt.Sprint(article.ID))
	require.NoError(t, h.EditArticle(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = jsonContext(t, e, http.MethodPatch, "/", body, owner, "id", fmt.Sprint(article.ID))
	require.NoError(t, h.EditArticle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Article
	require.NoError(t, db.First(&reloaded, article.ID).Error)
	require.Equal(t, "Vélo de course modifié", reloaded.Title)
	require.Equal(t, 400.0, reloaded.Price)
}

func TestDeleteArticleRemovesOrders(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	owner := createUser(t, db, "vendeur1", models.RoleSeller)
	article := createArticle(t, db, owner, "Vélo de course", 450)
	createOrder(t, db, article, models.StatusPending)

	h := &ArticleHandler{DB: db}
	c, rec := jsonContext(t, e, http.MethodDelete, "/", nil, owner, "id", fmt.Sprint(article.ID))
	require.NoError(t, h.DeleteArticle(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var articles, orders int64
	db.Model(&models.Article{}).Count(&articles)
	db.Model(&models.Order{}).Count(&orders)
	require.Zero(t, articles)
	require.Zero(t, orders)
}

func TestListArticlesEnvelope(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	for i := 0; i < 15; i++ {
		createArticle(t, db, seller, fmt.Sprintf("Article de test %02d", i), float64(10+i))
	}

	h := &ArticleHandler{DB: db}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/articles", nil, nil)
	require.NoError(t, h.ListArticles(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	data := out["data"].([]any)
	meta := out["meta"].(map[string]any)
	require.Len(t, data, 12)
	require.Equal(t, float64(15), meta["total"])
	require.Equal(t, float64(2), meta["total_pages"])
	require.Equal(t, true, meta["has_next"])
}

func TestListArticlesRejectsBadCriteria(t *testing.T) {
	db := testDB(t)
	e := testEcho()

	h := &ArticleHandler{DB: db}
	c, rec := jsonContext(t, e, http.MethodGet, "/api/v1/articles?price_range=30-70", nil, nil)
	require.NoError(t, h.ListArticles(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decodeBody(t, rec)
	require.Contains(t, out["errors"], "price_range")

	c, rec = jsonContext(t, e, http.MethodGet, "/api/v1/articles?sort_by=popularity", nil, nil)
	require.NoError(t, h.ListArticles(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArticleDetail(t *testing.T) {
	db := testDB(t)
	e := testEcho()
	seller := createUser(t, db, "vendeur1", models.RoleSeller)
	seller.WhatsAppNumber = "+33600000000"
	require.NoError(t, db.Save(seller).Error)
	article := createArticle(t, db, seller, "Vélo de course", 149.9)

	h := &ArticleHandler{DB: db}
	c, rec := jsonContext(t, e, http.MethodGet, "/", nil, nil, "id", fmt.Sprint(article.ID))
	require.NoError(t, h.GetArticle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Equal(t, "149.90", out["price_display"])

	c, rec = jsonContext(t, e, http.MethodGet, "/", nil, nil, "id", "99")
	require.NoError(t, h.GetArticle(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
