package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/config"
	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/notify"
	"github.com/Hdensac/articlo/internal/validation"
)

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))
	return db
}

func testEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

// jsonContext builds an echo context carrying a JSON body, an optional
// authenticated user and optional path params.
func jsonContext(t *testing.T, e *echo.Echo, method, target string, body any, user *models.User, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if user != nil {
		c.Set("user", user)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	u := models.User{
		Username:     username,
		Email:        username + "@test.fr",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func createArticle(t *testing.T, db *gorm.DB, seller *models.User, title string, price float64) *models.Article {
	a := models.Article{
		Title:       title,
		Description: "Une description assez longue pour passer la validation.",
		Price:       price,
		SellerID:    seller.ID,
	}
	require.NoError(t, db.Create(&a).Error)
	return &a
}

func createOrder(t *testing.T, db *gorm.DB, article *models.Article, status models.OrderStatus) *models.Order {
	o := models.Order{
		ArticleID:   article.ID,
		SellerID:    article.SellerID,
		ClientName:  "Jean Dupont",
		ClientPhone: "+33612345678",
		Status:      status,
	}
	require.NoError(t, db.Create(&o).Error)
	return &o
}

func notificationCount(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&n).Error)
	return n
}

func newNotifier(db *gorm.DB) *notify.Notifier {
	return notify.New(db, nil, nil)
}
