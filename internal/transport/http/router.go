package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/access"
	"github.com/Hdensac/articlo/internal/handlers"
	"github.com/Hdensac/articlo/internal/service/token"
)

type Deps struct {
	DB                  *gorm.DB
	Tokens              *token.TokenService
	AuthHandler         *handlers.AuthHandler
	ArticleHandler      *handlers.ArticleHandler
	OrderHandler        *handlers.OrderHandler
	SellerHandler       *handlers.SellerHandler
	AdminHandler        *handlers.AdminHandler
	NotificationHandler *handlers.NotificationHandler
	SearchHandler       *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	requireAuth := d.Tokens.Authenticate(true)
	optionalAuth := d.Tokens.Authenticate(false)

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)
	v1.GET("/profile", d.AuthHandler.Profile, requireAuth)
	v1.PATCH("/profile", d.AuthHandler.UpdateProfile, requireAuth)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	articles := v1.Group("/articles")
	articles.GET("", d.ArticleHandler.ListArticles)
	articles.GET("/:id", d.ArticleHandler.GetArticle)
	articles.POST("", d.ArticleHandler.CreateArticle, requireAuth)
	articles.PATCH("/:id", d.ArticleHandler.EditArticle, requireAuth)
	articles.DELETE("/:id", d.ArticleHandler.DeleteArticle, requireAuth)

	// Orders are placed by anonymous visitors or signed-in non-sellers.
	articles.POST("/:id/order", d.OrderHandler.PlaceOrder, optionalAuth)
	v1.GET("/orders/seller-restriction", d.OrderHandler.SellerRestriction)
	v1.GET("/orders/:id", d.OrderHandler.GetOrder)

	seller := v1.Group("/seller", requireAuth,
		token.RequireRole(access.RequireSeller, "Accès refusé. Cette page est réservée aux vendeurs."))
	seller.GET("/dashboard", d.SellerHandler.Dashboard)
	seller.GET("/orders/:id", d.OrderHandler.OrderDetail)
	seller.POST("/orders/:id/status", d.OrderHandler.UpdateOrderStatus)

	notifications := v1.Group("/notifications", requireAuth)
	notifications.GET("", d.NotificationHandler.List)
	notifications.POST("/:id/read", d.NotificationHandler.MarkRead)

	admin := v1.Group("/admin", requireAuth,
		token.RequireRole(access.RequireAdmin, "Accès refusé. Vous devez être administrateur."))
	admin.GET("/dashboard", d.AdminHandler.Dashboard)
	admin.GET("/users", d.AdminHandler.Users)
	admin.POST("/users/:id/toggle", d.AdminHandler.ToggleUserActive)
	admin.POST("/users/:id/role", d.AdminHandler.ChangeUserRole)
	admin.GET("/articles", d.AdminHandler.AdminArticles)
	admin.DELETE("/articles/:id", d.AdminHandler.AdminDeleteArticle)
	admin.GET("/orders", d.AdminHandler.AdminOrders)
	admin.GET("/notifications", d.AdminHandler.AdminNotifications)
	admin.POST("/notifications/:id/read", d.AdminHandler.AdminMarkNotificationRead)
	admin.GET("/stats", d.AdminHandler.Stats)
}
