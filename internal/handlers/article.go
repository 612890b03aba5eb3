package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/access"
	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/mykafka"
	"github.com/Hdensac/articlo/internal/query"
	"github.com/Hdensac/articlo/internal/service/search"
	"github.com/Hdensac/articlo/internal/service/token"
	"github.com/Hdensac/articlo/internal/storage"
	"github.com/Hdensac/articlo/internal/util"
	"github.com/Hdensac/articlo/internal/validation"
)

// MaxArticlePrice is the ceiling enforced at creation and edit.
const MaxArticlePrice = 999999.99

type ArticleHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
	Store    storage.Storage
}

type articleRequest struct {
	Title       string  `json:"title" form:"title"`
	Description string  `json:"description" form:"description"`
	Price       float64 `json:"price" form:"price"`
}

func validateArticle(req *articleRequest) validation.FieldErrors {
	fe := validation.FieldErrors{}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if len([]rune(req.Title)) < 5 {
		fe.Add("title", "Le titre doit contenir au moins 5 caractères")
	}
	if len([]rune(req.Description)) < 20 {
		fe.Add("description", "La description doit contenir au moins 20 caractères")
	}
	if req.Price <= 0 {
		fe.Add("price", "Le prix doit être supérieur à 0")
	} else if req.Price > MaxArticlePrice {
		fe.Add("price", "Le prix ne peut pas dépasser 999,999.99 €")
	}
	return fe
}

// ListArticles is the public catalog with search, filters, sort and paging.
func (h *ArticleHandler) ListArticles(c echo.Context) error {
	minPrice, err := parseFloatPtr(c.QueryParam("min_price"))
	if err != nil {
		return fieldErrorResponse(c, validation.FieldErrors{"min_price": "prix invalide"})
	}
	maxPrice, err := parseFloatPtr(c.QueryParam("max_price"))
	if err != nil {
		return fieldErrorResponse(c, validation.FieldErrors{"max_price": "prix invalide"})
	}

	q := query.ArticleQuery{
		Search:     c.QueryParam("search"),
		SellerID:   parseUint(c.QueryParam("seller")),
		PriceRange: c.QueryParam("price_range"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		SortBy:     c.QueryParam("sort_by"),
		Page:       parseIntDefault(c.QueryParam("page"), 1),
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
		"meta": util.PageMeta(q.Page, util.ArticlePageSize, total),
	})
}

func (h *ArticleHandler) GetArticle(c echo.Context) error {
	id, errResp := idParam(c)
	if errResp != nil {
		return errResp
	}

	var article models.Article
	if err := h.DB.Preload("Seller").First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "introuvable")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"article":       article,
		"price_display": article.PriceDisplay(),
		"whatsapp_link": article.WhatsAppLink(),
	})
}

func (h *ArticleHandler) CreateArticle(c echo.Context) error {
	user := token.UserFrom(c)
	if err := access.CanCreateArticle(user); err != nil {
		return accessError(c, err)
	}

	var req articleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if fe := validateArticle(&req); len(fe) > 0 {
		return fieldErrorResponse(c, fe)
	}

	article := models.Article{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		SellerID:    user.ID,
	}

	if ref, err := h.saveImage(c); err != nil {
		return errorResponse(c, http.StatusBadRequest, "image invalide")
	} else if ref != "" {
		article.Image = ref
	}

	if err := h.DB.Create(&article).Error; err != nil {
		return err
	}
	article.Seller = user

	h.index(c, &article)
	h.publish(c, map[string]any{
		"type":       "article_created",
		"article_id": article.ID,
		"seller_id":  user.ID,
		"title":      article.Title,
	})

	return c.JSON(http.StatusCreated, article)
}

func (h *ArticleHandler) EditArticle(c echo.Context) error {
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

	user := token.UserFrom(c)
	if err := access.CanManageArticle(user, &article); err != nil {
		return accessError(c, err)
	}

	var req articleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "requête invalide")
	}
	if fe := validateArticle(&req); len(fe) > 0 {
		return fieldErrorResponse(c, fe)
	}

	article.Title = req.Title
	article.Description = req.Description
	article.Price = req.Price

	if ref, err := h.saveImage(c); err != nil {
		return errorResponse(c, http.StatusBadRequest, "image invalide")
	} else if ref != "" {
		article.Image = ref
	}

	if err := h.DB.Save(&article).Error; err != nil {
		return err
	}

	h.index(c, &article)
	h.publish(c, map[string]any{
		"type":       "article_updated",
		"article_id": article.ID,
		"seller_id":  article.SellerID,
		"title":      article.Title,
	})

	return c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) DeleteArticle(c echo.Context) error {
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

	user := token.UserFrom(c)
	if err := access.CanManageArticle(user, &article); err != nil {
		return accessError(c, err)
	}

	if err := h.deleteArticleRecord(c, &article); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// deleteArticleRecord removes the row plus its search document and media
// file; it is shared with the admin moderation handler.
func (h *ArticleHandler) deleteArticleRecord(c echo.Context, article *models.Article) error {
	if err := h.DB.Where("article_id = ?", article.ID).Delete(&models.Order{}).Error; err != nil {
		return err
	}
	if err := h.DB.Delete(article).Error; err != nil {
		return err
	}

	if h.Store != nil && article.Image != "" {
		if err := h.Store.Delete(article.Image); err != nil {
			c.Logger().Errorf("image delete error: %v", err)
		}
	}
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteArticle(ctx, h.ES, h.ESIndex, article.ID); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	h.publish(c, map[string]any{
		"type":       "article_deleted",
		"article_id": article.ID,
		"seller_id":  article.SellerID,
	})
	return nil
}

func (h *ArticleHandler) saveImage(c echo.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil || h.Store == nil {
		return "", nil
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.Store.Save(file.Filename, src)
}

func (h *ArticleHandler) index(c echo.Context, article *models.Article) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexArticle(ctx, h.ES, h.ESIndex, article); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ArticleHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "article_events", fmt.Sprint(event["article_id"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
