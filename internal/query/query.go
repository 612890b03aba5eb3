// Package query builds the filtered, sorted, paginated listings used by the
// public catalog and the admin screens. Criteria are validated up front and
// rejected with field-scoped errors; they are never silently coerced.
package query

import (
	"strings"

	"gorm.io/gorm"

	"github.com/Hdensac/articlo/internal/models"
	"github.com/Hdensac/articlo/internal/util"
	"github.com/Hdensac/articlo/internal/validation"
)

// bracket is a closed-open price range. The top bracket has no upper bound.
type bracket struct {
	min     float64
	max     float64
	noUpper bool
}

var priceBrackets = map[string]bracket{
	"0-50":     {min: 0, max: 50},
	"50-100":   {min: 50, max: 100},
	"100-250":  {min: 100, max: 250},
	"250-500":  {min: 250, max: 500},
	"500-1000": {min: 500, max: 1000},
	"1000+":    {min: 1000, noUpper: true},
}

// sortClauses whitelists the accepted sort keys. Every clause carries an id
// tiebreaker so the resulting order is total and stable.
var sortClauses = map[string]string{
	"":            "created_at DESC, id DESC",
	"-created_at": "created_at DESC, id DESC",
	"created_at":  "created_at ASC, id ASC",
	"price":       "price ASC, id ASC",
	"-price":      "price DESC, id DESC",
	"title":       "title ASC, id ASC",
	"-title":      "title DESC, id DESC",
}

// ArticleQuery filters the public catalog and the admin article listing.
type ArticleQuery struct {
	Search     string
	SellerID   uint
	PriceRange string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	Page       int
	PageSize   int
}

func (q *ArticleQuery) Validate() error {
	fe := validation.FieldErrors{}
	if q.PriceRange != "" {
		if _, ok := priceBrackets[q.PriceRange]; !ok {
			fe.Add("price_range", "gamme de prix inconnue")
		}
	}
	if q.MinPrice != nil && *q.MinPrice < 0 {
		fe.Add("min_price", "le prix minimum doit être positif")
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		fe.Add("max_price", "le prix maximum doit être positif")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		fe.Add("min_price", "le prix minimum ne peut pas être supérieur au prix maximum")
	}
	if _, ok := sortClauses[q.SortBy]; !ok {
		fe.Add("sort_by", "tri inconnu")
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

// Run applies the criteria and returns one page plus the filtered total.
func (q *ArticleQuery) Run(db *gorm.DB) ([]models.Article, int64, error) {
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.Article{})
	if term := likeTerm(q.Search); term != "" {
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}
	if q.SellerID != 0 {
		tx = tx.Where("seller_id = ?", q.SellerID)
	}
	if q.PriceRange != "" {
		b := priceBrackets[q.PriceRange]
		tx = tx.Where("price >= ?", b.min)
		if !b.noUpper {
			tx = tx.Where("price < ?", b.max)
		}
	} else {
		if q.MinPrice != nil {
			tx = tx.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			tx = tx.Where("price <= ?", *q.MaxPrice)
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	size := q.PageSize
	if size <= 0 {
		size = util.ArticlePageSize
	}
	offset, limit := util.Calculate(q.Page, size)

	var items []models.Article
	err := tx.Preload("Seller").
		Order(sortClauses[q.SortBy]).
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

// OrderQuery filters the admin order listing and seller order views.
type OrderQuery struct {
	Search   string
	SellerID uint
	Status   models.OrderStatus
	Page     int
}

func (q *OrderQuery) Validate() error {
	fe := validation.FieldErrors{}
	if q.Status != "" && !q.Status.Valid() {
		fe.Add("status", "statut inconnu")
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func (q *OrderQuery) Run(db *gorm.DB) ([]models.Order, int64, error) {
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.Order{})
	if term := likeTerm(q.Search); term != "" {
		tx = tx.Joins("JOIN articles ON articles.id = orders.article_id").
			Where(`LOWER(orders.client_name) LIKE ? OR LOWER(orders.client_phone) LIKE ?
				OR LOWER(orders.client_email) LIKE ? OR LOWER(articles.title) LIKE ?`,
				term, term, term, term)
	}
	if q.SellerID != 0 {
		tx = tx.Where("orders.seller_id = ?", q.SellerID)
	}
	if q.Status != "" {
		tx = tx.Where("orders.status = ?", q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := util.Calculate(q.Page, util.AdminPageSize)
	var items []models.Order
	err := tx.Preload("Article").Preload("Seller").
		Order("orders.created_at DESC, orders.id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

// UserQuery filters the admin user listing.
type UserQuery struct {
	Search string
	Role   models.Role
	Page   int
}

func (q *UserQuery) Validate() error {
	fe := validation.FieldErrors{}
	if q.Role != "" && !q.Role.Valid() {
		fe.Add("role", "rôle invalide")
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func (q *UserQuery) Run(db *gorm.DB) ([]models.User, int64, error) {
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.User{})
	if term := likeTerm(q.Search); term != "" {
		tx = tx.Where(`LOWER(username) LIKE ? OR LOWER(email) LIKE ?
			OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?`,
			term, term, term, term)
	}
	if q.Role != "" {
		tx = tx.Where("role = ?", q.Role)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := util.Calculate(q.Page, util.AdminPageSize)
	var items []models.User
	err := tx.Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

func likeTerm(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "%" + strings.ToLower(s) + "%"
}
