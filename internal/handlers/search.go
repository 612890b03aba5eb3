package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/Hdensac/articlo/internal/service/search"
	"github.com/Hdensac/articlo/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func NewSearchHandler(es *elasticsearch.Client, index string) *SearchHandler {
	return &SearchHandler{ES: es, Index: index}
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return errorResponse(c, http.StatusBadRequest, "paramètre q manquant")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.ArticlePageSize)
	from, size := util.Calculate(page, size)

	total, articles, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "articles": articles})
}
