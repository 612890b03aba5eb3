package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Hdensac/articlo/internal/access"
	"github.com/Hdensac/articlo/internal/validation"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{Status: "error", Message: msg})
}

// fieldErrorResponse surfaces field-scoped validation failures without
// mutating anything.
func fieldErrorResponse(c echo.Context, fe validation.FieldErrors) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"status": "error",
		"errors": fe,
	})
}

// accessError maps an access-layer denial onto the wire. Ownership failures
// come through as not-found so record existence never leaks.
func accessError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, access.ErrNotFound):
		return errorResponse(c, http.StatusNotFound, "introuvable")
	case errors.Is(err, access.ErrSellerCannotOrder):
		return c.JSON(http.StatusForbidden, map[string]any{
			"status":   "error",
			"message":  "Les vendeurs ne peuvent pas passer de commandes.",
			"redirect": "/api/v1/orders/seller-restriction",
		})
	default:
		return errorResponse(c, http.StatusForbidden, "accès refusé")
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseUint(s string) uint {
	v, _ := strconv.ParseUint(s, 10, 64)
	return uint(v)
}

// parseFloatPtr distinguishes "absent" from zero for optional price bounds.
func parseFloatPtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// idParam parses the :id route param. The error is an echo.HTTPError that
// must be returned as-is so the response is written exactly once.
func idParam(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "identifiant invalide")
	}
	return uint(id), nil
}
