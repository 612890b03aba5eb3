// Package access centralizes every permission decision of the marketplace.
// Predicates are pure: they look at the acting user and the target record
// and return nil or a typed denial, never touching storage or the response.
package access

import (
	"errors"

	"github.com/Hdensac/articlo/internal/models"
)

var (
	ErrForbidden = errors.New("access forbidden")
	// ErrNotFound is returned on ownership failures so that non-owners
	// cannot tell an existing record from a missing one.
	ErrNotFound = errors.New("record not found")
	// ErrSellerCannotOrder is a dedicated denial so handlers can point
	// sellers at the explanation page instead of a bare 403.
	ErrSellerCannotOrder = errors.New("sellers cannot place orders")
)

func CanCreateArticle(u *models.User) error {
	if u == nil || !u.IsSeller() {
		return ErrForbidden
	}
	return nil
}

// CanManageArticle gates edit and delete on an article.
func CanManageArticle(u *models.User, a *models.Article) error {
	if u == nil || !u.IsSeller() || a.SellerID != u.ID {
		return ErrNotFound
	}
	return nil
}

// CanPlaceOrder allows anonymous visitors and any non-seller account.
func CanPlaceOrder(u *models.User) error {
	if u != nil && u.IsSeller() {
		return ErrSellerCannotOrder
	}
	return nil
}

// CanManageOrder gates order detail and status updates.
func CanManageOrder(u *models.User, o *models.Order) error {
	if u == nil || !u.IsSeller() || o.SellerID != u.ID {
		return ErrNotFound
	}
	return nil
}

func RequireSeller(u *models.User) error {
	if u == nil || !u.IsSeller() {
		return ErrForbidden
	}
	return nil
}

func RequireAdmin(u *models.User) error {
	if u == nil || !u.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
