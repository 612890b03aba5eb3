package models

import (
	"strconv"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleClient Role = "client"
)

var roleLabels = map[Role]string{
	RoleAdmin:  "Administrateur",
	RoleSeller: "Vendeur",
	RoleClient: "Client",
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	return roleLabels[r]
}

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"unique;not null"          json:"username"`
	Email          string    `gorm:"not null"                 json:"email"`
	PasswordHash   string    `gorm:"not null"                 json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           Role      `gorm:"not null;default:client"  json:"role"`
	WhatsAppNumber string    `json:"whatsapp_number,omitempty"`
	IsActive       bool      `gorm:"default:true"             json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) IsSeller() bool { return u.Role == RoleSeller }
func (u *User) IsClient() bool { return u.Role == RoleClient }
func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }

// CanOrder: sellers are not allowed to place orders.
func (u *User) CanOrder() bool { return u.Role != RoleSeller }

type Article struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `gorm:"not null"                 json:"description"`
	Price       float64   `gorm:"not null"                 json:"price"`
	Image       string    `json:"image,omitempty"`
	SellerID    uint      `gorm:"index;not null"           json:"seller_id"`
	Seller      *User     `gorm:"constraint:OnDelete:CASCADE" json:"seller,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriceDisplay renders the price with exactly 2 decimal places.
func (a *Article) PriceDisplay() string {
	return strconv.FormatFloat(a.Price, 'f', 2, 64)
}

func (a *Article) WhatsAppLink() string {
	if a.Seller != nil && a.Seller.WhatsAppNumber != "" {
		return "https://wa.me/" + a.Seller.WhatsAppNumber
	}
	return ""
}

type Order struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ArticleID   uint        `gorm:"index;not null"           json:"article_id"`
	Article     *Article    `gorm:"constraint:OnDelete:CASCADE" json:"article,omitempty"`
	ClientName  string      `gorm:"not null"                 json:"client_name"`
	ClientPhone string      `gorm:"not null"                 json:"client_phone"`
	ClientEmail string      `json:"client_email,omitempty"`
	Message     string      `json:"message,omitempty"`
	SellerID    uint        `gorm:"index;not null"           json:"seller_id"`
	Seller      *User       `gorm:"constraint:OnDelete:CASCADE" json:"seller,omitempty"`
	Status      OrderStatus `gorm:"not null;default:pending" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Notification struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID uint      `gorm:"index;not null"           json:"recipient_id"`
	Recipient   *User     `gorm:"constraint:OnDelete:CASCADE" json:"recipient,omitempty"`
	Title       string    `gorm:"not null"                 json:"title"`
	Message     string    `gorm:"not null"                 json:"message"`
	IsRead      bool      `gorm:"default:false;index"      json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
