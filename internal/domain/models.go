package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type Product struct {
	ID             string              `db:"id" json:"id"`
	CategoryID     string              `db:"category_id" json:"categoryId"`
	Name           string              `db:"name" json:"name"`
	Slug           string              `db:"slug" json:"slug"`
	Description    string              `db:"description" json:"description"`
	Price          decimal.Decimal     `db:"price" json:"price"`
	CompareAtPrice decimal.NullDecimal `db:"compare_at_price" json:"compareAtPrice"`
	SKU            string              `db:"sku" json:"sku,omitempty"`
	Stock          int                 `db:"stock" json:"stock"`
	Active         bool                `db:"active" json:"active"`
	Featured       bool                `db:"featured" json:"featured"`
	ImagesJSON     string              `db:"images_json" json:"-"`
	CreatedAt      string              `db:"created_at" json:"createdAt"`
	UpdatedAt      string              `db:"updated_at" json:"updatedAt,omitempty"`
}

// Images decodes the ordered image list. A malformed column reads as empty.
func (p Product) Images() []string {
	var out []string
	if p.ImagesJSON == "" {
		return []string{}
	}
	if err := json.Unmarshal([]byte(p.ImagesJSON), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// EncodeImages is the inverse of Product.Images.
func EncodeImages(images []string) string {
	if images == nil {
		images = []string{}
	}
	b, _ := json.Marshal(images)
	return string(b)
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type Review struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"productId"`
	UserID    string `db:"user_id" json:"userId"`
	UserName  string `db:"user_name" json:"userName"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type Rating struct {
	Average float64 `db:"average" json:"average"`
	Count   int     `db:"count" json:"count"`
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationReviewed ApplicationStatus = "REVIEWED"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationReviewed, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

type SellerApplication struct {
	ID                  string            `db:"id" json:"id"`
	BusinessName        string            `db:"business_name" json:"businessName"`
	OwnerName           string            `db:"owner_name" json:"ownerName"`
	Email               string            `db:"email" json:"email"`
	Phone               string            `db:"phone" json:"phone"`
	CraftType           string            `db:"craft_type" json:"craftType"`
	BusinessDescription string            `db:"business_description" json:"businessDescription"`
	YearsExperience     string            `db:"years_experience" json:"yearsExperience"`
	Location            string            `db:"location" json:"location"`
	Website             string            `db:"website" json:"website,omitempty"`
	Status              ApplicationStatus `db:"status" json:"status"`
	CreatedAt           string            `db:"created_at" json:"createdAt"`
}
