package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem (buyer_id, product_id) 唯一
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID   int64     `gorm:"not null;uniqueIndex:idx_cart_buyer_product" json:"buyer_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_buyer_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (*CartItem) TableName() string {
	return "cart"
}

// CartLine 购物车行 + 实时价格与农户
type CartLine struct {
	ID             int64           `json:"id"`
	BuyerID        int64           `json:"buyer_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	AddedAt        time.Time       `json:"added_at"`
	ProductName    string          `json:"product_name"`
	Price          decimal.Decimal `json:"price"`
	Unit           string          `json:"unit"`
	ImageURL       string          `json:"image_url"`
	FarmerID       int64           `json:"farmer_id"`
	FarmerName     string          `json:"farmer_name"`
	FarmerLocation string          `json:"farmer_location"`
}

// Subtotal 数量 × 实时价格
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
