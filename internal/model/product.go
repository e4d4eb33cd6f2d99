package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FarmerID          int64           `gorm:"not null;index" json:"farmer_id"`
	Name              string          `gorm:"size:100;not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	QuantityAvailable int             `gorm:"not null;default:0" json:"quantity_available"`
	Unit              string          `gorm:"size:20;not null" json:"unit"`
	Category          string          `gorm:"size:50;index" json:"category"`
	ImageURL          string          `gorm:"size:255" json:"image_url"`
	IsActive          bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*Product) TableName() string {
	return "products"
}

// ProductView 商品 + 农户展示信息
type ProductView struct {
	Product
	FarmerName     string `json:"farmer_name"`
	FarmerLocation string `json:"farmer_location"`
}

// ProductPatch 部分更新，nil 字段不改
type ProductPatch struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	QuantityAvailable *int             `json:"quantity_available"`
	Unit              *string          `json:"unit"`
	Category          *string          `json:"category"`
	ImageURL          *string          `json:"image_url"`
}

// Columns 转成 gorm Updates 用的列映射
func (p ProductPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.QuantityAvailable != nil {
		cols["quantity_available"] = *p.QuantityAvailable
	}
	if p.Unit != nil {
		cols["unit"] = *p.Unit
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	return cols
}
