package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 一次结账中每个农户一张订单
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID         int64           `gorm:"not null;index" json:"buyer_id"`
	FarmerID        int64           `gorm:"not null;index" json:"farmer_id"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DeliveryAddress string          `gorm:"size:255;not null" json:"delivery_address"`
	DeliveryCity    string          `gorm:"size:100;not null" json:"delivery_city"`
	DeliveryPhone   string          `gorm:"size:20;not null" json:"delivery_phone"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Status          OrderStatus     `gorm:"size:20;not null;index" json:"status"`
	OrderDate       time.Time       `gorm:"autoCreateTime" json:"order_date"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*Order) TableName() string {
	return "orders"
}

// OrderItem 下单时的价格快照，不随商品改价变化
type OrderItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64           `gorm:"not null;index" json:"order_id"`
	ProductID  int64           `gorm:"not null;index" json:"product_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
}

func (*OrderItem) TableName() string {
	return "order_items"
}

// DeliveryInfo 结账时提交的收货信息
type DeliveryInfo struct {
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	DeliveryCity    string `json:"delivery_city" binding:"required"`
	DeliveryPhone   string `json:"delivery_phone" binding:"required"`
	Notes           string `json:"notes"`
}

// OrderView 列表查询行
type OrderView struct {
	Order
	BuyerName      string `json:"buyer_name,omitempty"`
	FarmerLocation string `json:"farmer_location,omitempty"`
}

// OrderDetailRow 按订单明细展开的一行（LEFT JOIN 结果）
type OrderDetailRow struct {
	Order
	BuyerName      string
	FarmerLocation string
	ItemID         *int64
	ProductID      *int64
	Quantity       *int
	UnitPrice      decimal.NullDecimal
	TotalPrice     decimal.NullDecimal
	ProductName    *string
	Unit           *string
}

// OrderItemView 明细 + 商品名称单位
type OrderItemView struct {
	OrderItem
	ProductName string `json:"product_name"`
	Unit        string `json:"unit"`
}

// OrderDetail 单个订单的嵌套视图
type OrderDetail struct {
	OrderView
	Items []OrderItemView `json:"items"`
}

// CreatedOrder 结账返回 {orderId, farmerId, totalAmount, items}
type CreatedOrder struct {
	OrderID     int64           `json:"orderId"`
	FarmerID    int64           `json:"farmerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []OrderItem     `json:"items"`
}
