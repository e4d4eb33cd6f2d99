package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 每次支付尝试一行
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64           `gorm:"not null;index" json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:50;not null" json:"payment_method"`
	TransactionID string          `gorm:"size:100" json:"transaction_id"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null;index" json:"payment_status"`
	ProcessedBy   *int64          `json:"processed_by"`
	ProcessedAt   *time.Time      `json:"processed_at"`
	Notes         string          `gorm:"type:text" json:"notes"`
	PaymentDate   time.Time       `gorm:"autoCreateTime" json:"payment_date"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*Payment) TableName() string {
	return "payments"
}

// PaymentView 支付 + 订单金额 + 买家姓名
type PaymentView struct {
	Payment
	OrderAmount decimal.Decimal `json:"order_amount"`
	BuyerName   string          `json:"buyer_name"`
}
