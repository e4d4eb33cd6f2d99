package model

import (
	"time"
)

// Logistics 每个订单最多一条，order_id 唯一索引兜底
type Logistics struct {
	ID                int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64          `gorm:"not null;uniqueIndex" json:"order_id"`
	DeliveryAgentID   int64          `gorm:"not null;index" json:"delivery_agent_id"`
	PickupLocation    string         `gorm:"size:255" json:"pickup_location"`
	DropoffLocation   string         `gorm:"size:255" json:"dropoff_location"`
	DeliveryStatus    DeliveryStatus `gorm:"size:20;not null;index" json:"delivery_status"`
	DeliveryDate      *time.Time     `json:"delivery_date"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery"`
	ActualDelivery    *time.Time     `json:"actual_delivery"`
	TrackingNumber    string         `gorm:"size:64" json:"tracking_number"`
	Notes             string         `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*Logistics) TableName() string {
	return "logistics"
}

// LogisticsView 配送 + 配送员姓名 + 收货地址
type LogisticsView struct {
	Logistics
	AgentName       string `json:"agent_name"`
	DeliveryAddress string `json:"delivery_address"`
	OrderStatus     string `json:"order_status"`
}

// AssignRequest 分配配送的可选字段
type AssignRequest struct {
	PickupLocation    string     `json:"pickup_location"`
	DropoffLocation   string     `json:"dropoff_location"`
	DeliveryDate      *time.Time `json:"delivery_date"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	TrackingNumber    string     `json:"tracking_number"`
	Notes             string     `json:"notes"`
}

// LogisticsPatch 部分更新
type LogisticsPatch struct {
	PickupLocation    *string    `json:"pickup_location"`
	DropoffLocation   *string    `json:"dropoff_location"`
	DeliveryDate      *time.Time `json:"delivery_date"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	TrackingNumber    *string    `json:"tracking_number"`
	Notes             *string    `json:"notes"`
}

func (p LogisticsPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.PickupLocation != nil {
		cols["pickup_location"] = *p.PickupLocation
	}
	if p.DropoffLocation != nil {
		cols["dropoff_location"] = *p.DropoffLocation
	}
	if p.DeliveryDate != nil {
		cols["delivery_date"] = *p.DeliveryDate
	}
	if p.EstimatedDelivery != nil {
		cols["estimated_delivery"] = *p.EstimatedDelivery
	}
	if p.TrackingNumber != nil {
		cols["tracking_number"] = *p.TrackingNumber
	}
	if p.Notes != nil {
		cols["notes"] = *p.Notes
	}
	return cols
}
