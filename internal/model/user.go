package model

import (
	"time"
)

type Role string

const (
	RoleFarmer    Role = "farmer"
	RoleBuyer     Role = "buyer"
	RoleLogistics Role = "logistics"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleBuyer, RoleLogistics, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName   string    `gorm:"size:100;not null" json:"full_name"`
	Email      string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Location   string    `gorm:"size:100" json:"location"`
	Role       Role      `gorm:"size:20;not null;index" json:"role"`
	IsVerified bool      `gorm:"not null" json:"is_verified"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (*User) TableName() string {
	return "users"
}

// Farmer 农户档案，商品和订单的 farmer_id 指向这里
type Farmer struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	Location  string    `gorm:"size:100" json:"location"`
	Product   string    `gorm:"size:100" json:"product"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (*Farmer) TableName() string {
	return "farmers"
}

// Buyer 买家档案，购物车和订单的 buyer_id 指向这里
type Buyer struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	Location  string    `gorm:"size:100" json:"location"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (*Buyer) TableName() string {
	return "buyers"
}

// FarmerView 农户档案 + 用户信息
type FarmerView struct {
	Farmer
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type BuyerView struct {
	Buyer
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}
