package dao

import (
	"context"
	"errors"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderDao struct {
	db *gorm.DB
}

func NewOrderDao(db *gorm.DB) *OrderDao {
	return &OrderDao{
		db: db,
	}
}

func (d *OrderDao) WithTx(tx *gorm.DB) *OrderDao {
	return &OrderDao{db: tx}
}

var ErrOrderStatusChanged = errors.New("order status changed")

// CreateOrder 创建订单
func (d *OrderDao) CreateOrder(ctx context.Context, order *model.Order) error {
	return d.db.WithContext(ctx).Create(order).Error
}

// CreateItems 批量写入订单明细
func (d *OrderDao) CreateItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).CreateInBatches(items, len(items)).Error
}

// GetOrderByID 根据ID获取订单
func (d *OrderDao) GetOrderByID(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := d.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder SELECT ... FOR UPDATE，事务内使用
func (d *OrderDao) LockOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *OrderDao) ListItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := d.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	return items, err
}

// ListAllOrders 管理员视图：买家姓名 + 农户地区，最新在前
func (d *OrderDao) ListAllOrders(ctx context.Context) ([]*model.OrderView, error) {
	var list []*model.OrderView
	err := d.db.WithContext(ctx).Table("orders o").
		Select("o.*, u.full_name AS buyer_name, f.location AS farmer_location").
		Joins("JOIN buyers b ON b.id = o.buyer_id").
		Joins("JOIN users u ON u.id = b.user_id").
		Joins("JOIN farmers f ON f.id = o.farmer_id").
		Order("o.order_date DESC, o.id DESC").
		Scan(&list).Error
	return list, err
}

// ListBuyerOrders 买家订单，带农户地区
func (d *OrderDao) ListBuyerOrders(ctx context.Context, buyerID int64) ([]*model.OrderView, error) {
	var list []*model.OrderView
	err := d.db.WithContext(ctx).Table("orders o").
		Select("o.*, f.location AS farmer_location").
		Joins("JOIN farmers f ON f.id = o.farmer_id").
		Where("o.buyer_id = ?", buyerID).
		Order("o.order_date DESC, o.id DESC").
		Scan(&list).Error
	return list, err
}

// ListFarmerOrders 农户订单，带买家姓名
func (d *OrderDao) ListFarmerOrders(ctx context.Context, farmerID int64) ([]*model.OrderView, error) {
	var list []*model.OrderView
	err := d.db.WithContext(ctx).Table("orders o").
		Select("o.*, u.full_name AS buyer_name").
		Joins("JOIN buyers b ON b.id = o.buyer_id").
		Joins("JOIN users u ON u.id = b.user_id").
		Where("o.farmer_id = ?", farmerID).
		Order("o.order_date DESC, o.id DESC").
		Scan(&list).Error
	return list, err
}

// ListReadyForLogistics 已确认且没有进行中配送的订单，最早的在前
func (d *OrderDao) ListReadyForLogistics(ctx context.Context) ([]*model.OrderView, error) {
	var list []*model.OrderView
	err := d.db.WithContext(ctx).Table("orders o").
		Select("o.*, u.full_name AS buyer_name, f.location AS farmer_location").
		Joins("JOIN buyers b ON b.id = o.buyer_id").
		Joins("JOIN users u ON u.id = b.user_id").
		Joins("JOIN farmers f ON f.id = o.farmer_id").
		Where("o.status = ?", model.OrderStatusConfirmed).
		Where("NOT EXISTS (SELECT 1 FROM logistics l WHERE l.order_id = o.id AND l.delivery_status <> ?)",
			model.DeliveryStatusFailed).
		Order("o.order_date ASC, o.id ASC").
		Scan(&list).Error
	return list, err
}

// OrderDetailRows 每个明细一行；商品即使已下架也返回
func (d *OrderDao) OrderDetailRows(ctx context.Context, orderID int64) ([]model.OrderDetailRow, error) {
	var rows []model.OrderDetailRow
	err := d.db.WithContext(ctx).Table("orders o").
		Select(`o.*, u.full_name AS buyer_name, f.location AS farmer_location,
			oi.id AS item_id, oi.product_id, oi.quantity, oi.unit_price, oi.total_price,
			p.name AS product_name, p.unit`).
		Joins("JOIN buyers b ON b.id = o.buyer_id").
		Joins("JOIN users u ON u.id = b.user_id").
		Joins("JOIN farmers f ON f.id = o.farmer_id").
		Joins("LEFT JOIN order_items oi ON oi.order_id = o.id").
		Joins("LEFT JOIN products p ON p.id = oi.product_id").
		Where("o.id = ?", orderID).
		Order("oi.id ASC").
		Scan(&rows).Error
	return rows, err
}

// UpdateOrderStatus 比较并交换，状态已被改动时返回 ErrOrderStatusChanged
func (d *OrderDao) UpdateOrderStatus(ctx context.Context, orderID int64, fromStatus, toStatus model.OrderStatus) error {
	result := d.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, fromStatus).
		Update("status", toStatus)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStatusChanged
	}
	return nil
}
