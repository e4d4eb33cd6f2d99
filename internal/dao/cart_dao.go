package dao

import (
	"context"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartDao struct {
	db *gorm.DB
}

func NewCartDao(db *gorm.DB) *CartDao {
	return &CartDao{db: db}
}

func (d *CartDao) WithTx(tx *gorm.DB) *CartDao {
	return &CartDao{db: tx}
}

// AddItem 已存在则数量累加，否则插入
func (d *CartDao) AddItem(ctx context.Context, buyerID, productID int64, quantity int) error {
	item := &model.CartItem{BuyerID: buyerID, ProductID: productID, Quantity: quantity}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart.quantity + ?", quantity)}),
	}).Create(item).Error
}

func (d *CartDao) GetItem(ctx context.Context, buyerID, productID int64) (*model.CartItem, error) {
	var item model.CartItem
	err := d.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetQuantity 覆盖数量，返回影响行数
func (d *CartDao) SetQuantity(ctx context.Context, buyerID, productID int64, quantity int) (int64, error) {
	res := d.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (d *CartDao) RemoveItem(ctx context.Context, buyerID, productID int64) error {
	return d.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&model.CartItem{}).Error
}

func (d *CartDao) Clear(ctx context.Context, buyerID int64) error {
	return d.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Delete(&model.CartItem{}).Error
}

// Lines 购物车行 + 实时价格/农户，排除下架商品，最新加入的在前
func (d *CartDao) Lines(ctx context.Context, buyerID int64) ([]model.CartLine, error) {
	var lines []model.CartLine
	err := d.db.WithContext(ctx).Table("cart c").
		Select(`c.id, c.buyer_id, c.product_id, c.quantity, c.added_at,
			p.name AS product_name, p.price, p.unit, p.image_url,
			p.farmer_id, u.full_name AS farmer_name, f.location AS farmer_location`).
		Joins("JOIN products p ON p.id = c.product_id").
		Joins("JOIN farmers f ON f.id = p.farmer_id").
		Joins("JOIN users u ON u.id = f.user_id").
		Where("c.buyer_id = ? AND p.is_active = ?", buyerID, true).
		Order("c.added_at DESC, c.id DESC").
		Scan(&lines).Error
	return lines, err
}
