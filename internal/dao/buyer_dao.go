package dao

import (
	"context"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BuyerDao struct {
	db *gorm.DB
}

func NewBuyerDao(db *gorm.DB) *BuyerDao {
	return &BuyerDao{db: db}
}

func (d *BuyerDao) WithTx(tx *gorm.DB) *BuyerDao {
	return &BuyerDao{db: tx}
}

func (d *BuyerDao) CreateBuyer(ctx context.Context, b *model.Buyer) error {
	return d.db.WithContext(ctx).Create(b).Error
}

func (d *BuyerDao) GetBuyerByID(ctx context.Context, id int64) (*model.Buyer, error) {
	var b model.Buyer
	if err := d.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *BuyerDao) GetBuyerByUserID(ctx context.Context, userID int64) (*model.Buyer, error) {
	var b model.Buyer
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// LockBuyer SELECT ... FOR UPDATE，串行化同一买家的结账
func (d *BuyerDao) LockBuyer(ctx context.Context, id int64) (*model.Buyer, error) {
	var b model.Buyer
	err := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *BuyerDao) buyerViews(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Table("buyers b").
		Select("b.*, u.full_name, u.email, u.phone").
		Joins("JOIN users u ON u.id = b.user_id")
}

func (d *BuyerDao) ListBuyers(ctx context.Context) ([]*model.BuyerView, error) {
	var list []*model.BuyerView
	err := d.buyerViews(ctx).Order("b.id ASC").Scan(&list).Error
	return list, err
}

func (d *BuyerDao) GetBuyerView(ctx context.Context, id int64) (*model.BuyerView, error) {
	var list []*model.BuyerView
	if err := d.buyerViews(ctx).Where("b.id = ?", id).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return list[0], nil
}

func (d *BuyerDao) UpdateBuyer(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Model(&model.Buyer{}).Where("id = ?", id).Updates(updates).Error
}

func (d *BuyerDao) DeleteBuyer(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Delete(&model.Buyer{}, id).Error
}

func (d *BuyerDao) DeleteByUserID(ctx context.Context, userID int64) error {
	return d.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Buyer{}).Error
}
