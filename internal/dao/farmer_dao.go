package dao

import (
	"context"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
)

type FarmerDao struct {
	db *gorm.DB
}

func NewFarmerDao(db *gorm.DB) *FarmerDao {
	return &FarmerDao{db: db}
}

func (d *FarmerDao) WithTx(tx *gorm.DB) *FarmerDao {
	return &FarmerDao{db: tx}
}

func (d *FarmerDao) CreateFarmer(ctx context.Context, f *model.Farmer) error {
	return d.db.WithContext(ctx).Create(f).Error
}

func (d *FarmerDao) GetFarmerByID(ctx context.Context, id int64) (*model.Farmer, error) {
	var f model.Farmer
	if err := d.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *FarmerDao) GetFarmerByUserID(ctx context.Context, userID int64) (*model.Farmer, error) {
	var f model.Farmer
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *FarmerDao) farmerViews(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Table("farmers f").
		Select("f.*, u.full_name, u.email, u.phone").
		Joins("JOIN users u ON u.id = f.user_id")
}

func (d *FarmerDao) ListFarmers(ctx context.Context) ([]*model.FarmerView, error) {
	var list []*model.FarmerView
	err := d.farmerViews(ctx).Order("f.id ASC").Scan(&list).Error
	return list, err
}

func (d *FarmerDao) GetFarmerView(ctx context.Context, id int64) (*model.FarmerView, error) {
	var list []*model.FarmerView
	if err := d.farmerViews(ctx).Where("f.id = ?", id).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return list[0], nil
}

func (d *FarmerDao) UpdateFarmer(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Model(&model.Farmer{}).Where("id = ?", id).Updates(updates).Error
}

func (d *FarmerDao) DeleteFarmer(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Delete(&model.Farmer{}, id).Error
}

// DeleteByUserID 删除用户时连带删除档案
func (d *FarmerDao) DeleteByUserID(ctx context.Context, userID int64) error {
	return d.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Farmer{}).Error
}
