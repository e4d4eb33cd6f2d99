package dao

import (
	"context"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
)

type ProductDao struct {
	db *gorm.DB
}

func NewProductDao(db *gorm.DB) *ProductDao {
	return &ProductDao{db: db}
}

func (d *ProductDao) WithTx(tx *gorm.DB) *ProductDao {
	return &ProductDao{db: tx}
}

// CreateProduct 新商品默认上架
func (d *ProductDao) CreateProduct(ctx context.Context, p *model.Product) error {
	p.IsActive = true
	return d.db.WithContext(ctx).Create(p).Error
}

// activeViews 只返回上架商品，带农户姓名和地区
func (d *ProductDao) activeViews(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Table("products p").
		Select("p.*, u.full_name AS farmer_name, f.location AS farmer_location").
		Joins("JOIN farmers f ON f.id = p.farmer_id").
		Joins("JOIN users u ON u.id = f.user_id").
		Where("p.is_active = ?", true)
}

func (d *ProductDao) ListActive(ctx context.Context) ([]*model.ProductView, error) {
	var list []*model.ProductView
	err := d.activeViews(ctx).Order("p.created_at DESC, p.id DESC").Scan(&list).Error
	return list, err
}

// GetActiveByID 下架或不存在都返回 gorm.ErrRecordNotFound
func (d *ProductDao) GetActiveByID(ctx context.Context, id int64) (*model.ProductView, error) {
	var list []*model.ProductView
	if err := d.activeViews(ctx).Where("p.id = ?", id).Limit(1).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return list[0], nil
}

// GetActiveProduct 不做 join，供校验使用
func (d *ProductDao) GetActiveProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := d.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *ProductDao) ListByFarmer(ctx context.Context, farmerID int64) ([]*model.ProductView, error) {
	var list []*model.ProductView
	err := d.activeViews(ctx).Where("p.farmer_id = ?", farmerID).
		Order("p.created_at DESC, p.id DESC").Scan(&list).Error
	return list, err
}

// Search 名称/描述/分类模糊匹配，category 非空时再精确过滤
func (d *ProductDao) Search(ctx context.Context, term, category string) ([]*model.ProductView, error) {
	q := d.activeViews(ctx)
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ? OR LOWER(p.category) LIKE ?)", like, like, like)
	}
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("p.category = ?", category)
	}
	var list []*model.ProductView
	err := q.Order("p.created_at DESC, p.id DESC").Scan(&list).Error
	return list, err
}

// UpdateProduct 只改传入的列，返回影响行数（0 表示不存在或已下架）
func (d *ProductDao) UpdateProduct(ctx context.Context, id int64, cols map[string]any) (int64, error) {
	res := d.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(cols)
	return res.RowsAffected, res.Error
}

// SoftDelete 置 is_active=false，行保留给历史订单
func (d *ProductDao) SoftDelete(ctx context.Context, id int64) (int64, error) {
	res := d.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
