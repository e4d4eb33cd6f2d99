package dao

import (
	"context"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
)

type LogisticsDao struct {
	db *gorm.DB
}

func NewLogisticsDao(db *gorm.DB) *LogisticsDao {
	return &LogisticsDao{db: db}
}

func (d *LogisticsDao) WithTx(tx *gorm.DB) *LogisticsDao {
	return &LogisticsDao{db: tx}
}

func (d *LogisticsDao) CreateLogistics(ctx context.Context, l *model.Logistics) error {
	return d.db.WithContext(ctx).Create(l).Error
}

func (d *LogisticsDao) GetLogisticsByID(ctx context.Context, id int64) (*model.Logistics, error) {
	var l model.Logistics
	if err := d.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ExistsForOrder 订单是否已有未失败的配送记录
func (d *LogisticsDao) ExistsForOrder(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&model.Logistics{}).
		Where("order_id = ? AND delivery_status <> ?", orderID, model.DeliveryStatusFailed).
		Count(&count).Error
	return count > 0, err
}

// DeleteFailedForOrder 重新分配前清掉失败的旧记录，order_id 唯一
func (d *LogisticsDao) DeleteFailedForOrder(ctx context.Context, orderID int64) error {
	return d.db.WithContext(ctx).
		Where("order_id = ? AND delivery_status = ?", orderID, model.DeliveryStatusFailed).
		Delete(&model.Logistics{}).Error
}

// FailActiveForOrder 订单被取消时终止进行中的配送，返回影响行数
func (d *LogisticsDao) FailActiveForOrder(ctx context.Context, orderID int64, notes string) (int64, error) {
	cols := map[string]any{"delivery_status": model.DeliveryStatusFailed}
	if notes != "" {
		cols["notes"] = notes
	}
	res := d.db.WithContext(ctx).Model(&model.Logistics{}).
		Where("order_id = ? AND delivery_status NOT IN ?", orderID,
			[]model.DeliveryStatus{model.DeliveryStatusDelivered, model.DeliveryStatusFailed}).
		Updates(cols)
	return res.RowsAffected, res.Error
}

func (d *LogisticsDao) logisticsViews(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Table("logistics l").
		Select("l.*, u.full_name AS agent_name, o.delivery_address, o.status AS order_status").
		Joins("JOIN users u ON u.id = l.delivery_agent_id").
		Joins("JOIN orders o ON o.id = l.order_id")
}

func (d *LogisticsDao) ListLogistics(ctx context.Context) ([]*model.LogisticsView, error) {
	var list []*model.LogisticsView
	err := d.logisticsViews(ctx).Order("l.created_at DESC, l.id DESC").Scan(&list).Error
	return list, err
}

func (d *LogisticsDao) GetLogisticsView(ctx context.Context, id int64) (*model.LogisticsView, error) {
	var list []*model.LogisticsView
	if err := d.logisticsViews(ctx).Where("l.id = ?", id).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return list[0], nil
}

// ListByAgent 配送员自己的任务，最新在前
func (d *LogisticsDao) ListByAgent(ctx context.Context, agentID int64) ([]*model.LogisticsView, error) {
	var list []*model.LogisticsView
	err := d.logisticsViews(ctx).Where("l.delivery_agent_id = ?", agentID).
		Order("l.created_at DESC, l.id DESC").Scan(&list).Error
	return list, err
}

func (d *LogisticsDao) UpdateLogistics(ctx context.Context, id int64, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Model(&model.Logistics{}).Where("id = ?", id).Updates(cols).Error
}

func (d *LogisticsDao) DeleteLogistics(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Delete(&model.Logistics{}, id).Error
}
