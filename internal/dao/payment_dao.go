package dao

import (
	"context"
	"errors"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentDao struct {
	db *gorm.DB
}

func NewPaymentDao(db *gorm.DB) *PaymentDao {
	return &PaymentDao{db: db}
}

func (d *PaymentDao) WithTx(tx *gorm.DB) *PaymentDao {
	return &PaymentDao{db: tx}
}

var ErrPaymentStatusChanged = errors.New("payment status changed")

func (d *PaymentDao) CreatePayment(ctx context.Context, p *model.Payment) error {
	return d.db.WithContext(ctx).Create(p).Error
}

func (d *PaymentDao) GetPaymentByID(ctx context.Context, id int64) (*model.Payment, error) {
	var p model.Payment
	if err := d.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LockPayment 事务内加行锁读取
func (d *PaymentDao) LockPayment(ctx context.Context, id int64) (*model.Payment, error) {
	var p model.Payment
	err := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *PaymentDao) paymentViews(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Table("payments pm").
		Select("pm.*, o.total_amount AS order_amount, u.full_name AS buyer_name").
		Joins("JOIN orders o ON o.id = pm.order_id").
		Joins("JOIN buyers b ON b.id = o.buyer_id").
		Joins("JOIN users u ON u.id = b.user_id")
}

func (d *PaymentDao) ListPayments(ctx context.Context) ([]*model.PaymentView, error) {
	var list []*model.PaymentView
	err := d.paymentViews(ctx).Order("pm.payment_date DESC, pm.id DESC").Scan(&list).Error
	return list, err
}

func (d *PaymentDao) GetPaymentView(ctx context.Context, id int64) (*model.PaymentView, error) {
	var list []*model.PaymentView
	if err := d.paymentViews(ctx).Where("pm.id = ?", id).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return list[0], nil
}

func (d *PaymentDao) ListByOrder(ctx context.Context, orderID int64) ([]*model.Payment, error) {
	var list []*model.Payment
	err := d.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("payment_date DESC, id DESC").Find(&list).Error
	return list, err
}

// ListPending 待审核队列，最早的在前
func (d *PaymentDao) ListPending(ctx context.Context) ([]*model.PaymentView, error) {
	var list []*model.PaymentView
	err := d.paymentViews(ctx).
		Where("pm.payment_status = ?", model.PaymentStatusPending).
		Order("pm.payment_date ASC, pm.id ASC").
		Scan(&list).Error
	return list, err
}

// ProcessPayment pending -> completed/failed，只会成功一次
func (d *PaymentDao) ProcessPayment(ctx context.Context, id int64, from, to model.PaymentStatus, processedBy int64, notes string) error {
	now := time.Now()
	updates := map[string]any{
		"payment_status": to,
		"processed_by":   processedBy,
		"processed_at":   now,
	}
	if notes != "" {
		updates["notes"] = notes
	}
	result := d.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentStatusChanged
	}
	return nil
}
