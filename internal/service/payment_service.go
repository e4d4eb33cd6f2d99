package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type paymentEvent struct {
	PaymentID   int64               `json:"payment_id"`
	OrderID     int64               `json:"order_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Status      model.PaymentStatus `json:"status"`
	OrderStatus model.OrderStatus   `json:"order_status,omitempty"`
	ProcessedBy int64               `json:"processed_by,omitempty"`
}

type PaymentService struct {
	db           *gorm.DB
	paymentDao   *dao.PaymentDao
	orderDao     *dao.OrderDao
	logisticsDao *dao.LogisticsDao
	events       *Events
}

func NewPaymentService(db *gorm.DB, events *Events) *PaymentService {
	return &PaymentService{
		db:           db,
		paymentDao:   dao.NewPaymentDao(db),
		orderDao:     dao.NewOrderDao(db),
		logisticsDao: dao.NewLogisticsDao(db),
		events:       events,
	}
}

type CreatePaymentRequest struct {
	OrderID       int64           `json:"order_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	TransactionID string          `json:"transaction_id"`
}

type PaymentResult struct {
	Message string         `json:"message"`
	Payment *model.Payment `json:"payment,omitempty"`
}

// CreatePayment 订单必须存在；金额不与订单总额比对
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, e.Newf(e.INVALID_PARAMS, "amount must be greater than 0")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "payment_method is required")
	}
	if _, err := s.orderDao.GetOrderByID(ctx, req.OrderID); err != nil {
		return nil, mapNotFound(err, e.ERROR_ORDER_NOT_EXISTS)
	}
	txID := strings.TrimSpace(req.TransactionID)
	if txID == "" {
		txID = "TXN-" + uuid.NewString()
	}

	p := &model.Payment{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		TransactionID: txID,
		PaymentStatus: model.PaymentStatusPending,
	}
	if err := s.paymentDao.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, mq.EventPaymentCreated, paymentEvent{
		PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Status: p.PaymentStatus,
	})
	return &PaymentResult{Message: "Payment created successfully", Payment: p}, nil
}

// ApprovePayment pending -> completed，订单 -> confirmed
func (s *PaymentService) ApprovePayment(ctx context.Context, id, adminID int64, notes string) (*Result, error) {
	orderAfter, err := s.settle(ctx, id, adminID, notes, model.PaymentStatusCompleted)
	if err != nil {
		return nil, err
	}
	if orderAfter != model.OrderStatusConfirmed {
		return &Result{Message: fmt.Sprintf("Payment approved; order remains %s", orderAfter)}, nil
	}
	return &Result{Message: "Payment approved and order confirmed"}, nil
}

// RejectPayment pending -> failed，订单 -> cancelled
func (s *PaymentService) RejectPayment(ctx context.Context, id, adminID int64, notes string) (*Result, error) {
	orderAfter, err := s.settle(ctx, id, adminID, notes, model.PaymentStatusFailed)
	if err != nil {
		return nil, err
	}
	if orderAfter != model.OrderStatusCancelled {
		return &Result{Message: fmt.Sprintf("Payment rejected; order remains %s", orderAfter)}, nil
	}
	return &Result{Message: "Payment rejected and order cancelled"}, nil
}

// settle 支付状态和订单状态在同一事务里提交
func (s *PaymentService) settle(ctx context.Context, id, adminID int64, notes string, to model.PaymentStatus) (model.OrderStatus, error) {
	var (
		payment    *model.Payment
		orderAfter model.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := s.paymentDao.WithTx(tx)
		var err error
		payment, err = payments.LockPayment(ctx, id)
		if err != nil {
			return mapNotFound(err, e.ERROR_PAYMENT_NOT_EXISTS)
		}
		if !payment.PaymentStatus.CanTransitionTo(to) {
			return e.New(e.ERROR_PAYMENT_NOT_PENDING)
		}
		if err := payments.ProcessPayment(ctx, id, payment.PaymentStatus, to, adminID, notes); err != nil {
			if errors.Is(err, dao.ErrPaymentStatusChanged) {
				return e.New(e.ERROR_PAYMENT_NOT_PENDING)
			}
			return err
		}

		orderAfter, err = s.applyToOrder(ctx, tx, payment.OrderID, to)
		return err
	})
	if err != nil {
		return "", err
	}

	eventType := mq.EventPaymentApproved
	if to == model.PaymentStatusFailed {
		eventType = mq.EventPaymentRejected
	}
	s.events.Publish(ctx, eventType, paymentEvent{
		PaymentID:   id,
		OrderID:     payment.OrderID,
		Amount:      payment.Amount,
		Status:      to,
		OrderStatus: orderAfter,
		ProcessedBy: adminID,
	})
	logger.InfoContext(ctx, "payment settled", "payment_id", id, "status", to, "order_id", payment.OrderID, "order_status", orderAfter)
	return orderAfter, nil
}

// applyToOrder 支付结果回写订单。待审核的支付总能结算，订单状态不满足时保持原样
// 批准：pending/cancelled -> confirmed（重新支付成功恢复订单）；confirmed/shipped/delivered 不变
// 拒绝：pending/confirmed/shipped -> cancelled，进行中的配送一并置为 failed；delivered/cancelled 不变
func (s *PaymentService) applyToOrder(ctx context.Context, tx *gorm.DB, orderID int64, paid model.PaymentStatus) (model.OrderStatus, error) {
	orders := s.orderDao.WithTx(tx)
	order, err := orders.LockOrder(ctx, orderID)
	if err != nil {
		return "", mapNotFound(err, e.ERROR_ORDER_NOT_EXISTS)
	}

	switch {
	case paid == model.PaymentStatusCompleted && order.Status == model.OrderStatusPending:
		if _, err := advanceOrder(ctx, orders, orderID, model.OrderStatusConfirmed); err != nil {
			return "", err
		}
		return model.OrderStatusConfirmed, nil

	case paid == model.PaymentStatusCompleted && order.Status == model.OrderStatusCancelled:
		// 只有支付成功能撤销取消，通用状态接口不允许
		if err := orders.UpdateOrderStatus(ctx, orderID, order.Status, model.OrderStatusConfirmed); err != nil {
			if errors.Is(err, dao.ErrOrderStatusChanged) {
				return "", e.New(e.ERROR_ORDER_STATUS_CHANGED)
			}
			return "", err
		}
		return model.OrderStatusConfirmed, nil

	case paid == model.PaymentStatusFailed && order.Status.CanTransitionTo(model.OrderStatusCancelled):
		if _, err := advanceOrder(ctx, orders, orderID, model.OrderStatusCancelled); err != nil {
			return "", err
		}
		if n, err := s.logisticsDao.WithTx(tx).FailActiveForOrder(ctx, orderID, "payment rejected"); err != nil {
			return "", err
		} else if n > 0 {
			logger.InfoContext(ctx, "active delivery stopped", "order_id", orderID)
		}
		return model.OrderStatusCancelled, nil
	}
	return order.Status, nil
}

func (s *PaymentService) GetAllPayments(ctx context.Context) ([]*model.PaymentView, error) {
	return s.paymentDao.ListPayments(ctx)
}

func (s *PaymentService) GetPaymentByID(ctx context.Context, id int64) (*model.PaymentView, error) {
	p, err := s.paymentDao.GetPaymentView(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_PAYMENT_NOT_EXISTS)
	}
	return p, nil
}

func (s *PaymentService) GetPaymentsByOrder(ctx context.Context, orderID int64) ([]*model.Payment, error) {
	return s.paymentDao.ListByOrder(ctx, orderID)
}

// GetPendingPayments 管理员审核队列
func (s *PaymentService) GetPendingPayments(ctx context.Context) ([]*model.PaymentView, error) {
	return s.paymentDao.ListPending(ctx)
}
