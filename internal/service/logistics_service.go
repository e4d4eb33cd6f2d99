package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type logisticsEvent struct {
	LogisticsID    int64                `json:"logistics_id"`
	OrderID        int64                `json:"order_id"`
	AgentID        int64                `json:"delivery_agent_id"`
	DeliveryStatus model.DeliveryStatus `json:"delivery_status"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	OrderStatus    model.OrderStatus    `json:"order_status,omitempty"`
}

type LogisticsService struct {
	db           *gorm.DB
	logisticsDao *dao.LogisticsDao
	orderDao     *dao.OrderDao
	farmerDao    *dao.FarmerDao
	userDao      *dao.UserDao
	events       *Events
	mutex        *Mutex
	now          func() time.Time
}

func NewLogisticsService(db *gorm.DB, events *Events, mutex *Mutex) *LogisticsService {
	return &LogisticsService{
		db:           db,
		logisticsDao: dao.NewLogisticsDao(db),
		orderDao:     dao.NewOrderDao(db),
		farmerDao:    dao.NewFarmerDao(db),
		userDao:      dao.NewUserDao(db),
		events:       events,
		mutex:        mutex,
		now:          time.Now,
	}
}

type AssignResult struct {
	LogisticsID    int64  `json:"logisticsId"`
	TrackingNumber string `json:"trackingNumber"`
	Message        string `json:"message"`
}

// AssignOrderToAgent 订单 pending/confirmed 且尚未分配时创建配送记录，订单 -> shipped
func (s *LogisticsService) AssignOrderToAgent(ctx context.Context, orderID, agentID int64, req model.AssignRequest) (*AssignResult, error) {
	agent, err := s.userDao.GetUserByID(ctx, agentID)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_AGENT_NOT_EXISTS)
	}
	if agent.Role != model.RoleLogistics {
		return nil, e.New(e.ERROR_NOT_DELIVERY_AGENT)
	}

	release, err := s.mutex.acquire(ctx, fmt.Sprintf("assign:order:%d", orderID))
	if err != nil {
		return nil, err
	}
	defer release()

	rec := &model.Logistics{
		OrderID:           orderID,
		DeliveryAgentID:   agentID,
		PickupLocation:    strings.TrimSpace(req.PickupLocation),
		DropoffLocation:   strings.TrimSpace(req.DropoffLocation),
		DeliveryStatus:    model.DeliveryStatusPending,
		DeliveryDate:      req.DeliveryDate,
		EstimatedDelivery: req.EstimatedDelivery,
		TrackingNumber:    strings.TrimSpace(req.TrackingNumber),
		Notes:             req.Notes,
	}
	if rec.TrackingNumber == "" {
		rec.TrackingNumber = newTrackingNumber()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orderDao.WithTx(tx)
		order, err := orders.LockOrder(ctx, orderID)
		if err != nil {
			return mapNotFound(err, e.ERROR_ORDER_NOT_EXISTS)
		}
		if !order.Status.ReadyForLogistics() {
			return e.Newf(e.ERROR_ORDER_NOT_READY, "Order not ready for logistics assignment. Status: %s", order.Status)
		}

		logistics := s.logisticsDao.WithTx(tx)
		exists, err := logistics.ExistsForOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if exists {
			return e.New(e.ERROR_LOGISTICS_ASSIGNED)
		}

		if rec.PickupLocation == "" {
			if farmer, err := s.farmerDao.WithTx(tx).GetFarmerByID(ctx, order.FarmerID); err == nil {
				rec.PickupLocation = farmer.Location
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if rec.DropoffLocation == "" {
			rec.DropoffLocation = order.DeliveryAddress
		}

		if err := logistics.DeleteFailedForOrder(ctx, orderID); err != nil {
			return err
		}
		if err := logistics.CreateLogistics(ctx, rec); err != nil {
			// order_id 唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return e.New(e.ERROR_LOGISTICS_ASSIGNED)
			}
			return err
		}
		_, err = advanceOrder(ctx, orders, orderID, model.OrderStatusShipped)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, mq.EventLogisticsAssigned, logisticsEvent{
		LogisticsID:    rec.ID,
		OrderID:        orderID,
		AgentID:        agentID,
		DeliveryStatus: rec.DeliveryStatus,
		TrackingNumber: rec.TrackingNumber,
		OrderStatus:    model.OrderStatusShipped,
	})
	logger.InfoContext(ctx, "order assigned", "order_id", orderID, "agent_id", agentID, "logistics_id", rec.ID)
	return &AssignResult{
		LogisticsID:    rec.ID,
		TrackingNumber: rec.TrackingNumber,
		Message:        fmt.Sprintf("Order %d assigned to delivery agent", orderID),
	}, nil
}

func newTrackingNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRK-" + strings.ToUpper(id[:12])
}

// UpdateDeliveryStatus delivered 时记录送达时间并把订单推进到 delivered；
// failed 时订单退回 confirmed。订单回写与配送状态同一事务
func (s *LogisticsService) UpdateDeliveryStatus(ctx context.Context, actor Actor, id int64, status, notes string) (*Result, error) {
	to := model.DeliveryStatus(strings.TrimSpace(status))
	if !to.Valid() {
		return nil, e.Newf(e.ERROR_INVALID_STATUS, "Invalid delivery status: %s", status)
	}

	var (
		rec        *model.Logistics
		orderAfter model.OrderStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		logistics := s.logisticsDao.WithTx(tx)
		var err error
		rec, err = logistics.GetLogisticsByID(ctx, id)
		if err != nil {
			return mapNotFound(err, e.ERROR_DELIVERY_NOT_EXISTS)
		}
		if actor.Role == model.RoleLogistics && rec.DeliveryAgentID != actor.UserID {
			return e.New(e.ERROR_FORBIDDEN)
		}
		if !rec.DeliveryStatus.CanTransitionTo(to) {
			return e.Newf(e.ERROR_INVALID_STATUS_TRANSITION,
				"Invalid status transition: %s -> %s", rec.DeliveryStatus, to)
		}

		cols := map[string]any{"delivery_status": to}
		if notes != "" {
			cols["notes"] = notes
		}
		if to == model.DeliveryStatusDelivered {
			cols["actual_delivery"] = s.now()
		}
		if err := logistics.UpdateLogistics(ctx, id, cols); err != nil {
			return err
		}

		switch to {
		case model.DeliveryStatusDelivered:
			if _, err := advanceOrder(ctx, s.orderDao.WithTx(tx), rec.OrderID, model.OrderStatusDelivered); err != nil {
				return err
			}
			orderAfter = model.OrderStatusDelivered
		case model.DeliveryStatusFailed:
			// 只有 shipped 的订单退回 confirmed 等待重新分配，已取消的保持不变
			orders := s.orderDao.WithTx(tx)
			order, err := orders.LockOrder(ctx, rec.OrderID)
			if err != nil {
				return mapNotFound(err, e.ERROR_ORDER_NOT_EXISTS)
			}
			orderAfter = order.Status
			if order.Status == model.OrderStatusShipped {
				if _, err := advanceOrder(ctx, orders, rec.OrderID, model.OrderStatusConfirmed); err != nil {
					return err
				}
				orderAfter = model.OrderStatusConfirmed
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, mq.EventLogisticsStatusChanged, logisticsEvent{
		LogisticsID:    id,
		OrderID:        rec.OrderID,
		AgentID:        rec.DeliveryAgentID,
		DeliveryStatus: to,
		OrderStatus:    orderAfter,
	})
	return &Result{Message: "Delivery status updated successfully"}, nil
}

// UpdateLogistics 部分更新地址/单号/备注
func (s *LogisticsService) UpdateLogistics(ctx context.Context, actor Actor, id int64, patch model.LogisticsPatch) (*Result, error) {
	rec, err := s.logisticsDao.GetLogisticsByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_DELIVERY_NOT_EXISTS)
	}
	if actor.Role == model.RoleLogistics && rec.DeliveryAgentID != actor.UserID {
		return nil, e.New(e.ERROR_FORBIDDEN)
	}
	if err := s.logisticsDao.UpdateLogistics(ctx, id, patch.Columns()); err != nil {
		return nil, err
	}
	return &Result{Message: "Delivery updated successfully"}, nil
}

func (s *LogisticsService) DeleteLogistics(ctx context.Context, id int64) (*Result, error) {
	if _, err := s.logisticsDao.GetLogisticsByID(ctx, id); err != nil {
		return nil, mapNotFound(err, e.ERROR_DELIVERY_NOT_EXISTS)
	}
	if err := s.logisticsDao.DeleteLogistics(ctx, id); err != nil {
		return nil, err
	}
	return &Result{Message: "Delivery deleted successfully"}, nil
}

func (s *LogisticsService) GetAllLogistics(ctx context.Context) ([]*model.LogisticsView, error) {
	return s.logisticsDao.ListLogistics(ctx)
}

func (s *LogisticsService) GetLogisticsByID(ctx context.Context, id int64) (*model.LogisticsView, error) {
	l, err := s.logisticsDao.GetLogisticsView(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_DELIVERY_NOT_EXISTS)
	}
	return l, nil
}

// GetDeliveriesByAgent 配送员自己的任务队列
func (s *LogisticsService) GetDeliveriesByAgent(ctx context.Context, agentID int64) ([]*model.LogisticsView, error) {
	return s.logisticsDao.ListByAgent(ctx, agentID)
}
