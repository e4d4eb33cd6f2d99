// Package service 业务层：校验、事务编排、事件发布
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderCreatedEvent struct {
	OrderID     int64           `json:"order_id"`
	BuyerID     int64           `json:"buyer_id"`
	FarmerID    int64           `json:"farmer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

type orderStatusEvent struct {
	OrderID int64             `json:"order_id"`
	From    model.OrderStatus `json:"from"`
	To      model.OrderStatus `json:"to"`
}

type OrderService struct {
	db        *gorm.DB
	orderDao  *dao.OrderDao
	cartDao   *dao.CartDao
	buyerDao  *dao.BuyerDao
	farmerDao *dao.FarmerDao
	events    *Events
	mutex     *Mutex
}

func NewOrderService(db *gorm.DB, events *Events, mutex *Mutex) *OrderService {
	return &OrderService{
		db:        db,
		orderDao:  dao.NewOrderDao(db),
		cartDao:   dao.NewCartDao(db),
		buyerDao:  dao.NewBuyerDao(db),
		farmerDao: dao.NewFarmerDao(db),
		events:    events,
		mutex:     mutex,
	}
}

// CreateOrderFromCart 结账：按农户拆单、写明细、清空购物车，整体在一个事务里
func (s *OrderService) CreateOrderFromCart(ctx context.Context, buyerID int64, info model.DeliveryInfo) ([]model.CreatedOrder, error) {
	if strings.TrimSpace(info.DeliveryAddress) == "" || strings.TrimSpace(info.DeliveryCity) == "" ||
		strings.TrimSpace(info.DeliveryPhone) == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "delivery_address, delivery_city and delivery_phone are required")
	}

	release, err := s.mutex.acquire(ctx, fmt.Sprintf("checkout:buyer:%d", buyerID))
	if err != nil {
		return nil, err
	}
	defer release()

	var created []model.CreatedOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁串行化同一买家的并发结账
		if _, err := s.buyerDao.WithTx(tx).LockBuyer(ctx, buyerID); err != nil {
			return mapNotFound(err, e.ERROR_BUYER_PROFILE_MISSING)
		}

		cart := s.cartDao.WithTx(tx)
		lines, err := cart.Lines(ctx, buyerID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return e.New(e.ERROR_CART_EMPTY)
		}

		orders := s.orderDao.WithTx(tx)
		for _, group := range groupByFarmer(lines) {
			order := &model.Order{
				BuyerID:         buyerID,
				FarmerID:        group.farmerID,
				TotalAmount:     sumLines(group.lines),
				DeliveryAddress: info.DeliveryAddress,
				DeliveryCity:    info.DeliveryCity,
				DeliveryPhone:   info.DeliveryPhone,
				Notes:           info.Notes,
				Status:          model.OrderStatusPending,
			}
			if err := orders.CreateOrder(ctx, order); err != nil {
				return fmt.Errorf("create order for farmer %d: %w", group.farmerID, err)
			}

			items := make([]model.OrderItem, 0, len(group.lines))
			for _, l := range group.lines {
				items = append(items, model.OrderItem{
					OrderID:    order.ID,
					ProductID:  l.ProductID,
					Quantity:   l.Quantity,
					UnitPrice:  l.Price,
					TotalPrice: l.Subtotal(),
				})
			}
			if err := orders.CreateItems(ctx, items); err != nil {
				return fmt.Errorf("create items for order %d: %w", order.ID, err)
			}

			created = append(created, model.CreatedOrder{
				OrderID:     order.ID,
				FarmerID:    group.farmerID,
				TotalAmount: order.TotalAmount,
				Items:       items,
			})
		}

		return cart.Clear(ctx, buyerID)
	})
	if err != nil {
		return nil, err
	}

	for _, o := range created {
		s.events.Publish(ctx, mq.EventOrderCreated, orderCreatedEvent{
			OrderID:     o.OrderID,
			BuyerID:     buyerID,
			FarmerID:    o.FarmerID,
			TotalAmount: o.TotalAmount,
			ItemCount:   len(o.Items),
		})
	}
	logger.InfoContext(ctx, "checkout completed", "buyer_id", buyerID, "orders", len(created))
	return created, nil
}

type farmerGroup struct {
	farmerID int64
	lines    []model.CartLine
}

// groupByFarmer 按 farmer_id 分组，组按 farmer_id 升序，组内保持原顺序
func groupByFarmer(lines []model.CartLine) []farmerGroup {
	idx := map[int64]int{}
	var groups []farmerGroup
	for _, l := range lines {
		i, ok := idx[l.FarmerID]
		if !ok {
			i = len(groups)
			idx[l.FarmerID] = i
			groups = append(groups, farmerGroup{farmerID: l.FarmerID})
		}
		groups[i].lines = append(groups[i].lines, l)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].farmerID < groups[b].farmerID })
	return groups
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]*model.OrderView, error) {
	return s.orderDao.ListAllOrders(ctx)
}

// GetOrderByID 把逐明细展开的行组装成嵌套结构
func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*model.OrderDetail, error) {
	rows, err := s.orderDao.OrderDetailRows(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, e.New(e.ERROR_ORDER_NOT_EXISTS)
	}
	return buildOrderDetail(rows), nil
}

func buildOrderDetail(rows []model.OrderDetailRow) *model.OrderDetail {
	first := rows[0]
	detail := &model.OrderDetail{
		OrderView: model.OrderView{
			Order:          first.Order,
			BuyerName:      first.BuyerName,
			FarmerLocation: first.FarmerLocation,
		},
		Items: []model.OrderItemView{},
	}
	for _, r := range rows {
		// LEFT JOIN 没有明细时 item 列为 NULL
		if r.ItemID == nil {
			continue
		}
		item := model.OrderItemView{
			OrderItem: model.OrderItem{
				ID:         *r.ItemID,
				OrderID:    first.ID,
				UnitPrice:  r.UnitPrice.Decimal,
				TotalPrice: r.TotalPrice.Decimal,
			},
		}
		if r.ProductID != nil {
			item.ProductID = *r.ProductID
		}
		if r.Quantity != nil {
			item.Quantity = *r.Quantity
		}
		if r.ProductName != nil {
			item.ProductName = *r.ProductName
		}
		if r.Unit != nil {
			item.Unit = *r.Unit
		}
		detail.Items = append(detail.Items, item)
	}
	return detail
}

// GetOrderForActor 买家/农户只能看自己的订单
func (s *OrderService) GetOrderForActor(ctx context.Context, actor Actor, id int64) (*model.OrderDetail, error) {
	detail, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case model.RoleBuyer:
		b, err := s.buyerDao.GetBuyerByUserID(ctx, actor.UserID)
		if err != nil || b.ID != detail.BuyerID {
			return nil, forbiddenUnlessDBError(err)
		}
	case model.RoleFarmer:
		f, err := s.farmerDao.GetFarmerByUserID(ctx, actor.UserID)
		if err != nil || f.ID != detail.FarmerID {
			return nil, forbiddenUnlessDBError(err)
		}
	}
	return detail, nil
}

func forbiddenUnlessDBError(err error) error {
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return e.New(e.ERROR_FORBIDDEN)
}

func (s *OrderService) GetOrdersByBuyer(ctx context.Context, buyerID int64) ([]*model.OrderView, error) {
	return s.orderDao.ListBuyerOrders(ctx, buyerID)
}

func (s *OrderService) GetOrdersByFarmer(ctx context.Context, farmerID int64) ([]*model.OrderView, error) {
	return s.orderDao.ListFarmerOrders(ctx, farmerID)
}

// GetMyOrders 买家看下的单，农户看收到的单
func (s *OrderService) GetMyOrders(ctx context.Context, actor Actor) ([]*model.OrderView, error) {
	switch actor.Role {
	case model.RoleBuyer:
		b, err := s.buyerDao.GetBuyerByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, mapNotFound(err, e.ERROR_BUYER_PROFILE_MISSING)
		}
		return s.GetOrdersByBuyer(ctx, b.ID)
	case model.RoleFarmer:
		f, err := s.farmerDao.GetFarmerByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, mapNotFound(err, e.ERROR_FARMER_NOT_EXISTS)
		}
		return s.GetOrdersByFarmer(ctx, f.ID)
	default:
		return nil, e.New(e.ERROR_FORBIDDEN)
	}
}

// GetOrdersForLogistics 待分配配送的工作队列
func (s *OrderService) GetOrdersForLogistics(ctx context.Context) ([]*model.OrderView, error) {
	return s.orderDao.ListReadyForLogistics(ctx)
}

// UpdateOrderStatus 通用状态入口，同样走迁移表校验
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Result, error) {
	to := model.OrderStatus(strings.TrimSpace(status))
	if !to.Valid() {
		return nil, e.Newf(e.ERROR_INVALID_STATUS, "Invalid order status: %s", status)
	}

	var from model.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		from, err = advanceOrder(ctx, s.orderDao.WithTx(tx), id, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, mq.EventOrderStatusChanged, orderStatusEvent{OrderID: id, From: from, To: to})
	return &Result{Message: "Order status updated successfully"}, nil
}

// advanceOrder 事务内加锁读取订单并按迁移表推进状态，返回原状态
func advanceOrder(ctx context.Context, orders *dao.OrderDao, orderID int64, to model.OrderStatus) (model.OrderStatus, error) {
	order, err := orders.LockOrder(ctx, orderID)
	if err != nil {
		return "", mapNotFound(err, e.ERROR_ORDER_NOT_EXISTS)
	}
	if !order.Status.CanTransitionTo(to) {
		return order.Status, e.Newf(e.ERROR_INVALID_STATUS_TRANSITION,
			"Invalid status transition: %s -> %s", order.Status, to)
	}
	if err := orders.UpdateOrderStatus(ctx, orderID, order.Status, to); err != nil {
		if errors.Is(err, dao.ErrOrderStatusChanged) {
			return order.Status, e.New(e.ERROR_ORDER_STATUS_CHANGED)
		}
		return order.Status, err
	}
	return order.Status, nil
}
