package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
)

func TestCheckoutSplitsOrdersByFarmer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerA := f.farmer(t, "Jane", "Kiambu")
	_, farmerB := f.farmer(t, "Peter", "Nakuru")
	_, buyerID := f.buyer(t, "Bob")
	tomatoes := f.product(t, farmerA, "Tomatoes", "50")
	kale := f.product(t, farmerA, "Kale", "12.50")
	milk := f.product(t, farmerB, "Milk", "60")

	for _, add := range []struct {
		id  int64
		qty int
	}{{tomatoes, 2}, {kale, 4}, {milk, 1}} {
		_, err := f.cart.AddToCart(ctx, buyerID, add.id, add.qty)
		require.NoError(t, err)
	}

	created, err := f.orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	require.NoError(t, err)
	require.Len(t, created, 2)

	// 按 farmer_id 升序
	assert.Equal(t, farmerA, created[0].FarmerID)
	decEq(t, "150", created[0].TotalAmount)
	assert.Len(t, created[0].Items, 2)
	assert.Equal(t, farmerB, created[1].FarmerID)
	decEq(t, "60", created[1].TotalAmount)
	assert.Len(t, created[1].Items, 1)

	for _, c := range created {
		o, err := f.orders.GetOrderByID(ctx, c.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPending, o.Status)
		assert.Equal(t, buyerID, o.BuyerID)
		assert.Equal(t, "Bob", o.BuyerName)
		assert.Equal(t, testDelivery.DeliveryAddress, o.DeliveryAddress)
		assert.Len(t, o.Items, len(c.Items))
	}

	lines, err := f.cart.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, 2, f.pub.count(mq.EventOrderCreated))
}

func TestCheckoutSingleFarmerTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	_, buyerID := f.buyer(t, "Bob")
	tomatoes := f.product(t, farmerID, "Tomatoes", "50")
	carrots := f.product(t, farmerID, "Carrots", "30")

	_, err := f.cart.AddToCart(ctx, buyerID, tomatoes, 2)
	require.NoError(t, err)
	_, err = f.cart.AddToCart(ctx, buyerID, carrots, 3)
	require.NoError(t, err)

	created, err := f.orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	require.NoError(t, err)
	require.Len(t, created, 1)
	decEq(t, "190", created[0].TotalAmount)

	detail, err := f.orders.GetOrderByID(ctx, created[0].OrderID)
	require.NoError(t, err)
	decEq(t, "190", detail.TotalAmount)
	require.Len(t, detail.Items, 2)
	sum := detail.Items[0].TotalPrice.Add(detail.Items[1].TotalPrice)
	decEq(t, "190", sum)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyerID := f.buyer(t, "Bob")

	_, err := f.orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	require.Error(t, err)
	assert.True(t, e.Is(err, e.ERROR_CART_EMPTY))
	assert.Equal(t, "Cart is empty", err.Error())

	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCheckoutRequiresDeliveryInfo(t *testing.T) {
	f := newFixture(t)
	_, buyerID := f.buyer(t, "Bob")

	_, err := f.orders.CreateOrderFromCart(context.Background(), buyerID, model.DeliveryInfo{DeliveryAddress: "x"})
	assert.True(t, e.Is(err, e.INVALID_PARAMS))
}

func TestCheckoutUnknownBuyer(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.CreateOrderFromCart(context.Background(), 4242, testDelivery)
	assert.True(t, e.Is(err, e.ERROR_BUYER_PROFILE_MISSING))
}

func TestCheckoutRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	_, buyerID := f.buyer(t, "Bob")
	p := f.product(t, farmerID, "Tomatoes", "50")
	_, err := f.cart.AddToCart(ctx, buyerID, p, 2)
	require.NoError(t, err)

	boom := errors.New("disk full")
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(boom)
		}
	}))

	_, err = f.orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&n).Error)
	assert.Zero(t, n, "order insert must be rolled back")
	lines, err := f.cart.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "cart must stay intact")
	assert.Zero(t, f.pub.count(mq.EventOrderCreated))
}

func TestCheckoutLockHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	_, buyerID := f.buyer(t, "Bob")
	p := f.product(t, farmerID, "Tomatoes", "50")
	_, err := f.cart.AddToCart(ctx, buyerID, p, 1)
	require.NoError(t, err)

	orders := NewOrderService(f.db, f.events, NewMutex(busyLocker{}, 0))
	_, err = orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	assert.True(t, e.Is(err, e.ERROR_LOCKED))

	lines, err := f.cart.GetCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestCheckoutDropsInactiveLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	_, buyerID := f.buyer(t, "Bob")
	tomatoes := f.product(t, farmerID, "Tomatoes", "50")
	carrots := f.product(t, farmerID, "Carrots", "30")
	_, err := f.cart.AddToCart(ctx, buyerID, tomatoes, 1)
	require.NoError(t, err)
	_, err = f.cart.AddToCart(ctx, buyerID, carrots, 1)
	require.NoError(t, err)
	_, err = f.products.DeleteProduct(ctx, Actor{Role: model.RoleAdmin}, carrots)
	require.NoError(t, err)

	created, err := f.orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	require.NoError(t, err)
	require.Len(t, created, 1)
	decEq(t, "50", created[0].TotalAmount)

	var n int64
	require.NoError(t, f.db.Model(&model.CartItem{}).Where("buyer_id = ?", buyerID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOrderItemsSurviveProductSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	_, buyerID := f.buyer(t, "Bob")
	p := f.product(t, farmerID, "Tomatoes", "50")
	orderID := f.placeOrder(t, buyerID, p, 2)

	_, err := f.products.DeleteProduct(ctx, Actor{Role: model.RoleAdmin}, p)
	require.NoError(t, err)

	detail, err := f.orders.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Tomatoes", detail.Items[0].ProductName)
	decEq(t, "50", detail.Items[0].UnitPrice)
	decEq(t, "100", detail.Items[0].TotalPrice)
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	_, buyerID := f.buyer(t, "Bob")
	orderID := f.placeOrder(t, buyerID, f.product(t, farmerID, "Tomatoes", "50"), 1)

	_, err := f.orders.UpdateOrderStatus(ctx, orderID, "teleported")
	assert.True(t, e.Is(err, e.ERROR_INVALID_STATUS))

	res, err := f.orders.UpdateOrderStatus(ctx, orderID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "Order status updated successfully", res.Message)
	_, err = f.orders.UpdateOrderStatus(ctx, orderID, "shipped")
	require.NoError(t, err)
	// 配送失败时可退回 confirmed
	_, err = f.orders.UpdateOrderStatus(ctx, orderID, "confirmed")
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(ctx, orderID, "shipped")
	require.NoError(t, err)
	_, err = f.orders.UpdateOrderStatus(ctx, orderID, "delivered")
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderStatus(ctx, orderID, "pending")
	assert.True(t, e.Is(err, e.ERROR_INVALID_STATUS_TRANSITION))
	assert.Equal(t, model.OrderStatusDelivered, f.orderStatus(t, orderID))

	_, err = f.orders.UpdateOrderStatus(ctx, 9999, "confirmed")
	assert.True(t, e.Is(err, e.ERROR_ORDER_NOT_EXISTS))
	assert.Equal(t, 5, f.pub.count(mq.EventOrderStatusChanged))
}

func TestGetOrderForActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farmerUser, farmerID := f.farmer(t, "Jane", "Kiambu")
	otherFarmerUser, _ := f.farmer(t, "Peter", "Nakuru")
	buyerUser, buyerID := f.buyer(t, "Bob")
	otherBuyerUser, _ := f.buyer(t, "Eve")
	orderID := f.placeOrder(t, buyerID, f.product(t, farmerID, "Tomatoes", "50"), 1)

	_, err := f.orders.GetOrderForActor(ctx, Actor{UserID: buyerUser, Role: model.RoleBuyer}, orderID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrderForActor(ctx, Actor{UserID: farmerUser, Role: model.RoleFarmer}, orderID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrderForActor(ctx, Actor{UserID: 1, Role: model.RoleAdmin}, orderID)
	assert.NoError(t, err)

	_, err = f.orders.GetOrderForActor(ctx, Actor{UserID: otherBuyerUser, Role: model.RoleBuyer}, orderID)
	assert.True(t, e.Is(err, e.ERROR_FORBIDDEN))
	_, err = f.orders.GetOrderForActor(ctx, Actor{UserID: otherFarmerUser, Role: model.RoleFarmer}, orderID)
	assert.True(t, e.Is(err, e.ERROR_FORBIDDEN))
	_, err = f.orders.GetOrderForActor(ctx, Actor{UserID: buyerUser, Role: model.RoleBuyer}, 9999)
	assert.True(t, e.Is(err, e.ERROR_ORDER_NOT_EXISTS))
}

func TestMyOrdersAndLogisticsQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farmerUser, farmerID := f.farmer(t, "Jane", "Kiambu")
	buyerUser, buyerID := f.buyer(t, "Bob")
	p := f.product(t, farmerID, "Tomatoes", "50")
	first := f.placeOrder(t, buyerID, p, 1)
	second := f.placeOrder(t, buyerID, p, 2)

	mine, err := f.orders.GetMyOrders(ctx, Actor{UserID: buyerUser, Role: model.RoleBuyer})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	received, err := f.orders.GetMyOrders(ctx, Actor{UserID: farmerUser, Role: model.RoleFarmer})
	require.NoError(t, err)
	assert.Len(t, received, 2)
	_, err = f.orders.GetMyOrders(ctx, Actor{UserID: 1, Role: model.RoleLogistics})
	assert.True(t, e.Is(err, e.ERROR_FORBIDDEN))

	// 只有 confirmed 且未分配的订单进入配送队列
	queue, err := f.orders.GetOrdersForLogistics(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	f.setOrderStatus(t, first, model.OrderStatusConfirmed)
	f.setOrderStatus(t, second, model.OrderStatusConfirmed)
	require.NoError(t, dao.NewLogisticsDao(f.db).CreateLogistics(ctx, &model.Logistics{
		OrderID: second, DeliveryAgentID: f.agent(t, "Sam"), DeliveryStatus: model.DeliveryStatusPending,
	}))
	queue, err = f.orders.GetOrdersForLogistics(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, first, queue[0].ID)
}
