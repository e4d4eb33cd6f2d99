package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/dao/database"
	redisdao "github.com/Shallom032/Farmers-Backend-DB/internal/dao/redis"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/internal/mq"
)

// newTestDB 每个测试一个独立的内存库，单连接保证事务内外看到同一份数据
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*mq.Event
	keys   []string
}

func (p *recordingPublisher) PublishAsyncWithID(_ string, key string, body []byte, _ string) error {
	evt, err := mq.DecodeEvent(body)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == key {
			n++
		}
	}
	return n
}

// busyLocker 模拟锁已被其他实例持有
type busyLocker struct{}

func (busyLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	return nil, redisdao.ErrLockHeld
}

type fixture struct {
	db        *gorm.DB
	pub       *recordingPublisher
	events    *Events
	users     *UserService
	farmers   *FarmerService
	buyers    *BuyerService
	products  *ProductService
	cart      *CartService
	orders    *OrderService
	payments  *PaymentService
	logistics *LogisticsService
	seq       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	pub := &recordingPublisher{}
	events := NewEvents(pub, "agri.exchange")
	mutex := NewMutex(nil, 0)
	farmers := NewFarmerService(db)
	return &fixture{
		db:        db,
		pub:       pub,
		events:    events,
		users:     NewUserService(db),
		farmers:   farmers,
		buyers:    NewBuyerService(db),
		products:  NewProductService(db, farmers),
		cart:      NewCartService(db),
		orders:    NewOrderService(db, events, mutex),
		payments:  NewPaymentService(db, events),
		logistics: NewLogisticsService(db, events, mutex),
	}
}

func (f *fixture) user(t *testing.T, role model.Role, name, location string) *model.User {
	t.Helper()
	f.seq++
	u, err := f.users.CreateUser(context.Background(), CreateUserRequest{
		FullName: name,
		Email:    fmt.Sprintf("user%d@example.com", f.seq),
		Location: location,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

// farmer 返回 (user id, farmer 档案 id)
func (f *fixture) farmer(t *testing.T, name, location string) (int64, int64) {
	t.Helper()
	u := f.user(t, model.RoleFarmer, name, location)
	fm, err := f.farmers.FarmerByUser(context.Background(), u.ID)
	require.NoError(t, err)
	return u.ID, fm.ID
}

// buyer 返回 (user id, buyer 档案 id)
func (f *fixture) buyer(t *testing.T, name string) (int64, int64) {
	t.Helper()
	u := f.user(t, model.RoleBuyer, name, "Nairobi")
	b, err := f.buyers.BuyerByUser(context.Background(), u.ID)
	require.NoError(t, err)
	return u.ID, b.ID
}

func (f *fixture) agent(t *testing.T, name string) int64 {
	t.Helper()
	return f.user(t, model.RoleLogistics, name, "Nairobi").ID
}

func (f *fixture) product(t *testing.T, farmerID int64, name string, price string) int64 {
	t.Helper()
	p := &model.Product{
		FarmerID:          farmerID,
		Name:              name,
		Description:       name + " fresh from the farm",
		Price:             decimal.RequireFromString(price),
		QuantityAvailable: 100,
		Unit:              "kg",
		Category:          "Vegetables",
	}
	require.NoError(t, dao.NewProductDao(f.db).CreateProduct(context.Background(), p))
	return p.ID
}

func (f *fixture) orderStatus(t *testing.T, orderID int64) model.OrderStatus {
	t.Helper()
	o, err := dao.NewOrderDao(f.db).GetOrderByID(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status
}

func (f *fixture) setOrderStatus(t *testing.T, orderID int64, status model.OrderStatus) {
	t.Helper()
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", orderID).Update("status", status).Error)
}

var testDelivery = model.DeliveryInfo{
	DeliveryAddress: "12 Market Street",
	DeliveryCity:    "Nairobi",
	DeliveryPhone:   "0712345678",
}

// placeOrder 单个商品下单，返回订单 id
func (f *fixture) placeOrder(t *testing.T, buyerID, productID int64, qty int) int64 {
	t.Helper()
	ctx := context.Background()
	_, err := f.cart.AddToCart(ctx, buyerID, productID, qty)
	require.NoError(t, err)
	created, err := f.orders.CreateOrderFromCart(ctx, buyerID, testDelivery)
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0].OrderID
}

func decEq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
