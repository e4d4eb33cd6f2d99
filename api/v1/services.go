package v1

import (
	"github.com/Shallom032/Farmers-Backend-DB/internal/service"
	"gorm.io/gorm"
)

// Services 进程内所有业务服务，共享同一个 *gorm.DB 连接池
type Services struct {
	Users     *service.UserService
	Farmers   *service.FarmerService
	Buyers    *service.BuyerService
	Products  *service.ProductService
	Cart      *service.CartService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Logistics *service.LogisticsService
}

// InitServices events/mutex 可以为 nil，对应不发事件、不加分布式锁
func InitServices(db *gorm.DB, events *service.Events, mutex *service.Mutex) *Services {
	farmers := service.NewFarmerService(db)
	return &Services{
		Users:     service.NewUserService(db),
		Farmers:   farmers,
		Buyers:    service.NewBuyerService(db),
		Products:  service.NewProductService(db, farmers),
		Cart:      service.NewCartService(db),
		Orders:    service.NewOrderService(db, events, mutex),
		Payments:  service.NewPaymentService(db, events),
		Logistics: service.NewLogisticsService(db, events, mutex),
	}
}
