package service

import (
	"context"
	"errors"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	cartDao    *dao.CartDao
	productDao *dao.ProductDao
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		cartDao:    dao.NewCartDao(db),
		productDao: dao.NewProductDao(db),
	}
}

// AddToCart 已在购物车中则数量累加
func (s *CartService) AddToCart(ctx context.Context, buyerID, productID int64, quantity int) (*Result, error) {
	if productID <= 0 || quantity <= 0 {
		return nil, e.Newf(e.INVALID_PARAMS, "Product ID and valid quantity required")
	}
	if _, err := s.productDao.GetActiveProduct(ctx, productID); err != nil {
		return nil, mapNotFound(err, e.ERROR_PRODUCT_NOT_EXISTS)
	}
	if err := s.cartDao.AddItem(ctx, buyerID, productID, quantity); err != nil {
		return nil, err
	}
	return &Result{Message: "Item added to cart"}, nil
}

func (s *CartService) GetCart(ctx context.Context, buyerID int64) ([]model.CartLine, error) {
	lines, err := s.cartDao.Lines(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines, nil
}

// UpdateCartItem 数量为 0 等同删除，大于 0 直接覆盖
func (s *CartService) UpdateCartItem(ctx context.Context, buyerID, productID int64, quantity int) (*Result, error) {
	if productID <= 0 || quantity < 0 {
		return nil, e.Newf(e.INVALID_PARAMS, "Product ID and valid quantity required")
	}
	if quantity == 0 {
		if err := s.cartDao.RemoveItem(ctx, buyerID, productID); err != nil {
			return nil, err
		}
		return &Result{Message: "Item removed from cart"}, nil
	}
	if _, err := s.cartDao.GetItem(ctx, buyerID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.Newf(e.ERROR_NOT_EXIST, "Item not found in cart")
		}
		return nil, err
	}
	if _, err := s.cartDao.SetQuantity(ctx, buyerID, productID, quantity); err != nil {
		return nil, err
	}
	return &Result{Message: "Cart updated"}, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, buyerID, productID int64) (*Result, error) {
	if err := s.cartDao.RemoveItem(ctx, buyerID, productID); err != nil {
		return nil, err
	}
	return &Result{Message: "Item removed from cart"}, nil
}

func (s *CartService) ClearCart(ctx context.Context, buyerID int64) (*Result, error) {
	if err := s.cartDao.Clear(ctx, buyerID); err != nil {
		return nil, err
	}
	return &Result{Message: "Cart cleared"}, nil
}

// GetCartTotal Σ 数量 × 实时价格，只计上架商品；空购物车为 0
func (s *CartService) GetCartTotal(ctx context.Context, buyerID int64) (decimal.Decimal, error) {
	lines, err := s.cartDao.Lines(ctx, buyerID)
	if err != nil {
		return decimal.Zero, err
	}
	return sumLines(lines), nil
}

func sumLines(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
