package service

import (
	"context"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService struct {
	productDao *dao.ProductDao
	farmerDao  *dao.FarmerDao
	farmers    *FarmerService
}

func NewProductService(db *gorm.DB, farmers *FarmerService) *ProductService {
	return &ProductService{
		productDao: dao.NewProductDao(db),
		farmerDao:  dao.NewFarmerDao(db),
		farmers:    farmers,
	}
}

type CreateProductRequest struct {
	// 仅管理员代农户创建时需要
	FarmerID          int64           `json:"farmer_id"`
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable *int            `json:"quantity_available" binding:"required"`
	Unit              string          `json:"unit" binding:"required"`
	Category          string          `json:"category"`
	ImageURL          string          `json:"image_url"`
}

// CreateProduct 农户为自己上架；没有农户档案时自动创建
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req CreateProductRequest) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" || req.QuantityAvailable == nil {
		return nil, e.Newf(e.INVALID_PARAMS, "name, price, quantity_available and unit are required")
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	if *req.QuantityAvailable < 0 {
		return nil, e.Newf(e.INVALID_PARAMS, "quantity_available must be >= 0")
	}

	farmerID, err := s.ownerFor(ctx, actor, req.FarmerID)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		FarmerID:          farmerID,
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		QuantityAvailable: *req.QuantityAvailable,
		Unit:              req.Unit,
		Category:          strings.TrimSpace(req.Category),
		ImageURL:          req.ImageURL,
	}
	if err := s.productDao.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "product created", "product_id", p.ID, "farmer_id", farmerID)
	return p, nil
}

func (s *ProductService) ownerFor(ctx context.Context, actor Actor, requested int64) (int64, error) {
	if actor.IsAdmin() {
		if requested == 0 {
			return 0, e.Newf(e.INVALID_PARAMS, "farmer_id is required")
		}
		if _, err := s.farmerDao.GetFarmerByID(ctx, requested); err != nil {
			return 0, mapNotFound(err, e.ERROR_FARMER_NOT_EXISTS)
		}
		return requested, nil
	}
	f, err := s.farmers.EnsureFarmerProfile(ctx, actor.UserID)
	if err != nil {
		return 0, err
	}
	return f.ID, nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return e.Newf(e.INVALID_PARAMS, "price must be greater than 0")
	}
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*model.ProductView, error) {
	return s.productDao.ListActive(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.ProductView, error) {
	p, err := s.productDao.GetActiveByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_PRODUCT_NOT_EXISTS)
	}
	return p, nil
}

func (s *ProductService) ListByFarmer(ctx context.Context, farmerID int64) ([]*model.ProductView, error) {
	return s.productDao.ListByFarmer(ctx, farmerID)
}

// ListMyProducts 当前农户的在售商品
func (s *ProductService) ListMyProducts(ctx context.Context, actor Actor) ([]*model.ProductView, error) {
	f, err := s.farmers.FarmerByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.productDao.ListByFarmer(ctx, f.ID)
}

func (s *ProductService) SearchProducts(ctx context.Context, term, category string) ([]*model.ProductView, error) {
	return s.productDao.Search(ctx, term, category)
}

// UpdateProduct 部分更新，只允许商品所属农户或管理员
func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, id int64, patch model.ProductPatch) (*Result, error) {
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.QuantityAvailable != nil && *patch.QuantityAvailable < 0 {
		return nil, e.Newf(e.INVALID_PARAMS, "quantity_available must be >= 0")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "name must not be empty")
	}
	if err := s.checkOwner(ctx, actor, id); err != nil {
		return nil, err
	}

	cols := patch.Columns()
	if len(cols) > 0 {
		if _, err := s.productDao.UpdateProduct(ctx, id, cols); err != nil {
			return nil, err
		}
	}
	return &Result{Message: "Product updated successfully"}, nil
}

// DeleteProduct 软删除
func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id int64) (*Result, error) {
	if err := s.checkOwner(ctx, actor, id); err != nil {
		return nil, err
	}
	n, err := s.productDao.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, e.New(e.ERROR_PRODUCT_NOT_EXISTS)
	}
	return &Result{Message: "Product deleted successfully"}, nil
}

func (s *ProductService) checkOwner(ctx context.Context, actor Actor, productID int64) error {
	p, err := s.productDao.GetActiveProduct(ctx, productID)
	if err != nil {
		return mapNotFound(err, e.ERROR_PRODUCT_NOT_EXISTS)
	}
	if actor.IsAdmin() {
		return nil
	}
	f, err := s.farmers.FarmerByUser(ctx, actor.UserID)
	if err != nil {
		if e.Is(err, e.ERROR_FARMER_NOT_EXISTS) {
			return e.New(e.ERROR_FORBIDDEN)
		}
		return err
	}
	if f.ID != p.FarmerID {
		return e.New(e.ERROR_FORBIDDEN)
	}
	return nil
}
