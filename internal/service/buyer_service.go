package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"

	"gorm.io/gorm"
)

type BuyerService struct {
	buyerDao *dao.BuyerDao
}

func NewBuyerService(db *gorm.DB) *BuyerService {
	return &BuyerService{buyerDao: dao.NewBuyerDao(db)}
}

type UpdateBuyerRequest struct {
	Location *string `json:"location"`
}

func (s *BuyerService) ListBuyers(ctx context.Context) ([]*model.BuyerView, error) {
	return s.buyerDao.ListBuyers(ctx)
}

func (s *BuyerService) GetBuyer(ctx context.Context, id int64) (*model.BuyerView, error) {
	b, err := s.buyerDao.GetBuyerView(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_BUYER_NOT_EXISTS)
	}
	return b, nil
}

// BuyerByUser 结账/查看购物车前取买家档案，缺失时返回 400
func (s *BuyerService) BuyerByUser(ctx context.Context, userID int64) (*model.Buyer, error) {
	b, err := s.buyerDao.GetBuyerByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_BUYER_PROFILE_MISSING)
	}
	return b, nil
}

// EnsureBuyerProfile 加购时没有档案则自动创建
func (s *BuyerService) EnsureBuyerProfile(ctx context.Context, userID int64) (*model.Buyer, error) {
	b, err := s.buyerDao.GetBuyerByUserID(ctx, userID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	b = &model.Buyer{UserID: userID, Location: defaultLocation}
	if err := s.buyerDao.CreateBuyer(ctx, b); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.buyerDao.GetBuyerByUserID(ctx, userID)
		}
		return nil, err
	}
	return b, nil
}

func (s *BuyerService) UpdateBuyer(ctx context.Context, id int64, req UpdateBuyerRequest) (*Result, error) {
	if _, err := s.buyerDao.GetBuyerByID(ctx, id); err != nil {
		return nil, mapNotFound(err, e.ERROR_BUYER_NOT_EXISTS)
	}
	updates := map[string]any{}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if err := s.buyerDao.UpdateBuyer(ctx, id, updates); err != nil {
		return nil, err
	}
	return &Result{Message: "Buyer updated successfully"}, nil
}

func (s *BuyerService) DeleteBuyer(ctx context.Context, id int64) (*Result, error) {
	if _, err := s.buyerDao.GetBuyerByID(ctx, id); err != nil {
		return nil, mapNotFound(err, e.ERROR_BUYER_NOT_EXISTS)
	}
	if err := s.buyerDao.DeleteBuyer(ctx, id); err != nil {
		return nil, err
	}
	return &Result{Message: "Buyer deleted successfully"}, nil
}
