package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Shallom032/Farmers-Backend-DB/internal/dao"
	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/logger"

	"gorm.io/gorm"
)

const (
	defaultLocation      = "Unknown"
	defaultFarmerProduct = "General"
)

type FarmerService struct {
	farmerDao *dao.FarmerDao
}

func NewFarmerService(db *gorm.DB) *FarmerService {
	return &FarmerService{farmerDao: dao.NewFarmerDao(db)}
}

type UpdateFarmerRequest struct {
	Location *string `json:"location"`
	Product  *string `json:"product"`
}

func (s *FarmerService) ListFarmers(ctx context.Context) ([]*model.FarmerView, error) {
	return s.farmerDao.ListFarmers(ctx)
}

func (s *FarmerService) GetFarmer(ctx context.Context, id int64) (*model.FarmerView, error) {
	f, err := s.farmerDao.GetFarmerView(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_FARMER_NOT_EXISTS)
	}
	return f, nil
}

// FarmerByUser 当前用户的农户档案
func (s *FarmerService) FarmerByUser(ctx context.Context, userID int64) (*model.Farmer, error) {
	f, err := s.farmerDao.GetFarmerByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_FARMER_NOT_EXISTS)
	}
	return f, nil
}

// EnsureFarmerProfile 没有档案时自动创建（Unknown/General）
func (s *FarmerService) EnsureFarmerProfile(ctx context.Context, userID int64) (*model.Farmer, error) {
	f, err := s.farmerDao.GetFarmerByUserID(ctx, userID)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	f = &model.Farmer{UserID: userID, Location: defaultLocation, Product: defaultFarmerProduct}
	if err := s.farmerDao.CreateFarmer(ctx, f); err != nil {
		// 并发创建时唯一索引冲突，回读即可
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.farmerDao.GetFarmerByUserID(ctx, userID)
		}
		return nil, err
	}
	logger.InfoContext(ctx, "farmer profile created", "user_id", userID, "farmer_id", f.ID)
	return f, nil
}

// UpdateFarmer 未传字段保持原值，字符串去首尾空格
func (s *FarmerService) UpdateFarmer(ctx context.Context, id int64, req UpdateFarmerRequest) (*Result, error) {
	if _, err := s.farmerDao.GetFarmerByID(ctx, id); err != nil {
		return nil, mapNotFound(err, e.ERROR_FARMER_NOT_EXISTS)
	}
	updates := map[string]any{}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Product != nil {
		updates["product"] = strings.TrimSpace(*req.Product)
	}
	if err := s.farmerDao.UpdateFarmer(ctx, id, updates); err != nil {
		return nil, err
	}
	return &Result{Message: "Farmer updated successfully"}, nil
}

func (s *FarmerService) DeleteFarmer(ctx context.Context, id int64) (*Result, error) {
	if _, err := s.farmerDao.GetFarmerByID(ctx, id); err != nil {
		return nil, mapNotFound(err, e.ERROR_FARMER_NOT_EXISTS)
	}
	if err := s.farmerDao.DeleteFarmer(ctx, id); err != nil {
		return nil, err
	}
	return &Result{Message: "Farmer deleted successfully"}, nil
}
