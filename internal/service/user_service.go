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

type UserService struct {
	db        *gorm.DB
	userDao   *dao.UserDao
	farmerDao *dao.FarmerDao
	buyerDao  *dao.BuyerDao
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:        db,
		userDao:   dao.NewUserDao(db),
		farmerDao: dao.NewFarmerDao(db),
		buyerDao:  dao.NewBuyerDao(db),
	}
}

type CreateUserRequest struct {
	FullName string     `json:"full_name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Phone    string     `json:"phone"`
	Location string     `json:"location"`
	Role     model.Role `json:"role" binding:"required"`
	// 农户主营品类，仅 role=farmer 时使用
	Product string `json:"product"`
}

type UpdateUserRequest struct {
	FullName *string     `json:"full_name"`
	Phone    *string     `json:"phone"`
	Location *string     `json:"location"`
	Role     *model.Role `json:"role"`
}

// CreateUser 创建用户并同步建立对应角色档案
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" || req.Email == "" {
		return nil, e.Newf(e.INVALID_PARAMS, "full_name and email are required")
	}
	if !req.Role.Valid() {
		return nil, e.Newf(e.INVALID_PARAMS, "Invalid role: %s", req.Role)
	}

	if _, err := s.userDao.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, e.New(e.ERROR_USER_EXISTS)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &model.User{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Location:   req.Location,
		Role:       req.Role,
		IsVerified: true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userDao.WithTx(tx).CreateUser(ctx, user); err != nil {
			return err
		}
		return createProfile(ctx, tx, user, req.Product)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, e.New(e.ERROR_USER_EXISTS)
		}
		return nil, err
	}
	logger.InfoContext(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// createProfile farmer/buyer 角色需要档案，其余角色不需要
func createProfile(ctx context.Context, tx *gorm.DB, user *model.User, product string) error {
	location := user.Location
	if location == "" {
		location = defaultLocation
	}
	switch user.Role {
	case model.RoleFarmer:
		if product == "" {
			product = defaultFarmerProduct
		}
		return dao.NewFarmerDao(tx).CreateFarmer(ctx, &model.Farmer{UserID: user.ID, Location: location, Product: product})
	case model.RoleBuyer:
		return dao.NewBuyerDao(tx).CreateBuyer(ctx, &model.Buyer{UserID: user.ID, Location: location})
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userDao.ListUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.userDao.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, e.ERROR_USER_NOT_EXISTS)
	}
	return u, nil
}

// UpdateUser 部分更新；改成 farmer/buyer 时补建档案
func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*Result, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, e.Newf(e.INVALID_PARAMS, "Invalid role: %s", *req.Role)
		}
		updates["role"] = *req.Role
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userDao.WithTx(tx).UpdateUser(ctx, id, updates); err != nil {
			return err
		}
		if req.Role == nil || *req.Role == user.Role {
			return nil
		}
		user.Role = *req.Role
		return ensureProfile(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Message: "User updated"}, nil
}

func ensureProfile(ctx context.Context, tx *gorm.DB, user *model.User) error {
	switch user.Role {
	case model.RoleFarmer:
		if _, err := dao.NewFarmerDao(tx).GetFarmerByUserID(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	case model.RoleBuyer:
		if _, err := dao.NewBuyerDao(tx).GetBuyerByUserID(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	default:
		return nil
	}
	return createProfile(ctx, tx, user, "")
}

// DeleteUser 连同档案一起删除
func (s *UserService) DeleteUser(ctx context.Context, id int64) (*Result, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.farmerDao.WithTx(tx).DeleteByUserID(ctx, id); err != nil {
			return err
		}
		if err := s.buyerDao.WithTx(tx).DeleteByUserID(ctx, id); err != nil {
			return err
		}
		return s.userDao.WithTx(tx).DeleteUser(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Message: "User deleted"}, nil
}
