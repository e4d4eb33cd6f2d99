package dao

import (
	"context"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"

	"gorm.io/gorm"
)

type UserDao struct {
	db *gorm.DB
}

// NewUserDao 构造函数（依赖注入）
func NewUserDao(db *gorm.DB) *UserDao {
	return &UserDao{db: db}
}

// WithTx 返回绑定到事务的副本
func (dao *UserDao) WithTx(tx *gorm.DB) *UserDao {
	return &UserDao{db: tx}
}

func (dao *UserDao) CreateUser(ctx context.Context, user *model.User) error {
	return dao.db.WithContext(ctx).Create(user).Error
}

// GetUserByID 根据用户ID获取用户
func (dao *UserDao) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := dao.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDao) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := dao.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDao) ListUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := dao.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// UpdateUser 按列更新
func (dao *UserDao) UpdateUser(ctx context.Context, userID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dao.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (dao *UserDao) DeleteUser(ctx context.Context, userID int64) error {
	return dao.db.WithContext(ctx).Delete(&model.User{}, userID).Error
}
