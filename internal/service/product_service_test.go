package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shallom032/Farmers-Backend-DB/internal/model"
	"github.com/Shallom032/Farmers-Backend-DB/pkg/e"
)

func intPtr(v int) *int { return &v }

func TestCreateProductCreatesFarmerProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 直接插入的用户没有农户档案
	u := &model.User{FullName: "Grace", Email: "grace@example.com", Role: model.RoleFarmer}
	require.NoError(t, f.db.Create(u).Error)
	actor := Actor{UserID: u.ID, Role: model.RoleFarmer}

	p, err := f.products.CreateProduct(ctx, actor, CreateProductRequest{
		Name:              " Avocado ",
		Price:             decimal.RequireFromString("15.50"),
		QuantityAvailable: intPtr(40),
		Unit:              "piece",
		Category:          "Fruits",
	})
	require.NoError(t, err)
	assert.Equal(t, "Avocado", p.Name)
	assert.True(t, p.IsActive)

	farmer, err := f.farmers.FarmerByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, farmer.ID, p.FarmerID)
	assert.Equal(t, "Unknown", farmer.Location)
	assert.Equal(t, "General", farmer.Product)

	mine, err := f.products.ListMyProducts(ctx, actor)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Grace", mine[0].FarmerName)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farmerUser, _ := f.farmer(t, "Jane", "Kiambu")
	actor := Actor{UserID: farmerUser, Role: model.RoleFarmer}

	cases := []CreateProductRequest{
		{Name: "", Price: decimal.NewFromInt(1), QuantityAvailable: intPtr(1), Unit: "kg"},
		{Name: "Kale", Price: decimal.Zero, QuantityAvailable: intPtr(1), Unit: "kg"},
		{Name: "Kale", Price: decimal.NewFromInt(1), QuantityAvailable: nil, Unit: "kg"},
		{Name: "Kale", Price: decimal.NewFromInt(1), QuantityAvailable: intPtr(-1), Unit: "kg"},
		{Name: "Kale", Price: decimal.NewFromInt(1), QuantityAvailable: intPtr(1), Unit: ""},
	}
	for _, req := range cases {
		_, err := f.products.CreateProduct(ctx, actor, req)
		assert.True(t, e.Is(err, e.INVALID_PARAMS), "%+v", req)
	}

	// 管理员必须指定农户
	_, err := f.products.CreateProduct(ctx, Actor{UserID: 1, Role: model.RoleAdmin}, CreateProductRequest{
		Name: "Kale", Price: decimal.NewFromInt(1), QuantityAvailable: intPtr(1), Unit: "kg",
	})
	assert.True(t, e.Is(err, e.INVALID_PARAMS))
	_, err = f.products.CreateProduct(ctx, Actor{UserID: 1, Role: model.RoleAdmin}, CreateProductRequest{
		FarmerID: 777, Name: "Kale", Price: decimal.NewFromInt(1), QuantityAvailable: intPtr(1), Unit: "kg",
	})
	assert.True(t, e.Is(err, e.ERROR_FARMER_NOT_EXISTS))
}

func TestSoftDeletedProductIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farmerUser, farmerID := f.farmer(t, "Jane", "Kiambu")
	tomatoes := f.product(t, farmerID, "Tomatoes", "50")
	f.product(t, farmerID, "Carrots", "30")
	owner := Actor{UserID: farmerUser, Role: model.RoleFarmer}

	res, err := f.products.DeleteProduct(ctx, owner, tomatoes)
	require.NoError(t, err)
	assert.Equal(t, "Product deleted successfully", res.Message)

	list, err := f.products.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Carrots", list[0].Name)

	byFarmer, err := f.products.ListByFarmer(ctx, farmerID)
	require.NoError(t, err)
	assert.Len(t, byFarmer, 1)

	found, err := f.products.SearchProducts(ctx, "tomato", "")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.products.GetProduct(ctx, tomatoes)
	assert.True(t, e.Is(err, e.ERROR_PRODUCT_NOT_EXISTS))
	_, err = f.products.DeleteProduct(ctx, owner, tomatoes)
	assert.True(t, e.Is(err, e.ERROR_PRODUCT_NOT_EXISTS))

	// 行仍在表里
	var p model.Product
	require.NoError(t, f.db.First(&p, tomatoes).Error)
	assert.False(t, p.IsActive)
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, farmerID := f.farmer(t, "Jane", "Kiambu")
	f.product(t, farmerID, "Cherry Tomatoes", "80")
	milk := &model.Product{FarmerID: farmerID, Name: "Milk", Description: "fresh dairy", Price: decimal.NewFromInt(60),
		QuantityAvailable: 10, Unit: "litre", Category: "Dairy"}
	require.NoError(t, f.products.productDao.CreateProduct(ctx, milk))

	found, err := f.products.SearchProducts(ctx, "TOMATO", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cherry Tomatoes", found[0].Name)
	assert.Equal(t, "Kiambu", found[0].FarmerLocation)

	found, err = f.products.SearchProducts(ctx, "dairy", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = f.products.SearchProducts(ctx, "", "Dairy")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, milk.ID, found[0].ID)

	found, err = f.products.SearchProducts(ctx, "tomato", "Dairy")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUpdateProductOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ownerUser, farmerID := f.farmer(t, "Jane", "Kiambu")
	otherUser, _ := f.farmer(t, "Peter", "Nakuru")
	p := f.product(t, farmerID, "Tomatoes", "50")

	name := "Roma Tomatoes"
	_, err := f.products.UpdateProduct(ctx, Actor{UserID: otherUser, Role: model.RoleFarmer}, p, model.ProductPatch{Name: &name})
	assert.True(t, e.Is(err, e.ERROR_FORBIDDEN))
	_, err = f.products.DeleteProduct(ctx, Actor{UserID: otherUser, Role: model.RoleFarmer}, p)
	assert.True(t, e.Is(err, e.ERROR_FORBIDDEN))

	res, err := f.products.UpdateProduct(ctx, Actor{UserID: ownerUser, Role: model.RoleFarmer}, p,
		model.ProductPatch{Name: &name, QuantityAvailable: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, "Product updated successfully", res.Message)

	got, err := f.products.GetProduct(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, 5, got.QuantityAvailable)
	decEq(t, "50", got.Price)

	_, err = f.products.UpdateProduct(ctx, Actor{UserID: ownerUser, Role: model.RoleFarmer}, p,
		model.ProductPatch{Price: decimalPtr("-1")})
	assert.True(t, e.Is(err, e.INVALID_PARAMS))
}
