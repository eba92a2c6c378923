package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"fsanano/mini-shop/internal/auth"
	"fsanano/mini-shop/internal/model"
	"fsanano/mini-shop/internal/repository"
	"fsanano/mini-shop/internal/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos    repository.Repositories
	svc      *Services
	category *model.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memstore.New().Repositories()
	category := &model.Category{Name: "Electronics"}
	require.NoError(t, repos.Categories.Create(context.Background(), category))

	return &fixture{
		repos:    repos,
		svc:      New(repos, auth.NewTokenManager("test-secret", time.Hour)),
		category: category,
	}
}

func (f *fixture) user(t *testing.T, email string, role model.Role) auth.Identity {
	t.Helper()
	u, err := f.svc.Auth.Signup(context.Background(), email, "password")
	require.NoError(t, err)
	if role != model.RoleCustomer {
		u.Role = role
		require.NoError(t, f.repos.Users.Update(context.Background(), u))
	}
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: role}
}

func (f *fixture) product(t *testing.T, seller auth.Identity, price string, stock int) *model.Product {
	t.Helper()
	p, err := f.svc.Catalog.CreateProduct(context.Background(), seller, ProductInput{
		Name:       fmt.Sprintf("Product %d", stock),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: f.category.ID,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Auth.Signup(ctx, "  Alice@Example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret", u.PasswordHash)

	_, err = f.svc.Auth.Signup(ctx, "alice@example.com", "other")
	assert.ErrorIs(t, err, model.ErrConflict)

	admin := auth.Identity{UserID: 999, Role: model.RoleAdmin}
	users, err := f.svc.Users.List(ctx, admin, Page{Limit: DefaultPageLimit})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "bob@example.com", model.RoleSeller)

	token, err := f.svc.Auth.Login(ctx, "BOB@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	id, err := f.svc.Auth.Authenticate(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, id.Role)

	_, wrongPassword := f.svc.Auth.Login(ctx, "bob@example.com", "nope")
	_, unknownEmail := f.svc.Auth.Login(ctx, "nobody@example.com", "password")
	assert.ErrorIs(t, wrongPassword, model.ErrUnauthorized)
	assert.ErrorIs(t, unknownEmail, model.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate_DeletedUserAndRoleChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, "carol@example.com", model.RoleCustomer)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)

	token, err := f.svc.Auth.Login(ctx, "carol@example.com", "password")
	require.NoError(t, err)

	_, err = f.svc.Users.ChangeRole(ctx, admin, customer.UserID, "seller")
	require.NoError(t, err)
	id, err := f.svc.Auth.Authenticate(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, id.Role)

	_, err = f.svc.Users.DeleteSelf(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.Auth.Authenticate(ctx, token.AccessToken)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth.Signup(context.Background(), "long@example.com", strings.Repeat("a", 80))
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.repos.Users.GetByEmail(context.Background(), "long@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUsers_AdminOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, "dave@example.com", model.RoleCustomer)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)

	_, err := f.svc.Users.ChangeRole(ctx, customer, customer.UserID, "admin")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.Users.ChangeRole(ctx, admin, customer.UserID, "superuser")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.Users.ChangeRole(ctx, admin, 12345, "seller")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.Users.List(ctx, admin, Page{Skip: -1, Limit: 10})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	deleted, err := f.svc.Users.Delete(ctx, admin, customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, customer.UserID, deleted.ID)

	_, err = f.svc.Users.Delete(ctx, admin, customer.UserID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUsers_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	erin := f.user(t, "erin@example.com", model.RoleCustomer)
	f.user(t, "taken@example.com", model.RoleCustomer)

	taken := "taken@example.com"
	_, err := f.svc.Users.UpdateProfile(ctx, erin, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, model.ErrConflict)

	email, password := "Erin.New@example.com", "new-password"
	u, err := f.svc.Users.UpdateProfile(ctx, erin, ProfileUpdate{Email: &email, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "erin.new@example.com", u.Email)
	assert.Equal(t, model.RoleCustomer, u.Role)

	_, err = f.svc.Auth.Login(ctx, "erin.new@example.com", "new-password")
	assert.NoError(t, err)
}

func TestAddresses_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com", model.RoleCustomer)
	other := f.user(t, "other@example.com", model.RoleCustomer)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)

	in := AddressInput{Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	a, err := f.svc.Addresses.Create(ctx, owner, in)
	require.NoError(t, err)

	_, err = f.svc.Addresses.Create(ctx, owner, AddressInput{Street: "x"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	in.City = "Shelbyville"
	_, err = f.svc.Addresses.Update(ctx, other, a.ID, in)
	assert.ErrorIs(t, err, model.ErrForbidden)

	updated, err := f.svc.Addresses.Update(ctx, admin, a.ID, in)
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, updated.UserID)
	assert.Equal(t, "Shelbyville", updated.City)

	assert.ErrorIs(t, f.svc.Addresses.Delete(ctx, other, a.ID), model.ErrForbidden)
	require.NoError(t, f.svc.Addresses.Delete(ctx, owner, a.ID))
	assert.ErrorIs(t, f.svc.Addresses.Delete(ctx, owner, a.ID), model.ErrNotFound)

	list, err := f.svc.Addresses.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCatalog_SellerProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	rival := f.user(t, "rival@example.com", model.RoleSeller)
	customer := f.user(t, "customer@example.com", model.RoleCustomer)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)

	p := f.product(t, seller, "10.00", 5)
	require.NotNil(t, p.SellerID)
	assert.Equal(t, seller.UserID, *p.SellerID)

	byAdmin := f.product(t, admin, "1.00", 1)
	assert.Nil(t, byAdmin.SellerID)

	_, err := f.svc.Catalog.CreateProduct(ctx, customer, ProductInput{Name: "x", CategoryID: f.category.ID})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.svc.Catalog.CreateProduct(ctx, seller, ProductInput{Name: "x", Price: decimal.NewFromInt(-1), CategoryID: f.category.ID})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.Catalog.CreateProduct(ctx, seller, ProductInput{Name: "x", CategoryID: 4242})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	in := ProductInput{Name: "Renamed", Price: decimal.RequireFromString("12.00"), Stock: 7, CategoryID: f.category.ID}
	_, err = f.svc.Catalog.UpdateProduct(ctx, rival, p.ID, in)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.Catalog.UpdateProduct(ctx, seller, 9999, in)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, f.svc.Catalog.DeleteProduct(ctx, rival, p.ID), model.ErrNotFound)

	updated, err := f.svc.Catalog.UpdateProduct(ctx, seller, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, seller.UserID, *updated.SellerID)

	mine, err := f.svc.Catalog.ListSellerProducts(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, f.svc.Catalog.DeleteProduct(ctx, admin, p.ID))
	_, err = f.svc.Catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCatalog_ProductBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)

	input := func(price string, stock int) ProductInput {
		return ProductInput{Name: "Bounded", Price: decimal.RequireFromString(price), Stock: stock, CategoryID: f.category.ID}
	}

	for name, in := range map[string]ProductInput{
		"price too large":    input("10000000000", 1),
		"too many decimals":  input("1.999", 1),
		"stock beyond int32": input("1.00", math.MaxInt32+1),
	} {
		_, err := f.svc.Catalog.CreateProduct(ctx, seller, in)
		assert.ErrorIs(t, err, model.ErrInvalidInput, name)
	}

	p, err := f.svc.Catalog.CreateProduct(ctx, seller, input("9999999999.99", math.MaxInt32))
	require.NoError(t, err)
	assert.Equal(t, "9999999999.99", p.Price.String())

	p, err = f.svc.Catalog.CreateProduct(ctx, seller, input("1.500", 1))
	require.NoError(t, err, "trailing zeros stay within two decimal places")

	_, err = f.svc.Catalog.UpdateProduct(ctx, seller, p.ID, input("0.001", 1))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCatalog_CategoriesAndListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	seller := f.user(t, "seller@example.com", model.RoleSeller)

	_, err := f.svc.Catalog.CreateCategory(ctx, seller, "Toys")
	assert.ErrorIs(t, err, model.ErrForbidden)
	toys, err := f.svc.Catalog.CreateCategory(ctx, admin, "Toys")
	require.NoError(t, err)
	_, err = f.svc.Catalog.CreateCategory(ctx, admin, "Toys")
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = f.svc.Catalog.ListProductsByCategory(ctx, toys.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	f.product(t, seller, "3.00", 1)
	f.product(t, seller, "4.00", 2)

	byCategory, err := f.svc.Catalog.ListProductsByCategory(ctx, f.category.ID)
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	page, err := f.svc.Catalog.ListProducts(ctx, Page{Skip: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	categories, err := f.svc.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestCatalog_ProductDetailIncludesRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	a := f.user(t, "a@example.com", model.RoleCustomer)
	b := f.user(t, "b@example.com", model.RoleCustomer)
	p := f.product(t, seller, "5.00", 3)

	_, err := f.svc.Reviews.Create(ctx, a.UserID, p.ID, 4, "good")
	require.NoError(t, err)
	_, err = f.svc.Reviews.Create(ctx, b.UserID, p.ID, 5, "great")
	require.NoError(t, err)

	detail, err := f.svc.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, detail.ID)
	assert.Equal(t, 2, detail.ReviewCount)
	assert.InDelta(t, 4.5, detail.AverageRating, 1e-9)
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	u := f.user(t, "u@example.com", model.RoleCustomer)
	p := f.product(t, seller, "5.00", 3)

	_, err := f.svc.Reviews.Create(ctx, u.UserID, p.ID, 6, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.Reviews.Create(ctx, u.UserID, p.ID, 0, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.Reviews.Create(ctx, u.UserID, 9999, 3, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.Reviews.Create(ctx, u.UserID, p.ID, 3, "ok")
	require.NoError(t, err)
	_, err = f.svc.Reviews.Create(ctx, u.UserID, p.ID, 5, "changed my mind")
	assert.ErrorIs(t, err, model.ErrConflict)

	reviews, err := f.svc.Reviews.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 3, reviews[0].Rating)
}

func TestCart_AddItemMergesAndChecksStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	u := f.user(t, "u@example.com", model.RoleCustomer)
	p := f.product(t, seller, "10.00", 5)

	_, err := f.svc.Carts.AddItem(ctx, u.UserID, p.ID, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.Carts.AddItem(ctx, u.UserID, 9999, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	first, err := f.svc.Carts.AddItem(ctx, u.UserID, p.ID, 3)
	require.NoError(t, err)
	second, err := f.svc.Carts.AddItem(ctx, u.UserID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	_, err = f.svc.Carts.AddItem(ctx, u.UserID, p.ID, 1)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	cart, err := f.svc.Carts.GetCart(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCart_OverStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	u := f.user(t, "u@example.com", model.RoleCustomer)
	p := f.product(t, seller, "10.00", 5)

	_, err := f.svc.Carts.AddItem(ctx, u.UserID, p.ID, 6)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	cart, err := f.svc.Carts.GetCart(ctx, u.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCart_GetCartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@example.com", model.RoleCustomer)

	a, err := f.svc.Carts.GetCart(ctx, u.UserID)
	require.NoError(t, err)
	b, err := f.svc.Carts.GetCart(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.NotNil(t, b.Items)
}

func TestCart_ItemOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	owner := f.user(t, "owner@example.com", model.RoleCustomer)
	other := f.user(t, "other@example.com", model.RoleCustomer)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	p := f.product(t, seller, "10.00", 5)

	item, err := f.svc.Carts.AddItem(ctx, owner.UserID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Carts.UpdateItemQuantity(ctx, other, item.ID, 2)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.ErrorIs(t, f.svc.Carts.RemoveItem(ctx, other, item.ID), model.ErrForbidden)

	cart, err := f.svc.Carts.GetCart(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity, "rejected update must not change the item")

	_, err = f.svc.Carts.UpdateItemQuantity(ctx, owner, item.ID, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = f.svc.Carts.UpdateItemQuantity(ctx, owner, item.ID, 6)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	_, err = f.svc.Carts.UpdateItemQuantity(ctx, owner, 9999, 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	updated, err := f.svc.Carts.UpdateItemQuantity(ctx, admin, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	require.NoError(t, f.svc.Carts.RemoveItem(ctx, owner, item.ID))
	assert.ErrorIs(t, f.svc.Carts.RemoveItem(ctx, owner, item.ID), model.ErrNotFound)
}

func TestOrder_FromCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	u := f.user(t, "u@example.com", model.RoleCustomer)
	p1 := f.product(t, seller, "10.00", 5)
	p2 := f.product(t, seller, "2.50", 8)

	_, err := f.svc.Carts.AddItem(ctx, u.UserID, p1.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Carts.AddItem(ctx, u.UserID, p2.ID, 3)
	require.NoError(t, err)

	order, err := f.svc.Orders.CreateFromCart(ctx, u.UserID)
	require.NoError(t, err)
	assert.Len(t, order.OrderNumber, 36)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("27.50")), "total %s", order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, p1.Name, order.Items[0].ProductName)
	assert.True(t, order.Items[0].UnitPrice.Equal(p1.Price))

	assert.Equal(t, 3, f.stock(t, p1.ID))
	assert.Equal(t, 5, f.stock(t, p2.ID))

	cart, err := f.svc.Carts.GetCart(ctx, u.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	orders, err := f.svc.Orders.List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestOrder_EmptyAndMissingCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "u@example.com", model.RoleCustomer)

	_, err := f.svc.Orders.CreateFromCart(ctx, u.UserID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.Carts.GetCart(ctx, u.UserID)
	require.NoError(t, err)
	_, err = f.svc.Orders.CreateFromCart(ctx, u.UserID)
	assert.ErrorIs(t, err, model.ErrEmptyCart)

	orders, err := f.svc.Orders.List(ctx, u.UserID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

// Two buyers each put 3 of a 5-stock product in their cart; the first order
// wins and the second fails without side effects.
func TestOrder_StockRevalidatedAtCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	a := f.user(t, "a@example.com", model.RoleCustomer)
	b := f.user(t, "b@example.com", model.RoleCustomer)
	p := f.product(t, seller, "10.00", 5)

	_, err := f.svc.Carts.AddItem(ctx, a.UserID, p.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.Carts.AddItem(ctx, b.UserID, p.ID, 3)
	require.NoError(t, err)

	_, err = f.svc.Orders.CreateFromCart(ctx, a.UserID)
	require.NoError(t, err)

	_, err = f.svc.Orders.CreateFromCart(ctx, b.UserID)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	assert.Equal(t, 2, f.stock(t, p.ID))
	cart, err := f.svc.Carts.GetCart(ctx, b.UserID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "failed order must leave the cart intact")
	orders, err := f.svc.Orders.List(ctx, b.UserID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrder_FailureRollsBackEveryLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	u := f.user(t, "u@example.com", model.RoleCustomer)
	plenty := f.product(t, seller, "1.00", 10)
	scarce := f.product(t, seller, "1.00", 5)

	_, err := f.svc.Carts.AddItem(ctx, u.UserID, plenty.ID, 4)
	require.NoError(t, err)
	_, err = f.svc.Carts.AddItem(ctx, u.UserID, scarce.ID, 5)
	require.NoError(t, err)

	// Stock drops behind the cart's back.
	require.NoError(t, f.repos.Products.DecrementStock(ctx, scarce.ID, 1))

	_, err = f.svc.Orders.CreateFromCart(ctx, u.UserID)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 10, f.stock(t, plenty.ID))
	assert.Equal(t, 4, f.stock(t, scarce.ID))
}

func TestOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	p := f.product(t, seller, "10.00", 5)

	const buyers = 20
	ids := make([]int64, buyers)
	for i := range ids {
		u := f.user(t, fmt.Sprintf("buyer%d@example.com", i), model.RoleCustomer)
		_, err := f.svc.Carts.AddItem(ctx, u.UserID, p.ID, 1)
		require.NoError(t, err)
		ids[i] = u.UserID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.svc.Orders.CreateFromCart(ctx, userID)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, model.ErrInsufficientStock)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestOrder_GetOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@example.com", model.RoleSeller)
	owner := f.user(t, "owner@example.com", model.RoleCustomer)
	other := f.user(t, "other@example.com", model.RoleCustomer)
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	p := f.product(t, seller, "10.00", 5)

	_, err := f.svc.Carts.AddItem(ctx, owner.UserID, p.ID, 1)
	require.NoError(t, err)
	order, err := f.svc.Orders.CreateFromCart(ctx, owner.UserID)
	require.NoError(t, err)

	_, err = f.svc.Orders.Get(ctx, other, order.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.svc.Orders.Get(ctx, owner, 9999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := f.svc.Orders.Get(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
}
