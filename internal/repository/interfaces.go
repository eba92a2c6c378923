package repository

import (
	"context"

	"fsanano/mini-shop/internal/model"
)

// Transactor scopes a unit of work. Implementations commit when fn returns nil
// and roll back otherwise.
type Transactor interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *model.Address) error
	GetByID(ctx context.Context, id int64) (*model.Address, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Address, error)
	Update(ctx context.Context, address *model.Address) error
	Delete(ctx context.Context, id int64) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// GetForUpdate reads the product and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, offset, limit int) ([]model.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error
	// DecrementStock fails with model.ErrInsufficientStock instead of going negative.
	DecrementStock(ctx context.Context, id int64, quantity int) error
}

type CartRepository interface {
	Create(ctx context.Context, userID int64) (*model.Cart, error)
	GetByUser(ctx context.Context, userID int64) (*model.Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]model.CartItem, error)
	GetItem(ctx context.Context, itemID int64) (*model.CartItem, error)
	GetItemByProduct(ctx context.Context, cartID, productID int64) (*model.CartItem, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
}

type OrderRepository interface {
	// Create inserts the order and its line items, filling in generated ids.
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ListByProduct(ctx context.Context, productID int64) ([]model.Review, error)
	Summary(ctx context.Context, productID int64) (model.RatingSummary, error)
}

// Repositories bundles one store backend.
type Repositories struct {
	Tx         Transactor
	Users      UserRepository
	Addresses  AddressRepository
	Categories CategoryRepository
	Products   ProductRepository
	Carts      CartRepository
	Orders     OrderRepository
	Reviews    ReviewRepository
}

// NewPostgres wires every repository onto the same pool-backed DB.
func NewPostgres(db *DB) Repositories {
	return Repositories{
		Tx:         db,
		Users:      NewUserRepository(db),
		Addresses:  NewAddressRepository(db),
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Carts:      NewCartRepository(db),
		Orders:     NewOrderRepository(db),
		Reviews:    NewReviewRepository(db),
	}
}
