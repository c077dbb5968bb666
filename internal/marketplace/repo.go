package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Repository exposes persistence helpers for products, carts, and orders.
// Stock moves only through the guarded claim/release statements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListProducts(ctx context.Context, category string, limit int, cursor *pagination.Cursor) ([]models.Product, *pagination.Cursor, error)
	ListProductsForVendor(ctx context.Context, vendorUserID uuid.UUID) ([]models.Product, error)
	ClaimStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error

	UpsertCartItem(ctx context.Context, item *models.CartItem) error
	RemoveCartItem(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	ListCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error

	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersForBuyer(ctx context.Context, buyerUserID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	SetPaymentIntentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentIntentStatus) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a marketplace repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (r *repositoryImpl) ListProducts(ctx context.Context, category string, limit int, cursor *pagination.Cursor) ([]models.Product, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > normalized {
		products = products[:normalized]
		last := products[len(products)-1]
		return products, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return products, nil, nil
}

func (r *repositoryImpl) ListProductsForVendor(ctx context.Context, vendorUserID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("vendor_user_id = ?", vendorUserID).
		Order("created_at DESC").
		Find(&products).
		Error
	return products, err
}

// ClaimStock atomically takes qty units. Zero rows means insufficient stock.
func (r *repositoryImpl) ClaimStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock - ? WHERE id = ? AND active = ? AND stock >= ?`,
		qty, productID, true, qty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ReleaseStock(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ? WHERE id = ?`,
		qty, productID,
	).Error
}

func (r *repositoryImpl) UpsertCartItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO cart_items (id, user_id, product_id, qty, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, product_id) DO UPDATE SET qty = ?, updated_at = ?`,
		item.ID, item.UserID, item.ProductID, item.Qty, item.CreatedAt, item.UpdatedAt,
		item.Qty, item.UpdatedAt,
	).Error
}

func (r *repositoryImpl) RemoveCartItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).
		Error
	return items, err
}

func (r *repositoryImpl) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).
		Error
}

func (r *repositoryImpl) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("PaymentIntent").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListOrdersForBuyer(ctx context.Context, buyerUserID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	bufferLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("buyer_user_id = ?", buyerUserID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(bufferLimit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		orders = orders[:normalized]
		last := orders[len(orders)-1]
		return orders, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

func (r *repositoryImpl) TransitionOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	fields := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range updates {
		fields[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) SetPaymentIntentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentIntentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("order_id = ?", orderID).
		Update("status", status).
		Error
}
