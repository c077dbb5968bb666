package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/pkg/config"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	"github.com/eventyard/eventyard-backend/pkg/enums"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/pagination"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ProductParams carries the fields for a new product listing.
type ProductParams struct {
	Title      string
	Category   string
	PriceCents int
	Stock      int
}

// ProductUpdate enumerates the patchable product fields. Stock changes move
// through the guarded statements, not through this struct.
type ProductUpdate struct {
	Title      *string
	Category   *string
	PriceCents *int
	Active     *bool
}

// ListProductsParams configures catalog pagination.
type ListProductsParams struct {
	Category string
	Limit    int
	Cursor   string
}

// ProductList wraps returned products and the cursor for the next page.
type ProductList struct {
	Items  []models.Product `json:"items"`
	Cursor string           `json:"cursor"`
}

// CartLine is one cart row joined with its product and line total.
type CartLine struct {
	Item       models.CartItem `json:"item"`
	Product    models.Product  `json:"product"`
	TotalCents int             `json:"total_cents"`
}

// Cart is a user's open cart with computed totals.
type Cart struct {
	Lines         []CartLine `json:"lines"`
	SubtotalCents int        `json:"subtotal_cents"`
	FeeCents      int        `json:"fee_cents"`
	TotalCents    int        `json:"total_cents"`
}

// OrderList wraps returned orders and the cursor for the next page.
type OrderList struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the product catalog, carts, and order placement.
type Service interface {
	CreateProduct(ctx context.Context, actor Actor, params ProductParams) (*models.Product, error)
	UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, updates ProductUpdate) (*models.Product, error)
	RestockProduct(ctx context.Context, actor Actor, id uuid.UUID, qty int) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) (*ProductList, error)
	ListVendorProducts(ctx context.Context, vendorUserID uuid.UUID) ([]models.Product, error)

	AddToCart(ctx context.Context, userID, productID uuid.UUID, qty int) (*Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) (*Cart, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)

	PlaceOrder(ctx context.Context, actor Actor) (*models.Order, error)
	CancelOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, actor Actor, limit int, cursor string) (*OrderList, error)
}

// ServiceParams groups dependencies for the marketplace service.
type ServiceParams struct {
	DB       TxRunner
	Repo     Repository
	Notifier notifications.Service
	Logger   *logger.Logger
	Config   config.MarketplaceConfig
	Now      func() time.Time
}

type service struct {
	db       TxRunner
	repo     Repository
	notifier notifications.Service
	logger   *logger.Logger
	cfg      config.MarketplaceConfig
	now      func() time.Time
}

// NewService wires the marketplace service. Notifier may be nil.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		notifier: params.Notifier,
		logger:   params.Logger,
		cfg:      params.Config,
		now:      now,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, actor Actor, params ProductParams) (*models.Product, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product title is required")
	}
	category := strings.TrimSpace(strings.ToLower(params.Category))
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if params.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if params.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		ID:           uuid.New(),
		VendorUserID: actor.UserID,
		Title:        title,
		Category:     category,
		PriceCents:   params.PriceCents,
		Stock:        params.Stock,
		Active:       true,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, updates ProductUpdate) (*models.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.VendorUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the product vendor")
	}

	fields := map[string]any{}
	if updates.Title != nil {
		title := strings.TrimSpace(*updates.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product title cannot be empty")
		}
		fields["title"] = title
	}
	if updates.Category != nil {
		category := strings.TrimSpace(strings.ToLower(*updates.Category))
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be empty")
		}
		fields["category"] = category
	}
	if updates.PriceCents != nil {
		if *updates.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		fields["price_cents"] = *updates.PriceCents
	}
	if updates.Active != nil {
		fields["active"] = *updates.Active
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateProduct(ctx, id, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
	}
	return s.findProduct(ctx, id)
}

// RestockProduct adds qty units through the release statement so it composes
// with in-flight claims.
func (s *service) RestockProduct(ctx context.Context, actor Actor, id uuid.UUID, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.VendorUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the product vendor")
	}
	if err := s.repo.ReleaseStock(ctx, id, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
	}
	return s.findProduct(ctx, id)
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params ListProductsParams) (*ProductList, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.ListProducts(ctx, strings.TrimSpace(strings.ToLower(params.Category)), params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &ProductList{
		Items:  rows,
		Cursor: encoded,
	}, nil
}

func (s *service) ListVendorProducts(ctx context.Context, vendorUserID uuid.UUID) ([]models.Product, error) {
	if vendorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	products, err := s.repo.ListProductsForVendor(ctx, vendorUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor products")
	}
	return products, nil
}

func (s *service) AddToCart(ctx context.Context, userID, productID uuid.UUID, qty int) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only %d units in stock", product.Stock))
	}

	now := s.now().UTC()
	err = s.repo.UpsertCartItem(ctx, &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Qty:       qty,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if _, err := s.repo.RemoveCartItem(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	items, err := s.repo.ListCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart := &Cart{Lines: make([]CartLine, 0, len(items))}
	subtotal := decimal.Zero
	for _, item := range items {
		product, err := s.findProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		line := decimal.NewFromInt(int64(product.PriceCents)).
			Mul(decimal.NewFromInt(int64(item.Qty)))
		subtotal = subtotal.Add(line)
		cart.Lines = append(cart.Lines, CartLine{
			Item:       item,
			Product:    *product,
			TotalCents: int(line.IntPart()),
		})
	}

	fee := subtotal.Mul(decimal.NewFromInt(int64(s.cfg.ServiceFeePct))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	cart.SubtotalCents = int(subtotal.IntPart())
	cart.FeeCents = int(fee.IntPart())
	cart.TotalCents = cart.SubtotalCents + cart.FeeCents
	return cart, nil
}

// PlaceOrder turns the cart into an order inside one transaction. Stock is
// claimed per line with the guarded decrement; any failed claim aborts the
// whole order.
func (s *service) PlaceOrder(ctx context.Context, actor Actor) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	cart, err := s.GetCart(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := &models.Order{
		ID:            uuid.New(),
		BuyerUserID:   actor.UserID,
		Status:        enums.OrderPlaced,
		SubtotalCents: cart.SubtotalCents,
		FeeCents:      cart.FeeCents,
		TotalCents:    cart.TotalCents,
	}
	for _, line := range cart.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.Product.ID,
			Title:          line.Product.Title,
			Qty:            line.Item.Qty,
			UnitPriceCents: line.Product.PriceCents,
		})
	}
	order.PaymentIntent = &models.PaymentIntent{
		ID:          uuid.New(),
		OrderID:     order.ID,
		AmountCents: cart.TotalCents,
		Status:      enums.PaymentIntentCreated,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, line := range cart.Lines {
			claimed, err := txRepo.ClaimStock(ctx, line.Product.ID, line.Item.Qty)
			if err != nil {
				return err
			}
			if !claimed {
				return pkgerrors.New(pkgerrors.CodeOversold,
					fmt.Sprintf("insufficient stock for %s", line.Product.Title))
			}
		}
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return txRepo.ClearCart(ctx, actor.UserID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	s.notifyOrder(ctx, actor.UserID, order)
	return s.repo.FindOrderByID(ctx, order.ID)
}

// CancelOrder releases the claimed stock and voids the payment intent. Only
// PLACED orders cancel; the guarded transition makes repeats state conflicts.
func (s *service) CancelOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the order buyer")
	}

	cancelledAt := s.now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		ok, err := txRepo.TransitionOrderStatus(ctx, orderID, enums.OrderPlaced, enums.OrderCancelled, map[string]any{
			"cancelled_at": cancelledAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order cannot be cancelled from status %s", order.Status))
		}
		for _, item := range order.Items {
			if err := txRepo.ReleaseStock(ctx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}
		return txRepo.SetPaymentIntentStatus(ctx, orderID, enums.PaymentIntentVoided)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return s.findOrder(ctx, orderID)
}

func (s *service) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerUserID != actor.UserID && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the order buyer")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, actor Actor, limit int, cursorToken string) (*OrderList, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	var cursor *pagination.Cursor
	if cursorToken != "" {
		parsed, err := pagination.ParseCursor(cursorToken)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.ListOrdersForBuyer(ctx, actor.UserID, limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	encoded := ""
	if next != nil {
		encoded = pagination.EncodeCursor(*next)
	}
	return &OrderList{
		Items:  rows,
		Cursor: encoded,
	}, nil
}

func (s *service) notifyOrder(ctx context.Context, userID uuid.UUID, order *models.Order) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Create(ctx, notifications.CreateParams{
		UserID:  userID,
		Type:    enums.NotificationOrder,
		Title:   "Order placed",
		Message: fmt.Sprintf("Your order for %d item(s) totalling %d cents was placed.", len(order.Items), order.TotalCents),
	})
	if err != nil {
		s.logger.Error(ctx, "order notification failed", err)
	}
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
