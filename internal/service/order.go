package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods used by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetProductByName(ctx context.Context, name string) (database.Product, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderDetail(ctx context.Context, arg database.CreateOrderDetailParams) (database.OrderDetail, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context) ([]database.ListOrdersRow, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderLinesRow, error)
	ListOrderDetails(ctx context.Context, orderID uuid.UUID) ([]database.OrderDetail, error)
	OrderHasInvoice(ctx context.Context, orderID uuid.UUID) (bool, error)
	UpdateOrderTable(ctx context.Context, arg database.UpdateOrderTableParams) (database.Order, error)
	UpdateOrderDetail(ctx context.Context, arg database.UpdateOrderDetailParams) (database.OrderDetail, error)
	DeleteOrderDetailsExcept(ctx context.Context, arg database.DeleteOrderDetailsExceptParams) (int64, error)
	DeleteOrderDetails(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderItemRequest names a product and how many of it to serve.
type OrderItemRequest struct {
	Name   string
	Amount int32
}

// CreateOrderRequest is the input for creating an order.
type CreateOrderRequest struct {
	Actor       Actor
	TableNumber int32
	Items       []OrderItemRequest
}

// AmendOrderRequest replaces the table number and the full item set of an order.
type AmendOrderRequest struct {
	OrderID     uuid.UUID
	TableNumber int32
	Items       []OrderItemRequest
}

// OrderResult is an order with its detail lines.
type OrderResult struct {
	Order      database.Order
	HasInvoice bool
	Details    []database.OrderDetail
}

// OrderView is an order with lines joined to product names, for display.
type OrderView struct {
	Order      database.Order
	HasInvoice bool
	Lines      []database.ListOrderLinesRow
}

// DeletedOrder reports the removed order and whether an invoice outlives it.
type DeletedOrder struct {
	Order      database.Order
	HasInvoice bool
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store serves reads outside a
// transaction; newStore binds a store to a transaction for writes.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

type resolvedItem struct {
	product database.Product
	amount  int32
}

// CreateOrder validates the request, resolves each product by exact name and
// inserts the order with one price-snapshotted detail per product, atomically.
// Repeated names are merged into one line.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if err := req.Actor.authorize(); err != nil {
		return nil, err
	}
	if req.TableNumber <= 0 {
		return nil, ErrInvalidTable
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidItem)
		}
		if item.Amount <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidAmount)
		}
	}
	// Lookup is exact, so equal names are the lines that merge.
	if err := checkMergedAmounts(req.Items, func(name string) string { return name }); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	var items []resolvedItem
	for i, item := range req.Items {
		product, err := store.GetProductByName(ctx, item.Name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d] %q: %w", i, item.Name, ErrProductNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}
		items = append(items, resolvedItem{product: product, amount: item.Amount})
	}
	items = mergeByProduct(items)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		EmployeeID:  req.Actor.UserID,
		TableNumber: req.TableNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	details := make([]database.OrderDetail, 0, len(items))
	for i, item := range items {
		detail, err := store.CreateOrderDetail(ctx, database.CreateOrderDetailParams{
			OrderID:   order.ID,
			ProductID: item.product.ID,
			Amount:    item.amount,
			UnitPrice: item.product.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("create order detail[%d]: %w", i, err)
		}
		details = append(details, detail)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Details: details}, nil
}

// checkMergedAmounts rejects requests whose repeated lines, once merged under
// key, would not fit a line amount. The error names the line that overflows.
func checkMergedAmounts(items []OrderItemRequest, key func(name string) string) error {
	totals := make(map[string]int64, len(items))
	for i, item := range items {
		k := key(item.Name)
		totals[k] += int64(item.Amount)
		if totals[k] > math.MaxInt32 {
			return fmt.Errorf("item[%d]: merged amount exceeds %d: %w", i, math.MaxInt32, ErrInvalidAmount)
		}
	}
	return nil
}

func mergeByProduct(items []resolvedItem) []resolvedItem {
	groups := lo.GroupBy(items, func(it resolvedItem) uuid.UUID { return it.product.ID })
	order := lo.Uniq(lo.Map(items, func(it resolvedItem, _ int) uuid.UUID { return it.product.ID }))
	return lo.Map(order, func(id uuid.UUID, _ int) resolvedItem {
		group := groups[id]
		return resolvedItem{
			product: group[0].product,
			amount:  lo.SumBy(group, func(it resolvedItem) int32 { return it.amount }),
		}
	})
}

// ListOrders returns every order with its has_invoice flag, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]database.ListOrdersRow, error) {
	rows, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if rows == nil {
		rows = []database.ListOrdersRow{}
	}
	return rows, nil
}

// GetOrder returns one order with its product lines.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	hasInvoice, err := s.store.OrderHasInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w", err)
	}
	lines, err := s.store.ListOrderLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	if lines == nil {
		lines = []database.ListOrderLinesRow{}
	}
	return &OrderView{Order: order, HasInvoice: hasInvoice, Lines: lines}, nil
}

type mergedItem struct {
	name   string
	amount int32
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// mergeByName folds items whose trimmed, case-folded names match, summing
// amounts. The first spelling of each name is kept.
func mergeByName(items []OrderItemRequest) []mergedItem {
	var merged []mergedItem
	index := map[string]int{}
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		key := nameKey(name)
		if i, ok := index[key]; ok {
			merged[i].amount += item.Amount
			continue
		}
		index[key] = len(merged)
		merged = append(merged, mergedItem{name: name, amount: item.Amount})
	}
	return merged
}

// AmendOrder sets the table number and makes the order's detail set exactly
// the merged request items. Kept lines take the current catalog price.
func (s *OrderService) AmendOrder(ctx context.Context, req AmendOrderRequest) (*OrderResult, error) {
	if req.TableNumber <= 0 {
		return nil, ErrInvalidTable
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidItem)
		}
		if item.Amount <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidAmount)
		}
	}
	if err := checkMergedAmounts(req.Items, nameKey); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if OrderIsSettled(order) {
		return nil, ErrOrderCompleted
	}

	order, err = store.UpdateOrderTable(ctx, database.UpdateOrderTableParams{
		TableNumber: req.TableNumber,
		ID:          req.OrderID,
	})
	if err != nil {
		return nil, fmt.Errorf("update table number: %w", err)
	}

	existing, err := store.ListOrderDetails(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("list order details: %w", err)
	}
	byProduct := lo.KeyBy(existing, func(d database.OrderDetail) uuid.UUID { return d.ProductID })

	var (
		keep    []uuid.UUID
		details []database.OrderDetail
	)
	for i, item := range mergeByName(req.Items) {
		product, err := store.GetProductByName(ctx, item.name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d] %q: %w", i, item.name, ErrUnknownProduct)
			}
			return nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}
		keep = append(keep, product.ID)

		var detail database.OrderDetail
		if current, ok := byProduct[product.ID]; ok {
			detail, err = store.UpdateOrderDetail(ctx, database.UpdateOrderDetailParams{
				Amount:    item.amount,
				UnitPrice: product.Price,
				ID:        current.ID,
			})
		} else {
			detail, err = store.CreateOrderDetail(ctx, database.CreateOrderDetailParams{
				OrderID:   req.OrderID,
				ProductID: product.ID,
				Amount:    item.amount,
				UnitPrice: product.Price,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("item[%d]: save detail: %w", i, err)
		}
		details = append(details, detail)
	}

	if _, err := store.DeleteOrderDetailsExcept(ctx, database.DeleteOrderDetailsExceptParams{
		OrderID:        req.OrderID,
		KeepProductIds: keep,
	}); err != nil {
		return nil, fmt.Errorf("delete dropped details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Details: details}, nil
}

// DeleteOrder removes the order and its details. An existing invoice is left
// untouched and reported through HasInvoice.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) (*DeletedOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	hasInvoice, err := store.OrderHasInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w", err)
	}
	if err := store.DeleteOrderDetails(ctx, id); err != nil {
		return nil, fmt.Errorf("delete order details: %w", err)
	}
	order, err := store.DeleteOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &DeletedOrder{Order: order, HasInvoice: hasInvoice}, nil
}

// LineTotal is amount × unit price.
func LineTotal(amount int32, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(amount))
}
