package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
)

// InvoiceStore defines the DB methods used by the invoice service.
type InvoiceStore interface {
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderLinesRow, error)
	GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error)
	CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error)
	CreateInvoiceItem(ctx context.Context, arg database.CreateInvoiceItemParams) (database.InvoiceItem, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListInvoices(ctx context.Context) ([]database.Invoice, error)
	ListInvoiceItems(ctx context.Context, invoiceID uuid.UUID) ([]database.InvoiceItem, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) (database.Invoice, error)
	ReopenOrder(ctx context.Context, id uuid.UUID) (int64, error)
}

// NewInvoiceStore creates an InvoiceStore from a DBTX (pool or tx).
type NewInvoiceStore func(db database.DBTX) InvoiceStore

// CreateInvoiceRequest is the input for invoicing an order.
type CreateInvoiceRequest struct {
	Actor         Actor
	OrderID       uuid.UUID
	PaymentMethod string
}

// InvoiceLine is one frozen product line on an invoice.
type InvoiceLine struct {
	ProductID uuid.UUID
	Name      string
	Amount    int32
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// InvoiceResult is an invoice header with its product lines.
type InvoiceResult struct {
	Invoice  database.Invoice
	Products []InvoiceLine
}

// InvoiceService handles invoicing.
type InvoiceService struct {
	pool     TxBeginner
	store    InvoiceStore
	newStore NewInvoiceStore
}

func NewInvoiceService(pool TxBeginner, store InvoiceStore, newStore NewInvoiceStore) *InvoiceService {
	return &InvoiceService{pool: pool, store: store, newStore: newStore}
}

// CreateInvoice totals the order's current lines, stores the invoice with a
// frozen copy of those lines and marks the order COMPLETED, all in one
// transaction.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResult, error) {
	if err := req.Actor.authorize(); err != nil {
		return nil, err
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, ErrPaymentMethod
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

	if _, err := store.GetInvoiceByOrder(ctx, order.ID); err == nil {
		return nil, ErrInvoiceExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check invoice: %w", err)
	}

	lines, err := store.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Amount, NumericToDecimal(l.UnitPrice)))
	}

	invoice, err := store.CreateInvoice(ctx, database.CreateInvoiceParams{
		OrderID:       order.ID,
		EmployeeID:    req.Actor.UserID,
		TotalPayment:  decimalToNumeric(total),
		PaymentMethod: method,
	})
	if err != nil {
		if isDuplicateInvoice(err) {
			return nil, ErrInvoiceExists
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	products := make([]InvoiceLine, 0, len(lines))
	for i, l := range lines {
		item, err := store.CreateInvoiceItem(ctx, database.CreateInvoiceItemParams{
			InvoiceID:   invoice.ID,
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Amount:      l.Amount,
			UnitPrice:   l.UnitPrice,
		})
		if err != nil {
			return nil, fmt.Errorf("create invoice item[%d]: %w", i, err)
		}
		products = append(products, invoiceLine(item))
	}

	if _, err := store.CompleteOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isDuplicateInvoice(err) {
			return nil, ErrInvoiceExists
		}
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &InvoiceResult{Invoice: invoice, Products: products}, nil
}

// isDuplicateInvoice matches the unique violation raised when a concurrent
// request invoiced the same order first.
func isDuplicateInvoice(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "invoices_order_id_key"
	}
	return false
}

func invoiceLine(item database.InvoiceItem) InvoiceLine {
	price := NumericToDecimal(item.UnitPrice)
	return InvoiceLine{
		ProductID: item.ProductID,
		Name:      item.ProductName,
		Amount:    item.Amount,
		UnitPrice: price,
		Subtotal:  LineTotal(item.Amount, price),
	}
}

// ListInvoices returns all invoices, newest first.
func (s *InvoiceService) ListInvoices(ctx context.Context) ([]database.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if invoices == nil {
		invoices = []database.Invoice{}
	}
	return invoices, nil
}

// GetInvoice returns the invoice of an order. Lines come from the frozen
// invoice items, so this keeps working after the order is deleted.
func (s *InvoiceService) GetInvoice(ctx context.Context, orderID uuid.UUID) (*InvoiceResult, error) {
	invoice, err := s.store.GetInvoiceByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := s.store.ListInvoiceItems(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}

	products := make([]InvoiceLine, 0, len(items))
	for _, item := range items {
		products = append(products, invoiceLine(item))
	}
	return &InvoiceResult{Invoice: invoice, Products: products}, nil
}

// DeleteInvoice removes an invoice and returns its order, if still present,
// to PENDING in the same transaction.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) (*database.Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	invoice, err := store.DeleteInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("delete invoice: %w", err)
	}
	if _, err := store.ReopenOrder(ctx, invoice.OrderID); err != nil {
		return nil, fmt.Errorf("reopen order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &invoice, nil
}

// OrderIsSettled reports whether an order row says it has been invoiced.
func OrderIsSettled(o database.Order) bool {
	return string(o.Status) == enum.OrderStatusCompleted
}
