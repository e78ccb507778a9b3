package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func burgerOrder() CreateOrderRequest {
	return CreateOrderRequest{
		Actor:       staff,
		TableNumber: 5,
		Items:       []OrderItemRequest{{Name: "Burger", Amount: 2}},
	}
}

func TestCreateOrder_ActorChecks(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		want  error
	}{
		{"anonymous", Actor{}, ErrUnauthenticated},
		{"unknown role", Actor{UserID: uuid.New(), Role: "UNKNOWN"}, ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newMemPool()
			p.addProduct("Burger", "8.50")
			svc := newOrderServiceWith(p)

			req := burgerOrder()
			req.Actor = tc.actor
			_, err := svc.CreateOrder(context.Background(), req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if p.begins != 0 {
				t.Error("no transaction should be started for a rejected actor")
			}
		})
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateOrderRequest
		want error
	}{
		{"zero table", CreateOrderRequest{Actor: staff, TableNumber: 0, Items: []OrderItemRequest{{Name: "Burger", Amount: 1}}}, ErrInvalidTable},
		{"no items", CreateOrderRequest{Actor: staff, TableNumber: 1}, ErrEmptyItems},
		{"zero amount", CreateOrderRequest{Actor: staff, TableNumber: 1, Items: []OrderItemRequest{{Name: "Burger", Amount: 0}}}, ErrInvalidAmount},
		{"negative amount", CreateOrderRequest{Actor: staff, TableNumber: 1, Items: []OrderItemRequest{{Name: "Burger", Amount: -2}}}, ErrInvalidAmount},
		{"blank name", CreateOrderRequest{Actor: staff, TableNumber: 1, Items: []OrderItemRequest{{Name: "  ", Amount: 1}}}, ErrInvalidItem},
		{"merged amount overflows", CreateOrderRequest{Actor: staff, TableNumber: 1, Items: []OrderItemRequest{{Name: "Burger", Amount: math.MaxInt32}, {Name: "Burger", Amount: 1}}}, ErrInvalidAmount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newMemPool()
			p.addProduct("Burger", "8.50")
			_, err := newOrderServiceWith(p).CreateOrder(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !IsValidationError(err) {
				t.Errorf("%v should classify as a validation error", err)
			}
			if p.begins != 0 {
				t.Error("invalid input must be rejected before a transaction starts")
			}
		})
	}
}

func TestCreateOrder_SnapshotsPrice(t *testing.T) {
	p := newMemPool()
	burger := p.addProduct("Burger", "8.50")
	svc := newOrderServiceWith(p)

	result, err := svc.CreateOrder(context.Background(), burgerOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Order.TableNumber != 5 {
		t.Errorf("table_number: got %d, want 5", result.Order.TableNumber)
	}
	if result.Order.Status != "PENDING" {
		t.Errorf("status: got %s, want PENDING", result.Order.Status)
	}
	if result.Order.EmployeeID != staff.UserID {
		t.Errorf("employee_id: got %v, want %v", result.Order.EmployeeID, staff.UserID)
	}
	if len(result.Details) != 1 {
		t.Fatalf("details: got %d, want 1", len(result.Details))
	}
	d := result.Details[0]
	if d.ProductID != burger.ID || d.Amount != 2 || !numericEquals(d.UnitPrice, "8.50") {
		t.Errorf("detail: got product=%v amount=%d price=%s", d.ProductID, d.Amount, Money(d.UnitPrice))
	}

	if got := len(p.detailsOf(result.Order.ID)); got != 1 {
		t.Errorf("persisted details: got %d, want 1", got)
	}
	if p.commits != 1 {
		t.Errorf("commits: got %d, want 1", p.commits)
	}
}

func TestCreateOrder_ProductNotFoundRollsBack(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	svc := newOrderServiceWith(p)

	req := burgerOrder()
	req.Items = append(req.Items, OrderItemRequest{Name: "Unicorn Steak", Amount: 1})

	_, err := svc.CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if len(p.db.orders) != 0 || len(p.db.details) != 0 {
		t.Error("no order or detail should be persisted")
	}
	if p.rollbacks != 1 {
		t.Errorf("rollbacks: got %d, want 1", p.rollbacks)
	}
}

func TestCreateOrder_NameMatchIsExact(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")

	req := burgerOrder()
	req.Items = []OrderItemRequest{{Name: "burger", Amount: 1}}
	_, err := newOrderServiceWith(p).CreateOrder(context.Background(), req)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCreateOrder_DetailFailureRollsBack(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	p.addProduct("Fries", "3.00")
	p.fail = func(op string) error {
		if op == "CreateOrderDetail" {
			return errors.New("connection reset")
		}
		return nil
	}

	req := burgerOrder()
	req.Items = append(req.Items, OrderItemRequest{Name: "Fries", Amount: 1})
	_, err := newOrderServiceWith(p).CreateOrder(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	if IsValidationError(err) || IsNotFound(err) {
		t.Errorf("store failure must not look like a caller error: %v", err)
	}
	if len(p.db.orders) != 0 {
		t.Error("order row must be rolled back")
	}
}

func TestCreateOrder_MergesRepeatedNames(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	p.addProduct("Fries", "3.00")

	req := burgerOrder()
	req.Items = []OrderItemRequest{
		{Name: "Burger", Amount: 1},
		{Name: "Fries", Amount: 1},
		{Name: "Burger", Amount: 2},
	}
	result, err := newOrderServiceWith(p).CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Details) != 2 {
		t.Fatalf("details: got %d, want 2", len(result.Details))
	}
	if result.Details[0].Amount != 3 {
		t.Errorf("merged burger amount: got %d, want 3", result.Details[0].Amount)
	}
	assertUniqueOrderProducts(t, p)
}

func TestCreateOrder_MergedAmountAtLimit(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")

	req := burgerOrder()
	req.Items = []OrderItemRequest{
		{Name: "Burger", Amount: math.MaxInt32 - 1},
		{Name: "Burger", Amount: 1},
	}
	result, err := newOrderServiceWith(p).CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Details[0].Amount; got != math.MaxInt32 {
		t.Errorf("merged amount: got %d, want %d", got, int32(math.MaxInt32))
	}
}

func TestCreateOrder_BeginError(t *testing.T) {
	p := newMemPool()
	p.beginErr = errors.New("pool exhausted")
	_, err := newOrderServiceWith(p).CreateOrder(context.Background(), burgerOrder())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestListOrders_EmptyIsNotAnError(t *testing.T) {
	rows, err := newOrderServiceWith(newMemPool()).ListOrders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestListOrders_HasInvoiceFlag(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	orders := newOrderServiceWith(p)
	invoices := newInvoiceServiceWith(p)
	ctx := context.Background()

	first, _ := orders.CreateOrder(ctx, burgerOrder())
	second, _ := orders.CreateOrder(ctx, burgerOrder())
	if _, err := invoices.CreateInvoice(ctx, CreateInvoiceRequest{Actor: staff, OrderID: first.Order.ID, PaymentMethod: "Cash"}); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	rows, err := orders.ListOrders(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0].ID != second.Order.ID {
		t.Error("expected newest order first")
	}
	for _, row := range rows {
		if row.HasInvoice != (row.ID == first.Order.ID) {
			t.Errorf("order %v: has_invoice=%v", row.ID, row.HasInvoice)
		}
	}
	assertStatusMatchesInvoices(t, p)
}

func TestGetOrder(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	p.addProduct("Fries", "3.00")
	svc := newOrderServiceWith(p)
	ctx := context.Background()

	req := burgerOrder()
	req.Items = append(req.Items, OrderItemRequest{Name: "Fries", Amount: 1})
	created, _ := svc.CreateOrder(ctx, req)

	view, err := svc.GetOrder(ctx, created.Order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.HasInvoice {
		t.Error("new order should not have an invoice")
	}
	if len(view.Lines) != 2 || view.Lines[0].Name != "Burger" || view.Lines[1].Name != "Fries" {
		t.Errorf("lines: %+v", view.Lines)
	}

	_, err = svc.GetOrder(ctx, uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestAmendOrder_UpdatesExistingLine(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	svc := newOrderServiceWith(p)
	ctx := context.Background()

	created, _ := svc.CreateOrder(ctx, burgerOrder())
	detailID := created.Details[0].ID

	_, err := svc.AmendOrder(ctx, AmendOrderRequest{
		OrderID:     created.Order.ID,
		TableNumber: 5,
		Items:       []OrderItemRequest{{Name: "Burger", Amount: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	details := p.detailsOf(created.Order.ID)
	if len(details) != 1 {
		t.Fatalf("details: got %d, want 1", len(details))
	}
	if details[0].ID != detailID {
		t.Error("existing detail row should be updated in place")
	}
	if details[0].Amount != 3 {
		t.Errorf("amount: got %d, want 3", details[0].Amount)
	}
}

func TestAmendOrder_ReplacesItemSet(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	p.addProduct("Fries", "3.00")
	cola := p.addProduct("Cola", "2.00")
	svc := newOrderServiceWith(p)
	ctx := context.Background()

	req := burgerOrder()
	req.Items = append(req.Items, OrderItemRequest{Name: "Fries", Amount: 1})
	created, _ := svc.CreateOrder(ctx, req)

	result, err := svc.AmendOrder(ctx, AmendOrderRequest{
		OrderID:     created.Order.ID,
		TableNumber: 9,
		Items: []OrderItemRequest{
			{Name: " Cola ", Amount: 1},
			{Name: "cola", Amount: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Order.TableNumber != 9 {
		t.Errorf("table_number: got %d, want 9", result.Order.TableNumber)
	}

	details := p.detailsOf(created.Order.ID)
	if len(details) != 1 {
		t.Fatalf("details: got %d, want 1 (burger and fries dropped)", len(details))
	}
	if details[0].ProductID != cola.ID || details[0].Amount != 3 {
		t.Errorf("detail: got product=%v amount=%d", details[0].ProductID, details[0].Amount)
	}
	assertUniqueOrderProducts(t, p)
}

func TestAmendOrder_IsAtomic(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	p.addProduct("Fries", "3.00")
	svc := newOrderServiceWith(p)
	ctx := context.Background()

	created, _ := svc.CreateOrder(ctx, burgerOrder())

	_, err := svc.AmendOrder(ctx, AmendOrderRequest{
		OrderID:     created.Order.ID,
		TableNumber: 12,
		Items: []OrderItemRequest{
			{Name: "Burger", Amount: 7},
			{Name: "Fries", Amount: 1},
			{Name: "Ghost Pepper Wings", Amount: 1},
		},
	})
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
	if !IsValidationError(err) {
		t.Error("unknown product on amend should be a validation error")
	}

	order := p.db.orders[created.Order.ID]
	if order.TableNumber != 5 {
		t.Errorf("table number must be rolled back: got %d", order.TableNumber)
	}
	details := p.detailsOf(created.Order.ID)
	if len(details) != 1 || details[0].Amount != 2 {
		t.Errorf("details must be untouched: %+v", details)
	}
}

func TestAmendOrder_ResnapshotsPrice(t *testing.T) {
	p := newMemPool()
	burger := p.addProduct("Burger", "8.50")
	svc := newOrderServiceWith(p)
	ctx := context.Background()

	created, _ := svc.CreateOrder(ctx, burgerOrder())
	p.setPrice(burger.ID, "9.25")

	_, err := svc.AmendOrder(ctx, AmendOrderRequest{
		OrderID:     created.Order.ID,
		TableNumber: 5,
		Items:       []OrderItemRequest{{Name: "Burger", Amount: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	details := p.detailsOf(created.Order.ID)
	if !numericEquals(details[0].UnitPrice, "9.25") {
		t.Errorf("pending line should take the current price, got %s", Money(details[0].UnitPrice))
	}
}

func TestAmendOrder_Rejections(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	orders := newOrderServiceWith(p)
	invoices := newInvoiceServiceWith(p)
	ctx := context.Background()

	created, _ := orders.CreateOrder(ctx, burgerOrder())
	invoiced, _ := orders.CreateOrder(ctx, burgerOrder())
	if _, err := invoices.CreateInvoice(ctx, CreateInvoiceRequest{Actor: staff, OrderID: invoiced.Order.ID, PaymentMethod: "Card"}); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	items := []OrderItemRequest{{Name: "Burger", Amount: 1}}
	tests := []struct {
		name string
		req  AmendOrderRequest
		want error
	}{
		{"bad table", AmendOrderRequest{OrderID: created.Order.ID, TableNumber: -1, Items: items}, ErrInvalidTable},
		{"no items", AmendOrderRequest{OrderID: created.Order.ID, TableNumber: 1}, ErrEmptyItems},
		{"zero amount", AmendOrderRequest{OrderID: created.Order.ID, TableNumber: 1, Items: []OrderItemRequest{{Name: "Burger"}}}, ErrInvalidAmount},
		{"merged amount overflows", AmendOrderRequest{OrderID: created.Order.ID, TableNumber: 1, Items: []OrderItemRequest{{Name: "Burger", Amount: math.MaxInt32}, {Name: " burger ", Amount: 1}}}, ErrInvalidAmount},
		{"missing order", AmendOrderRequest{OrderID: uuid.New(), TableNumber: 1, Items: items}, ErrOrderNotFound},
		{"invoiced order", AmendOrderRequest{OrderID: invoiced.Order.ID, TableNumber: 1, Items: items}, ErrOrderCompleted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orders.AmendOrder(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	svc := newOrderServiceWith(p)
	ctx := context.Background()

	created, _ := svc.CreateOrder(ctx, burgerOrder())

	deleted, err := svc.DeleteOrder(ctx, created.Order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.HasInvoice {
		t.Error("has_invoice should be false")
	}
	if _, ok := p.db.orders[created.Order.ID]; ok {
		t.Error("order should be gone")
	}
	if len(p.detailsOf(created.Order.ID)) != 0 {
		t.Error("details should be gone")
	}

	_, err = svc.DeleteOrder(ctx, created.Order.ID)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDeleteOrder_KeepsInvoice(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	orders := newOrderServiceWith(p)
	invoices := newInvoiceServiceWith(p)
	ctx := context.Background()

	created, _ := orders.CreateOrder(ctx, burgerOrder())
	if _, err := invoices.CreateInvoice(ctx, CreateInvoiceRequest{Actor: staff, OrderID: created.Order.ID, PaymentMethod: "Efectivo"}); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	deleted, err := orders.DeleteOrder(ctx, created.Order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted.HasInvoice {
		t.Error("has_invoice should be true")
	}

	inv, err := invoices.GetInvoice(ctx, created.Order.ID)
	if err != nil {
		t.Fatalf("invoice should survive order deletion: %v", err)
	}
	if !numericEquals(inv.Invoice.TotalPayment, "17.00") {
		t.Errorf("total: got %s", Money(inv.Invoice.TotalPayment))
	}
	if len(inv.Products) != 1 || inv.Products[0].Name != "Burger" {
		t.Errorf("products: %+v", inv.Products)
	}
}

func TestDeleteOrder_StoreFailureRollsBack(t *testing.T) {
	p := newMemPool()
	p.addProduct("Burger", "8.50")
	svc := newOrderServiceWith(p)
	ctx := context.Background()
	created, _ := svc.CreateOrder(ctx, burgerOrder())

	p.fail = func(op string) error {
		if op == "DeleteOrder" {
			return pgx.ErrTxCommitRollback
		}
		return nil
	}
	if _, err := svc.DeleteOrder(ctx, created.Order.ID); err == nil {
		t.Fatal("expected error")
	}
	if len(p.detailsOf(created.Order.ID)) != 1 {
		t.Error("details must survive a failed delete")
	}
}

// --- invariant checks ---

func assertUniqueOrderProducts(t *testing.T, p *memPool) {
	t.Helper()
	seen := map[[2]uuid.UUID]bool{}
	for _, d := range p.db.details {
		key := [2]uuid.UUID{d.OrderID, d.ProductID}
		if seen[key] {
			t.Fatalf("duplicate detail for order %v product %v", d.OrderID, d.ProductID)
		}
		seen[key] = true
	}
}

func assertStatusMatchesInvoices(t *testing.T, p *memPool) {
	t.Helper()
	for _, o := range p.db.orders {
		_, has := p.readStore().invoiceFor(o.ID)
		if OrderIsSettled(o) != has {
			t.Fatalf("order %v: status=%s but has_invoice=%v", o.ID, o.Status, has)
		}
	}
}
