package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
)

// --- In-memory store with transaction semantics ---
//
// memPool hands out memTx values that work on a private copy of the data.
// Commit swaps the copy in; Rollback (or never committing) discards it.
// This lets tests assert that a failed operation leaves no partial writes.

type memDB struct {
	products map[uuid.UUID]database.Product
	orders   map[uuid.UUID]database.Order
	details  map[uuid.UUID]database.OrderDetail
	invoices map[uuid.UUID]database.Invoice
	items    map[uuid.UUID]database.InvoiceItem
	clock    time.Time
}

func newMemDB() *memDB {
	return &memDB{
		products: map[uuid.UUID]database.Product{},
		orders:   map[uuid.UUID]database.Order{},
		details:  map[uuid.UUID]database.OrderDetail{},
		invoices: map[uuid.UUID]database.Invoice{},
		items:    map[uuid.UUID]database.InvoiceItem{},
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memDB) clone() *memDB {
	return &memDB{
		products: cloneMap(d.products),
		orders:   cloneMap(d.orders),
		details:  cloneMap(d.details),
		invoices: cloneMap(d.invoices),
		items:    cloneMap(d.items),
		clock:    d.clock,
	}
}

func (d *memDB) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

type memPool struct {
	db        *memDB
	beginErr  error
	commitErr error
	// fail, when set, is consulted before every store call; a non-nil
	// return is handed back to the service as the store error.
	fail func(op string) error

	begins    int
	commits   int
	rollbacks int
}

func newMemPool() *memPool {
	return &memPool{db: newMemDB()}
}

func (p *memPool) Begin(ctx context.Context) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	p.begins++
	return &memTx{pool: p, work: p.db.clone()}, nil
}

type memTx struct {
	pool *memPool
	work *memDB
	done bool
}

func (m *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *memTx) Commit(ctx context.Context) error {
	if m.done {
		return pgx.ErrTxClosed
	}
	m.done = true
	if m.pool.commitErr != nil {
		return m.pool.commitErr
	}
	m.pool.db = m.work
	m.pool.commits++
	return nil
}
func (m *memTx) Rollback(ctx context.Context) error {
	if m.done {
		return pgx.ErrTxClosed
	}
	m.done = true
	m.pool.rollbacks++
	return nil
}
func (m *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *memTx) Conn() *pgx.Conn { panic("not implemented") }

// memStore implements OrderStore and InvoiceStore. With tx set it works on
// the transaction's copy, otherwise on the committed data.
type memStore struct {
	pool *memPool
	tx   *memTx
}

func (p *memPool) readStore() *memStore { return &memStore{pool: p} }

func (p *memPool) txStore(db database.DBTX) *memStore {
	tx, ok := db.(*memTx)
	if !ok {
		panic("memStore: expected *memTx")
	}
	return &memStore{pool: p, tx: tx}
}

func (m *memStore) d() *memDB {
	if m.tx != nil {
		return m.tx.work
	}
	return m.pool.db
}

func (m *memStore) check(op string) error {
	if m.pool.fail != nil {
		return m.pool.fail(op)
	}
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (m *memStore) GetProductByName(ctx context.Context, name string) (database.Product, error) {
	if err := m.check("GetProductByName"); err != nil {
		return database.Product{}, err
	}
	for _, p := range m.d().products {
		if p.Name == name {
			return p, nil
		}
	}
	return database.Product{}, pgx.ErrNoRows
}

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := m.check("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	now := m.d().tick()
	o := database.Order{
		ID:          uuid.New(),
		EmployeeID:  arg.EmployeeID,
		TableNumber: arg.TableNumber,
		Status:      database.OrderStatusPENDING,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.d().orders[o.ID] = o
	return o, nil
}

func (m *memStore) CreateOrderDetail(ctx context.Context, arg database.CreateOrderDetailParams) (database.OrderDetail, error) {
	if err := m.check("CreateOrderDetail"); err != nil {
		return database.OrderDetail{}, err
	}
	for _, d := range m.d().details {
		if d.OrderID == arg.OrderID && d.ProductID == arg.ProductID {
			return database.OrderDetail{}, uniqueViolation("order_details_order_id_product_id_key")
		}
	}
	d := database.OrderDetail{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		Amount:    arg.Amount,
		UnitPrice: arg.UnitPrice,
	}
	m.d().details[d.ID] = d
	return d, nil
}

func (m *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.check("GetOrder"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.d().orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.check("GetOrderForUpdate"); err != nil {
		return database.Order{}, err
	}
	return m.GetOrder(ctx, id)
}

func (m *memStore) invoiceFor(orderID uuid.UUID) (database.Invoice, bool) {
	for _, inv := range m.d().invoices {
		if inv.OrderID == orderID {
			return inv, true
		}
	}
	return database.Invoice{}, false
}

func (m *memStore) ListOrders(ctx context.Context) ([]database.ListOrdersRow, error) {
	if err := m.check("ListOrders"); err != nil {
		return nil, err
	}
	rows := []database.ListOrdersRow{}
	for _, o := range m.d().orders {
		_, has := m.invoiceFor(o.ID)
		rows = append(rows, database.ListOrdersRow{
			ID:          o.ID,
			EmployeeID:  o.EmployeeID,
			TableNumber: o.TableNumber,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
			HasInvoice:  has,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (m *memStore) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderLinesRow, error) {
	if err := m.check("ListOrderLines"); err != nil {
		return nil, err
	}
	rows := []database.ListOrderLinesRow{}
	for _, d := range m.d().details {
		if d.OrderID != orderID {
			continue
		}
		rows = append(rows, database.ListOrderLinesRow{
			ID:        d.ID,
			ProductID: d.ProductID,
			Name:      m.d().products[d.ProductID].Name,
			Amount:    d.Amount,
			UnitPrice: d.UnitPrice,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

func (m *memStore) ListOrderDetails(ctx context.Context, orderID uuid.UUID) ([]database.OrderDetail, error) {
	if err := m.check("ListOrderDetails"); err != nil {
		return nil, err
	}
	rows := []database.OrderDetail{}
	for _, d := range m.d().details {
		if d.OrderID == orderID {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

func (m *memStore) OrderHasInvoice(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if err := m.check("OrderHasInvoice"); err != nil {
		return false, err
	}
	_, has := m.invoiceFor(orderID)
	return has, nil
}

func (m *memStore) UpdateOrderTable(ctx context.Context, arg database.UpdateOrderTableParams) (database.Order, error) {
	if err := m.check("UpdateOrderTable"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.d().orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.TableNumber = arg.TableNumber
	o.UpdatedAt = m.d().tick()
	m.d().orders[o.ID] = o
	return o, nil
}

func (m *memStore) UpdateOrderDetail(ctx context.Context, arg database.UpdateOrderDetailParams) (database.OrderDetail, error) {
	if err := m.check("UpdateOrderDetail"); err != nil {
		return database.OrderDetail{}, err
	}
	d, ok := m.d().details[arg.ID]
	if !ok {
		return database.OrderDetail{}, pgx.ErrNoRows
	}
	d.Amount = arg.Amount
	d.UnitPrice = arg.UnitPrice
	m.d().details[d.ID] = d
	return d, nil
}

func (m *memStore) DeleteOrderDetailsExcept(ctx context.Context, arg database.DeleteOrderDetailsExceptParams) (int64, error) {
	if err := m.check("DeleteOrderDetailsExcept"); err != nil {
		return 0, err
	}
	keep := map[uuid.UUID]bool{}
	for _, id := range arg.KeepProductIds {
		keep[id] = true
	}
	var n int64
	for id, d := range m.d().details {
		if d.OrderID == arg.OrderID && !keep[d.ProductID] {
			delete(m.d().details, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteOrderDetails(ctx context.Context, orderID uuid.UUID) error {
	if err := m.check("DeleteOrderDetails"); err != nil {
		return err
	}
	for id, d := range m.d().details {
		if d.OrderID == orderID {
			delete(m.d().details, id)
		}
	}
	return nil
}

func (m *memStore) DeleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.check("DeleteOrder"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.d().orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	delete(m.d().orders, id)
	return o, nil
}

func (m *memStore) GetInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (database.Invoice, error) {
	if err := m.check("GetInvoiceByOrder"); err != nil {
		return database.Invoice{}, err
	}
	inv, ok := m.invoiceFor(orderID)
	if !ok {
		return database.Invoice{}, pgx.ErrNoRows
	}
	return inv, nil
}

func (m *memStore) CreateInvoice(ctx context.Context, arg database.CreateInvoiceParams) (database.Invoice, error) {
	if err := m.check("CreateInvoice"); err != nil {
		return database.Invoice{}, err
	}
	if _, exists := m.invoiceFor(arg.OrderID); exists {
		return database.Invoice{}, uniqueViolation("invoices_order_id_key")
	}
	inv := database.Invoice{
		ID:            uuid.New(),
		OrderID:       arg.OrderID,
		EmployeeID:    arg.EmployeeID,
		TotalPayment:  arg.TotalPayment,
		PaymentMethod: arg.PaymentMethod,
		CreatedAt:     m.d().tick(),
	}
	m.d().invoices[inv.ID] = inv
	return inv, nil
}

func (m *memStore) CreateInvoiceItem(ctx context.Context, arg database.CreateInvoiceItemParams) (database.InvoiceItem, error) {
	if err := m.check("CreateInvoiceItem"); err != nil {
		return database.InvoiceItem{}, err
	}
	item := database.InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   arg.InvoiceID,
		ProductID:   arg.ProductID,
		ProductName: arg.ProductName,
		Amount:      arg.Amount,
		UnitPrice:   arg.UnitPrice,
	}
	m.d().items[item.ID] = item
	return item, nil
}

func (m *memStore) CompleteOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.check("CompleteOrder"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.d().orders[id]
	if !ok || o.Status != database.OrderStatusPENDING {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = database.OrderStatusCOMPLETED
	m.d().orders[id] = o
	return o, nil
}

func (m *memStore) ListInvoices(ctx context.Context) ([]database.Invoice, error) {
	if err := m.check("ListInvoices"); err != nil {
		return nil, err
	}
	rows := []database.Invoice{}
	for _, inv := range m.d().invoices {
		rows = append(rows, inv)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (m *memStore) ListInvoiceItems(ctx context.Context, invoiceID uuid.UUID) ([]database.InvoiceItem, error) {
	if err := m.check("ListInvoiceItems"); err != nil {
		return nil, err
	}
	rows := []database.InvoiceItem{}
	for _, it := range m.d().items {
		if it.InvoiceID == invoiceID {
			rows = append(rows, it)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProductName < rows[j].ProductName })
	return rows, nil
}

func (m *memStore) DeleteInvoice(ctx context.Context, id uuid.UUID) (database.Invoice, error) {
	if err := m.check("DeleteInvoice"); err != nil {
		return database.Invoice{}, err
	}
	inv, ok := m.d().invoices[id]
	if !ok {
		return database.Invoice{}, pgx.ErrNoRows
	}
	delete(m.d().invoices, id)
	for itemID, it := range m.d().items {
		if it.InvoiceID == id {
			delete(m.d().items, itemID)
		}
	}
	return inv, nil
}

func (m *memStore) ReopenOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := m.check("ReopenOrder"); err != nil {
		return 0, err
	}
	o, ok := m.d().orders[id]
	if !ok || o.Status != database.OrderStatusCOMPLETED {
		return 0, nil
	}
	o.Status = database.OrderStatusPENDING
	m.d().orders[id] = o
	return 1, nil
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	exp, _ := decimal.NewFromString(expected)
	return NumericToDecimal(n).Equal(exp)
}

func (p *memPool) addProduct(name, price string) database.Product {
	prod := database.Product{
		ID:         uuid.New(),
		Name:       name,
		Price:      makeNumeric(price),
		CategoryID: uuid.New(),
	}
	p.db.products[prod.ID] = prod
	return prod
}

func (p *memPool) setPrice(id uuid.UUID, price string) {
	prod := p.db.products[id]
	prod.Price = makeNumeric(price)
	p.db.products[id] = prod
}

func (p *memPool) detailsOf(orderID uuid.UUID) []database.OrderDetail {
	var out []database.OrderDetail
	for _, d := range p.db.details {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out
}

func newOrderServiceWith(p *memPool) *OrderService {
	return NewOrderService(p, p.readStore(), func(db database.DBTX) OrderStore { return p.txStore(db) })
}

func newInvoiceServiceWith(p *memPool) *InvoiceService {
	return NewInvoiceService(p, p.readStore(), func(db database.DBTX) InvoiceStore { return p.txStore(db) })
}

var (
	staff    = Actor{UserID: uuid.New(), Role: "EMPLOYEE"}
	adminAct = Actor{UserID: uuid.New(), Role: "ADMIN"}
)
