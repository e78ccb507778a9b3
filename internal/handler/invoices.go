package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/events"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
)

// InvoiceServicer defines the service methods needed by invoice handlers.
// Satisfied by *service.InvoiceService.
type InvoiceServicer interface {
	CreateInvoice(ctx context.Context, req service.CreateInvoiceRequest) (*service.InvoiceResult, error)
	ListInvoices(ctx context.Context) ([]database.Invoice, error)
	GetInvoice(ctx context.Context, orderID uuid.UUID) (*service.InvoiceResult, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) (*database.Invoice, error)
}

// InvoiceHandler handles invoicing endpoints.
type InvoiceHandler struct {
	svc    InvoiceServicer
	events events.Publisher
}

func NewInvoiceHandler(svc InvoiceServicer, pub events.Publisher) *InvoiceHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &InvoiceHandler{svc: svc, events: pub}
}

// RegisterOrderRoutes registers the invoice endpoints nested under an order.
// Expected to be mounted inside /api/orders.
func (h *InvoiceHandler) RegisterOrderRoutes(r chi.Router) {
	r.Post("/{id}/invoice", h.Create)
	r.Get("/{id}/invoice", h.GetByOrder)
}

// RegisterRoutes registers the endpoints mounted at /api/invoices.
func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createInvoiceRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type invoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	OrderID       uuid.UUID             `json:"order_id"`
	EmployeeID    uuid.UUID             `json:"employee_id"`
	TotalPayment  string                `json:"total_payment"`
	PaymentMethod string                `json:"payment_method"`
	CreatedAt     time.Time             `json:"created_at"`
	Products      []invoiceLineResponse `json:"products,omitempty"`
}

type invoiceLineResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Amount    int32     `json:"amount"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

func toInvoiceResponse(inv database.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		OrderID:       inv.OrderID,
		EmployeeID:    inv.EmployeeID,
		TotalPayment:  service.Money(inv.TotalPayment),
		PaymentMethod: inv.PaymentMethod,
		CreatedAt:     inv.CreatedAt,
	}
}

func invoiceResultToResponse(result *service.InvoiceResult) invoiceResponse {
	resp := toInvoiceResponse(result.Invoice)
	resp.Products = lo.Map(result.Products, func(l service.InvoiceLine, _ int) invoiceLineResponse {
		return invoiceLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Amount:    l.Amount,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal.StringFixed(2),
		}
	})
	return resp
}

// --- Handlers ---

// Create handles POST /api/orders/{id}/invoice and completes the order.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.CreateInvoice(r.Context(), service.CreateInvoiceRequest{
		Actor:         service.Actor{UserID: claims.UserID, Role: claims.Role},
		OrderID:       orderID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(w, "create invoice", err)
		return
	}

	resp := invoiceResultToResponse(result)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Invoice created", "invoice": resp})
	events.Emit(r.Context(), h.events, events.InvoiceCreated, resp)
}

// GetByOrder handles GET /api/orders/{id}/invoice.
func (h *InvoiceHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	result, err := h.svc.GetInvoice(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "get invoice", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Invoice retrieved", "invoice": invoiceResultToResponse(result)})
}

// List handles GET /api/invoices.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeServiceError(w, "list invoices", err)
		return
	}

	writeList(w, "Invoices retrieved", "No invoices found", lo.Map(invoices, func(inv database.Invoice, _ int) invoiceResponse {
		return toInvoiceResponse(inv)
	}))
}

// Delete handles DELETE /api/invoices/{id}; the order goes back to PENDING.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid invoice ID"})
		return
	}

	invoice, err := h.svc.DeleteInvoice(r.Context(), invoiceID)
	if err != nil {
		writeServiceError(w, "delete invoice", err)
		return
	}

	resp := toInvoiceResponse(*invoice)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Invoice deleted", "invoice": resp})
	events.Emit(r.Context(), h.events, events.InvoiceDeleted, resp)
}
