package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/events"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	ListOrders(ctx context.Context) ([]database.ListOrdersRow, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*service.OrderView, error)
	AmendOrder(ctx context.Context, req service.AmendOrderRequest) (*service.OrderResult, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (*service.DeletedOrder, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	events events.Publisher
}

// NewOrderHandler creates a new OrderHandler. Committed changes are published
// to pub; nil disables publishing.
func NewOrderHandler(svc OrderServicer, pub events.Publisher) *OrderHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderHandler{svc: svc, events: pub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /api/orders behind RequireRole(ADMIN, EMPLOYEE).
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type orderRequest struct {
	TableNumber int32              `json:"table_number"`
	Items       []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	Name   string `json:"name"`
	Amount int32  `json:"amount"`
}

func (req orderRequest) serviceItems() []service.OrderItemRequest {
	return lo.Map(req.Items, func(it orderItemRequest, _ int) service.OrderItemRequest {
		return service.OrderItemRequest{Name: it.Name, Amount: it.Amount}
	})
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	EmployeeID  uuid.UUID           `json:"employee_id"`
	TableNumber int32               `json:"table_number"`
	Status      string              `json:"status"`
	HasInvoice  bool                `json:"has_invoice"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Products    []orderLineResponse `json:"products,omitempty"`
	Total       string              `json:"total,omitempty"`
}

type orderLineResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Amount    int32     `json:"amount"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

func toOrderResponse(o database.Order, hasInvoice bool) orderResponse {
	return orderResponse{
		ID:          o.ID,
		EmployeeID:  o.EmployeeID,
		TableNumber: o.TableNumber,
		Status:      string(o.Status),
		HasInvoice:  hasInvoice,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// withLines attaches product lines and their running total.
func (resp orderResponse) withLines(lines []orderLineResponse, total decimal.Decimal) orderResponse {
	resp.Products = lines
	resp.Total = total.StringFixed(2)
	return resp
}

func resultToResponse(result *service.OrderResult) orderResponse {
	total := decimal.Zero
	lines := lo.Map(result.Details, func(d database.OrderDetail, _ int) orderLineResponse {
		price := service.NumericToDecimal(d.UnitPrice)
		subtotal := service.LineTotal(d.Amount, price)
		total = total.Add(subtotal)
		return orderLineResponse{
			ID:        d.ID,
			ProductID: d.ProductID,
			Amount:    d.Amount,
			UnitPrice: price.StringFixed(2),
			Subtotal:  subtotal.StringFixed(2),
		}
	})
	return toOrderResponse(result.Order, result.HasInvoice).withLines(lines, total)
}

func viewToResponse(view *service.OrderView) orderResponse {
	total := decimal.Zero
	lines := lo.Map(view.Lines, func(l database.ListOrderLinesRow, _ int) orderLineResponse {
		price := service.NumericToDecimal(l.UnitPrice)
		subtotal := service.LineTotal(l.Amount, price)
		total = total.Add(subtotal)
		return orderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Amount:    l.Amount,
			UnitPrice: price.StringFixed(2),
			Subtotal:  subtotal.StringFixed(2),
		}
	})
	return toOrderResponse(view.Order, view.HasInvoice).withLines(lines, total)
}

// --- Handlers ---

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		Actor:       service.Actor{UserID: claims.UserID, Role: claims.Role},
		TableNumber: req.TableNumber,
		Items:       req.serviceItems(),
	})
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	resp := resultToResponse(result)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Order created", "order": resp})
	events.Emit(r.Context(), h.events, events.OrderCreated, resp)
}

// List handles GET /api/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListOrders(r.Context())
	if err != nil {
		writeServiceError(w, "list orders", err)
		return
	}

	resp := lo.Map(rows, func(o database.ListOrdersRow, _ int) orderResponse {
		return toOrderResponse(database.Order{
			ID:          o.ID,
			EmployeeID:  o.EmployeeID,
			TableNumber: o.TableNumber,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		}, o.HasInvoice)
	})

	writeList(w, "Orders retrieved", "No orders found", resp)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	view, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Order retrieved", "order": viewToResponse(view)})
}

// Update handles PUT /api/orders/{id}: the table number and the full item list
// are replaced.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.AmendOrder(r.Context(), service.AmendOrderRequest{
		OrderID:     orderID,
		TableNumber: req.TableNumber,
		Items:       req.serviceItems(),
	})
	if err != nil {
		writeServiceError(w, "update order", err)
		return
	}

	resp := resultToResponse(result)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Order updated", "order": resp})
	events.Emit(r.Context(), h.events, events.OrderUpdated, resp)
}

// Delete handles DELETE /api/orders/{id}. Any invoice of the order is kept.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	deleted, err := h.svc.DeleteOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "delete order", err)
		return
	}

	resp := toOrderResponse(deleted.Order, deleted.HasInvoice)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Order deleted", "order": resp})
	events.Emit(r.Context(), h.events, events.OrderDeleted, resp)
}

// --- Helpers ---

// writeServiceError maps engine errors onto status codes. Anything unknown is
// logged under op and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case service.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case service.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case service.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
