package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/service"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]database.ListProductsRow, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.GetProductRow, error)
	GetCategoryByName(ctx context.Context, name string) (database.Category, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
}

// ProductHandler handles product CRUD endpoints.
type ProductHandler struct {
	store ProductStore
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// RegisterReadRoutes registers the endpoints open to every staff role.
func (h *ProductHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterWriteRoutes registers the admin-only mutations.
func (h *ProductHandler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

// productRequest accepts the price as a JSON number or a decimal string.
type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	CategoryID  uuid.UUID `json:"category_id"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p database.Product, category string) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       service.Money(p.Price),
		CategoryID:  p.CategoryID,
		Category:    category,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// rowToProductResponse also serves ListProductsRow, which has the same shape.
func rowToProductResponse(p database.GetProductRow) productResponse {
	return toProductResponse(database.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, p.CategoryName)
}

// validProduct is a decoded and validated productRequest.
type validProduct struct {
	name        string
	description string
	price       pgtype.Numeric
	categoryID  uuid.UUID
	category    string
}

var errNonPositivePrice = errors.New("price must be greater than 0")

func parsePrice(d *decimal.Decimal) (pgtype.Numeric, error) {
	if d == nil || !d.IsPositive() {
		return pgtype.Numeric{}, errNonPositivePrice
	}
	var n pgtype.Numeric
	if err := n.Scan(d.Round(2).StringFixed(2)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// decodeProduct validates the body and resolves the category by its trimmed
// name. It writes the error response itself and reports whether to continue.
func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (validProduct, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return validProduct{}, false
	}

	v := validProduct{
		name:        strings.TrimSpace(req.Name),
		description: strings.TrimSpace(req.Description),
		category:    strings.TrimSpace(req.Category),
	}
	if v.name == "" || v.description == "" || req.Price == nil || v.category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, description, price, and category are required"})
		return validProduct{}, false
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errNonPositivePrice.Error()})
		return validProduct{}, false
	}
	v.price = price

	category, err := h.store.GetCategoryByName(r.Context(), v.category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category does not exist"})
			return validProduct{}, false
		}
		log.Error().Err(err).Msg("resolve product category")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return validProduct{}, false
	}
	v.categoryID = category.ID

	return v, true
}

// --- Handlers ---

// List returns every product with its category name.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list products")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = rowToProductResponse(database.GetProductRow(p))
	}

	writeList(w, "Products retrieved", "No products found", resp)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	p, err := h.store.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Error().Err(err).Msg("get product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product retrieved",
		"product": rowToProductResponse(p),
	})
}

// Create adds a product. Names are unique regardless of case.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	v, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:        v.name,
		Description: v.description,
		Price:       v.price,
		CategoryID:  v.categoryID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "product already exists"})
			return
		}
		log.Error().Err(err).Msg("create product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Product created", "product": toProductResponse(product, v.category)})
}

// Update replaces every field of a product. Existing order lines keep their
// price snapshot.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	v, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		Name:        v.name,
		Description: v.description,
		Price:       v.price,
		CategoryID:  v.categoryID,
		ID:          productID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "product already exists"})
			return
		}
		log.Error().Err(err).Msg("update product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Product updated", "product": toProductResponse(product, v.category)})
}

// Delete removes a product that no order line references.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.store.DeleteProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "product is used by existing orders"})
			return
		}
		log.Error().Err(err).Msg("delete product")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Product deleted", "product": toProductResponse(product, "")})
}
