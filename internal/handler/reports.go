package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mesa-pos/api/internal/service"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.ReportService.
type ReportServicer interface {
	GetReport(ctx context.Context, startDate, endDate string) (*service.Report, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	svc ReportServicer
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc ReportServicer) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// RegisterRoutes registers report endpoints.
// Expected to be mounted at /api/reports behind RequireRole(ADMIN).
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Sales)
}

// --- Response types ---

type periodResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type revenueTotalsResponse struct {
	TotalInvoices int64  `json:"total_invoices"`
	TotalRevenue  string `json:"total_revenue"`
}

type topProductResponse struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	TotalSold    int64     `json:"total_sold"`
	TotalRevenue string    `json:"total_revenue"`
}

type employeeRevenueResponse struct {
	EmployeeID      uuid.UUID `json:"employee_id"`
	Name            string    `json:"name"`
	InvoicesHandled int64     `json:"invoices_handled"`
	TotalRevenue    string    `json:"total_revenue"`
}

type reportResponse struct {
	Period            periodResponse            `json:"period"`
	TotalRevenue      revenueTotalsResponse     `json:"totalRevenue"`
	TopProducts       []topProductResponse      `json:"topProducts"`
	RevenueByEmployee []employeeRevenueResponse `json:"revenueByEmployee"`
}

// --- Handlers ---

// Sales handles GET /api/reports?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD.
// Both days are inclusive.
func (h *ReportsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.svc.GetReport(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeServiceError(w, "get report", err)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Period: periodResponse{
			StartDate: report.Period.StartDate,
			EndDate:   report.Period.EndDate,
		},
		TotalRevenue: revenueTotalsResponse{
			TotalInvoices: report.TotalRevenue.TotalInvoices,
			TotalRevenue:  report.TotalRevenue.TotalRevenue,
		},
		TopProducts: lo.Map(report.TopProducts, func(p service.TopProduct, _ int) topProductResponse {
			return topProductResponse{
				ProductID:    p.ProductID,
				Name:         p.Name,
				TotalSold:    p.TotalSold,
				TotalRevenue: p.TotalRevenue,
			}
		}),
		RevenueByEmployee: lo.Map(report.RevenueByEmployee, func(e service.EmployeeRevenue, _ int) employeeRevenueResponse {
			return employeeRevenueResponse{
				EmployeeID:      e.EmployeeID,
				Name:            e.Name,
				InvoicesHandled: e.InvoicesHandled,
				TotalRevenue:    e.TotalRevenue,
			}
		}),
	})
}
