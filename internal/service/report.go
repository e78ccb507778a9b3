package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/database"
)

const (
	dateLayout      = "2006-01-02"
	topProductLimit = 10
)

// ReportStore defines the read-only queries behind the sales report.
type ReportStore interface {
	GetRevenueTotals(ctx context.Context, arg database.GetRevenueTotalsParams) (database.GetRevenueTotalsRow, error)
	GetTopProducts(ctx context.Context, arg database.GetTopProductsParams) ([]database.GetTopProductsRow, error)
	GetRevenueByEmployee(ctx context.Context, arg database.GetRevenueByEmployeeParams) ([]database.GetRevenueByEmployeeRow, error)
}

type Period struct {
	StartDate string
	EndDate   string
	From      time.Time
	To        time.Time // exclusive
}

type RevenueTotals struct {
	TotalInvoices int64
	TotalRevenue  string
}

type TopProduct struct {
	ProductID    uuid.UUID
	Name         string
	TotalSold    int64
	TotalRevenue string
}

type EmployeeRevenue struct {
	EmployeeID      uuid.UUID
	Name            string
	InvoicesHandled int64
	TotalRevenue    string
}

type Report struct {
	Period            Period
	TotalRevenue      RevenueTotals
	TopProducts       []TopProduct
	RevenueByEmployee []EmployeeRevenue
}

// ReportService builds sales reports over invoices.
type ReportService struct {
	store ReportStore
	loc   *time.Location
}

// NewReportService creates a ReportService. Calendar days are interpreted in loc.
func NewReportService(store ReportStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{store: store, loc: loc}
}

// ParsePeriod turns an inclusive pair of YYYY-MM-DD days into the half-open
// interval [start 00:00, end+1 00:00) in loc.
func ParsePeriod(startDate, endDate string, loc *time.Location) (Period, error) {
	startDate, endDate = strings.TrimSpace(startDate), strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return Period{}, ErrDateRange
	}
	from, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return Period{}, fmt.Errorf("startDate %q: %w", startDate, ErrInvalidDate)
	}
	last, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return Period{}, fmt.Errorf("endDate %q: %w", endDate, ErrInvalidDate)
	}
	if from.After(last) {
		return Period{}, ErrDateRangeOrder
	}
	return Period{
		StartDate: startDate,
		EndDate:   endDate,
		From:      from,
		To:        last.AddDate(0, 0, 1),
	}, nil
}

// GetReport returns revenue totals, the top products by quantity and revenue
// per employee for the given inclusive day range. Empty ranges yield zeros.
func (s *ReportService) GetReport(ctx context.Context, startDate, endDate string) (*Report, error) {
	period, err := ParsePeriod(startDate, endDate, s.loc)
	if err != nil {
		return nil, err
	}

	totals, err := s.store.GetRevenueTotals(ctx, database.GetRevenueTotalsParams{
		StartDate: period.From,
		EndDate:   period.To,
	})
	if err != nil {
		return nil, fmt.Errorf("revenue totals: %w", err)
	}

	top, err := s.store.GetTopProducts(ctx, database.GetTopProductsParams{
		StartDate: period.From,
		EndDate:   period.To,
		RowLimit:  topProductLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	byEmployee, err := s.store.GetRevenueByEmployee(ctx, database.GetRevenueByEmployeeParams{
		StartDate: period.From,
		EndDate:   period.To,
	})
	if err != nil {
		return nil, fmt.Errorf("revenue by employee: %w", err)
	}

	report := &Report{
		Period: period,
		TotalRevenue: RevenueTotals{
			TotalInvoices: totals.TotalInvoices,
			TotalRevenue:  Money(totals.TotalRevenue),
		},
		TopProducts:       make([]TopProduct, 0, len(top)),
		RevenueByEmployee: make([]EmployeeRevenue, 0, len(byEmployee)),
	}
	for _, row := range top {
		report.TopProducts = append(report.TopProducts, TopProduct{
			ProductID:    row.ProductID,
			Name:         row.ProductName,
			TotalSold:    row.TotalSold,
			TotalRevenue: Money(row.TotalRevenue),
		})
	}
	for _, row := range byEmployee {
		report.RevenueByEmployee = append(report.RevenueByEmployee, EmployeeRevenue{
			EmployeeID:      row.EmployeeID,
			Name:            row.EmployeeName,
			InvoicesHandled: row.InvoicesHandled,
			TotalRevenue:    Money(row.TotalRevenue),
		})
	}
	return report, nil
}
