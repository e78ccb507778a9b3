package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/enum"
)

// Errors shared by the order, invoice and report services.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("only employees or admins can perform this action")

	ErrInvalidTable   = errors.New("table_number must be a positive integer")
	ErrEmptyItems     = errors.New("items are required")
	ErrInvalidItem    = errors.New("each item needs a product name")
	ErrInvalidAmount  = errors.New("amount must be a positive integer")
	ErrUnknownProduct = errors.New("product does not exist")

	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderCompleted  = errors.New("order is already invoiced")

	ErrPaymentMethod   = errors.New("payment_method is required")
	ErrEmptyOrder      = errors.New("cannot invoice an empty order")
	ErrInvoiceExists   = errors.New("order already has an invoice")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrDateRange       = errors.New("startDate and endDate are required")
	ErrInvalidDate     = errors.New("dates must use YYYY-MM-DD")
	ErrDateRangeOrder  = errors.New("startDate must not be after endDate")
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) authorize() error {
	if a.UserID == uuid.Nil {
		return ErrUnauthenticated
	}
	if !enum.IsStaffRole(a.Role) {
		return ErrForbidden
	}
	return nil
}

// IsValidationError reports whether err is caused by bad caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTable) ||
		errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnknownProduct) ||
		errors.Is(err, ErrPaymentMethod) ||
		errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrDateRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrDateRangeOrder)
}

// IsNotFound reports whether err means a referenced row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}

// IsConflict reports whether err is a state conflict (duplicate invoice, closed order).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvoiceExists) || errors.Is(err, ErrOrderCompleted)
}
