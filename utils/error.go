package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError covers missing/malformed required input (bill number,
// date, non-positive quantity or rate, missing edit reason).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError names the item so the message stays usable on the
// billing screens.
type InsufficientStockError struct {
	StockName string
	Current   decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for '%s' (current: %s, required: %s)",
		e.StockName, e.Current.String(), e.Required.String())
}

type DuplicateBillError struct {
	SupplierName string
	BillNo       string
	FiscalYear   string
}

func (e *DuplicateBillError) Error() string {
	return fmt.Sprintf("bill %s from '%s' already exists for fiscal year %s",
		e.BillNo, e.SupplierName, e.FiscalYear)
}

// ConflictError is returned when a serialization guard (bill sequence lock,
// restaurant lock) could not be obtained.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
