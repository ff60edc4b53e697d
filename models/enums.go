package models

type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusServed    OrderStatus = "Served"
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusCredit    OrderStatus = "Credit"
)

// Editable reports whether the order may still be changed or deleted through
// the engine. Paid and Credit are terminal; Served orders are settle-only.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusPreparing || s == OrderStatusPending
}

// Settled reports whether the order has already gone through settlement.
func (s OrderStatus) Settled() bool {
	return s == OrderStatusPaid || s == OrderStatusCredit
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "Cash"
	PaymentMethodCard   PaymentMethod = "Card"
	PaymentMethodQr     PaymentMethod = "QR"
	PaymentMethodCheque PaymentMethod = "Cheque"
)

type CustomerTransactionType string

const (
	CustomerTransactionTypeConsumption CustomerTransactionType = "Consumption"
	CustomerTransactionTypePayment     CustomerTransactionType = "Payment"
)

// history action types
const (
	HistoryActionCreate = "Create"
	HistoryActionUpdate = "Update"
	HistoryActionDelete = "Delete"
	HistoryActionSettle = "Settle"
)

// history reference types
const (
	ReferenceTypeOrder        = "orders"
	ReferenceTypePurchaseBill = "purchase_bills"
	ReferenceTypeGeneralBill  = "general_bills"
	ReferenceTypeCustomer     = "customers"
	ReferenceTypeStockRecord  = "stock_records"
)
