package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Customer carries cached ledger balances alongside the contact fields. The
// transaction rows are the source of truth; Consumed/Paid/Due are running
// caches maintained inside the same transaction as each ledger write and
// rebuildable at any time through RecomputeCustomerBalance.
type Customer struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;size:36;not null" json:"restaurant_id"`
	Name         string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone        string          `gorm:"size:20" json:"phone"`
	Address      string          `gorm:"size:255" json:"address"`
	Consumed     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"consumed"`
	Paid         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid"`
	Due          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"due"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomerTransaction is one immutable ledger row. For a Consumption row
// Amount is what was handed over at the table and NetAmount is the full bill;
// for a Payment row Amount is the payment and NetAmount is zero. BillContext
// freezes the settlement breakdown JSON for consumption rows.
type CustomerTransaction struct {
	ID            int                     `gorm:"primary_key" json:"id"`
	RestaurantId  string                  `gorm:"index;size:36;not null" json:"restaurant_id"`
	CustomerId    int                     `gorm:"index;not null" json:"customer_id"`
	Type          CustomerTransactionType `gorm:"size:20;not null" json:"type"`
	Amount        decimal.Decimal         `gorm:"type:decimal(20,4);not null" json:"amount"`
	NetAmount     decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"net_amount"`
	Discount      decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"discount"`
	PaymentMethod string                  `gorm:"size:20" json:"payment_method"`
	OrderId       *int                    `gorm:"index" json:"order_id"`
	BillContext   string                  `gorm:"type:text" json:"bill_context"`
	Remark        string                  `gorm:"size:255" json:"remark"`
	CreatedAt     time.Time               `gorm:"autoCreateTime" json:"created_at"`
}

type NewCustomer struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type NewCustomerPayment struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Remark        string          `json:"remark"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if err := utils.ValidateUnique[Customer](ctx, restaurantId, "name", input.Name, 0); err != nil {
		return nil, utils.NewValidationError("customer '%s' already exists", input.Name)
	}

	customer := Customer{
		RestaurantId: restaurantId,
		Name:         input.Name,
		Phone:        input.Phone,
		Address:      input.Address,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	customer, err := utils.FetchModel[Customer](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Customer](ctx, restaurantId, "name", input.Name, id); err != nil {
		return nil, utils.NewValidationError("customer '%s' already exists", input.Name)
	}

	customer.Name = input.Name
	customer.Phone = input.Phone
	customer.Address = input.Address
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomers(ctx context.Context) ([]*Customer, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchAllModels[Customer](ctx, restaurantId)
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchModel[Customer](ctx, restaurantId, id)
}

// lockCustomer takes the row lock so concurrent ledger writes against the
// same customer serialize before reading the cached balances.
func lockCustomer(tx *gorm.DB, restaurantId string, customerId int) (*Customer, error) {
	var customer Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ?", restaurantId).
		First(&customer, customerId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// recordConsumption writes the consumption ledger row for a settled order and
// rolls the cached balances forward, inside the settlement's transaction.
func recordConsumption(tx *gorm.DB, restaurantId string, customerId int, order *Order,
	breakdown *utils.BillBreakdown, paid decimal.Decimal, method PaymentMethod) error {

	customer, err := lockCustomer(tx, restaurantId, customerId)
	if err != nil {
		return err
	}

	billContext, _ := json.Marshal(breakdown)
	trans := CustomerTransaction{
		RestaurantId:  restaurantId,
		CustomerId:    customerId,
		Type:          CustomerTransactionTypeConsumption,
		Amount:        paid,
		NetAmount:     breakdown.NetTotal,
		Discount:      breakdown.DiscountAmount,
		PaymentMethod: string(method),
		OrderId:       &order.ID,
		BillContext:   string(billContext),
	}
	if err := tx.Create(&trans).Error; err != nil {
		return err
	}

	customer.Consumed = customer.Consumed.Add(breakdown.NetTotal)
	customer.Paid = customer.Paid.Add(paid)
	customer.Due = customer.Consumed.Sub(customer.Paid)
	return tx.Save(customer).Error
}

// RecordCustomerPayment takes a standalone payment against the outstanding
// balance. Overpayment is allowed; the due balance simply goes below zero and
// offsets the next consumption.
func RecordCustomerPayment(ctx context.Context, customerId int, input *NewCustomerPayment) (*CustomerTransaction, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("payment amount must be positive")
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()
	txCtx := tx.WithContext(ctx)

	customer, err := lockCustomer(txCtx, restaurantId, customerId)
	if err != nil {
		return nil, err
	}
	before := *customer

	trans := CustomerTransaction{
		RestaurantId:  restaurantId,
		CustomerId:    customerId,
		Type:          CustomerTransactionTypePayment,
		Amount:        input.Amount,
		PaymentMethod: string(input.PaymentMethod),
		Remark:        input.Remark,
	}
	if err := txCtx.Create(&trans).Error; err != nil {
		return nil, err
	}

	customer.Paid = customer.Paid.Add(input.Amount)
	customer.Due = customer.Consumed.Sub(customer.Paid)
	if err := txCtx.Save(customer).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionUpdate, customer.ID, ReferenceTypeCustomer,
		before, customer, "customer payment recorded"); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &trans, nil
}

// GetCustomerTransactions lists a customer's ledger, newest first.
func GetCustomerTransactions(ctx context.Context, customerId int) ([]*CustomerTransaction, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if err := utils.ValidateResourceId[Customer](ctx, restaurantId, customerId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var transactions []*CustomerTransaction
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND customer_id = ?", restaurantId, customerId).
		Order("id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// RecomputeCustomerBalance rebuilds the cached balances from the transaction
// rows: consumed is the sum of consumption net amounts, paid is the sum of
// every row's Amount (money handed over at the table counts the same as a
// standalone payment), due is the difference.
func RecomputeCustomerBalance(ctx context.Context, customerId int) (*Customer, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()
	txCtx := tx.WithContext(ctx)

	customer, err := lockCustomer(txCtx, restaurantId, customerId)
	if err != nil {
		return nil, err
	}

	var transactions []CustomerTransaction
	if err := txCtx.
		Where("restaurant_id = ? AND customer_id = ?", restaurantId, customerId).
		Find(&transactions).Error; err != nil {
		return nil, err
	}

	consumed := decimal.Zero
	paid := decimal.Zero
	for _, t := range transactions {
		if t.Type == CustomerTransactionTypeConsumption {
			consumed = consumed.Add(t.NetAmount)
		}
		paid = paid.Add(t.Amount)
	}

	customer.Consumed = consumed
	customer.Paid = paid
	customer.Due = consumed.Sub(paid)
	if err := txCtx.Save(customer).Error; err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return customer, nil
}
