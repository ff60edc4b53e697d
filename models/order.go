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

// Order is one table's running tab. TotalAmount is always the sum of
// qty x price-at-capture over the lines; discounts and surcharges never
// touch it, they only appear in the settlement breakdown.
type Order struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;size:36;not null" json:"restaurant_id"`
	TableNo      string          `gorm:"size:20" json:"table_no"`
	Status       OrderStatus     `gorm:"size:20;not null;default:'Preparing'" json:"status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Discount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	CustomerId   *int            `gorm:"index" json:"customer_id"`
	BillNo       *int            `gorm:"index" json:"bill_no"`
	FiscalYear   string          `gorm:"size:10" json:"fiscal_year"`
	Remark       string          `gorm:"size:255" json:"remark"`
	Details      []OrderDetail   `gorm:"foreignKey:OrderId" json:"details"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderDetail is one line. Price is captured from the menu at placement and
// never silently refreshed; the settlement price policy decides whether it is
// re-read at settlement.
type OrderDetail struct {
	ID           int             `gorm:"primary_key" json:"id"`
	OrderId      int             `gorm:"index;not null" json:"order_id"`
	MenuItemId   int             `gorm:"index;not null" json:"menu_item_id"`
	MenuItemName string          `gorm:"size:100;not null" json:"menu_item_name"`
	Qty          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	Price        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewOrderDetail struct {
	MenuItemId int             `json:"menu_item_id" binding:"required"`
	Qty        decimal.Decimal `json:"qty" binding:"required"`
}

type NewOrder struct {
	TableNo    string           `json:"table_no"`
	CustomerId *int             `json:"customer_id"`
	Remark     string           `json:"remark"`
	Details    []NewOrderDetail `json:"details" binding:"required,min=1,dive"`
}

type SettleOrderInput struct {
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CustomerId    *int            `json:"customer_id"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// buildOrderLines validates the requested lines, captures current menu
// prices, and accumulates the stock consumption per stock name. A qty that is
// zero or negative is rejected outright; duplicated menu items in one request
// are rejected instead of merged.
func buildOrderLines(tx *gorm.DB, restaurantId string, inputs []NewOrderDetail) ([]OrderDetail, map[string]stockDelta, error) {
	details := make([]OrderDetail, 0, len(inputs))
	deltas := make(map[string]stockDelta)
	seen := make(map[int]struct{}, len(inputs))

	for _, in := range inputs {
		if !in.Qty.IsPositive() {
			return nil, nil, utils.NewValidationError("order quantity must be positive")
		}
		if _, dup := seen[in.MenuItemId]; dup {
			return nil, nil, utils.NewValidationError("menu item %d appears more than once", in.MenuItemId)
		}
		seen[in.MenuItemId] = struct{}{}

		var item MenuItem
		err := tx.Where("restaurant_id = ?", restaurantId).First(&item, in.MenuItemId).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, utils.NewValidationError("menu item %d not found", in.MenuItemId)
			}
			return nil, nil, err
		}
		if item.IsAvailable != nil && !*item.IsAvailable {
			return nil, nil, utils.NewValidationError("menu item '%s' is not available", item.Name)
		}

		stockName, err := stockNameForMenuItem(tx, &item)
		if err != nil {
			return nil, nil, err
		}
		d := deltas[stockName]
		d.Qty = d.Qty.Sub(in.Qty)
		d.Unit = item.Unit
		deltas[stockName] = d

		details = append(details, OrderDetail{
			MenuItemId:   item.ID,
			MenuItemName: item.Name,
			Qty:          in.Qty,
			Price:        item.Price,
			Amount:       in.Qty.Mul(item.Price),
		})
	}
	return details, deltas, nil
}

func orderTotal(details []OrderDetail) decimal.Decimal {
	var total decimal.Decimal
	for _, d := range details {
		total = total.Add(d.Amount)
	}
	return total
}

// PlaceOrder creates an order and deducts its stock atomically. If any item
// lacks sufficient stock the whole order fails and nothing is written.
func PlaceOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, restaurantId, *input.CustomerId); err != nil {
			return nil, err
		}
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

	details, deltas, err := buildOrderLines(txCtx, restaurantId, input.Details)
	if err != nil {
		return nil, err
	}

	if err := adjustStockBatch(txCtx, restaurantId, deltas); err != nil {
		return nil, err
	}

	order := Order{
		RestaurantId: restaurantId,
		TableNo:      input.TableNo,
		Status:       OrderStatusPreparing,
		TotalAmount:  orderTotal(details),
		CustomerId:   input.CustomerId,
		Remark:       input.Remark,
		Details:      details,
	}
	if err := txCtx.Create(&order).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionCreate, order.ID, ReferenceTypeOrder,
		nil, order, "order placed"); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder replaces an editable order's lines. Stock is adjusted by the
// per-item difference between old and new quantities over the union of both
// line sets, so submitting an identical order touches nothing. Every line is
// re-captured at today's menu price.
func UpdateOrder(ctx context.Context, id int, input *NewOrder) (*Order, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, restaurantId, *input.CustomerId); err != nil {
			return nil, err
		}
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

	var order Order
	err := txCtx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details").
		Where("restaurant_id = ?", restaurantId).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if !order.Status.Editable() {
		return nil, utils.NewValidationError("order %d is %s and can no longer be edited", order.ID, order.Status)
	}
	before := order

	oldQty := make(map[int]decimal.Decimal, len(order.Details))
	oldLine := make(map[int]OrderDetail, len(order.Details))
	for _, d := range order.Details {
		oldQty[d.MenuItemId] = d.Qty
		oldLine[d.MenuItemId] = d
	}
	newQty := make(map[int]decimal.Decimal, len(input.Details))
	for _, in := range input.Details {
		if !in.Qty.IsPositive() {
			return nil, utils.NewValidationError("order quantity must be positive")
		}
		if _, dup := newQty[in.MenuItemId]; dup {
			return nil, utils.NewValidationError("menu item %d appears more than once", in.MenuItemId)
		}
		newQty[in.MenuItemId] = in.Qty
	}

	diff := diffQuantities(oldQty, newQty)

	deltas := make(map[string]stockDelta)
	details := make([]OrderDetail, 0, len(input.Details))
	for _, in := range input.Details {
		qty := newQty[in.MenuItemId]
		old, kept := oldLine[in.MenuItemId]

		var item MenuItem
		err := txCtx.Where("restaurant_id = ?", restaurantId).First(&item, in.MenuItemId).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if !kept {
				return nil, utils.NewValidationError("menu item %d not found", in.MenuItemId)
			}
			// catalog entry deleted since placement; keep the captured line
			if change, ok := diff[in.MenuItemId]; ok {
				d := deltas[old.MenuItemName]
				d.Qty = d.Qty.Sub(change)
				deltas[old.MenuItemName] = d
			}
			details = append(details, OrderDetail{
				OrderId:      order.ID,
				MenuItemId:   old.MenuItemId,
				MenuItemName: old.MenuItemName,
				Qty:          qty,
				Price:        old.Price,
				Amount:       qty.Mul(old.Price),
			})
			continue
		}

		// an edit re-captures every line at today's menu price
		price := item.Price
		if !kept && item.IsAvailable != nil && !*item.IsAvailable {
			return nil, utils.NewValidationError("menu item '%s' is not available", item.Name)
		}

		if change, ok := diff[in.MenuItemId]; ok {
			stockName, err := stockNameForMenuItem(txCtx, &item)
			if err != nil {
				return nil, err
			}
			d := deltas[stockName]
			// an increase in ordered qty is a further deduction
			d.Qty = d.Qty.Sub(change)
			d.Unit = item.Unit
			deltas[stockName] = d
		}

		details = append(details, OrderDetail{
			OrderId:      order.ID,
			MenuItemId:   item.ID,
			MenuItemName: item.Name,
			Qty:          qty,
			Price:        price,
			Amount:       qty.Mul(price),
		})
	}
	// removed items return their stock
	for itemId, change := range diff {
		if _, stillOrdered := newQty[itemId]; stillOrdered {
			continue
		}
		var item MenuItem
		err := txCtx.Where("restaurant_id = ?", restaurantId).First(&item, itemId).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// catalog entry deleted since placement; restore by captured name
				old := oldLine[itemId]
				d := deltas[old.MenuItemName]
				d.Qty = d.Qty.Sub(change)
				deltas[old.MenuItemName] = d
				continue
			}
			return nil, err
		}
		stockName, err := stockNameForMenuItem(txCtx, &item)
		if err != nil {
			return nil, err
		}
		d := deltas[stockName]
		d.Qty = d.Qty.Sub(change)
		d.Unit = item.Unit
		deltas[stockName] = d
	}

	if err := adjustStockBatch(txCtx, restaurantId, deltas); err != nil {
		return nil, err
	}

	if err := txCtx.Where("order_id = ?", order.ID).Delete(&OrderDetail{}).Error; err != nil {
		return nil, err
	}
	order.TableNo = input.TableNo
	order.CustomerId = input.CustomerId
	order.Remark = input.Remark
	order.Details = details
	order.TotalAmount = orderTotal(details)
	if err := txCtx.Save(&order).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionUpdate, order.ID, ReferenceTypeOrder,
		before, order, "order updated"); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder cancels an editable order and returns its stock.
func DeleteOrder(ctx context.Context, id int) error {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return errors.New("restaurant id is required")
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

	var order Order
	err := txCtx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details").
		Where("restaurant_id = ?", restaurantId).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}
	if !order.Status.Editable() {
		return utils.NewValidationError("order %d is %s and can no longer be deleted", order.ID, order.Status)
	}

	deltas := make(map[string]stockDelta)
	for _, d := range order.Details {
		var item MenuItem
		stockName := d.MenuItemName
		unit := ""
		err := txCtx.Where("restaurant_id = ?", restaurantId).First(&item, d.MenuItemId).Error
		if err == nil {
			stockName, err = stockNameForMenuItem(txCtx, &item)
			if err != nil {
				return err
			}
			unit = item.Unit
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		sd := deltas[stockName]
		sd.Qty = sd.Qty.Add(d.Qty)
		if sd.Unit == "" {
			sd.Unit = unit
		}
		deltas[stockName] = sd
	}

	if err := adjustStockBatch(txCtx, restaurantId, deltas); err != nil {
		return err
	}

	if err := txCtx.Where("order_id = ?", order.ID).Delete(&OrderDetail{}).Error; err != nil {
		return err
	}
	if err := txCtx.Delete(&Order{}, order.ID).Error; err != nil {
		return err
	}

	if err := createHistory(txCtx, HistoryActionDelete, order.ID, ReferenceTypeOrder,
		order, nil, "order cancelled"); err != nil {
		return err
	}

	return tx.Commit().Error
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchModel[Order](ctx, restaurantId, id, "Details")
}

func GetOrders(ctx context.Context, status OrderStatus) ([]*Order, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	db := config.GetDB()
	var orders []*Order
	dbCtx := db.WithContext(ctx).Preload("Details").Where("restaurant_id = ?", restaurantId)
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	if err := dbCtx.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order along the kitchen flow. Settlement states
// are reached only through the settle operations, never through here.
func UpdateOrderStatus(ctx context.Context, id int, status OrderStatus) (*Order, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if status != OrderStatusPreparing && status != OrderStatusPending && status != OrderStatusServed {
		return nil, utils.NewValidationError("invalid order status '%s'", status)
	}

	order, err := utils.FetchModel[Order](ctx, restaurantId, id, "Details")
	if err != nil {
		return nil, err
	}
	if order.Status.Settled() {
		return nil, utils.NewValidationError("order %d is already settled", order.ID)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Order{}).Where("id = ?", order.ID).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status
	return order, nil
}

// billLinesForOrder builds the billing input for the given price policy:
// "current" re-reads today's menu prices, "captured" bills what the lines
// froze at placement. The captured branch never touches the database.
func billLinesForOrder(tx *gorm.DB, order *Order, policy string) ([]utils.BillLine, error) {
	lines := make([]utils.BillLine, 0, len(order.Details))
	useCurrent := policy == config.PricePolicyCurrent

	for _, d := range order.Details {
		rate := d.Price
		if useCurrent {
			var item MenuItem
			err := tx.Where("restaurant_id = ?", order.RestaurantId).First(&item, d.MenuItemId).Error
			if err == nil {
				rate = item.Price
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
		lines = append(lines, utils.BillLine{Qty: d.Qty, Rate: rate})
	}
	return lines, nil
}

// PreviewBill computes the breakdown the customer would be billed right now,
// without touching the order. Preview and settlement share CalculateBill, so
// for fixed inputs they agree exactly.
func PreviewBill(ctx context.Context, id int, discount decimal.Decimal) (*utils.BillBreakdown, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	order, err := utils.FetchModel[Order](ctx, restaurantId, id, "Details")
	if err != nil {
		return nil, err
	}
	if order.Status.Settled() {
		return nil, utils.NewValidationError("order %d is already settled", order.ID)
	}

	restaurant, err := GetRestaurantById(ctx, restaurantId)
	if err != nil {
		return nil, err
	}
	surcharges, err := getActiveSurcharges(ctx, restaurantId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	lines, err := billLinesForOrder(db.WithContext(ctx), order, config.SettlementPricePolicy())
	if err != nil {
		return nil, err
	}

	breakdown := utils.CalculateBill(lines, discount, surcharges, restaurant.VatPercent)
	return &breakdown, nil
}

// settleOrder is the shared settlement path. It locks the order, runs the
// billing pipeline and flips the status in one transaction guarded by the
// per-restaurant settlement lock. A paid settlement allocates the fiscal-year
// bill number from the locked sequence row and freezes the breakdown in a
// bill counter row; a credit settlement appends to the customer ledger and
// issues no bill number.
func settleOrder(ctx context.Context, id int, input *SettleOrderInput, credit bool) (*Order, *utils.BillBreakdown, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, nil, errors.New("restaurant id is required")
	}
	if credit && input.CustomerId == nil {
		return nil, nil, utils.NewValidationError("credit settlement requires a customer")
	}
	if input.PaidAmount.IsNegative() {
		return nil, nil, utils.NewValidationError("paid amount cannot be negative")
	}

	lock, err := utils.RestaurantLock(ctx, restaurantId, "settleOrder", "models", "settleOrder")
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = lock.Release(context.Background()) }()

	restaurant, err := GetRestaurantById(ctx, restaurantId)
	if err != nil {
		return nil, nil, err
	}
	surcharges, err := getActiveSurcharges(ctx, restaurantId)
	if err != nil {
		return nil, nil, err
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

	var order Order
	err = txCtx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details").
		Where("restaurant_id = ?", restaurantId).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.ErrorRecordNotFound
		}
		return nil, nil, err
	}
	if order.Status.Settled() {
		return nil, nil, utils.NewValidationError("order %d is already settled", order.ID)
	}
	before := order

	customerId := order.CustomerId
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, restaurantId, *input.CustomerId); err != nil {
			return nil, nil, err
		}
		customerId = input.CustomerId
	}
	if credit && customerId == nil {
		return nil, nil, utils.NewValidationError("credit settlement requires a customer")
	}

	lines, err := billLinesForOrder(txCtx, &order, config.SettlementPricePolicy())
	if err != nil {
		return nil, nil, err
	}
	breakdown := utils.CalculateBill(lines, input.Discount, surcharges, restaurant.VatPercent)

	if input.PaidAmount.GreaterThan(breakdown.NetTotal) {
		return nil, nil, utils.NewValidationError("paid amount exceeds the bill total")
	}

	// only a paid settlement issues a numbered restaurant bill; a credit
	// settlement lands on the customer ledger instead
	if credit {
		order.Status = OrderStatusCredit
	} else {
		fiscalYear := cal.FiscalYear(cal.Today())
		billNo, err := nextBillNumber(txCtx, restaurantId, fiscalYear)
		if err != nil {
			return nil, nil, err
		}

		breakdownJSON, _ := json.Marshal(breakdown)
		counter := BillCounter{
			RestaurantId:  restaurantId,
			FiscalYear:    fiscalYear,
			BillNo:        billNo,
			OrderId:       order.ID,
			CustomerId:    customerId,
			PaymentMethod: string(input.PaymentMethod),
			NetTotal:      breakdown.NetTotal,
			Breakdown:     string(breakdownJSON),
		}
		if err := txCtx.Create(&counter).Error; err != nil {
			return nil, nil, err
		}

		order.Status = OrderStatusPaid
		order.BillNo = &billNo
		order.FiscalYear = fiscalYear
	}

	order.Discount = breakdown.DiscountAmount
	order.CustomerId = customerId
	if err := txCtx.Save(&order).Error; err != nil {
		return nil, nil, err
	}

	// the customer ledger moves only on credit settlements; a cash/paid
	// settlement with a customer attached stays off the ledger
	if credit {
		if err := recordConsumption(txCtx, restaurantId, *customerId, &order, &breakdown,
			input.PaidAmount, input.PaymentMethod); err != nil {
			return nil, nil, err
		}
	}

	if err := createHistory(txCtx, HistoryActionSettle, order.ID, ReferenceTypeOrder,
		before, order, "order settled"); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &order, &breakdown, nil
}

// SettleOrderPaid closes an order as fully paid.
func SettleOrderPaid(ctx context.Context, id int, input *SettleOrderInput) (*Order, *utils.BillBreakdown, error) {
	return settleOrder(ctx, id, input, false)
}

// SettleOrderCredit closes an order onto a customer's credit ledger.
// PaidAmount is whatever was handed over today; the remainder becomes due.
func SettleOrderCredit(ctx context.Context, id int, input *SettleOrderInput) (*Order, *utils.BillBreakdown, error) {
	return settleOrder(ctx, id, input, true)
}
