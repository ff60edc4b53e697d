package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseBill is a supplier invoice whose lines feed the stock ledger.
// FiscalYear is derived from BillDate at write time and re-derived on every
// edit, so moving the date across the fiscal cutover re-files the bill.
type PurchaseBill struct {
	ID           int                  `gorm:"primary_key" json:"id"`
	RestaurantId string               `gorm:"index;size:36;not null" json:"restaurant_id"`
	SupplierName string               `gorm:"size:100;not null" json:"supplier_name"`
	BillNo       string               `gorm:"size:50;not null" json:"bill_no"`
	BillDate     time.Time            `gorm:"not null" json:"bill_date"`
	FiscalYear   string               `gorm:"size:10;not null" json:"fiscal_year"`
	TotalAmount  decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Remark       string               `gorm:"size:255" json:"remark"`
	Details      []PurchaseBillDetail `gorm:"foreignKey:PurchaseBillId" json:"details"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseBillDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	PurchaseBillId int             `gorm:"index;not null" json:"purchase_bill_id"`
	StockName      string          `gorm:"size:100;not null" json:"stock_name"`
	Unit           string          `gorm:"size:20" json:"unit"`
	Qty            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	Rate           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPurchaseBillDetail struct {
	StockName string          `json:"stock_name" binding:"required"`
	Unit      string          `json:"unit"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	Rate      decimal.Decimal `json:"rate" binding:"required"`
}

type NewPurchaseBill struct {
	SupplierName string                  `json:"supplier_name" binding:"required"`
	BillNo       string                  `json:"bill_no" binding:"required"`
	BillDate     time.Time               `json:"bill_date" binding:"required"`
	Remark       string                  `json:"remark"`
	Reason       string                  `json:"reason"`
	Details      []NewPurchaseBillDetail `json:"details" binding:"required,min=1,dive"`
}

// checkDuplicatePurchaseBill rejects a second bill with the same supplier and
// bill number in the same fiscal year, excluding the bill being edited.
func checkDuplicatePurchaseBill(tx *gorm.DB, restaurantId string, supplierName string,
	billNo string, fiscalYear string, exceptId int) error {

	var count int64
	dbCtx := tx.Model(&PurchaseBill{}).
		Where("restaurant_id = ? AND supplier_name = ? AND bill_no = ? AND fiscal_year = ?",
			restaurantId, supplierName, billNo, fiscalYear)
	if exceptId > 0 {
		dbCtx = dbCtx.Where("id <> ?", exceptId)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &utils.DuplicateBillError{
			SupplierName: supplierName,
			BillNo:       billNo,
			FiscalYear:   fiscalYear,
		}
	}
	return nil
}

func buildPurchaseLines(inputs []NewPurchaseBillDetail) ([]PurchaseBillDetail, decimal.Decimal, error) {
	details := make([]PurchaseBillDetail, 0, len(inputs))
	var total decimal.Decimal
	seen := make(map[string]struct{}, len(inputs))

	for _, in := range inputs {
		if !in.Qty.IsPositive() {
			return nil, decimal.Zero, utils.NewValidationError("purchase quantity must be positive")
		}
		if in.Rate.IsNegative() {
			return nil, decimal.Zero, utils.NewValidationError("purchase rate cannot be negative")
		}
		if _, dup := seen[in.StockName]; dup {
			return nil, decimal.Zero, utils.NewValidationError("stock '%s' appears more than once", in.StockName)
		}
		seen[in.StockName] = struct{}{}

		amount := in.Qty.Mul(in.Rate)
		details = append(details, PurchaseBillDetail{
			StockName: in.StockName,
			Unit:      in.Unit,
			Qty:       in.Qty,
			Rate:      in.Rate,
			Amount:    amount,
		})
		total = total.Add(amount)
	}
	return details, total, nil
}

// CreatePurchaseBill records a supplier bill and adds its quantities to
// stock, creating stock rows for names seen for the first time.
func CreatePurchaseBill(ctx context.Context, input *NewPurchaseBill) (*PurchaseBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	details, total, err := buildPurchaseLines(input.Details)
	if err != nil {
		return nil, err
	}
	fiscalYear := cal.FiscalYear(input.BillDate)

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

	if err := checkDuplicatePurchaseBill(txCtx, restaurantId, input.SupplierName,
		input.BillNo, fiscalYear, 0); err != nil {
		return nil, err
	}

	deltas := make(map[string]stockDelta, len(details))
	for _, d := range details {
		deltas[d.StockName] = stockDelta{Qty: d.Qty, Unit: d.Unit}
	}
	if err := adjustStockBatch(txCtx, restaurantId, deltas); err != nil {
		return nil, err
	}

	bill := PurchaseBill{
		RestaurantId: restaurantId,
		SupplierName: input.SupplierName,
		BillNo:       input.BillNo,
		BillDate:     input.BillDate,
		FiscalYear:   fiscalYear,
		TotalAmount:  total,
		Remark:       input.Remark,
		Details:      details,
	}
	if err := txCtx.Create(&bill).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionCreate, bill.ID, ReferenceTypePurchaseBill,
		nil, bill, "purchase bill recorded"); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// UpdatePurchaseBill replaces a bill wholesale: the old lines are reversed
// out of stock, then the new lines are applied, as two sweeps. Reversal can
// fail with InsufficientStock when the originally purchased quantities have
// already been consumed; the edit is then rejected and nothing changes. All
// affected stock rows are locked up front so the two sweeps cannot deadlock
// against a concurrent edit. A non-empty reason is mandatory and lands in
// the audit row.
func UpdatePurchaseBill(ctx context.Context, id int, input *NewPurchaseBill) (*PurchaseBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if input.Reason == "" {
		return nil, utils.NewValidationError("a reason is required to edit a bill")
	}

	details, total, err := buildPurchaseLines(input.Details)
	if err != nil {
		return nil, err
	}
	fiscalYear := cal.FiscalYear(input.BillDate)

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

	var bill PurchaseBill
	err = txCtx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details").
		Where("restaurant_id = ?", restaurantId).
		First(&bill, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := bill

	// duplicate check runs against the new identity before any stock moves
	if err := checkDuplicatePurchaseBill(txCtx, restaurantId, input.SupplierName,
		input.BillNo, fiscalYear, bill.ID); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(bill.Details)+len(details))
	for _, d := range bill.Details {
		names = append(names, d.StockName)
	}
	for _, d := range details {
		names = append(names, d.StockName)
	}
	if err := lockStockNames(txCtx, restaurantId, names); err != nil {
		return nil, err
	}

	reverse := make(map[string]stockDelta, len(bill.Details))
	for _, d := range bill.Details {
		reverse[d.StockName] = stockDelta{Qty: d.Qty.Neg(), Unit: d.Unit}
	}
	if err := adjustStockBatch(txCtx, restaurantId, reverse); err != nil {
		return nil, err
	}

	apply := make(map[string]stockDelta, len(details))
	for _, d := range details {
		apply[d.StockName] = stockDelta{Qty: d.Qty, Unit: d.Unit}
	}
	if err := adjustStockBatch(txCtx, restaurantId, apply); err != nil {
		return nil, err
	}

	if err := txCtx.Where("purchase_bill_id = ?", bill.ID).Delete(&PurchaseBillDetail{}).Error; err != nil {
		return nil, err
	}
	bill.SupplierName = input.SupplierName
	bill.BillNo = input.BillNo
	bill.BillDate = input.BillDate
	bill.FiscalYear = fiscalYear
	bill.TotalAmount = total
	bill.Remark = input.Remark
	bill.Details = details
	if err := txCtx.Save(&bill).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionUpdate, bill.ID, ReferenceTypePurchaseBill,
		before, bill, input.Reason); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// DeletePurchaseBill removes a bill and reverses its stock. Like an edit, the
// reversal fails when the purchased quantities are already consumed, and a
// reason is mandatory.
func DeletePurchaseBill(ctx context.Context, id int, reason string) error {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return errors.New("restaurant id is required")
	}
	if reason == "" {
		return utils.NewValidationError("a reason is required to delete a bill")
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

	var bill PurchaseBill
	err := txCtx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Details").
		Where("restaurant_id = ?", restaurantId).
		First(&bill, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	reverse := make(map[string]stockDelta, len(bill.Details))
	for _, d := range bill.Details {
		reverse[d.StockName] = stockDelta{Qty: d.Qty.Neg(), Unit: d.Unit}
	}
	if err := adjustStockBatch(txCtx, restaurantId, reverse); err != nil {
		return err
	}

	if err := txCtx.Where("purchase_bill_id = ?", bill.ID).Delete(&PurchaseBillDetail{}).Error; err != nil {
		return err
	}
	if err := txCtx.Delete(&PurchaseBill{}, bill.ID).Error; err != nil {
		return err
	}

	if err := createHistory(txCtx, HistoryActionDelete, bill.ID, ReferenceTypePurchaseBill,
		bill, nil, reason); err != nil {
		return err
	}

	return tx.Commit().Error
}

func GetPurchaseBill(ctx context.Context, id int) (*PurchaseBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchModel[PurchaseBill](ctx, restaurantId, id, "Details")
}

func GetPurchaseBills(ctx context.Context, fiscalYear string) ([]*PurchaseBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	db := config.GetDB()
	var bills []*PurchaseBill
	dbCtx := db.WithContext(ctx).Preload("Details").Where("restaurant_id = ?", restaurantId)
	if fiscalYear != "" {
		dbCtx = dbCtx.Where("fiscal_year = ?", fiscalYear)
	}
	if err := dbCtx.Order("bill_date DESC, id DESC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
