package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRecord is the running on-hand quantity for one stock name in one
// restaurant. Rows are created lazily on the first purchase or manual
// addition and never deleted; qty may legally sit at zero. The column itself
// is signed — the non-negative floor is enforced by stockAfterAdjust, not by
// the storage layer, so external direct edits are not guarded.
type StockRecord struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"uniqueIndex:idx_restaurant_stock_name;size:36;not null" json:"restaurant_id"`
	StockName    string          `gorm:"uniqueIndex:idx_restaurant_stock_name;size:100;not null" json:"stock_name"`
	Unit         string          `gorm:"size:20" json:"unit"`
	Qty          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// stockAfterAdjust is the sufficiency check: the quantity a record would hold
// after applying delta, or InsufficientStockError if that would go negative.
func stockAfterAdjust(stockName string, current, delta decimal.Decimal) (decimal.Decimal, error) {
	next := current.Add(delta)
	if next.IsNegative() {
		return current, &utils.InsufficientStockError{
			StockName: stockName,
			Current:   current,
			Required:  delta.Neg(),
		}
	}
	return next, nil
}

// adjustStock applies one delta to one stock row inside the caller's
// transaction. The row is locked FOR UPDATE before the sufficiency check so
// two concurrent edits cannot both pass against a stale quantity.
//
// Untracked names (no row) are unlimited: a positive delta creates the row,
// a negative delta is silently skipped.
func adjustStock(tx *gorm.DB, restaurantId string, stockName string, unit string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	var record StockRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ? AND stock_name = ?", restaurantId, stockName).
		First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if delta.IsNegative() {
			// not inventory-tracked, nothing to deduct
			return nil
		}
		record = StockRecord{
			RestaurantId: restaurantId,
			StockName:    stockName,
			Unit:         unit,
			Qty:          delta,
		}
		return tx.Create(&record).Error
	}

	if _, err := stockAfterAdjust(stockName, record.Qty, delta); err != nil {
		return err
	}

	return tx.Exec("UPDATE stock_records SET qty = qty + ? WHERE id = ?", delta, record.ID).Error
}

type stockDelta struct {
	Qty  decimal.Decimal
	Unit string
}

// adjustStockBatch applies a delta per stock name in sorted name order, so
// two transactions touching overlapping item sets always acquire row locks
// in the same order.
func adjustStockBatch(tx *gorm.DB, restaurantId string, deltas map[string]stockDelta) error {
	names := make([]string, 0, len(deltas))
	for name := range deltas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := deltas[name]
		if err := adjustStock(tx, restaurantId, name, d.Unit, d.Qty); err != nil {
			return err
		}
	}
	return nil
}

// lockStockNames takes the row locks for a set of names up front, in sorted
// order, before a reverse-then-reapply pass touches them in two sweeps.
func lockStockNames(tx *gorm.DB, restaurantId string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	unique := utils.UniqueSlice(names)
	sort.Strings(unique)

	var records []StockRecord
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ? AND stock_name IN ?", restaurantId, unique).
		Find(&records).Error
}

type NewStockEntry struct {
	StockName string          `json:"stock_name" binding:"required"`
	Unit      string          `json:"unit"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
}

// AddStock records a manual stock addition (opening counts, market buys that
// never get a vendor bill).
func AddStock(ctx context.Context, input *NewStockEntry) (*StockRecord, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if !input.Qty.IsPositive() {
		return nil, utils.NewValidationError("stock quantity must be positive")
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

	if err := adjustStock(tx.WithContext(ctx), restaurantId, input.StockName, input.Unit, input.Qty); err != nil {
		return nil, err
	}

	var record StockRecord
	if err := tx.WithContext(ctx).
		Where("restaurant_id = ? AND stock_name = ?", restaurantId, input.StockName).
		First(&record).Error; err != nil {
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), HistoryActionCreate, record.ID, ReferenceTypeStockRecord,
		nil, record, "manual stock addition"); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetStockRecords lists the on-hand ledger for the restaurant.
func GetStockRecords(ctx context.Context) ([]*StockRecord, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchAllModels[StockRecord](ctx, restaurantId)
}
