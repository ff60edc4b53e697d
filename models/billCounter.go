package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillSequence is the per-restaurant, per-fiscal-year bill number allocator.
// nextBillNumber locks the row FOR UPDATE before incrementing, so concurrent
// settlements serialize on it instead of racing a read-max-then-insert. Gaps
// are still possible when a settlement rolls back after allocation; that is
// accepted, duplicates are not.
type BillSequence struct {
	ID           int       `gorm:"primary_key" json:"id"`
	RestaurantId string    `gorm:"uniqueIndex:idx_restaurant_fiscal_year;size:36;not null" json:"restaurant_id"`
	FiscalYear   string    `gorm:"uniqueIndex:idx_restaurant_fiscal_year;size:10;not null" json:"fiscal_year"`
	LastBillNo   int       `gorm:"not null;default:0" json:"last_bill_no"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BillCounter is the settled-bill record: one row per issued restaurant bill
// carrying the frozen breakdown. Breakdown holds the full BillBreakdown as
// JSON so a reprint does not depend on today's charge or VAT configuration.
type BillCounter struct {
	ID            int             `gorm:"primary_key" json:"id"`
	RestaurantId  string          `gorm:"uniqueIndex:idx_restaurant_year_bill_no;size:36;not null" json:"restaurant_id"`
	FiscalYear    string          `gorm:"uniqueIndex:idx_restaurant_year_bill_no;size:10;not null" json:"fiscal_year"`
	BillNo        int             `gorm:"uniqueIndex:idx_restaurant_year_bill_no;not null" json:"bill_no"`
	OrderId       int             `gorm:"index;not null" json:"order_id"`
	CustomerId    *int            `gorm:"index" json:"customer_id"`
	PaymentMethod string          `gorm:"size:20" json:"payment_method"`
	NetTotal      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_total"`
	Breakdown     string          `gorm:"type:text" json:"breakdown"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// nextBillNumber allocates the next bill number for the fiscal year inside
// the caller's transaction. The sequence row is created on first use, then
// locked and incremented in place.
func nextBillNumber(tx *gorm.DB, restaurantId string, fiscalYear string) (int, error) {
	seq := BillSequence{
		RestaurantId: restaurantId,
		FiscalYear:   fiscalYear,
	}
	if err := tx.Where("restaurant_id = ? AND fiscal_year = ?", restaurantId, fiscalYear).
		FirstOrCreate(&seq).Error; err != nil {
		return 0, err
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", seq.ID).
		First(&seq).Error; err != nil {
		return 0, err
	}

	next := seq.LastBillNo + 1
	if err := tx.Model(&BillSequence{}).Where("id = ?", seq.ID).
		Update("last_bill_no", next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
