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

// GeneralBill is non-inventory spend (rent, utilities, repairs). It shares
// the purchase bill's identity rules and audit discipline but never touches
// the stock ledger.
type GeneralBill struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	RestaurantId string              `gorm:"index;size:36;not null" json:"restaurant_id"`
	SupplierName string              `gorm:"size:100;not null" json:"supplier_name"`
	BillNo       string              `gorm:"size:50;not null" json:"bill_no"`
	BillDate     time.Time           `gorm:"not null" json:"bill_date"`
	FiscalYear   string              `gorm:"size:10;not null" json:"fiscal_year"`
	Category     string              `gorm:"size:100" json:"category"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Remark       string              `gorm:"size:255" json:"remark"`
	Details      []GeneralBillDetail `gorm:"foreignKey:GeneralBillId" json:"details"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type GeneralBillDetail struct {
	ID            int             `gorm:"primary_key" json:"id"`
	GeneralBillId int             `gorm:"index;not null" json:"general_bill_id"`
	Description   string          `gorm:"size:255;not null" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewGeneralBillDetail struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

type NewGeneralBill struct {
	SupplierName string                 `json:"supplier_name" binding:"required"`
	BillNo       string                 `json:"bill_no" binding:"required"`
	BillDate     time.Time              `json:"bill_date" binding:"required"`
	Category     string                 `json:"category"`
	Remark       string                 `json:"remark"`
	Reason       string                 `json:"reason"`
	Details      []NewGeneralBillDetail `json:"details" binding:"required,min=1,dive"`
}

func checkDuplicateGeneralBill(tx *gorm.DB, restaurantId string, supplierName string,
	billNo string, fiscalYear string, exceptId int) error {

	var count int64
	dbCtx := tx.Model(&GeneralBill{}).
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

func buildGeneralLines(inputs []NewGeneralBillDetail) ([]GeneralBillDetail, decimal.Decimal, error) {
	details := make([]GeneralBillDetail, 0, len(inputs))
	var total decimal.Decimal
	for _, in := range inputs {
		if !in.Amount.IsPositive() {
			return nil, decimal.Zero, utils.NewValidationError("bill line amount must be positive")
		}
		details = append(details, GeneralBillDetail{
			Description: in.Description,
			Amount:      in.Amount,
		})
		total = total.Add(in.Amount)
	}
	return details, total, nil
}

func CreateGeneralBill(ctx context.Context, input *NewGeneralBill) (*GeneralBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	details, total, err := buildGeneralLines(input.Details)
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

	if err := checkDuplicateGeneralBill(txCtx, restaurantId, input.SupplierName,
		input.BillNo, fiscalYear, 0); err != nil {
		return nil, err
	}

	bill := GeneralBill{
		RestaurantId: restaurantId,
		SupplierName: input.SupplierName,
		BillNo:       input.BillNo,
		BillDate:     input.BillDate,
		FiscalYear:   fiscalYear,
		Category:     input.Category,
		TotalAmount:  total,
		Remark:       input.Remark,
		Details:      details,
	}
	if err := txCtx.Create(&bill).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionCreate, bill.ID, ReferenceTypeGeneralBill,
		nil, bill, "general bill recorded"); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func UpdateGeneralBill(ctx context.Context, id int, input *NewGeneralBill) (*GeneralBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if input.Reason == "" {
		return nil, utils.NewValidationError("a reason is required to edit a bill")
	}

	details, total, err := buildGeneralLines(input.Details)
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

	var bill GeneralBill
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

	if err := checkDuplicateGeneralBill(txCtx, restaurantId, input.SupplierName,
		input.BillNo, fiscalYear, bill.ID); err != nil {
		return nil, err
	}

	if err := txCtx.Where("general_bill_id = ?", bill.ID).Delete(&GeneralBillDetail{}).Error; err != nil {
		return nil, err
	}
	bill.SupplierName = input.SupplierName
	bill.BillNo = input.BillNo
	bill.BillDate = input.BillDate
	bill.FiscalYear = fiscalYear
	bill.Category = input.Category
	bill.TotalAmount = total
	bill.Remark = input.Remark
	bill.Details = details
	if err := txCtx.Save(&bill).Error; err != nil {
		return nil, err
	}

	if err := createHistory(txCtx, HistoryActionUpdate, bill.ID, ReferenceTypeGeneralBill,
		before, bill, input.Reason); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func DeleteGeneralBill(ctx context.Context, id int, reason string) error {
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

	var bill GeneralBill
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

	if err := txCtx.Where("general_bill_id = ?", bill.ID).Delete(&GeneralBillDetail{}).Error; err != nil {
		return err
	}
	if err := txCtx.Delete(&GeneralBill{}, bill.ID).Error; err != nil {
		return err
	}

	if err := createHistory(txCtx, HistoryActionDelete, bill.ID, ReferenceTypeGeneralBill,
		bill, nil, reason); err != nil {
		return err
	}

	return tx.Commit().Error
}

func GetGeneralBill(ctx context.Context, id int) (*GeneralBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchModel[GeneralBill](ctx, restaurantId, id, "Details")
}

func GetGeneralBills(ctx context.Context, fiscalYear string) ([]*GeneralBill, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	db := config.GetDB()
	var bills []*GeneralBill
	dbCtx := db.WithContext(ctx).Preload("Details").Where("restaurant_id = ?", restaurantId)
	if fiscalYear != "" {
		dbCtx = dbCtx.Where("fiscal_year = ?", fiscalYear)
	}
	if err := dbCtx.Order("bill_date DESC, id DESC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
