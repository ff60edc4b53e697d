package models

import (
	"bitbucket.org/mmdatafocus/restro_backend/config"
)

// MigrateTable auto-migrates every engine table. Order matters only for
// readability; gorm resolves references by tag.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Restaurant{},
		&StockRecord{},
		&MenuItem{},
		&Charge{},
		&Order{},
		&OrderDetail{},
		&BillSequence{},
		&BillCounter{},
		&PurchaseBill{},
		&PurchaseBillDetail{},
		&GeneralBill{},
		&GeneralBillDetail{},
		&Customer{},
		&CustomerTransaction{},
		&History{},
	)
}
