package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is the catalog entry the staff client orders against. The stock
// link is a stable id resolved once when the catalog is edited; the old
// match-by-display-name-on-every-order behavior detached silently whenever
// an item was renamed.
type MenuItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	RestaurantId  string          `gorm:"index;size:36;not null" json:"restaurant_id"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Unit          string          `gorm:"size:20" json:"unit"`
	Price         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	IsAvailable   *bool           `gorm:"not null;default:true" json:"is_available"`
	StockRecordId *int            `gorm:"index;default:null" json:"stock_record_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMenuItem struct {
	Name        string          `json:"name" binding:"required"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	IsAvailable *bool           `json:"is_available"`
}

// resolveStockRecordId matches a menu item to its stock row by name, once,
// at catalog-edit time. Returns nil when the item is not inventory-tracked.
func resolveStockRecordId(ctx context.Context, restaurantId string, name string) *int {
	db := config.GetDB()
	var record StockRecord
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND stock_name = ?", restaurantId, name).
		First(&record).Error
	if err != nil {
		return nil
	}
	return &record.ID
}

func CreateMenuItem(ctx context.Context, input *NewMenuItem) (*MenuItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if input.Price.IsNegative() {
		return nil, utils.NewValidationError("menu price cannot be negative")
	}
	if err := utils.ValidateUnique[MenuItem](ctx, restaurantId, "name", input.Name, 0); err != nil {
		return nil, utils.NewValidationError("menu item '%s' already exists", input.Name)
	}

	item := MenuItem{
		RestaurantId:  restaurantId,
		Name:          input.Name,
		Unit:          input.Unit,
		Price:         input.Price,
		IsAvailable:   input.IsAvailable,
		StockRecordId: resolveStockRecordId(ctx, restaurantId, input.Name),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateMenuItem(ctx context.Context, id int, input *NewMenuItem) (*MenuItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	item, err := utils.FetchModel[MenuItem](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}
	if input.Price.IsNegative() {
		return nil, utils.NewValidationError("menu price cannot be negative")
	}
	if err := utils.ValidateUnique[MenuItem](ctx, restaurantId, "name", input.Name, id); err != nil {
		return nil, utils.NewValidationError("menu item '%s' already exists", input.Name)
	}

	item.Name = input.Name
	item.Unit = input.Unit
	item.Price = input.Price
	if input.IsAvailable != nil {
		item.IsAvailable = input.IsAvailable
	}
	// re-resolve on every catalog edit so renames keep the link current
	item.StockRecordId = resolveStockRecordId(ctx, restaurantId, input.Name)

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func GetMenuItems(ctx context.Context) ([]*MenuItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchAllModels[MenuItem](ctx, restaurantId)
}

func GetMenuItem(ctx context.Context, id int) (*MenuItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchModel[MenuItem](ctx, restaurantId, id)
}

// stockNameForMenuItem resolves which stock row an ordered item draws from.
// Linked items use the stock record's own name; unlinked items fall back to
// a one-time name match (lazy migration of rows created before the link
// existed) and stay untracked when nothing matches.
func stockNameForMenuItem(tx *gorm.DB, item *MenuItem) (string, error) {
	if item.StockRecordId != nil {
		var record StockRecord
		if err := tx.First(&record, *item.StockRecordId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return item.Name, nil
			}
			return "", err
		}
		return record.StockName, nil
	}

	var record StockRecord
	err := tx.Where("restaurant_id = ? AND stock_name = ?", item.RestaurantId, item.Name).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return item.Name, nil
		}
		return "", err
	}
	// persist the match so the next order skips the name lookup
	if err := tx.Model(&MenuItem{}).Where("id = ?", item.ID).
		Update("stock_record_id", record.ID).Error; err != nil {
		return "", err
	}
	item.StockRecordId = &record.ID
	return record.StockName, nil
}
