package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/shopspring/decimal"
)

// Charge is a named percentage surcharge (service charge, delivery fee)
// applied to the post-discount subtotal during billing. VAT is not a Charge;
// it comes from the restaurant record.
type Charge struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;size:36;not null" json:"restaurant_id"`
	Name         string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Percent      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"percent"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCharge struct {
	Name     string          `json:"name" binding:"required"`
	Percent  decimal.Decimal `json:"percent" binding:"required"`
	IsActive *bool           `json:"is_active"`
}

func chargeCacheKey(restaurantId string) string {
	return "chargeList:" + restaurantId
}

func CreateCharge(ctx context.Context, input *NewCharge) (*Charge, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	if input.Percent.IsNegative() {
		return nil, utils.NewValidationError("charge percent cannot be negative")
	}
	if err := utils.ValidateUnique[Charge](ctx, restaurantId, "name", input.Name, 0); err != nil {
		return nil, utils.NewValidationError("charge '%s' already exists", input.Name)
	}

	charge := Charge{
		RestaurantId: restaurantId,
		Name:         input.Name,
		Percent:      input.Percent,
		IsActive:     input.IsActive,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&charge).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(chargeCacheKey(restaurantId)); err != nil {
		return nil, err
	}
	return &charge, nil
}

func UpdateCharge(ctx context.Context, id int, input *NewCharge) (*Charge, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	charge, err := utils.FetchModel[Charge](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}
	if input.Percent.IsNegative() {
		return nil, utils.NewValidationError("charge percent cannot be negative")
	}

	charge.Name = input.Name
	charge.Percent = input.Percent
	if input.IsActive != nil {
		charge.IsActive = input.IsActive
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Save(charge).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(chargeCacheKey(restaurantId)); err != nil {
		return nil, err
	}
	return charge, nil
}

func GetCharges(ctx context.Context) ([]*Charge, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}
	return utils.FetchAllModels[Charge](ctx, restaurantId)
}

// getActiveSurcharges returns the restaurant's active charges in definition
// order, redis-cached (invalidated on every charge write). The billing
// pipeline applies them in exactly this order.
func getActiveSurcharges(ctx context.Context, restaurantId string) ([]utils.Surcharge, error) {
	surcharges := make([]utils.Surcharge, 0)
	cacheKey := chargeCacheKey(restaurantId)
	exists, err := config.GetRedisObject(cacheKey, &surcharges)
	if err != nil {
		return nil, err
	}
	if exists {
		return surcharges, nil
	}

	db := config.GetDB()
	var charges []*Charge
	if err := db.WithContext(ctx).
		Where("restaurant_id = ? AND is_active = true", restaurantId).
		Order("id ASC").
		Find(&charges).Error; err != nil {
		return nil, err
	}
	for _, c := range charges {
		surcharges = append(surcharges, utils.Surcharge{Name: c.Name, Percent: c.Percent})
	}
	if err := config.SetRedisObject(cacheKey, &surcharges, 0); err != nil {
		return nil, err
	}
	return surcharges, nil
}
