package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Restaurant is the tenant record. Every engine row carries its id; the
// actor middleware puts it into the request context.
type Restaurant struct {
	ID         string          `gorm:"primary_key;size:36" json:"id"`
	Name       string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Address    string          `gorm:"size:255" json:"address"`
	VatPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"vat_percent"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRestaurant struct {
	Name       string          `json:"name" binding:"required"`
	Address    string          `json:"address"`
	VatPercent decimal.Decimal `json:"vat_percent"`
}

func CreateRestaurant(ctx context.Context, input *NewRestaurant) (*Restaurant, error) {
	db := config.GetDB()
	restaurant := Restaurant{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Address:    input.Address,
		VatPercent: input.VatPercent,
	}
	if err := db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// GetRestaurantById reads through a redis cache; restaurant settings (VAT
// percent) are needed on every settlement.
func GetRestaurantById(ctx context.Context, restaurantId string) (*Restaurant, error) {
	if restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	var restaurant Restaurant
	cacheKey := "restaurant:" + restaurantId
	exists, err := config.GetRedisObject(cacheKey, &restaurant)
	if err != nil {
		return nil, err
	}
	if exists {
		return &restaurant, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", restaurantId).First(&restaurant).Error; err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(cacheKey, &restaurant, 0); err != nil {
		return nil, err
	}
	return &restaurant, nil
}
