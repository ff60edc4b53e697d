package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"gorm.io/gorm"
)

// History is the audit trail: one append-only row per mutation, written
// inside the same transaction as the mutation it describes. Before/After are
// full point-in-time JSON snapshots, not diffs, so a row can be replayed on
// its own.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	RestaurantId  string    `gorm:"index;size:36;not null" json:"restaurant_id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	UserId        int       `gorm:"index;not null" json:"user_id"`
	UserName      string    `gorm:"size:100" json:"user_name"`
	CorrelationId string    `gorm:"size:36" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func createHistory(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var history History

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	// get restaurantId, userId, userName from context
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return errors.New("restaurant id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}
	userName, ok := utils.GetUserNameFromContext(ctx)
	if !ok {
		return errors.New("user name is required")
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	history.RestaurantId = restaurantId
	history.ActionType = actionType
	history.Before = string(b)
	history.After = string(a)
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = referenceType
	history.UserId = userId
	history.UserName = userName
	history.CorrelationId = correlationId

	err = tx.Create(&history).Error
	return err
}

// GetHistories lists audit rows for one entity, newest first.
func GetHistories(ctx context.Context, referenceType string, referenceId int) ([]*History, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errors.New("restaurant id is required")
	}

	db := config.GetDB()
	var histories []*History
	dbCtx := db.WithContext(ctx).Where("restaurant_id = ?", restaurantId)
	if referenceType != "" {
		dbCtx = dbCtx.Where("reference_type = ?", referenceType)
	}
	if referenceId > 0 {
		dbCtx = dbCtx.Where("reference_id = ?", referenceId)
	}
	if err := dbCtx.Order("id DESC").Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}
