package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/mmdatafocus/restro_backend/config"
)

// check if id exists, using ctx's restaurant_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, restaurantId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, restaurantId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, restaurantId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, restaurantId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, restaurantId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE restaurant_id = ? AND $condition
// restaurant_id can be blank for platform-level tools
func ResourceCountWhere[T any](ctx context.Context, restaurantId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if restaurantId != "" {
		dbCtx = dbCtx.Where("restaurant_id = ?", restaurantId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
