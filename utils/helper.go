package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

// RestaurantLock serializes a critical section per restaurant across
// instances. The DB row locks remain the source of truth; this guard keeps
// two app instances from even entering the settlement path concurrently.
func RestaurantLock(ctx context.Context, restaurantId string, lockType string, moduleName string, functionName string) (*redislock.Lock, error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when the Redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", restaurantId, errors.New("redis lock is nil"))
		return nil, &ConflictError{Message: "service not ready (redis lock not initialized)"}
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, restaurantId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for restaurant", restaurantId, err)
		return nil, &ConflictError{Message: "another settlement is in progress for this restaurant"}
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for restaurant", restaurantId, err)
		return nil, err
	}
	return lock, nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return dec, nil
}

func UniqueSlice[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
