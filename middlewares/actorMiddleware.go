package middlewares

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Actor pulls the acting tenant and user off the request headers and puts
// them into the request context, where the models read them. The gateway in
// front of this service authenticates and sets these headers; a request
// without a restaurant id never reaches the engine.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantId := c.GetHeader("X-Restaurant-Id")
		if restaurantId == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Restaurant-Id header"})
			return
		}

		userId, _ := strconv.Atoi(c.GetHeader("X-User-Id"))
		userName := c.GetHeader("X-User-Name")
		if userName == "" {
			userName = "system"
		}
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		c.Header("X-Correlation-Id", correlationId)

		ctx := c.Request.Context()
		ctx = utils.SetRestaurantIdInContext(ctx, restaurantId)
		ctx = utils.SetUserIdInContext(ctx, userId)
		ctx = utils.SetUserNameInContext(ctx, userName)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
