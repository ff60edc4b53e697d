package routes

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

// Tenant provisioning must stay reachable for ops tooling without going
// through the actor-scoped /api/v1 group.
func TestInternalRestaurantRouteRegistered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r)

	for _, route := range r.Routes() {
		if route.Method == http.MethodPost && route.Path == "/internal/restaurants" {
			return
		}
	}
	t.Fatalf("POST /internal/restaurants not registered")
}
