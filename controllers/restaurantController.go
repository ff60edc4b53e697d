package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/restro_backend/models"
	"github.com/gin-gonic/gin"
)

// CreateRestaurant provisions a tenant row. Mounted under /internal, outside
// the actor-scoped API group: it is for ops tooling behind the gateway, not
// the staff client.
func CreateRestaurant(c *gin.Context) {
	var input models.NewRestaurant
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	restaurant, err := models.CreateRestaurant(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}
