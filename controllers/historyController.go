package controllers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/restro_backend/models"
	"github.com/gin-gonic/gin"
)

// GetHistories lists audit rows, optionally filtered by reference_type and
// reference_id query params.
func GetHistories(c *gin.Context) {
	referenceType := c.Query("reference_type")
	referenceId := 0
	if v := c.Query("reference_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference_id"})
			return
		}
		referenceId = n
	}

	histories, err := models.GetHistories(c.Request.Context(), referenceType, referenceId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, histories)
}
