package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/restro_backend/config"
	"bitbucket.org/mmdatafocus/restro_backend/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps engine errors onto HTTP statuses. Anything unrecognized
// is a 500 with a generic body; the real error goes to the log, not the wire.
func respondError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	var insufficientErr *utils.InsufficientStockError
	var duplicateErr *utils.DuplicateBillError
	var conflictErr *utils.ConflictError

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": insufficientErr.Error()})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{"error": duplicateErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
	default:
		_ = c.Error(err)
		config.LogError(config.GetLogger(), "controllers", "respondError",
			"unhandled engine error", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
