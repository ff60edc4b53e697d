package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/restro_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateGeneralBill(c *gin.Context) {
	var input models.NewGeneralBill
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bill, err := models.CreateGeneralBill(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func GetGeneralBills(c *gin.Context) {
	bills, err := models.GetGeneralBills(c.Request.Context(), c.Query("fiscal_year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func GetGeneralBill(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	bill, err := models.GetGeneralBill(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func UpdateGeneralBill(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewGeneralBill
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bill, err := models.UpdateGeneralBill(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func DeleteGeneralBill(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input deleteBillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a reason is required to delete a bill"})
		return
	}
	if err := models.DeleteGeneralBill(c.Request.Context(), id, input.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "general bill deleted"})
}
