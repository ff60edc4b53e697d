package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/restro_backend/models"
	"github.com/gin-gonic/gin"
)

func CreatePurchaseBill(c *gin.Context) {
	var input models.NewPurchaseBill
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bill, err := models.CreatePurchaseBill(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func GetPurchaseBills(c *gin.Context) {
	bills, err := models.GetPurchaseBills(c.Request.Context(), c.Query("fiscal_year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func GetPurchaseBill(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	bill, err := models.GetPurchaseBill(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func UpdatePurchaseBill(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPurchaseBill
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bill, err := models.UpdatePurchaseBill(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

type deleteBillInput struct {
	Reason string `json:"reason" binding:"required"`
}

func DeletePurchaseBill(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input deleteBillInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a reason is required to delete a bill"})
		return
	}
	if err := models.DeletePurchaseBill(c.Request.Context(), id, input.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "purchase bill deleted"})
}
