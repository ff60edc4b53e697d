package routes

import (
	"bitbucket.org/mmdatafocus/restro_backend/controllers"
	"bitbucket.org/mmdatafocus/restro_backend/middlewares"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ops-only surface; the gateway never forwards /internal
	r.POST("/internal/restaurants", controllers.CreateRestaurant)

	api := r.Group("/api/v1")
	api.Use(middlewares.Actor())
	{
		api.POST("/orders", controllers.PlaceOrder)
		api.GET("/orders", controllers.GetOrders)
		api.GET("/orders/:id", controllers.GetOrder)
		api.PUT("/orders/:id", controllers.UpdateOrder)
		api.DELETE("/orders/:id", controllers.DeleteOrder)
		api.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
		api.GET("/orders/:id/bill-preview", controllers.PreviewBill)
		api.POST("/orders/:id/settle/paid", controllers.SettleOrderPaid)
		api.POST("/orders/:id/settle/credit", controllers.SettleOrderCredit)

		api.POST("/purchase-bills", controllers.CreatePurchaseBill)
		api.GET("/purchase-bills", controllers.GetPurchaseBills)
		api.GET("/purchase-bills/:id", controllers.GetPurchaseBill)
		api.PUT("/purchase-bills/:id", controllers.UpdatePurchaseBill)
		api.DELETE("/purchase-bills/:id", controllers.DeletePurchaseBill)

		api.POST("/general-bills", controllers.CreateGeneralBill)
		api.GET("/general-bills", controllers.GetGeneralBills)
		api.GET("/general-bills/:id", controllers.GetGeneralBill)
		api.PUT("/general-bills/:id", controllers.UpdateGeneralBill)
		api.DELETE("/general-bills/:id", controllers.DeleteGeneralBill)

		api.POST("/customers", controllers.CreateCustomer)
		api.GET("/customers", controllers.GetCustomers)
		api.GET("/customers/:id", controllers.GetCustomer)
		api.PUT("/customers/:id", controllers.UpdateCustomer)
		api.POST("/customers/:id/payments", controllers.RecordCustomerPayment)
		api.GET("/customers/:id/transactions", controllers.GetCustomerTransactions)
		api.POST("/customers/:id/recompute-balance", controllers.RecomputeCustomerBalance)

		api.GET("/stocks", controllers.GetStockRecords)
		api.POST("/stocks", controllers.AddStock)

		api.POST("/menu-items", controllers.CreateMenuItem)
		api.GET("/menu-items", controllers.GetMenuItems)
		api.GET("/menu-items/:id", controllers.GetMenuItem)
		api.PUT("/menu-items/:id", controllers.UpdateMenuItem)

		api.POST("/charges", controllers.CreateCharge)
		api.GET("/charges", controllers.GetCharges)
		api.PUT("/charges/:id", controllers.UpdateCharge)

		api.GET("/histories", controllers.GetHistories)
	}
}
