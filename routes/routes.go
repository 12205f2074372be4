package routes

import (
	"pos-service/controllers"
	"pos-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes sets up the order engine routes.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.AuthMiddleware())
	orderRoutes.POST("", oc.CreateOrder)
	orderRoutes.GET("", oc.ListOrders)
	orderRoutes.GET("/:id", oc.GetOrder)
	orderRoutes.POST("/:id/items", oc.AddItem)
	orderRoutes.PATCH("/:id/items/:itemId", oc.PatchItem)
	orderRoutes.POST("/:id/send", oc.SendToKitchen)
	orderRoutes.POST("/:id/bill", oc.RequestBill)
	orderRoutes.POST("/:id/discounts", oc.ApplyDiscount)
	orderRoutes.DELETE("/:id/discounts/:appliedId", oc.RemoveDiscount)
	orderRoutes.POST("/:id/payments", oc.Pay)

	managerRoutes := orderRoutes.Group("")
	managerRoutes.Use(middleware.ManagerOnly())
	managerRoutes.POST("/:id/cancel", oc.CancelOrder)
}

// RegisterDiscountRoutes sets up the discount catalog routes.
func RegisterDiscountRoutes(r *gin.Engine, dc *controllers.DiscountController) {
	discountRoutes := r.Group("/discounts")
	discountRoutes.Use(middleware.AuthMiddleware())
	discountRoutes.GET("", dc.ListDiscounts)
	discountRoutes.GET("/:id", dc.GetDiscount)

	managerRoutes := discountRoutes.Group("")
	managerRoutes.Use(middleware.ManagerOnly())
	managerRoutes.POST("", dc.CreateDiscount)
	managerRoutes.DELETE("/:id", dc.ArchiveDiscount)
}

// RegisterCatalogRoutes sets up category, product and tax rate routes.
func RegisterCatalogRoutes(r *gin.Engine, cc *controllers.CatalogController) {
	auth := middleware.AuthMiddleware()
	managerOnly := middleware.ManagerOnly()

	categoryRoutes := r.Group("/categories")
	categoryRoutes.Use(auth)
	categoryRoutes.GET("", cc.ListCategories)
	categoryRoutes.POST("", managerOnly, cc.CreateCategory)

	productRoutes := r.Group("/products")
	productRoutes.Use(auth)
	productRoutes.GET("", cc.ListProducts)
	productRoutes.GET("/:id", cc.GetProduct)
	productRoutes.POST("", managerOnly, cc.CreateProduct)
	productRoutes.PATCH("/:id", managerOnly, cc.UpdateProduct)
	productRoutes.DELETE("/:id", managerOnly, cc.ArchiveProduct)

	taxRoutes := r.Group("/tax-rates")
	taxRoutes.Use(auth)
	taxRoutes.GET("", cc.ListTaxRates)
	taxRoutes.POST("", managerOnly, cc.CreateTaxRate)
}

// RegisterInventoryRoutes sets up warehouse, stock and movement routes.
func RegisterInventoryRoutes(r *gin.Engine, ic *controllers.InventoryController) {
	auth := middleware.AuthMiddleware()
	managerOnly := middleware.ManagerOnly()

	warehouseRoutes := r.Group("/warehouses")
	warehouseRoutes.Use(auth)
	warehouseRoutes.GET("", ic.ListWarehouses)
	warehouseRoutes.GET("/:id", ic.GetWarehouse)
	warehouseRoutes.POST("", managerOnly, ic.CreateWarehouse)
	warehouseRoutes.DELETE("/:id", managerOnly, ic.ArchiveWarehouse)

	stockRoutes := r.Group("/stock")
	stockRoutes.Use(auth)
	stockRoutes.GET("", ic.ListStock)
	stockRoutes.PATCH("/:id", managerOnly, ic.UpdateStockItem)

	// Drafts can be prepared by any role; posting and cancelling move stock.
	movementRoutes := r.Group("/movements")
	movementRoutes.Use(auth)
	movementRoutes.GET("", ic.ListMovements)
	movementRoutes.POST("", ic.CreateMovement)
	movementRoutes.GET("/:id", ic.GetMovement)
	movementRoutes.DELETE("/:id", ic.DeleteMovement)
	movementRoutes.POST("/:id/post", managerOnly, ic.PostMovement)
	movementRoutes.POST("/:id/cancel", managerOnly, ic.CancelMovement)
}

// RegisterCashSessionRoutes sets up drawer routes. Any role may open and close.
func RegisterCashSessionRoutes(r *gin.Engine, cc *controllers.CashSessionController) {
	sessionRoutes := r.Group("/cash-sessions")
	sessionRoutes.Use(middleware.AuthMiddleware())
	sessionRoutes.POST("", cc.Open)
	sessionRoutes.GET("", cc.List)
	sessionRoutes.GET("/current", cc.Current)
	sessionRoutes.POST("/current/close", cc.Close)
	sessionRoutes.GET("/:id", cc.Get)
	sessionRoutes.GET("/:id/summary", cc.Summary)
}
