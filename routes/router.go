package routes

import (
	"bitbucket.org/mmdatafocus/pos_backend/middlewares"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs custom binding rules on gin's validator.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("barcode", func(fl validator.FieldLevel) bool {
			return utils.IsValidBarcode(fl.Field().String())
		})
	}
}

// RegisterRoutes wires all REST endpoints. AuthMiddleware has already
// parsed any Bearer token; RequireAuth / RequireAdmin enforce access
// per route group.
func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", loginHandler)
		auth.POST("/register", middlewares.RequireAuth(), middlewares.RequireAdmin(), registerHandler)
		auth.GET("/me", middlewares.RequireAuth(), currentUserHandler)
		auth.POST("/change-password", middlewares.RequireAuth(), changePasswordHandler)
	}

	products := api.Group("/products", middlewares.RequireAuth())
	{
		products.GET("", listProductsHandler)
		products.GET("/low-stock", lowStockHandler)
		products.GET("/barcode/:barcode", productByBarcodeHandler)
		products.GET("/:id", getProductHandler)
		products.POST("", createProductHandler)
		products.PUT("/:id", updateProductHandler)
		products.POST("/:id/stock-in", stockInHandler)
		products.DELETE("/:id", middlewares.RequireAdmin(), deleteProductHandler)
	}

	sales := api.Group("/sales", middlewares.RequireAuth())
	{
		sales.POST("", createSaleHandler)
		sales.GET("", listSalesHandler)
		sales.GET("/daily-summary", dailySummaryHandler)
		sales.GET("/top-products", topProductsHandler)
	}

	inventory := api.Group("/inventory", middlewares.RequireAuth())
	{
		inventory.GET("/movements", listMovementsHandler)
	}

	reports := api.Group("/reports", middlewares.RequireAuth())
	{
		reports.GET("", dashboardHandler)
		reports.GET("/dashboard", dashboardHandler)
		reports.GET("/revenue", revenueHandler)
		reports.GET("/sales-by-day", salesByDayHandler)
		reports.GET("/monthly-revenue", monthlyRevenueHandler)
		reports.GET("/sales/export", exportSalesHandler)
	}

	users := api.Group("/users", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		users.GET("", listUsersHandler)
		users.GET("/:id", getUserHandler)
		users.POST("", createUserHandler)
		users.PUT("/:id", updateUserHandler)
		users.PUT("/:id/password", resetPasswordHandler)
		users.DELETE("/:id", deleteUserHandler)
	}

	settings := api.Group("/settings", middlewares.RequireAuth())
	{
		settings.GET("", getSettingsHandler)
		settings.PUT("", middlewares.RequireAdmin(), updateSettingsHandler)
	}
}
