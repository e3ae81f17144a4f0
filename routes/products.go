package routes

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/gin-gonic/gin"
)

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondValidation(c, "invalid id")
		return 0, false
	}
	return id, true
}

func listProductsHandler(c *gin.Context) {
	products, err := models.GetAllProducts(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, products)
}

func getProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondNotFound(c, models.ErrorKindProductNotFound, "product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

func productByBarcodeHandler(c *gin.Context) {
	product, err := models.GetProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondNotFound(c, models.ErrorKindProductNotFound, "product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

func lowStockHandler(c *gin.Context) {
	products, err := models.GetLowStockProducts(c.Request.Context())
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, products)
}

func createProductHandler(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func updateProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func stockInHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewStockIn
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	product, err := models.StockIn(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func deleteProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted", "product": product})
}
