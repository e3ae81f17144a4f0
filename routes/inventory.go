package routes

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/gin-gonic/gin"
)

func listMovementsHandler(c *gin.Context) {
	var filter models.MovementFilter
	filter.ProductId, _ = strconv.Atoi(c.Query("product_id"))
	filter.Kind = models.MovementKind(c.Query("kind"))
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	movements, total, err := models.GetInventoryMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": total})
}
