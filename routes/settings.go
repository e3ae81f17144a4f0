package routes

import (
	"net/http"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"github.com/gin-gonic/gin"
)

func getSettingsHandler(c *gin.Context) {
	settings, err := models.GetStoreSettings(c.Request.Context())
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, settings)
}

func updateSettingsHandler(c *gin.Context) {
	var input models.UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	settings, err := models.UpdateStoreSettings(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
