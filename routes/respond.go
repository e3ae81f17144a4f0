package routes

import (
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
)

// respondError renders the error taxonomy as {errorKind, detail}.
// Persistence failures are logged with the wrapped cause; the response
// body never carries internal details.
func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)

	status := http.StatusBadRequest
	switch kind {
	case models.ErrorKindUnauthorized:
		status = http.StatusUnauthorized
	case models.ErrorKindPersistence:
		status = http.StatusInternalServerError
	case models.ErrorKindProductNotFound:
		// The not-found kind rides on 404 for lookups and 400 inside a
		// checkout; callers pass the right status via respondNotFound.
		status = http.StatusBadRequest
	}

	detail := err.Error()
	var apiErr *models.ApiError
	if errors.As(err, &apiErr) {
		detail = apiErr.Detail
	}
	if kind == models.ErrorKindPersistence {
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "routes", "respondError", cid,
			map[string]any{"path": c.Request.URL.Path}, err)
		detail = "storage unavailable"
	}

	c.JSON(status, gin.H{"errorKind": string(kind), "detail": detail})
}

// respondNotFound renders a 404. Product lookups carry the dedicated
// ProductNotFound kind; other resources report as ValidationError.
func respondNotFound(c *gin.Context, kind models.ErrorKind, detail string) {
	c.JSON(http.StatusNotFound, gin.H{"errorKind": string(kind), "detail": detail})
}

func respondValidation(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{"errorKind": string(models.ErrorKindValidation), "detail": detail})
}
