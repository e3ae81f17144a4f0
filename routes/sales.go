package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/models/reports"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// createSaleHandler decodes the cart strictly: unknown fields are
// rejected so a client sending its own totals fails loudly instead of
// being silently ignored.
func createSaleHandler(c *gin.Context) {
	var input models.NewSale

	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		respondValidation(c, "invalid sale payload: "+err.Error())
		return
	}
	if err := binding.Validator.ValidateStruct(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	sale, err := models.ProcessSale(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	reports.InvalidateDashboardCache()
	c.JSON(http.StatusCreated, sale)
}

func parseSalesFilter(c *gin.Context) (models.SalesFilter, bool) {
	var filter models.SalesFilter

	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondValidation(c, "start_date must be YYYY-MM-DD")
			return filter, false
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondValidation(c, "end_date must be YYYY-MM-DD")
			return filter, false
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	filter.Cashier = c.Query("cashier")
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	return filter, true
}

func listSalesHandler(c *gin.Context) {
	filter, ok := parseSalesFilter(c)
	if !ok {
		return
	}

	sales, total, err := models.GetSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": total})
}

func dailySummaryHandler(c *gin.Context) {
	day := time.Now()
	if v := c.Query("date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondValidation(c, "date must be YYYY-MM-DD")
			return
		}
		day = t
	}

	summary, err := models.GetDailySummary(c.Request.Context(), day)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func topProductsHandler(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	since := time.Now().AddDate(0, 0, -days)
	products, err := models.GetTopProducts(c.Request.Context(), since, limit)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, products)
}

func exportSalesHandler(c *gin.Context) {
	filter, ok := parseSalesFilter(c)
	if !ok {
		return
	}

	f, err := reports.ExportSalesExcel(c.Request.Context(), filter)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}

	c.Header("Content-Disposition", "attachment; filename=sales.xlsx")
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
