package routes

import (
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/models/reports"
	"github.com/gin-gonic/gin"
)

func dashboardHandler(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	report, err := reports.GetDashboardReport(c.Request.Context(), days)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

func salesByDayHandler(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 {
		days = 7
	}

	result, err := reports.GetSalesByDay(c.Request.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// revenueHandler accepts either period=today|month or an explicit
// from/to date range.
func revenueHandler(c *gin.Context) {
	now := time.Now()
	var from, to time.Time

	switch c.DefaultQuery("period", "") {
	case "today":
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to = from.Add(24*time.Hour - time.Nanosecond)
	case "month":
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to = from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	case "":
		f, err := time.Parse("2006-01-02", c.Query("from"))
		if err != nil {
			respondValidation(c, "from must be YYYY-MM-DD (or pass period=today|month)")
			return
		}
		t, err := time.Parse("2006-01-02", c.Query("to"))
		if err != nil {
			respondValidation(c, "to must be YYYY-MM-DD")
			return
		}
		from = f
		to = t.Add(24*time.Hour - time.Nanosecond)
	default:
		respondValidation(c, "period must be today or month")
		return
	}

	report, err := reports.GetRevenueReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

func monthlyRevenueHandler(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))

	result, err := reports.GetMonthlyRevenue(c.Request.Context(), months)
	if err != nil {
		respondError(c, models.NewPersistenceError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}
