package rest

import (
	"errors"

	"github.com/dmitrijs2005/foodscheduler/internal/common"
	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/dmitrijs2005/foodscheduler/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Handler holds the injected services used by the route handlers.
type Handler struct {
	logger      logging.Logger
	mealService *services.MealService
	syncService *services.SyncService
}

func NewHandler(logger logging.Logger, mealService *services.MealService, syncService *services.SyncService) *Handler {
	return &Handler{logger: logger, mealService: mealService, syncService: syncService}
}

// badRequest reports whether err belongs to the 400 class: missing fields
// or a rejected sync code. Everything else is a store error (500).
func badRequest(err error) bool {
	return errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrSyncCodeInvalid) ||
		errors.Is(err, common.ErrSyncCodeUsed) ||
		errors.Is(err, common.ErrSyncCodeExpired)
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.Error(c.Request.Context(), err.Error())
	if badRequest(err) {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	c.JSON(500, gin.H{"error": err.Error()})
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(200, gin.H{"status": "OK"})
}

func (h *Handler) ListMeals(c *gin.Context) {
	date := c.Query("date")
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")

	result, err := h.mealService.List(c.Request.Context(), date, startDate, endDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	if result == nil {
		result = []models.MealEntry{}
	}
	c.JSON(200, result)
}

func (h *Handler) CreateMeal(c *gin.Context) {
	var body struct {
		Date string `json:"date"`
		Time string `json:"time"`
		Food string `json:"food"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.mealService.Create(c.Request.Context(), body.Date, body.Time, body.Food)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, entry)
}

func (h *Handler) UpdateMeal(c *gin.Context) {
	var body struct {
		Time string `json:"time"`
		Food string `json:"food"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.mealService.Update(c.Request.Context(), c.Param("id"), body.Time, body.Food)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, entry)
}

func (h *Handler) DeleteMeal(c *gin.Context) {
	if err := h.mealService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

func (h *Handler) GenerateCode(c *gin.Context) {
	var body struct {
		DeviceName string `json:"deviceName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	code, err := h.syncService.GenerateCode(c.Request.Context(), body.DeviceName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"code": code.Code})
}

func (h *Handler) UseCode(c *gin.Context) {
	var body struct {
		Code     string `json:"code"`
		DeviceID string `json:"deviceId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	result, err := h.syncService.UseCode(c.Request.Context(), body.Code, body.DeviceID)
	if err != nil {
		h.fail(c, err)
		return
	}

	meals := result.Meals
	if meals == nil {
		meals = []models.MealEntry{}
	}
	c.JSON(200, gin.H{"success": true, "meals": meals, "syncGroup": result.SyncGroup})
}

func (h *Handler) SyncData(c *gin.Context) {
	var body struct {
		DeviceID string             `json:"deviceId"`
		Meals    models.DaySchedule `json:"meals"`
		LastSync string             `json:"lastSync"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	merged, err := h.syncService.SyncData(c.Request.Context(), body.DeviceID, body.Meals)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"mergedMeals": merged})
}
