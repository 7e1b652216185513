package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/models"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodscheduler/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rm, err := repomanager.NewSQLiteRepositoryManager(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rm.Close() })

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ms := services.NewMealService(rm)
	ss := services.NewSyncService(rm, 10*time.Minute)

	return NewRouter(logger, ms, ss)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	router := setupRouter(t)
	w := doJSON(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())
}

func TestMealCRUD(t *testing.T) {
	router := setupRouter(t)

	// create
	w := doJSON(t, router, http.MethodPost, "/meals",
		gin.H{"date": "2025-03-10", "time": "08:00", "food": "Oatmeal"})
	require.Equal(t, 200, w.Code)

	var created models.MealEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = doJSON(t, router, http.MethodPost, "/meals",
		gin.H{"date": "2025-03-10", "time": "07:00", "food": "Coffee"})
	require.Equal(t, 200, w.Code)

	// list by date, ordered by time
	w = doJSON(t, router, http.MethodGet, "/meals?date=2025-03-10", nil)
	require.Equal(t, 200, w.Code)
	var listed []models.MealEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "Coffee", listed[0].Food)

	// update
	w = doJSON(t, router, http.MethodPut, "/meals/"+created.ID,
		gin.H{"time": "08:30", "food": "Porridge"})
	require.Equal(t, 200, w.Code)
	var updated models.MealEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Porridge", updated.Food)

	// delete
	w = doJSON(t, router, http.MethodDelete, "/meals/"+created.ID, nil)
	require.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/meals?date=2025-03-10", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestCreateMeal_MissingFields(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/meals", gin.H{"date": "2025-03-10"})
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestListMeals_EmptyIsArray(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/meals?date=2025-01-01", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestGenerateAndUseCode(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/sync/generate-code", gin.H{"deviceName": "Laptop"})
	require.Equal(t, 200, w.Code)

	var genResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &genResp))
	require.Regexp(t, `^\d{6}$`, genResp.Code)

	w = doJSON(t, router, http.MethodPost, "/sync/use-code",
		gin.H{"code": genResp.Code, "deviceId": "device-b"})
	require.Equal(t, 200, w.Code)

	var useResp struct {
		Success   bool               `json:"success"`
		Meals     []models.MealEntry `json:"meals"`
		SyncGroup string             `json:"syncGroup"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &useResp))
	assert.True(t, useResp.Success)
	assert.NotEmpty(t, useResp.SyncGroup)

	// second redemption is rejected
	w = doJSON(t, router, http.MethodPost, "/sync/use-code",
		gin.H{"code": genResp.Code, "deviceId": "device-c"})
	assert.Equal(t, 400, w.Code)
}

func TestGenerateCode_MissingName(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/sync/generate-code", gin.H{})
	assert.Equal(t, 400, w.Code)
}

func TestSyncData(t *testing.T) {
	router := setupRouter(t)

	meals := models.DaySchedule{
		"2025-03-10": {
			{ID: "m1", Date: "2025-03-10", Time: "08:00", Food: "Oatmeal",
				CreatedAt: "2025-03-10T07:00:00Z", UpdatedAt: "2025-03-10T07:00:00Z"},
		},
	}

	w := doJSON(t, router, http.MethodPost, "/sync/data",
		gin.H{"deviceId": "device-a", "meals": meals})
	require.Equal(t, 200, w.Code)

	var resp struct {
		MergedMeals models.DaySchedule `json:"mergedMeals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.MergedMeals["2025-03-10"], 1)
	assert.Equal(t, "device-a", resp.MergedMeals["2025-03-10"][0].DeviceID)

	// missing device id
	w = doJSON(t, router, http.MethodPost, "/sync/data", gin.H{"meals": meals})
	assert.Equal(t, 400, w.Code)
}
