// Package api implements the typed client for the REST façade. All meal
// and sync traffic from the device goes through the Client interface so
// services can be tested against a fake.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/models"
)

// UseCodeResult is the façade's answer to a successful code redemption.
type UseCodeResult struct {
	Success   bool               `json:"success"`
	Meals     []models.MealEntry `json:"meals"`
	SyncGroup string             `json:"syncGroup"`
}

// Client is the device-side view of the façade. Every method returns an
// error for network failures, non-success statuses and non-JSON responses
// alike; the meal data service treats all of them as store errors.
type Client interface {
	Ping(ctx context.Context) error

	ListMealsByDate(ctx context.Context, date string) ([]models.MealEntry, error)
	ListMealsByRange(ctx context.Context, startDate, endDate string) ([]models.MealEntry, error)
	CreateMeal(ctx context.Context, date, mealTime, food string) (*models.MealEntry, error)
	UpdateMeal(ctx context.Context, id, mealTime, food string) (*models.MealEntry, error)
	DeleteMeal(ctx context.Context, id string) error

	GenerateCode(ctx context.Context, deviceName string) (string, error)
	UseCode(ctx context.Context, code, deviceID string) (*UseCodeResult, error)
	SyncData(ctx context.Context, deviceID string, meals models.DaySchedule, lastSync string) (models.DaySchedule, error)
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// do performs one JSON round-trip. A response that is not JSON is reported
// as a transport error; a non-2xx JSON response surfaces the server's
// error message.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding error: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return fmt.Errorf("server returned non-JSON response: %d", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("%s", e.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding error: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/ping", nil, &out)
}

func (c *HTTPClient) ListMealsByDate(ctx context.Context, date string) ([]models.MealEntry, error) {
	var out []models.MealEntry
	path := "/meals?date=" + url.QueryEscape(date)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListMealsByRange(ctx context.Context, startDate, endDate string) ([]models.MealEntry, error) {
	var out []models.MealEntry
	path := "/meals?startDate=" + url.QueryEscape(startDate) + "&endDate=" + url.QueryEscape(endDate)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateMeal(ctx context.Context, date, mealTime, food string) (*models.MealEntry, error) {
	body := map[string]string{"date": date, "time": mealTime, "food": food}
	var out models.MealEntry
	if err := c.do(ctx, http.MethodPost, "/meals", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateMeal(ctx context.Context, id, mealTime, food string) (*models.MealEntry, error) {
	body := map[string]string{"time": mealTime, "food": food}
	var out models.MealEntry
	if err := c.do(ctx, http.MethodPut, "/meals/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteMeal(ctx context.Context, id string) error {
	var out struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodDelete, "/meals/"+url.PathEscape(id), nil, &out)
}

func (c *HTTPClient) GenerateCode(ctx context.Context, deviceName string) (string, error) {
	body := map[string]string{"deviceName": deviceName}
	var out struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodPost, "/sync/generate-code", body, &out); err != nil {
		return "", err
	}
	return out.Code, nil
}

func (c *HTTPClient) UseCode(ctx context.Context, code, deviceID string) (*UseCodeResult, error) {
	body := map[string]string{"code": code, "deviceId": deviceID}
	var out UseCodeResult
	if err := c.do(ctx, http.MethodPost, "/sync/use-code", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SyncData(ctx context.Context, deviceID string, meals models.DaySchedule, lastSync string) (models.DaySchedule, error) {
	body := struct {
		DeviceID string             `json:"deviceId"`
		Meals    models.DaySchedule `json:"meals"`
		LastSync string             `json:"lastSync,omitempty"`
	}{DeviceID: deviceID, Meals: meals, LastSync: lastSync}

	var out struct {
		MergedMeals models.DaySchedule `json:"mergedMeals"`
	}
	if err := c.do(ctx, http.MethodPost, "/sync/data", body, &out); err != nil {
		return nil, err
	}
	return out.MergedMeals, nil
}
