package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/bizkart/backend/internal/models"
)

func TestUpdateBusiness(t *testing.T) {
	db := InitTestDB(t)
	h := &BusinessHandler{DB: db}
	user, business := createTestUser(t, db, "test_user", "test@example.com")

	payload := map[string]string{
		"business_name":        "My Shop",
		"city":                 "Lagos",
		"region":               "West",
		"business_description": "electronics and more",
	}
	rec, c := doJSONRequest(t, http.MethodPost, "/business/1", payload)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user", user)

	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string          `json:"status"`
		Data   models.Business `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "My Shop", resp.Data.BusinessName)

	var reloaded models.Business
	require.NoError(t, db.First(&reloaded, business.ID).Error)
	require.Equal(t, "Lagos", reloaded.City)
}

func TestUpdateBusinessNonOwner(t *testing.T) {
	db := InitTestDB(t)
	h := &BusinessHandler{DB: db}
	_, business := createTestUser(t, db, "owner_user", "owner@example.com")
	intruder, _ := createTestUser(t, db, "other_user", "other@example.com")

	payload := map[string]string{"business_name": "hijacked"}
	_, c := doJSONRequest(t, http.MethodPost, "/business/1", payload)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user", intruder)

	err := h.Update(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)

	var reloaded models.Business
	require.NoError(t, db.First(&reloaded, business.ID).Error)
	require.Equal(t, "owner_user", reloaded.BusinessName)
}
