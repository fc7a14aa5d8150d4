package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/auth"
	"github.com/bizkart/backend/internal/hash"
	"github.com/bizkart/backend/internal/models"
	"github.com/bizkart/backend/internal/mykafka"
)

var testSecret = []byte("test-secret")

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Business{}, &models.Product{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		DB:        db,
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		Producer:  &mykafka.Producer{},
		BaseURL:   "http://localhost:8000",
	}
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string) (*models.User, *models.Business) {
	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{Username: username, Email: email, PasswordHash: pwHash}
	require.NoError(t, db.Create(&user).Error)

	business := models.Business{BusinessName: username, OwnerID: user.ID}
	require.NoError(t, db.Create(&business).Error)

	return &user, &business
}

func doJSONRequest(t *testing.T, method, target string, payload interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var body *bytes.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(bodyBytes)
	} else {
		body = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c
}

func doFormRequest(t *testing.T, target string, form url.Values) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c
}

func TestRegister(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)

	payload := map[string]string{
		"username": "test_user",
		"email":    "test@example.com",
		"password": "password",
	}
	rec, c := doJSONRequest(t, http.MethodPost, "/registration", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp["status"])
	require.Contains(t, resp["data"], "test_user")

	var user models.User
	require.NoError(t, db.Where("username = ?", "test_user").First(&user).Error)
	require.False(t, user.IsVerified)
	require.NotEqual(t, "password", user.PasswordHash)

	// the business profile is created together with the user
	var business models.Business
	require.NoError(t, db.Where("owner_id = ?", user.ID).First(&business).Error)
	require.Equal(t, "test_user", business.BusinessName)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	createTestUser(t, db, "test_user", "first@example.com")

	payload := map[string]string{
		"username": "test_user",
		"email":    "second@example.com",
		"password": "password",
	}
	_, c := doJSONRequest(t, http.MethodPost, "/registration", payload)

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	createTestUser(t, db, "first_user", "test@example.com")

	payload := map[string]string{
		"username": "second_user",
		"email":    "test@example.com",
		"password": "password",
	}
	_, c := doJSONRequest(t, http.MethodPost, "/registration", payload)

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestToken(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	createTestUser(t, db, "test_user", "test@example.com")

	form := url.Values{}
	form.Set("username", "test_user")
	form.Set("password", "password")
	rec, c := doFormRequest(t, "/token", form)

	require.NoError(t, h.Token(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.Equal(t, "bearer", resp["token_type"])
}

func TestTokenBadCredentials(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	createTestUser(t, db, "test_user", "test@example.com")

	form := url.Values{}
	form.Set("username", "test_user")
	form.Set("password", "wrong_password")
	_, c := doFormRequest(t, "/token", form)

	err := h.Token(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestVerificationFlipsOnce(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	user, _ := createTestUser(t, db, "test_user", "test@example.com")

	token, err := auth.MintToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	rec, c := doJSONRequest(t, http.MethodGet, "/verification?token="+token, nil)
	require.NoError(t, h.Verification(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "has been verified")

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.True(t, reloaded.IsVerified)

	// second visit reports the state without mutating
	rec2, c2 := doJSONRequest(t, http.MethodGet, "/verification?token="+token, nil)
	require.NoError(t, h.Verification(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Contains(t, rec2.Body.String(), "already verified")
}

func TestVerificationWrongSecret(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	user, _ := createTestUser(t, db, "test_user", "test@example.com")

	token, err := auth.MintToken(user, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	_, c := doJSONRequest(t, http.MethodGet, "/verification?token="+token, nil)
	err = h.Verification(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusForbidden, he.Code)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.False(t, reloaded.IsVerified)
}

func TestVerificationUserGone(t *testing.T) {
	db := InitTestDB(t)
	h := newAuthHandler(db)
	user, _ := createTestUser(t, db, "test_user", "test@example.com")

	token, err := auth.MintToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	_, c := doJSONRequest(t, http.MethodGet, "/verification?token="+token, nil)
	err = h.Verification(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}
