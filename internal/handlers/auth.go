package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/auth"
	"github.com/bizkart/backend/internal/hash"
	"github.com/bizkart/backend/internal/logging"
	"github.com/bizkart/backend/internal/mail"
	"github.com/bizkart/backend/internal/models"
	"github.com/bizkart/backend/internal/mykafka"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
	TokenTTL  time.Duration
	Producer  *mykafka.Producer
	Mailer    mail.Mailer
	BaseURL   string
}

func (h *AuthHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// Token exchanges form credentials for a bearer token.
func (h *AuthHandler) Token(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := auth.Authenticate(h.DB, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	token, err := auth.MintToken(user, h.JWTSecret, h.TokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	l := logging.FromContext(c.Request().Context()).With("username", req.Username)

	var count int64
	if err := h.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
	}
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already exists")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
	}

	// The user and their business profile land in one transaction, so a
	// constraint violation on either leaves no half-registered state. The
	// pre-checks above are best-effort; the constraint error is the source
	// of truth under concurrent registrations.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		business := models.Business{
			BusinessName: user.Username,
			OwnerID:      user.ID,
		}
		return tx.Create(&business).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusBadRequest, "Username or Email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	verifyToken, err := auth.MintToken(&user, h.JWTSecret, h.TokenTTL)
	if err != nil {
		l.Error("verification token error", "error", err)
	} else if h.Mailer != nil {
		if err := mail.SendVerification(h.Mailer, user.Email, verifyToken, h.BaseURL); err != nil {
			l.Error("verification email error", "error", err)
		}
	}

	h.publish(c, map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"data":   fmt.Sprintf("Hello %s, thanks for choosing our services.", user.Username),
	})
}

func (h *AuthHandler) Verification(c echo.Context) error {
	rawToken := c.QueryParam("token")

	user, err := auth.VerifyToken(h.DB, rawToken, h.JWTSecret)
	if err != nil {
		if errors.Is(err, auth.ErrUserGone) {
			return echo.NewHTTPError(http.StatusNotFound, "User no longer exists")
		}
		return echo.NewHTTPError(http.StatusForbidden, "Invalid token or expired token")
	}

	// Verification is one-way; a second visit only reports the state.
	if user.IsVerified {
		return renderPage(c, alreadyVerifiedTmpl, user.Username)
	}

	user.IsVerified = true
	if err := h.DB.Save(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":     "user_verified",
		"userID":   user.ID,
		"username": user.Username,
	})

	return renderPage(c, verifiedTmpl, user.Username)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}

var verifiedTmpl = template.Must(template.New("verified").Parse(`<!DOCTYPE html>
<html>
    <body>
        <h3>Account Verified</h3>
        <p>Congratulations {{.Username}}, your account has been verified.</p>
    </body>
</html>`))

var alreadyVerifiedTmpl = template.Must(template.New("already_verified").Parse(`<!DOCTYPE html>
<html>
    <body>
        <h3>Account Already Verified</h3>
        <p>{{.Username}}, your account is already verified.</p>
    </body>
</html>`))

func renderPage(c echo.Context, tmpl *template.Template, username string) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Username string }{Username: username}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.HTML(http.StatusOK, buf.String())
}
