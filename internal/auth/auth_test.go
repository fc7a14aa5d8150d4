package auth

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bizkart/backend/internal/hash"
	"github.com/bizkart/backend/internal/models"
)

var testSecret = []byte("test-secret")

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Business{}, &models.Product{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB) *models.User {
	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{
		Username:     "test_user",
		Email:        "test@example.com",
		PasswordHash: pwHash,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestAuthenticate(t *testing.T) {
	db := initTestDB(t)
	user := createUser(t, db)

	got, err := Authenticate(db, "test_user", "password")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = Authenticate(db, "test_user", "wrong_password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(db, "nobody", "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundtrip(t *testing.T) {
	db := initTestDB(t)
	user := createUser(t, db)

	token, err := MintToken(user, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := VerifyToken(db, token, testSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.Username, got.Username)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	db := initTestDB(t)
	user := createUser(t, db)

	token, err := MintToken(user, []byte("another-secret"), time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(db, token, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	db := initTestDB(t)
	user := createUser(t, db)

	token, err := MintToken(user, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(db, token, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenUserGone(t *testing.T) {
	db := initTestDB(t)
	user := createUser(t, db)

	token, err := MintToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	_, err = VerifyToken(db, token, testSecret)
	require.ErrorIs(t, err, ErrUserGone)
}

func TestVerifyTokenMalformed(t *testing.T) {
	db := initTestDB(t)

	_, err := VerifyToken(db, "not-a-token", testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}
