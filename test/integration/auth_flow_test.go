package integration

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"sparklink-ai-be/internal/bootstrap"
	"sparklink-ai-be/internal/config"
	"sparklink-ai-be/internal/dto"
	"sparklink-ai-be/internal/server"
	"sparklink-ai-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestAuthFlow(t *testing.T) {
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	email := "auth-flow-" + uuid.New().String() + "@example.com"
	password := "supersecret1"

	defer db.Exec("DELETE FROM users WHERE email = ?", email)

	t.Run("Register", func(t *testing.T) {
		reqBody := dto.RegisterRequest{
			Email:    email,
			Password: password,
			FullName: "Auth Flow User",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/auth/v1/register", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Register duplicate email", func(t *testing.T) {
		reqBody := dto.RegisterRequest{
			Email:    email,
			Password: password,
			FullName: "Auth Flow User",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/auth/v1/register", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 409, resp.StatusCode)
	})

	var token string

	t.Run("Login success", func(t *testing.T) {
		reqBody := dto.LoginRequest{
			Email:    email,
			Password: password,
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/auth/v1/login", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result struct {
			Success bool              `json:"success"`
			Message string            `json:"message"`
			Data    dto.LoginResponse `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.NotEmpty(t, result.Data.Token)
		token = result.Data.Token
	})

	t.Run("Login wrong password", func(t *testing.T) {
		reqBody := dto.LoginRequest{
			Email:    email,
			Password: "wrongpassword",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/auth/v1/login", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("Profile with token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/v1/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 200, resp.StatusCode)

		var result struct {
			Success bool                    `json:"success"`
			Message string                  `json:"message"`
			Data    dto.UserProfileResponse `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, email, result.Data.Email)
	})

	t.Run("Profile without token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/v1/profile", nil)

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 401, resp.StatusCode)
	})
}
