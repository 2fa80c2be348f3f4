package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func postLogin(t *testing.T, app *fiber.App, body map[string]string) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestLoginHandler(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
		WithArgs("admin").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow("admin-1", "admin", string(hash), time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", mock))

	resp := postLogin(t, app, map[string]string{"username": "admin", "password": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v", resp.StatusCode)
	}

	var body TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AccessToken == "" {
		t.Fatalf("expected access token")
	}
}

func TestLoginHandlerRejections(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", mock))

	resp := postLogin(t, app, map[string]string{"username": "admin"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %v", resp.StatusCode)
	}

	mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)
	resp = postLogin(t, app, map[string]string{"username": "ghost", "password": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %v", resp.StatusCode)
	}
}
