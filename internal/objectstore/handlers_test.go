package objectstore

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestObjectUploadAndServe(t *testing.T) {
	store := New(t.TempDir(), "sign-key", "http://localhost:8080")
	app := fiber.New()
	RegisterRoutes(app.Group("/objects"), store)

	objectPath, _, expiresAt := store.PresignUpload("photo.jpg")
	sig := store.sign(objectPath, expiresAt.Unix())

	url := fmt.Sprintf("/objects/%s?exp=%d&sig=%s", objectPath, expiresAt.Unix(), sig)
	req := httptest.NewRequest(http.MethodPut, url, bytes.NewReader([]byte("image bytes")))
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("put status: %v %v", err, resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/objects/"+objectPath, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v %v", err, resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "image bytes" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestObjectUploadBadSignature(t *testing.T) {
	store := New(t.TempDir(), "sign-key", "http://localhost:8080")
	app := fiber.New()
	RegisterRoutes(app.Group("/objects"), store)

	req := httptest.NewRequest(http.MethodPut, "/objects/x.jpg?exp=99999999999&sig=bogus", bytes.NewReader([]byte("data")))
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodPut, "/objects/x.jpg", bytes.NewReader([]byte("data")))
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("missing exp: expected 403, got %v", resp.StatusCode)
	}
}

func TestObjectMissing(t *testing.T) {
	store := New(t.TempDir(), "sign-key", "http://localhost:8080")
	app := fiber.New()
	RegisterRoutes(app.Group("/objects"), store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/objects/nope.jpg", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp.StatusCode)
	}
}
