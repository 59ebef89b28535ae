package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

type staticVerifier struct{ valid string }

func (v staticVerifier) VerifyToken(token string) error {
	if token == "" || token != v.valid {
		return &service.Error{Code: service.CodeUnauthorized, Message: "Authentication required"}
	}
	return nil
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Use(RequireAdmin(staticVerifier{valid: "good"}))
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, 401},
		{"bad cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AdminCookie, Value: "bad"}) }, 401},
		{"good cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AdminCookie, Value: "good"}) }, 200},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, 200},
		{"basic header", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
