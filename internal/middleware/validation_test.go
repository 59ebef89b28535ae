package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

type errorBody struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
	} `json:"error"`
}

func serveError(t *testing.T, err error) (int, errorBody, string) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error { return HandleError(c, err) })

	resp, tErr := app.Test(httptest.NewRequest("GET", "/", nil))
	if tErr != nil {
		t.Fatal(tErr)
	}
	raw, _ := io.ReadAll(resp.Body)
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return resp.StatusCode, body, resp.Header.Get(fiber.HeaderRetryAfter)
}

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		code   service.Code
		status int
	}{
		{service.CodeValidation, 400},
		{service.CodeContentValidation, 422},
		{service.CodeDuplicateVote, 409},
		{service.CodeNotFound, 404},
		{service.CodeContentHidden, 410},
		{service.CodeUnauthorized, 401},
		{service.CodeDatabase, 500},
		{service.CodeUnexpected, 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			status, body, _ := serveError(t, &service.Error{Code: tt.code, Message: "msg"})
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if body.Error.Code != string(tt.code) || body.Error.Message != "msg" {
				t.Errorf("body = %+v", body.Error)
			}
		})
	}
}

func TestHandleError_RateLimited(t *testing.T) {
	status, body, retry := serveError(t, &service.Error{
		Code:       service.CodeRateLimited,
		Message:    "Too many post requests.",
		RetryAfter: 42 * time.Second,
	})
	if status != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", status)
	}
	if retry != "42" {
		t.Errorf("Retry-After = %q, want 42", retry)
	}
	if body.Error.RetryAfter != 42 {
		t.Errorf("retryAfter = %d, want 42", body.Error.RetryAfter)
	}
}

func TestHandleError_HidesInternalErrors(t *testing.T) {
	status, body, _ := serveError(t, errors.New("pq: password authentication failed"))
	if status != 500 {
		t.Fatalf("status = %d, want 500", status)
	}
	if body.Error.Code != "UNEXPECTED_ERROR" {
		t.Errorf("code = %q", body.Error.Code)
	}
	if body.Error.Message != "An unexpected error occurred." {
		t.Errorf("message leaked: %q", body.Error.Message)
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"valid", "25", 25, false},
		{"trims whitespace", " 7 ", 7, false},
		{"zero", "0", 0, true},
		{"negative", "-5", 0, true},
		{"not a number", "ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ParseLimit(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantN   int
		wantErr bool
	}{
		{"single", "a", 1, false},
		{"several with blanks", "a, b,,c ", 3, false},
		{"empty", "", 0, true},
		{"only commas", ",,", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ParseIDList(tt.input)
			if tt.wantErr != (errMsg != "") {
				t.Errorf("errMsg = %q, wantErr %v", errMsg, tt.wantErr)
			}
			if len(got) != tt.wantN {
				t.Errorf("got %d ids, want %d", len(got), tt.wantN)
			}
		})
	}
}
