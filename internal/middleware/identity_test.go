package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/identity"
	"github.com/akshadjaiswal/hot-takes-arena/pkg/hash"
)

func identityApp(t *testing.T, trusted []string, hasher identity.Hasher) *fiber.App {
	t.Helper()
	policy, err := identity.NewProxyPolicy(trusted)
	if err != nil {
		t.Fatal(err)
	}
	app := fiber.New()
	app.Use(NewIdentity(policy, hasher))
	app.Get("/", func(c fiber.Ctx) error { return c.SendString(IPHash(c)) })
	return app
}

func getBody(t *testing.T, app *fiber.App, headers map[string]string) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func TestIdentity_UntrustedPeerIgnoresHeaders(t *testing.T) {
	hasher := identity.NewHasher("salt")
	app := identityApp(t, nil, hasher)

	got := getBody(t, app, map[string]string{"X-Forwarded-For": "203.0.113.9"})
	if !hash.IsHexDigest(got) {
		t.Fatalf("ip hash = %q, want hex digest", got)
	}
	if got == hasher.Hash("203.0.113.9") {
		t.Fatal("spoofed X-Forwarded-For was honored from an untrusted peer")
	}
}

func TestIdentity_TrustedPeerUsesForwardedFor(t *testing.T) {
	hasher := identity.NewHasher("salt")
	app := identityApp(t, []string{"0.0.0.0/0", "::/0"}, hasher)

	got := getBody(t, app, map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	if got != hasher.Hash("203.0.113.9") {
		t.Fatalf("ip hash = %q, want hash of first forwarded address", got)
	}
}

func TestIdentity_SaltChangesHash(t *testing.T) {
	a := getBody(t, identityApp(t, nil, identity.NewHasher("one")), nil)
	b := getBody(t, identityApp(t, nil, identity.NewHasher("two")), nil)
	if a == b {
		t.Fatal("different salts produced the same hash")
	}
}

func TestFingerprint_Resolution(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error { return c.SendString(Fingerprint(c, c.Query("fp"))) })

	get := func(target string, headers map[string]string) string {
		req := httptest.NewRequest("GET", target, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	if got := get("/?fp=body_fp_123", map[string]string{FingerprintHeader: "header_fp_1"}); got != "body_fp_123" {
		t.Errorf("body value should win, got %q", got)
	}
	if got := get("/", map[string]string{FingerprintHeader: "header_fp_1"}); got != "header_fp_1" {
		t.Errorf("header value expected, got %q", got)
	}

	ua := map[string]string{"User-Agent": "Mozilla/5.0 test", "Accept-Language": "en-US"}
	first := get("/", ua)
	if !hash.IsHexDigest(first) {
		t.Fatalf("fallback fingerprint = %q, want hex digest", first)
	}
	if second := get("/", ua); second != first {
		t.Errorf("fallback not stable: %q vs %q", first, second)
	}
	if other := get("/", map[string]string{"User-Agent": "curl/8"}); other == first {
		t.Error("different headers produced the same fallback fingerprint")
	}
}
