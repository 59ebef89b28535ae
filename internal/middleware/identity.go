package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/identity"
	"github.com/akshadjaiswal/hot-takes-arena/pkg/fingerprint"
)

// FingerprintHeader carries the client-generated device fingerprint.
const FingerprintHeader = "X-Device-Fingerprint"

type localsKey int

const ipHashKey localsKey = iota

// NewIdentity resolves the client address through the proxy policy and stores
// only its salted hash in the request locals.
func NewIdentity(policy *identity.ProxyPolicy, hasher identity.Hasher) fiber.Handler {
	return func(c fiber.Ctx) error {
		addr := policy.ClientAddress(c.RequestCtx().RemoteIP().String(), c.Get)
		fiber.Locals(c, ipHashKey, hasher.Hash(addr))
		return c.Next()
	}
}

// IPHash returns the hash stored by NewIdentity, or "" if it did not run.
func IPHash(c fiber.Ctx) string {
	return fiber.Locals[string](c, ipHashKey)
}

// Fingerprint picks the device fingerprint for a request: the body field,
// then the X-Device-Fingerprint header, then one derived from request headers
// and scoped to the request's ip hash.
func Fingerprint(c fiber.Ctx, fromBody string) string {
	if fp := strings.TrimSpace(fromBody); fp != "" {
		return fp
	}
	if fp := strings.TrimSpace(c.Get(FingerprintHeader)); fp != "" {
		return fp
	}
	return fingerprint.GenerateScoped(IPHash(c), fingerprint.FromRequestHeaders(
		c.Get(fiber.HeaderUserAgent),
		c.Get(fiber.HeaderAcceptLanguage),
	))
}
